package validators

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// WCAG conformance levels.
const (
	LevelA   = "A"
	LevelAA  = "AA"
	LevelAAA = "AAA"
)

var levelRank = map[string]int{LevelA: 1, LevelAA: 2, LevelAAA: 3}

// A11yRule is one accessibility rule evaluated against the DOM.
type A11yRule struct {
	ID        string
	Criterion string
	Level     string
	// Since is the WCAG version that introduced the criterion.
	Since string
	Help  string
	Check func(doc *goquery.Document) []Violation
}

// AccessibilityAuditor evaluates a WCAG rule set against the document.
type AccessibilityAuditor struct {
	Rules []A11yRule
}

// NewAccessibilityAuditor creates an auditor with the built-in rules.
func NewAccessibilityAuditor() *AccessibilityAuditor {
	return &AccessibilityAuditor{Rules: DefaultA11yRules()}
}

func (a *AccessibilityAuditor) Name() string { return "a11y" }

// ParseWCAG splits a target like "2.1 AA" into version and level. A bare
// level ("AA") assumes version 2.1.
func ParseWCAG(target string) (version, level string, err error) {
	fields := strings.Fields(strings.TrimSpace(target))
	switch len(fields) {
	case 0:
		return "2.1", LevelA, nil
	case 1:
		version, level = "2.1", strings.ToUpper(fields[0])
	case 2:
		version, level = strings.TrimPrefix(strings.ToLower(fields[0]), "wcag"), strings.ToUpper(fields[1])
	default:
		return "", "", fmt.Errorf("invalid WCAG target %q", target)
	}
	if _, ok := levelRank[level]; !ok {
		return "", "", fmt.Errorf("invalid WCAG level %q in %q", level, target)
	}
	if _, err := strconv.ParseFloat(version, 64); err != nil {
		return "", "", fmt.Errorf("invalid WCAG version %q in %q", version, target)
	}
	return version, level, nil
}

// Validate runs every rule that applies to the requested WCAG target.
func (a *AccessibilityAuditor) Validate(ctx context.Context, doc Document, opts Options) (*Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	version, level, err := ParseWCAG(opts.WCAG)
	if err != nil {
		return nil, err
	}
	dom, err := goquery.NewDocumentFromReader(bytes.NewReader(doc.Content))
	if err != nil {
		return nil, fmt.Errorf("failed to parse HTML: %w", err)
	}

	acc := &AccessibilityResult{Level: version + " " + level}
	for _, rule := range a.Rules {
		if levelRank[rule.Level] > levelRank[level] || versionGreater(rule.Since, version) {
			continue
		}
		found := rule.Check(dom)
		for i := range found {
			found[i].Rule = rule.ID
			found[i].Severity = SeverityError
			found[i].HelpURL = rule.Help
			found[i].Tags = []string{"wcag" + strings.ReplaceAll(rule.Criterion, ".", ""), "level-" + strings.ToLower(rule.Level)}
		}
		if len(found) == 0 {
			acc.Passes = append(acc.Passes, rule.ID)
		}
		acc.Violations = append(acc.Violations, found...)
		if opts.Debug {
			slog.Debug("Accessibility rule evaluated", "rule", rule.ID, "violations", len(found))
		}
	}

	return &Result{
		Success:       len(acc.Violations) == 0,
		Accessibility: acc,
	}, nil
}

func versionGreater(a, b string) bool {
	fa, errA := strconv.ParseFloat(a, 64)
	fb, errB := strconv.ParseFloat(b, 64)
	if errA != nil || errB != nil {
		return false
	}
	return fa > fb
}

const dequeHelp = "https://dequeuniversity.com/rules/axe/4.8/"

// DefaultA11yRules returns the built-in rule set.
func DefaultA11yRules() []A11yRule {
	return []A11yRule{
		{ID: "html-has-lang", Criterion: "3.1.1", Level: LevelA, Since: "2.0", Help: dequeHelp + "html-has-lang", Check: htmlHasLang},
		{ID: "html-lang-valid", Criterion: "3.1.1", Level: LevelA, Since: "2.0", Help: dequeHelp + "html-lang-valid", Check: htmlLangValid},
		{ID: "document-title", Criterion: "2.4.2", Level: LevelA, Since: "2.0", Help: dequeHelp + "document-title", Check: documentTitle},
		{ID: "image-alt", Criterion: "1.1.1", Level: LevelA, Since: "2.0", Help: dequeHelp + "image-alt", Check: imageAlt},
		{ID: "link-name", Criterion: "2.4.4", Level: LevelA, Since: "2.0", Help: dequeHelp + "link-name", Check: linkName},
		{ID: "button-name", Criterion: "4.1.2", Level: LevelA, Since: "2.0", Help: dequeHelp + "button-name", Check: buttonName},
		{ID: "label", Criterion: "1.3.1", Level: LevelA, Since: "2.0", Help: dequeHelp + "label", Check: formLabel},
		{ID: "frame-title", Criterion: "4.1.2", Level: LevelA, Since: "2.0", Help: dequeHelp + "frame-title", Check: frameTitle},
		{ID: "duplicate-id", Criterion: "4.1.1", Level: LevelA, Since: "2.0", Help: dequeHelp + "duplicate-id", Check: duplicateID},
		{ID: "meta-refresh", Criterion: "2.2.1", Level: LevelA, Since: "2.0", Help: dequeHelp + "meta-refresh", Check: metaRefresh},
		{ID: "landmark-one-main", Criterion: "1.3.1", Level: LevelA, Since: "2.0", Help: dequeHelp + "landmark-one-main", Check: landmarkOneMain},
		{ID: "page-has-heading-one", Criterion: "1.3.1", Level: LevelA, Since: "2.0", Help: dequeHelp + "page-has-heading-one", Check: pageHasHeadingOne},
		{ID: "empty-heading", Criterion: "1.3.1", Level: LevelA, Since: "2.0", Help: dequeHelp + "empty-heading", Check: emptyHeading},
		{ID: "meta-viewport", Criterion: "1.4.4", Level: LevelAA, Since: "2.0", Help: dequeHelp + "meta-viewport", Check: metaViewport},
	}
}

// selectorFor builds a short selector identifying s in reports.
func selectorFor(s *goquery.Selection) string {
	name := goquery.NodeName(s)
	if id, ok := s.Attr("id"); ok && id != "" {
		return name + "#" + id
	}
	if class, ok := s.Attr("class"); ok && strings.TrimSpace(class) != "" {
		return name + "." + strings.Fields(class)[0]
	}
	return name
}

func violationAt(s *goquery.Selection, msg string) Violation {
	html, _ := goquery.OuterHtml(s)
	if len(html) > 120 {
		html = html[:117] + "..."
	}
	return Violation{Message: msg, Selector: selectorFor(s), Extract: html}
}

func collapse(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// ariaName returns the name given by aria-label, aria-labelledby or title.
func ariaName(doc *goquery.Document, s *goquery.Selection) string {
	if label, ok := s.Attr("aria-label"); ok && strings.TrimSpace(label) != "" {
		return collapse(label)
	}
	if ids, ok := s.Attr("aria-labelledby"); ok {
		var parts []string
		for _, id := range strings.Fields(ids) {
			doc.Find("[id]").EachWithBreak(func(_ int, el *goquery.Selection) bool {
				if v, _ := el.Attr("id"); v == id {
					parts = append(parts, collapse(el.Text()))
					return false
				}
				return true
			})
		}
		if name := strings.TrimSpace(strings.Join(parts, " ")); name != "" {
			return name
		}
	}
	if title, ok := s.Attr("title"); ok {
		return collapse(title)
	}
	return ""
}

// accessibleName approximates the accessible name computation for s:
// ARIA labelling first, then text content, then the alt text of a contained image.
func accessibleName(doc *goquery.Document, s *goquery.Selection) string {
	if name := ariaName(doc, s); name != "" {
		return name
	}
	if text := collapse(s.Text()); text != "" {
		return text
	}
	var alt string
	s.Find("img[alt]").EachWithBreak(func(_ int, img *goquery.Selection) bool {
		alt, _ = img.Attr("alt")
		alt = collapse(alt)
		return alt == ""
	})
	return alt
}

func htmlHasLang(doc *goquery.Document) []Violation {
	root := doc.Find("html").First()
	if lang, ok := root.Attr("lang"); ok && strings.TrimSpace(lang) != "" {
		return nil
	}
	if lang, ok := root.Attr("xml:lang"); ok && strings.TrimSpace(lang) != "" {
		return nil
	}
	return []Violation{violationAt(root, "<html> element must have a lang attribute")}
}

var langPattern = regexp.MustCompile(`^[A-Za-z]{2,3}(-[A-Za-z0-9]{1,8})*$`)

func htmlLangValid(doc *goquery.Document) []Violation {
	root := doc.Find("html").First()
	lang, ok := root.Attr("lang")
	if !ok || strings.TrimSpace(lang) == "" {
		return nil
	}
	if langPattern.MatchString(strings.TrimSpace(lang)) {
		return nil
	}
	return []Violation{violationAt(root, fmt.Sprintf("<html> element must have a valid value for the lang attribute, got %q", lang))}
}

func documentTitle(doc *goquery.Document) []Violation {
	title := doc.Find("head title").First()
	if title.Length() == 0 {
		title = doc.Find("title").First()
	}
	if title.Length() > 0 && collapse(title.Text()) != "" {
		return nil
	}
	return []Violation{{Message: "Documents must have <title> element to aid in navigation", Selector: "html"}}
}

func isPresentational(s *goquery.Selection) bool {
	role, _ := s.Attr("role")
	role = strings.ToLower(strings.TrimSpace(role))
	return role == "presentation" || role == "none"
}

func imageAlt(doc *goquery.Document) []Violation {
	var out []Violation
	doc.Find("img").Each(func(_ int, img *goquery.Selection) {
		if _, ok := img.Attr("alt"); ok {
			return
		}
		if isPresentational(img) || ariaName(doc, img) != "" {
			return
		}
		out = append(out, violationAt(img, "Images must have alternate text"))
	})
	return out
}

func linkName(doc *goquery.Document) []Violation {
	var out []Violation
	doc.Find("a[href]").Each(func(_ int, a *goquery.Selection) {
		if hidden, _ := a.Attr("aria-hidden"); hidden == "true" {
			return
		}
		if accessibleName(doc, a) == "" {
			out = append(out, violationAt(a, "Links must have discernible text"))
		}
	})
	return out
}

func buttonName(doc *goquery.Document) []Violation {
	var out []Violation
	doc.Find("button").Each(func(_ int, b *goquery.Selection) {
		if accessibleName(doc, b) == "" {
			out = append(out, violationAt(b, "Buttons must have discernible text"))
		}
	})
	doc.Find("input").Each(func(_ int, in *goquery.Selection) {
		typ, _ := in.Attr("type")
		switch strings.ToLower(typ) {
		case "button", "submit", "reset":
		default:
			return
		}
		if v, _ := in.Attr("value"); strings.TrimSpace(v) != "" {
			return
		}
		// submit and reset have a default label.
		if t := strings.ToLower(typ); t == "submit" || t == "reset" {
			if _, ok := in.Attr("value"); !ok {
				return
			}
		}
		if accessibleName(doc, in) == "" {
			out = append(out, violationAt(in, "Input buttons must have discernible text"))
		}
	})
	return out
}

func formLabel(doc *goquery.Document) []Violation {
	labelled := make(map[string]bool)
	doc.Find("label[for]").Each(func(_ int, l *goquery.Selection) {
		if id, _ := l.Attr("for"); id != "" && collapse(l.Text()) != "" {
			labelled[id] = true
		}
	})

	var out []Violation
	doc.Find("input, select, textarea").Each(func(_ int, field *goquery.Selection) {
		if goquery.NodeName(field) == "input" {
			typ, _ := field.Attr("type")
			switch strings.ToLower(typ) {
			case "hidden", "submit", "reset", "button", "image":
				return
			}
		}
		if id, ok := field.Attr("id"); ok && labelled[id] {
			return
		}
		if wrapping := field.ParentsFiltered("label"); wrapping.Length() > 0 && collapse(wrapping.First().Text()) != "" {
			return
		}
		if ariaName(doc, field) != "" {
			return
		}
		out = append(out, violationAt(field, "Form elements must have labels"))
	})
	return out
}

func frameTitle(doc *goquery.Document) []Violation {
	var out []Violation
	doc.Find("iframe, frame").Each(func(_ int, f *goquery.Selection) {
		if title, ok := f.Attr("title"); ok && strings.TrimSpace(title) != "" {
			return
		}
		if label, ok := f.Attr("aria-label"); ok && strings.TrimSpace(label) != "" {
			return
		}
		out = append(out, violationAt(f, "Frames must have an accessible name"))
	})
	return out
}

func duplicateID(doc *goquery.Document) []Violation {
	seen := make(map[string]bool)
	reported := make(map[string]bool)
	var out []Violation
	doc.Find("[id]").Each(func(_ int, el *goquery.Selection) {
		id, _ := el.Attr("id")
		if id == "" {
			return
		}
		if seen[id] && !reported[id] {
			reported[id] = true
			out = append(out, violationAt(el, fmt.Sprintf("ID attribute value %q must be unique", id)))
		}
		seen[id] = true
	})
	return out
}

func metaRefresh(doc *goquery.Document) []Violation {
	var out []Violation
	doc.Find("meta[http-equiv]").Each(func(_ int, m *goquery.Selection) {
		equiv, _ := m.Attr("http-equiv")
		if !strings.EqualFold(equiv, "refresh") {
			return
		}
		content, _ := m.Attr("content")
		delay := strings.TrimSpace(strings.SplitN(content, ";", 2)[0])
		delay = strings.TrimSpace(strings.SplitN(delay, ",", 2)[0])
		seconds, err := strconv.ParseFloat(delay, 64)
		if err != nil || seconds == 0 || seconds > 72000 {
			return
		}
		out = append(out, violationAt(m, "Timed refresh must not exist"))
	})
	return out
}

func landmarkOneMain(doc *goquery.Document) []Violation {
	mains := doc.Find(`main, [role="main"]`)
	switch mains.Length() {
	case 1:
		return nil
	case 0:
		return []Violation{{Message: "Document should have one main landmark", Selector: "html"}}
	default:
		return []Violation{violationAt(mains.Eq(1), "Document should not have more than one main landmark")}
	}
}

func pageHasHeadingOne(doc *goquery.Document) []Violation {
	if doc.Find(`h1, [role="heading"][aria-level="1"]`).Length() > 0 {
		return nil
	}
	return []Violation{{Message: "Page should contain a level-one heading", Selector: "html"}}
}

func emptyHeading(doc *goquery.Document) []Violation {
	var out []Violation
	doc.Find("h1, h2, h3, h4, h5, h6").Each(func(_ int, h *goquery.Selection) {
		if hidden, _ := h.Attr("aria-hidden"); hidden == "true" {
			return
		}
		if accessibleName(doc, h) == "" {
			out = append(out, violationAt(h, "Headings should not be empty"))
		}
	})
	return out
}

func metaViewport(doc *goquery.Document) []Violation {
	var out []Violation
	doc.Find(`meta[name="viewport"]`).Each(func(_ int, m *goquery.Selection) {
		content, _ := m.Attr("content")
		for _, part := range strings.FieldsFunc(content, func(r rune) bool { return r == ',' || r == ';' }) {
			key, value, ok := strings.Cut(part, "=")
			if !ok {
				continue
			}
			key = strings.ToLower(strings.TrimSpace(key))
			value = strings.ToLower(strings.TrimSpace(value))
			switch key {
			case "user-scalable":
				if value == "no" || value == "0" {
					out = append(out, violationAt(m, "Zooming and scaling must not be disabled"))
				}
			case "maximum-scale":
				if scale, err := strconv.ParseFloat(value, 64); err == nil && scale < 2 {
					out = append(out, violationAt(m, "Zooming and scaling must not be disabled"))
				}
			}
		}
	})
	return out
}
