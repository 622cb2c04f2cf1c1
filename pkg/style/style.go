// Package style computes CSS property values for elements of a parsed
// document. It stands in for a browser's getComputedStyle: declarations from
// every <style> element and from style attributes are cascaded over a small
// user-agent sheet, and inherited properties flow down from the parent.
//
// There is no layout and no viewport, so media queries other than "all" and
// "screen" never match and lengths are reported as declared.
package style

import (
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/andybalholm/cascadia"
	"github.com/aymerick/douceur/css"
	"github.com/aymerick/douceur/parser"
	"golang.org/x/net/html"
)

// Computed maps property names to resolved values.
type Computed map[string]string

// Get returns the value of prop, or "" when it has no initial value either.
func (c Computed) Get(prop string) string {
	return c[strings.ToLower(prop)]
}

func (c Computed) Display() string    { return c.Get("display") }
func (c Computed) Visibility() string { return c.Get("visibility") }

type rule struct {
	sel         cascadia.Sel
	specificity cascadia.Specificity
	order       int
	decls       []*css.Declaration
}

// Engine resolves computed styles for one document. Results are memoized, so an
// Engine must not outlive changes to the document it was built from.
type Engine struct {
	rules []rule
	cache map[*html.Node]Computed
}

// NewEngine collects the author rules from every <style> element in doc.
func NewEngine(doc *goquery.Document) (*Engine, error) {
	e := &Engine{cache: make(map[*html.Node]Computed)}
	order := 0
	var parseErr error

	doc.Find("style").EachWithBreak(func(i int, s *goquery.Selection) bool {
		if media, ok := s.Attr("media"); ok && !mediaApplies(media) {
			return true
		}
		sheet, err := parser.Parse(s.Text())
		if err != nil {
			parseErr = fmt.Errorf("style element %d: %w", i, err)
			return false
		}
		order = e.addRules(sheet.Rules, order)
		return true
	})
	if parseErr != nil {
		return nil, parseErr
	}

	slog.Debug("Style engine ready", "rules", len(e.rules))
	return e, nil
}

func (e *Engine) addRules(rules []*css.Rule, order int) int {
	for _, r := range rules {
		switch r.Kind {
		case css.AtRule:
			if strings.EqualFold(r.Name, "@media") && mediaApplies(r.Prelude) {
				order = e.addRules(r.Rules, order)
			}
		case css.QualifiedRule:
			for _, selector := range r.Selectors {
				group, err := cascadia.ParseGroup(selector)
				if err != nil {
					slog.Debug("Skipping unsupported selector", "selector", selector, "error", err)
					continue
				}
				for _, sel := range group {
					if sel.PseudoElement() != "" {
						continue
					}
					e.rules = append(e.rules, rule{sel: sel, specificity: sel.Specificity(), order: order, decls: r.Declarations})
					order++
				}
			}
		}
	}
	return order
}

// mediaApplies reports whether a media query list matches the screen media
// type of an environment without dimensions.
func mediaApplies(query string) bool {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return true
	}
	for _, part := range strings.Split(q, ",") {
		part = strings.TrimSpace(part)
		if part == "all" || part == "screen" || part == "only screen" {
			return true
		}
	}
	return false
}

// ComputedStyleOf returns the computed style of the first element in s.
func (e *Engine) ComputedStyleOf(s *goquery.Selection) (Computed, error) {
	if s.Length() == 0 {
		return nil, fmt.Errorf("no element matches the selection")
	}
	return e.ComputedStyle(s.Get(0)), nil
}

type candidate struct {
	value       string
	important   bool
	inline      bool
	specificity cascadia.Specificity
	order       int
}

func (c candidate) beats(o candidate) bool {
	if c.important != o.important {
		return c.important
	}
	if c.inline != o.inline {
		return c.inline
	}
	if c.specificity != o.specificity {
		return o.specificity.Less(c.specificity)
	}
	return c.order > o.order
}

// ComputedStyle resolves every known property for n plus any property declared for it.
func (e *Engine) ComputedStyle(n *html.Node) Computed {
	if cached, ok := e.cache[n]; ok {
		return cached
	}

	var parent Computed
	if n.Parent != nil && n.Parent.Type == html.ElementNode {
		parent = e.ComputedStyle(n.Parent)
	}

	winners := make(map[string]candidate)
	consider := func(prop string, c candidate) {
		if cur, ok := winners[prop]; !ok || c.beats(cur) {
			winners[prop] = c
		}
	}

	for _, r := range e.rules {
		if !r.sel.Match(n) {
			continue
		}
		for _, d := range r.decls {
			if d.Value == "" {
				continue
			}
			consider(strings.ToLower(d.Property), candidate{value: d.Value, important: d.Important, specificity: r.specificity, order: r.order})
		}
	}
	if inline := strings.TrimSpace(attr(n, "style")); inline != "" {
		// The parser drops the value of an unterminated last declaration.
		if !strings.HasSuffix(inline, ";") {
			inline += ";"
		}
		decls, err := parser.ParseDeclarations(inline)
		if err != nil {
			slog.Debug("Ignoring malformed style attribute", "element", n.Data, "error", err)
		}
		for i, d := range decls {
			if d.Value == "" {
				continue
			}
			consider(strings.ToLower(d.Property), candidate{value: d.Value, important: d.Important, inline: true, order: i})
		}
	}

	computed := make(Computed, len(initialValues)+len(winners))
	for prop, initial := range initialValues {
		if inherited[prop] && parent != nil {
			computed[prop] = parent[prop]
		} else {
			computed[prop] = initial
		}
	}
	computed["display"] = defaultDisplay(n)

	props := make([]string, 0, len(winners))
	for prop := range winners {
		props = append(props, prop)
	}
	sort.Strings(props)
	for _, prop := range props {
		computed[prop] = resolve(prop, normalize(prop, winners[prop].value), parent)
	}

	if _, hidden := attrOK(n, "hidden"); hidden {
		if _, declared := winners["display"]; !declared {
			computed["display"] = "none"
		}
	}

	e.cache[n] = computed
	return computed
}

func resolve(prop, value string, parent Computed) string {
	switch value {
	case "inherit":
		if parent != nil {
			return parent[prop]
		}
		return initialValues[prop]
	case "initial":
		return initialValues[prop]
	case "unset":
		if inherited[prop] && parent != nil {
			return parent[prop]
		}
		return initialValues[prop]
	}
	return value
}

func normalize(prop, value string) string {
	value = strings.Join(strings.Fields(value), " ")
	if keywordProperties[prop] {
		value = strings.ToLower(value)
	}
	return value
}

func attr(n *html.Node, key string) string {
	v, _ := attrOK(n, key)
	return v
}

func attrOK(n *html.Node, key string) (string, bool) {
	for _, a := range n.Attr {
		if a.Namespace == "" && strings.EqualFold(a.Key, key) {
			return a.Val, true
		}
	}
	return "", false
}
