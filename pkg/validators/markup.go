package validators

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"golang.org/x/net/html"
)

var voidElements = map[string]bool{
	"area": true, "base": true, "br": true, "col": true, "embed": true, "hr": true,
	"img": true, "input": true, "link": true, "meta": true, "source": true,
	"track": true, "wbr": true,
}

// Elements whose end tag may be omitted.
var optionalEndTag = map[string]bool{
	"html": true, "head": true, "body": true, "p": true, "li": true, "dt": true,
	"dd": true, "option": true, "optgroup": true, "tr": true, "td": true, "th": true,
	"thead": true, "tbody": true, "tfoot": true, "colgroup": true, "caption": true,
	"rb": true, "rt": true, "rtc": true, "rp": true,
}

// Known elements that are obsolete in HTML5.
var obsoleteElements = map[string]bool{
	"acronym": true, "applet": true, "basefont": true, "big": true, "blink": true,
	"center": true, "dir": true, "font": true, "frame": true, "frameset": true,
	"isindex": true, "marquee": true, "nobr": true, "noframes": true, "strike": true,
	"tt": true,
}

// MarkupValidator is an offline HTML5 conformance checker built on the
// golang.org/x/net/html tokenizer. It covers the document-level rules that
// matter for a small static page, not the full HTML content model.
type MarkupValidator struct{}

// NewMarkupValidator creates a local markup validator.
func NewMarkupValidator() *MarkupValidator {
	return &MarkupValidator{}
}

func (v *MarkupValidator) Name() string { return "local" }

// Validate tokenizes the document and reports conformance errors.
func (v *MarkupValidator) Validate(ctx context.Context, doc Document, opts Options) (*Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	scan := newMarkupScan(doc.Content)
	if err := scan.run(); err != nil {
		return nil, fmt.Errorf("tokenizing %s: %w", doc.Path, err)
	}

	result := &Result{
		Success: len(scan.errors) == 0,
		Errors:  scan.errors,
	}
	if !opts.Quiet {
		result.Warnings = scan.warnings
	}
	if opts.Debug {
		slog.Debug("Local markup validation finished", "path", doc.Path, "errors", len(scan.errors), "warnings", len(scan.warnings))
	}
	return result, nil
}

type openElement struct {
	name string
	line int
}

type markupScan struct {
	src      []byte
	offset   int
	errors   []Violation
	warnings []Violation

	stack       []openElement
	ids         map[string]int
	counts      map[string]int
	seenDoctype bool
	seenContent bool
	inHead      bool
	headChildren int
	titleText   strings.Builder
}

func newMarkupScan(src []byte) *markupScan {
	return &markupScan{
		src:    src,
		ids:    make(map[string]int),
		counts: make(map[string]int),
	}
}

func (s *markupScan) lineAt(offset int) int {
	if offset > len(s.src) {
		offset = len(s.src)
	}
	return bytes.Count(s.src[:offset], []byte("\n")) + 1
}

func (s *markupScan) report(line int, rule, format string, args ...any) {
	s.errors = append(s.errors, Violation{
		Rule:     rule,
		Message:  fmt.Sprintf(format, args...),
		Severity: SeverityError,
		Line:     line,
	})
}

func (s *markupScan) warn(line int, rule, format string, args ...any) {
	s.warnings = append(s.warnings, Violation{
		Rule:     rule,
		Message:  fmt.Sprintf(format, args...),
		Severity: SeverityWarning,
		Line:     line,
	})
}

func (s *markupScan) run() error {
	z := html.NewTokenizer(bytes.NewReader(s.src))
	for {
		tt := z.Next()
		start := s.offset
		s.offset += len(z.Raw())
		line := s.lineAt(start)

		switch tt {
		case html.ErrorToken:
			if z.Err() == io.EOF {
				s.finish()
				return nil
			}
			return z.Err()
		case html.DoctypeToken:
			s.doctype(z.Token(), line)
		case html.CommentToken:
		case html.TextToken:
			text := z.Text()
			if len(bytes.TrimSpace(text)) == 0 {
				continue
			}
			if !s.seenContent {
				s.seenContent = true
				if !s.seenDoctype {
					s.report(line, "missing-doctype", "Non-space characters found without seeing a doctype first. Expected <!DOCTYPE html>.")
				}
			}
			if top := s.top(); top == "title" {
				s.titleText.Write(text)
			}
		case html.StartTagToken, html.SelfClosingTagToken:
			s.startTag(z.Token(), tt == html.SelfClosingTagToken, line)
		case html.EndTagToken:
			s.endTag(z.Token(), line)
		}
	}
}

func (s *markupScan) doctype(tok html.Token, line int) {
	if s.seenDoctype || s.seenContent {
		s.report(line, "stray-doctype", "Stray doctype.")
		return
	}
	s.seenDoctype = true
	if !strings.EqualFold(strings.TrimSpace(tok.Data), "html") {
		s.report(line, "obsolete-doctype", "Obsolete or legacy doctype %q. Expected <!DOCTYPE html>.", tok.Data)
	}
}

func (s *markupScan) top() string {
	if len(s.stack) == 0 {
		return ""
	}
	return s.stack[len(s.stack)-1].name
}

func (s *markupScan) startTag(tok html.Token, selfClosing bool, line int) {
	name := tok.Data
	if !s.seenContent {
		s.seenContent = true
		if !s.seenDoctype {
			s.report(line, "missing-doctype", "Start tag <%s> seen without seeing a doctype first. Expected <!DOCTYPE html>.", name)
		}
	}

	switch {
	case s.inForeignContent():
	case obsoleteElements[name]:
		s.report(line, "obsolete-element", "The <%s> element is obsolete.", name)
	case !IsKnownElement(name):
		s.report(line, "unknown-element", "Element <%s> not allowed: unknown element.", name)
	}

	s.attributes(tok, line)

	switch name {
	case "html", "head", "body", "title":
		s.counts[name]++
		if s.counts[name] > 1 {
			s.report(line, "duplicate-"+name, "Stray start tag <%s>.", name)
		}
	}
	if name == "head" {
		s.inHead = true
	} else if s.inHead && s.top() == "head" {
		s.headChildren++
		if name == "meta" {
			if cs, ok := attr(tok, "charset"); ok {
				if !strings.EqualFold(cs, "utf-8") {
					s.report(line, "bad-charset", "Bad value %q for attribute charset on <meta>. Must be utf-8.", cs)
				}
				if s.headChildren > 1 {
					s.warn(line, "charset-position", "The <meta charset> element should be the first element in <head>.")
				}
				if line > s.lineAt(1024) {
					s.report(line, "charset-late", "The character encoding declaration must be within the first 1024 bytes.")
				}
			}
		}
	}

	if voidElements[name] {
		return
	}
	if selfClosing {
		if !s.inForeignContent() && name != "svg" && name != "math" {
			s.report(line, "self-closing-non-void", "Self-closing syntax (/>) used on a non-void HTML element <%s>.", name)
		}
		return
	}
	s.stack = append(s.stack, openElement{name: name, line: line})
}

// inForeignContent reports whether the scan is inside an SVG or MathML subtree,
// where element names come from other vocabularies.
func (s *markupScan) inForeignContent() bool {
	for _, open := range s.stack {
		if open.name == "svg" || open.name == "math" {
			return true
		}
	}
	return false
}

func (s *markupScan) attributes(tok html.Token, line int) {
	seen := make(map[string]bool, len(tok.Attr))
	for _, a := range tok.Attr {
		key := strings.ToLower(a.Key)
		if seen[key] {
			s.report(line, "duplicate-attribute", "Duplicate attribute %s on <%s>.", key, tok.Data)
		}
		seen[key] = true

		if key == "id" {
			if a.Val == "" {
				s.report(line, "empty-id", "Bad value \"\" for attribute id on <%s>: an ID must not be empty.", tok.Data)
			} else if strings.ContainsAny(a.Val, " \t\n\f\r") {
				s.report(line, "invalid-id", "Bad value %q for attribute id on <%s>: an ID must not contain whitespace.", a.Val, tok.Data)
			} else if first, dup := s.ids[a.Val]; dup {
				s.report(line, "duplicate-id", "Duplicate ID %q (first used on line %d).", a.Val, first)
			} else {
				s.ids[a.Val] = line
			}
		}
	}
}

func (s *markupScan) endTag(tok html.Token, line int) {
	name := tok.Data
	if voidElements[name] {
		if name != "br" {
			s.report(line, "void-end-tag", "Stray end tag </%s>: %s is a void element.", name, name)
		}
		return
	}
	if name == "head" {
		s.inHead = false
	}
	if name == "title" && strings.TrimSpace(s.titleText.String()) == "" {
		s.report(line, "empty-title", "Element <title> must not be empty.")
	}

	idx := -1
	for i := len(s.stack) - 1; i >= 0; i-- {
		if s.stack[i].name == name {
			idx = i
			break
		}
	}
	if idx < 0 {
		s.report(line, "stray-end-tag", "Stray end tag </%s>.", name)
		return
	}
	for _, open := range s.stack[idx+1:] {
		if !optionalEndTag[open.name] {
			s.report(line, "unclosed-element", "End tag </%s> seen, but there were open elements (<%s> from line %d).", name, open.name, open.line)
		}
	}
	s.stack = s.stack[:idx]
}

func (s *markupScan) finish() {
	line := s.lineAt(len(s.src))
	if !s.seenDoctype {
		if !s.seenContent {
			s.report(line, "missing-doctype", "Empty document. Expected <!DOCTYPE html>.")
		}
	}
	for _, open := range s.stack {
		if !optionalEndTag[open.name] {
			s.report(line, "unclosed-element", "End of file seen and there were open elements (<%s> from line %d).", open.name, open.line)
		}
	}
	if s.counts["title"] == 0 {
		s.report(line, "missing-title", "Element <head> is missing a required instance of child element <title>.")
	}
}

func attr(tok html.Token, key string) (string, bool) {
	for _, a := range tok.Attr {
		if strings.EqualFold(a.Key, key) {
			return a.Val, true
		}
	}
	return "", false
}
