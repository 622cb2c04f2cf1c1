package checks

import (
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pagecheck/pkg/validators"
)

var doctypePattern = regexp.MustCompile(`(?i)^\s*<!DOCTYPE html>`)

var structureChecks = []Check{
	{ID: "structure/file-size", Description: "file size is within the structural ceiling", Run: checkFileSize},
	{ID: "structure/doctype", Description: "document starts with the HTML5 doctype", Run: checkDoctype},
	{ID: "structure/html-lang", Description: "html element declares the expected language", Run: checkHTMLLang},
	{ID: "structure/meta-charset", Description: "meta charset declares the expected encoding", Run: checkMetaCharset},
	{ID: "structure/meta-viewport", Description: "viewport meta contains the expected tokens", Run: checkMetaViewport},
	{ID: "structure/viewport-exact", Description: "viewport meta content matches exactly", Run: checkViewportExact},
	{ID: "structure/title", Description: "document title matches", Run: checkTitle},
	{ID: "structure/semantic", Description: "page has a main landmark and a single h1", Run: checkSemantic},
	{ID: "structure/heading", Description: "the h1 text matches and sits inside main", Run: checkHeading},
	{ID: "structure/heading-order", Description: "the first heading is an h1", Run: checkHeadingOrder},
	{ID: "structure/no-bom", Description: "file has no UTF-8 byte order mark", Run: checkNoBOM},
	{ID: "structure/modern-elements", Description: "HTML5 sectioning elements are known elements", Run: checkModernElements},
}

func checkFileSize(t *T) {
	limit := t.Expect().MaxBytes
	assert.LessOrEqual(t, t.Fixture().Size, limit, "file is larger than %d bytes", limit)
}

func checkDoctype(t *T) {
	text := t.Fixture().Text
	assert.Regexp(t, doctypePattern, text, "doctype must open the document")
	assert.True(t, strings.HasPrefix(strings.TrimSpace(text), "<!DOCTYPE html>"),
		"document must start with exactly <!DOCTYPE html>")
}

func checkHTMLLang(t *T) {
	lang := t.Expect().Lang
	pattern := regexp.MustCompile(`(?i)<html\s+[^>]*lang="` + regexp.QuoteMeta(lang) + `"[^>]*>`)
	assert.Regexp(t, pattern, t.Fixture().Text, "html element must declare lang=%q", lang)

	got, ok := t.Document().Find("html").Attr("lang")
	require.True(t, ok, "html element has no lang attribute")
	assert.Equal(t, lang, got)
}

func checkMetaCharset(t *T) {
	charset := t.Expect().Charset
	pattern := regexp.MustCompile(`(?i)<meta\s+[^>]*charset="` + regexp.QuoteMeta(charset) + `"[^>]*>`)
	assert.Regexp(t, pattern, t.Fixture().Text, "meta charset=%q must be declared", charset)

	got, ok := t.Document().Find("meta[charset]").Attr("charset")
	require.True(t, ok, "no meta charset element")
	assert.True(t, strings.EqualFold(charset, got), "meta charset is %q, want %q", got, charset)
}

func viewportContent(t *T) string {
	content, ok := t.Document().Find(`meta[name="viewport"]`).Attr("content")
	require.True(t, ok, "no viewport meta element")
	return content
}

func checkMetaViewport(t *T) {
	content := viewportContent(t)
	for _, token := range t.Expect().ViewportTokens {
		assert.Contains(t, content, token, "viewport content")
	}
}

func checkViewportExact(t *T) {
	assert.Equal(t, t.Expect().Viewport, viewportContent(t), "viewport content")
}

func checkTitle(t *T) {
	want := t.Expect().Title
	title := t.Document().Find("title").First()
	require.Equal(t, 1, title.Length(), "document has no title element")
	assert.Equal(t, want, strings.Join(strings.Fields(title.Text()), " "), "document title")
	assert.Contains(t, t.Fixture().Text, "<title>"+want+"</title>", "raw title element")
}

func checkSemantic(t *T) {
	doc := t.Document()
	assert.Positive(t, doc.Find("main").Length(), "page has no main element")
	assert.Equal(t, 1, doc.Find("h1").Length(), "page must have exactly one h1")
}

func checkHeading(t *T) {
	h1 := t.Document().Find("h1")
	require.Equal(t, 1, h1.Length(), "page must have exactly one h1")
	want := t.Expect().Heading
	assert.Equal(t, want, h1.Text(), "h1 text")
	pattern := regexp.MustCompile(`(?i)<h1\b[^>]*>` + regexp.QuoteMeta(want) + `</h1>`)
	assert.Regexp(t, pattern, t.Fixture().Text, "raw h1 element")
	assert.Equal(t, 1, h1.Closest("main").Length(), "h1 must be inside main")
}

func checkHeadingOrder(t *T) {
	first := t.Document().Find("h1, h2, h3, h4, h5, h6").First()
	require.Equal(t, 1, first.Length(), "page has no headings")
	assert.Equal(t, "H1", strings.ToUpper(goquery.NodeName(first)), "first heading")
}

func checkNoBOM(t *T) {
	assert.False(t, t.Fixture().HasBOM(), "file starts with a UTF-8 byte order mark")
}

func checkModernElements(t *T) {
	for _, name := range t.Expect().ModernElements {
		assert.True(t, validators.IsKnownElement(name), "%s is not a known HTML element", name)
	}
}
