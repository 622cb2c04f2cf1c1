package checks

import (
	"strings"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pagecheck/pkg/style"
)

var styleChecks = []Check{
	{ID: "style/heading-visible", Description: "the h1 is rendered", Run: checkHeadingVisible},
	{ID: "style/body-layout", Description: "body centers its content with flexbox", Run: checkBodyLayout},
	{ID: "style/inline-css", Description: "embedded stylesheet carries the layout declarations", Run: checkInlineCSS},
}

func computed(t *T, selector string) style.Computed {
	doc := t.Document()
	engine, err := style.NewEngine(doc)
	require.NoError(t, err, "stylesheet could not be parsed")
	c, err := engine.ComputedStyleOf(doc.Find(selector))
	require.NoError(t, err, "no %s element", selector)
	return c
}

func checkHeadingVisible(t *T) {
	h1 := computed(t, "h1")
	assert.NotEqual(t, "none", h1.Display(), "h1 display")
	assert.NotEqual(t, "hidden", h1.Visibility(), "h1 visibility")
}

func checkBodyLayout(t *T) {
	body := computed(t, "body")
	for _, want := range t.Expect().BodyStyle {
		assert.Equal(t, want.Value, body.Get(want.Property), "body %s", want.Property)
	}
}

func checkInlineCSS(t *T) {
	styles := t.Document().Find("style")
	require.Positive(t, styles.Length(), "page has no style element")

	css := strings.Join(strings.Fields(styles.Text()), " ")
	for _, decl := range t.Expect().StyleDeclarations {
		assert.Contains(t, css, decl, "style element")
	}
}
