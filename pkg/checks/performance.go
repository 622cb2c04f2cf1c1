package checks

import (
	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/assert"
)

var performanceChecks = []Check{
	{ID: "performance/html-size", Description: "document fits the content size budget", Run: checkHTMLSize},
	{ID: "performance/render-blocking", Description: "no synchronous scripts", Run: checkRenderBlocking},
}

func checkHTMLSize(t *T) {
	limit := t.Expect().MaxContentBytes
	assert.LessOrEqual(t, t.Fixture().Size, limit, "document is larger than %d bytes", limit)
}

func checkRenderBlocking(t *T) {
	var blocking []string
	t.Document().Find("script:not([async]):not([defer])").Each(func(_ int, s *goquery.Selection) {
		blocking = append(blocking, s.AttrOr("src", "inline script"))
	})
	assert.Empty(t, blocking, "render-blocking scripts")
}
