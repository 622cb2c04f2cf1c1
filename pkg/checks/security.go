package checks

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var securityChecks = []Check{
	{ID: "security/headers", Description: "security policy meta tags are present with exact content", Run: checkSecurityHeaders, Expands: true},
}

// checkSecurityHeaders runs one sub-check per expected header so that each
// missing or mismatched header is reported on its own.
func checkSecurityHeaders(t *T) {
	headers := t.Expect().SecurityHeaders
	require.NotEmpty(t, headers, "profile lists no security headers")

	doc := t.Document()
	for _, h := range headers {
		t.Run(h.Name, func(t *T) {
			meta := doc.Find("meta[http-equiv]").FilterFunction(func(_ int, s *goquery.Selection) bool {
				return strings.EqualFold(s.AttrOr("http-equiv", ""), h.Name)
			}).First()
			require.Equal(t, 1, meta.Length(), "no meta http-equiv=%q", h.Name)

			content, ok := meta.Attr("content")
			require.True(t, ok, "meta http-equiv=%q has no content", h.Name)
			assert.Equal(t, h.Content, content, "%s content", h.Name)
		})
	}
}
