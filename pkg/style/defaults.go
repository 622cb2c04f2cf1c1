package style

import "golang.org/x/net/html"

// initialValues are the CSS initial values of the properties the engine always reports.
var initialValues = map[string]string{
	"display":         "inline",
	"visibility":      "visible",
	"opacity":         "1",
	"position":        "static",
	"justify-content": "normal",
	"align-items":     "normal",
	"align-content":   "normal",
	"flex-direction":  "row",
	"flex-wrap":       "nowrap",
	"text-align":      "start",
	"color":           "canvastext",
	"font-style":      "normal",
	"font-weight":     "400",
	"white-space":     "normal",
	"direction":       "ltr",
	"cursor":          "auto",
}

var inherited = map[string]bool{
	"visibility":     true,
	"text-align":     true,
	"color":          true,
	"font-family":    true,
	"font-size":      true,
	"font-style":     true,
	"font-weight":    true,
	"line-height":    true,
	"letter-spacing": true,
	"white-space":    true,
	"direction":      true,
	"cursor":         true,
}

var keywordProperties = map[string]bool{
	"display":         true,
	"visibility":      true,
	"position":        true,
	"justify-content": true,
	"align-items":     true,
	"align-content":   true,
	"flex-direction":  true,
	"flex-wrap":       true,
	"text-align":      true,
	"font-style":      true,
	"white-space":     true,
	"direction":       true,
}

// User-agent display values, following the HTML rendering section.
var uaDisplay = map[string]string{
	"head": "none", "script": "none", "style": "none", "title": "none",
	"meta": "none", "link": "none", "base": "none", "template": "none",
	"noscript": "none", "datalist": "none", "area": "none", "param": "none",

	"html": "block", "body": "block", "main": "block", "div": "block", "p": "block",
	"h1": "block", "h2": "block", "h3": "block", "h4": "block", "h5": "block", "h6": "block",
	"header": "block", "footer": "block", "nav": "block", "article": "block",
	"section": "block", "aside": "block", "address": "block", "blockquote": "block",
	"figure": "block", "figcaption": "block", "form": "block", "fieldset": "block",
	"hr": "block", "pre": "block", "ul": "block", "ol": "block", "menu": "block",
	"dl": "block", "dt": "block", "dd": "block", "details": "block", "dialog": "block",
	"hgroup": "block", "legend": "block", "search": "block",

	"li":       "list-item",
	"summary":  "list-item",
	"table":    "table",
	"caption":  "table-caption",
	"colgroup": "table-column-group",
	"col":      "table-column",
	"thead":    "table-header-group",
	"tbody":    "table-row-group",
	"tfoot":    "table-footer-group",
	"tr":       "table-row",
	"td":       "table-cell",
	"th":       "table-cell",
	"ruby":     "ruby",
	"rt":       "ruby-text",
	"img":      "inline",
	"button":   "inline-block",
	"input":    "inline-block",
	"select":   "inline-block",
	"textarea": "inline-block",
}

func defaultDisplay(n *html.Node) string {
	if d, ok := uaDisplay[n.Data]; ok {
		return d
	}
	return initialValues["display"]
}
