package validators

import "strings"

// Conforming HTML elements. SVG and MathML children are foreign content and
// are not listed.
var knownElements = map[string]bool{
	"a": true, "abbr": true, "address": true, "area": true, "article": true,
	"aside": true, "audio": true, "b": true, "base": true, "bdi": true,
	"bdo": true, "blockquote": true, "body": true, "br": true, "button": true,
	"canvas": true, "caption": true, "cite": true, "code": true, "col": true,
	"colgroup": true, "data": true, "datalist": true, "dd": true, "del": true,
	"details": true, "dfn": true, "dialog": true, "div": true, "dl": true,
	"dt": true, "em": true, "embed": true, "fieldset": true, "figcaption": true,
	"figure": true, "footer": true, "form": true, "h1": true, "h2": true,
	"h3": true, "h4": true, "h5": true, "h6": true, "head": true,
	"header": true, "hgroup": true, "hr": true, "html": true, "i": true,
	"iframe": true, "img": true, "input": true, "ins": true, "kbd": true,
	"label": true, "legend": true, "li": true, "link": true, "main": true,
	"map": true, "mark": true, "math": true, "menu": true, "meta": true,
	"meter": true, "nav": true, "noscript": true, "object": true, "ol": true,
	"optgroup": true, "option": true, "output": true, "p": true, "picture": true,
	"pre": true, "progress": true, "q": true, "rp": true, "rt": true,
	"ruby": true, "s": true, "samp": true, "script": true, "search": true,
	"section": true, "select": true, "slot": true, "small": true, "source": true,
	"span": true, "strong": true, "style": true, "sub": true, "summary": true,
	"sup": true, "svg": true, "table": true, "tbody": true, "td": true,
	"template": true, "textarea": true, "tfoot": true, "th": true, "thead": true,
	"time": true, "title": true, "tr": true, "track": true, "u": true,
	"ul": true, "var": true, "video": true, "wbr": true,
}

// IsKnownElement reports whether name is a conforming HTML element or a
// custom element name (one containing a hyphen).
func IsKnownElement(name string) bool {
	name = strings.ToLower(name)
	if knownElements[name] {
		return true
	}
	return name != "" && name[0] >= 'a' && name[0] <= 'z' && strings.Contains(name, "-")
}
