package sanitize

import (
	"regexp"
	"strings"
)

// dropTags are removed together with everything inside them.
var dropTags = setOf(
	"script", "style", "iframe", "frame", "frameset", "object", "embed", "applet",
	"img", "picture", "source", "track", "svg", "math", "video", "audio", "canvas",
	"map", "area", "form", "input", "button", "select", "option", "optgroup",
	"textarea", "label", "fieldset", "legend", "datalist", "output", "progress",
	"meter", "head", "title", "meta", "link", "base", "noscript", "template",
	"slot", "dialog", "param", "hr", "wbr", "colgroup", "col",
)

// unwrapTags are replaced by their content.
var unwrapTags = setOf(
	"a", "span", "font", "u", "s", "strike", "del", "ins", "code", "kbd", "samp",
	"var", "small", "big", "sub", "sup", "mark", "abbr", "cite", "q", "dfn",
	"time", "bdi", "bdo", "tt", "nobr", "data", "ruby", "rb", "rt", "rp",
	"html", "body", "dl", "table", "thead", "tbody", "tfoot", "tr",
)

// renameTags maps every accepted element to its canonical tag.
var renameTags = map[string]string{
	"p":          "p",
	"h2":         "h2",
	"h3":         "h3",
	"ul":         "ul",
	"ol":         "ol",
	"li":         "li",
	"strong":     "strong",
	"em":         "em",
	"br":         "br",
	"b":          "strong",
	"i":          "em",
	"h1":         "h2",
	"h4":         "h3",
	"h5":         "h3",
	"h6":         "h3",
	"div":        "p",
	"section":    "p",
	"article":    "p",
	"aside":      "p",
	"header":     "p",
	"footer":     "p",
	"main":       "p",
	"blockquote": "p",
	"pre":        "p",
	"address":    "p",
	"figure":     "p",
	"figcaption": "p",
	"center":     "p",
	"details":    "p",
	"summary":    "p",
	"dt":         "p",
	"dd":         "p",
	"td":         "p",
	"th":         "p",
	"caption":    "p",
	"menu":       "ul",
	"dir":        "ul",
}

var (
	spaceReplacer = strings.NewReplacer(
		"\r\n", " ", "\n", " ", "\r", " ", "\t", " ", "\f", " ", "\v", " ",
		"\u00a0", " ",
	)
	multiSpace = regexp.MustCompile(` {2,}`)
	// Citation artifacts left behind by chat assistants, with the space that
	// preceded them.
	citationPattern = regexp.MustCompile(
		` *(?:【[^】]*】|:contentReference\[oaicite:\d+\]\{index=\d+\}|\[oaicite:\d+\]|\[\d+\])`,
	)
)

// cleanText normalizes whitespace and strips citation artifacts.
func cleanText(s string) string {
	s = spaceReplacer.Replace(s)
	s = citationPattern.ReplaceAllString(s, "")
	return multiSpace.ReplaceAllString(s, " ")
}

func setOf(tags ...string) map[string]bool {
	m := make(map[string]bool, len(tags))
	for _, t := range tags {
		m[t] = true
	}
	return m
}
