package validate

import (
	"regexp"
	"sort"
	"strings"

	"golang.org/x/net/html"
)

// Rule is one structural anti-pattern checked against canonical markup.
type Rule struct {
	ID    string `json:"id"`
	Label string `json:"label"`
	find  func(markup string) [][2]int
}

// inlineText matches inline content that holds no block and no bold wrapper,
// which keeps the regexp rules from running across elements.
const inlineText = `(?:[^<]|<br>|</?em>|<span class="hl-violation">|</span>)*`

// Rules is the fixed table of markup anti-patterns, in reporting order.
var Rules = []Rule{
	{ID: "nested-bold", Label: "Nested bold", find: nestedTag("strong")},
	{ID: "nested-italic", Label: "Nested italic", find: nestedTag("em")},
	{ID: "bold-heading", Label: "Bold heading", find: regexpRule(`<(?:h2|h3)>\s*<strong>` + inlineText + `</strong>\s*</(?:h2|h3)>`)},
	{ID: "empty-formatting", Label: "Empty formatting", find: regexpRule(`<(?:strong|em)>(?:\s|<br>)*</(?:strong|em)>`)},
	{ID: "stacked-breaks", Label: "Stacked line breaks", find: regexpRule(`(?:<br>\s*){2,}`)},
	{ID: "empty-list-item", Label: "Empty list item", find: regexpRule(`<li>\s*</li>`)},
	{ID: "bold-paragraph", Label: "Fully bold paragraph", find: regexpRule(`<p>\s*<strong>` + inlineText + `</strong>\s*</p>`)},
}

// ScanMarkupPatterns checks markup against every rule. Spans are byte offsets
// into markup; violations are keyed by rule ID.
func ScanMarkupPatterns(markup string) []Violation {
	var out []Violation
	for _, r := range Rules {
		for i, span := range r.find(markup) {
			out = append(out, Violation{
				Kind:            KindPattern,
				Key:             r.ID,
				Match:           markup[span[0]:span[1]],
				OccurrenceIndex: i,
				SpanStart:       span[0],
				SpanEnd:         span[1],
			})
		}
	}
	return out
}

// RuleLabel returns the display label of a rule ID.
func RuleLabel(id string) string {
	for _, r := range Rules {
		if r.ID == id {
			return r.Label
		}
	}
	return id
}

func regexpRule(expr string) func(string) [][2]int {
	re := regexp.MustCompile(expr)
	return func(markup string) [][2]int {
		var out [][2]int
		for _, loc := range re.FindAllStringIndex(markup, -1) {
			out = append(out, [2]int{loc[0], loc[1]})
		}
		return out
	}
}

// nestedTag reports every element of the given tag opened while another one
// is still open. The span runs from the inner start tag to its end tag.
func nestedTag(tag string) func(string) [][2]int {
	return func(markup string) [][2]int {
		var (
			out  [][2]int
			open []int
			off  int
		)
		z := html.NewTokenizer(strings.NewReader(markup))
		for {
			tt := z.Next()
			if tt == html.ErrorToken {
				break
			}
			raw := len(z.Raw())
			name, _ := z.TagName()
			if string(name) == tag {
				switch tt {
				case html.StartTagToken:
					open = append(open, off)
				case html.EndTagToken:
					if n := len(open); n > 0 {
						start := open[n-1]
						open = open[:n-1]
						if len(open) > 0 {
							out = append(out, [2]int{start, off + raw})
						}
					}
				}
			}
			off += raw
		}
		// Innermost elements close first; report in document order.
		sort.Slice(out, func(i, j int) bool { return out[i][0] < out[j][0] })
		return out
	}
}
