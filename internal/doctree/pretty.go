package doctree

import (
	"regexp"
	"strings"
)

const indentUnit = "  "

// Pretty renders root for the raw-markup view: every block on its own line,
// list children one indent level deeper per nesting level. Inline content
// stays on the line of its block.
func Pretty(root *Node) string {
	var lines []string
	var inline strings.Builder
	flush := func(depth int) {
		if inline.Len() > 0 {
			lines = append(lines, strings.Repeat(indentUnit, depth)+inline.String())
			inline.Reset()
		}
	}
	var block func(n *Node, depth int)
	block = func(n *Node, depth int) {
		pad := strings.Repeat(indentUnit, depth)
		switch {
		case n.IsList():
			lines = append(lines, pad+"<"+n.Tag+">")
			for _, c := range n.Children {
				block(c, depth+1)
			}
			lines = append(lines, pad+"</"+n.Tag+">")
		case n.Is("li"):
			inline.WriteString("<li>")
			first := true
			for _, c := range n.Children {
				if c.IsList() {
					if first {
						flush(depth)
					} else {
						flush(depth + 1)
					}
					block(c, depth+1)
					first = false
					continue
				}
				inline.WriteString(RenderNode(c))
			}
			if first {
				inline.WriteString("</li>")
				flush(depth)
				return
			}
			flush(depth + 1)
			lines = append(lines, pad+"</li>")
		case n.IsBlock():
			lines = append(lines, pad+RenderNode(n))
		default:
			// Stray inline content at the root; kept on its own line.
			lines = append(lines, pad+RenderNode(n))
		}
	}
	for _, c := range root.Children {
		block(c, 0)
	}
	return strings.Join(lines, "\n")
}

const blockTagPattern = `</?(?:p|h2|h3|ul|ol|li)\b[^>]*>`

var (
	layoutAfterTag  = regexp.MustCompile(`(` + blockTagPattern + `)[ \t\r]*\n\s*`)
	layoutBeforeTag = regexp.MustCompile(`(?:\r?\n[ \t]*)+(` + blockTagPattern + `)`)
)

// Unpretty removes the line breaks and indentation Pretty introduces next to
// block tags. Whitespace typed inside inline content is left alone.
func Unpretty(raw string) string {
	out := layoutAfterTag.ReplaceAllString(raw, "$1")
	out = layoutBeforeTag.ReplaceAllString(out, "$1")
	return strings.TrimSpace(out)
}

// ParsePretty is the inverse of Pretty for trusted raw text.
func ParsePretty(raw string) (*Node, error) {
	return Parse(Unpretty(raw))
}
