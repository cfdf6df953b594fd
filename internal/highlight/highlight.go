// Package highlight wraps term violations in the reserved highlight span and
// removes those spans again. Neither operation changes the plain-text
// projection; callers save and restore the caret around them.
package highlight

import (
	"github.com/dgallion1/copyedit/internal/doctree"
	"github.com/dgallion1/copyedit/internal/validate"
)

// Apply marks every term match that lies inside a single unmarked text run
// and returns the number of spans added. Matches that cross an element
// boundary stay unmarked but are still reported by the validator.
func Apply(root *doctree.Node, m *validate.Matcher) int {
	if !m.Enabled() {
		return 0
	}
	vs := m.Scan(doctree.PlainText(root))
	if len(vs) == 0 {
		return 0
	}
	runs := doctree.Runs(root)
	added := 0
	// Back to front, so that splitting a run keeps the head node (and its
	// start offset) valid for earlier matches in the same run.
	ri := len(runs) - 1
	for i := len(vs) - 1; i >= 0; i-- {
		v := vs[i]
		for ri >= 0 && runs[ri].Start > v.SpanStart {
			ri--
		}
		if ri < 0 {
			break
		}
		r := runs[ri]
		if v.SpanEnd > r.End || marked(r.Node) {
			continue
		}
		wrap(r.Node, v.SpanStart-r.Start, v.SpanEnd-r.Start)
		added++
	}
	return added
}

// Clear unwraps every highlight span and merges the runs it leaves behind.
// It returns the number of spans removed.
func Clear(root *doctree.Node) int {
	marks := doctree.Collect(root, (*doctree.Node).IsMark)
	for _, mk := range marks {
		mk.Unwrap()
	}
	if len(marks) > 0 {
		doctree.Normalize(root)
	}
	return len(marks)
}

// Strip returns a copy of root without highlight spans.
func Strip(root *doctree.Node) *doctree.Node {
	c := root.Clone()
	Clear(c)
	return c
}

func marked(n *doctree.Node) bool {
	return n.Closest((*doctree.Node).IsMark) != nil
}

// wrap isolates runes [from, to) of run t and moves them into a highlight
// span.
func wrap(t *doctree.Node, from, to int) {
	doctree.SplitText(t, to)
	target := t
	if rest := doctree.SplitText(t, from); rest != nil {
		target = rest
	}
	target.Wrap("span").Class = doctree.MarkClass
}
