package doctree

import "strings"

// Walk visits n and its descendants in pre-order. Returning false from fn
// skips the children of the node just visited. fn must not restructure the
// tree; mutation passes collect their targets first.
func Walk(n *Node, fn func(*Node) bool) {
	if n == nil {
		return
	}
	if !fn(n) {
		return
	}
	for _, c := range n.Children {
		Walk(c, fn)
	}
}

// Collect returns every node below root (root included) matching pred, in
// document order.
func Collect(root *Node, pred func(*Node) bool) []*Node {
	var out []*Node
	Walk(root, func(n *Node) bool {
		if pred(n) {
			out = append(out, n)
		}
		return true
	})
	return out
}

// TextRuns returns all text runs in document order.
func TextRuns(root *Node) []*Node {
	return Collect(root, (*Node).IsText)
}

// LeafBlocks returns every p, h2, h3 and li in document order.
func LeafBlocks(root *Node) []*Node {
	return Collect(root, (*Node).IsLeafBlock)
}

// PlainText is the plain-text projection of root: every run concatenated,
// nothing injected at block boundaries.
func PlainText(root *Node) string {
	var sb strings.Builder
	Walk(root, func(n *Node) bool {
		if n.IsText() {
			sb.WriteString(n.Text)
		}
		return true
	})
	return sb.String()
}

// Run is a text node together with its rune span in the projection and the
// ordinal of its leaf block.
type Run struct {
	Node  *Node
	Start int
	End   int
	Block int
}

// Runs returns every text run with offsets. Block is -1 for runs outside any
// leaf block.
func Runs(root *Node) []Run {
	blocks := map[*Node]int{}
	for i, b := range LeafBlocks(root) {
		blocks[b] = i
	}
	var out []Run
	off := 0
	Walk(root, func(n *Node) bool {
		if !n.IsText() {
			return true
		}
		l := n.Len()
		b := -1
		if blk := n.Block(); blk != nil {
			b = blocks[blk]
		}
		out = append(out, Run{Node: n, Start: off, End: off + l, Block: b})
		off += l
		return true
	})
	return out
}

// BlockSpan returns the projection span covered by the leaf block with the
// given ordinal.
func BlockSpan(root *Node, ordinal int) (blk *Node, start, end int, ok bool) {
	off := 0
	idx := -1
	found := false
	Walk(root, func(n *Node) bool {
		if found {
			return false
		}
		if n.IsLeafBlock() {
			idx++
			if idx == ordinal {
				blk = n
				start = off
				end = off + ownLen(n)
				found = true
				return false
			}
		}
		if n.IsText() {
			off += n.Len()
		}
		return true
	})
	return blk, start, end, found
}

// ownLen counts the text of a leaf block excluding nested lists, which are
// blocks of their own.
func ownLen(b *Node) int {
	total := 0
	for _, c := range b.Children {
		if c.IsList() {
			break
		}
		total += c.Len()
	}
	return total
}

// Normalize merges adjacent text runs, drops empty runs, and merges adjacent
// inline wrappers of the same kind. Marks are never merged with each other.
func Normalize(n *Node) {
	for _, c := range n.Children {
		if !c.IsText() {
			Normalize(c)
		}
	}
	out := n.Children[:0:0]
	for _, c := range n.Children {
		if c.IsText() && c.Text == "" {
			c.Parent = nil
			continue
		}
		if len(out) > 0 {
			prev := out[len(out)-1]
			if prev.IsText() && c.IsText() {
				prev.Text += c.Text
				c.Parent = nil
				continue
			}
			if prev.Is("strong", "em") && c.Is(prev.Tag) {
				for _, k := range c.Children {
					k.Parent = prev
				}
				prev.Children = append(prev.Children, c.Children...)
				c.Children = nil
				c.Parent = nil
				Normalize(prev)
				continue
			}
		}
		out = append(out, c)
	}
	n.Children = out
}

// Lines returns the own text of every leaf block, one entry per block, with
// line breaks rendered as newlines. Nested lists contribute their own lines.
func Lines(root *Node) []string {
	var out []string
	for _, b := range LeafBlocks(root) {
		var sb strings.Builder
		var visit func(n *Node) bool
		visit = func(n *Node) bool {
			for _, c := range n.Children {
				switch {
				case c.IsList():
					return false
				case c.IsText():
					sb.WriteString(c.Text)
				case c.Is("br"):
					sb.WriteByte('\n')
				default:
					if !visit(c) {
						return false
					}
				}
			}
			return true
		}
		visit(b)
		out = append(out, sb.String())
	}
	return out
}
