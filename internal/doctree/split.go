package doctree

import "unicode/utf8"

// Point addresses a caret location: a rune offset inside a text run, or a
// child index inside an element or the root.
type Point struct {
	Node   *Node
	Offset int
}

// Valid reports whether p refers to an attached location.
func (p Point) Valid() bool {
	if p.Node == nil || p.Offset < 0 {
		return false
	}
	if p.Node.IsText() {
		return p.Offset <= p.Node.Len()
	}
	return p.Offset <= len(p.Node.Children)
}

// SplitText cuts a run at a rune offset and inserts the tail as a new run
// right after it. It returns the tail, or nil when at is on an edge.
func SplitText(t *Node, at int) *Node {
	if at <= 0 || at >= t.Len() {
		return nil
	}
	head, tail := splitRunes(t.Text, at)
	t.Text = head
	rest := NewText(tail)
	if t.Parent != nil {
		t.Parent.Insert(t.Index()+1, rest)
	}
	return rest
}

func splitRunes(s string, at int) (string, string) {
	i := 0
	for n := 0; n < at && i < len(s); n++ {
		_, size := utf8.DecodeRuneInString(s[i:])
		i += size
	}
	return s[:i], s[i:]
}

// Boundary turns p into a (parent, child index) pair, splitting a text run
// when p falls strictly inside it.
func Boundary(p Point) (*Node, int) {
	if !p.Node.IsText() {
		return p.Node, p.Offset
	}
	t := p.Node
	switch {
	case p.Offset <= 0:
		return t.Parent, t.Index()
	case p.Offset >= t.Len():
		return t.Parent, t.Index() + 1
	}
	SplitText(t, p.Offset)
	return t.Parent, t.Index() + 1
}

// SplitAfter divides container at p, which must lie inside it. Everything
// after p moves into a shallow clone of container inserted right after it;
// inline ancestors between p and container are cloned along the way. The
// clone is returned.
func SplitAfter(container *Node, p Point) *Node {
	node, idx := Boundary(p)
	for {
		clone := node.ShallowClone()
		tail := append([]*Node(nil), node.Children[idx:]...)
		clone.Append(tail...)
		if node == container || node.Parent == nil {
			if node.Parent != nil {
				node.Parent.Insert(node.Index()+1, clone)
			}
			return clone
		}
		parent, pidx := node.Parent, node.Index()+1
		parent.Insert(pidx, clone)
		node, idx = parent, pidx
	}
}

// ComparePoints orders two points in document order.
func ComparePoints(a, b Point) int {
	ka, kb := pointKey(a), pointKey(b)
	for i := 0; i < len(ka) && i < len(kb); i++ {
		if ka[i] != kb[i] {
			if ka[i] < kb[i] {
				return -1
			}
			return 1
		}
	}
	switch {
	case len(ka) < len(kb):
		return -1
	case len(ka) > len(kb):
		return 1
	}
	return 0
}

// pointKey maps a point to a sortable key: element points become the path
// of the child they precede, text points the run path plus the offset.
func pointKey(p Point) []int {
	key := append([]int(nil), p.Node.Path()...)
	if p.Node.IsText() {
		// Text offsets sort inside the run, between its start and end.
		return append(key, p.Offset)
	}
	return append(key, p.Offset, -1)
}

// Prune removes inline wrappers left without content and lists left without
// items, climbing as far as removals cascade.
func Prune(n *Node) {
	for _, c := range append([]*Node(nil), n.Children...) {
		if !c.IsText() {
			Prune(c)
		}
	}
	if n.Parent == nil {
		return
	}
	switch {
	case n.Is("strong", "em", "span") && len(n.Children) == 0:
		n.Remove()
	case n.IsList() && len(n.Children) == 0:
		n.Remove()
	case n.IsText() && n.Text == "":
		n.Remove()
	}
}
