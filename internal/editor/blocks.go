package editor

import "github.com/dgallion1/copyedit/internal/doctree"

// inlineEnd is the child index where a leaf block's own inline content ends:
// the first nested list, or the end.
func inlineEnd(b *doctree.Node) int {
	for i, c := range b.Children {
		if c.IsList() {
			return i
		}
	}
	return len(b.Children)
}

// ownEmpty reports whether a leaf block has no text and no line break of its
// own.
func ownEmpty(b *doctree.Node) bool {
	empty := true
	for _, c := range b.Children[:inlineEnd(b)] {
		doctree.Walk(c, func(n *doctree.Node) bool {
			if (n.IsText() && n.Text != "") || n.Is("br") {
				empty = false
			}
			return empty
		})
		if !empty {
			return false
		}
	}
	return true
}

// trailingBreaks counts the line breaks at the very end of a block's own
// content.
func trailingBreaks(b *doctree.Node) int {
	n := 0
	var atoms []*doctree.Node
	for _, c := range b.Children[:inlineEnd(b)] {
		atoms = append(atoms, doctree.Collect(c, func(x *doctree.Node) bool {
			return (x.IsText() && x.Text != "") || x.Is("br")
		})...)
	}
	for i := len(atoms) - 1; i >= 0 && atoms[i].Is("br"); i-- {
		n++
	}
	return n
}

// ordinalOf returns the leaf-block ordinal of b, or -1.
func ordinalOf(root, b *doctree.Node) int {
	for i, x := range doctree.LeafBlocks(root) {
		if x == b {
			return i
		}
	}
	return -1
}

// mergeBlocks appends src's inline content to dst and removes src. Items of
// lists nested in src take src's place in its own list.
func mergeBlocks(dst, src *doctree.Node) {
	at := inlineEnd(dst)
	var items []*doctree.Node
	for _, c := range append([]*doctree.Node(nil), src.Children...) {
		if c.IsList() {
			items = append(items, c.Children...)
			continue
		}
		dst.Insert(at, c)
		at++
	}
	if len(items) > 0 && src.Parent != nil {
		src.ReplaceWith(items...)
		return
	}
	src.Remove()
}

// liftItem takes a list item out of its list. A nested item moves one level
// out, taking its following siblings along as its own sub-list; a top-level
// item becomes a paragraph that splits its list in two.
func liftItem(li *doctree.Node) *doctree.Node {
	list := li.Parent
	if list == nil {
		return li
	}
	rest := append([]*doctree.Node(nil), list.Children[li.Index()+1:]...)

	if outer := list.Parent; outer.Is("li") {
		if len(rest) > 0 {
			sub := doctree.NewElement(list.Tag, rest...)
			li.Append(sub)
		}
		outer.Parent.Insert(outer.Index()+1, li)
		if len(list.Children) == 0 {
			list.Remove()
		}
		return li
	}

	p := doctree.NewElement("p")
	tail := doctree.NewElement(list.Tag)
	for _, c := range append([]*doctree.Node(nil), li.Children...) {
		if c.IsList() {
			tail.Append(c.Children...)
			continue
		}
		p.Append(c)
	}
	tail.Append(rest...)
	li.Remove()

	at := list.Index() + 1
	list.Parent.Insert(at, p)
	if len(tail.Children) > 0 {
		list.Parent.Insert(at+1, tail)
	}
	if len(list.Children) == 0 {
		list.Remove()
	}
	return p
}

// topLevel returns the ancestor of n that is a direct child of the root.
func topLevel(n *doctree.Node) *doctree.Node {
	for n != nil && n.Parent != nil && !n.Parent.IsRoot() {
		n = n.Parent
	}
	return n
}

// blocksBetween returns the leaf blocks from a to b inclusive, in document
// order.
func blocksBetween(root, a, b *doctree.Node) []*doctree.Node {
	var out []*doctree.Node
	in := false
	for _, x := range doctree.LeafBlocks(root) {
		if x == a {
			in = true
		}
		if in {
			out = append(out, x)
		}
		if x == b {
			break
		}
	}
	return out
}
