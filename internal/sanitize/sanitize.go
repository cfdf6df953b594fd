// Package sanitize reduces arbitrary markup to the canonical vocabulary: p,
// h2, h3, ul, ol, li, strong, em, br and the highlight span. Anything it does
// not recognize is deleted.
package sanitize

import (
	"strings"

	"github.com/dgallion1/copyedit/internal/doctree"
)

// Sanitize returns the canonical form of raw. It is idempotent:
// Sanitize(Sanitize(x)) == Sanitize(x). Empty paragraphs are deleted.
func Sanitize(raw string) string {
	root, err := doctree.Parse(raw)
	if err != nil {
		return ""
	}
	clean(root, true)
	return doctree.Render(root)
}

// Tree parses raw and returns the sanitized tree, for callers that go on to
// edit it.
func Tree(raw string) *doctree.Node {
	root, err := doctree.Parse(raw)
	if err != nil {
		return doctree.NewRoot()
	}
	clean(root, true)
	return root
}

// SanitizeTree normalizes a live tree in place and reports whether anything
// changed. Empty paragraphs and block-edge spaces survive so that a caret
// sitting in them stays valid; callers bracket the call with caret.Save and
// caret.Restore.
func SanitizeTree(root *doctree.Node) bool {
	before := doctree.Render(root)
	clean(root, false)
	return doctree.Render(root) != before
}

func clean(root *doctree.Node, final bool) {
	filter(root)
	structure(root)
	tidy(root)
	if final {
		for _, b := range doctree.LeafBlocks(root) {
			trimEdges(b)
		}
		deleteEmptyBlocks(root)
		tidy(root)
	}
}

// tidy prunes, merges and cleans text until the runs stop changing. Merging
// two runs can leave a double space that only a further pass collapses.
func tidy(root *doctree.Node) {
	for i := 0; i < 4; i++ {
		doctree.Prune(root)
		doctree.Normalize(root)
		changed := false
		for _, t := range doctree.TextRuns(root) {
			if c := cleanText(t.Text); c != t.Text {
				t.Text = c
				changed = true
			}
		}
		if joinSpaces(root) {
			changed = true
		}
		if !changed {
			return
		}
	}
}

// joinSpaces collapses a space run that straddles an inline element boundary,
// such as "<strong>a </strong> b", by trimming the later run. Blocks and line
// breaks end a run of adjacent text.
func joinSpaces(root *doctree.Node) bool {
	changed := false
	var prev *doctree.Node
	doctree.Walk(root, func(n *doctree.Node) bool {
		switch {
		case n.IsBlock() || n.Is("br"):
			prev = nil
		case n.IsText() && n.Text != "":
			if prev != nil && strings.HasSuffix(prev.Text, " ") && strings.HasPrefix(n.Text, " ") {
				n.Text = strings.TrimLeft(n.Text, " ")
				changed = true
				if n.Text == "" {
					return true
				}
			}
			prev = n
		}
		return true
	})
	return changed
}

// filter applies the vocabulary rules to every element below n.
func filter(n *doctree.Node) {
	for _, c := range append([]*doctree.Node(nil), n.Children...) {
		if c.IsText() {
			continue
		}
		switch tag := c.Tag; {
		case dropTags[tag]:
			c.Remove()
		case tag == "span" && hasMarkClass(c.Class):
			c.Class = doctree.MarkClass
			filter(c)
		case unwrapTags[tag]:
			filter(c)
			c.Unwrap()
		default:
			canon, ok := renameTags[tag]
			if !ok {
				c.Remove()
				continue
			}
			c.Tag = canon
			c.Class = ""
			if canon == "br" {
				detachChildren(c)
				continue
			}
			filter(c)
		}
	}
}

func hasMarkClass(class string) bool {
	for _, f := range strings.Fields(class) {
		if f == doctree.MarkClass {
			return true
		}
	}
	return false
}

// structure rebuilds the root so that it holds only blocks: inline runs are
// wrapped in paragraphs, orphan list items in a list, and blocks nested where
// they may not be are lifted out.
func structure(root *doctree.Node) {
	pieces := expand(detachChildren(root))
	var para, list *doctree.Node
	for _, p := range pieces {
		switch {
		case p.Is("li"):
			para = nil
			if list == nil {
				list = doctree.NewElement("ul")
				root.Append(list)
			}
			list.Append(p)
		case p.IsBlock():
			para, list = nil, nil
			root.Append(p)
		default:
			list = nil
			if para == nil {
				if blank(p) {
					continue
				}
				para = doctree.NewElement("p")
				root.Append(para)
			}
			para.Append(p)
		}
	}
}

// expand turns a sequence of siblings into a flat sequence of blocks and
// inline nodes, none of which has a block in an illegal position.
func expand(nodes []*doctree.Node) []*doctree.Node {
	var out []*doctree.Node
	for _, c := range nodes {
		switch {
		case c.IsText(), c.Is("br"):
			out = append(out, c)
		case c.Is("p", "h2", "h3"):
			out = append(out, flattenLeaf(c)...)
		case c.IsList():
			normalizeList(c)
			out = append(out, c)
		case c.Is("li"):
			normalizeItem(c)
			out = append(out, c)
		default:
			for _, piece := range lift(c) {
				if piece.IsBlock() {
					out = append(out, expand([]*doctree.Node{piece})...)
					continue
				}
				out = append(out, piece)
			}
		}
	}
	return out
}

// flattenLeaf splits a paragraph or heading around any block found inside it.
func flattenLeaf(b *doctree.Node) []*doctree.Node {
	if !containsBlock(b) {
		return []*doctree.Node{b}
	}
	var (
		out []*doctree.Node
		cur *doctree.Node
	)
	for _, piece := range expand(detachChildren(b)) {
		if piece.IsBlock() {
			cur = nil
			out = append(out, piece)
			continue
		}
		if cur == nil {
			if len(out) == 0 {
				cur = b
			} else {
				cur = b.ShallowClone()
			}
			out = append(out, cur)
		}
		cur.Append(piece)
	}
	if len(out) == 0 {
		out = append(out, b)
	}
	return out
}

// lift rewrites an inline element that contains blocks into a sequence of
// inline pieces and blocks. The element's formatting is pushed down into the
// lifted blocks.
func lift(n *doctree.Node) []*doctree.Node {
	if !containsBlock(n) {
		return []*doctree.Node{n}
	}
	var (
		out []*doctree.Node
		cur *doctree.Node
	)
	for _, c := range detachChildren(n) {
		var pieces []*doctree.Node
		if c.IsBlock() {
			pushFormatting(c, n)
			pieces = []*doctree.Node{c}
		} else {
			pieces = lift(c)
		}
		for _, p := range pieces {
			if p.IsBlock() {
				cur = nil
				out = append(out, p)
				continue
			}
			if cur == nil {
				cur = n.ShallowClone()
				out = append(out, cur)
			}
			cur.Append(p)
		}
	}
	return out
}

// pushFormatting wraps the content of block b (or of each of its items) in a
// copy of the inline wrapper it was lifted out of.
func pushFormatting(b, wrapper *doctree.Node) {
	if !wrapper.Is("strong", "em") {
		return
	}
	if b.IsList() {
		for _, li := range b.Children {
			if li.Is("li") {
				pushFormatting(li, wrapper)
			}
		}
		return
	}
	if len(b.Children) == 0 {
		return
	}
	w := wrapper.ShallowClone()
	w.Append(detachChildren(b)...)
	b.Append(w)
}

// normalizeList makes l hold only list items. Nested lists without an item
// attach to the preceding item; stray inline content becomes an item.
func normalizeList(l *doctree.Node) {
	var last, loose *doctree.Node
	for _, k := range detachChildren(l) {
		switch {
		case k.Is("li"):
			l.Append(k)
			last, loose = k, nil
		case k.IsList():
			if last == nil {
				last = doctree.NewElement("li")
				l.Append(last)
			}
			last.Append(k)
			loose = nil
		case k.Is("p", "h2", "h3"):
			k.Tag = "li"
			l.Append(k)
			last, loose = k, nil
		default:
			if loose == nil {
				if blank(k) {
					continue
				}
				loose = doctree.NewElement("li")
				l.Append(loose)
				last = loose
			}
			loose.Append(k)
		}
	}
	for _, li := range l.Children {
		normalizeItem(li)
	}
}

// normalizeItem leaves an item with inline content and nested lists only.
// Paragraphs inside an item are unwrapped, separated by line breaks.
func normalizeItem(li *doctree.Node) {
	prevInline := false
	for _, p := range expand(detachChildren(li)) {
		switch {
		case p.IsList():
			li.Append(p)
			prevInline = false
		case p.Is("li"):
			if n := len(li.Children); n > 0 && li.Children[n-1].IsList() {
				li.Children[n-1].Append(p)
			} else {
				li.Append(doctree.NewElement("ul", p))
			}
			prevInline = false
		case p.Is("p", "h2", "h3"):
			kids := detachChildren(p)
			if len(kids) == 0 {
				continue
			}
			if prevInline {
				li.Append(doctree.NewElement("br"))
			}
			li.Append(kids...)
			prevInline = true
		default:
			li.Append(p)
			prevInline = true
		}
	}
}

// trimEdges strips leading and trailing spaces from a block's own content.
func trimEdges(b *doctree.Node) {
	var own []*doctree.Node
	var visit func(n *doctree.Node) bool
	visit = func(n *doctree.Node) bool {
		for _, c := range n.Children {
			if c.IsList() {
				return false
			}
			if c.IsText() {
				own = append(own, c)
				continue
			}
			if c.Is("br") {
				own = append(own, c)
				continue
			}
			if !visit(c) {
				return false
			}
		}
		return true
	}
	visit(b)
	for _, n := range own {
		if !n.IsText() {
			break
		}
		n.Text = strings.TrimLeft(n.Text, " ")
		if n.Text != "" {
			break
		}
	}
	for i := len(own) - 1; i >= 0; i-- {
		n := own[i]
		if !n.IsText() {
			break
		}
		n.Text = strings.TrimRight(n.Text, " ")
		if n.Text != "" {
			break
		}
	}
}

// deleteEmptyBlocks removes paragraphs and headings with neither text nor a
// line break.
func deleteEmptyBlocks(root *doctree.Node) {
	empty := doctree.Collect(root, func(n *doctree.Node) bool {
		if !n.Is("p", "h2", "h3") || n.TextContent() != "" {
			return false
		}
		return len(doctree.Collect(n, func(c *doctree.Node) bool { return c.Is("br") })) == 0
	})
	for _, n := range empty {
		n.Remove()
	}
}

func containsBlock(n *doctree.Node) bool {
	for _, c := range n.Children {
		if c.IsBlock() || containsBlock(c) {
			return true
		}
	}
	return false
}

func blank(n *doctree.Node) bool {
	return n.IsText() && strings.TrimSpace(strings.ReplaceAll(n.Text, "\u00a0", " ")) == ""
}

func detachChildren(n *doctree.Node) []*doctree.Node {
	kids := append([]*doctree.Node(nil), n.Children...)
	for _, k := range kids {
		k.Parent = nil
	}
	n.Children = nil
	return kids
}
