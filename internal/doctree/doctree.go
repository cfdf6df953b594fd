// Package doctree holds the editable document: a restricted tree of block and
// inline nodes with parent back-references used for traversal only.
package doctree

import (
	"strings"
	"unicode/utf8"
)

// Kind identifies the structural type of a Node.
type Kind int

const (
	KindRoot Kind = iota
	KindElement
	KindText
)

// MarkClass is the reserved class carried by highlight spans. It is the only
// attribute that survives sanitizing.
const MarkClass = "hl-violation"

// Node is a document node. Ownership is strictly parent to child; Parent is a
// back-reference kept in sync by the mutation helpers.
type Node struct {
	Kind     Kind
	Tag      string // Lowercase element name (KindElement only)
	Text     string // Run content (KindText only)
	Class    string // Reserved marker class, empty otherwise
	Parent   *Node
	Children []*Node
}

// NewRoot returns an empty document root.
func NewRoot(children ...*Node) *Node {
	n := &Node{Kind: KindRoot}
	n.Append(children...)
	return n
}

// NewElement returns an element node owning the given children.
func NewElement(tag string, children ...*Node) *Node {
	n := &Node{Kind: KindElement, Tag: tag}
	n.Append(children...)
	return n
}

// NewText returns a text run.
func NewText(s string) *Node {
	return &Node{Kind: KindText, Text: s}
}

// NewMark returns a highlight span wrapping s.
func NewMark(s string) *Node {
	n := &Node{Kind: KindElement, Tag: "span", Class: MarkClass}
	n.Append(NewText(s))
	return n
}

func (n *Node) IsText() bool { return n != nil && n.Kind == KindText }

func (n *Node) IsRoot() bool { return n != nil && n.Kind == KindRoot }

// Is reports whether n is an element with one of the given tags.
func (n *Node) Is(tags ...string) bool {
	if n == nil || n.Kind != KindElement {
		return false
	}
	for _, t := range tags {
		if n.Tag == t {
			return true
		}
	}
	return false
}

// IsMark reports whether n is a highlight span.
func (n *Node) IsMark() bool {
	return n.Is("span") && n.Class == MarkClass
}

// IsBlock reports whether n is a block-level element.
func (n *Node) IsBlock() bool { return n.Is(BlockTags...) }

// IsList reports whether n is a list container.
func (n *Node) IsList() bool { return n.Is("ul", "ol") }

// IsLeafBlock reports whether n is a block that directly holds inline content.
func (n *Node) IsLeafBlock() bool { return n.Is(LeafBlockTags...) }

// BlockTags are the canonical block elements.
var BlockTags = []string{"p", "h2", "h3", "ul", "ol", "li"}

// LeafBlockTags are the blocks whose children are inline content.
var LeafBlockTags = []string{"p", "h2", "h3", "li"}

// InlineTags are the canonical inline elements.
var InlineTags = []string{"strong", "em", "br", "span"}

// Index returns the position of n within its parent, or -1.
func (n *Node) Index() int {
	if n.Parent == nil {
		return -1
	}
	for i, c := range n.Parent.Children {
		if c == n {
			return i
		}
	}
	return -1
}

// Append adds children at the end of n, detaching them from any previous parent.
func (n *Node) Append(children ...*Node) {
	n.Insert(len(n.Children), children...)
}

// Insert places children at index i of n.
func (n *Node) Insert(i int, children ...*Node) {
	if len(children) == 0 {
		return
	}
	for _, c := range children {
		if c.Parent != nil {
			if c.Parent == n {
				if j := c.Index(); j >= 0 && j < i {
					i--
				}
			}
			c.Remove()
		}
	}
	if i < 0 {
		i = 0
	}
	if i > len(n.Children) {
		i = len(n.Children)
	}
	out := make([]*Node, 0, len(n.Children)+len(children))
	out = append(out, n.Children[:i]...)
	out = append(out, children...)
	out = append(out, n.Children[i:]...)
	n.Children = out
	for _, c := range children {
		c.Parent = n
	}
}

// Remove detaches n from its parent.
func (n *Node) Remove() {
	p := n.Parent
	if p == nil {
		return
	}
	i := n.Index()
	if i >= 0 {
		p.Children = append(p.Children[:i:i], p.Children[i+1:]...)
	}
	n.Parent = nil
}

// ReplaceWith puts nodes where n was and detaches n.
func (n *Node) ReplaceWith(nodes ...*Node) {
	p := n.Parent
	if p == nil {
		return
	}
	i := n.Index()
	n.Remove()
	p.Insert(i, nodes...)
}

// Unwrap replaces n with its own children.
func (n *Node) Unwrap() {
	kids := append([]*Node(nil), n.Children...)
	n.Children = nil
	for _, c := range kids {
		c.Parent = nil
	}
	n.ReplaceWith(kids...)
}

// Wrap moves n into a new element with the given tag and returns the wrapper.
func (n *Node) Wrap(tag string) *Node {
	w := NewElement(tag)
	if n.Parent != nil {
		n.ReplaceWith(w)
	}
	w.Append(n)
	return w
}

// Clone returns a deep copy of n without a parent.
func (n *Node) Clone() *Node {
	c := &Node{Kind: n.Kind, Tag: n.Tag, Text: n.Text, Class: n.Class}
	for _, k := range n.Children {
		c.Append(k.Clone())
	}
	return c
}

// ShallowClone copies n's own fields but none of its children.
func (n *Node) ShallowClone() *Node {
	return &Node{Kind: n.Kind, Tag: n.Tag, Text: n.Text, Class: n.Class}
}

// TextContent concatenates every text run below n.
func (n *Node) TextContent() string {
	if n.IsText() {
		return n.Text
	}
	var sb strings.Builder
	Walk(n, func(c *Node) bool {
		if c.IsText() {
			sb.WriteString(c.Text)
		}
		return true
	})
	return sb.String()
}

// Len is the rune length of n's text content.
func (n *Node) Len() int {
	if n.IsText() {
		return utf8.RuneCountInString(n.Text)
	}
	total := 0
	for _, c := range n.Children {
		total += c.Len()
	}
	return total
}

// Closest returns the nearest ancestor-or-self matching pred.
func (n *Node) Closest(pred func(*Node) bool) *Node {
	for c := n; c != nil; c = c.Parent {
		if pred(c) {
			return c
		}
	}
	return nil
}

// Block returns the leaf block containing n.
func (n *Node) Block() *Node {
	return n.Closest((*Node).IsLeafBlock)
}

// HasAncestor reports whether n sits below an element with the given tag.
func (n *Node) HasAncestor(tag string) bool {
	for c := n.Parent; c != nil; c = c.Parent {
		if c.Is(tag) {
			return true
		}
	}
	return false
}

// Path returns the child indices leading from the root to n.
func (n *Node) Path() []int {
	var path []int
	for c := n; c.Parent != nil; c = c.Parent {
		path = append(path, c.Index())
	}
	for i, j := 0, len(path)-1; i < j; i, j = i+1, j-1 {
		path[i], path[j] = path[j], path[i]
	}
	return path
}

// At resolves a path produced by Path.
func (n *Node) At(path []int) *Node {
	cur := n
	for _, i := range path {
		if i < 0 || i >= len(cur.Children) {
			return nil
		}
		cur = cur.Children[i]
	}
	return cur
}

// Contains reports whether d is n or one of its descendants.
func (n *Node) Contains(d *Node) bool {
	for c := d; c != nil; c = c.Parent {
		if c == n {
			return true
		}
	}
	return false
}
