package doctree

import (
	"fmt"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// Parse reads markup into a tree without filtering any element. Only the
// class attribute is retained; comments and doctypes are dropped. Callers that
// accept untrusted input go through the sanitize package instead.
func Parse(markup string) (*Node, error) {
	ctx := &html.Node{Type: html.ElementNode, Data: "body", DataAtom: atom.Body}
	nodes, err := html.ParseFragment(strings.NewReader(markup), ctx)
	if err != nil {
		return nil, fmt.Errorf("parse markup: %w", err)
	}
	root := NewRoot()
	for _, hn := range nodes {
		if c := convert(hn); c != nil {
			root.Append(c)
		}
	}
	return root, nil
}

// MustParse is Parse for markup known to be well formed, such as tests and
// canonical snapshots.
func MustParse(markup string) *Node {
	root, err := Parse(markup)
	if err != nil {
		panic(err)
	}
	return root
}

func convert(hn *html.Node) *Node {
	switch hn.Type {
	case html.TextNode:
		return NewText(hn.Data)
	case html.ElementNode:
		el := NewElement(strings.ToLower(hn.Data))
		for _, a := range hn.Attr {
			if a.Key == "class" && a.Namespace == "" {
				el.Class = a.Val
			}
		}
		for c := hn.FirstChild; c != nil; c = c.NextSibling {
			if k := convert(c); k != nil {
				el.Append(k)
			}
		}
		return el
	case html.DocumentNode:
		root := NewRoot()
		for c := hn.FirstChild; c != nil; c = c.NextSibling {
			if k := convert(c); k != nil {
				root.Append(k)
			}
		}
		return root
	}
	return nil
}

var textEscaper = strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;")

// EscapeText escapes only the characters that would otherwise be read back as
// markup. Every other character is written literally.
func EscapeText(s string) string {
	return textEscaper.Replace(s)
}

// Render serializes the children of root as canonical markup. Elements are
// written without attributes except the reserved class on highlight spans.
func Render(root *Node) string {
	var sb strings.Builder
	for _, c := range root.Children {
		render(&sb, c)
	}
	return sb.String()
}

// RenderNode serializes n itself.
func RenderNode(n *Node) string {
	var sb strings.Builder
	render(&sb, n)
	return sb.String()
}

func render(sb *strings.Builder, n *Node) {
	switch n.Kind {
	case KindText:
		sb.WriteString(EscapeText(n.Text))
	case KindRoot:
		for _, c := range n.Children {
			render(sb, c)
		}
	case KindElement:
		openTag(sb, n)
		if n.Tag == "br" {
			return
		}
		for _, c := range n.Children {
			render(sb, c)
		}
		sb.WriteString("</" + n.Tag + ">")
	}
}

func openTag(sb *strings.Builder, n *Node) {
	sb.WriteString("<" + n.Tag)
	if n.IsMark() {
		sb.WriteString(` class="` + MarkClass + `"`)
	}
	sb.WriteString(">")
}
