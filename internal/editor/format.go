package editor

import (
	"strings"
	"unicode"

	"github.com/dgallion1/copyedit/internal/caret"
	"github.com/dgallion1/copyedit/internal/doctree"
	"github.com/dgallion1/copyedit/internal/highlight"
	"github.com/dgallion1/copyedit/internal/sanitize"
)

// Command is a formatting command.
type Command string

const (
	CmdBold      Command = "bold"
	CmdItalic    Command = "italic"
	CmdHeading2  Command = "heading-2"
	CmdHeading3  Command = "heading-3"
	CmdList      Command = "list"
	CmdLowercase Command = "lowercase"
)

// ParseCommand accepts the command names with or without a "toggle-" prefix,
// and "lowercase-selection".
func ParseCommand(s string) (Command, error) {
	s = strings.TrimPrefix(strings.ToLower(strings.TrimSpace(s)), "toggle-")
	if s == "lowercase-selection" {
		s = string(CmdLowercase)
	}
	switch c := Command(s); c {
	case CmdBold, CmdItalic, CmdHeading2, CmdHeading3, CmdList, CmdLowercase:
		return c, nil
	}
	return "", ErrUnknownCommand
}

// Format applies cmd to the current selection. An undo snapshot is committed
// when the command changed the content. Without a selection it does nothing.
func (e *Engine) Format(cmd Command) error {
	c, err := ParseCommand(string(cmd))
	if err != nil {
		return err
	}
	e.mu.Lock()
	defer e.unlock()
	if e.closed {
		return ErrClosed
	}
	if e.mode != ModeRendered {
		return ErrFormattingDisabled
	}
	if e.sel == nil {
		return nil
	}

	pos := caret.Save(e.root, e.sel)
	if pos == nil {
		return nil
	}
	before := e.currentLocked()
	highlight.Clear(e.root)
	e.sel = caret.Restore(e.root, pos)

	switch c {
	case CmdBold:
		toggleInline(e.root, pos.Start, pos.End, "strong")
	case CmdItalic:
		toggleInline(e.root, pos.Start, pos.End, "em")
	case CmdHeading2:
		toggleHeading(e.selectedBlocks(), "h2")
	case CmdHeading3:
		toggleHeading(e.selectedBlocks(), "h3")
	case CmdList:
		toggleList(e.selectedBlocks())
	case CmdLowercase:
		lowercase(e.root, pos.Start, pos.End)
	}

	sanitize.SanitizeTree(e.root)
	e.sel = caret.Restore(e.root, pos)
	if e.currentLocked() != before {
		e.ledger.Commit(before)
	}
	e.touch()
	e.stopTimerLocked()
	e.validateLocked()
	return nil
}

// selectedBlocks lists the leaf blocks touched by the selection.
func (e *Engine) selectedBlocks() []*doctree.Node {
	if e.sel == nil {
		return nil
	}
	a, b := e.sel.Start.Node.Block(), e.sel.End.Node.Block()
	if a == nil || b == nil {
		return nil
	}
	return blocksBetween(e.root, a, b)
}

type segment struct {
	text   string
	br     bool
	bold   bool
	italic bool
	start  int
}

// segmentsOf flattens a block's own inline content into formatted pieces.
// start is the projection offset of the block.
func segmentsOf(b *doctree.Node, start int) []segment {
	var out []segment
	off := start
	var visit func(n *doctree.Node, bold, italic bool)
	visit = func(n *doctree.Node, bold, italic bool) {
		switch {
		case n.IsText():
			if n.Text != "" {
				out = append(out, segment{text: n.Text, bold: bold, italic: italic, start: off})
				off += n.Len()
			}
		case n.Is("br"):
			out = append(out, segment{br: true, start: off})
		default:
			bold = bold || n.Is("strong")
			italic = italic || n.Is("em")
			for _, c := range n.Children {
				visit(c, bold, italic)
			}
		}
	}
	for _, c := range b.Children[:inlineEnd(b)] {
		visit(c, false, false)
	}
	return out
}

// splitSegments cuts text segments at projection offset at.
func splitSegments(segs []segment, at int) []segment {
	out := make([]segment, 0, len(segs)+1)
	for _, s := range segs {
		n := len([]rune(s.text))
		if s.br || at <= s.start || at >= s.start+n {
			out = append(out, s)
			continue
		}
		r := []rune(s.text)
		head, tail := s, s
		head.text = string(r[:at-s.start])
		tail.text = string(r[at-s.start:])
		tail.start = at
		out = append(out, head, tail)
	}
	return out
}

func (s segment) end() int {
	return s.start + len([]rune(s.text))
}

// toggleInline sets or clears strong/em over the text in [start, end). It
// clears when every selected character already carries the format.
func toggleInline(root *doctree.Node, start, end int, tag string) {
	if start >= end {
		return
	}
	type piece struct {
		blk  *doctree.Node
		segs []segment
	}
	var pieces []piece
	for i, blk := range doctree.LeafBlocks(root) {
		_, bs, be, _ := doctree.BlockSpan(root, i)
		if bs == be || be <= start || bs >= end {
			continue
		}
		segs := splitSegments(splitSegments(segmentsOf(blk, bs), start), end)
		pieces = append(pieces, piece{blk, segs})
	}

	get := func(s *segment) *bool {
		if tag == "strong" {
			return &s.bold
		}
		return &s.italic
	}
	inside := func(s segment) bool {
		return !s.br && s.start >= start && s.end() <= end
	}

	set := false
	for _, p := range pieces {
		for i := range p.segs {
			if inside(p.segs[i]) && !*get(&p.segs[i]) {
				set = true
			}
		}
	}
	for _, p := range pieces {
		for i := range p.segs {
			if inside(p.segs[i]) {
				*get(&p.segs[i]) = set
			}
		}
		rebuild(p.blk, p.segs)
	}
}

// rebuild replaces a block's own inline content with segs. Line breaks take
// the formatting shared by the text on both sides of them.
func rebuild(b *doctree.Node, segs []segment) {
	for _, c := range append([]*doctree.Node(nil), b.Children[:inlineEnd(b)]...) {
		c.Remove()
	}
	nodes := make([]*doctree.Node, 0, len(segs))
	for i, s := range segs {
		if s.br {
			prev, next := neighbour(segs, i, -1), neighbour(segs, i, 1)
			s.bold = prev != nil && next != nil && prev.bold && next.bold
			s.italic = prev != nil && next != nil && prev.italic && next.italic
		}
		var n *doctree.Node
		if s.br {
			n = doctree.NewElement("br")
		} else {
			n = doctree.NewText(s.text)
		}
		if s.italic {
			n = doctree.NewElement("em", n)
		}
		if s.bold {
			n = doctree.NewElement("strong", n)
		}
		nodes = append(nodes, n)
	}
	b.Insert(0, nodes...)
	doctree.Normalize(b)
}

func neighbour(segs []segment, i, dir int) *segment {
	for j := i + dir; j >= 0 && j < len(segs); j += dir {
		if !segs[j].br {
			return &segs[j]
		}
	}
	return nil
}

// toggleHeading turns the selected paragraphs into headings of the given
// level, or back into paragraphs when they all already are. List items are
// left alone.
func toggleHeading(blocks []*doctree.Node, tag string) {
	var targets []*doctree.Node
	all := true
	for _, b := range blocks {
		if b.Is("li") {
			continue
		}
		targets = append(targets, b)
		if b.Tag != tag {
			all = false
		}
	}
	next := tag
	if all {
		next = "p"
	}
	for _, b := range targets {
		b.Tag = next
	}
}

// toggleList lifts the selected items out of their lists when every selected
// block is a list item; otherwise it wraps the selected paragraphs and
// headings into a bulleted list, joining neighbouring bulleted lists.
func toggleList(blocks []*doctree.Node) {
	if len(blocks) == 0 {
		return
	}
	allItems := true
	for _, b := range blocks {
		if !b.Is("li") {
			allItems = false
		}
	}
	if allItems {
		for _, b := range blocks {
			liftItem(b)
		}
		return
	}

	var last *doctree.Node
	for _, b := range blocks {
		if b.Is("li") || b.Parent == nil {
			continue
		}
		li := doctree.NewElement("li")
		li.Append(append([]*doctree.Node(nil), b.Children...)...)
		prev := prevSibling(b)
		if prev.Is("ul") {
			prev.Append(li)
			b.Remove()
			last = prev
			continue
		}
		ul := doctree.NewElement("ul", li)
		b.ReplaceWith(ul)
		last = ul
	}
	if last == nil {
		return
	}
	if next := nextSibling(last); next.Is("ul") {
		last.Append(append([]*doctree.Node(nil), next.Children...)...)
		next.Remove()
	}
}

func prevSibling(n *doctree.Node) *doctree.Node {
	if i := n.Index(); i > 0 {
		return n.Parent.Children[i-1]
	}
	return nil
}

func nextSibling(n *doctree.Node) *doctree.Node {
	if i := n.Index(); i >= 0 && i+1 < len(n.Parent.Children) {
		return n.Parent.Children[i+1]
	}
	return nil
}

// lowercase lowers every character in [start, end) rune by rune, so the
// projection length never changes.
func lowercase(root *doctree.Node, start, end int) {
	for _, r := range doctree.Runs(root) {
		a, b := max(start, r.Start)-r.Start, min(end, r.End)-r.Start
		if a >= b {
			continue
		}
		runes := []rune(r.Node.Text)
		for i := a; i < b; i++ {
			runes[i] = unicode.ToLower(runes[i])
		}
		r.Node.Text = string(runes)
	}
}
