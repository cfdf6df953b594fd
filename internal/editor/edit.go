package editor

import (
	"fmt"
	"unicode/utf8"

	"github.com/rivo/uniseg"

	"github.com/dgallion1/copyedit/internal/caret"
	"github.com/dgallion1/copyedit/internal/doctree"
	"github.com/dgallion1/copyedit/internal/highlight"
	"github.com/dgallion1/copyedit/internal/sanitize"
)

// InputType names a typing operation.
type InputType string

const (
	InsertText      InputType = "insert_text"
	InsertParagraph InputType = "insert_paragraph"
	InsertLineBreak InputType = "insert_line_break"
	DeleteBackward  InputType = "delete_backward"
	DeleteForward   InputType = "delete_forward"
)

// InputEvent is one typing operation applied at the current selection.
type InputEvent struct {
	Type InputType `json:"type" validate:"required,oneof=insert_text insert_paragraph insert_line_break delete_backward delete_forward"`
	Text string    `json:"text,omitempty"`
}

// Input applies ev, normalizes the live tree in place and schedules a
// debounced validation pass. Without a selection the caret is placed at the
// end of the document.
func (e *Engine) Input(ev InputEvent) error {
	e.mu.Lock()
	defer e.unlock()
	if err := e.checkLocked(ModeRendered); err != nil {
		return err
	}
	pos := caret.Save(e.root, e.sel)
	if pos == nil {
		n := e.root.Len()
		pos = caret.At(n, n)
	}
	highlight.Clear(e.root)

	var next *caret.Position
	switch ev.Type {
	case InsertText:
		next = insertText(e.root, pos, ev.Text)
	case InsertParagraph:
		next = insertParagraph(e.root, pos)
	case InsertLineBreak:
		next = insertLineBreak(e.root, pos)
	case DeleteBackward:
		next = deleteBackward(e.root, pos)
	case DeleteForward:
		next = deleteForward(e.root, pos)
	default:
		e.sel = caret.Restore(e.root, pos)
		return fmt.Errorf("%w: %q", ErrUnknownInput, ev.Type)
	}
	e.settleLocked(next)
	return nil
}

// ReplaceContent mirrors the whole live surface: markup in rendered mode, raw
// text in raw mode. The caret is restored from pos.
func (e *Engine) ReplaceContent(markup string, pos *caret.Position) error {
	e.mu.Lock()
	defer e.unlock()
	if e.closed {
		return ErrClosed
	}
	if e.mode == ModeRaw {
		e.raw = markup
		e.touch()
		e.scheduleLocked()
		return nil
	}
	root, err := doctree.Parse(markup)
	if err != nil {
		return fmt.Errorf("parse content: %w", err)
	}
	highlight.Clear(root)
	e.root = root
	e.settleLocked(pos)
	return nil
}

// settleLocked runs the in-place sanitizer, puts the caret at pos and
// schedules validation.
func (e *Engine) settleLocked(pos *caret.Position) {
	sanitize.SanitizeTree(e.root)
	e.sel = caret.Restore(e.root, pos)
	e.touch()
	e.scheduleLocked()
}

// collapse deletes a non-empty selection and returns the collapsed caret.
func collapse(root *doctree.Node, pos *caret.Position) *caret.Position {
	if pos.Collapsed() {
		return pos
	}
	return deleteRange(root, pos)
}

func insertText(root *doctree.Node, pos *caret.Position, text string) *caret.Position {
	pos = collapse(root, pos)
	if text == "" {
		return pos
	}
	p := caret.Locate(root, pos.Start, pos.StartBlock, pos.StartBreaks)
	if p.Node.IsText() {
		head, tail := splitAt(p.Node.Text, p.Offset)
		p.Node.Text = head + text + tail
	} else {
		parent, idx := p.Node, p.Offset
		if parent.IsRoot() {
			para := doctree.NewElement("p")
			parent.Insert(idx, para)
			parent, idx = para, 0
		}
		parent.Insert(idx, doctree.NewText(text))
	}
	n := pos.Start + utf8.RuneCountInString(text)
	return &caret.Position{Start: n, End: n, StartBlock: pos.StartBlock, EndBlock: pos.StartBlock}
}

func splitAt(s string, runes int) (string, string) {
	i := 0
	for n := 0; n < runes && i < len(s); n++ {
		_, size := utf8.DecodeRuneInString(s[i:])
		i += size
	}
	return s[:i], s[i:]
}

// insertParagraph splits the caret's block in two. An empty list item leaves
// its list instead, and a heading split at its end continues as a paragraph.
func insertParagraph(root *doctree.Node, pos *caret.Position) *caret.Position {
	pos = collapse(root, pos)
	p := caret.Locate(root, pos.Start, pos.StartBlock, pos.StartBreaks)
	blk := p.Node.Block()
	if blk == nil {
		para := doctree.NewElement("p")
		root.Append(para)
		ord := ordinalOf(root, para)
		return &caret.Position{Start: pos.Start, End: pos.Start, StartBlock: ord, EndBlock: ord}
	}
	ord := ordinalOf(root, blk)
	if blk.Is("li") && ownEmpty(blk) {
		liftItem(blk)
		return &caret.Position{Start: pos.Start, End: pos.Start, StartBlock: ord, EndBlock: ord}
	}
	right := doctree.SplitAfter(blk, p)
	doctree.Prune(blk)
	doctree.Prune(right)
	if right.Is("h2", "h3") && ownEmpty(right) {
		right.Tag = "p"
	}
	return &caret.Position{Start: pos.Start, End: pos.Start, StartBlock: ord + 1, EndBlock: ord + 1}
}

func insertLineBreak(root *doctree.Node, pos *caret.Position) *caret.Position {
	pos = collapse(root, pos)
	p := caret.Locate(root, pos.Start, pos.StartBlock, pos.StartBreaks)
	parent, idx := doctree.Boundary(p)
	if parent.IsRoot() {
		para := doctree.NewElement("p")
		parent.Insert(idx, para)
		parent, idx = para, 0
	}
	parent.Insert(idx, doctree.NewElement("br"))
	ord := ordinalOf(root, parent.Block())
	b := pos.StartBreaks + 1
	return &caret.Position{Start: pos.Start, End: pos.Start, StartBlock: ord, EndBlock: ord, StartBreaks: b, EndBreaks: b}
}

// breakAt finds the line break sitting at projection offset off inside blk
// with exactly run breaks before it at that offset.
func breakAt(blk *doctree.Node, blockStart, off, run int) *doctree.Node {
	cur, seen := blockStart, 0
	var found *doctree.Node
	for _, c := range blk.Children[:inlineEnd(blk)] {
		doctree.Walk(c, func(n *doctree.Node) bool {
			if found != nil {
				return false
			}
			switch {
			case n.IsText() && n.Text != "":
				cur += n.Len()
				seen = 0
			case n.Is("br"):
				if cur == off && seen == run {
					found = n
				}
				seen++
			}
			return true
		})
	}
	return found
}

// ownText returns the runes of a block's own content, without nested lists.
func ownText(blk *doctree.Node) []rune {
	var out []rune
	for _, c := range blk.Children[:inlineEnd(blk)] {
		out = append(out, []rune(c.TextContent())...)
	}
	return out
}

// lastCluster and firstCluster return the rune length of the grapheme
// cluster at the end or start of s.
func lastCluster(s string) int {
	n := 0
	g := uniseg.NewGraphemes(s)
	for g.Next() {
		n = len(g.Runes())
	}
	return n
}

func firstCluster(s string) int {
	g := uniseg.NewGraphemes(s)
	if g.Next() {
		return len(g.Runes())
	}
	return 0
}

func deleteBackward(root *doctree.Node, pos *caret.Position) *caret.Position {
	if !pos.Collapsed() {
		return deleteRange(root, pos)
	}
	p := caret.Locate(root, pos.Start, pos.StartBlock, pos.StartBreaks)
	blk := p.Node.Block()
	if blk == nil {
		return pos
	}
	ord := ordinalOf(root, blk)
	_, bs, _, _ := doctree.BlockSpan(root, ord)
	at := func(off, breaks, block int) *caret.Position {
		return &caret.Position{Start: off, End: off, StartBlock: block, EndBlock: block, StartBreaks: breaks, EndBreaks: breaks}
	}

	if pos.StartBreaks > 0 {
		if br := breakAt(blk, bs, pos.Start, pos.StartBreaks-1); br != nil {
			br.Remove()
			return at(pos.Start, pos.StartBreaks-1, ord)
		}
	}
	if pos.Start > bs {
		text := ownText(blk)
		n := lastCluster(string(text[:pos.Start-bs]))
		return deleteRange(root, &caret.Position{
			Start: pos.Start - n, End: pos.Start,
			StartBlock: ord, EndBlock: ord,
		})
	}
	if blk.Is("li") {
		liftItem(blk)
		return at(pos.Start, 0, ord)
	}
	if ord == 0 {
		return pos
	}
	prev := doctree.LeafBlocks(root)[ord-1]
	breaks := trailingBreaks(prev)
	mergeBlocks(prev, blk)
	return at(pos.Start, breaks, ord-1)
}

func deleteForward(root *doctree.Node, pos *caret.Position) *caret.Position {
	if !pos.Collapsed() {
		return deleteRange(root, pos)
	}
	p := caret.Locate(root, pos.Start, pos.StartBlock, pos.StartBreaks)
	blk := p.Node.Block()
	if blk == nil {
		return pos
	}
	ord := ordinalOf(root, blk)
	_, bs, be, _ := doctree.BlockSpan(root, ord)

	if br := breakAt(blk, bs, pos.Start, pos.StartBreaks); br != nil {
		br.Remove()
		return pos
	}
	if pos.Start < be {
		text := ownText(blk)
		n := firstCluster(string(text[pos.Start-bs:]))
		return deleteRange(root, &caret.Position{
			Start: pos.Start, End: pos.Start + n,
			StartBlock: ord, EndBlock: ord,
			StartBreaks: pos.StartBreaks,
		})
	}
	blocks := doctree.LeafBlocks(root)
	if ord+1 >= len(blocks) {
		return pos
	}
	mergeBlocks(blk, blocks[ord+1])
	return pos
}

// deleteRange removes the content between the two ends of pos, joins the
// blocks at either end and drops the blocks in between. It returns the
// collapsed caret.
func deleteRange(root *doctree.Node, pos *caret.Position) *caret.Position {
	sp := caret.Locate(root, pos.Start, pos.StartBlock, pos.StartBreaks)
	ep := caret.Locate(root, pos.End, pos.EndBlock, pos.EndBreaks)
	startBlk, endBlk := sp.Node.Block(), ep.Node.Block()

	ePar, eIdx := doctree.Boundary(ep)
	sPar, sIdx := doctree.Boundary(sp)
	from := doctree.Point{Node: sPar, Offset: sIdx}
	to := doctree.Point{Node: ePar, Offset: eIdx}

	doomed := doctree.Collect(root, func(n *doctree.Node) bool {
		if !n.IsText() && !n.Is("br") {
			return false
		}
		before := doctree.Point{Node: n.Parent, Offset: n.Index()}
		after := doctree.Point{Node: n.Parent, Offset: n.Index() + 1}
		return doctree.ComparePoints(from, before) <= 0 && doctree.ComparePoints(after, to) <= 0
	})
	for _, n := range doomed {
		n.Remove()
	}

	if startBlk != nil && endBlk != nil && startBlk != endBlk {
		between := blocksBetween(root, startBlk, endBlk)
		for _, b := range between[1:] {
			if b.Contains(startBlk) {
				continue
			}
			mergeBlocks(startBlk, b)
		}
	}
	doctree.Prune(root)
	doctree.Normalize(root)

	ord := pos.StartBlock
	if startBlk != nil {
		ord = ordinalOf(root, startBlk)
	}
	return &caret.Position{
		Start: pos.Start, End: pos.Start,
		StartBlock: ord, EndBlock: ord,
		StartBreaks: pos.StartBreaks, EndBreaks: pos.StartBreaks,
	}
}
