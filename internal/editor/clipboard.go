package editor

import (
	"regexp"
	"strings"

	"github.com/dgallion1/copyedit/internal/caret"
	"github.com/dgallion1/copyedit/internal/doctree"
	"github.com/dgallion1/copyedit/internal/highlight"
	"github.com/dgallion1/copyedit/internal/sanitize"
)

// Clipboard is the payload produced by Copy.
type Clipboard struct {
	Markup string `json:"markup"`
	Text   string `json:"text"`
}

// knownTag sniffs for at least one tag the sanitizer maps into the canonical
// vocabulary.
var knownTag = regexp.MustCompile(`(?i)<\s*/?\s*(?:p|h[1-6]|ul|ol|li|strong|b|em|i|br|div|span)(?:\s[^>]*)?\s*/?>`)

// Paste replaces the selection with clipboard content. markup is used when it
// carries recognizable tags; otherwise plain is read as markup when it has
// tags, and as one paragraph per line when it does not. The result is always
// sanitized before insertion. An undo snapshot is committed first.
func (e *Engine) Paste(plain, markup string) error {
	e.mu.Lock()
	defer e.unlock()
	if err := e.checkLocked(ModeRendered); err != nil {
		return err
	}
	frag := pasteFragment(plain, markup)
	if len(frag.Children) == 0 {
		return nil
	}

	e.ledger.Commit(e.currentLocked())
	pos := caret.Save(e.root, e.sel)
	if pos == nil {
		n := e.root.Len()
		pos = caret.At(n, n)
	}
	highlight.Clear(e.root)
	pos = collapse(e.root, pos)

	n := frag.Len()
	insertFragment(e.root, caret.Locate(e.root, pos.Start, pos.StartBlock, pos.StartBreaks), frag)
	sanitize.SanitizeTree(e.root)
	e.sel = caret.Restore(e.root, caret.At(pos.Start+n, pos.Start+n))
	e.touch()
	e.stopTimerLocked()
	e.validateLocked()
	return nil
}

// pasteFragment turns clipboard content into a sanitized tree.
func pasteFragment(plain, markup string) *doctree.Node {
	switch {
	case knownTag.MatchString(markup):
		return sanitize.Tree(markup)
	case knownTag.MatchString(plain):
		return sanitize.Tree(plain)
	}
	return sanitize.Tree(paragraphs(plain))
}

// paragraphs wraps every non-blank line of plain text in its own paragraph.
func paragraphs(plain string) string {
	var sb strings.Builder
	for _, line := range strings.Split(plain, "\n") {
		line = strings.TrimRight(line, "\r")
		if strings.TrimSpace(line) == "" {
			continue
		}
		sb.WriteString("<p>")
		sb.WriteString(doctree.EscapeText(line))
		sb.WriteString("</p>")
	}
	return sb.String()
}

// insertFragment places the blocks of frag at p. A single paragraph is
// inserted inline. Otherwise the top-level block around p is split, the
// fragment goes in between, and paragraphs at either edge of the fragment
// join the text they land next to.
func insertFragment(root *doctree.Node, p doctree.Point, frag *doctree.Node) {
	blocks := append([]*doctree.Node(nil), frag.Children...)
	if p.Node.IsRoot() {
		root.Insert(p.Offset, blocks...)
		return
	}
	if len(blocks) == 1 && blocks[0].Is("p") {
		parent, idx := doctree.Boundary(p)
		parent.Insert(idx, append([]*doctree.Node(nil), blocks[0].Children...)...)
		return
	}

	top := topLevel(p.Node)
	left := p.Node.Block()
	right := doctree.SplitAfter(top, p)
	root.Insert(top.Index()+1, blocks...)

	first, last := blocks[0], blocks[len(blocks)-1]
	if first.Is("p") && !top.IsList() && left != nil {
		mergeBlocks(left, first)
	}
	if last.Is("p") && last.Parent != nil && !right.IsList() {
		if rb := doctree.LeafBlocks(right); len(rb) > 0 {
			mergeBlocks(last, rb[0])
		}
	}
	for _, n := range []*doctree.Node{top, right} {
		if n.Parent != nil && n.Len() == 0 && len(doctree.Collect(n, func(x *doctree.Node) bool { return x.Is("br") })) == 0 {
			n.Remove()
		}
	}
}

// Copy returns the content covered by pos, or by the current selection when
// pos is nil, as canonical mark-free markup and plain text. Empty blocks are
// dropped.
func (e *Engine) Copy(pos *caret.Position) (Clipboard, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.checkLocked(ModeRendered); err != nil {
		return Clipboard{}, err
	}
	if pos == nil {
		pos = caret.Save(e.root, e.sel)
	}
	if pos == nil || pos.Collapsed() {
		return Clipboard{}, nil
	}
	c := highlight.Strip(e.root)
	trimTo(c, pos)

	clean := sanitize.Tree(doctree.Render(c))
	return Clipboard{
		Markup: doctree.Render(clean),
		Text:   strings.Join(doctree.Lines(clean), "\n"),
	}, nil
}

// trimTo removes every text run and line break outside pos, then the leaf
// blocks left empty.
func trimTo(root *doctree.Node, pos *caret.Position) {
	total := root.Len()
	start, end := min(max(pos.Start, 0), total), min(max(pos.End, 0), total)
	if end < start {
		start, end = end, start
	}
	sp := caret.Locate(root, start, pos.StartBlock, pos.StartBreaks)
	ep := caret.Locate(root, end, pos.EndBlock, pos.EndBreaks)
	ePar, eIdx := doctree.Boundary(ep)
	sPar, sIdx := doctree.Boundary(sp)
	from := doctree.Point{Node: sPar, Offset: sIdx}
	to := doctree.Point{Node: ePar, Offset: eIdx}

	outside := doctree.Collect(root, func(n *doctree.Node) bool {
		if !n.IsText() && !n.Is("br") {
			return false
		}
		before := doctree.Point{Node: n.Parent, Offset: n.Index()}
		after := doctree.Point{Node: n.Parent, Offset: n.Index() + 1}
		return doctree.ComparePoints(after, from) <= 0 || doctree.ComparePoints(to, before) <= 0
	})
	for _, n := range outside {
		n.Remove()
	}
	blocks := doctree.LeafBlocks(root)
	for i := len(blocks) - 1; i >= 0; i-- {
		if b := blocks[i]; ownEmpty(b) && inlineEnd(b) == len(b.Children) {
			b.Remove()
		}
	}
	doctree.Prune(root)
}
