// Package caret translates selections between structural points in the
// document tree and offsets in its plain-text projection, so a caret survives
// the restructuring done by highlighting, formatting and sanitizing.
package caret

import "github.com/dgallion1/copyedit/internal/doctree"

// Selection is a live range inside one tree. Start precedes or equals End in
// document order.
type Selection struct {
	Start doctree.Point
	End   doctree.Point
}

// Collapse returns a zero-width selection at p.
func Collapse(p doctree.Point) *Selection {
	return &Selection{Start: p, End: p}
}

// Collapsed reports whether the selection has no extent.
func (s *Selection) Collapsed() bool {
	return s.Start == s.End
}

// Position is a tree-independent snapshot of a selection. Offsets count runes
// of the plain-text projection. An offset on a block boundary names two
// places; the block hints (leaf-block ordinals, -1 when unknown) pick one, and
// the break counts pick between the places on either side of line breaks
// sharing the same offset.
type Position struct {
	Start       int `json:"start"`
	End         int `json:"end"`
	StartBlock  int `json:"start_block"`
	EndBlock    int `json:"end_block"`
	StartBreaks int `json:"start_breaks,omitempty"`
	EndBreaks   int `json:"end_breaks,omitempty"`
}

// At returns a position with no block hints.
func At(start, end int) *Position {
	return &Position{Start: start, End: end, StartBlock: -1, EndBlock: -1}
}

// Collapsed reports whether the position has no extent.
func (p *Position) Collapsed() bool {
	return p.Start == p.End
}

// Save converts sel to a Position. It returns nil when sel is nil or refers to
// nodes no longer attached under root.
func Save(root *doctree.Node, sel *Selection) *Position {
	if sel == nil {
		return nil
	}
	s, ok := measure(root, sel.Start)
	if !ok {
		return nil
	}
	e, ok := measure(root, sel.End)
	if !ok {
		return nil
	}
	if e.offset < s.offset {
		s, e = e, s
	}
	return &Position{
		Start: s.offset, End: e.offset,
		StartBlock: s.block, EndBlock: e.block,
		StartBreaks: s.breaks, EndBreaks: e.breaks,
	}
}

// Restore converts pos back into a selection on root. Offsets beyond the
// projection are clamped. A nil pos restores nothing.
func Restore(root *doctree.Node, pos *Position) *Selection {
	if pos == nil {
		return nil
	}
	total := root.Len()
	start := clamp(pos.Start, total)
	end := clamp(pos.End, total)
	sb, eb, sbr, ebr := pos.StartBlock, pos.EndBlock, pos.StartBreaks, pos.EndBreaks
	if end < start {
		start, end = end, start
		sb, eb = eb, sb
		sbr, ebr = ebr, sbr
	}
	return &Selection{
		Start: Locate(root, start, sb, sbr),
		End:   Locate(root, end, eb, ebr),
	}
}

func clamp(v, hi int) int {
	if v < 0 {
		return 0
	}
	if v > hi {
		return hi
	}
	return v
}

type measurement struct {
	offset int
	block  int
	breaks int
}

// measure walks root in document order and reports where p sits.
func measure(root *doctree.Node, p doctree.Point) (measurement, bool) {
	if !p.Valid() || !root.Contains(p.Node) {
		return measurement{}, false
	}
	var (
		off, run int
		result   measurement
		found    bool
	)
	record := func(breaks int) {
		result = measurement{offset: off, block: -1, breaks: breaks}
		found = true
	}
	var visit func(n *doctree.Node)
	visit = func(n *doctree.Node) {
		if found {
			return
		}
		if n.IsText() {
			l := n.Len()
			if n == p.Node {
				b := 0
				if p.Offset == 0 {
					b = run
				}
				off += p.Offset
				record(b)
				return
			}
			if l > 0 {
				run = 0
			}
			off += l
			return
		}
		if n.IsLeafBlock() {
			run = 0
		}
		if n.Is("br") {
			run++
		}
		for i, c := range n.Children {
			if n == p.Node && i == p.Offset {
				record(run)
				return
			}
			visit(c)
			if found {
				return
			}
		}
		if n == p.Node {
			record(run)
		}
	}
	visit(root)
	if !found {
		return measurement{}, false
	}
	if blk := p.Node.Block(); blk != nil {
		result.block = ordinalOf(root, blk)
	}
	return result, true
}

func ordinalOf(root, blk *doctree.Node) int {
	for i, b := range doctree.LeafBlocks(root) {
		if b == blk {
			return i
		}
	}
	return -1
}

// Locate finds the point for a projection offset. The hinted block wins when
// it covers the offset; otherwise the earliest block that covers it does.
// breaks selects among the places separated only by line breaks.
func Locate(root *doctree.Node, offset, blockHint, breaks int) doctree.Point {
	if blockHint >= 0 {
		if blk, start, end, ok := doctree.BlockSpan(root, blockHint); ok && start <= offset && offset <= end {
			if p, ok := locateInBlock(blk, start, offset, breaks); ok {
				return p
			}
		}
	}
	for i := range doctree.LeafBlocks(root) {
		blk, start, end, _ := doctree.BlockSpan(root, i)
		if start <= offset && offset <= end {
			if p, ok := locateInBlock(blk, start, offset, breaks); ok {
				return p
			}
		}
	}
	// Runs outside any block, or an empty document.
	for _, r := range doctree.Runs(root) {
		if r.Start <= offset && offset <= r.End {
			return doctree.Point{Node: r.Node, Offset: offset - r.Start}
		}
	}
	return doctree.Point{Node: root, Offset: len(root.Children)}
}

// inlineAtoms lists the text runs and line breaks of one block's own inline
// content, stopping at the first nested list.
func inlineAtoms(blk *doctree.Node) []*doctree.Node {
	var out []*doctree.Node
	var visit func(n *doctree.Node)
	visit = func(n *doctree.Node) {
		for _, c := range n.Children {
			switch {
			case c.IsList():
				return
			case c.IsText(), c.Is("br"):
				out = append(out, c)
			default:
				visit(c)
			}
		}
	}
	visit(blk)
	return out
}

func locateInBlock(blk *doctree.Node, start, target, breaks int) (doctree.Point, bool) {
	atoms := inlineAtoms(blk)
	if len(atoms) == 0 {
		if target != start {
			return doctree.Point{}, false
		}
		idx := 0
		for i, c := range blk.Children {
			if c.IsList() {
				break
			}
			idx = i + 1
		}
		return doctree.Point{Node: blk, Offset: idx}, true
	}
	var (
		first doctree.Point
		have  bool
		off   = start
		run   int
	)
	for _, n := range atoms {
		if n.IsText() {
			l := n.Len()
			if off <= target && target <= off+l {
				k := target - off
				b := 0
				if k == 0 {
					b = run
				}
				cand := doctree.Point{Node: n, Offset: k}
				if !have {
					first, have = cand, true
				}
				if b == breaks {
					return cand, true
				}
			}
			if l > 0 {
				run = 0
			}
			off += l
			continue
		}
		// Line break.
		if off == target {
			before := doctree.Point{Node: n.Parent, Offset: n.Index()}
			if !have {
				first, have = before, true
			}
			if run == breaks {
				return before, true
			}
			run++
			if run == breaks {
				return doctree.Point{Node: n.Parent, Offset: n.Index() + 1}, true
			}
			continue
		}
		run++
	}
	return first, have
}
