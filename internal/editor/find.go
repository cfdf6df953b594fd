package editor

import (
	"strings"

	"github.com/dgallion1/copyedit/internal/caret"
	"github.com/dgallion1/copyedit/internal/doctree"
	"github.com/dgallion1/copyedit/internal/highlight"
	"github.com/dgallion1/copyedit/internal/sanitize"
	"github.com/dgallion1/copyedit/internal/validate"
)

// Outcome names the result of a find/replace.
type Outcome string

const (
	OutcomeReplaced Outcome = "replaced"
	OutcomeNotFound Outcome = "not_found"
)

// FindReplaceResult reports how many occurrences were replaced.
type FindReplaceResult struct {
	Count   int     `json:"count"`
	Outcome Outcome `json:"outcome"`
}

// FindReplace replaces every literal occurrence of find. In rendered mode
// matches are found within single text runs of the document; in raw mode
// within the raw text, tags included. mode must be the current mode. An
// undo snapshot is committed before anything changes; zero occurrences is
// reported as OutcomeNotFound and changes nothing.
func (e *Engine) FindReplace(find, replace string, mode Mode) (FindReplaceResult, error) {
	if find == "" {
		return FindReplaceResult{}, ErrEmptyQuery
	}
	if _, err := ParseMode(string(mode)); err != nil {
		return FindReplaceResult{}, err
	}
	e.mu.Lock()
	defer e.unlock()
	if err := e.checkLocked(mode); err != nil {
		return FindReplaceResult{}, err
	}

	if mode == ModeRaw {
		n := strings.Count(e.raw, find)
		if n == 0 {
			return FindReplaceResult{Outcome: OutcomeNotFound}, nil
		}
		e.ledger.Commit(e.currentLocked())
		e.raw = strings.ReplaceAll(e.raw, find, replace)
		e.finishReplaceLocked()
		return FindReplaceResult{Count: n, Outcome: OutcomeReplaced}, nil
	}

	pos := caret.Save(e.root, e.sel)
	stripped := highlight.Strip(e.root)
	n := 0
	for _, t := range doctree.TextRuns(stripped) {
		n += strings.Count(t.Text, find)
	}
	if n == 0 {
		return FindReplaceResult{Outcome: OutcomeNotFound}, nil
	}

	e.ledger.Commit(doctree.Render(stripped))
	e.root = stripped
	for _, t := range doctree.TextRuns(e.root) {
		t.Text = strings.ReplaceAll(t.Text, find, replace)
	}
	sanitize.SanitizeTree(e.root)
	e.sel = caret.Restore(e.root, pos)
	e.finishReplaceLocked()
	return FindReplaceResult{Count: n, Outcome: OutcomeReplaced}, nil
}

func (e *Engine) finishReplaceLocked() {
	e.touch()
	e.stopTimerLocked()
	e.validateLocked()
}

// Direction steps through occurrences.
type Direction string

const (
	Next     Direction = "next"
	Previous Direction = "previous"
)

// Location is where an occurrence sits in the document.
type Location struct {
	Key       string `json:"key"`
	Index     int    `json:"index"`
	Total     int    `json:"total"`
	SpanStart int    `json:"span_start"`
	SpanEnd   int    `json:"span_end"`
	Block     int    `json:"block"`
	Path      []int  `json:"path"`
}

// Navigate moves the selection to the next (or previous) occurrence of the
// term key, wrapping around at either end. It reports false when the key has
// no occurrence or the engine is in raw mode. A pending validation pass runs
// first so the occurrences are current.
func (e *Engine) Navigate(key string, dir Direction) (Location, bool) {
	e.mu.Lock()
	defer e.unlock()
	if e.closed || e.mode != ModeRendered {
		return Location{}, false
	}
	if e.stopTimerLocked() {
		e.validateLocked()
	}

	key = strings.ToLower(key)
	var hits []validate.Violation
	for _, v := range e.report.Terms {
		if v.Key == key {
			hits = append(hits, v)
		}
	}
	if len(hits) == 0 {
		delete(e.nav, key)
		return Location{}, false
	}

	last, seen := e.nav[key]
	var i int
	switch {
	case !seen && dir == Previous:
		i = len(hits) - 1
	case !seen:
		i = 0
	case dir == Previous:
		i = (last - 1 + len(hits)) % len(hits)
	default:
		i = (last + 1) % len(hits)
	}
	e.nav[key] = i
	v := hits[i]

	loc := Location{Key: key, Index: i, Total: len(hits), SpanStart: v.SpanStart, SpanEnd: v.SpanEnd, Block: -1}
	for _, r := range doctree.Runs(e.root) {
		if r.Start <= v.SpanStart && v.SpanStart < r.End {
			loc.Block = r.Block
			loc.Path = r.Node.Path()
			break
		}
	}
	e.sel = caret.Restore(e.root, &caret.Position{
		Start: v.SpanStart, End: v.SpanEnd,
		StartBlock: loc.Block, EndBlock: loc.Block,
	})
	return loc, true
}
