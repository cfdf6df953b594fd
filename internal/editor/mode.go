package editor

import (
	"github.com/dgallion1/copyedit/internal/doctree"
	"github.com/dgallion1/copyedit/internal/highlight"
	"github.com/dgallion1/copyedit/internal/sanitize"
)

// Mode selects how the document is edited.
type Mode string

const (
	ModeRendered Mode = "rendered"
	ModeRaw      Mode = "raw"
)

// ParseMode validates a mode name.
func ParseMode(s string) (Mode, error) {
	switch m := Mode(s); m {
	case ModeRendered, ModeRaw:
		return m, nil
	}
	return "", ErrUnknownMode
}

// Mode returns the current mode.
func (e *Engine) Mode() Mode {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.mode
}

// SwitchMode moves to m. While the catalog is still loading the switch is
// queued and applied once the load settles; the returned flag reports
// whether the switch happened now.
func (e *Engine) SwitchMode(m Mode) (bool, error) {
	if _, err := ParseMode(string(m)); err != nil {
		return false, err
	}
	e.mu.Lock()
	defer e.unlock()
	if e.closed {
		return false, ErrClosed
	}
	if e.loading {
		e.queued = &m
		e.log.Debug("mode switch queued", "mode", m)
		return false, nil
	}
	e.switchLocked(m)
	return true, nil
}

func (e *Engine) switchLocked(m Mode) {
	if m == e.mode {
		return
	}
	e.stopTimerLocked()
	switch m {
	case ModeRaw:
		highlight.Clear(e.root)
		e.ledger.Commit(doctree.Render(e.root))
		e.raw = doctree.Pretty(e.root)
		e.sel = nil
		e.mode = ModeRaw
	case ModeRendered:
		root := e.rawTree()
		// Raw text is trusted, but a hand edit may still leave structure the
		// live tree would not produce.
		if sanitize.SanitizeTree(root) {
			e.log.Debug("raw text normalized on return to rendered mode")
		}
		e.root = root
		e.raw = ""
		e.sel = nil
		e.mode = ModeRendered
		e.ledger.SetBaseline(doctree.Render(e.root))
	}
	e.nav = map[string]int{}
	e.touch()
	e.validateLocked()
}
