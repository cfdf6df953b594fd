// Package editor owns one editing session: the document tree, the caret, the
// undo ledger, the compiled matcher and the current mode. Every exported
// method serializes on the engine mutex and runs to completion; only catalog
// loading and debounced validation happen later, on their own goroutines.
package editor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/dgallion1/copyedit/internal/caret"
	"github.com/dgallion1/copyedit/internal/catalog"
	"github.com/dgallion1/copyedit/internal/doctree"
	"github.com/dgallion1/copyedit/internal/highlight"
	"github.com/dgallion1/copyedit/internal/history"
	"github.com/dgallion1/copyedit/internal/sanitize"
	"github.com/dgallion1/copyedit/internal/validate"
)

// DefaultDebounce is the quiet period after input before validation runs.
const DefaultDebounce = 300 * time.Millisecond

const catalogLoadTimeout = 30 * time.Second

var (
	ErrFormattingDisabled = errors.New("formatting commands are disabled in raw mode")
	ErrUnknownCommand     = errors.New("unknown format command")
	ErrUnknownMode        = errors.New("unknown mode")
	ErrWrongMode          = errors.New("operation not available in the current mode")
	ErrEmptyQuery         = errors.New("find text is empty")
	ErrUnknownInput       = errors.New("unknown input type")
	ErrClosed             = errors.New("editor is closed")
)

// Recorder receives the duration of every validation pass.
type Recorder interface {
	Observe(d time.Duration)
}

// Options configure an Engine. The zero value is usable: builtin catalog,
// default debounce and history limit, logging discarded.
type Options struct {
	Logger       *slog.Logger
	Debounce     time.Duration
	HistoryLimit int

	// Catalog is compiled immediately. LoadCatalog, when set, takes
	// precedence and runs in the background; mode switches requested
	// before it settles are queued.
	Catalog     *catalog.Catalog
	LoadCatalog func(ctx context.Context) (*catalog.Catalog, error)

	// OnReport is called after every validation pass, outside the engine
	// lock.
	OnReport func(validate.Report)
	Recorder Recorder
}

// Engine is a single editor instance.
type Engine struct {
	mu  sync.Mutex
	log *slog.Logger

	debounce time.Duration
	onReport func(validate.Report)
	recorder Recorder

	root *doctree.Node
	raw  string
	mode Mode
	sel  *caret.Selection

	ledger  *history.Ledger
	matcher *validate.Matcher
	report  validate.Report
	nav     map[string]int

	version uint64
	timer   *time.Timer

	ready   chan struct{}
	loading bool
	queued  *Mode
	closed  bool

	outbox []validate.Report
}

// New creates an engine holding the sanitized form of markup.
func New(markup string, opts Options) *Engine {
	log := opts.Logger
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	debounce := opts.Debounce
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	e := &Engine{
		log:      log,
		debounce: debounce,
		onReport: opts.OnReport,
		recorder: opts.Recorder,
		root:     sanitize.Tree(markup),
		mode:     ModeRendered,
		ledger:   history.New(opts.HistoryLimit),
		nav:      map[string]int{},
		ready:    make(chan struct{}),
	}

	if opts.LoadCatalog != nil {
		e.loading = true
		go e.loadCatalog(opts.LoadCatalog)
		return e
	}

	e.mu.Lock()
	e.compileLocked(opts.Catalog)
	close(e.ready)
	e.validateLocked()
	e.unlock()
	return e
}

// unlock releases the engine lock and then delivers queued reports, so that
// callbacks may call back into the engine.
func (e *Engine) unlock() {
	out := e.outbox
	e.outbox = nil
	e.mu.Unlock()
	if e.onReport == nil {
		return
	}
	for _, r := range out {
		e.onReport(r)
	}
}

func (e *Engine) loadCatalog(load func(ctx context.Context) (*catalog.Catalog, error)) {
	ctx, cancel := context.WithTimeout(context.Background(), catalogLoadTimeout)
	defer cancel()

	cat, err := load(ctx)
	if err != nil {
		e.log.Warn("catalog load failed, using builtin list", "error", err)
		cat = catalog.Builtin()
	}

	e.mu.Lock()
	defer e.unlock()
	e.loading = false
	close(e.ready)
	if e.closed {
		return
	}
	e.compileLocked(cat)
	if e.queued != nil {
		m := *e.queued
		e.queued = nil
		e.switchLocked(m)
	}
	e.validateLocked()
}

// compileMatcher is swapped in tests.
var compileMatcher = validate.Compile

// compileLocked builds the matcher for cat. A catalog that cannot be compiled
// disables term matching until the next successful compile.
func (e *Engine) compileLocked(cat *catalog.Catalog) {
	m, err := compileMatcher(cat)
	if err != nil {
		e.log.Error("matcher compile failed, term validation disabled", "error", err)
		e.matcher = nil
		return
	}
	e.matcher = m
	e.log.Debug("matcher compiled", "source", m.Catalog().Source, "forms", len(m.Forms()))
}

// Ready is closed once the catalog has settled.
func (e *Engine) Ready() <-chan struct{} {
	return e.ready
}

// WaitReady blocks until the catalog has settled or ctx is done.
func (e *Engine) WaitReady(ctx context.Context) error {
	select {
	case <-e.ready:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("wait for catalog: %w", ctx.Err())
	}
}

// SetCatalog recompiles the matcher from cat and revalidates.
func (e *Engine) SetCatalog(cat *catalog.Catalog) error {
	e.mu.Lock()
	defer e.unlock()
	if e.closed {
		return ErrClosed
	}
	e.compileLocked(cat)
	if !e.loading {
		e.validateLocked()
	}
	return nil
}

// Close stops pending validation. Later calls that mutate return ErrClosed.
func (e *Engine) Close() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.closed = true
	e.stopTimerLocked()
}

func (e *Engine) stopTimerLocked() bool {
	if e.timer == nil {
		return false
	}
	e.timer.Stop()
	e.timer = nil
	return true
}

// touch marks the content as changed.
func (e *Engine) touch() {
	e.version++
}

// scheduleLocked restarts the debounce timer. A pass that fires after newer
// content arrived is dropped; only the latest version is validated.
func (e *Engine) scheduleLocked() {
	e.stopTimerLocked()
	v := e.version
	e.timer = time.AfterFunc(e.debounce, func() {
		e.mu.Lock()
		defer e.unlock()
		if e.closed || e.version != v {
			return
		}
		e.timer = nil
		e.validateLocked()
	})
}

// Flush runs a pending debounced validation pass now.
func (e *Engine) Flush() {
	e.mu.Lock()
	defer e.unlock()
	if e.stopTimerLocked() {
		e.validateLocked()
	}
}

// Pending reports whether a debounced validation pass is scheduled.
func (e *Engine) Pending() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.timer != nil
}

// validateLocked scans the current content, refreshes the highlight marks in
// rendered mode and queues the report for OnReport. It does nothing while
// the catalog is still loading.
func (e *Engine) validateLocked() {
	if e.loading {
		return
	}
	start := time.Now()
	var rep validate.Report
	if e.mode == ModeRaw {
		tree := e.rawTree()
		rep.Terms = e.matcher.Scan(doctree.PlainText(tree))
		rep.Patterns = validate.ScanMarkupPatterns(doctree.Render(tree))
	} else {
		pos := caret.Save(e.root, e.sel)
		highlight.Clear(e.root)
		rep.Terms = e.matcher.Scan(doctree.PlainText(e.root))
		rep.Patterns = validate.ScanMarkupPatterns(doctree.Render(e.root))
		highlight.Apply(e.root, e.matcher)
		e.sel = caret.Restore(e.root, pos)
	}
	if rep.Terms == nil {
		rep.Terms = []validate.Violation{}
	}
	if rep.Patterns == nil {
		rep.Patterns = []validate.Violation{}
	}
	rep.Summary = validate.Summarize(append(append([]validate.Violation(nil), rep.Terms...), rep.Patterns...), e.matcher)
	rep.Disabled = !e.matcher.Enabled()
	e.report = rep

	elapsed := time.Since(start)
	if e.recorder != nil {
		e.recorder.Observe(elapsed)
	}
	e.log.Debug("validated", "mode", e.mode, "terms", len(rep.Terms), "patterns", len(rep.Patterns), "elapsed", elapsed)
	e.outbox = append(e.outbox, rep)
}

// rawTree parses the raw-mode text. Raw text is trusted; a parse failure
// yields an empty document.
func (e *Engine) rawTree() *doctree.Node {
	root, err := doctree.ParsePretty(e.raw)
	if err != nil {
		e.log.Warn("raw text parse failed", "error", err)
		return doctree.NewRoot()
	}
	return root
}

// currentLocked returns the mark-free canonical markup of the live content.
func (e *Engine) currentLocked() string {
	if e.mode == ModeRaw {
		return doctree.Render(e.rawTree())
	}
	return doctree.Render(highlight.Strip(e.root))
}

// setCurrentLocked replaces the content with a snapshot, keeping the caret
// where its offsets still fit.
func (e *Engine) setCurrentLocked(markup string) {
	root, err := doctree.Parse(markup)
	if err != nil {
		e.log.Warn("snapshot parse failed", "error", err)
		root = doctree.NewRoot()
	}
	if e.mode == ModeRaw {
		e.raw = doctree.Pretty(root)
		return
	}
	pos := caret.Save(e.root, e.sel)
	e.root = root
	e.sel = caret.Restore(e.root, pos)
}

// Load replaces the document and forgets the history.
func (e *Engine) Load(markup string) error {
	e.mu.Lock()
	defer e.unlock()
	if e.closed {
		return ErrClosed
	}
	e.stopTimerLocked()
	e.root = sanitize.Tree(markup)
	if e.mode == ModeRaw {
		e.raw = doctree.Pretty(e.root)
	}
	e.sel = nil
	e.ledger.Reset()
	e.nav = map[string]int{}
	e.touch()
	e.validateLocked()
	return nil
}

// Undo restores the previous snapshot. It reports false when there is
// nothing to undo.
func (e *Engine) Undo() bool {
	return e.step(e.ledger.Undo)
}

// Redo re-applies the snapshot most recently undone.
func (e *Engine) Redo() bool {
	return e.step(e.ledger.Redo)
}

func (e *Engine) step(move func(string) (string, bool)) bool {
	e.mu.Lock()
	defer e.unlock()
	if e.closed {
		return false
	}
	next, ok := move(e.currentLocked())
	if !ok {
		return false
	}
	e.stopTimerLocked()
	e.setCurrentLocked(next)
	e.touch()
	e.validateLocked()
	return true
}

// Reset clears both history stacks. The document is kept.
func (e *Engine) Reset() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.ledger.Reset()
	e.nav = map[string]int{}
}

// CanUndo reports whether Undo would change anything.
func (e *Engine) CanUndo() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.ledger.CanUndoFrom(e.currentLocked())
}

// CanRedo reports whether Redo would change anything.
func (e *Engine) CanRedo() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.ledger.CanRedoFrom(e.currentLocked())
}

// Report returns the outcome of the latest validation pass.
func (e *Engine) Report() validate.Report {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.report
}

// Markup returns the live view: rendered markup with highlight marks, or the
// raw text in raw mode.
func (e *Engine) Markup() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.mode == ModeRaw {
		return e.raw
	}
	return doctree.Render(e.root)
}

// Content returns the canonical markup for storage: marks stripped, empty
// paragraphs removed.
func (e *Engine) Content() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return sanitize.Sanitize(e.currentLocked())
}

// SetSelection moves the caret. A nil position clears it.
func (e *Engine) SetSelection(pos *caret.Position) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.mode != ModeRendered {
		return ErrWrongMode
	}
	e.sel = caret.Restore(e.root, pos)
	return nil
}

// Selection returns the caret as projection offsets, or nil.
func (e *Engine) Selection() *caret.Position {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.mode != ModeRendered {
		return nil
	}
	return caret.Save(e.root, e.sel)
}

// State is a consistent snapshot of everything a host renders.
type State struct {
	Mode      Mode            `json:"mode"`
	Markup    string          `json:"markup"`
	Content   string          `json:"content"`
	Selection *caret.Position `json:"selection,omitempty"`
	Report    validate.Report `json:"report"`
	Stats     Stats           `json:"stats"`
	CanUndo   bool            `json:"can_undo"`
	CanRedo   bool            `json:"can_redo"`
	Loading   bool            `json:"catalog_loading"`
	Pending   bool            `json:"validation_pending"`
}

// State returns a snapshot of the engine.
func (e *Engine) State() State {
	e.mu.Lock()
	defer e.mu.Unlock()
	cur := e.currentLocked()
	s := State{
		Mode:    e.mode,
		Content: sanitize.Sanitize(cur),
		Report:  e.report,
		Stats:   e.statsLocked(),
		CanUndo: e.ledger.CanUndoFrom(cur),
		CanRedo: e.ledger.CanRedoFrom(cur),
		Loading: e.loading,
		Pending: e.timer != nil,
	}
	if e.mode == ModeRaw {
		s.Markup = e.raw
	} else {
		s.Markup = doctree.Render(e.root)
		s.Selection = caret.Save(e.root, e.sel)
	}
	return s
}

// checkLocked guards mutating operations.
func (e *Engine) checkLocked(want Mode) error {
	if e.closed {
		return ErrClosed
	}
	if e.mode != want {
		return fmt.Errorf("%w: editor is in %s mode", ErrWrongMode, e.mode)
	}
	return nil
}
