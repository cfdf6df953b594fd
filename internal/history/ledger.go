// Package history keeps the undo and redo stacks of canonical markup
// snapshots for one editor.
package history

// DefaultLimit bounds each stack when no limit is configured.
const DefaultLimit = 50

// Ledger holds two bounded stacks of snapshots. It is not safe for concurrent
// use; the owning engine serializes access.
type Ledger struct {
	limit   int
	undo    []string
	redo    []string
	last    string
	hasLast bool
}

// New returns a ledger whose stacks hold at most limit entries. A
// non-positive limit selects DefaultLimit.
func New(limit int) *Ledger {
	if limit <= 0 {
		limit = DefaultLimit
	}
	return &Ledger{limit: limit}
}

// Commit records markup as a restore point. It is a no-op when markup equals
// the last committed value or the newest undo entry, so callers may call it
// before every mutation. A recorded commit clears the redo stack.
func (l *Ledger) Commit(markup string) bool {
	if l.hasLast && markup == l.last {
		return false
	}
	if n := len(l.undo); n > 0 && l.undo[n-1] == markup {
		l.last, l.hasLast = markup, true
		return false
	}
	l.undo = push(l.undo, markup, l.limit)
	l.redo = nil
	l.last, l.hasLast = markup, true
	return true
}

// Undo pops the newest snapshot that differs from current and returns it as
// the new content; snapshots equal to current are discarded on the way.
// current is saved on the redo stack. It returns false when no differing
// snapshot is left.
func (l *Ledger) Undo(current string) (string, bool) {
	prev, ok := popDistinct(&l.undo, current)
	if !ok {
		return "", false
	}
	l.redo = push(l.redo, current, l.limit)
	l.hasLast = false
	return prev, true
}

// Redo is the mirror of Undo.
func (l *Ledger) Redo(current string) (string, bool) {
	next, ok := popDistinct(&l.redo, current)
	if !ok {
		return "", false
	}
	l.undo = push(l.undo, current, l.limit)
	l.hasLast = false
	return next, true
}

// Reset clears both stacks and the remembered last commit.
func (l *Ledger) Reset() {
	l.undo, l.redo = nil, nil
	l.last, l.hasLast = "", false
}

// SetBaseline remembers markup as the last committed value without pushing
// it, so that committing the same content later is a no-op.
func (l *Ledger) SetBaseline(markup string) {
	l.last, l.hasLast = markup, true
}

func (l *Ledger) CanUndo() bool { return len(l.undo) > 0 }

func (l *Ledger) CanRedo() bool { return len(l.redo) > 0 }

// CanUndoFrom reports whether Undo(current) would change the content.
func (l *Ledger) CanUndoFrom(current string) bool { return hasDistinct(l.undo, current) }

// CanRedoFrom reports whether Redo(current) would change the content.
func (l *Ledger) CanRedoFrom(current string) bool { return hasDistinct(l.redo, current) }

// Depth returns the sizes of the undo and redo stacks.
func (l *Ledger) Depth() (undo, redo int) {
	return len(l.undo), len(l.redo)
}

func push(stack []string, v string, limit int) []string {
	stack = append(stack, v)
	if len(stack) > limit {
		stack = append([]string(nil), stack[len(stack)-limit:]...)
	}
	return stack
}

// popDistinct drops entries equal to current from the top of the stack and
// pops the first one that differs.
func popDistinct(stack *[]string, current string) (string, bool) {
	s := *stack
	for len(s) > 0 && s[len(s)-1] == current {
		s = s[:len(s)-1]
	}
	if len(s) == 0 {
		*stack = s
		return "", false
	}
	v := s[len(s)-1]
	*stack = s[:len(s)-1]
	return v, true
}

func hasDistinct(stack []string, current string) bool {
	for _, v := range stack {
		if v != current {
			return true
		}
	}
	return false
}
