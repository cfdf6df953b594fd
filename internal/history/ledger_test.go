package history

import (
	"fmt"
	"testing"
)

func TestLedger_EmptyStacksNoMutation(t *testing.T) {
	l := New(0)
	if _, ok := l.Undo("cur"); ok {
		t.Fatalf("expected Undo=false")
	}
	if _, ok := l.Redo("cur"); ok {
		t.Fatalf("expected Redo=false")
	}
	if u, r := l.Depth(); u != 0 || r != 0 {
		t.Fatalf("depth=%d/%d, want 0/0", u, r)
	}
}

func TestLedger_CommitDedup(t *testing.T) {
	l := New(0)
	if !l.Commit("a") {
		t.Fatalf("expected first commit to record")
	}
	if l.Commit("a") {
		t.Fatalf("expected duplicate commit to be a no-op")
	}
	l.Commit("b")
	if u, _ := l.Depth(); u != 2 {
		t.Fatalf("undo depth=%d, want 2", u)
	}
}

func TestLedger_CommitClearsRedo(t *testing.T) {
	l := New(0)
	l.Commit("a")
	l.Undo("b")
	if !l.CanRedo() {
		t.Fatalf("expected CanRedo=true")
	}
	l.Commit("c")
	if l.CanRedo() {
		t.Fatalf("expected redo cleared by commit")
	}
}

// Five formatting commits followed by five undos must land on the content
// from before the first edit.
func TestLedger_UndoRestoresPreEditSnapshot(t *testing.T) {
	l := New(0)
	content := "<p>base</p>"
	original := content
	for i := 1; i <= 5; i++ {
		l.Commit(content)
		content = fmt.Sprintf("<p><strong>base</strong>%d</p>", i)
	}
	for i := 0; i < 5; i++ {
		prev, ok := l.Undo(content)
		if !ok {
			t.Fatalf("undo %d: expected Undo=true", i)
		}
		content = prev
	}
	if content != original {
		t.Fatalf("content=%q, want %q", content, original)
	}
	if l.CanUndo() {
		t.Fatalf("expected undo stack exhausted")
	}
}

func TestLedger_UndoRedoInverse(t *testing.T) {
	l := New(0)
	l.Commit("s0")
	l.Commit("s1")
	current := "s2"

	undone, _ := l.Undo(current)
	redone, ok := l.Redo(undone)
	if !ok {
		t.Fatalf("expected Redo=true")
	}
	if redone != current {
		t.Fatalf("redo=%q, want %q", redone, current)
	}
	again, _ := l.Undo(redone)
	if again != undone {
		t.Fatalf("undo after redo=%q, want %q", again, undone)
	}
}

func TestLedger_CommitAfterUndoRecords(t *testing.T) {
	l := New(0)
	l.Commit("s0")
	l.Commit("s1")
	cur, _ := l.Undo("s2")
	if cur != "s1" {
		t.Fatalf("undo=%q, want s1", cur)
	}
	// Editing from s1 must make s1 reachable again.
	l.Commit(cur)
	back, _ := l.Undo("s1-edited")
	if back != "s1" {
		t.Fatalf("undo=%q, want s1", back)
	}
}

func TestLedger_LimitDropsOldest(t *testing.T) {
	l := New(3)
	for i := 0; i < 5; i++ {
		l.Commit(fmt.Sprint(i))
	}
	if u, _ := l.Depth(); u != 3 {
		t.Fatalf("undo depth=%d, want 3", u)
	}
	cur := "5"
	var seen []string
	for l.CanUndo() {
		cur, _ = l.Undo(cur)
		seen = append(seen, cur)
	}
	if got, want := fmt.Sprint(seen), "[4 3 2]"; got != want {
		t.Fatalf("undo order=%s, want %s", got, want)
	}
}

func TestLedger_ResetAndBaseline(t *testing.T) {
	l := New(0)
	l.Commit("a")
	l.Reset()
	if l.CanUndo() || l.CanRedo() {
		t.Fatalf("expected empty stacks after Reset")
	}
	if !l.Commit("a") {
		t.Fatalf("expected commit after Reset to record")
	}

	l.Reset()
	l.SetBaseline("raw")
	if l.Commit("raw") {
		t.Fatalf("expected commit of baseline to be a no-op")
	}
	if !l.Commit("edited") {
		t.Fatalf("expected commit of new content to record")
	}
}

func TestLedger_UndoSkipsSnapshotsEqualToCurrent(t *testing.T) {
	l := New(0)
	l.Commit("plain")
	l.Commit("bold")
	if !l.CanUndoFrom("bold") {
		t.Fatalf("expected a differing snapshot to be undoable")
	}
	got, ok := l.Undo("bold")
	if !ok || got != "plain" {
		t.Fatalf("undo=%q,%v, want plain,true", got, ok)
	}
	if _, ok := l.Undo("plain"); ok {
		t.Fatalf("expected nothing left to undo")
	}

	l = New(0)
	l.Commit("same")
	if l.CanUndoFrom("same") {
		t.Fatalf("expected a snapshot equal to current not to count")
	}
	if _, ok := l.Undo("same"); ok {
		t.Fatalf("expected Undo=false when only equal snapshots remain")
	}
	if u, r := l.Depth(); u != 0 || r != 0 {
		t.Fatalf("depth=%d/%d, want 0/0", u, r)
	}
}

func TestLedger_RedoSkipsSnapshotsEqualToCurrent(t *testing.T) {
	l := New(0)
	l.Commit("a")
	l.Undo("b")
	next, ok := l.Redo("a")
	if !ok || next != "b" {
		t.Fatalf("redo=%q,%v, want b,true", next, ok)
	}
	l = New(0)
	l.Commit("a")
	l.Undo("a2")
	if _, ok := l.Redo("a2"); ok {
		t.Fatalf("expected Redo=false when the redo entry equals current")
	}
}
