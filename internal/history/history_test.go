package history

import (
	"testing"

	"github.com/example/markshot/internal/geom"
	"github.com/example/markshot/internal/ops"
)

func line(x float64) ops.Operation {
	return ops.NewLine(geom.Pt(x, 0), geom.Pt(x, 10), geom.DefaultStyle())
}

func TestCommitAfterUndoTruncates(t *testing.T) {
	l := New()
	a, b, c := line(1), line(2), line(3)
	l.Commit(a)
	l.Commit(b)
	if !l.Undo() {
		t.Fatalf("undo should succeed")
	}
	l.Commit(c)

	if l.Len() != 2 || l.Cursor() != 2 {
		t.Fatalf("len=%d cursor=%d, want 2 and 2", l.Len(), l.Cursor())
	}
	active := l.Active()
	if active[0] != a || active[1] != c {
		t.Fatalf("active = %v, want [A C]", active)
	}
	if l.Redo() {
		t.Fatalf("redo must be impossible after a commit")
	}
}

func TestUndoRedoBounds(t *testing.T) {
	l := New()
	if l.Undo() {
		t.Fatalf("undo on empty list")
	}
	if l.Redo() {
		t.Fatalf("redo on empty list")
	}
	l.Commit(line(1))
	if !l.Undo() || l.Undo() {
		t.Fatalf("expected exactly one undo")
	}
	if !l.Redo() || l.Redo() {
		t.Fatalf("expected exactly one redo")
	}
	if l.Cursor() != 1 {
		t.Fatalf("cursor = %d", l.Cursor())
	}
}

func TestCursorMovesKeepVersion(t *testing.T) {
	l := New()
	l.Commit(line(1))
	l.Commit(line(2))
	v := l.Version()
	l.Undo()
	l.Redo()
	if l.Version() != v {
		t.Fatalf("cursor move changed version %d -> %d", v, l.Version())
	}
	l.Undo()
	l.Commit(line(3))
	if l.Version() == v {
		t.Fatalf("commit did not bump version")
	}
}

func TestIsActive(t *testing.T) {
	l := New()
	l.Commit(line(1))
	l.Commit(line(2))
	l.Undo()
	if !l.IsActive(0) || l.IsActive(1) || l.IsActive(-1) {
		t.Fatalf("IsActive mismatch with cursor %d", l.Cursor())
	}
	if l.At(1) == nil {
		t.Fatalf("retired op should stay stored until the next commit")
	}
}

func TestPinnedFloor(t *testing.T) {
	crop := ops.NewCrop(geom.RectXYWH(0, 0, 10, 10))
	l := New(WithPinned(crop))
	if l.Undo() {
		t.Fatalf("pinned op must not be undone")
	}
	l.Commit(line(1))
	if !l.Undo() || l.Undo() {
		t.Fatalf("undo should stop at the pinned op")
	}
	if got := l.Active(); len(got) != 1 || got[0] != ops.Operation(crop) {
		t.Fatalf("active = %v", got)
	}
}

func TestActiveIsACopy(t *testing.T) {
	l := New()
	l.Commit(line(1))
	got := l.Active()
	got[0] = line(9)
	if l.At(0) != line(1) {
		t.Fatalf("Active exposed internal storage")
	}
}

func TestRestoreClampsCursor(t *testing.T) {
	l := New()
	l.Restore([]ops.Operation{line(1), line(2)}, 7)
	if l.Cursor() != 2 {
		t.Fatalf("cursor = %d, want 2", l.Cursor())
	}
	l.Restore([]ops.Operation{line(1)}, -3)
	if l.Cursor() != 0 || l.Len() != 1 {
		t.Fatalf("cursor=%d len=%d", l.Cursor(), l.Len())
	}
}
