// Package history keeps the ordered operation list and its undo cursor.
package history

import "github.com/example/markshot/internal/ops"

// List is an append-biased operation history. Operations below the cursor
// are active; operations at or above it are retained for redo until the next
// commit discards them.
type List struct {
	items   []ops.Operation
	k       int
	floor   int
	version uint64
}

// Option configures a List.
type Option func(*List)

// WithCapacity preallocates room for n operations.
func WithCapacity(n int) Option {
	return func(l *List) { l.items = make([]ops.Operation, 0, n) }
}

// WithPinned seeds the list with op and stops undo from removing it. Region
// captures use this for their initial crop.
func WithPinned(op ops.Operation) Option {
	return func(l *List) {
		l.items = append(l.items, op)
		l.k = len(l.items)
		l.floor = l.k
	}
}

// New returns an empty list.
func New(opts ...Option) *List {
	l := &List{}
	for _, o := range opts {
		o(l)
	}
	return l
}

// Commit discards the redo tail, appends op and makes it active. It returns
// the index op was stored at.
func (l *List) Commit(op ops.Operation) int {
	if l.k < len(l.items) {
		for i := l.k; i < len(l.items); i++ {
			l.items[i] = nil
		}
		l.items = l.items[:l.k]
	}
	l.items = append(l.items, op)
	l.k = len(l.items)
	l.version++
	return l.k - 1
}

// Undo retires the newest active operation. It returns false when there is
// nothing to undo.
func (l *List) Undo() bool {
	if l.k <= l.floor {
		return false
	}
	l.k--
	return true
}

// Redo reactivates the oldest retired operation. It returns false when there
// is nothing to redo.
func (l *List) Redo() bool {
	if l.k >= len(l.items) {
		return false
	}
	l.k++
	return true
}

// CanUndo reports whether Undo would change the cursor.
func (l *List) CanUndo() bool { return l.k > l.floor }

// CanRedo reports whether Redo would change the cursor.
func (l *List) CanRedo() bool { return l.k < len(l.items) }

// Active returns the active prefix in insertion order.
func (l *List) Active() []ops.Operation {
	out := make([]ops.Operation, l.k)
	copy(out, l.items[:l.k])
	return out
}

// Len returns the number of stored operations, active or not.
func (l *List) Len() int { return len(l.items) }

// Cursor returns the active length k.
func (l *List) Cursor() int { return l.k }

// At returns the operation stored at index i.
func (l *List) At(i int) ops.Operation { return l.items[i] }

// IsActive reports whether index i is inside the active prefix.
func (l *List) IsActive(i int) bool { return i >= 0 && i < l.k }

// Version changes whenever the stored operations change. Moving the cursor
// alone leaves it untouched.
func (l *List) Version() uint64 { return l.version }

// All returns every stored operation, active first, then the redo tail.
func (l *List) All() []ops.Operation {
	out := make([]ops.Operation, len(l.items))
	copy(out, l.items)
	return out
}

// Restore replaces the contents with items and sets the cursor to k, clamped
// to the valid range. It is used when reopening a persisted session.
func (l *List) Restore(items []ops.Operation, k int) {
	l.items = append(l.items[:0:0], items...)
	if k < l.floor {
		k = l.floor
	}
	if k > len(l.items) {
		k = len(l.items)
	}
	if l.floor > len(l.items) {
		l.floor = 0
	}
	l.k = k
	l.version++
}
