// Provides scope-bound rows.

package table

import (
	"runtime"
	"sync/atomic"

	"github.com/maruel/livetable/row"
)

// Guard keeps a row in its table until Close is called.
//
// A Guard that becomes unreachable without being closed is eventually
// released by the garbage collector and the leak is logged; do not rely on
// it.
type Guard[R row.Row] struct {
	t        *Table[R]
	key      Key
	released atomic.Bool
	cleanup  runtime.Cleanup
}

// OwnedGuard is a Guard holding its own handle to the table, so it can be
// handed over to code that has no access to the original handle.
type OwnedGuard[R row.Row] struct {
	Guard[R]
}

// SetScope inserts r and returns the guard controlling its lifetime.
func (t *Table[R]) SetScope(r R) *Guard[R] {
	g := &Guard[R]{t: t, key: t.Insert(r)}
	g.cleanup = runtime.AddCleanup(g, releaseLeaked[R], leak[R]{s: t.s, key: g.key})
	return g
}

// SetScopeOwned inserts r and returns a guard holding a clone of t.
func (t *Table[R]) SetScopeOwned(r R) *OwnedGuard[R] {
	g := &OwnedGuard[R]{Guard: Guard[R]{t: t.Clone(), key: t.Insert(r)}}
	g.cleanup = runtime.AddCleanup(g, releaseLeaked[R], leak[R]{s: t.s, key: g.key})
	return g
}

// WithScope inserts r, calls fn and removes the row when fn returns or
// panics.
func (t *Table[R]) WithScope(r R, fn func(g *Guard[R]) error) (err error) {
	g := t.SetScope(r)
	defer func() {
		if cerr := g.Close(); err == nil {
			err = cerr
		}
	}()
	return fn(g)
}

// Key returns the key of the guarded row.
func (g *Guard[R]) Key() Key {
	return g.key
}

// Table returns the table handle the guard holds.
func (g *Guard[R]) Table() *Table[R] {
	return g.t
}

// Modify calls fn on the guarded row, see Table.Modify. It returns false once
// the guard is closed.
func (g *Guard[R]) Modify(fn func(r *R)) bool {
	if g.released.Load() {
		return false
	}
	return g.t.Modify(g.key, fn)
}

// Get returns a copy of the guarded row.
func (g *Guard[R]) Get() (R, bool) {
	if g.released.Load() {
		var zero R
		return zero, false
	}
	return g.t.Get(g.key)
}

// Released reports whether Close was called.
func (g *Guard[R]) Released() bool {
	return g.released.Load()
}

// Close removes the guarded row. Only the first call has an effect; it
// returns ErrPoisoned if the table is poisoned.
func (g *Guard[R]) Close() error {
	if !g.released.CompareAndSwap(false, true) {
		return nil
	}
	g.cleanup.Stop()
	_, _, err := g.t.s.remove(g.key)
	return err
}

type leak[R row.Row] struct {
	s   *store[R]
	key Key
}

func releaseLeaked[R row.Row](l leak[R]) {
	_, ok, err := l.s.remove(l.key)
	if ok || err != nil {
		l.s.log.Warn("Row guard leaked", "table", l.s.id, "key", l.key, "err", err)
	}
}
