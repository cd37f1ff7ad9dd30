package table

import (
	"iter"
	"log/slog"
	"sync"

	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/maruel/ksid"
	"github.com/maruel/livetable/internal/slotmap"
	"github.com/maruel/livetable/query"
	"github.com/maruel/livetable/row"
)

// Key identifies a row. A key whose row was removed never resolves again,
// even when its storage slot is reused.
type Key = slotmap.Key

// store is the state shared by every clone of a Table.
type store[R row.Row] struct {
	mu       sync.RWMutex
	rows     slotmap.Map[R]
	poisoned bool

	id     ksid.ID
	engine query.Engine
	mem    memory.Allocator
	log    *slog.Logger
}

// Table is a handle to a goroutine-safe set of rows of type R.
type Table[R row.Row] struct {
	s *store[R]
}

// New returns an empty table that shares nothing with other tables.
func New[R row.Row](opts ...Option) *Table[R] {
	var o options
	for _, opt := range opts {
		opt(&o)
	}
	if o.mem == nil {
		o.mem = memory.DefaultAllocator
	}
	if o.engine == nil {
		o.engine = query.NewPipeline(o.mem)
	}
	if o.logger == nil {
		o.logger = slog.Default()
	}
	return &Table[R]{s: &store[R]{id: ksid.NewID(), engine: o.engine, mem: o.mem, log: o.logger}}
}

// Clone returns a new handle to the same rows.
func (t *Table[R]) Clone() *Table[R] {
	return &Table[R]{s: t.s}
}

// ID identifies the rows shared by t and its clones.
func (t *Table[R]) ID() ksid.ID {
	return t.s.id
}

// Insert adds r and returns its key.
func (t *Table[R]) Insert(r R) Key {
	s := t.s
	s.mu.Lock()
	defer s.mu.Unlock()
	s.mustNotBePoisoned()
	return s.rows.Insert(r)
}

// Get returns a copy of the row designated by k.
func (t *Table[R]) Get(k Key) (R, bool) {
	s := t.s
	s.mu.RLock()
	defer s.mu.RUnlock()
	s.mustNotBePoisoned()
	return s.rows.Get(k)
}

// Len returns the number of rows.
func (t *Table[R]) Len() int {
	s := t.s
	s.mu.RLock()
	defer s.mu.RUnlock()
	s.mustNotBePoisoned()
	return s.rows.Len()
}

// All returns an iterator over the rows, in no particular order.
//
// The read lock is held during the iteration: the loop body must not modify
// the table.
func (t *Table[R]) All() iter.Seq2[Key, R] {
	return func(yield func(Key, R) bool) {
		s := t.s
		s.mu.RLock()
		defer s.mu.RUnlock()
		s.mustNotBePoisoned()
		for k, r := range s.rows.All() {
			if !yield(k, r) {
				return
			}
		}
	}
}

// Remove deletes the row designated by k and returns it. Removing a missing
// row returns false.
func (t *Table[R]) Remove(k Key) (R, bool) {
	r, ok, err := t.s.remove(k)
	if err != nil {
		panic(err)
	}
	return r, ok
}

// Modify calls fn on the row designated by k under the write lock. It
// returns false without calling fn if there is no such row.
//
// fn must not use the table. If fn panics, the table is poisoned.
func (t *Table[R]) Modify(k Key, fn func(r *R)) bool {
	s := t.s
	s.mu.Lock()
	defer s.mu.Unlock()
	s.mustNotBePoisoned()
	p := s.rows.Ptr(k)
	if p == nil {
		return false
	}
	done := false
	defer func() {
		if !done {
			s.poisoned = true
			s.log.Warn("Table poisoned", "table", s.id, "key", k)
		}
	}()
	fn(p)
	done = true
	return true
}

func (s *store[R]) remove(k Key) (R, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.poisoned {
		var zero R
		return zero, false, ErrPoisoned
	}
	r, ok := s.rows.Remove(k)
	return r, ok, nil
}

// mustNotBePoisoned must be called with the lock held.
func (s *store[R]) mustNotBePoisoned() {
	if s.poisoned {
		panic(ErrPoisoned)
	}
}
