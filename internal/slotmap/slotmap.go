// Package slotmap implements a generation-tagged arena with O(1) insert,
// lookup and removal.
//
// A Key stays valid until the value it designates is removed. Removing a
// value bumps the generation of its slot, so a key that outlived its value
// never resolves to the value later stored in the same slot.
//
// Map is not safe for concurrent use.
package slotmap

import (
	"fmt"
	"iter"
	"math"
)

// Key designates a value stored in a Map.
//
// The zero Key never resolves.
type Key struct {
	index      uint32
	generation uint32
}

// Index returns the slot index of the key.
func (k Key) Index() uint32 {
	return k.index
}

// Generation returns the slot generation the key was issued for.
func (k Key) Generation() uint32 {
	return k.generation
}

// IsZero reports whether k is the zero Key.
func (k Key) IsZero() bool {
	return k.generation == 0
}

// String returns "<index>v<generation>".
func (k Key) String() string {
	return fmt.Sprintf("%dv%d", k.index, k.generation)
}

type slot[V any] struct {
	value      V
	generation uint32
	occupied   bool
}

// Map is a generational arena. The zero value is an empty map ready to use.
type Map[V any] struct {
	slots []slot[V]
	free  []uint32 // Stack of vacant slot indexes.
	len   int
}

// Insert stores v and returns its key. A vacant slot is reused when there is
// one.
func (m *Map[V]) Insert(v V) Key {
	var idx uint32
	if n := len(m.free); n > 0 {
		idx = m.free[n-1]
		m.free = m.free[:n-1]
	} else {
		if len(m.slots) == math.MaxUint32 {
			panic("slotmap: too many slots")
		}
		idx = uint32(len(m.slots))
		m.slots = append(m.slots, slot[V]{generation: 1})
	}
	s := &m.slots[idx]
	s.value = v
	s.occupied = true
	m.len++
	return Key{index: idx, generation: s.generation}
}

// Ptr returns a pointer to the value designated by k, or nil when k is stale.
//
// The pointer is invalidated by the next Insert.
func (m *Map[V]) Ptr(k Key) *V {
	if int(k.index) >= len(m.slots) {
		return nil
	}
	s := &m.slots[k.index]
	if !s.occupied || s.generation != k.generation {
		return nil
	}
	return &s.value
}

// Get returns the value designated by k.
func (m *Map[V]) Get(k Key) (V, bool) {
	if p := m.Ptr(k); p != nil {
		return *p, true
	}
	var zero V
	return zero, false
}

// Contains reports whether k designates a stored value.
func (m *Map[V]) Contains(k Key) bool {
	return m.Ptr(k) != nil
}

// Remove deletes the value designated by k and returns it.
//
// Removing a stale key is a no-op returning false.
func (m *Map[V]) Remove(k Key) (V, bool) {
	var zero V
	if m.Ptr(k) == nil {
		return zero, false
	}
	s := &m.slots[k.index]
	v := s.value
	s.value = zero
	s.occupied = false
	m.len--
	if s.generation == math.MaxUint32 {
		// Retire the slot: reusing it would wrap the generation and revive
		// keys issued long ago.
		return v, true
	}
	s.generation++
	m.free = append(m.free, k.index)
	return v, true
}

// Len returns the number of stored values.
func (m *Map[V]) Len() int {
	return m.len
}

// All returns an iterator over the stored values in slot order.
//
// The map must not be modified while iterating.
func (m *Map[V]) All() iter.Seq2[Key, V] {
	return func(yield func(Key, V) bool) {
		for i := range m.slots {
			s := &m.slots[i]
			if !s.occupied {
				continue
			}
			if !yield(Key{index: uint32(i), generation: s.generation}, s.value) {
				return
			}
		}
	}
}

// Clear removes every value. Keys issued before Clear are stale afterward.
func (m *Map[V]) Clear() {
	for i := range m.slots {
		if m.slots[i].occupied {
			m.Remove(Key{index: uint32(i), generation: m.slots[i].generation})
		}
	}
}
