package slotmap

import (
	"math"
	"testing"
)

func TestMap(t *testing.T) {
	t.Run("insert and get", func(t *testing.T) {
		var m Map[string]
		a := m.Insert("a")
		b := m.Insert("b")
		if a == b {
			t.Fatalf("Insert() returned the same key twice: %v", a)
		}
		if got, ok := m.Get(a); !ok || got != "a" {
			t.Errorf("Get(%v) = %q, %v, want \"a\", true", a, got, ok)
		}
		if got, ok := m.Get(b); !ok || got != "b" {
			t.Errorf("Get(%v) = %q, %v, want \"b\", true", b, got, ok)
		}
		if m.Len() != 2 {
			t.Errorf("Len() = %d, want 2", m.Len())
		}
	})

	t.Run("zero key never resolves", func(t *testing.T) {
		var m Map[int]
		m.Insert(1)
		if _, ok := m.Get(Key{}); ok {
			t.Error("Get(Key{}) resolved")
		}
		if !(Key{}).IsZero() {
			t.Error("IsZero() = false for zero key")
		}
	})

	t.Run("remove is idempotent", func(t *testing.T) {
		var m Map[int]
		k := m.Insert(42)
		if v, ok := m.Remove(k); !ok || v != 42 {
			t.Fatalf("Remove() = %d, %v, want 42, true", v, ok)
		}
		if _, ok := m.Remove(k); ok {
			t.Error("second Remove() = true, want false")
		}
		if m.Len() != 0 {
			t.Errorf("Len() = %d, want 0", m.Len())
		}
	})

	t.Run("stale key after slot reuse", func(t *testing.T) {
		var m Map[string]
		old := m.Insert("old")
		m.Remove(old)
		reused := m.Insert("new")
		if reused.Index() != old.Index() {
			t.Fatalf("slot not reused: old %v, new %v", old, reused)
		}
		if reused.Generation() == old.Generation() {
			t.Fatalf("generation not bumped: %v", reused)
		}
		if _, ok := m.Get(old); ok {
			t.Error("stale key resolved to the new value")
		}
		if _, ok := m.Remove(old); ok {
			t.Error("Remove(stale) = true")
		}
		if got, ok := m.Get(reused); !ok || got != "new" {
			t.Errorf("Get(%v) = %q, %v, want \"new\", true", reused, got, ok)
		}
	})

	t.Run("ptr mutates in place", func(t *testing.T) {
		var m Map[int]
		k := m.Insert(1)
		*m.Ptr(k) += 10
		if got, _ := m.Get(k); got != 11 {
			t.Errorf("Get() = %d, want 11", got)
		}
		m.Remove(k)
		if m.Ptr(k) != nil {
			t.Error("Ptr(removed) != nil")
		}
	})

	t.Run("all visits every live value", func(t *testing.T) {
		var m Map[int]
		keys := make([]Key, 10)
		for i := range keys {
			keys[i] = m.Insert(i)
		}
		for i := 0; i < 10; i += 2 {
			m.Remove(keys[i])
		}
		sum := 0
		n := 0
		for k, v := range m.All() {
			if got, _ := m.Get(k); got != v {
				t.Errorf("All() yielded %v=%d, Get() = %d", k, v, got)
			}
			sum += v
			n++
		}
		if n != 5 || sum != 1+3+5+7+9 {
			t.Errorf("All() yielded %d values summing to %d", n, sum)
		}
		// Restartable.
		n = 0
		for range m.All() {
			n++
		}
		if n != 5 {
			t.Errorf("second All() yielded %d values, want 5", n)
		}
	})

	t.Run("early break", func(t *testing.T) {
		var m Map[int]
		for i := range 5 {
			m.Insert(i)
		}
		n := 0
		for range m.All() {
			n++
			break
		}
		if n != 1 {
			t.Errorf("iterated %d times, want 1", n)
		}
	})

	t.Run("clear", func(t *testing.T) {
		var m Map[int]
		a := m.Insert(1)
		m.Insert(2)
		m.Clear()
		if m.Len() != 0 {
			t.Errorf("Len() = %d, want 0", m.Len())
		}
		if _, ok := m.Get(a); ok {
			t.Error("key survived Clear()")
		}
	})

	t.Run("exhausted slot is retired", func(t *testing.T) {
		var m Map[int]
		k := m.Insert(1)
		m.slots[k.index].generation = math.MaxUint32
		k.generation = math.MaxUint32
		if _, ok := m.Remove(k); !ok {
			t.Fatal("Remove() = false")
		}
		next := m.Insert(2)
		if next.Index() == k.Index() {
			t.Errorf("retired slot %d was reused", k.Index())
		}
	})
}
