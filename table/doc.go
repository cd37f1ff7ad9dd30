// Package table provides a goroutine-safe registry mirroring live state as
// table rows.
//
// A Table stores values of a record type implementing row.Row. Rows are
// usually tied to the lifetime of a guard: SetScope inserts a row and returns
// a Guard whose Close removes it, exactly once.
//
//	g := t.SetScope(job)
//	defer g.Close()
//	g.Modify(func(j *Job) { j.Progress = 50 })
//
// ToView snapshots the rows into an Arrow record, runs a query over it
// outside of the table lock and returns an aligned text rendering.
//
// A Table handle is cheap to copy with Clone; clones share the same rows.
// New always creates an independent table.
//
// # Poisoning
//
// When the function passed to Modify panics, the row may be left half
// updated. The table is then poisoned: methods returning an error return
// ErrPoisoned and the others panic with it.
package table
