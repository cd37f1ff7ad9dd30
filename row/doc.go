// Package row defines how a record type describes itself as a table row.
//
// A record type implements Row: Schema lists the typed columns and Fields
// returns one Value per column, in the same order. Schema is called on the
// zero value of the type, so it must not depend on the receiver.
//
// Record types that only hold plain Go fields can use Struct instead of
// writing Schema and Fields by hand; the columns are then derived from the
// JSON names of the exported fields.
package row
