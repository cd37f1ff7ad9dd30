// Package query defines the boundary between a table and the engine that
// runs queries over its snapshots, and provides a small pipeline engine.
//
// An Engine parses query text into a Plan; a Plan transforms an Arrow record
// into a new record. Errors from either step are *Error values whose Phase
// tells them apart.
//
// The pipeline engine reads one statement per line (or separated by ';'):
//
//	filter state == running
//	sort -cpu name
//	select name cpu
//	limit 10
//
// Statements are select, sort, reverse, limit, rename, filter and match. See
// NewPipeline for the details.
package query
