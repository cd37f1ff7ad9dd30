// Package tableview implements the plain-text table format.
//
// A table is a title line followed by zero or more data lines. Every column
// is as wide as its longest title or cell and is followed by one separator
// space; every line ends with a newline:
//
//	id  usage 
//	cpu    80 
//	mem    20 
//
// Titles are always left aligned. A Writer aligns each data column left or
// right. Parse reads the format back, deriving column widths from the title
// line alone, so cells must not start or end with spaces to round trip.
package tableview
