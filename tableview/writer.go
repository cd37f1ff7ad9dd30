// Provides the aligned text encoder.

package tableview

import (
	"bytes"
	"io"
	"slices"
	"strings"
	"unicode/utf8"
)

// Alignment is the horizontal alignment of a data column.
type Alignment uint8

const (
	// AlignLeft pads cells with trailing spaces.
	AlignLeft Alignment = iota
	// AlignRight pads cells with leading spaces.
	AlignRight
)

func (a Alignment) String() string {
	if a == AlignRight {
		return "right"
	}
	return "left"
}

// Writer renders a View with one alignment per column.
type Writer struct {
	view  *View
	align []Alignment
}

// NewWriter returns a Writer for v. align must have one entry per column.
func NewWriter(v *View, align []Alignment) (*Writer, error) {
	if len(align) != len(v.titles) {
		return nil, ErrAlignmentCount
	}
	return &Writer{view: v, align: slices.Clone(align)}, nil
}

// View returns the rendered view.
func (w *Writer) View() *View {
	return w.view
}

// Alignments returns a copy of the column alignments.
func (w *Writer) Alignments() []Alignment {
	return slices.Clone(w.align)
}

// String encodes the view.
func (w *Writer) String() string {
	var b strings.Builder
	_, _ = encode(&b, w.view, w.align)
	return b.String()
}

// WriteTo encodes the view to dst.
func (w *Writer) WriteTo(dst io.Writer) (int64, error) {
	return encode(dst, w.view, w.align)
}

// encode writes v. A nil align means every column is left aligned.
func encode(w io.Writer, v *View, align []Alignment) (int64, error) {
	widths := make([]int, len(v.titles))
	for j, t := range v.titles {
		widths[j] = utf8.RuneCountInString(t)
	}
	for _, r := range v.rows {
		for j, c := range r {
			widths[j] = max(widths[j], utf8.RuneCountInString(c))
		}
	}

	var buf bytes.Buffer
	for j, t := range v.titles {
		pad(&buf, t, widths[j], AlignLeft)
	}
	buf.WriteByte('\n')
	for _, r := range v.rows {
		for j, c := range r {
			a := AlignLeft
			if align != nil {
				a = align[j]
			}
			pad(&buf, c, widths[j], a)
		}
		buf.WriteByte('\n')
	}
	n, err := w.Write(buf.Bytes())
	return int64(n), err
}

// pad writes s aligned within width, followed by the separator space.
func pad(buf *bytes.Buffer, s string, width int, a Alignment) {
	fill := width - utf8.RuneCountInString(s)
	if a == AlignRight {
		buf.WriteString(strings.Repeat(" ", fill))
		buf.WriteString(s)
	} else {
		buf.WriteString(s)
		buf.WriteString(strings.Repeat(" ", fill))
	}
	buf.WriteByte(' ')
}
