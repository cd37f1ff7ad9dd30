// Provides the validated, immutable table view.

package tableview

import (
	"io"
	"slices"
	"strings"
)

// View is a rectangular grid of text cells under non-empty titles.
//
// A View always satisfies its invariants: there is at least one title, titles
// are non-empty and hold no
// space nor newline, each row has one cell per title and no cell holds a
// newline. Views are immutable and safe for concurrent use.
type View struct {
	titles []string
	rows   [][]string
}

// New validates titles and rows and returns a view holding copies of them.
// A view has at least one title.
func New(titles []string, rows [][]string) (*View, error) {
	if len(titles) == 0 {
		return nil, &InvariantError{Row: -1, Column: -1, Err: ErrNoTitle}
	}
	for i, t := range titles {
		if err := checkTitle(t); err != nil {
			return nil, &InvariantError{Row: -1, Column: i, Err: err}
		}
	}
	for i, r := range rows {
		if len(r) != len(titles) {
			return nil, &InvariantError{Row: i, Column: -1, Err: ErrRowLength}
		}
		for j, c := range r {
			if strings.Contains(c, "\n") {
				return nil, &InvariantError{Row: i, Column: j, Err: ErrNewlineInCell}
			}
		}
	}
	v := &View{titles: slices.Clone(titles), rows: make([][]string, len(rows))}
	for i, r := range rows {
		v.rows[i] = slices.Clone(r)
	}
	return v, nil
}

// MustNew is like New but panics on invalid input.
func MustNew(titles []string, rows [][]string) *View {
	v, err := New(titles, rows)
	if err != nil {
		panic(err)
	}
	return v
}

func checkTitle(t string) error {
	switch {
	case t == "":
		return ErrEmptyTitle
	case strings.Contains(t, " "):
		return ErrSpaceInTitle
	case strings.Contains(t, "\n"):
		return ErrNewlineInTitle
	}
	return nil
}

// Titles returns a copy of the titles.
func (v *View) Titles() []string {
	return slices.Clone(v.titles)
}

// Len returns the number of data rows.
func (v *View) Len() int {
	return len(v.rows)
}

// Row returns a copy of the i-th data row.
func (v *View) Row(i int) []string {
	return slices.Clone(v.rows[i])
}

// Rows returns a copy of the data rows.
func (v *View) Rows() [][]string {
	out := make([][]string, len(v.rows))
	for i, r := range v.rows {
		out[i] = slices.Clone(r)
	}
	return out
}

// Column returns the cells under the named title, or nil if there is no such
// title.
func (v *View) Column(title string) []string {
	j := slices.Index(v.titles, title)
	if j < 0 {
		return nil
	}
	out := make([]string, len(v.rows))
	for i, r := range v.rows {
		out[i] = r[j]
	}
	return out
}

// Equal reports whether v and o have the same titles and rows.
func (v *View) Equal(o *View) bool {
	if !slices.Equal(v.titles, o.titles) || len(v.rows) != len(o.rows) {
		return false
	}
	for i := range v.rows {
		if !slices.Equal(v.rows[i], o.rows[i]) {
			return false
		}
	}
	return true
}

// String encodes the view with every column left aligned.
func (v *View) String() string {
	var b strings.Builder
	_, _ = encode(&b, v, nil)
	return b.String()
}

// WriteTo encodes the view with every column left aligned.
func (v *View) WriteTo(w io.Writer) (int64, error) {
	return encode(w, v, nil)
}
