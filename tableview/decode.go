// Provides the text decoder.

package tableview

import (
	"errors"
	"io"
	"strings"
)

// Parse decodes a table from its text form.
//
// Column widths come from the title line: a column spans its title and the
// spaces that follow it, minus the separator space. Data lines are sliced at
// those widths and each cell is trimmed. Decoding stops at the first empty
// line, so text after a blank line is ignored.
func Parse(s string) (*View, error) {
	lines := strings.Split(s, "\n")
	titles, widths, err := parseTitles(lines[0])
	if err != nil {
		return nil, &DecodeError{Line: 1, Err: err}
	}

	var rows [][]string
	for _, line := range lines[1:] {
		if line == "" {
			break
		}
		rows = append(rows, sliceRow([]rune(line), widths))
	}
	v, err := New(titles, rows)
	if err != nil {
		line := 0
		var ie *InvariantError
		if errors.As(err, &ie) {
			// Titles are line 1, data rows start on line 2.
			line = ie.Row + 2
		}
		return nil, &DecodeError{Line: line, Err: err}
	}
	return v, nil
}

// Decode reads all of r and decodes it with Parse.
func Decode(r io.Reader) (*View, error) {
	b, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	return Parse(string(b))
}

// parseTitles splits the title line into titles and column widths.
func parseTitles(line string) ([]string, []int, error) {
	if line == "" {
		return nil, nil, errors.New("missing title line")
	}
	if line[0] == ' ' {
		return nil, nil, errors.New("title line starts with a space")
	}
	var titles []string
	var widths []int
	var title []rune
	padding := 0
	for _, c := range line {
		if c == ' ' {
			padding++
			continue
		}
		if padding > 0 {
			titles = append(titles, string(title))
			widths = append(widths, len(title)+padding-1)
			title = title[:0]
			padding = 0
		}
		title = append(title, c)
	}
	if padding == 0 {
		return nil, nil, errors.New("title line does not end with a separator space")
	}
	titles = append(titles, string(title))
	widths = append(widths, len(title)+padding-1)
	return titles, widths, nil
}

// sliceRow cuts line in fixed-width fields. Each field spans width+1 runes,
// the last one being the separator.
func sliceRow(line []rune, widths []int) []string {
	cells := make([]string, len(widths))
	read := 0
	for j, w := range widths {
		start := min(read, len(line))
		end := min(read+w, len(line))
		cells[j] = strings.TrimSpace(string(line[start:end]))
		read += w + 1
	}
	return cells
}
