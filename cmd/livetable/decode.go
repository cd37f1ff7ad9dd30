package main

import (
	"encoding/json"
	"io"

	"github.com/maruel/livetable/tableview"
)

// decodedTable is the JSON form of a decoded text table.
type decodedTable struct {
	Titles []string   `json:"titles"`
	Rows   [][]string `json:"rows"`
}

// decode reads a text table from r and writes it to w as JSON.
func decode(r io.Reader, w io.Writer) error {
	v, err := tableview.Decode(r)
	if err != nil {
		return err
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(decodedTable{Titles: v.Titles(), Rows: v.Rows()})
}
