package table

import (
	"context"
	"fmt"
	"time"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/maruel/livetable/row"
	"github.com/maruel/livetable/tableview"
)

// ToView runs query over a snapshot of the rows and renders the result.
//
// The query is parsed before touching the rows and executed without holding
// the table lock. String columns are left aligned, the others right aligned.
// Cells are rendered by R's row.Displayer when R implements it.
//
// Errors are *query.Error for a rejected or failed query, *row.ConversionError
// for a value that does not fit its column and ErrPoisoned.
func (t *Table[R]) ToView(ctx context.Context, query string) (*tableview.Writer, error) {
	start := time.Now()
	plan, err := t.s.engine.Parse(query)
	if err != nil {
		return nil, err
	}
	snap, err := t.Snapshot()
	if err != nil {
		return nil, err
	}
	defer snap.Release()
	out, err := plan.Execute(ctx, snap)
	if err != nil {
		return nil, err
	}
	defer out.Release()
	w, err := render[R](out)
	if err != nil {
		return nil, err
	}
	t.s.log.DebugContext(ctx, "Rendered table view", "table", t.s.id, "query", query, "rows", w.View().Len(), "dur", time.Since(start))
	return w, nil
}

func render[R row.Row](rec arrow.Record) (*tableview.Writer, error) {
	var zero R
	ncols := int(rec.NumCols())
	nrows := int(rec.NumRows())
	titles := make([]string, ncols)
	align := make([]tableview.Alignment, ncols)
	rows := make([][]string, nrows)
	for i := range rows {
		rows[i] = make([]string, ncols)
	}
	for j := range ncols {
		field := rec.Schema().Field(j)
		typ, err := literalType(field)
		if err != nil {
			return nil, err
		}
		titles[j] = field.Name
		if typ.Numeric() {
			align[j] = tableview.AlignRight
		}
		col := rec.Column(j)
		for i := range nrows {
			rows[i][j] = row.Display(zero, field.Name, literal(col, i))
		}
	}
	v, err := tableview.New(titles, rows)
	if err != nil {
		return nil, fmt.Errorf("build table view: %w", err)
	}
	w, err := tableview.NewWriter(v, align)
	if err != nil {
		// One alignment per title by construction.
		panic(err)
	}
	return w, nil
}
