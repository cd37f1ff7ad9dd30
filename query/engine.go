package query

import (
	"context"

	"github.com/apache/arrow-go/v18/arrow"
)

// Engine turns query text into an executable Plan.
type Engine interface {
	// Parse validates text without looking at any data. It returns an *Error
	// with PhaseParse on failure.
	Parse(text string) (Plan, error)
}

// Plan is a parsed query.
type Plan interface {
	// Execute runs the query over in and returns a new record, owned by the
	// caller. in is not released. It returns an *Error with PhaseExecute on
	// failure.
	Execute(ctx context.Context, in arrow.Record) (arrow.Record, error)
}

// Run parses text with e and executes it over in.
func Run(ctx context.Context, e Engine, text string, in arrow.Record) (arrow.Record, error) {
	p, err := e.Parse(text)
	if err != nil {
		return nil, err
	}
	return p.Execute(ctx, in)
}
