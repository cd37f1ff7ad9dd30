// Provides the statement pipeline engine.

package query

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/memory"
)

// Pipeline is an Engine running statements one after the other over a
// snapshot:
//
//	select c1 [c2 ...]      keep and reorder columns
//	sort c1 [-c2 ...]       stable sort, '-' for descending, nulls first
//	reverse                 reverse the row order
//	limit n                 keep the first n rows
//	rename old new          rename a column
//	filter c op [value]     keep rows matching a condition
//	match {json}            keep rows matching a MongoDB-style document filter
//
// filter operators are == != > < >= <= (or equals, not_equals, gt, lt, gte,
// lte), contains, not_contains, starts_with, ends_with (case insensitive) and
// is_empty, is_not_empty (without value). The value is converted to the column
// type when the statement runs. Null sorts before any value.
//
// Empty query text returns the snapshot unchanged.
type Pipeline struct {
	mem memory.Allocator
}

// NewPipeline returns a pipeline engine allocating result records from mem,
// or from memory.DefaultAllocator when mem is nil.
func NewPipeline(mem memory.Allocator) *Pipeline {
	if mem == nil {
		mem = memory.DefaultAllocator
	}
	return &Pipeline{mem: mem}
}

// Parse implements Engine.
func (p *Pipeline) Parse(text string) (Plan, error) {
	stmts, err := lex(text)
	if err != nil {
		return nil, err
	}
	plan := &pipelinePlan{mem: p.mem}
	for _, s := range stmts {
		o, err := parseStatement(s.toks)
		if err != nil {
			return nil, &Error{Phase: PhaseParse, Line: s.line, Statement: s.text, Err: err}
		}
		plan.steps = append(plan.steps, step{stmt: s, op: o})
	}
	return plan, nil
}

type step struct {
	stmt statement
	op   operation
}

type pipelinePlan struct {
	mem   memory.Allocator
	steps []step
}

// Execute implements Plan.
func (p *pipelinePlan) Execute(ctx context.Context, in arrow.Record) (arrow.Record, error) {
	if len(p.steps) == 0 {
		in.Retain()
		return in, nil
	}
	f := newFrame(in)
	for _, s := range p.steps {
		if err := ctx.Err(); err != nil {
			return nil, &Error{Phase: PhaseExecute, Line: s.stmt.line, Statement: s.stmt.text, Err: err}
		}
		if err := s.op.apply(f); err != nil {
			return nil, &Error{Phase: PhaseExecute, Line: s.stmt.line, Statement: s.stmt.text, Err: err}
		}
	}
	rec, err := f.materialize(p.mem)
	if err != nil {
		return nil, &Error{Phase: PhaseExecute, Err: err}
	}
	return rec, nil
}

// operation is one parsed statement.
type operation interface {
	apply(f *frame) error
}

func parseStatement(toks []token) (operation, error) {
	kw := toks[0]
	if kw.kind != tokenWord {
		return nil, fmt.Errorf("%w: statement must start with a keyword", ErrSyntax)
	}
	args := toks[1:]
	switch strings.ToLower(kw.text) {
	case "select":
		names, err := columnNames(args)
		if err != nil {
			return nil, err
		}
		return selectOp{names: names}, nil
	case "sort":
		if len(args) == 0 {
			return nil, fmt.Errorf("%w: sort needs at least one column", ErrSyntax)
		}
		keys := make([]sortKey, len(args))
		for i, a := range args {
			if a.kind == tokenJSON {
				return nil, fmt.Errorf("%w: unexpected JSON object", ErrSyntax)
			}
			k := sortKey{name: a.text}
			if a.kind == tokenWord {
				switch {
				case strings.HasPrefix(a.text, "-"):
					k = sortKey{name: a.text[1:], desc: true}
				case strings.HasPrefix(a.text, "+"):
					k = sortKey{name: a.text[1:]}
				}
			}
			if k.name == "" {
				return nil, fmt.Errorf("%w: empty column name", ErrSyntax)
			}
			keys[i] = k
		}
		return sortOp{keys: keys}, nil
	case "reverse":
		if len(args) != 0 {
			return nil, fmt.Errorf("%w: reverse takes no argument", ErrSyntax)
		}
		return reverseOp{}, nil
	case "limit":
		if len(args) != 1 || args[0].kind == tokenJSON {
			return nil, fmt.Errorf("%w: limit takes one number", ErrSyntax)
		}
		n, err := strconv.Atoi(args[0].text)
		if err != nil || n < 0 {
			return nil, fmt.Errorf("%w: invalid limit %q", ErrSyntax, args[0].text)
		}
		return limitOp{n: n}, nil
	case "rename":
		names, err := columnNames(args)
		if err != nil {
			return nil, err
		}
		if len(names) != 2 {
			return nil, fmt.Errorf("%w: rename takes two columns", ErrSyntax)
		}
		return renameOp{from: names[0], to: names[1]}, nil
	case "filter":
		return parseFilter(args)
	case "match":
		if len(args) != 1 || args[0].kind != tokenJSON {
			return nil, fmt.Errorf("%w: match takes one JSON object", ErrSyntax)
		}
		var doc map[string]any
		if err := json.Unmarshal([]byte(args[0].text), &doc); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrSyntax, err)
		}
		return matchOp{filter: doc}, nil
	default:
		return nil, fmt.Errorf("%w %q", ErrUnknownStatement, kw.text)
	}
}

func columnNames(args []token) ([]string, error) {
	if len(args) == 0 {
		return nil, fmt.Errorf("%w: missing column", ErrSyntax)
	}
	names := make([]string, len(args))
	for i, a := range args {
		if a.kind == tokenJSON {
			return nil, fmt.Errorf("%w: unexpected JSON object", ErrSyntax)
		}
		if a.text == "" {
			return nil, fmt.Errorf("%w: empty column name", ErrSyntax)
		}
		names[i] = a.text
	}
	return names, nil
}

func parseFilter(args []token) (operation, error) {
	if len(args) < 2 {
		return nil, fmt.Errorf("%w: filter takes a column, an operator and a value", ErrSyntax)
	}
	for _, a := range args {
		if a.kind == tokenJSON {
			return nil, fmt.Errorf("%w: unexpected JSON object", ErrSyntax)
		}
	}
	op, ok := filterOps[strings.ToLower(args[1].text)]
	if !ok || args[1].kind != tokenWord {
		return nil, fmt.Errorf("%w: unknown operator %q", ErrSyntax, args[1].text)
	}
	f := filterOp{column: args[0].text, op: op}
	switch {
	case op.unary() && len(args) != 2:
		return nil, fmt.Errorf("%w: %s takes no value", ErrSyntax, args[1].text)
	case !op.unary() && len(args) != 3:
		return nil, fmt.Errorf("%w: %s takes one value", ErrSyntax, args[1].text)
	case !op.unary():
		f.value = args[2].text
	}
	return f, nil
}
