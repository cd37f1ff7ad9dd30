package query

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/memory"
)

// processes builds:
//
//	name  cpu  pid running
//	init  0.1    1 true
//	sshd  2.5   20 true
//	cron  null  30 false
//	nginx 40   400 true
func processes(mem memory.Allocator) arrow.Record {
	schema := arrow.NewSchema([]arrow.Field{
		{Name: "name", Type: arrow.BinaryTypes.String, Nullable: true},
		{Name: "cpu", Type: arrow.PrimitiveTypes.Float64, Nullable: true},
		{Name: "pid", Type: arrow.PrimitiveTypes.Int64, Nullable: true},
		{Name: "running", Type: arrow.FixedWidthTypes.Boolean, Nullable: true},
	}, nil)
	b := array.NewRecordBuilder(mem, schema)
	defer b.Release()
	b.Field(0).(*array.StringBuilder).AppendValues([]string{"init", "sshd", "cron", "nginx"}, nil)
	b.Field(1).(*array.Float64Builder).AppendValues([]float64{0.1, 2.5, 0, 40}, []bool{true, true, false, true})
	b.Field(2).(*array.Int64Builder).AppendValues([]int64{1, 20, 30, 400}, nil)
	b.Field(3).(*array.BooleanBuilder).AppendValues([]bool{true, true, false, true}, nil)
	return b.NewRecord()
}

// column returns the named column as text, "null" for null cells.
func column(t *testing.T, rec arrow.Record, name string) string {
	t.Helper()
	for j := range int(rec.NumCols()) {
		if rec.ColumnName(j) != name {
			continue
		}
		var out []string
		for i := range int(rec.NumRows()) {
			v := cell(rec.Column(j), i)
			if v == nil {
				out = append(out, "null")
			} else {
				out = append(out, toString(v))
			}
		}
		return strings.Join(out, ",")
	}
	t.Fatalf("no column %q", name)
	return ""
}

func names(rec arrow.Record) string {
	var out []string
	for j := range int(rec.NumCols()) {
		out = append(out, rec.ColumnName(j))
	}
	return strings.Join(out, ",")
}

func run(t *testing.T, mem memory.Allocator, q string) (arrow.Record, error) {
	t.Helper()
	in := processes(mem)
	defer in.Release()
	return Run(t.Context(), NewPipeline(mem), q, in)
}

func TestPipeline(t *testing.T) {
	tests := []struct {
		name  string
		query string
		cols  string
		col   string
		want  string
	}{
		{"empty", "", "name,cpu,pid,running", "name", "init,sshd,cron,nginx"},
		{"blank", " \n ; \n# nothing\n", "name,cpu,pid,running", "name", "init,sshd,cron,nginx"},
		{"select", "select pid name", "pid,name", "pid", "1,20,30,400"},
		{"sort string", "sort name", "name,cpu,pid,running", "name", "cron,init,nginx,sshd"},
		{"sort descending nulls first", "sort -cpu", "name,cpu,pid,running", "name", "cron,nginx,sshd,init"},
		{"sort ascending nulls first", "sort cpu", "name,cpu,pid,running", "name", "cron,init,sshd,nginx"},
		{"sort is stable", "sort running", "name,cpu,pid,running", "name", "cron,init,sshd,nginx"},
		{"sort multiple keys", "sort -running +name", "name,cpu,pid,running", "name", "init,nginx,sshd,cron"},
		{"reverse", "reverse", "name,cpu,pid,running", "name", "nginx,cron,sshd,init"},
		{"limit", "limit 2", "name,cpu,pid,running", "name", "init,sshd"},
		{"limit larger", "limit 10", "name,cpu,pid,running", "name", "init,sshd,cron,nginx"},
		{"limit zero", "limit 0", "name,cpu,pid,running", "name", ""},
		{"rename", "rename cpu usage\nselect usage", "usage", "usage", "0.1,2.5,null,40"},
		{"filter greater", "filter cpu > 1", "name,cpu,pid,running", "name", "sshd,nginx"},
		{"filter not equals keeps null", "filter cpu != 2.5", "name,cpu,pid,running", "name", "init,cron,nginx"},
		{"filter int", "filter pid <= 20", "name,cpu,pid,running", "name", "init,sshd"},
		{"filter bool", "filter running == false", "name,cpu,pid,running", "name", "cron"},
		{"filter quoted", `filter name equals "sshd"`, "name,cpu,pid,running", "name", "sshd"},
		{"filter contains", "filter name contains N", "name,cpu,pid,running", "name", "init,cron,nginx"},
		{"filter not contains", "filter name not_contains n", "name,cpu,pid,running", "name", "sshd"},
		{"filter starts with", "filter name starts_with s", "name,cpu,pid,running", "name", "sshd"},
		{"filter ends with", "filter name ends_with X", "name,cpu,pid,running", "name", "nginx"},
		{"filter is empty", "filter cpu is_empty", "name,cpu,pid,running", "name", "cron"},
		{"filter is not empty", "filter cpu is_not_empty", "name,cpu,pid,running", "name", "init,sshd,nginx"},
		{"match", `match {"pid": {"$gt": 10}}`, "name,cpu,pid,running", "name", "sshd,cron,nginx"},
		{"match string", `match {"name": {"$eq": "init"}}`, "name,cpu,pid,running", "name", "init"},
		{"pipeline", "filter running == true; sort -pid; select name pid; limit 2", "name,pid", "name", "nginx,sshd"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mem := memory.NewCheckedAllocator(memory.NewGoAllocator())
			defer mem.AssertSize(t, 0)
			out, err := run(t, mem, tt.query)
			if err != nil {
				t.Fatal(err)
			}
			defer out.Release()
			if got := names(out); got != tt.cols {
				t.Errorf("columns = %q, want %q", got, tt.cols)
			}
			if got := column(t, out, tt.col); got != tt.want {
				t.Errorf("%s = %q, want %q", tt.col, got, tt.want)
			}
		})
	}
}

func TestPipelineIdentity(t *testing.T) {
	mem := memory.NewCheckedAllocator(memory.NewGoAllocator())
	defer mem.AssertSize(t, 0)
	in := processes(mem)
	defer in.Release()
	p, err := NewPipeline(mem).Parse("")
	if err != nil {
		t.Fatal(err)
	}
	out, err := p.Execute(t.Context(), in)
	if err != nil {
		t.Fatal(err)
	}
	defer out.Release()
	if out != in {
		t.Error("empty query did not return its input")
	}
}

func TestPipelineParseErrors(t *testing.T) {
	tests := []struct {
		name  string
		query string
		want  error
		line  int
	}{
		{"unknown statement", "frobnicate", ErrUnknownStatement, 1},
		{"unknown on line 2", "sort name\nbogus x", ErrUnknownStatement, 2},
		{"keyword must be a word", `"select" name`, ErrSyntax, 1},
		{"select nothing", "select", ErrSyntax, 1},
		{"sort nothing", "sort", ErrSyntax, 1},
		{"sort dash only", "sort -", ErrSyntax, 1},
		{"reverse argument", "reverse name", ErrSyntax, 1},
		{"limit word", "limit many", ErrSyntax, 1},
		{"limit negative", "limit -1", ErrSyntax, 1},
		{"rename one", "rename a", ErrSyntax, 1},
		{"filter short", "filter a", ErrSyntax, 1},
		{"filter unknown operator", "filter a ~ b", ErrSyntax, 1},
		{"filter missing value", "filter a ==", ErrSyntax, 1},
		{"filter extra value", "filter a is_empty b", ErrSyntax, 1},
		{"match not json", "match [1]", ErrSyntax, 1},
		{"match bad json", `match {"a": }`, ErrSyntax, 1},
		{"match unterminated", `match {"a": 1`, ErrSyntax, 1},
		{"unterminated string", `filter name == "abc`, ErrSyntax, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewPipeline(nil).Parse(tt.query)
			if !errors.Is(err, tt.want) {
				t.Fatalf("Parse(%q) error = %v, want %v", tt.query, err, tt.want)
			}
			if !IsParse(err) || IsExecute(err) {
				t.Errorf("Parse(%q) error = %v is not a parse error", tt.query, err)
			}
			var qe *Error
			if errors.As(err, &qe) && qe.Line != tt.line {
				t.Errorf("Line = %d, want %d", qe.Line, tt.line)
			}
		})
	}
}

func TestPipelineExecuteErrors(t *testing.T) {
	tests := []struct {
		name  string
		query string
		want  error
	}{
		{"select unknown", "select nope", ErrUnknownColumn},
		{"sort unknown", "sort nope", ErrUnknownColumn},
		{"rename unknown", "rename nope x", ErrUnknownColumn},
		{"filter unknown", "filter nope == 1", ErrUnknownColumn},
		{"renamed away", "rename cpu usage; sort cpu", ErrUnknownColumn},
		{"bad literal", "filter pid > abc", ErrLiteral},
		{"bad bool", "filter running == maybe", ErrLiteral},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mem := memory.NewCheckedAllocator(memory.NewGoAllocator())
			defer mem.AssertSize(t, 0)
			_, err := run(t, mem, tt.query)
			if !errors.Is(err, tt.want) {
				t.Fatalf("error = %v, want %v", err, tt.want)
			}
			if !IsExecute(err) {
				t.Errorf("error = %v is not an execute error", err)
			}
		})
	}

	t.Run("cancelled", func(t *testing.T) {
		mem := memory.NewCheckedAllocator(memory.NewGoAllocator())
		defer mem.AssertSize(t, 0)
		in := processes(mem)
		defer in.Release()
		ctx, cancel := context.WithCancel(t.Context())
		cancel()
		_, err := Run(ctx, NewPipeline(mem), "limit 1", in)
		if !errors.Is(err, context.Canceled) || !IsExecute(err) {
			t.Errorf("error = %v, want execute error wrapping context.Canceled", err)
		}
	})
}

func TestError(t *testing.T) {
	err := &Error{Phase: PhaseParse, Line: 2, Statement: "bogus", Err: ErrUnknownStatement}
	want := `query parse error on line 2 "bogus": unknown statement`
	if got := err.Error(); got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
}
