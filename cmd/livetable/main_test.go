package main

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"math/rand/v2"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/maruel/livetable/row"
	"github.com/maruel/livetable/table"
	"github.com/maruel/livetable/tableview"
)

func TestDecode(t *testing.T) {
	var out bytes.Buffer
	if err := decode(strings.NewReader("id  usage \ncpu    80 \nmem    20 \n"), &out); err != nil {
		t.Fatal(err)
	}
	var got decodedTable
	if err := json.Unmarshal(out.Bytes(), &got); err != nil {
		t.Fatal(err)
	}
	if strings.Join(got.Titles, ",") != "id,usage" || len(got.Rows) != 2 || got.Rows[1][1] != "20" {
		t.Errorf("decode() = %+v", got)
	}

	out.Reset()
	if err := decode(strings.NewReader("x \n"), &out); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out.String(), `"rows": []`) {
		t.Errorf("decode() = %s, want empty rows", out.String())
	}

	if err := decode(strings.NewReader(" bad\n"), &out); err == nil {
		t.Error("decode() = nil error")
	}
}

func TestJobRow(t *testing.T) {
	s, err := row.StructSchema[job]()
	if err != nil {
		t.Fatal(err)
	}
	if got := strings.Join(s.Names(), ","); got != "id,name,state,progress,cpu,retries,elapsed" {
		t.Errorf("Names() = %q", got)
	}
	if s[6].Type != row.TypeInt {
		t.Errorf("elapsed type = %s, want int", s[6].Type)
	}
	r := jobRow{V: job{ID: "a", Progress: 42, CPU: 12.345, ElapsedMS: 1500}}
	if got := r.DisplayValue("progress", r.Fields()[3]); got != "42%" {
		t.Errorf("DisplayValue(progress) = %q", got)
	}
	if got := r.DisplayValue("cpu", r.Fields()[4]); got != "12.3" {
		t.Errorf("DisplayValue(cpu) = %q", got)
	}
	if got := r.DisplayValue("elapsed", r.Fields()[6]); got != "1.5s" {
		t.Errorf("DisplayValue(elapsed) = %q", got)
	}
	if got := r.DisplayValue("progress", row.Null()); got != "" {
		t.Errorf("DisplayValue(progress, null) = %q, want empty", got)
	}
}

func TestJobsSortByElapsed(t *testing.T) {
	tbl := table.New[jobRow]()
	for _, ms := range []int64{10000, 2000, 300} {
		tbl.Insert(jobRow{V: job{ID: strconv.FormatInt(ms, 10), Name: "n", State: "running", ElapsedMS: ms}})
	}
	w, err := tbl.ToView(t.Context(), "select elapsed; sort elapsed")
	if err != nil {
		t.Fatal(err)
	}
	want := "elapsed \n  300ms \n     2s \n    10s \n"
	if got := w.String(); got != want {
		t.Errorf("ToView() =\n%q\nwant\n%q", got, want)
	}
}

func TestMonitorOnce(t *testing.T) {
	src, err := newViewSource("", "", "select name state; limit 3")
	if err != nil {
		t.Fatal(err)
	}
	var out bytes.Buffer
	m := &monitor{jobs: 3, interval: 50 * time.Millisecond, once: true, src: src, out: &out}
	if err := m.run(t.Context()); err != nil {
		t.Fatal(err)
	}
	text := out.String()
	header, body, ok := strings.Cut(text, "\n\n")
	if !ok || !strings.HasPrefix(header, "query  ") {
		t.Fatalf("unexpected output %q", text)
	}
	v, err := tableview.Parse(body)
	if err != nil {
		t.Fatal(err)
	}
	if got := strings.Join(v.Titles(), ","); got != "name,state" {
		t.Errorf("titles = %q", got)
	}
}

func TestRunJob(t *testing.T) {
	tbl := table.New[jobRow]()
	ctx, cancel := context.WithCancel(t.Context())
	done := make(chan struct{})
	go func() {
		defer close(done)
		runJob(ctx, tbl, newTestRand(), time.Millisecond)
	}()
	deadline := time.Now().Add(5 * time.Second)
	for tbl.Len() == 0 && time.Now().Before(deadline) {
		time.Sleep(time.Millisecond)
	}
	cancel()
	<-done
	if tbl.Len() != 0 {
		t.Errorf("Len() = %d after the job returned", tbl.Len())
	}
}

func TestViewSource(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "views.yaml")
	write := func(s string) {
		t.Helper()
		if err := os.WriteFile(path, []byte(s), 0o600); err != nil {
			t.Fatal(err)
		}
	}
	write("version: 1\nviews:\n  - name: top\n    limit: 3\n")

	if _, err := newViewSource("", "top", ""); err == nil {
		t.Error("newViewSource() without manifest = nil error")
	}
	src, err := newViewSource(path, "", "")
	if err != nil {
		t.Fatal(err)
	}
	if src.Name() != "top" || src.Query() != "limit 3" {
		t.Fatalf("view = %q %q", src.Name(), src.Query())
	}

	ctx, cancel := context.WithCancel(t.Context())
	defer cancel()
	slog.SetDefault(slog.New(slog.DiscardHandler))
	if err := src.Watch(ctx); err != nil {
		t.Fatal(err)
	}
	write("version: 1\nviews:\n  - name: top\n    limit: 7\n")
	deadline := time.Now().Add(5 * time.Second)
	for src.Query() != "limit 7" && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}
	if got := src.Query(); got != "limit 7" {
		t.Errorf("Query() = %q after reload", got)
	}

	// An invalid manifest keeps the previous view.
	if err := src.reload(); err != nil {
		t.Fatal(err)
	}
	write("version: 1\nviews:\n  - name: top\n    query: bogus\n")
	if err := src.reload(); err == nil {
		t.Error("reload() of an invalid manifest = nil error")
	}
	if got := src.Query(); got != "limit 7" {
		t.Errorf("Query() = %q after a failed reload", got)
	}
}

func newTestRand() *rand.Rand {
	return rand.New(rand.NewPCG(1, 2))
}
