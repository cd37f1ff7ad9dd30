package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/maruel/livetable/table"
)

type monitor struct {
	jobs     int
	interval time.Duration
	once     bool
	src      *viewSource
	out      io.Writer
	clear    bool
}

func (m *monitor) run(ctx context.Context) error {
	// Jobs are stopped before waiting for them.
	var wg sync.WaitGroup
	defer wg.Wait()
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	tbl := table.New[jobRow]()
	slog.InfoContext(ctx, "Starting monitor", "table", tbl.ID(), "jobs", m.jobs, "view", m.src.Name())

	if err := m.src.Watch(ctx); err != nil {
		return err
	}
	wg.Add(1)
	go func() {
		defer wg.Done()
		m.spawn(ctx, tbl)
	}()

	t := time.NewTicker(m.interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-t.C:
		}
		if err := m.render(ctx, tbl); err != nil {
			return err
		}
		if m.once {
			return nil
		}
	}
}

// spawn keeps m.jobs jobs running until ctx is done.
func (m *monitor) spawn(ctx context.Context, tbl *table.Table[jobRow]) {
	var wg sync.WaitGroup
	defer wg.Wait()
	sem := make(chan struct{}, m.jobs)
	step := max(m.interval/4, 10*time.Millisecond)
	for i := uint64(0); ; i++ {
		select {
		case <-ctx.Done():
			return
		case sem <- struct{}{}:
		}
		wg.Add(1)
		go func() {
			defer wg.Done()
			defer func() { <-sem }()
			runJob(ctx, tbl, rand.New(rand.NewPCG(i, uint64(time.Now().UnixNano()))), step)
		}()
	}
}

func (m *monitor) render(ctx context.Context, tbl *table.Table[jobRow]) error {
	q := m.src.Query()
	w, err := tbl.ToView(ctx, q)
	if err != nil {
		// A bad query in the manifest is reported and the previous frame
		// stays on screen until the file is fixed.
		slog.WarnContext(ctx, "Failed to render view", "view", m.src.Name(), "err", err)
		return nil
	}
	if m.clear {
		if _, err := io.WriteString(m.out, "\x1b[H\x1b[2J"); err != nil {
			return err
		}
	}
	if _, err := fmt.Fprintf(m.out, "%s  %d jobs  %s\n\n", m.src.Name(), tbl.Len(), time.Now().Format(time.TimeOnly)); err != nil {
		return err
	}
	_, err = w.WriteTo(m.out)
	return err
}
