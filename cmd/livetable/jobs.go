package main

import (
	"context"
	"math/rand/v2"
	"strconv"
	"time"

	"github.com/maruel/ksid"
	"github.com/maruel/livetable/row"
	"github.com/maruel/livetable/table"
)

// job is the row of a simulated job.
type job struct {
	ID        string  `json:"id"`
	Name      string  `json:"name"`
	State     string  `json:"state"`
	Progress  uint64  `json:"progress"`
	CPU       float64 `json:"cpu"`
	Retries   int64   `json:"retries"`
	ElapsedMS int64   `json:"elapsed"`
}

// DisplayValue implements row.Displayer.
func (job) DisplayValue(header string, v row.Value) string {
	if v.IsNull() {
		return ""
	}
	switch header {
	case "progress":
		return v.String() + "%"
	case "cpu":
		if f, err := v.AsFloat(); err == nil {
			return strconv.FormatFloat(f, 'f', 1, 64)
		}
	case "elapsed":
		if ms, err := v.AsInt(); err == nil {
			return (time.Duration(ms) * time.Millisecond).String()
		}
	}
	return v.String()
}

type jobRow = row.Struct[job]

var jobNames = []string{"backup", "compact", "index", "reindex", "resize", "scrub", "sync", "thumbnail", "transcode", "vacuum"}

// runJob owns one row for the lifetime of a simulated job. Each step
// advances the job; the row disappears when the job returns.
func runJob(ctx context.Context, tbl *table.Table[jobRow], rng *rand.Rand, step time.Duration) {
	g := tbl.SetScopeOwned(jobRow{V: job{
		ID:    ksid.NewID().String(),
		Name:  jobNames[rng.IntN(len(jobNames))],
		State: "queued",
	}})
	defer func() { _ = g.Close() }()

	start := time.Now()
	t := time.NewTicker(step)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
		}
		finished := false
		g.Modify(func(r *jobRow) {
			j := &r.V
			j.ElapsedMS = time.Since(start).Round(100 * time.Millisecond).Milliseconds()
			switch j.State {
			case "done", "failed":
				finished = true
				return
			case "queued":
				if rng.IntN(3) == 0 {
					j.State = "running"
				}
				return
			}
			if rng.IntN(40) == 0 {
				j.State = "failed"
				j.CPU = 0
				return
			}
			if rng.IntN(10) == 0 {
				j.Retries++
			}
			j.CPU = rng.Float64() * 100
			j.Progress = min(100, j.Progress+uint64(rng.IntN(15)))
			if j.Progress == 100 {
				j.State = "done"
				j.CPU = 0
			}
		})
		if finished {
			return
		}
	}
}
