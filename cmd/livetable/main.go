// Command livetable shows a live table of simulated jobs and converts text
// tables to JSON.
//
// Usage:
//
//	livetable [flags] [monitor]   render the jobs table every -interval
//	livetable decode              read a text table on stdin, print JSON
//
// Views come from -query, or from the -view entry of the -views YAML
// manifest, which is reloaded when the file changes.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/lmittmann/tint"
	"github.com/mattn/go-colorable"
	"github.com/mattn/go-isatty"
)

func main() {
	if err := mainImpl(); err != nil && !errors.Is(err, context.Canceled) {
		fmt.Fprintf(os.Stderr, "livetable: %v\n", err)
		os.Exit(1)
	}
}

func mainImpl() error {
	logLevel := flag.String("log-level", "info", "Log level (debug, info, warn, error)")
	jobs := flag.Int("jobs", 6, "Number of concurrently running simulated jobs")
	interval := flag.Duration("interval", time.Second, "Delay between two renderings")
	viewsPath := flag.String("views", "", "YAML view manifest, reloaded on change")
	viewName := flag.String("view", "", "View to render from the manifest (default: the manifest default)")
	queryText := flag.String("query", "", "Query to render, overriding -view")
	once := flag.Bool("once", false, "Render a single frame and exit")
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "usage: livetable [flags] [monitor|decode]\n\n")
		flag.PrintDefaults()
	}
	flag.Parse()
	cmd := "monitor"
	if args := flag.Args(); len(args) > 1 {
		return fmt.Errorf("unknown arguments: %v", args[1:])
	} else if len(args) == 1 {
		cmd = args[0]
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM, os.Interrupt)
	defer stop()
	if err := initLogger(*logLevel); err != nil {
		return err
	}

	switch cmd {
	case "monitor":
		if *jobs < 1 {
			return errors.New("-jobs must be at least 1")
		}
		if *interval <= 0 {
			return errors.New("-interval must be positive")
		}
		src, err := newViewSource(*viewsPath, *viewName, *queryText)
		if err != nil {
			return err
		}
		m := &monitor{
			jobs:     *jobs,
			interval: *interval,
			once:     *once,
			src:      src,
			out:      os.Stdout,
			clear:    isatty.IsTerminal(os.Stdout.Fd()),
		}
		return m.run(ctx)
	case "decode":
		return decode(os.Stdin, os.Stdout)
	default:
		return fmt.Errorf("unknown command %q", cmd)
	}
}

func initLogger(level string) error {
	ll := &slog.LevelVar{}
	switch level {
	case "debug":
		ll.Set(slog.LevelDebug)
	case "info":
		ll.Set(slog.LevelInfo)
	case "warn":
		ll.Set(slog.LevelWarn)
	case "error":
		ll.Set(slog.LevelError)
	default:
		return fmt.Errorf("invalid log level %q", level)
	}
	slog.SetDefault(slog.New(newHandler(colorable.NewColorable(os.Stderr), ll, !isatty.IsTerminal(os.Stderr.Fd()))))
	return nil
}

func newHandler(w io.Writer, ll slog.Leveler, noColor bool) slog.Handler {
	return tint.NewHandler(w, &tint.Options{
		Level:      ll,
		TimeFormat: "15:04:05.000", // Like time.TimeOnly plus milliseconds.
		NoColor:    noColor,
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			skip := false
			switch t := a.Value.Any().(type) {
			case string:
				skip = t == ""
			case int64:
				skip = t == 0
			case time.Duration:
				skip = t == 0
			case nil:
				skip = true
			}
			if skip {
				return slog.Attr{}
			}
			return a
		},
	})
}
