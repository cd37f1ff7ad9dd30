package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/maruel/livetable/internal/manifest"
	"golang.org/x/time/rate"
)

// viewSource provides the query to render. It is either fixed or read from a
// manifest file that is reloaded when modified.
type viewSource struct {
	path    string
	view    string
	fixed   bool
	limiter *rate.Limiter

	mu    sync.Mutex
	name  string
	query string
}

func newViewSource(path, view, query string) (*viewSource, error) {
	s := &viewSource{
		path:    path,
		view:    view,
		limiter: rate.NewLimiter(rate.Every(250*time.Millisecond), 1),
	}
	switch {
	case query != "":
		s.fixed = true
		s.name = "query"
		s.query = query
		return s, nil
	case path == "":
		if view != "" {
			return nil, errors.New("-view requires -views")
		}
		s.fixed = true
		s.name = "all"
		return s, nil
	}
	if err := s.reload(); err != nil {
		return nil, err
	}
	return s, nil
}

// Name returns the name of the rendered view.
func (s *viewSource) Name() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.name
}

// Query returns the query text of the rendered view.
func (s *viewSource) Query() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.query
}

func (s *viewSource) reload() error {
	m, err := manifest.Load(s.path)
	if err != nil {
		return err
	}
	v, err := m.View(s.view)
	if err != nil {
		return fmt.Errorf("%s: %w", s.path, err)
	}
	q, err := v.Compile()
	if err != nil {
		return fmt.Errorf("%s: view %q: %w", s.path, v.Name, err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.name = v.Name
	s.query = q
	return nil
}

// Watch reloads the manifest whenever it changes, until ctx is done. Reloads
// are throttled so that editors writing the file in several steps do not
// trigger a burst of reloads.
func (s *viewSource) Watch(ctx context.Context) error {
	if s.fixed {
		return nil
	}
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	// Watch the directory: editors often replace the file instead of
	// writing it.
	if err := w.Add(filepath.Dir(s.path)); err != nil {
		_ = w.Close()
		return err
	}
	target := filepath.Clean(s.path)
	go func() {
		defer func() { _ = w.Close() }()
		for {
			select {
			case <-ctx.Done():
				return
			case event, ok := <-w.Events:
				if !ok {
					return
				}
				if filepath.Clean(event.Name) != target {
					continue
				}
				if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
					continue
				}
				if err := s.limiter.Wait(ctx); err != nil {
					return
				}
				if err := s.reload(); err != nil {
					slog.WarnContext(ctx, "Failed to reload views, keeping the previous one", "err", err)
					continue
				}
				slog.InfoContext(ctx, "Reloaded views", "path", s.path, "view", s.Name())
			case err, ok := <-w.Errors:
				if !ok {
					return
				}
				slog.WarnContext(ctx, "Error watching views", "err", err)
			}
		}
	}()
	return nil
}
