package table

import (
	"log/slog"

	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/maruel/livetable/query"
)

// Option configures a Table created by New.
type Option func(*options)

type options struct {
	engine query.Engine
	mem    memory.Allocator
	logger *slog.Logger
}

// WithEngine sets the query engine used by ToView. The default is a
// query.Pipeline using the table allocator.
func WithEngine(e query.Engine) Option {
	return func(o *options) { o.engine = e }
}

// WithAllocator sets the allocator of snapshot records. The default is
// memory.DefaultAllocator.
func WithAllocator(mem memory.Allocator) Option {
	return func(o *options) { o.mem = mem }
}

// WithLogger sets the logger. The default is slog.Default() at creation time.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) { o.logger = l }
}
