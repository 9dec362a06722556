package persistence

import (
	"log/slog"

	"github.com/hupe1980/colgo/internal/fs"
	"github.com/hupe1980/colgo/resource"
	"github.com/hupe1980/colgo/storage"
)

type options struct {
	compression Compression
	envelope    bool
	rc          *resource.Controller
	logger      *slog.Logger
	tableOpts   []storage.TableOption
	fsys        fs.FileSystem
}

// Option configures file and blob exports and imports.
type Option func(*options)

func defaultOptions() options {
	return options{
		logger: slog.New(slog.DiscardHandler),
		fsys:   fs.Default,
	}
}

func applyOptions(opts []Option) options {
	o := defaultOptions()
	for _, fn := range opts {
		fn(&o)
	}
	return o
}

// WithCompression wraps exported files in a compressed envelope.
// Blob exports always use the envelope; this selects its algorithm.
func WithCompression(c Compression) Option {
	return func(o *options) {
		o.compression = c
		o.envelope = true
	}
}

// WithResourceController throttles export and import IO and reserves memory
// for decoding through rc.
func WithResourceController(rc *resource.Controller) Option {
	return func(o *options) {
		o.rc = rc
	}
}

// WithLogger sets the logger for export and import events.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

// WithTableOptions passes options to the restored table, e.g. storage.WithLogger.
func WithTableOptions(opts ...storage.TableOption) Option {
	return func(o *options) {
		o.tableOpts = append(o.tableOpts, opts...)
	}
}

func withFileSystem(fsys fs.FileSystem) Option {
	return func(o *options) {
		o.fsys = fsys
	}
}
