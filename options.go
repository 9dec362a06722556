package colgo

import (
	"log/slog"

	"github.com/hupe1980/colgo/blobstore"
	"github.com/hupe1980/colgo/codec"
	"github.com/hupe1980/colgo/persistence"
	"github.com/hupe1980/colgo/resource"
)

type options struct {
	codec            codec.Codec
	committer        blobstore.Committer
	compression      persistence.Compression
	compressFiles    bool
	resources        *resource.Controller
	metricsCollector MetricsCollector
	logger           *Logger
}

// Option configures a DB.
type Option func(*options)

// WithCodec configures the codec of catalog manifests.
//
// If nil is passed, codec.Default is used.
func WithCodec(c codec.Codec) Option {
	return func(o *options) {
		if c == nil {
			c = codec.Default
		}
		o.codec = c
	}
}

// WithCommitter configures how Save publishes catalog versions.
//
// By default the commit pointer is a blob in the target store, which only
// serializes writers within one process. Use a conditional-write backend for
// several processes:
//
//	committer := s3.NewDDBCommitter(ddbClient, "colgo-commits", "s3://bucket/warehouse")
//	db := colgo.New(colgo.WithCommitter(committer))
func WithCommitter(c blobstore.Committer) Option {
	return func(o *options) {
		o.committer = c
	}
}

// WithCompression selects the envelope compression of saved tables and
// exported files. Saved tables default to persistence.CompressionLZ4; exported
// files are written raw unless this option is set.
func WithCompression(c persistence.Compression) Option {
	return func(o *options) {
		o.compression = c
		o.compressFiles = true
	}
}

// WithResourceController limits encode workers, decode memory and IO rate.
func WithResourceController(rc *resource.Controller) Option {
	return func(o *options) {
		o.resources = rc
	}
}

// WithMetricsCollector configures a metrics collector for monitoring operations.
// Pass nil to disable metrics collection.
//
//	metrics := &colgo.BasicMetricsCollector{}
//	db := colgo.New(colgo.WithMetricsCollector(metrics))
//	// ... use db ...
//	stats := metrics.GetStats()
func WithMetricsCollector(mc MetricsCollector) Option {
	return func(o *options) {
		if mc == nil {
			mc = NoopMetricsCollector{}
		}
		o.metricsCollector = mc
	}
}

// WithLogger configures structured logging for operations.
// Pass nil to disable logging.
//
//	logger := colgo.NewJSONLogger(slog.LevelInfo)
//	db := colgo.New(colgo.WithLogger(logger))
func WithLogger(logger *Logger) Option {
	return func(o *options) {
		if logger == nil {
			logger = NoopLogger()
		}
		o.logger = logger
	}
}

// WithLogLevel creates a text logger with the specified level and sets it.
// Convenience wrapper for WithLogger(NewTextLogger(level)).
func WithLogLevel(level slog.Level) Option {
	return func(o *options) {
		o.logger = NewTextLogger(level)
	}
}

func applyOptions(optFns []Option) options {
	o := options{
		codec:            codec.Default,
		compression:      persistence.CompressionLZ4,
		metricsCollector: NoopMetricsCollector{},
		logger:           NoopLogger(),
	}
	for _, fn := range optFns {
		if fn != nil {
			fn(&o)
		}
	}
	return o
}
