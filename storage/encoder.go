package storage

import (
	"context"
	"fmt"
	"log/slog"
	"runtime"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/hupe1980/colgo/model"
	"github.com/hupe1980/colgo/resource"
)

// EncodingSpec names the target encoding of each column, in schema order.
type EncodingSpec []EncodingType

// UniformEncoding returns a spec applying enc to n columns.
func UniformEncoding(enc EncodingType, n int) EncodingSpec {
	spec := make(EncodingSpec, n)
	for i := range spec {
		spec[i] = enc
	}
	return spec
}

type encoderOptions struct {
	rc     *resource.Controller
	logger *slog.Logger
}

// EncoderOption configures NewEncoder.
type EncoderOption func(*encoderOptions)

// WithResourceController bounds concurrent encode jobs and their memory.
func WithResourceController(rc *resource.Controller) EncoderOption {
	return func(o *encoderOptions) {
		o.rc = rc
	}
}

// WithEncoderLogger sets the logger for encode runs.
func WithEncoderLogger(l *slog.Logger) EncoderOption {
	return func(o *encoderOptions) {
		o.logger = l
	}
}

// Encoder replaces the columns of sealed chunks with compressed encodings.
type Encoder struct {
	rc     *resource.Controller
	logger *slog.Logger
}

// NewEncoder creates an encoder.
func NewEncoder(opts ...EncoderOption) *Encoder {
	o := encoderOptions{logger: slog.New(slog.DiscardHandler)}
	for _, fn := range opts {
		fn(&o)
	}
	return &Encoder{rc: o.rc, logger: o.logger}
}

// EncodeChunk encodes every column of c whose encoding differs from spec.
// Each new column is built completely before it is published.
func (e *Encoder) EncodeChunk(c *Chunk, spec EncodingSpec) error {
	if !c.Sealed() {
		return fmt.Errorf("%w: chunk %d", ErrChunkMutable, c.ID())
	}
	if len(spec) != c.ColumnCount() {
		return fmt.Errorf("%w: spec for %d columns, chunk has %d", model.ErrSchemaMismatch, len(spec), c.ColumnCount())
	}
	for i, enc := range spec {
		id := model.ColumnID(i)
		col := c.Column(id)
		if col.Encoding() == enc {
			continue
		}
		encoded, err := EncodeColumn(col, enc)
		if err != nil {
			return fmt.Errorf("chunk %d column %d: %w", c.ID(), i, err)
		}
		if err := c.ReplaceColumn(id, encoded); err != nil {
			return err
		}
	}
	return nil
}

// EncodeTable encodes all sealed chunks of t in parallel. Open chunks are
// skipped; call t.SealOpenChunks first to include them.
func (e *Encoder) EncodeTable(ctx context.Context, t *Table, spec EncodingSpec) error {
	if len(spec) != t.ColumnCount() {
		return fmt.Errorf("%w: spec for %d columns, table has %d", model.ErrSchemaMismatch, len(spec), t.ColumnCount())
	}

	start := time.Now()
	chunks := t.Chunks()
	e.logger.Info("Encode started", "chunkCount", len(chunks))

	g, ctx := errgroup.WithContext(ctx)
	limit := e.rc.Workers()
	if limit == 0 {
		limit = runtime.GOMAXPROCS(0)
	}
	g.SetLimit(limit)

	for _, c := range chunks {
		if !c.Sealed() {
			continue
		}
		g.Go(func() error {
			return e.encodeJob(ctx, c, spec)
		})
	}

	if err := g.Wait(); err != nil {
		e.logger.Error("Encode failed", "error", err)
		return err
	}
	e.logger.Info("Encode completed", "chunkCount", len(chunks), "duration", time.Since(start))
	return nil
}

func (e *Encoder) encodeJob(ctx context.Context, c *Chunk, spec EncodingSpec) error {
	if err := e.rc.AcquireWorker(ctx); err != nil {
		return err
	}
	defer e.rc.ReleaseWorker()

	reserved, err := e.rc.Reserve(ctx, int64(c.MemoryUsage()))
	if err != nil {
		return err
	}
	defer e.rc.Release(reserved)

	if err := e.EncodeChunk(c, spec); err != nil {
		return err
	}
	e.logger.Debug("Chunk encoded", "chunkID", c.ID(), "rowCount", c.Size())
	return nil
}
