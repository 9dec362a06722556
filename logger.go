package colgo

import (
	"context"
	"log/slog"
	"os"
)

// Logger wraps slog.Logger with colgo-specific context.
// This provides structured logging with consistent field names.
type Logger struct {
	*slog.Logger
}

// NewLogger creates a new Logger with the given handler.
// If handler is nil, uses default text handler to stderr.
func NewLogger(handler slog.Handler) *Logger {
	if handler == nil {
		handler = slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
			Level: slog.LevelInfo,
		})
	}
	return &Logger{
		Logger: slog.New(handler),
	}
}

// NewJSONLogger creates a Logger that outputs JSON-formatted logs.
// level sets the minimum log level (e.g., slog.LevelDebug, slog.LevelInfo).
func NewJSONLogger(level slog.Level) *Logger {
	handler := slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	})
	return &Logger{
		Logger: slog.New(handler),
	}
}

// NewTextLogger creates a Logger that outputs human-readable text logs.
func NewTextLogger(level slog.Level) *Logger {
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	})
	return &Logger{
		Logger: slog.New(handler),
	}
}

// NoopLogger creates a Logger that discards all log output.
func NoopLogger() *Logger {
	return &Logger{
		Logger: slog.New(slog.DiscardHandler),
	}
}

// WithTable adds a table field to the logger.
func (l *Logger) WithTable(name string) *Logger {
	return &Logger{
		Logger: l.Logger.With("table", name),
	}
}

// LogEncode logs the encoding of a table.
func (l *Logger) LogEncode(ctx context.Context, table string, chunks int, err error) {
	if err != nil {
		l.ErrorContext(ctx, "encode failed",
			"table", table,
			"error", err,
		)
	} else {
		l.DebugContext(ctx, "encode completed",
			"table", table,
			"chunks", chunks,
		)
	}
}

// LogExport logs a file export.
func (l *Logger) LogExport(ctx context.Context, table, path string, err error) {
	if err != nil {
		l.ErrorContext(ctx, "export failed",
			"table", table,
			"path", path,
			"error", err,
		)
	} else {
		l.InfoContext(ctx, "export completed",
			"table", table,
			"path", path,
		)
	}
}

// LogImport logs a file import.
func (l *Logger) LogImport(ctx context.Context, table, path string, err error) {
	if err != nil {
		l.ErrorContext(ctx, "import failed",
			"table", table,
			"path", path,
			"error", err,
		)
	} else {
		l.InfoContext(ctx, "import completed",
			"table", table,
			"path", path,
		)
	}
}

// LogSave logs a catalog commit.
func (l *Logger) LogSave(ctx context.Context, version uint64, tables int, err error) {
	if err != nil {
		l.ErrorContext(ctx, "save failed",
			"version", version,
			"error", err,
		)
	} else {
		l.InfoContext(ctx, "catalog saved",
			"version", version,
			"tables", tables,
		)
	}
}

// LogLoad logs a catalog load.
func (l *Logger) LogLoad(ctx context.Context, version uint64, tables int, err error) {
	if err != nil {
		l.ErrorContext(ctx, "load failed",
			"version", version,
			"error", err,
		)
	} else {
		l.InfoContext(ctx, "catalog loaded",
			"version", version,
			"tables", tables,
		)
	}
}
