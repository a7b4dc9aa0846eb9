// Package logging configures the process-wide slog logger.
package logging

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
)

// Options controls where and how log records are written.
type Options struct {
	// Path, when set, receives every record in addition to stdout/stderr.
	Path string
	// Format is "text" or "json".
	Format string
	Level  slog.Level
}

// splitHandler sends records below ERROR to out and the rest to errOut.
type splitHandler struct {
	min    slog.Level
	out    slog.Handler
	errOut slog.Handler
}

func (h *splitHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.min
}

func (h *splitHandler) Handle(ctx context.Context, r slog.Record) error {
	if r.Level >= slog.LevelError {
		return h.errOut.Handle(ctx, r)
	}
	return h.out.Handle(ctx, r)
}

func (h *splitHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &splitHandler{min: h.min, out: h.out.WithAttrs(attrs), errOut: h.errOut.WithAttrs(attrs)}
}

func (h *splitHandler) WithGroup(name string) slog.Handler {
	return &splitHandler{min: h.min, out: h.out.WithGroup(name), errOut: h.errOut.WithGroup(name)}
}

// NewHandler builds the split handler over the given writers.
func NewHandler(out, errOut io.Writer, format string, level slog.Level) (slog.Handler, error) {
	opts := &slog.HandlerOptions{Level: level}

	var build func(io.Writer) slog.Handler
	switch format {
	case "", "text":
		build = func(w io.Writer) slog.Handler { return slog.NewTextHandler(w, opts) }
	case "json":
		build = func(w io.Writer) slog.Handler { return slog.NewJSONHandler(w, opts) }
	default:
		return nil, fmt.Errorf("unknown log format %q", format)
	}

	return &splitHandler{min: level, out: build(out), errOut: build(errOut)}, nil
}

// Setup installs the default logger. The returned cleanup closes the log
// file and is nil when no file was opened.
func Setup(o Options) (func(), error) {
	out, errOut := io.Writer(os.Stdout), io.Writer(os.Stderr)

	var cleanup func()
	if o.Path != "" {
		f, err := os.OpenFile(o.Path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			return nil, fmt.Errorf("opening log file: %w", err)
		}
		cleanup = func() { f.Close() }
		out = io.MultiWriter(out, f)
		errOut = io.MultiWriter(errOut, f)
	}

	h, err := NewHandler(out, errOut, o.Format, o.Level)
	if err != nil {
		if cleanup != nil {
			cleanup()
		}
		return nil, err
	}
	slog.SetDefault(slog.New(h))
	return cleanup, nil
}
