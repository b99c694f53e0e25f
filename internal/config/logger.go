package config

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"gopkg.in/natefinch/lumberjack.v2"
)

// InitLogger builds the application logger from cfg and installs it as
// the slog default. With a file configured, output rotates through
// lumberjack; otherwise it goes to stderr.
func InitLogger(cfg *LoggingConfig) (*slog.Logger, error) {
	var writer io.Writer = os.Stderr
	toFile := cfg.File != ""
	if toFile {
		if err := os.MkdirAll(filepath.Dir(cfg.File), 0o755); err != nil {
			return nil, fmt.Errorf("failed to create log directory: %w", err)
		}
		writer = &lumberjack.Logger{
			Filename:   cfg.File,
			MaxSize:    cfg.MaxSize,
			MaxBackups: cfg.MaxBackups,
			MaxAge:     cfg.MaxAge,
			Compress:   cfg.Compress,
		}
	}

	opts := &slog.HandlerOptions{Level: parseLogLevel(cfg.Level)}

	var handler slog.Handler
	if strings.EqualFold(cfg.Format, "json") {
		handler = slog.NewJSONHandler(writer, opts)
	} else {
		handler = slog.NewTextHandler(writer, opts)
		// Color only makes sense on a console, never inside a log file.
		if cfg.Color && !toFile {
			handler = newLevelColorHandler(writer, opts)
		}
	}

	logger := slog.New(handler)
	slog.SetDefault(logger)
	return logger, nil
}

var levelColors = map[slog.Level]string{
	slog.LevelDebug: "\033[90m", // gray
	slog.LevelInfo:  "\033[32m", // green
	slog.LevelWarn:  "\033[33m", // yellow
	slog.LevelError: "\033[31m", // red
}

// levelColorHandler renders text records with the leading token wrapped
// in an ANSI color matching the record's severity. The wrapped text
// handler writes into buf so derived handlers keep their accumulated
// attrs and groups; buf and mu are shared across derivations.
type levelColorHandler struct {
	mu     *sync.Mutex
	buf    *bytes.Buffer
	inner  slog.Handler
	writer io.Writer
}

func newLevelColorHandler(w io.Writer, opts *slog.HandlerOptions) *levelColorHandler {
	buf := &bytes.Buffer{}
	return &levelColorHandler{
		mu:     &sync.Mutex{},
		buf:    buf,
		inner:  slog.NewTextHandler(buf, opts),
		writer: w,
	}
}

func (h *levelColorHandler) Handle(ctx context.Context, r slog.Record) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.buf.Reset()
	if err := h.inner.Handle(ctx, r); err != nil {
		return err
	}

	line := h.buf.String()
	if color, ok := levelColors[r.Level]; ok {
		if head, tail, found := strings.Cut(line, " "); found {
			line = color + head + "\033[0m " + tail
		}
	}

	_, err := io.WriteString(h.writer, line)
	return err
}

func (h *levelColorHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.inner.Enabled(ctx, level)
}

func (h *levelColorHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &levelColorHandler{mu: h.mu, buf: h.buf, inner: h.inner.WithAttrs(attrs), writer: h.writer}
}

func (h *levelColorHandler) WithGroup(name string) slog.Handler {
	return &levelColorHandler{mu: h.mu, buf: h.buf, inner: h.inner.WithGroup(name), writer: h.writer}
}

func parseLogLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
