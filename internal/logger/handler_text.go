package logger

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"
)

// ANSI color codes.
const (
	colorReset  = "\033[0m"
	colorRed    = "\033[31m"
	colorGreen  = "\033[32m"
	colorYellow = "\033[33m"
	colorGray   = "\033[90m"
)

// ColorTextHandler is a slog.Handler that renders human-readable lines of
// the form "[2006-01-02 15:04:05] [LEVEL] message key=value", optionally
// colorizing the level tag when the destination is a terminal.
type ColorTextHandler struct {
	w     io.Writer
	opts  *slog.HandlerOptions
	color bool
	attrs []slog.Attr
	mu    *sync.Mutex
}

// NewColorTextHandler creates a handler writing to w.
func NewColorTextHandler(w io.Writer, opts *slog.HandlerOptions, color bool) *ColorTextHandler {
	if opts == nil {
		opts = &slog.HandlerOptions{}
	}
	return &ColorTextHandler{
		w:     w,
		opts:  opts,
		color: color,
		mu:    &sync.Mutex{},
	}
}

// Enabled reports whether the handler handles records at the given level.
func (h *ColorTextHandler) Enabled(_ context.Context, level slog.Level) bool {
	minLevel := slog.LevelInfo
	if h.opts.Level != nil {
		minLevel = h.opts.Level.Level()
	}
	return level >= minLevel
}

// Handle formats and writes the record.
func (h *ColorTextHandler) Handle(_ context.Context, r slog.Record) error {
	var sb strings.Builder

	sb.WriteString("[")
	sb.WriteString(r.Time.Format("2006-01-02 15:04:05"))
	sb.WriteString("] ")

	level := r.Level.String()
	if h.color {
		sb.WriteString(h.levelColor(r.Level))
		sb.WriteString("[")
		sb.WriteString(level)
		sb.WriteString("]")
		sb.WriteString(colorReset)
	} else {
		sb.WriteString("[")
		sb.WriteString(level)
		sb.WriteString("]")
	}
	sb.WriteString(" ")
	sb.WriteString(r.Message)

	for _, attr := range h.attrs {
		h.appendAttr(&sb, attr)
	}
	r.Attrs(func(attr slog.Attr) bool {
		h.appendAttr(&sb, attr)
		return true
	})

	sb.WriteString("\n")

	h.mu.Lock()
	defer h.mu.Unlock()
	_, err := h.w.Write([]byte(sb.String()))
	return err
}

func (h *ColorTextHandler) appendAttr(sb *strings.Builder, attr slog.Attr) {
	if attr.Equal(slog.Attr{}) {
		return
	}
	sb.WriteString(" ")
	if h.color {
		sb.WriteString(colorGray)
		sb.WriteString(attr.Key)
		sb.WriteString("=")
		sb.WriteString(colorReset)
	} else {
		sb.WriteString(attr.Key)
		sb.WriteString("=")
	}
	sb.WriteString(fmt.Sprintf("%v", attr.Value.Any()))
}

func (h *ColorTextHandler) levelColor(level slog.Level) string {
	switch {
	case level >= slog.LevelError:
		return colorRed
	case level >= slog.LevelWarn:
		return colorYellow
	case level >= slog.LevelInfo:
		return colorGreen
	default:
		return colorGray
	}
}

// WithAttrs returns a new handler with the given attributes bound.
func (h *ColorTextHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	bound := make([]slog.Attr, 0, len(h.attrs)+len(attrs))
	bound = append(bound, h.attrs...)
	bound = append(bound, attrs...)
	return &ColorTextHandler{
		w:     h.w,
		opts:  h.opts,
		color: h.color,
		attrs: bound,
		mu:    h.mu, // share the mutex so writers don't interleave
	}
}

// WithGroup returns the handler unchanged; groups are flattened.
func (h *ColorTextHandler) WithGroup(_ string) slog.Handler {
	return h
}
