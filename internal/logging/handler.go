package logging

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"

	"golang.org/x/term"
)

const timeFormat = "[2006/01/02 15:04:05]"

// Handler writes one line per record, "[time] [value]... message", with the
// attribute keys left out. Levels other than INFO are written after the time.
type Handler struct {
	level slog.Leveler
	mu    *sync.Mutex
	out   io.Writer
	// fields holds the attributes added with WithAttrs, already formatted.
	fields []string
}

func NewHandler(out io.Writer, opts *slog.HandlerOptions) *Handler {
	var level slog.Leveler = slog.LevelInfo
	if opts != nil && opts.Level != nil {
		level = opts.Level
	}
	return &Handler{level: level, mu: &sync.Mutex{}, out: out}
}

func (h *Handler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.level.Level()
}

func (h *Handler) WithAttrs(attrs []slog.Attr) slog.Handler {
	fields := make([]string, len(h.fields), len(h.fields)+len(attrs))
	copy(fields, h.fields)
	for _, a := range attrs {
		fields = appendAttr(fields, a)
	}
	return &Handler{level: h.level, mu: h.mu, out: h.out, fields: fields}
}

// WithGroup returns h: keys are never written, so groups change nothing.
func (h *Handler) WithGroup(string) slog.Handler {
	return h
}

func (h *Handler) Handle(_ context.Context, r slog.Record) error {
	fields := make([]string, 0, 3+len(h.fields)+r.NumAttrs())
	if !r.Time.IsZero() {
		fields = append(fields, r.Time.Format(timeFormat))
	}
	if r.Level != slog.LevelInfo {
		fields = append(fields, "["+r.Level.String()+"]")
	}
	fields = append(fields, h.fields...)
	r.Attrs(func(a slog.Attr) bool {
		fields = appendAttr(fields, a)
		return true
	})
	fields = append(fields, r.Message)
	line := strings.Join(fields, " ") + "\n"

	h.mu.Lock()
	defer h.mu.Unlock()
	_, err := io.WriteString(h.out, line)
	return err
}

// appendAttr formats a as "[value]", flattening groups.
func appendAttr(fields []string, a slog.Attr) []string {
	a.Value = a.Value.Resolve()
	if a.Equal(slog.Attr{}) {
		return fields
	}
	if a.Value.Kind() == slog.KindGroup {
		for _, member := range a.Value.Group() {
			fields = appendAttr(fields, member)
		}
		return fields
	}
	return append(fields, "["+a.Value.String()+"]")
}

// New sends info messages to stdout, bracketed for terminals and as
// JSON when stdout is redirected, and errors to stderr as JSON.
func New(level slog.Level) Logger {
	opts := &slog.HandlerOptions{
		Level: level,
	}
	var handlerStdOut slog.Handler
	if term.IsTerminal(int(os.Stdout.Fd())) {
		handlerStdOut = NewHandler(os.Stdout, opts)
	} else {
		handlerStdOut = slog.NewJSONHandler(os.Stdout, opts)
	}
	handlerStdErr := slog.NewJSONHandler(os.Stderr, opts)
	return Logger{
		InfoLog:  slog.New(handlerStdOut),
		ErrorLog: slog.New(handlerStdErr),
	}
}
