package slogobs

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"sync"
)

// compactHandler writes "time LEVEL message {attrs}" lines.
type compactHandler struct {
	mu     *sync.Mutex
	output io.Writer
	level  slog.Leveler
	attrs  []slog.Attr
	group  string
}

func newCompactHandler(output io.Writer, level slog.Leveler) *compactHandler {
	return &compactHandler{mu: &sync.Mutex{}, output: output, level: level}
}

func (h *compactHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.level.Level()
}

func (h *compactHandler) Handle(_ context.Context, r slog.Record) error {
	fields := make(map[string]any, len(h.attrs)+r.NumAttrs())
	for _, attr := range h.attrs {
		fields[attr.Key] = attr.Value.Resolve().Any()
	}
	r.Attrs(func(attr slog.Attr) bool {
		key := attr.Key
		if h.group != "" {
			key = h.group + "." + key
		}
		fields[key] = attr.Value.Resolve().Any()
		return true
	})

	line := fmt.Sprintf("%s %5s %s", r.Time.Format("2006-01-02 15:04:05"), levelName(r.Level), r.Message)
	if len(fields) > 0 {
		encoded, err := json.Marshal(fields)
		if err != nil {
			encoded = []byte(`{"attrs":"unencodable"}`)
		}
		line += " " + string(encoded)
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	_, err := io.WriteString(h.output, line+"\n")
	return err
}

func (h *compactHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	clone := *h
	clone.attrs = append(append([]slog.Attr(nil), h.attrs...), attrs...)
	return &clone
}

func (h *compactHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	clone := *h
	if clone.group != "" {
		clone.group += "." + name
	} else {
		clone.group = name
	}
	return &clone
}

// newHandler picks the slog.Handler for format.
func newHandler(format Format, output io.Writer, level slog.Level) slog.Handler {
	options := &slog.HandlerOptions{
		Level: level,
		ReplaceAttr: func(_ []string, attr slog.Attr) slog.Attr {
			if attr.Key == slog.LevelKey {
				if lvl, ok := attr.Value.Any().(slog.Level); ok {
					attr.Value = slog.StringValue(levelName(lvl))
				}
			}
			return attr
		},
	}
	switch format {
	case FormatJSON:
		return slog.NewJSONHandler(output, options)
	case FormatText:
		return slog.NewTextHandler(output, options)
	default:
		return newCompactHandler(output, level)
	}
}
