package slogobs

import (
	"context"
	"log/slog"

	"github.com/leofalp/unillm/providers/observability"
)

// Observer implements observability.Observer with a slog.Logger.
type Observer struct {
	logger *slog.Logger
}

var _ observability.Observer = (*Observer)(nil)

// New creates an Observer.
//
//	observer := slogobs.New(slogobs.WithFormat(slogobs.FormatJSON), slogobs.WithLevel(slog.LevelDebug))
//	ctx = observability.ContextWithObserver(ctx, observer)
func New(opts ...Option) *Observer {
	cfg := applyOptions(opts...)
	logger := cfg.logger
	if logger == nil {
		logger = slog.New(newHandler(cfg.format, cfg.output, cfg.level))
	}
	return &Observer{logger: logger}
}

// Logger exposes the underlying slog.Logger.
func (o *Observer) Logger() *slog.Logger {
	return o.logger
}

func (o *Observer) Trace(ctx context.Context, msg string, attrs ...observability.Attribute) {
	o.log(ctx, LevelTrace, msg, attrs)
}

func (o *Observer) Debug(ctx context.Context, msg string, attrs ...observability.Attribute) {
	o.log(ctx, slog.LevelDebug, msg, attrs)
}

func (o *Observer) Info(ctx context.Context, msg string, attrs ...observability.Attribute) {
	o.log(ctx, slog.LevelInfo, msg, attrs)
}

func (o *Observer) Warn(ctx context.Context, msg string, attrs ...observability.Attribute) {
	o.log(ctx, slog.LevelWarn, msg, attrs)
}

func (o *Observer) Error(ctx context.Context, msg string, attrs ...observability.Attribute) {
	o.log(ctx, slog.LevelError, msg, attrs)
}

func (o *Observer) log(ctx context.Context, level slog.Level, msg string, attrs []observability.Attribute) {
	if ctx == nil {
		ctx = context.Background()
	}
	if !o.logger.Enabled(ctx, level) {
		return
	}
	slogAttrs := make([]slog.Attr, 0, len(attrs))
	for _, attr := range attrs {
		slogAttrs = append(slogAttrs, slog.Any(attr.Key, attr.Value))
	}
	o.logger.LogAttrs(ctx, level, msg, slogAttrs...)
}
