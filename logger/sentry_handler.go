package logger

import (
	"context"
	"log/slog"

	"github.com/getsentry/sentry-go"
)

// Capturer 上报错误的函数，默认为 sentry.CaptureException
type Capturer func(err error) *sentry.EventID

// SentryHandler 包装 slog.Handler，error 级别的 "error" 属性会上报到 Sentry
type SentryHandler struct {
	handler slog.Handler
	capture Capturer
	attrs   []slog.Attr
}

// NewSentryHandler 包装给定的 handler
func NewSentryHandler(handler slog.Handler) *SentryHandler {
	return &SentryHandler{handler: handler, capture: sentry.CaptureException}
}

// WithCapturer 替换上报函数，测试中使用
func (h *SentryHandler) WithCapturer(c Capturer) *SentryHandler {
	return &SentryHandler{handler: h.handler, capture: c, attrs: h.attrs}
}

func (h *SentryHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.handler.Enabled(ctx, level)
}

func (h *SentryHandler) Handle(ctx context.Context, r slog.Record) error {
	if r.Level >= slog.LevelError {
		captured := false
		report := func(a slog.Attr) bool {
			if a.Key == "error" {
				if err, ok := a.Value.Any().(error); ok {
					h.capture(err)
					captured = true
					return false
				}
			}
			return true
		}
		r.Attrs(report)
		if !captured {
			for _, a := range h.attrs {
				if !report(a) {
					break
				}
			}
		}
	}
	return h.handler.Handle(ctx, r)
}

func (h *SentryHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	merged := append(append([]slog.Attr(nil), h.attrs...), attrs...)
	return &SentryHandler{handler: h.handler.WithAttrs(attrs), capture: h.capture, attrs: merged}
}

func (h *SentryHandler) WithGroup(name string) slog.Handler {
	return &SentryHandler{handler: h.handler.WithGroup(name), capture: h.capture, attrs: h.attrs}
}
