package logger

import (
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/lmittmann/tint"
	"github.com/pkg/errors"
)

type Logger = *slog.Logger

// ParseLevel 解析日志级别，未知值按 info 处理
func ParseLevel(s string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// NewLogger 彩色文本日志，输出到 stderr
func NewLogger(level slog.Level) Logger {
	return slog.New(newTintHandler(os.Stderr, level))
}

// NewLoggerWithSentry 额外把 error 级别日志上报到 Sentry
func NewLoggerWithSentry(level slog.Level, dsn string) (Logger, error) {
	if err := sentry.Init(sentry.ClientOptions{Dsn: dsn}); err != nil {
		return nil, errors.Wrap(err, "init sentry")
	}
	return slog.New(NewSentryHandler(newTintHandler(os.Stderr, level))), nil
}

// Flush 退出前等待 Sentry 事件发送完成
func Flush() {
	sentry.Flush(2 * time.Second)
}

func newTintHandler(w io.Writer, level slog.Level) slog.Handler {
	return tint.NewHandler(w, &tint.Options{
		Level:      level,
		TimeFormat: time.TimeOnly,
	})
}
