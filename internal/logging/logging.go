package logging

import (
	"context"
	"log/slog"
	"os"
	"strings"

	"github.com/google/uuid"
)

type ctxKey struct{}

func Init(service, level, appEnv string) *slog.Logger {
	lvl := parseLevel(level)
	opts := &slog.HandlerOptions{Level: lvl}

	var handler slog.Handler
	if appEnv == "development" {
		handler = slog.NewTextHandler(os.Stdout, opts)
	} else {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	}

	logger := slog.New(handler).With("service", service)
	slog.SetDefault(logger)
	return logger
}

func FromContext(ctx context.Context) *slog.Logger {
	if l, ok := ctx.Value(ctxKey{}).(*slog.Logger); ok {
		return l
	}
	return slog.Default()
}

func WithLogger(ctx context.Context, l *slog.Logger) context.Context {
	return context.WithValue(ctx, ctxKey{}, l)
}

// WithPass tags the context logger with a fresh pass id and the entry point
// that started the pass.
func WithPass(ctx context.Context, entryPoint string) (context.Context, *slog.Logger) {
	l := FromContext(ctx).With("pass_id", uuid.NewString(), "entry_point", entryPoint)
	return WithLogger(ctx, l), l
}

func parseLevel(s string) slog.Level {
	switch strings.ToLower(s) {
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
