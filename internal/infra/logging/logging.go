package logging

import (
	"context"
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"course-settlement/internal/config"
)

// New builds the process logger. Levels: trace|debug|info|warn|error.
// Formats: json|console; dev forces console. Sampling only applies outside dev.
func New(cfg config.LogConfig, dev bool) *zerolog.Logger {
	return NewWithWriter(os.Stdout, cfg, dev)
}

func NewWithWriter(w io.Writer, cfg config.LogConfig, dev bool) *zerolog.Logger {
	level, err := zerolog.ParseLevel(strings.ToLower(cfg.Level))
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}
	if dev && level > zerolog.DebugLevel {
		level = zerolog.DebugLevel
	}

	if dev || strings.EqualFold(cfg.Format, "console") {
		w = zerolog.ConsoleWriter{Out: w, TimeFormat: time.RFC3339}
	}
	l := zerolog.New(w).Level(level).With().Timestamp().Str("service", "settlement").Logger()
	if cfg.Sampling && !dev {
		// Errors are never dropped; everything below warn keeps 1 in 100 after a burst.
		l = l.Sample(zerolog.LevelSampler{
			TraceSampler: &zerolog.BasicSampler{N: 100},
			DebugSampler: &zerolog.BasicSampler{N: 100},
			InfoSampler:  &zerolog.BurstSampler{Burst: 100, Period: time.Second, NextSampler: &zerolog.BasicSampler{N: 100}},
		})
	}
	return &l
}

type ctxKey struct{}

// requestFields travel in the request context and decorate every log line.
type requestFields struct {
	traceID string
	userID  string
	role    string
}

func fieldsFrom(ctx context.Context) requestFields {
	f, _ := ctx.Value(ctxKey{}).(requestFields)
	return f
}

func WithTraceID(ctx context.Context, id string) context.Context {
	f := fieldsFrom(ctx)
	f.traceID = id
	return context.WithValue(ctx, ctxKey{}, f)
}

func WithUserID(ctx context.Context, id string) context.Context {
	f := fieldsFrom(ctx)
	f.userID = id
	return context.WithValue(ctx, ctxKey{}, f)
}

func WithRole(ctx context.Context, role string) context.Context {
	f := fieldsFrom(ctx)
	f.role = role
	return context.WithValue(ctx, ctxKey{}, f)
}

// TraceID returns the request trace id, if any.
func TraceID(ctx context.Context) string { return fieldsFrom(ctx).traceID }

// With returns base enriched with the request fields found in ctx.
func With(ctx context.Context, base *zerolog.Logger) *zerolog.Logger {
	f := fieldsFrom(ctx)
	if f == (requestFields{}) {
		return base
	}
	c := base.With()
	if f.traceID != "" {
		c = c.Str("trace_id", f.traceID)
	}
	if f.userID != "" {
		c = c.Str("user_id", f.userID)
	}
	if f.role != "" {
		c = c.Str("role", f.role)
	}
	l := c.Logger()
	return &l
}

// TraceDuration logs entry and exit of name at trace level.
//
//	defer logging.TraceDuration(u.log, "LedgerUC.Transition")()
func TraceDuration(logger *zerolog.Logger, name string) func() {
	start := time.Now()
	logger.Trace().Str("method", name).Msg("start")
	return func() {
		logger.Trace().Str("method", name).Dur("duration", time.Since(start)).Msg("finish")
	}
}
