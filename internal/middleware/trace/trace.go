// Package trace assigns an ID to every bot turn and logs its start and end.
package trace

import (
	"context"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	applog "catat/internal/log"
)

type contextKey struct{}

// Tracer logs turns and keeps running counters.
type Tracer struct {
	logger  *applog.Logger
	metrics *Metrics
	now     func() time.Time
}

// Metrics tracks turn counters. Fields are updated atomically.
type Metrics struct {
	TotalTurns          int64
	FailedTurns         int64
	AverageResponseTime int64 // in microseconds
}

func NewTracer(logger *applog.Logger) *Tracer {
	if logger == nil {
		logger = applog.New(applog.DefaultConfig())
	}
	return &Tracer{
		logger:  logger.WithComponent(applog.ComponentTrace),
		metrics: &Metrics{},
		now:     time.Now,
	}
}

// Begin starts a turn. The returned context carries the turn ID and a
// logger tagged with it; end must be called once with the turn's error.
func (t *Tracer) Begin(ctx context.Context, chatID int64, command string) (context.Context, func(err error)) {
	start := t.now()
	turnID := GenerateTurnID()

	logger := t.logger.With(applog.FieldTurnID, turnID, applog.FieldChatID, chatID)
	ctx = context.WithValue(ctx, contextKey{}, turnID)
	ctx = applog.WithContext(ctx, logger)

	logger.DebugContext(ctx, "Turn started", applog.FieldCommand, command)
	total := atomic.AddInt64(&t.metrics.TotalTurns, 1)

	return ctx, func(err error) {
		elapsed := t.now().Sub(start)
		// Cumulative moving average.
		prev := atomic.LoadInt64(&t.metrics.AverageResponseTime)
		atomic.StoreInt64(&t.metrics.AverageResponseTime, prev+(elapsed.Microseconds()-prev)/total)

		level := slog.LevelInfo
		args := []any{
			applog.FieldCommand, command,
			applog.FieldDuration, elapsed.Milliseconds(),
			applog.FieldSuccess, err == nil,
		}
		if err != nil {
			atomic.AddInt64(&t.metrics.FailedTurns, 1)
			level = slog.LevelError
			args = append(args, applog.FieldError, err)
		}
		logger.Log(ctx, level, "Turn completed", args...)
	}
}

// Snapshot returns a copy of the counters.
func (t *Tracer) Snapshot() Metrics {
	return Metrics{
		TotalTurns:          atomic.LoadInt64(&t.metrics.TotalTurns),
		FailedTurns:         atomic.LoadInt64(&t.metrics.FailedTurns),
		AverageResponseTime: atomic.LoadInt64(&t.metrics.AverageResponseTime),
	}
}

// TurnID returns the turn ID stored by Begin, or "".
func TurnID(ctx context.Context) string {
	if id, ok := ctx.Value(contextKey{}).(string); ok {
		return id
	}
	return ""
}

// GenerateTurnID creates a unique turn ID for tracing
func GenerateTurnID() string {
	return "turn_" + uuid.NewString()
}
