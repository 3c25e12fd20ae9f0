// Package service implements the forum's domain operations: users, topics,
// posts, comments, the vote ledger, and the moderation workflow. Every
// operation is a short-lived unit of work against the database; the only
// in-process state services hold is their injected dependencies.
package service

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"runtime/debug"
	"time"

	"levelforum/internal/middleware"
	"levelforum/internal/models"

	"gorm.io/gorm"
)

// opParams is a free-form snapshot of an operation's inputs for the error sink.
type opParams map[string]any

// SafeExecutor records failed operations to the error-sink table before the
// failure propagates. It holds its own database handle so the primary
// transaction of a failed operation cannot block logging.
type SafeExecutor struct {
	db *gorm.DB
}

// NewSafeExecutor returns a SafeExecutor writing to the given database.
func NewSafeExecutor(db *gorm.DB) *SafeExecutor {
	return &SafeExecutor{db: db}
}

// Execute runs fn, records any failure through the executor, and returns the
// original result unchanged. It is the uniform seam where a retry policy
// would sit; today it only adds observability.
func Execute[T any](ctx context.Context, safe *SafeExecutor, source string, params opParams, fn func(ctx context.Context) (T, error)) (T, error) {
	out, err := fn(ctx)
	if err != nil {
		safe.record(ctx, source, params, err)
	}
	return out, err
}

// record writes one error-sink entry in its own unit of work. It must never
// fail the caller: any error or panic while logging is swallowed.
func (s *SafeExecutor) record(ctx context.Context, source string, params opParams, opErr error) {
	// Cancellation is not an application failure.
	if errors.Is(opErr, context.Canceled) || errors.Is(opErr, context.DeadlineExceeded) {
		return
	}

	defer func() {
		_ = recover()
	}()

	middleware.OperationFailures.WithLabelValues(source, models.ErrorCode(opErr)).Inc()
	middleware.Logger.ErrorContext(ctx, "operation failed",
		slog.String("source", source),
		slog.String("error", opErr.Error()),
	)

	snapshot, err := json.Marshal(params)
	if err != nil {
		snapshot = nil
	}

	entry := models.ErrorLog{
		Source:    source,
		Message:   opErr.Error(),
		Stack:     string(debug.Stack()),
		Params:    string(snapshot),
		CreatedAt: time.Now().UTC(),
	}

	// The operation's context may already be dead; the sink write still gets
	// a bounded window of its own.
	logCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()

	_ = s.db.WithContext(logCtx).Create(&entry).Error
}
