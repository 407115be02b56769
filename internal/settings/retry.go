package settings

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/example/forgery-check/internal/logging"
)

type retrier struct {
	logger         *zap.Logger
	attempts       int
	initialBackoff time.Duration
	maxBackoff     time.Duration
}

func newRetrier(logger *zap.Logger) retrier {
	return retrier{
		logger:         logger,
		attempts:       3,
		initialBackoff: 50 * time.Millisecond,
		maxBackoff:     time.Second,
	}
}

// do runs fn until it succeeds, fails permanently, or attempts run out.
// ErrNotFound is returned as is.
func (r retrier) do(ctx context.Context, operation, key string, fn func() error) error {
	backoff := r.initialBackoff
	opLogger := logging.WithOperation(r.logger, operation, "").With(zap.String("key", key))
	var err error
	for attempt := 0; attempt < max(r.attempts, 1); attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return logging.NewSettingsError(operation, key, attempt, ctx.Err())
			case <-time.After(backoff):
			}
			if next := backoff * 2; next <= r.maxBackoff {
				backoff = next
			}
		}

		err = fn()
		if err == nil {
			if attempt > 0 {
				opLogger.Info("settings operation succeeded after retry", zap.Int("attempt", attempt+1))
			}
			return nil
		}
		if errors.Is(err, ErrNotFound) {
			return err
		}

		if !isTransientError(err) || attempt == r.attempts-1 {
			opErr := &logging.OperationError{Operation: operation, Key: key, Attempts: attempt + 1, Err: err}
			r.logger.Error("settings operation failed", opErr.Fields()...)
			return opErr
		}

		opLogger.Warn("transient settings error", zap.Error(err), zap.Int("attempt", attempt+1))
	}
	return logging.NewSettingsError(operation, key, max(r.attempts, 1), err)
}

func isTransientError(err error) bool {
	if err == nil {
		return false
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}

	var netErr interface{ Timeout() bool }
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}

	var temporary interface{ Temporary() bool }
	if errors.As(err, &temporary) && temporary.Temporary() {
		return true
	}

	return false
}
