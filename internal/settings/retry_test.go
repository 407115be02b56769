package settings

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/example/forgery-check/internal/logging"
)

type transientTestError struct{}

func (transientTestError) Error() string   { return "transient" }
func (transientTestError) Timeout() bool   { return true }
func (transientTestError) Temporary() bool { return true }

func TestRetrierRetriesTransientErrors(t *testing.T) {
	r := retrier{
		logger:         zap.NewNop(),
		attempts:       3,
		initialBackoff: time.Millisecond,
		maxBackoff:     2 * time.Millisecond,
	}

	attempts := 0
	err := r.do(context.Background(), "test.operation", EndpointKey, func() error {
		attempts++
		if attempts < 2 {
			return transientTestError{}
		}
		return nil
	})

	if err != nil {
		t.Fatalf("expected success, got error: %v", err)
	}
	if attempts != 2 {
		t.Fatalf("expected 2 attempts, got %d", attempts)
	}
}

func TestRetrierReturnsOperationError(t *testing.T) {
	r := retrier{
		logger:         zap.NewNop(),
		attempts:       2,
		initialBackoff: time.Millisecond,
		maxBackoff:     2 * time.Millisecond,
	}

	attempts := 0
	err := r.do(context.Background(), "test.operation", EndpointKey, func() error {
		attempts++
		return errors.New("boom")
	})

	if err == nil {
		t.Fatal("expected error, got nil")
	}
	if attempts != 1 {
		t.Fatalf("expected 1 attempt, got %d", attempts)
	}

	var opErr *logging.OperationError
	if !errors.As(err, &opErr) {
		t.Fatalf("expected OperationError, got %T", err)
	}
	if opErr.Operation != "test.operation" {
		t.Fatalf("unexpected operation: %s", opErr.Operation)
	}
}

func TestRetrierPassesNotFoundThrough(t *testing.T) {
	r := newRetrier(zap.NewNop())

	attempts := 0
	err := r.do(context.Background(), "test.operation", EndpointKey, func() error {
		attempts++
		return ErrNotFound
	})

	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	var opErr *logging.OperationError
	if errors.As(err, &opErr) {
		t.Fatal("not found should not be wrapped")
	}
	if attempts != 1 {
		t.Fatalf("expected 1 attempt, got %d", attempts)
	}
}

func TestRetrierErrorNamesKeyAndAttempts(t *testing.T) {
	r := retrier{
		logger:         zap.NewNop(),
		attempts:       3,
		initialBackoff: time.Millisecond,
		maxBackoff:     2 * time.Millisecond,
	}

	err := r.do(context.Background(), "test.operation", EndpointKey, func() error {
		return context.DeadlineExceeded
	})

	var opErr *logging.OperationError
	if !errors.As(err, &opErr) {
		t.Fatalf("expected OperationError, got %T", err)
	}
	if opErr.Key != EndpointKey {
		t.Fatalf("unexpected key: %q", opErr.Key)
	}
	if opErr.Attempts != 3 {
		t.Fatalf("expected 3 attempts, got %d", opErr.Attempts)
	}
	if opErr.RequestID != "" {
		t.Fatalf("settings errors carry no request id, got %q", opErr.RequestID)
	}
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected wrapped deadline error, got %v", err)
	}
}
