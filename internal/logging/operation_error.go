package logging

import (
	"fmt"
	"strings"

	"go.uber.org/zap"
)

// OperationError records which step failed. Analysis calls carry the
// request ID; settings calls carry the key and how many attempts were made.
type OperationError struct {
	Operation string
	RequestID string
	Key       string
	Attempts  int
	Err       error
}

func (e *OperationError) Error() string {
	if e == nil || e.Err == nil {
		return ""
	}
	var attrs []string
	if e.RequestID != "" {
		attrs = append(attrs, "request_id="+e.RequestID)
	}
	if e.Key != "" {
		attrs = append(attrs, "key="+e.Key)
	}
	if e.Attempts > 1 {
		attrs = append(attrs, fmt.Sprintf("attempts=%d", e.Attempts))
	}
	if len(attrs) == 0 {
		return fmt.Sprintf("%s: %v", e.Operation, e.Err)
	}
	return fmt.Sprintf("%s (%s): %v", e.Operation, strings.Join(attrs, ", "), e.Err)
}

func (e *OperationError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// Fields returns the populated attributes as zap fields.
func (e *OperationError) Fields() []zap.Field {
	if e == nil {
		return nil
	}
	fields := []zap.Field{zap.String("operation", e.Operation)}
	if e.RequestID != "" {
		fields = append(fields, zap.String("request_id", e.RequestID))
	}
	if e.Key != "" {
		fields = append(fields, zap.String("key", e.Key))
	}
	if e.Attempts > 0 {
		fields = append(fields, zap.Int("attempts", e.Attempts))
	}
	return append(fields, zap.Error(e.Err))
}

// NewOperationError wraps err for an analysis request; a nil err stays nil.
func NewOperationError(operation, requestID string, err error) error {
	if err == nil {
		return nil
	}
	return &OperationError{Operation: operation, RequestID: requestID, Err: err}
}

// NewSettingsError wraps err for a settings store call; a nil err stays nil.
func NewSettingsError(operation, key string, attempts int, err error) error {
	if err == nil {
		return nil
	}
	return &OperationError{Operation: operation, Key: key, Attempts: attempts, Err: err}
}
