package logging

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestNewOperationErrorNil(t *testing.T) {
	require.NoError(t, NewOperationError("analysis.post", "req-1", nil))
	require.NoError(t, NewSettingsError("settings.get", "apiUrl", 1, nil))
}

func TestOperationErrorMessageAndUnwrap(t *testing.T) {
	base := errors.New("connection refused")

	err := NewOperationError("analysis.post", "req-1", base)
	require.EqualError(t, err, "analysis.post (request_id=req-1): connection refused")
	require.ErrorIs(t, err, base)

	var opErr *OperationError
	require.ErrorAs(t, err, &opErr)
	require.Equal(t, "analysis.post", opErr.Operation)

	err = NewOperationError("analysis.build_form", "", base)
	require.EqualError(t, err, "analysis.build_form: connection refused")
}

func TestSettingsErrorNamesKeyAndAttempts(t *testing.T) {
	base := errors.New("i/o timeout")

	err := NewSettingsError("settings.redis.set", "apiUrl", 3, base)
	require.EqualError(t, err, "settings.redis.set (key=apiUrl, attempts=3): i/o timeout")
	require.ErrorIs(t, err, base)

	err = NewSettingsError("settings.file.get", "apiUrl", 1, base)
	require.EqualError(t, err, "settings.file.get (key=apiUrl): i/o timeout")
}

func TestOperationErrorFields(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	logger := zap.New(core)

	var opErr *OperationError
	require.ErrorAs(t, NewSettingsError("settings.gorm.get", "apiUrl", 2, errors.New("boom")), &opErr)
	logger.Error("settings failed", opErr.Fields()...)

	entries := logs.All()
	require.Len(t, entries, 1)
	ctx := entries[0].ContextMap()
	require.Equal(t, "settings.gorm.get", ctx["operation"])
	require.Equal(t, "apiUrl", ctx["key"])
	require.EqualValues(t, 2, ctx["attempts"])
	require.Equal(t, "boom", ctx["error"])
	require.NotContains(t, ctx, "request_id")
}
