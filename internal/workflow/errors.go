package workflow

import (
	"errors"
	"fmt"

	"github.com/example/forgery-check/internal/analysis"
)

// ErrEndpointNotConfigured is returned by Analyze when no endpoint is stored.
var ErrEndpointNotConfigured = errors.New("analysis endpoint is not configured")

// ErrorKind groups analysis failures by what the user should do about them.
type ErrorKind string

const (
	KindConfiguration ErrorKind = "configuration"
	KindTransport     ErrorKind = "transport"
	KindApplication   ErrorKind = "application"
	KindParse         ErrorKind = "parse"
)

// Kind classifies err. Network errors count as transport errors.
func Kind(err error) ErrorKind {
	var (
		statusErr *analysis.StatusError
		appErr    *analysis.ApplicationError
		parseErr  *analysis.ParseError
	)
	switch {
	case errors.Is(err, ErrEndpointNotConfigured):
		return KindConfiguration
	case errors.As(err, &appErr):
		return KindApplication
	case errors.As(err, &parseErr):
		return KindParse
	case errors.As(err, &statusErr):
		return KindTransport
	default:
		return KindTransport
	}
}

// AnalysisError is returned by Analyze when the request to the inference
// service failed.
type AnalysisError struct {
	Kind ErrorKind
	Err  error
}

func (e *AnalysisError) Error() string {
	return fmt.Sprintf("%s error: %v", e.Kind, e.Err)
}

func (e *AnalysisError) Unwrap() error {
	return e.Err
}
