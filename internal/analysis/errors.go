package analysis

import "fmt"

// StatusError is returned when the service answers with a non-2xx status.
type StatusError struct {
	Code       int
	StatusText string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("Server error: %s", e.StatusText)
}

// ApplicationError carries the message of a response body's error field.
type ApplicationError struct {
	Message string
}

func (e *ApplicationError) Error() string {
	return e.Message
}

// ParseError is returned when the response body is not the expected JSON.
type ParseError struct {
	Err error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("decode analysis response: %v", e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}
