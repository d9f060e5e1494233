package vessel

import (
	"errors"
	"fmt"
)

// Kind classifies why an upstream fetch failed.
type Kind string

const (
	KindNetwork  Kind = "network"
	KindAuth     Kind = "auth"
	KindNotFound Kind = "not_found"
	KindParse    Kind = "parse"
)

// UpstreamError represents a failed call to the vessel tracking provider
type UpstreamError struct {
	Kind       Kind
	Message    string
	StatusCode int
	Err        error
}

func (e *UpstreamError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("vessel upstream %s error: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("vessel upstream %s error: %s", e.Kind, e.Message)
}

func (e *UpstreamError) Unwrap() error {
	return e.Err
}

// ErrorKind exposes the classification to packages that cannot import this one.
func (e *UpstreamError) ErrorKind() string {
	return string(e.Kind)
}

// NewUpstreamError creates a new upstream error
func NewUpstreamError(kind Kind, message string, err error) *UpstreamError {
	return &UpstreamError{
		Kind:    kind,
		Message: message,
		Err:     err,
	}
}

func newStatusError(kind Kind, status int, message string) *UpstreamError {
	return &UpstreamError{
		Kind:       kind,
		Message:    message,
		StatusCode: status,
	}
}

// KindOf extracts the classification from anywhere in err's chain.
func KindOf(err error) (Kind, bool) {
	var upstreamErr *UpstreamError
	if errors.As(err, &upstreamErr) {
		return upstreamErr.Kind, true
	}
	return "", false
}
