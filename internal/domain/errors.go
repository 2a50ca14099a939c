package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrValidation signals malformed caller input (query, barcode, URL).
	ErrValidation = errors.New("validation failed")
	// ErrNotFound signals a legitimately empty lookup.
	ErrNotFound = errors.New("not found")
	// ErrSourceUnavailable signals a failed or non-2xx upstream provider call.
	ErrSourceUnavailable = errors.New("source unavailable")
	// ErrNoSources signals that no source is configured for the requested capability.
	ErrNoSources = errors.New("no sources configured")

	// ErrCodeInvalid signals a wrong verification code.
	ErrCodeInvalid = errors.New("verification code invalid")
	// ErrCodeExpired signals an unknown or expired verification challenge.
	ErrCodeExpired = errors.New("verification code expired")
	// ErrTooManyAttempts signals an exhausted verification attempt budget.
	ErrTooManyAttempts = errors.New("too many verification attempts")
)

// SourceError wraps ErrSourceUnavailable with the failing provider and HTTP status.
type SourceError struct {
	Source     string
	StatusCode int // 0 for transport-level failures
	Err        error
}

func (e *SourceError) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("%s: %s: status %d", ErrSourceUnavailable.Error(), e.Source, e.StatusCode)
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", ErrSourceUnavailable.Error(), e.Source, e.Err)
	}
	return fmt.Sprintf("%s: %s", ErrSourceUnavailable.Error(), e.Source)
}

func (e *SourceError) Unwrap() []error {
	if e.Err == nil {
		return []error{ErrSourceUnavailable}
	}
	return []error{ErrSourceUnavailable, e.Err}
}

// NewSourceError creates a SourceError for an upstream status code.
func NewSourceError(source string, status int) error {
	return &SourceError{Source: source, StatusCode: status}
}

// WrapSourceError wraps a transport failure of the given source.
func WrapSourceError(source string, err error) error {
	return &SourceError{Source: source, Err: err}
}

// Invalidf returns an ErrValidation with a client-safe detail message.
func Invalidf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}
