package errors

import (
	stderrors "errors"
	"fmt"
)

// ErrNotFound is returned when a resource is not found
type ErrNotFound struct {
	Resource string
	ID       string
}

func (e *ErrNotFound) Error() string {
	return fmt.Sprintf("%s not found: %s", e.Resource, e.ID)
}

// ErrUnauthorized is returned when authentication fails
type ErrUnauthorized struct {
	Message string
}

func (e *ErrUnauthorized) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return "unauthorized"
}

// ErrConflict is returned when a ledger save is attempted against a stale version
type ErrConflict struct {
	Message         string
	ExpectedVersion int64
	CurrentVersion  int64
}

func (e *ErrConflict) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return fmt.Sprintf("conflict: expected version %d, current version %d", e.ExpectedVersion, e.CurrentVersion)
}

// ErrValidation is returned when validation fails
type ErrValidation struct {
	Message string
	Fields  map[string]string
}

func (e *ErrValidation) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return "validation failed"
}

// ErrUpstream is returned when an external API (Shopify, Sheets) answers with a non-success status
type ErrUpstream struct {
	Service    string
	StatusCode int
	Body       string
}

func (e *ErrUpstream) Error() string {
	if e.Body != "" {
		return fmt.Sprintf("%s API error: status %d, body: %s", e.Service, e.StatusCode, e.Body)
	}
	return fmt.Sprintf("%s API error: status %d", e.Service, e.StatusCode)
}

// IsNotFound reports whether err wraps an *ErrNotFound
func IsNotFound(err error) bool {
	var target *ErrNotFound
	return stderrors.As(err, &target)
}

// IsConflict reports whether err wraps an *ErrConflict
func IsConflict(err error) bool {
	var target *ErrConflict
	return stderrors.As(err, &target)
}

// IsValidation reports whether err wraps an *ErrValidation
func IsValidation(err error) bool {
	var target *ErrValidation
	return stderrors.As(err, &target)
}

// AsUpstream returns the wrapped *ErrUpstream, if any
func AsUpstream(err error) (*ErrUpstream, bool) {
	var target *ErrUpstream
	if stderrors.As(err, &target) {
		return target, true
	}
	return nil, false
}
