package domain

import (
	"errors"
	"fmt"
	"net/http"
)

// HTTPError defines errors that can be mapped to HTTP status codes.
type HTTPError interface {
	error
	StatusCode() int
}

// Domain error types implementing HTTPError interface
type (
	// NotFoundError indicates a curriculum node or session was not found
	NotFoundError struct {
		Message string
	}

	// ValidationError indicates invalid input
	ValidationError struct {
		Message string
	}
)

// Error implementations
func (e *NotFoundError) Error() string   { return e.Message }
func (e *ValidationError) Error() string { return e.Message }

// StatusCode implementations (HTTPError interface)
func (e *NotFoundError) StatusCode() int   { return http.StatusNotFound }
func (e *ValidationError) StatusCode() int { return http.StatusBadRequest }

// Is allows errors.Is() to match the typed errors against their sentinels
func (e *NotFoundError) Is(target error) bool   { return target == ErrNotFound }
func (e *ValidationError) Is(target error) bool { return target == ErrValidation }

// Sentinel errors - use with errors.Is()
var (
	ErrNotFound     = errors.New("not found")
	ErrValidation   = errors.New("validation failed")
	ErrUnauthorized = errors.New("unauthorized")
	ErrUpstream     = errors.New("course api unavailable")

	// Editor validation errors. They never change editor state.
	ErrInvalidFile      = errors.New("invalid video file type")
	ErrFileTooLarge     = errors.New("video file too large")
	ErrInvalidTimestamp = errors.New("invalid timestamp")
	ErrIndexOutOfRange  = errors.New("index out of range")
	ErrWrongSourceKind  = errors.New("operation not valid for the current video source")

	// Reconciliation errors
	ErrParentNotPersisted = errors.New("parent chapter is not persisted")
	ErrSyncInProgress     = errors.New("entity is already being persisted")
	ErrPersistenceFailed  = errors.New("persistence failed")
	ErrSessionClosed      = errors.New("editor session closed")
)

// PersistenceError reports a failed create/update/delete against the Course API.
// The entity stays in its previous local state.
type PersistenceError struct {
	Entity  string // chapter, lesson, note
	LocalID string
	Cause   error
}

// Error implements the error interface
func (e *PersistenceError) Error() string {
	return fmt.Sprintf("persist %s %s: %v", e.Entity, e.LocalID, e.Cause)
}

// Unwrap exposes the transport or server failure
func (e *PersistenceError) Unwrap() error {
	return e.Cause
}

// Is allows errors.Is() to match against ErrPersistenceFailed
func (e *PersistenceError) Is(target error) bool {
	return target == ErrPersistenceFailed
}

// StatusCode implements the HTTPError interface
func (e *PersistenceError) StatusCode() int {
	return http.StatusBadGateway
}

// IsEditorValidation reports whether err is a locally recovered validation failure.
func IsEditorValidation(err error) bool {
	switch {
	case errors.Is(err, ErrValidation),
		errors.Is(err, ErrInvalidFile),
		errors.Is(err, ErrFileTooLarge),
		errors.Is(err, ErrInvalidTimestamp),
		errors.Is(err, ErrIndexOutOfRange),
		errors.Is(err, ErrWrongSourceKind):
		return true
	}
	return false
}
