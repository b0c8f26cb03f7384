package services

import (
	"errors"
	"fmt"
)

// ErrorKind classifies service failures for the transport layer
type ErrorKind int

// Error kinds
const (
	KindInternal ErrorKind = iota
	KindInvalidInput
	KindNotFound
	KindConflict
	KindForbidden
	KindUnauthorized
	KindSignatureInvalid
	KindUpstream
)

// AppError is a classified service error. Message is safe to show to clients.
type AppError struct {
	Kind    ErrorKind
	Message string
	Err     error

	// LimitReached marks a conflict caused by a capped resource being full
	LimitReached bool
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// NewInvalidInput returns an AppError for rejected input
func NewInvalidInput(message string) *AppError {
	return &AppError{Kind: KindInvalidInput, Message: message}
}

// NewNotFound returns an AppError for a missing entity
func NewNotFound(message string) *AppError {
	return &AppError{Kind: KindNotFound, Message: message}
}

// NewConflict returns an AppError for a state conflict
func NewConflict(message string) *AppError {
	return &AppError{Kind: KindConflict, Message: message}
}

// NewLimitReached returns a conflict for a capped resource that is already full
func NewLimitReached(message string) *AppError {
	return &AppError{Kind: KindConflict, Message: message, LimitReached: true}
}

// NewForbidden returns an AppError for a disallowed action
func NewForbidden(message string) *AppError {
	return &AppError{Kind: KindForbidden, Message: message}
}

// NewUnauthorized returns an AppError for failed authentication
func NewUnauthorized(message string) *AppError {
	return &AppError{Kind: KindUnauthorized, Message: message}
}

// NewSignatureInvalid returns an AppError for a rejected gateway signature
func NewSignatureInvalid(message string) *AppError {
	return &AppError{Kind: KindSignatureInvalid, Message: message}
}

// NewUpstream wraps a failure of an external provider
func NewUpstream(message string, err error) *AppError {
	return &AppError{Kind: KindUpstream, Message: message, Err: err}
}

// KindOf returns the kind of err. Errors that are not AppErrors are internal.
func KindOf(err error) ErrorKind {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Kind
	}
	return KindInternal
}

// MessageOf returns the client-facing message of err, or "" for internal errors
func MessageOf(err error) string {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Message
	}
	return ""
}

// IsLimitReached reports whether err is a conflict from a full capped resource
func IsLimitReached(err error) bool {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Kind == KindConflict && appErr.LimitReached
	}
	return false
}
