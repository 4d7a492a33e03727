// Package api
// Author: momentics <momentics@gmail.com>
//
// Common error types and error handling utilities for hioload-pktio.

package api

import (
	"errors"
	"fmt"
)

// Common errors used across the library.
var (
	ErrNoPacket          = fmt.Errorf("no packet available")
	ErrNoMemory          = fmt.Errorf("no buffer memory available")
	ErrTooBigPacket      = fmt.Errorf("packet too big")
	ErrSocketClosed      = fmt.Errorf("socket is closed")
	ErrRegistryFull      = fmt.Errorf("lane registry full")
	ErrInvalidArgument   = fmt.Errorf("invalid argument")
	ErrResourceExhausted = fmt.Errorf("resource exhausted")
	ErrNotSupported      = fmt.Errorf("operation not supported")
	ErrNotFound          = fmt.Errorf("resource not found")
)

// ErrorCode represents specific error conditions in the library.
type ErrorCode int

const (
	ErrCodeOK ErrorCode = iota
	ErrCodeInvalidArgument
	ErrCodeResourceExhausted
	ErrCodeTimeout
	ErrCodeNotSupported
	ErrCodeAlreadyExists
	ErrCodeNotFound
	ErrCodeInternal
)

// Error represents a structured error with code and context.
// Cause, when set, is reachable through errors.Is / errors.As.
type Error struct {
	Code    ErrorCode
	Message string
	Context map[string]any
	Cause   error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if len(e.Context) == 0 {
		return e.Message
	}
	return fmt.Sprintf("%s (context: %+v)", e.Message, e.Context)
}

// Unwrap exposes the sentinel cause.
func (e *Error) Unwrap() error {
	return e.Cause
}

// NewError creates a new structured error.
func NewError(code ErrorCode, message string) *Error {
	return &Error{
		Code:    code,
		Message: message,
		Context: make(map[string]any),
	}
}

// WithContext adds context information to the error.
func (e *Error) WithContext(key string, value any) *Error {
	if e.Context == nil {
		e.Context = make(map[string]any)
	}
	e.Context[key] = value
	return e
}

// WithCause attaches a sentinel error for errors.Is matching.
func (e *Error) WithCause(cause error) *Error {
	e.Cause = cause
	return e
}

// TooBigPacket reports a frame of size bytes that does not fit a slot of limit bytes.
func TooBigPacket(size, limit int) error {
	return NewError(ErrCodeInvalidArgument, fmt.Sprintf("too big packet: %d", size)).
		WithContext("size", size).
		WithContext("limit", limit).
		WithCause(ErrTooBigPacket)
}

// CodeOf extracts the ErrorCode of err, or ErrCodeInternal for foreign errors.
func CodeOf(err error) ErrorCode {
	if err == nil {
		return ErrCodeOK
	}
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ErrCodeInternal
}
