package domain

import (
	"errors"
	"fmt"
)

// Sentinel errors for fail-fast paths. These surface before any transaction
// opens, so no partial writes can exist when they are returned.
var (
	ErrNotFound  = errors.New("record not found")
	ErrForbidden = errors.New("actor does not own this resource")
)

// ValidationError carries a human-readable message identifying the offending
// input, including the conflicting entity for overlap rejections.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

func NewValidationError(format string, args ...any) *ValidationError {
	return &ValidationError{Message: fmt.Sprintf(format, args...)}
}

// ConflictError translates a storage-layer uniqueness violation into a
// business-level duplicate, so raw database errors never leak to callers.
type ConflictError struct {
	Message string
}

func (e *ConflictError) Error() string { return e.Message }

func NewConflictError(format string, args ...any) *ConflictError {
	return &ConflictError{Message: fmt.Sprintf(format, args...)}
}

// TransitionResult is the value returned for expected business outcomes of
// state-machine transitions (capacity exhausted, guard failed, success).
// Callers render Message inline; unexpected failures travel as errors.
type TransitionResult struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

func Succeeded(format string, args ...any) TransitionResult {
	return TransitionResult{Success: true, Message: fmt.Sprintf(format, args...)}
}

func Failed(format string, args ...any) TransitionResult {
	return TransitionResult{Success: false, Message: fmt.Sprintf(format, args...)}
}
