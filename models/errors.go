package models

import (
	"errors"
	"fmt"
)

// Sentinel errors shared across services.
var (
	ErrNotFound       = errors.New("not found")
	ErrQuotaExhausted = errors.New("upstream quota exhausted")
)

// ValidationError reports request input that failed validation. Message is
// safe to return to the caller.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return "validation failed: " + e.Message
}

// RateLimitError is returned when a client exceeded the limit for a scope.
// Limit is carried so the user-facing message can include it.
type RateLimitError struct {
	Scope string
	Limit int
}

func (e *RateLimitError) Error() string {
	return fmt.Sprintf("rate limit exceeded for %s (limit %d)", e.Scope, e.Limit)
}

// UpstreamError is a non-2xx reply from the generation API.
type UpstreamError struct {
	Status int
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("upstream returned status %d", e.Status)
}

// PersistenceError wraps a failed blob or metadata write.
type PersistenceError struct {
	Err error
}

func (e *PersistenceError) Error() string {
	return "persistence failed: " + e.Err.Error()
}

func (e *PersistenceError) Unwrap() error { return e.Err }
