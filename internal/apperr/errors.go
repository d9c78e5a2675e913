package apperr

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// Base error types shared by the services and the HTTP layer.
var (
	ErrNotFound          = errors.New("not found")
	ErrImmutableDocument = errors.New("document is no longer editable")
	ErrEmptyDocument     = errors.New("document has no content to send")
	ErrAlreadyResponded  = errors.New("document has already been responded to")
	ErrExpiredDocument   = errors.New("document has expired")
	ErrLockedSection     = errors.New("section is locked")
	ErrInvalidTransition = errors.New("invalid status transition")
)

// ValidationError collects per-field violations.
type ValidationError struct {
	Fields map[string]string
}

func NewValidation() *ValidationError {
	return &ValidationError{Fields: make(map[string]string)}
}

// Add records a violation for field. The first reason recorded for a field wins.
func (e *ValidationError) Add(field, reason string) {
	if e.Fields == nil {
		e.Fields = make(map[string]string)
	}
	if _, exists := e.Fields[field]; !exists {
		e.Fields[field] = reason
	}
}

func (e *ValidationError) Empty() bool {
	return e == nil || len(e.Fields) == 0
}

// Err returns e as an error, or nil when nothing was recorded.
func (e *ValidationError) Err() error {
	if e.Empty() {
		return nil
	}
	return e
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s: %s", k, e.Fields[k]))
	}
	return "validation failed: " + strings.Join(parts, ", ")
}

// Invalid is a shorthand for a single-field validation error.
func Invalid(field, reason string) error {
	v := NewValidation()
	v.Add(field, reason)
	return v
}

// AsValidation unwraps err into a *ValidationError when it carries one.
func AsValidation(err error) (*ValidationError, bool) {
	var v *ValidationError
	if errors.As(err, &v) {
		return v, true
	}
	return nil, false
}
