package services

import (
	"errors"
	"sort"
	"strings"
)

// Errors returned by the services. Callers classify them with errors.Is.
var (
	ErrNotFound           = errors.New("not found")
	ErrForbidden          = errors.New("not authorized")
	ErrDuplicate          = errors.New("already exists")
	ErrEmptyCart          = errors.New("cart is empty")
	ErrInvalidCredentials = errors.New("invalid credentials")
)

// ValidationError reports malformed or missing input, keyed by form field.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+" "+e.Fields[k])
	}
	return "invalid input: " + strings.Join(parts, "; ")
}

// add records a problem with field, allocating the error on first use.
// The first message recorded for a field wins.
func (e *ValidationError) add(field, msg string) *ValidationError {
	if e == nil {
		e = &ValidationError{Fields: make(map[string]string)}
	}
	if _, exists := e.Fields[field]; !exists {
		e.Fields[field] = msg
	}
	return e
}

// authorizeOwner is the capability check run before any mutation of an
// owned resource.
func authorizeOwner(ownerID, actorID string) error {
	if actorID == "" || ownerID != actorID {
		return ErrForbidden
	}
	return nil
}
