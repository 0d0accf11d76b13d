package packing

import (
	"errors"
	"fmt"
)

var (
	// ErrNoItems is returned when a request carries no items.
	ErrNoItems = errors.New("at least one item is required")
	// ErrInvalidContainer is returned when the container has a non-positive dimension
	// or a negative weight capacity.
	ErrInvalidContainer = errors.New("container dimensions must be positive")
	// ErrInvalidItem is returned when an item is unnamed or has a non-positive dimension or weight.
	ErrInvalidItem = errors.New("item name is required and dimensions and weight must be positive")
	// ErrDuplicateItem is returned when two items share a name.
	ErrDuplicateItem = errors.New("item names must be unique")
	// ErrInvalidMaxAttempts is returned when fewer than one attempt is requested.
	ErrInvalidMaxAttempts = errors.New("max attempts must be at least 1")
	// ErrTooManyItems is returned when a request exceeds the configured item limit.
	ErrTooManyItems = errors.New("too many items")
	// ErrUnknownStrategy is returned for a strategy name outside the supported set.
	ErrUnknownStrategy = errors.New("unknown packing strategy")
)

// ValidationError reports a request rejected before any packing attempt.
type ValidationError struct {
	Field string
	Err   error
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Err.Error()
	}
	return fmt.Sprintf("%s: %v", e.Field, e.Err)
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}

// IsValidation reports whether err is a ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

func invalid(field string, err error) error {
	return &ValidationError{Field: field, Err: err}
}
