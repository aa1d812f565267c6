package types

import (
	"errors"
	"fmt"
)

// ErrNotFound signals that a referenced run, product or case does not exist.
var ErrNotFound = errors.New("not found")

// ValidationError reports a missing or malformed request field.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// DuplicateKeyError reports a run name collision on insert.
type DuplicateKeyError struct {
	Key string
}

func (e *DuplicateKeyError) Error() string {
	return fmt.Sprintf("duplicate key: %s", e.Key)
}

// StoreError wraps an unclassified failure from the document store.
type StoreError struct {
	Op  string
	Err error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("store error during %s: %v", e.Op, e.Err)
}

func (e *StoreError) Unwrap() error {
	return e.Err
}
