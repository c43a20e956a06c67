package domain

import (
	"errors"
	"fmt"
)

// ErrUnknownIdentity is returned when an operation references an identity
// with no registered connection (stale or unauthenticated session).
var ErrUnknownIdentity = errors.New("identity is not registered")

// ValidationError reports a malformed client request. It is surfaced to the
// requesting connection only; the connection stays open.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// StoreError wraps a failure of the durable message store. A send that hits
// a StoreError fails end-to-end: nothing is echoed or delivered.
type StoreError struct {
	Err error
}

func (e *StoreError) Error() string {
	return "message store: " + e.Err.Error()
}

func (e *StoreError) Unwrap() error {
	return e.Err
}
