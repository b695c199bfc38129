package domain

import "fmt"

// Error types for consistent error handling across the engine.

// ErrMalformedInput indicates a payload could not be parsed into the shape
// the action expects. Fails before any mutation; no commit is attempted.
type ErrMalformedInput struct {
	Action string
	Err    error
}

func (e *ErrMalformedInput) Error() string {
	return fmt.Sprintf("malformed payload for action %q: %v", e.Action, e.Err)
}

func (e *ErrMalformedInput) Unwrap() error {
	return e.Err
}

// ErrValidation indicates a payload parsed but carried invalid values.
type ErrValidation struct {
	Field   string
	Message string
}

func (e *ErrValidation) Error() string {
	return fmt.Sprintf("validation error on '%s': %s", e.Field, e.Message)
}

// ErrNotFound indicates a referenced record does not exist.
type ErrNotFound struct {
	Resource string
	Key      string
}

func (e *ErrNotFound) Error() string {
	return fmt.Sprintf("%s not found: %s", e.Resource, e.Key)
}

// ErrIndexOutOfRange indicates an index-addressed edit/delete/toggle
// referenced a position outside the collection's bounds. The collection is
// left untouched.
type ErrIndexOutOfRange struct {
	Collection string
	Index      int
	Length     int
}

func (e *ErrIndexOutOfRange) Error() string {
	return fmt.Sprintf("index %d out of range for %s (length %d)", e.Index, e.Collection, e.Length)
}

// ErrUnknownAction indicates an action name outside the allow-list.
type ErrUnknownAction struct {
	Action string
}

func (e *ErrUnknownAction) Error() string {
	return fmt.Sprintf("unknown action: %q", e.Action)
}

// ErrConflict indicates a uniqueness violation (duplicate member or event).
type ErrConflict struct {
	Message string
}

func (e *ErrConflict) Error() string {
	return e.Message
}

// ErrForbidden indicates an action that is disabled by configuration.
type ErrForbidden struct {
	Action string
}

func (e *ErrForbidden) Error() string {
	return fmt.Sprintf("forbidden: %s", e.Action)
}

// ErrStorageWrite indicates the durable commit step failed. Store names the
// document that failed ("members" or "ledger"); when the members write
// fails the ledger document is guaranteed untouched.
type ErrStorageWrite struct {
	Store string
	Err   error
}

func (e *ErrStorageWrite) Error() string {
	return fmt.Sprintf("failed to write %s store: %v", e.Store, e.Err)
}

func (e *ErrStorageWrite) Unwrap() error {
	return e.Err
}

// ErrLockTimeout indicates the single-writer lock could not be acquired
// within the configured bound. The operation is safe to retry.
type ErrLockTimeout struct {
	Operation string
}

func (e *ErrLockTimeout) Error() string {
	return fmt.Sprintf("ledger busy: timed out waiting for writer lock (%s)", e.Operation)
}

// ErrCircuitOpen indicates the storage circuit breaker is open after
// repeated commit failures.
type ErrCircuitOpen struct {
	Store string
}

func (e *ErrCircuitOpen) Error() string {
	return fmt.Sprintf("circuit breaker open for store: %s", e.Store)
}
