package dialogue

import (
	"errors"
	"fmt"
)

// Failure categories surfaced to callers. The HTTP layer maps these onto
// status codes; the engine never swallows a collaborator failure, it only
// compensates (e.g. deletes an orphaned session) before returning it.
var (
	// ErrQuotaExceeded: the user spent today's allowance. Not retryable until
	// the next day.
	ErrQuotaExceeded = errors.New("dialogue: daily usage limit exceeded")

	// ErrQuotaUnavailable: the usage store could not be read. Quota fails
	// closed, so this also denies the operation.
	ErrQuotaUnavailable = errors.New("dialogue: usage check unavailable")

	// ErrSessionNotFound covers both a missing session and one owned by a
	// different user. The two cases are deliberately indistinguishable.
	ErrSessionNotFound = errors.New("dialogue: session not found")

	// ErrSessionResolved: the session is terminal, no further turns accepted.
	ErrSessionResolved = errors.New("dialogue: session already resolved")

	// ErrTurnNotAllowed: turn submitted outside Active/Needs-Verification, or
	// answer requested before Early-Complete/Depth-Exhausted.
	ErrTurnNotAllowed = errors.New("dialogue: operation not valid in current state")

	// ErrTurnInFlight: a model call for this session is still outstanding.
	ErrTurnInFlight = errors.New("dialogue: a turn is already in progress")

	ErrInvalidDepth    = fmt.Errorf("dialogue: depth must be between %d and %d", MinDepth, MaxDepth)
	ErrInvalidCategory = errors.New("dialogue: unknown category")
	ErrInvalidMode     = errors.New("dialogue: unknown chat mode")
	ErrEmptyProblem    = errors.New("dialogue: problem text is required")
)

// LLMError wraps a model call failure so the transport layer can classify it
// separately from store failures.
type LLMError struct {
	Err error
}

func (e *LLMError) Error() string {
	return fmt.Sprintf("dialogue: model call failed: %v", e.Err)
}

func (e *LLMError) Unwrap() error {
	return e.Err
}

// StoreError wraps a persistence failure.
type StoreError struct {
	Op  string
	Err error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("dialogue: store %s failed: %v", e.Op, e.Err)
}

func (e *StoreError) Unwrap() error {
	return e.Err
}
