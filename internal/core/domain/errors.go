package domain

import (
	"errors"
	"fmt"
	"time"
)

// ErrInvalidInput is returned by the router when the recognized text is empty
// or whitespace-only. The orchestrator recovers locally: the turn finalizes
// with a fixed retry prompt and no audit record is written.
var ErrInvalidInput = errors.New("invalid input: empty or whitespace-only text")

// GenerationTimeoutError reports a responder that exceeded its time budget.
// The orchestrator converts it into a synthesized low-confidence rejection and
// continues the retry loop.
type GenerationTimeoutError struct {
	Responder string
	Budget    time.Duration
}

func (e *GenerationTimeoutError) Error() string {
	return fmt.Sprintf("responder %s exceeded %s generation budget", e.Responder, e.Budget)
}

// GenerationFailedError reports a responder that failed outright. Treated the
// same as a timeout for retry accounting.
type GenerationFailedError struct {
	Responder string
	Err       error
}

func (e *GenerationFailedError) Error() string {
	return fmt.Sprintf("responder %s failed: %v", e.Responder, e.Err)
}

func (e *GenerationFailedError) Unwrap() error { return e.Err }

// ContextStoreUnavailable is the only error class that aborts a turn without
// reaching FINALIZED: the orchestrator must not fabricate context, persist
// anything, or release a false approval.
type ContextStoreUnavailable struct {
	Op  string
	Err error
}

func (e *ContextStoreUnavailable) Error() string {
	return fmt.Sprintf("context store unavailable during %s: %v", e.Op, e.Err)
}

func (e *ContextStoreUnavailable) Unwrap() error { return e.Err }

// IsGenerationError reports whether err is a responder timeout or failure,
// i.e. recoverable within the retry loop.
func IsGenerationError(err error) bool {
	var timeout *GenerationTimeoutError
	var failed *GenerationFailedError
	return errors.As(err, &timeout) || errors.As(err, &failed)
}
