package qa

import (
	"errors"
	"fmt"
)

// Sentinel errors for the qa package. Callers match with errors.Is.
var (
	// ErrUnknownMode is returned when a mode id is not present in the registry.
	// It is a configuration error and is never retried.
	ErrUnknownMode = errors.New("unknown QA mode")

	// ErrCriticalStepFailed is returned when a step marked critical exits
	// non-zero or cannot be spawned. The remaining steps are skipped.
	ErrCriticalStepFailed = errors.New("critical step failed")

	// ErrInvalidCommand is returned for a caller-facing command other than
	// auto, content or full.
	ErrInvalidCommand = errors.New("invalid QA command (valid: auto|content|full)")
)

// StepFailedError records which step failed and why.
type StepFailedError struct {
	ModeID ModeID
	StepID string
	Err    error
}

func (e *StepFailedError) Error() string {
	return fmt.Sprintf("%s: step %s in mode %s: %v", ErrCriticalStepFailed, e.StepID, e.ModeID, e.Err)
}

// Unwrap exposes both the sentinel and the underlying process error.
func (e *StepFailedError) Unwrap() []error {
	return []error{ErrCriticalStepFailed, e.Err}
}
