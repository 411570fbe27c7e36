package plugin

import (
	"errors"
	"fmt"
)

// StepError is implemented by every error a step returns about itself.
type StepError interface {
	error
	StepID() string
	Unwrap() error
}

type stepError struct {
	kind string
	id   string
	err  error
}

func (e *stepError) Error() string {
	if e.err == nil {
		return fmt.Sprintf("%s error in step %s", e.kind, e.id)
	}
	return fmt.Sprintf("%s error in step %s: %v", e.kind, e.id, e.err)
}

func (e *stepError) StepID() string { return e.id }

func (e *stepError) Unwrap() error { return e.err }

// ValidationError reports a step built from an unusable target.
type ValidationError struct{ stepError }

// NewValidationError wraps err for stepID.
func NewValidationError(stepID string, err error) *ValidationError {
	return &ValidationError{stepError{kind: "validation", id: stepID, err: err}}
}

// StateError reports that the current host state could not be determined,
// such as an unreadable file. Verification treats it as unknown.
type StateError struct{ stepError }

// NewStateError wraps err for stepID.
func NewStateError(stepID string, err error) *StateError {
	return &StateError{stepError{kind: "state", id: stepID, err: err}}
}

// AsStepError finds the first StepError in err's chain.
func AsStepError(err error) (StepError, bool) {
	var stepErr StepError
	if errors.As(err, &stepErr) {
		return stepErr, true
	}
	return nil, false
}
