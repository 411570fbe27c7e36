package errors

import (
	stdErrors "errors"
	"fmt"
	"strings"
)

// Exit statuses used when an error carries no command exit code of its own.
const (
	ExitGeneric = 1
	ExitConfig  = 2
)

// ParseError represents a YAML parsing failure with optional line metadata.
type ParseError struct {
	Path    string
	Line    int
	Message string
	Err     error
}

// NewParseError constructs a ParseError.
func NewParseError(path string, line int, err error) error {
	message := ""
	if err != nil {
		message = err.Error()
	}
	return &ParseError{Path: path, Line: line, Message: message, Err: err}
}

func (e *ParseError) Error() string {
	if e == nil {
		return ""
	}

	if e.Line > 0 {
		return fmt.Sprintf("parse error: %s:%d: %s", e.Path, e.Line, e.Message)
	}
	return fmt.Sprintf("parse error: %s: %s", e.Path, e.Message)
}

// Unwrap exposes the underlying error.
func (e *ParseError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// ValidationError captures configuration validation issues.
type ValidationError struct {
	Field   string
	Message string
	Err     error
}

// NewValidationError constructs a ValidationError.
func NewValidationError(field, message string, err error) error {
	return &ValidationError{Field: field, Message: message, Err: err}
}

func (e *ValidationError) Error() string {
	if e == nil {
		return ""
	}
	if e.Field != "" {
		return fmt.Sprintf("validation error: %s: %s", e.Field, e.Message)
	}
	return fmt.Sprintf("validation error: %s", e.Message)
}

// Unwrap exposes the underlying error.
func (e *ValidationError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// PreconditionError reports an environment that must not be mutated, such as
// a non-root invocation or an unsupported operating system.
type PreconditionError struct {
	Check   string
	Message string
}

// NewPreconditionError constructs a PreconditionError.
func NewPreconditionError(check, message string) error {
	return &PreconditionError{Check: check, Message: message}
}

func (e *PreconditionError) Error() string {
	if e == nil {
		return ""
	}
	return fmt.Sprintf("precondition %s failed: %s", e.Check, e.Message)
}

// ExecutionError represents a runtime failure while converging a step. When
// the failure came from an external command, Command and ExitCode describe it.
type ExecutionError struct {
	StepID   string
	Command  []string
	ExitCode int
	Err      error
}

// NewExecutionError constructs an ExecutionError without command metadata.
func NewExecutionError(stepID string, err error) error {
	return &ExecutionError{StepID: stepID, Err: err}
}

// NewCommandError constructs an ExecutionError for a failed external command.
func NewCommandError(stepID string, argv []string, exitCode int, err error) error {
	return &ExecutionError{StepID: stepID, Command: append([]string(nil), argv...), ExitCode: exitCode, Err: err}
}

func (e *ExecutionError) Error() string {
	if e == nil {
		return ""
	}
	var b strings.Builder
	b.WriteString("execution error")
	if e.StepID != "" {
		fmt.Fprintf(&b, " on step %s", e.StepID)
	}
	if len(e.Command) > 0 {
		fmt.Fprintf(&b, " (command %q exited %d)", strings.Join(e.Command, " "), e.ExitCode)
	}
	fmt.Fprintf(&b, ": %v", e.Err)
	return b.String()
}

// Unwrap exposes the root error.
func (e *ExecutionError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// ReadinessError is returned when the managed service never answered within
// the polling ceiling.
type ReadinessError struct {
	URL        string
	Elapsed    string
	LastStatus int
	Hint       string
}

func (e *ReadinessError) Error() string {
	if e == nil {
		return ""
	}
	msg := fmt.Sprintf("service at %s did not become ready within %s", e.URL, e.Elapsed)
	if e.LastStatus > 0 {
		msg = fmt.Sprintf("%s (last HTTP status %d)", msg, e.LastStatus)
	}
	return msg
}

// ExitCode maps an error to the process exit status. Command failures keep the
// command's own status; configuration problems use ExitConfig.
func ExitCode(err error) int {
	if err == nil {
		return 0
	}

	var execErr *ExecutionError
	if stdErrors.As(err, &execErr) && execErr.ExitCode > 0 {
		return execErr.ExitCode
	}

	var parseErr *ParseError
	var validationErr *ValidationError
	if stdErrors.As(err, &parseErr) || stdErrors.As(err, &validationErr) {
		return ExitConfig
	}

	return ExitGeneric
}
