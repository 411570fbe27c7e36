package model

import (
	"time"
)

const (
	// StatusPending indicates a step has not started yet.
	StatusPending = "pending"
	// StatusRunning indicates a step is actively executing.
	StatusRunning = "running"
	// StatusSuccess marks a step that mutated the host.
	StatusSuccess = "success"
	// StatusSkipped indicates the step was already satisfied.
	StatusSkipped = "skipped"
	// StatusFailed marks a failure during step execution.
	StatusFailed = "failed"
	// StatusWouldUpdate indicates dry-run would change the host.
	StatusWouldUpdate = "would_update"
)

// StepResult captures the outcome of executing a single step.
type StepResult struct {
	StepID    string
	Status    string
	Message   string
	Error     error
	Duration  time.Duration
	Timestamp time.Time
}

// Mutated reports whether the step changed host state.
func (r StepResult) Mutated() bool {
	return r.Status == StatusSuccess
}
