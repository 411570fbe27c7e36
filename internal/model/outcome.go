package model

import "time"

// StepOutcome is the per-step record consumed by the restart aggregator.
type StepOutcome struct {
	Name           string
	Mutated        bool
	AffectsService bool
	Err            error
}

// ServiceAction is the single service decision taken after the pipeline.
type ServiceAction string

const (
	ActionRestart ServiceAction = "restart"
	ActionStart   ServiceAction = "start"
	ActionNone    ServiceAction = "none"
)

// ReadinessResult is the terminal result of readiness polling.
type ReadinessResult struct {
	Ready      bool
	HTTPStatus int
	Elapsed    time.Duration
	Attempts   int
}

// RunReport collects everything a converge run produced.
type RunReport struct {
	Outcomes  []StepOutcome
	Results   []StepResult
	Action    ServiceAction
	Readiness ReadinessResult
	Duration  time.Duration
}

// MutationCount returns how many steps changed the host.
func (r *RunReport) MutationCount() int {
	n := 0
	for _, o := range r.Outcomes {
		if o.Mutated {
			n++
		}
	}
	return n
}
