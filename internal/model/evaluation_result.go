package model

// EvaluationResult contains the result of evaluating a step's current state
// against its desired state. This struct is returned by Plugin.Evaluate()
// and passed to Plugin.Apply() when action is required.
type EvaluationResult struct {
	// StepID is the name of the evaluated step
	StepID string

	// CurrentState is the resource state relative to the target
	// (satisfied, missing, drifted, needs_reload, invalid, unknown)
	CurrentState VerificationStatus

	// RequiresAction indicates whether Apply() should be called
	RequiresAction bool

	// Message is a human-readable description of what was found
	Message string

	// Diff is an optional unified diff of the pending file change
	Diff string

	// InternalData is opaque data passed from Evaluate() to Apply()
	InternalData any
}
