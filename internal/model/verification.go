package model

import "time"

// VerificationStatus classifies a step's observed state.
type VerificationStatus string

const (
	// StatusSatisfied means the target state is already reached.
	StatusSatisfied VerificationStatus = "satisfied"
	// StatusMissing means the resource does not exist yet.
	StatusMissing VerificationStatus = "missing"
	// StatusDrifted means the resource exists with the wrong content.
	StatusDrifted VerificationStatus = "drifted"
	// StatusInvalid means the resource exists but has an unexpected format.
	StatusInvalid VerificationStatus = "invalid"
	// StatusNeedsReload means the on-disk artifact is correct but the
	// service manager has not loaded it yet.
	StatusNeedsReload VerificationStatus = "needs_reload"
	// StatusUnknown means the state could not be determined.
	StatusUnknown VerificationStatus = "unknown"
)

// IsValid reports whether s is a known status.
func (s VerificationStatus) IsValid() bool {
	switch s {
	case StatusSatisfied, StatusMissing, StatusDrifted, StatusInvalid, StatusNeedsReload, StatusUnknown:
		return true
	}
	return false
}

// VerificationResult is the read-only view of one step used by verify and dry-run.
type VerificationResult struct {
	StepID    string
	Status    VerificationStatus
	Message   string
	Details   string
	Error     error
	Duration  time.Duration
	Timestamp time.Time
}

// VerificationSummary aggregates verification results for a pipeline.
type VerificationSummary struct {
	TotalSteps  int
	Satisfied   int
	Missing     int
	Drifted     int
	Invalid     int
	NeedsReload int
	Unknown     int
	Duration    time.Duration
	Results     []*VerificationResult
}

// Converged reports whether every step is satisfied.
func (s *VerificationSummary) Converged() bool {
	return s != nil && s.Satisfied == s.TotalSteps
}

// Record adds r to the summary and updates the counters.
func (s *VerificationSummary) Record(r *VerificationResult) {
	s.Results = append(s.Results, r)
	switch r.Status {
	case StatusSatisfied:
		s.Satisfied++
	case StatusMissing:
		s.Missing++
	case StatusDrifted:
		s.Drifted++
	case StatusInvalid:
		s.Invalid++
	case StatusNeedsReload:
		s.NeedsReload++
	default:
		s.Unknown++
	}
}
