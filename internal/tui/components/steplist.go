package components

import (
	"github.com/alexisbeaulieu97/jenkins-bootstrap/internal/model"
)

// StepEntry represents a single step for rendering.
type StepEntry struct {
	ID     string
	Result model.StepResult
}

// StepList is the ordered view of the pipeline's steps.
type StepList struct {
	entries []StepEntry
}

// NewStepList constructs a step list component. Steps without a result yet
// are listed as pending.
func NewStepList(order []string, steps map[string]model.StepResult) StepList {
	entries := make([]StepEntry, 0, len(order))
	for _, id := range order {
		res, ok := steps[id]
		if !ok {
			res = model.StepResult{StepID: id, Status: model.StatusPending}
		}
		entries = append(entries, StepEntry{ID: id, Result: res})
	}
	return StepList{entries: entries}
}

// Entries returns the ordered step entries.
func (s StepList) Entries() []StepEntry {
	clone := make([]StepEntry, len(s.entries))
	copy(clone, s.entries)
	return clone
}

// Mutated counts the entries that changed the host.
func (s StepList) Mutated() int {
	n := 0
	for _, e := range s.entries {
		if e.Result.Mutated() {
			n++
		}
	}
	return n
}
