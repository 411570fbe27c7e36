package components

import (
	"fmt"
	"strings"
)

// SummaryData is what the progress view knows once the run returned.
type SummaryData struct {
	Total     int
	Completed int
	Cancelled bool
	Action    string
	Err       error
}

// Summary renders the closing lines of the progress view.
type Summary struct {
	data SummaryData
}

// NewSummary creates a new Summary component.
func NewSummary(data SummaryData) Summary {
	return Summary{data: data}
}

// View renders the summary.
func (s Summary) View() string {
	var lines []string
	if s.data.Total > 0 {
		lines = append(lines, fmt.Sprintf("Steps: %d/%d completed", s.data.Completed, s.data.Total))
	}

	switch {
	case s.data.Cancelled:
		lines = append(lines, "Run cancelled")
	case s.data.Err != nil:
		lines = append(lines, "✗ "+s.data.Err.Error())
	case s.data.Action != "":
		lines = append(lines, "Service action: "+s.data.Action)
	}

	return strings.Join(lines, "\n")
}
