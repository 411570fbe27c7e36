package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/alexisbeaulieu97/jenkins-bootstrap/internal/model"
	"github.com/alexisbeaulieu97/jenkins-bootstrap/internal/tui/components"
)

// View renders the current state of the model.
func (m Model) View() string {
	var sections []string

	sections = append(sections, titleStyle.Render(m.title))

	progress := components.NewProgress(m.total).View(m.completed)
	sections = append(sections, sectionStyle.Render("Progress"), progress)

	listComp := components.NewStepList(m.order, m.steps)
	entries := listComp.Entries()
	if len(entries) > 0 {
		sections = append(sections, sectionStyle.Render("Steps"))
		sections = append(sections, m.renderStepEntries(entries))
	}

	if m.finished {
		summary := components.NewSummary(components.SummaryData{
			Total:     m.total,
			Completed: m.completed,
			Cancelled: m.cancelled,
			Action:    string(m.action),
			Err:       m.err,
		}).View()
		if strings.TrimSpace(summary) != "" {
			sections = append(sections, summaryStyle.Render(summary))
		}
	}

	return lipgloss.JoinVertical(lipgloss.Left, sections...) + "\n"
}

func (m Model) renderStepEntries(entries []components.StepEntry) string {
	var lines []string
	for _, entry := range entries {
		res := entry.Result
		icon := StatusIcon(res.Status)
		if res.Status == model.StatusRunning {
			icon = m.spinner.View()
		}
		label := entry.ID
		if d := m.labels[entry.ID]; d != "" {
			label = fmt.Sprintf("%s %s", entry.ID, labelStyle.Render("("+d+")"))
		}
		line := fmt.Sprintf(" %s %s", icon, label)
		if res.Duration > 0 {
			line = fmt.Sprintf("%s %s", line, labelStyle.Render(res.Duration.Truncate(10*time.Millisecond).String()))
		}
		lines = append(lines, line)
	}
	return strings.Join(lines, "\n")
}

// StatusIcon returns the glyph representing a step status.
func StatusIcon(status string) string {
	switch status {
	case model.StatusSuccess:
		return successStyle.Render("✓")
	case model.StatusRunning:
		return runningStyle.Render("⏳")
	case model.StatusFailed:
		return failureStyle.Render("✗")
	case model.StatusSkipped:
		return skippedStyle.Render("⊘")
	case model.StatusWouldUpdate:
		return pendingStyle.Render("↻")
	default:
		return pendingStyle.Render("…")
	}
}
