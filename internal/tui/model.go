package tui

import (
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/alexisbeaulieu97/jenkins-bootstrap/internal/model"
	"github.com/alexisbeaulieu97/jenkins-bootstrap/internal/plugin"
)

// StepStartMsg indicates a step has started executing.
type StepStartMsg struct {
	ID   string
	Time time.Time
}

// StepCompleteMsg reports that a step has finished execution.
type StepCompleteMsg struct {
	Result model.StepResult
}

// RunDoneMsg ends the progress view once the pipeline returned.
type RunDoneMsg struct {
	Report *model.RunReport
	Err    error
}

// Model contains the Bubbletea state for the converge progress view.
type Model struct {
	title     string
	steps     map[string]model.StepResult
	labels    map[string]string
	order     []string
	spinner   spinner.Model
	total     int
	completed int
	finished  bool
	cancelled bool
	action    model.ServiceAction
	err       error
}

// NewModel tracks the given steps, in pipeline order.
func NewModel(title string, steps []plugin.Metadata) Model {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = runningStyle

	m := Model{
		title:   title,
		steps:   make(map[string]model.StepResult),
		labels:  make(map[string]string),
		order:   make([]string, 0, len(steps)),
		spinner: sp,
	}
	for _, meta := range steps {
		m.ensureStep(meta.Name)
		m.labels[meta.Name] = meta.Description
	}
	return m
}

// Init starts the spinner.
func (m Model) Init() tea.Cmd {
	return m.spinner.Tick
}

// TotalSteps returns the total number of steps tracked by the model.
func (m Model) TotalSteps() int {
	return m.total
}

// CompletedSteps returns the number of completed steps.
func (m Model) CompletedSteps() int {
	return m.completed
}

// IsFinished reports whether execution has completed.
func (m Model) IsFinished() bool {
	return m.finished
}

func (m *Model) ensureStep(id string) {
	if id == "" {
		return
	}
	if _, exists := m.steps[id]; !exists {
		m.steps[id] = model.StepResult{StepID: id, Status: model.StatusPending}
		m.order = append(m.order, id)
		m.total++
	}
}
