package tui

import (
	"io"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/alexisbeaulieu97/jenkins-bootstrap/internal/model"
	"github.com/alexisbeaulieu97/jenkins-bootstrap/internal/plugin"
)

// Reporter renders pipeline progress either through the bubbletea view or,
// when out is not a terminal, as plain console lines.
type Reporter struct {
	console *Console
	program *tea.Program
	done    chan struct{}
	err     error
}

// NewReporter prepares progress output for steps. interactive selects the
// bubbletea view.
func NewReporter(out io.Writer, title string, steps []plugin.Metadata, interactive bool) *Reporter {
	if !interactive {
		return &Reporter{console: NewConsole(out)}
	}
	r := &Reporter{
		program: tea.NewProgram(NewModel(title, steps), tea.WithOutput(out), tea.WithInput(nil), tea.WithoutSignalHandler()),
		done:    make(chan struct{}),
	}
	go func() {
		_, r.err = r.program.Run()
		close(r.done)
	}()
	return r
}

// StepStarted implements the engine observer.
func (r *Reporter) StepStarted(meta plugin.Metadata) {
	if r.console != nil {
		r.console.StepStarted(meta)
		return
	}
	r.program.Send(StepStartMsg{ID: meta.Name})
}

// StepFinished implements the engine observer.
func (r *Reporter) StepFinished(meta plugin.Metadata, res model.StepResult) {
	if r.console != nil {
		r.console.StepFinished(meta, res)
		return
	}
	r.program.Send(StepCompleteMsg{Result: res})
}

// Finish stops the progress view and waits for it to flush.
func (r *Reporter) Finish(report *model.RunReport, runErr error) error {
	if r.program == nil {
		return nil
	}
	r.program.Send(RunDoneMsg{Report: report, Err: runErr})
	<-r.done
	return r.err
}
