package puppetplugin

import (
	"context"
	"errors"
	"fmt"

	"github.com/alexisbeaulieu97/jenkins-bootstrap/internal/hostexec"
	"github.com/alexisbeaulieu97/jenkins-bootstrap/internal/logger"
	"github.com/alexisbeaulieu97/jenkins-bootstrap/internal/model"
	"github.com/alexisbeaulieu97/jenkins-bootstrap/internal/plugin"
	pkgerrors "github.com/alexisbeaulieu97/jenkins-bootstrap/pkg/errors"
)

// Exit statuses of `puppet apply --detailed-exitcodes`.
const (
	ExitNoChanges         = 0
	ExitChanged           = 2
	ExitFailures          = 4
	ExitChangedAndFailure = 6
)

// ApplyOptions configures the puppet apply step.
type ApplyOptions struct {
	Step      string
	Binary    string
	Manifest  string
	ModuleDir string
	Runner    hostexec.Runner
	Log       *logger.Logger
}

type applyPlugin struct {
	opts ApplyOptions
}

// NewApply creates the step that runs puppet apply. The manifest owns the
// service and its restarts, so the step does not report AffectsService.
func NewApply(opts ApplyOptions) plugin.Plugin {
	return &applyPlugin{opts: opts}
}

var _ plugin.Plugin = (*applyPlugin)(nil)

func (p *applyPlugin) Metadata() plugin.Metadata {
	return plugin.Metadata{
		Name:        p.opts.Step,
		Description: fmt.Sprintf("Apply %s", p.opts.Manifest),
	}
}

func (p *applyPlugin) argv(noop bool) []string {
	argv := []string{p.opts.Binary, "apply", p.opts.Manifest, "--modulepath", p.opts.ModuleDir, "--detailed-exitcodes"}
	if noop {
		argv = append(argv, "--noop")
	}
	return argv
}

// exitCode returns the status of a finished run, or -1 when the command
// could not be started.
func exitCode(err error) int {
	if err == nil {
		return ExitNoChanges
	}
	var exitErr *hostexec.ExitError
	if errors.As(err, &exitErr) {
		return exitErr.ExitCode
	}
	return -1
}

// Evaluate runs a noop apply. Anything but a clean noop means the catalog
// has work to do, including a noop that fails because earlier bootstrap
// steps have not run yet.
func (p *applyPlugin) Evaluate(ctx context.Context) (*model.EvaluationResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, plugin.NewStateError(p.opts.Step, fmt.Errorf("context cancelled: %w", err))
	}

	_, err := p.opts.Runner.Run(ctx, p.argv(true)...)
	switch code := exitCode(err); code {
	case ExitNoChanges:
		return &model.EvaluationResult{
			StepID:       p.opts.Step,
			CurrentState: model.StatusSatisfied,
			Message:      "catalog already converged",
		}, nil
	case ExitChanged:
		return &model.EvaluationResult{
			StepID:         p.opts.Step,
			CurrentState:   model.StatusDrifted,
			RequiresAction: true,
			Message:        "catalog has pending changes",
			Diff:           fmt.Sprintf("Would run: puppet apply %s", p.opts.Manifest),
		}, nil
	default:
		return &model.EvaluationResult{
			StepID:         p.opts.Step,
			CurrentState:   model.StatusUnknown,
			RequiresAction: true,
			Message:        fmt.Sprintf("noop run did not complete (exit %d)", code),
			Diff:           fmt.Sprintf("Would run: puppet apply %s", p.opts.Manifest),
		}, nil
	}
}

func (p *applyPlugin) Apply(ctx context.Context, _ *model.EvaluationResult) (*model.StepResult, error) {
	p.opts.Log.Info("running puppet apply (this may take a few minutes)")
	argv := p.argv(false)
	_, err := p.opts.Runner.Run(ctx, argv...)

	switch code := exitCode(err); code {
	case ExitNoChanges:
		return &model.StepResult{
			StepID:  p.opts.Step,
			Status:  model.StatusSkipped,
			Message: "puppet reported no changes",
		}, nil
	case ExitChanged:
		return &model.StepResult{
			StepID:  p.opts.Step,
			Status:  model.StatusSuccess,
			Message: "puppet applied changes",
		}, nil
	case -1:
		return failed(p.opts.Step, pkgerrors.NewExecutionError(p.opts.Step, err))
	default:
		execErr := pkgerrors.NewCommandError(p.opts.Step, argv, code, fmt.Errorf("puppet apply failed with exit code %d", code))
		return failed(p.opts.Step, execErr)
	}
}
