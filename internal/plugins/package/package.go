package packageplugin

import (
	"context"
	"fmt"

	"github.com/alexisbeaulieu97/jenkins-bootstrap/internal/hostexec"
	"github.com/alexisbeaulieu97/jenkins-bootstrap/internal/logger"
	"github.com/alexisbeaulieu97/jenkins-bootstrap/internal/model"
	"github.com/alexisbeaulieu97/jenkins-bootstrap/internal/plugin"
	"github.com/alexisbeaulieu97/jenkins-bootstrap/internal/probe"
)

// Options configures a package step.
type Options struct {
	Step    string
	Package string
	// RefreshIndex runs apt-get update before installing.
	RefreshIndex bool
	Runner       hostexec.Runner
	Log          *logger.Logger
}

type packagePlugin struct {
	opts Options
}

// New creates a step that ensures one apt package is installed.
func New(opts Options) plugin.Plugin {
	return &packagePlugin{opts: opts}
}

var _ plugin.Plugin = (*packagePlugin)(nil)

func (p *packagePlugin) Metadata() plugin.Metadata {
	return plugin.Metadata{
		Name:        p.opts.Step,
		Description: fmt.Sprintf("Install package %s", p.opts.Package),
	}
}

func (p *packagePlugin) Evaluate(ctx context.Context) (*model.EvaluationResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, plugin.NewStateError(p.opts.Step, fmt.Errorf("context cancelled: %w", err))
	}

	if probe.PackageInstalled(ctx, p.opts.Runner, p.opts.Package).Satisfied() {
		return &model.EvaluationResult{
			StepID:       p.opts.Step,
			CurrentState: model.StatusSatisfied,
			Message:      fmt.Sprintf("%s already installed", p.opts.Package),
		}, nil
	}

	return &model.EvaluationResult{
		StepID:         p.opts.Step,
		CurrentState:   model.StatusMissing,
		RequiresAction: true,
		Message:        fmt.Sprintf("%s not installed", p.opts.Package),
		Diff:           fmt.Sprintf("Would install: %s", p.opts.Package),
	}, nil
}

func (p *packagePlugin) Apply(ctx context.Context, _ *model.EvaluationResult) (*model.StepResult, error) {
	if p.opts.RefreshIndex {
		p.opts.Log.Info("refreshing package index")
		if err := hostexec.AptUpdate(ctx, p.opts.Runner); err != nil {
			return p.failed(err)
		}
	}

	p.opts.Log.Infof("installing %s", p.opts.Package)
	if err := hostexec.AptInstall(ctx, p.opts.Runner, p.opts.Package); err != nil {
		return p.failed(err)
	}

	return &model.StepResult{
		StepID:  p.opts.Step,
		Status:  model.StatusSuccess,
		Message: fmt.Sprintf("installed %s", p.opts.Package),
	}, nil
}

func (p *packagePlugin) failed(err error) (*model.StepResult, error) {
	execErr := hostexec.Fail(p.opts.Step, err)
	return &model.StepResult{
		StepID:  p.opts.Step,
		Status:  model.StatusFailed,
		Message: fmt.Sprintf("failed to install %s", p.opts.Package),
		Error:   execErr,
	}, execErr
}
