package puppetplugin

import (
	"context"
	"fmt"

	"github.com/alexisbeaulieu97/jenkins-bootstrap/internal/hostexec"
	"github.com/alexisbeaulieu97/jenkins-bootstrap/internal/logger"
	"github.com/alexisbeaulieu97/jenkins-bootstrap/internal/model"
	"github.com/alexisbeaulieu97/jenkins-bootstrap/internal/plugin"
	"github.com/alexisbeaulieu97/jenkins-bootstrap/internal/probe"
)

// ModuleOptions configures the forge module step.
type ModuleOptions struct {
	Step      string
	Binary    string
	Module    string
	ModuleDir string
	Runner    hostexec.Runner
	Log       *logger.Logger
}

type modulePlugin struct {
	opts ModuleOptions
}

// NewModule creates the step that installs a forge module into ModuleDir.
func NewModule(opts ModuleOptions) plugin.Plugin {
	return &modulePlugin{opts: opts}
}

var _ plugin.Plugin = (*modulePlugin)(nil)

func (p *modulePlugin) Metadata() plugin.Metadata {
	return plugin.Metadata{
		Name:        p.opts.Step,
		Description: fmt.Sprintf("Install puppet module %s", p.opts.Module),
	}
}

func (p *modulePlugin) Evaluate(ctx context.Context) (*model.EvaluationResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, plugin.NewStateError(p.opts.Step, fmt.Errorf("context cancelled: %w", err))
	}

	if probe.PuppetModuleListed(ctx, p.opts.Runner, p.opts.Binary, p.opts.ModuleDir, p.opts.Module) {
		return &model.EvaluationResult{
			StepID:       p.opts.Step,
			CurrentState: model.StatusSatisfied,
			Message:      fmt.Sprintf("%s installed", p.opts.Module),
		}, nil
	}
	return &model.EvaluationResult{
		StepID:         p.opts.Step,
		CurrentState:   model.StatusMissing,
		RequiresAction: true,
		Message:        fmt.Sprintf("%s not installed", p.opts.Module),
		Diff:           fmt.Sprintf("Would install %s into %s", p.opts.Module, p.opts.ModuleDir),
	}, nil
}

func (p *modulePlugin) Apply(ctx context.Context, _ *model.EvaluationResult) (*model.StepResult, error) {
	p.opts.Log.Infof("installing %s", p.opts.Module)
	if _, err := p.opts.Runner.Run(ctx, p.opts.Binary, "module", "install", p.opts.Module, "--target-dir", p.opts.ModuleDir); err != nil {
		return failed(p.opts.Step, hostexec.Fail(p.opts.Step, err))
	}
	return &model.StepResult{
		StepID:  p.opts.Step,
		Status:  model.StatusSuccess,
		Message: fmt.Sprintf("installed %s", p.opts.Module),
	}, nil
}
