// Package puppetplugin bootstraps puppet-agent and applies a manifest with it.
package puppetplugin

import (
	"context"
	"fmt"
	"os"

	"github.com/alexisbeaulieu97/jenkins-bootstrap/internal/fsutil"
	"github.com/alexisbeaulieu97/jenkins-bootstrap/internal/hostexec"
	"github.com/alexisbeaulieu97/jenkins-bootstrap/internal/logger"
	"github.com/alexisbeaulieu97/jenkins-bootstrap/internal/model"
	"github.com/alexisbeaulieu97/jenkins-bootstrap/internal/plugin"
	pkgerrors "github.com/alexisbeaulieu97/jenkins-bootstrap/pkg/errors"
)

// Downloader saves a URL to a local path.
type Downloader interface {
	Download(ctx context.Context, url, dest string, perm os.FileMode) error
}

// AgentOptions configures the agent bootstrap step.
type AgentOptions struct {
	Step         string
	Binary       string
	ReleaseURL   string
	ReleaseDeb   string
	AgentPackage string
	Downloader   Downloader
	Runner       hostexec.Runner
	Log          *logger.Logger
}

type agentPlugin struct {
	opts AgentOptions
}

// NewAgent creates the step that installs puppet-agent from the vendor
// repository.
func NewAgent(opts AgentOptions) plugin.Plugin {
	return &agentPlugin{opts: opts}
}

var _ plugin.Plugin = (*agentPlugin)(nil)

func (p *agentPlugin) Metadata() plugin.Metadata {
	return plugin.Metadata{
		Name:        p.opts.Step,
		Description: fmt.Sprintf("Install %s", p.opts.AgentPackage),
	}
}

func (p *agentPlugin) Evaluate(ctx context.Context) (*model.EvaluationResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, plugin.NewStateError(p.opts.Step, fmt.Errorf("context cancelled: %w", err))
	}

	if fsutil.Exists(p.opts.Binary) {
		return &model.EvaluationResult{
			StepID:       p.opts.Step,
			CurrentState: model.StatusSatisfied,
			Message:      fmt.Sprintf("%s present", p.opts.Binary),
		}, nil
	}
	return &model.EvaluationResult{
		StepID:         p.opts.Step,
		CurrentState:   model.StatusMissing,
		RequiresAction: true,
		Message:        fmt.Sprintf("%s not found", p.opts.Binary),
		Diff:           fmt.Sprintf("Would install %s from %s", p.opts.AgentPackage, p.opts.ReleaseURL),
	}, nil
}

func (p *agentPlugin) Apply(ctx context.Context, _ *model.EvaluationResult) (*model.StepResult, error) {
	p.opts.Log.Infof("adding puppet apt repository from %s", p.opts.ReleaseURL)
	if err := p.opts.Downloader.Download(ctx, p.opts.ReleaseURL, p.opts.ReleaseDeb, 0o644); err != nil {
		return failed(p.opts.Step, pkgerrors.NewExecutionError(p.opts.Step, fmt.Errorf("download release package: %w", err)))
	}
	if err := hostexec.DpkgInstall(ctx, p.opts.Runner, p.opts.ReleaseDeb); err != nil {
		return failed(p.opts.Step, hostexec.Fail(p.opts.Step, err))
	}
	if err := hostexec.AptUpdate(ctx, p.opts.Runner); err != nil {
		return failed(p.opts.Step, hostexec.Fail(p.opts.Step, err))
	}

	p.opts.Log.Infof("installing %s", p.opts.AgentPackage)
	if err := hostexec.AptInstall(ctx, p.opts.Runner, p.opts.AgentPackage); err != nil {
		return failed(p.opts.Step, hostexec.Fail(p.opts.Step, err))
	}

	return &model.StepResult{
		StepID:  p.opts.Step,
		Status:  model.StatusSuccess,
		Message: fmt.Sprintf("installed %s", p.opts.AgentPackage),
	}, nil
}

func failed(step string, err error) (*model.StepResult, error) {
	return &model.StepResult{
		StepID:  step,
		Status:  model.StatusFailed,
		Message: err.Error(),
		Error:   err,
	}, err
}
