// Package aptsourceplugin writes an apt source list file.
package aptsourceplugin

import (
	"context"
	"fmt"
	"os"

	"github.com/alexisbeaulieu97/jenkins-bootstrap/internal/fsutil"
	"github.com/alexisbeaulieu97/jenkins-bootstrap/internal/hostexec"
	"github.com/alexisbeaulieu97/jenkins-bootstrap/internal/logger"
	"github.com/alexisbeaulieu97/jenkins-bootstrap/internal/model"
	"github.com/alexisbeaulieu97/jenkins-bootstrap/internal/plugin"
	"github.com/alexisbeaulieu97/jenkins-bootstrap/internal/probe"
	pkgerrors "github.com/alexisbeaulieu97/jenkins-bootstrap/pkg/errors"
)

// Options configures the repository step. Token is the marker whose
// presence in File means the source is configured.
type Options struct {
	Step   string
	Line   string
	File   string
	Token  string
	Runner hostexec.Runner
	Log    *logger.Logger
}

type aptSourcePlugin struct {
	opts Options
}

// New creates the repository step.
func New(opts Options) plugin.Plugin {
	return &aptSourcePlugin{opts: opts}
}

var _ plugin.Plugin = (*aptSourcePlugin)(nil)

func (p *aptSourcePlugin) Metadata() plugin.Metadata {
	return plugin.Metadata{
		Name:        p.opts.Step,
		Description: fmt.Sprintf("Configure apt source %s", p.opts.File),
	}
}

func (p *aptSourcePlugin) Evaluate(ctx context.Context) (*model.EvaluationResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, plugin.NewStateError(p.opts.Step, fmt.Errorf("context cancelled: %w", err))
	}

	desired := p.opts.Line + "\n"
	switch probe.FileContains(p.opts.File, p.opts.Token) {
	case probe.Present:
		return &model.EvaluationResult{
			StepID:       p.opts.Step,
			CurrentState: model.StatusSatisfied,
			Message:      fmt.Sprintf("%s references %s", p.opts.File, p.opts.Token),
		}, nil
	case probe.Invalid:
		current, _ := os.ReadFile(p.opts.File)
		return &model.EvaluationResult{
			StepID:         p.opts.Step,
			CurrentState:   model.StatusDrifted,
			RequiresAction: true,
			Message:        fmt.Sprintf("%s does not reference %s", p.opts.File, p.opts.Token),
			Diff:           fsutil.UnifiedDiff(p.opts.File, string(current), desired),
		}, nil
	default:
		return &model.EvaluationResult{
			StepID:         p.opts.Step,
			CurrentState:   model.StatusMissing,
			RequiresAction: true,
			Message:        fmt.Sprintf("%s does not exist", p.opts.File),
			Diff:           fsutil.UnifiedDiff(p.opts.File, "", desired),
		}, nil
	}
}

func (p *aptSourcePlugin) Apply(ctx context.Context, _ *model.EvaluationResult) (*model.StepResult, error) {
	p.opts.Log.Infof("writing %s", p.opts.File)
	if err := fsutil.WriteFileAtomic(p.opts.File, []byte(p.opts.Line+"\n"), 0o644); err != nil {
		return p.failed(pkgerrors.NewExecutionError(p.opts.Step, fmt.Errorf("write source list: %w", err)))
	}

	p.opts.Log.Info("refreshing package index")
	if err := hostexec.AptUpdate(ctx, p.opts.Runner); err != nil {
		return p.failed(hostexec.Fail(p.opts.Step, err))
	}

	return &model.StepResult{
		StepID:  p.opts.Step,
		Status:  model.StatusSuccess,
		Message: fmt.Sprintf("configured %s", p.opts.File),
	}, nil
}

func (p *aptSourcePlugin) failed(err error) (*model.StepResult, error) {
	return &model.StepResult{
		StepID:  p.opts.Step,
		Status:  model.StatusFailed,
		Message: "failed to configure apt source",
		Error:   err,
	}, err
}
