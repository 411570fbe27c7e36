// Package lineinfileplugin keeps one setting of a shell-style defaults file
// such as /etc/default/jenkins at its target value.
package lineinfileplugin

import (
	"context"
	"fmt"

	"github.com/alexisbeaulieu97/jenkins-bootstrap/internal/fsutil"
	"github.com/alexisbeaulieu97/jenkins-bootstrap/internal/logger"
	"github.com/alexisbeaulieu97/jenkins-bootstrap/internal/model"
	"github.com/alexisbeaulieu97/jenkins-bootstrap/internal/plugin"
	"github.com/alexisbeaulieu97/jenkins-bootstrap/internal/settings"
	pkgerrors "github.com/alexisbeaulieu97/jenkins-bootstrap/pkg/errors"
)

// Options configures a setting step. With Flag set, Value is an option that
// must appear inside the space-separated list held by Key; otherwise Key must
// equal Value, and DefaultValue names the packaged default to replace in place.
type Options struct {
	Step         string
	File         string
	Key          string
	Value        string
	DefaultValue string
	Flag         bool
	Log          *logger.Logger
}

type lineInFilePlugin struct {
	opts Options
}

// New creates a setting step for the defaults-file mechanism.
func New(opts Options) plugin.Plugin {
	return &lineInFilePlugin{opts: opts}
}

var _ plugin.Plugin = (*lineInFilePlugin)(nil)

func (p *lineInFilePlugin) Metadata() plugin.Metadata {
	desc := fmt.Sprintf("Set %s=%s in %s", p.opts.Key, p.opts.Value, p.opts.File)
	if p.opts.Flag {
		desc = fmt.Sprintf("Add %s to %s in %s", p.opts.Value, p.opts.Key, p.opts.File)
	}
	return plugin.Metadata{
		Name:           p.opts.Step,
		Description:    desc,
		AffectsService: true,
	}
}

// Evaluation data for lineinfile operations
type lineInFileEvaluationData struct {
	State   *FileState
	Updated string
	Change  settings.Change
}

func (p *lineInFilePlugin) Evaluate(ctx context.Context) (*model.EvaluationResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, plugin.NewStateError(p.opts.Step, fmt.Errorf("context cancelled: %w", err))
	}

	state, err := readFileState(p.opts.File)
	if err != nil {
		return nil, plugin.NewStateError(p.opts.Step, fmt.Errorf("read %s: %w", p.opts.File, err))
	}

	if !state.Exists {
		return &model.EvaluationResult{
			StepID:         p.opts.Step,
			CurrentState:   model.StatusMissing,
			RequiresAction: true,
			Message:        fmt.Sprintf("%s does not exist", p.opts.File),
			InternalData:   &lineInFileEvaluationData{State: state},
		}, nil
	}

	doc := settings.Parse(state.Content)
	var change settings.Change
	if p.opts.Flag {
		change = doc.EnsureFlag(p.opts.Key, p.opts.Value)
	} else {
		change = doc.Ensure(p.opts.Key, p.opts.Value, p.opts.DefaultValue)
	}

	data := &lineInFileEvaluationData{State: state, Updated: doc.String(), Change: change}
	if change == settings.Unchanged {
		return &model.EvaluationResult{
			StepID:       p.opts.Step,
			CurrentState: model.StatusSatisfied,
			Message:      p.satisfiedMessage(),
			InternalData: data,
		}, nil
	}

	status := model.StatusDrifted
	if change == settings.Appended {
		status = model.StatusMissing
	}
	return &model.EvaluationResult{
		StepID:         p.opts.Step,
		CurrentState:   status,
		RequiresAction: true,
		Message:        fmt.Sprintf("%s needs update (%s)", p.opts.Key, change),
		Diff:           fsutil.UnifiedDiff(p.opts.File, state.Content, data.Updated),
		InternalData:   data,
	}, nil
}

func (p *lineInFilePlugin) Apply(ctx context.Context, evalResult *model.EvaluationResult) (*model.StepResult, error) {
	var data *lineInFileEvaluationData
	if evalResult != nil {
		data, _ = evalResult.InternalData.(*lineInFileEvaluationData)
	}
	if data == nil {
		fresh, err := p.Evaluate(ctx)
		if err != nil {
			return p.failed(err)
		}
		data, _ = fresh.InternalData.(*lineInFileEvaluationData)
		if !fresh.RequiresAction {
			return &model.StepResult{StepID: p.opts.Step, Status: model.StatusSkipped, Message: fresh.Message}, nil
		}
	}

	if !data.State.Exists {
		return p.failed(pkgerrors.NewExecutionError(p.opts.Step, fmt.Errorf("config file %s not found; is the package installed?", p.opts.File)))
	}

	p.opts.Log.Infof("updating %s in %s (%s)", p.opts.Key, p.opts.File, data.Change)
	if err := fsutil.WriteFileAtomic(data.State.Path, []byte(data.Updated), data.State.Permissions); err != nil {
		return p.failed(pkgerrors.NewExecutionError(p.opts.Step, fmt.Errorf("write %s: %w", p.opts.File, err)))
	}

	return &model.StepResult{
		StepID:  p.opts.Step,
		Status:  model.StatusSuccess,
		Message: fmt.Sprintf("%s updated in %s", p.opts.Key, p.opts.File),
	}, nil
}

func (p *lineInFilePlugin) satisfiedMessage() string {
	if p.opts.Flag {
		return fmt.Sprintf("%s already carries %s", p.opts.Key, p.opts.Value)
	}
	return fmt.Sprintf("%s already set to %s", p.opts.Key, p.opts.Value)
}

func (p *lineInFilePlugin) failed(err error) (*model.StepResult, error) {
	return &model.StepResult{
		StepID:  p.opts.Step,
		Status:  model.StatusFailed,
		Message: fmt.Sprintf("failed to update %s", p.opts.Key),
		Error:   err,
	}, err
}
