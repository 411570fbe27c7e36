// Package dropinplugin keeps one Environment= entry of a systemd drop-in at
// its target value and makes sure the service manager has loaded it.
package dropinplugin

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/alexisbeaulieu97/jenkins-bootstrap/internal/fsutil"
	"github.com/alexisbeaulieu97/jenkins-bootstrap/internal/hostexec"
	"github.com/alexisbeaulieu97/jenkins-bootstrap/internal/logger"
	"github.com/alexisbeaulieu97/jenkins-bootstrap/internal/model"
	"github.com/alexisbeaulieu97/jenkins-bootstrap/internal/plugin"
	"github.com/alexisbeaulieu97/jenkins-bootstrap/internal/systemd"
	pkgerrors "github.com/alexisbeaulieu97/jenkins-bootstrap/pkg/errors"
)

// Options configures a drop-in setting step. With Flag set, Value is an
// option that must appear in the space-separated list held by Key.
type Options struct {
	Step    string
	Path    string
	Service string
	Key     string
	Value   string
	Flag    bool
	Manager systemd.Manager
	Log     *logger.Logger
}

type dropInPlugin struct {
	opts Options
}

// New creates a setting step for the systemd-override mechanism.
func New(opts Options) plugin.Plugin {
	return &dropInPlugin{opts: opts}
}

var _ plugin.Plugin = (*dropInPlugin)(nil)

func (p *dropInPlugin) Metadata() plugin.Metadata {
	return plugin.Metadata{
		Name:           p.opts.Step,
		Description:    fmt.Sprintf("Set %s in %s", p.opts.Key, p.opts.Path),
		AffectsService: true,
	}
}

type dropInEvaluationData struct {
	Desired    string
	Content    []byte
	ReloadOnly bool
}

func (p *dropInPlugin) Evaluate(ctx context.Context) (*model.EvaluationResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, plugin.NewStateError(p.opts.Step, fmt.Errorf("context cancelled: %w", err))
	}

	current, err := os.ReadFile(p.opts.Path)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, plugin.NewStateError(p.opts.Step, fmt.Errorf("read %s: %w", p.opts.Path, err))
	}
	exists := err == nil

	status := model.StatusDrifted
	dropIn, err := systemd.ParseDropIn(bytes.NewReader(current))
	if err != nil {
		p.opts.Log.Warn(fmt.Sprintf("%s is not a valid unit file, rewriting it", p.opts.Path))
		dropIn, _ = systemd.ParseDropIn(bytes.NewReader(nil))
		status = model.StatusInvalid
	}

	effective := p.opts.Manager.ShowEnvironment(ctx, p.opts.Service)
	desired := p.desiredValue(dropIn, effective)
	written, hasWritten := dropIn.Env(p.opts.Key)

	if hasWritten && written == desired {
		loaded, isLoaded := effective[p.opts.Key]
		if isLoaded && loaded == desired && !p.opts.Manager.NeedsDaemonReload(ctx, p.opts.Service) {
			return &model.EvaluationResult{
				StepID:       p.opts.Step,
				CurrentState: model.StatusSatisfied,
				Message:      fmt.Sprintf("%s=%s written and loaded", p.opts.Key, desired),
			}, nil
		}
		return &model.EvaluationResult{
			StepID:         p.opts.Step,
			CurrentState:   model.StatusNeedsReload,
			RequiresAction: true,
			Message:        fmt.Sprintf("%s written to %s but not loaded by %s", p.opts.Key, p.opts.Path, p.opts.Service),
			Diff:           "Would run: systemctl daemon-reload",
			InternalData:   &dropInEvaluationData{Desired: desired, ReloadOnly: true},
		}, nil
	}

	dropIn.SetEnv(p.opts.Key, desired)
	updated, err := dropIn.Bytes()
	if err != nil {
		return nil, plugin.NewStateError(p.opts.Step, fmt.Errorf("render drop-in: %w", err))
	}
	if !exists || !hasWritten {
		if status != model.StatusInvalid {
			status = model.StatusMissing
		}
	}

	return &model.EvaluationResult{
		StepID:         p.opts.Step,
		CurrentState:   status,
		RequiresAction: true,
		Message:        fmt.Sprintf("%s needs %s=%s", p.opts.Path, p.opts.Key, desired),
		Diff:           fsutil.UnifiedDiff(p.opts.Path, string(current), string(updated)),
		InternalData:   &dropInEvaluationData{Desired: desired, Content: updated},
	}, nil
}

// desiredValue is Value for plain settings. For flags it is the current
// option list (drop-in first, then the loaded environment) with the flag
// appended when missing.
func (p *dropInPlugin) desiredValue(dropIn *systemd.DropIn, effective map[string]string) string {
	if !p.opts.Flag {
		return p.opts.Value
	}
	base, ok := dropIn.Env(p.opts.Key)
	if !ok {
		base = effective[p.opts.Key]
	}
	for _, f := range strings.Fields(base) {
		if f == p.opts.Value {
			return base
		}
	}
	return strings.TrimSpace(base + " " + p.opts.Value)
}

func (p *dropInPlugin) Apply(ctx context.Context, evalResult *model.EvaluationResult) (*model.StepResult, error) {
	var data *dropInEvaluationData
	if evalResult != nil {
		data, _ = evalResult.InternalData.(*dropInEvaluationData)
	}
	if data == nil {
		fresh, err := p.Evaluate(ctx)
		if err != nil {
			return p.failed(err)
		}
		if !fresh.RequiresAction {
			return &model.StepResult{StepID: p.opts.Step, Status: model.StatusSkipped, Message: fresh.Message}, nil
		}
		data = fresh.InternalData.(*dropInEvaluationData)
	}

	message := fmt.Sprintf("reloaded %s", p.opts.Path)
	if !data.ReloadOnly {
		p.opts.Log.Infof("writing %s=%s to %s", p.opts.Key, data.Desired, p.opts.Path)
		if err := fsutil.WriteFileAtomic(p.opts.Path, data.Content, 0o644); err != nil {
			return p.failed(pkgerrors.NewExecutionError(p.opts.Step, fmt.Errorf("write %s: %w", p.opts.Path, err)))
		}
		message = fmt.Sprintf("%s=%s written to %s", p.opts.Key, data.Desired, p.opts.Path)
	}

	p.opts.Log.Info("reloading systemd units")
	if err := p.opts.Manager.DaemonReload(ctx); err != nil {
		return p.failed(hostexec.Fail(p.opts.Step, err))
	}

	return &model.StepResult{
		StepID:  p.opts.Step,
		Status:  model.StatusSuccess,
		Message: message,
	}, nil
}

func (p *dropInPlugin) failed(err error) (*model.StepResult, error) {
	return &model.StepResult{
		StepID:  p.opts.Step,
		Status:  model.StatusFailed,
		Message: fmt.Sprintf("failed to set %s", p.opts.Key),
		Error:   err,
	}, err
}
