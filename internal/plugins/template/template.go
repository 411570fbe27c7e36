// Package templateplugin writes the puppet manifest to disk from an
// embedded template, an HTTP URL or a git repository.
package templateplugin

import (
	"context"
	"crypto/sha256"
	"errors"
	"fmt"
	"os"

	"github.com/alexisbeaulieu97/jenkins-bootstrap/internal/fsutil"
	"github.com/alexisbeaulieu97/jenkins-bootstrap/internal/logger"
	"github.com/alexisbeaulieu97/jenkins-bootstrap/internal/model"
	"github.com/alexisbeaulieu97/jenkins-bootstrap/internal/plugin"
	"github.com/alexisbeaulieu97/jenkins-bootstrap/pkg/diff"
	pkgerrors "github.com/alexisbeaulieu97/jenkins-bootstrap/pkg/errors"
)

const manifestMode os.FileMode = 0o644

// Options configures the manifest step.
type Options struct {
	Step        string
	Source      Source
	Destination string
	Log         *logger.Logger
}

// Internal data for manifest operations
type templateEvaluationData struct {
	RenderedContent []byte
	RenderedHash    string
	ExistingHash    string
	ExistingMode    os.FileMode
	ExistingExists  bool
}

type templatePlugin struct {
	opts Options
}

// New creates the manifest step.
func New(opts Options) plugin.Plugin {
	return &templatePlugin{opts: opts}
}

var _ plugin.Plugin = (*templatePlugin)(nil)

func (p *templatePlugin) Metadata() plugin.Metadata {
	return plugin.Metadata{
		Name:        p.opts.Step,
		Description: fmt.Sprintf("Write manifest to %s", p.opts.Destination),
	}
}

func (p *templatePlugin) Evaluate(ctx context.Context) (*model.EvaluationResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, plugin.NewStateError(p.opts.Step, fmt.Errorf("context cancelled: %w", err))
	}

	rendered, err := p.opts.Source.Load(ctx)
	if err != nil {
		return nil, plugin.NewStateError(p.opts.Step, fmt.Errorf("load %s: %w", p.opts.Source.Describe(), err))
	}

	existing, existingMode, exists, err := existingDestinationState(p.opts.Destination)
	if err != nil {
		return nil, plugin.NewStateError(p.opts.Step, fmt.Errorf("cannot check destination: %w", err))
	}

	data := &templateEvaluationData{
		RenderedContent: rendered,
		RenderedHash:    hashContent(rendered),
		ExistingMode:    existingMode,
		ExistingExists:  exists,
	}
	if exists {
		data.ExistingHash = hashContent(existing)
	}

	if !exists {
		return &model.EvaluationResult{
			StepID:         p.opts.Step,
			CurrentState:   model.StatusMissing,
			RequiresAction: true,
			Message:        fmt.Sprintf("%s does not exist", p.opts.Destination),
			Diff:           diff.Lines(nil, rendered, p.opts.Destination, p.opts.Source.Describe()),
			InternalData:   data,
		}, nil
	}

	if data.RenderedHash == data.ExistingHash && existingMode.Perm() == manifestMode {
		return &model.EvaluationResult{
			StepID:       p.opts.Step,
			CurrentState: model.StatusSatisfied,
			Message:      fmt.Sprintf("%s is up to date", p.opts.Destination),
			InternalData: data,
		}, nil
	}

	return &model.EvaluationResult{
		StepID:         p.opts.Step,
		CurrentState:   model.StatusDrifted,
		RequiresAction: true,
		Message:        fmt.Sprintf("%s differs from %s", p.opts.Destination, p.opts.Source.Describe()),
		Diff:           diff.Lines(existing, rendered, p.opts.Destination, p.opts.Source.Describe()),
		InternalData:   data,
	}, nil
}

func (p *templatePlugin) Apply(ctx context.Context, evalResult *model.EvaluationResult) (*model.StepResult, error) {
	var data *templateEvaluationData
	if evalResult != nil {
		data, _ = evalResult.InternalData.(*templateEvaluationData)
	}
	if data == nil {
		fresh, err := p.Evaluate(ctx)
		if err != nil {
			return p.failed(err)
		}
		if !fresh.RequiresAction {
			return &model.StepResult{StepID: p.opts.Step, Status: model.StatusSkipped, Message: fresh.Message}, nil
		}
		data = fresh.InternalData.(*templateEvaluationData)
	}

	p.opts.Log.Infof("writing manifest from %s to %s", p.opts.Source.Describe(), p.opts.Destination)
	if err := fsutil.WriteFileAtomic(p.opts.Destination, data.RenderedContent, manifestMode); err != nil {
		return p.failed(pkgerrors.NewExecutionError(p.opts.Step, fmt.Errorf("write manifest: %w", err)))
	}

	return &model.StepResult{
		StepID:  p.opts.Step,
		Status:  model.StatusSuccess,
		Message: fmt.Sprintf("manifest written to %s", p.opts.Destination),
	}, nil
}

func (p *templatePlugin) failed(err error) (*model.StepResult, error) {
	return &model.StepResult{
		StepID:  p.opts.Step,
		Status:  model.StatusFailed,
		Message: "failed to write manifest",
		Error:   err,
	}, err
}

func hashContent(content []byte) string {
	return fmt.Sprintf("%x", sha256.Sum256(content))
}

func existingDestinationState(destination string) ([]byte, os.FileMode, bool, error) {
	info, err := os.Stat(destination)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, 0, false, nil
		}
		return nil, 0, false, err
	}
	if info.IsDir() {
		return nil, 0, false, fmt.Errorf("%s is a directory", destination)
	}
	content, err := os.ReadFile(destination)
	if err != nil {
		return nil, 0, false, err
	}
	return content, info.Mode(), true, nil
}
