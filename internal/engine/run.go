package engine

import (
	"context"
	"time"

	"github.com/alexisbeaulieu97/jenkins-bootstrap/internal/config"
	"github.com/alexisbeaulieu97/jenkins-bootstrap/internal/model"
	"github.com/alexisbeaulieu97/jenkins-bootstrap/internal/plugin"
	"github.com/alexisbeaulieu97/jenkins-bootstrap/internal/validation"
)

// Waiter blocks until the managed service answers.
type Waiter interface {
	Wait(ctx context.Context) (model.ReadinessResult, error)
}

// Pipeline is everything a converge run executes, in order.
type Pipeline struct {
	Steps     []plugin.Plugin
	Service   *ServiceStage
	Readiness Waiter

	Validations []config.Validation
	// ValidationDirs are searched for commands missing from PATH.
	ValidationDirs []string
}

// Run converges the steps, applies the service decision, waits for
// readiness and finally runs the post-install validations. The report is
// returned even on failure and holds whatever completed.
func Run(execCtx *ExecutionContext, p Pipeline) (*model.RunReport, error) {
	start := time.Now()
	report := &model.RunReport{Action: model.ActionNone}
	defer func() { report.Duration = time.Since(start) }()

	results, outcomes, err := Execute(execCtx, p.Steps)
	report.Results = results
	report.Outcomes = outcomes
	if err != nil {
		return report, err
	}

	ctx := execCtx.ctx()
	if p.Service != nil {
		action, err := p.Service.Run(ctx, outcomes)
		report.Action = action
		if err != nil {
			return report, err
		}
	}

	if p.Readiness != nil {
		readiness, err := p.Readiness.Wait(ctx)
		report.Readiness = readiness
		if err != nil {
			return report, err
		}
	}

	if len(p.Validations) > 0 {
		if _, err := validation.RunValidations(ctx, p.Validations, p.ValidationDirs...); err != nil {
			return report, err
		}
		execCtx.Logger.Infof("%d post-install validations passed", len(p.Validations))
	}

	return report, nil
}
