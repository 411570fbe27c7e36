package engine

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/alexisbeaulieu97/jenkins-bootstrap/internal/logger"
	"github.com/alexisbeaulieu97/jenkins-bootstrap/internal/model"
	"github.com/alexisbeaulieu97/jenkins-bootstrap/internal/plugin"
	pkgerrors "github.com/alexisbeaulieu97/jenkins-bootstrap/pkg/errors"
)

// Execute converges steps in order. It stops at the first failure and
// returns the results and outcomes gathered so far together with the error.
func Execute(execCtx *ExecutionContext, steps []plugin.Plugin) ([]model.StepResult, []model.StepOutcome, error) {
	if execCtx == nil {
		return nil, nil, pkgerrors.NewExecutionError("", fmt.Errorf("execution context is nil"))
	}

	ctx := execCtx.ctx()
	results := make([]model.StepResult, 0, len(steps))
	outcomes := make([]model.StepOutcome, 0, len(steps))

	for _, step := range steps {
		meta := step.Metadata()
		execCtx.started(meta)

		res, err := executeStep(ctx, execCtx, step, execCtx.StepTimeout)
		if res != nil {
			results = append(results, *res)
			outcomes = append(outcomes, model.StepOutcome{
				Name:           meta.Name,
				Mutated:        res.Mutated(),
				AffectsService: meta.AffectsService,
				Err:            err,
			})
			execCtx.finished(meta, *res)
		}

		if err != nil {
			execCtx.Logger.WithStep(meta.Name).Error(err, "step failed")
			return results, outcomes, err
		}
	}

	return results, outcomes, nil
}

func executeStep(ctx context.Context, execCtx *ExecutionContext, step plugin.Plugin, timeout time.Duration) (*model.StepResult, error) {
	name := step.Metadata().Name
	if ctx.Err() != nil {
		return timeoutResult(name, ctx.Err())
	}

	stepCtx := ctx
	var cancel context.CancelFunc
	if timeout > 0 {
		stepCtx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	log := execCtx.Logger.WithStep(name)
	start := time.Now()

	evalResult, err := step.Evaluate(stepCtx)
	if err != nil {
		result := &model.StepResult{
			StepID:    name,
			Status:    model.StatusFailed,
			Message:   fmt.Sprintf("evaluation failed: %v", err),
			Duration:  time.Since(start),
			Timestamp: time.Now(),
			Error:     err,
		}
		return finalizeFailure(result, stepCtx, name, err)
	}

	var result *model.StepResult
	if evalResult.RequiresAction {
		log.Infof("%s: %s", evalResult.CurrentState, evalResult.Message)
		result, err = step.Apply(stepCtx, evalResult)
	} else {
		log.Debug("already satisfied")
		result = &model.StepResult{
			StepID:  name,
			Status:  model.StatusSkipped,
			Message: evalResult.Message,
		}
	}

	if result == nil {
		result = &model.StepResult{StepID: name}
	}
	if result.StepID == "" {
		result.StepID = name
	}
	result.Duration = time.Since(start)
	if result.Timestamp.IsZero() {
		result.Timestamp = time.Now()
	}

	if err != nil {
		return finalizeFailure(result, stepCtx, name, err)
	}

	if result.Status == "" {
		result.Status = model.StatusSuccess
		if result.Message == "" {
			result.Message = "completed"
		}
	}

	return result, nil
}

// finalizeFailure marks result failed. Errors that already carry execution
// metadata are returned untouched so the command's exit code survives.
func finalizeFailure(result *model.StepResult, stepCtx context.Context, stepID string, err error) (*model.StepResult, error) {
	result.Status = model.StatusFailed
	if result.Error == nil {
		result.Error = err
	}
	if result.Message == "" {
		result.Message = err.Error()
	}

	if errors.Is(err, context.DeadlineExceeded) || errors.Is(stepCtx.Err(), context.DeadlineExceeded) {
		result.Message = "timeout exceeded"
	}

	var execErr *pkgerrors.ExecutionError
	if errors.As(err, &execErr) {
		return result, err
	}
	return result, pkgerrors.NewExecutionError(stepID, err)
}

func timeoutResult(stepID string, err error) (*model.StepResult, error) {
	if err == nil {
		err = context.DeadlineExceeded
	}
	res := &model.StepResult{
		StepID:    stepID,
		Status:    model.StatusFailed,
		Message:   "cancelled before start",
		Error:     err,
		Timestamp: time.Now(),
	}
	return res, pkgerrors.NewExecutionError(stepID, err)
}

// Executor handles read-only verification.
type Executor struct {
	logger *logger.Logger
}

// NewExecutor creates a new executor instance.
func NewExecutor(log *logger.Logger) *Executor {
	return &Executor{
		logger: log,
	}
}

// VerifySteps evaluates every step without mutating anything. A step whose
// state cannot be determined is recorded as unknown; any other evaluation
// error is fatal.
func (e *Executor) VerifySteps(ctx context.Context, steps []plugin.Plugin, defaultTimeout time.Duration) (*model.VerificationSummary, error) {
	start := time.Now()

	summary := &model.VerificationSummary{
		TotalSteps: len(steps),
		Results:    make([]*model.VerificationResult, 0, len(steps)),
	}

	if defaultTimeout <= 0 {
		defaultTimeout = 30 * time.Second
	}

	for _, step := range steps {
		name := step.Metadata().Name
		if ctx.Err() != nil {
			summary.Duration = time.Since(start)
			return summary, ctx.Err()
		}

		stepStart := time.Now()
		stepCtx, cancel := context.WithTimeout(ctx, defaultTimeout)
		evalResult, verifyErr := step.Evaluate(stepCtx)
		cancel()

		if verifyErr != nil {
			var stateErr *plugin.StateError
			if errors.As(verifyErr, &stateErr) {
				e.logger.WithStep(name).Warn(stateErr.Error())
				summary.Record(&model.VerificationResult{
					StepID:    name,
					Status:    model.StatusUnknown,
					Message:   stateErr.Error(),
					Error:     stateErr.Unwrap(),
					Duration:  time.Since(stepStart),
					Timestamp: time.Now(),
				})
				continue
			}

			summary.Duration = time.Since(start)
			var execErr *pkgerrors.ExecutionError
			if errors.As(verifyErr, &execErr) {
				return summary, verifyErr
			}
			return summary, pkgerrors.NewExecutionError(name, verifyErr)
		}

		stepID := evalResult.StepID
		if stepID == "" {
			stepID = name
		}
		summary.Record(&model.VerificationResult{
			StepID:    stepID,
			Status:    evalResult.CurrentState,
			Message:   evalResult.Message,
			Details:   evalResult.Diff,
			Duration:  time.Since(stepStart),
			Timestamp: time.Now(),
		})
	}

	summary.Duration = time.Since(start)
	return summary, nil
}
