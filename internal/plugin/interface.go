package plugin

import (
	"context"

	"github.com/alexisbeaulieu97/jenkins-bootstrap/internal/model"
)

// Plugin is one idempotent step of a convergence pipeline.
type Plugin interface {
	// Metadata returns the step's identity and whether a change it makes
	// requires the managed service to restart.
	Metadata() Metadata

	// Evaluate performs a STRICTLY READ-ONLY assessment of the host against
	// the target. It must not mutate any state.
	Evaluate(ctx context.Context) (*model.EvaluationResult, error)

	// Apply performs the minimal mutation that brings the host to the
	// target. The engine only calls it when Evaluate reported
	// RequiresAction; evalResult carries Evaluate's InternalData.
	Apply(ctx context.Context, evalResult *model.EvaluationResult) (*model.StepResult, error)
}
