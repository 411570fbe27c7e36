package engine

import (
	"context"
	"time"

	"github.com/alexisbeaulieu97/jenkins-bootstrap/internal/logger"
	"github.com/alexisbeaulieu97/jenkins-bootstrap/internal/model"
	"github.com/alexisbeaulieu97/jenkins-bootstrap/internal/plugin"
)

// ExecutionContext contains runtime state shared by every step of a run.
type ExecutionContext struct {
	Context context.Context
	Logger  *logger.Logger

	// StepTimeout bounds each Evaluate+Apply pair. Zero disables it.
	StepTimeout time.Duration

	// Observer receives step progress. Nil is allowed.
	Observer Observer
}

// Observer is notified as steps start and finish.
type Observer interface {
	StepStarted(meta plugin.Metadata)
	StepFinished(meta plugin.Metadata, result model.StepResult)
}

func (c *ExecutionContext) ctx() context.Context {
	if c == nil || c.Context == nil {
		return context.Background()
	}
	return c.Context
}

func (c *ExecutionContext) started(meta plugin.Metadata) {
	if c != nil && c.Observer != nil {
		c.Observer.StepStarted(meta)
	}
}

func (c *ExecutionContext) finished(meta plugin.Metadata, res model.StepResult) {
	if c != nil && c.Observer != nil {
		c.Observer.StepFinished(meta, res)
	}
}
