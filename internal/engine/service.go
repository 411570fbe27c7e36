package engine

import (
	"context"

	"github.com/alexisbeaulieu97/jenkins-bootstrap/internal/hostexec"
	"github.com/alexisbeaulieu97/jenkins-bootstrap/internal/logger"
	"github.com/alexisbeaulieu97/jenkins-bootstrap/internal/model"
	"github.com/alexisbeaulieu97/jenkins-bootstrap/internal/systemd"
)

const serviceStepID = "service"

// ServiceStage enables the managed unit and applies the aggregated decision.
type ServiceStage struct {
	Manager systemd.Manager
	Service string
	Log     *logger.Logger
}

// Run enables the service when it is not enabled yet, then restarts, starts
// or leaves it alone according to Decide.
func (s *ServiceStage) Run(ctx context.Context, outcomes []model.StepOutcome) (model.ServiceAction, error) {
	log := s.Log.WithStep(serviceStepID)

	if !s.Manager.IsEnabled(ctx, s.Service) {
		log.Infof("enabling %s", s.Service)
		if err := s.Manager.Enable(ctx, s.Service); err != nil {
			return model.ActionNone, hostexec.Fail(serviceStepID, err)
		}
	}

	action := Decide(outcomes, s.Manager.IsActive(ctx, s.Service))
	var err error
	switch action {
	case model.ActionRestart:
		log.Infof("restarting %s to apply configuration changes", s.Service)
		err = s.Manager.Restart(ctx, s.Service)
	case model.ActionStart:
		log.Infof("starting %s", s.Service)
		err = s.Manager.Start(ctx, s.Service)
	default:
		log.Infof("%s already running with current configuration", s.Service)
	}
	if err != nil {
		return action, hostexec.Fail(serviceStepID, err)
	}
	return action, nil
}
