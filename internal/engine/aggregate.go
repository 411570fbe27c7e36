package engine

import "github.com/alexisbeaulieu97/jenkins-bootstrap/internal/model"

// Decide picks the single service action for a finished pipeline. It must
// receive every outcome of the run: a restart is due when any
// service-affecting step mutated, otherwise an inactive service is started.
func Decide(outcomes []model.StepOutcome, active bool) model.ServiceAction {
	for _, o := range outcomes {
		if o.AffectsService && o.Mutated {
			return model.ActionRestart
		}
	}
	if !active {
		return model.ActionStart
	}
	return model.ActionNone
}
