package controllers

import (
	"context"

	"provisionapi/models"
	"provisionapi/services/step"
)

// StepExecutor is the gateway's view of the step engine. Satisfied by
// *step.Executor; tests substitute a fake.
type StepExecutor interface {
	Execute(ctx context.Context, stepName string, in step.Inputs) (*step.Result, error)
	History(host, username, applicationName string) ([]models.StepLog, error)
}

var executorSrv StepExecutor

// SetStepExecutor wires the step executor used by the controllers.
// Used for dependency injection in tests to provide mock implementations.
func SetStepExecutor(e StepExecutor) {
	executorSrv = e
}
