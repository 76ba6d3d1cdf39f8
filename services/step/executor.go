package step

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"provisionapi/models"
	"provisionapi/pkg/logger"
	"provisionapi/repository"
	"provisionapi/services/hosting"
	"provisionapi/services/remote"

	"gorm.io/gorm"
)

// Executor runs steps against managed applications. It is the single
// boundary that normalizes step-internal failures into a Result and a step
// history row; nothing above it sees a raw session or hosting error.
type Executor struct {
	registry *Registry
	apps     repository.ApplicationRepository
	logs     repository.StepLogRepository
	dialer   remote.Dialer
	hosting  hosting.Client
	locks    keyedLocks
}

// NewExecutor creates an executor with its collaborators injected.
func NewExecutor(registry *Registry, apps repository.ApplicationRepository, logs repository.StepLogRepository, dialer remote.Dialer, hostingClient hosting.Client) *Executor {
	return &Executor{
		registry: registry,
		apps:     apps,
		logs:     logs,
		dialer:   dialer,
		hosting:  hostingClient,
	}
}

// Execute runs one named step. Validation and unknown-application failures
// return a typed error and persist nothing; every executed step appends
// exactly one history row regardless of outcome.
func (e *Executor) Execute(ctx context.Context, stepName string, in Inputs) (*Result, error) {
	s, ok := e.registry.Get(stepName)
	if !ok {
		return nil, &NotFoundError{Resource: fmt.Sprintf("Unknown step %q", stepName)}
	}

	if missing := missingFields(in, []string{"host", "username", "applicationName"}); len(missing) > 0 {
		return nil, &ValidationError{Fields: missing}
	}

	// Steps against one application are serialized; steps against
	// different applications run concurrently.
	release := e.locks.acquire(in.Key())
	defer release()

	app, err := e.apps.GetByKey(nil, in.Host, in.Username, in.ApplicationName)
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("resolve application: %w", err)
		}
		if s.Name() != StepConnectionVerification {
			// No application to attach a history row to.
			return nil, errApplicationNotFound()
		}
		app = nil
	}

	if missing := missingFields(in, s.RequiredInputs()); len(missing) > 0 {
		return nil, &ValidationError{Fields: missing}
	}

	logger.Infof("Executing step %s for %s@%s/%s", s.Name(), in.Username, in.Host, in.ApplicationName)
	start := time.Now()
	result := e.runStep(ctx, s, &Context{
		App:     app,
		Inputs:  in,
		Remote:  e.dialer,
		Hosting: e.hosting,
		Apps:    e.apps,
	})
	elapsed := time.Since(start)

	e.appendHistory(app, in, s.Name(), result, elapsed)

	if result.Success {
		logger.Infof("Step %s succeeded in %v", s.Name(), elapsed)
	} else {
		logger.Warnf("Step %s failed in %v: %s", s.Name(), elapsed, result.Message)
	}
	return result, nil
}

// runStep invokes the step and folds every failure mode, including panics,
// into a failed Result.
func (e *Executor) runStep(ctx context.Context, s Step, sc *Context) (result *Result) {
	defer func() {
		if r := recover(); r != nil {
			logger.Errorf("Step %s panicked: %v", s.Name(), r)
			result = &Result{Success: false, Message: fmt.Sprintf("Internal error: %v", r)}
		}
	}()

	result, err := s.Execute(ctx, sc)
	if err != nil {
		return &Result{Success: false, Message: err.Error()}
	}
	if result == nil {
		return &Result{Success: false, Message: "step returned no result"}
	}
	return result
}

// appendHistory writes the invocation outcome. Logging is best effort: when
// the owning application cannot be resolved even after execution (a failed
// first verification), the failure is reported to the caller but there is
// no row to attach, so the append is skipped rather than re-raised.
func (e *Executor) appendHistory(app *models.Application, in Inputs, stepName string, result *Result, elapsed time.Duration) {
	if app == nil {
		refreshed, err := e.apps.GetByKey(nil, in.Host, in.Username, in.ApplicationName)
		if err != nil {
			logger.Warnf("Skipping history row for step %s: application %s not resolvable: %v", stepName, in.Key(), err)
			return
		}
		app = refreshed
	}

	status := models.StepStatusSuccess
	if !result.Success {
		status = models.StepStatusFailed
	}

	message := fmt.Sprintf("%s (duration: %s)", result.Message, elapsed.Round(time.Millisecond))
	if len(result.Data) > 0 {
		if detail, err := json.Marshal(result.Data); err == nil {
			message = fmt.Sprintf("%s | detail: %s", message, detail)
		}
	}

	entry := &models.StepLog{
		ApplicationID: app.ID,
		Step:          stepName,
		Status:        status,
		Message:       message,
	}
	if err := e.logs.Append(nil, entry); err != nil {
		logger.Errorf("Failed to append history row for step %s on application %d: %v", stepName, app.ID, err)
	}
}

// History returns the ordered step history for an application identified by
// its natural key.
func (e *Executor) History(host, username, applicationName string) ([]models.StepLog, error) {
	app, err := e.apps.GetByKey(nil, host, username, applicationName)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errApplicationNotFound()
		}
		return nil, fmt.Errorf("resolve application: %w", err)
	}
	return e.logs.ListByApplicationID(nil, app.ID)
}

func missingFields(in Inputs, fields []string) []string {
	var missing []string
	for _, field := range fields {
		if in.Get(field) == "" {
			missing = append(missing, field)
		}
	}
	return missing
}
