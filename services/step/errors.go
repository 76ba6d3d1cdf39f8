package step

import (
	"fmt"
	"strings"
)

// ValidationError indicates missing or malformed required input. It is
// raised before any remote call and is never persisted to the step history.
type ValidationError struct {
	Fields []string
	Reason string
}

func (e *ValidationError) Error() string {
	if len(e.Fields) > 0 {
		return fmt.Sprintf("Missing required fields: %s", strings.Join(e.Fields, ", "))
	}
	return e.Reason
}

// NotFoundError indicates the referenced application (or step) does not exist.
type NotFoundError struct {
	Resource string
}

func (e *NotFoundError) Error() string {
	return e.Resource
}

// ErrApplicationNotFound is the canonical not-found failure for steps that
// require a verified application.
func errApplicationNotFound() *NotFoundError {
	return &NotFoundError{Resource: "Application not found. Please verify the connection first."}
}
