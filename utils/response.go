package utils

import (
	"errors"
	"net/http"

	"provisionapi/pkg/logger"
	"provisionapi/services/hosting"
	"provisionapi/services/remote"
	"provisionapi/services/step"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
)

// JSONResponse sends a JSON response with the specified HTTP status code.
func JSONResponse(c *gin.Context, status int, data interface{}) {
	c.JSON(status, data)
}

// ErrorResponse logs and sends a standardized error envelope. The HTTP
// status follows the error taxonomy: validation problems map to 400,
// missing applications to 404, everything unexpected degrades to 500.
func ErrorResponse(c *gin.Context, err error) {
	var validatorErrs validator.ValidationErrors
	if errors.As(err, &validatorErrs) {
		err = translateValidation(validatorErrs)
	}
	logger.Errorf("API Error: %v", err)
	c.JSON(statusForError(err), gin.H{
		"success": false,
		"error":   err.Error(),
	})
}

// translateValidation folds raw validator failures into the same
// "Missing required fields: ..." envelope the step engine produces, so the
// message shape is identical whichever layer caught the problem.
func translateValidation(errs validator.ValidationErrors) error {
	fields := make([]string, 0, len(errs))
	for _, fieldErr := range errs {
		fields = append(fields, fieldErr.Field())
	}
	return &step.ValidationError{Fields: fields}
}

func statusForError(err error) int {
	var validationErr *step.ValidationError
	var notFoundErr *step.NotFoundError
	var validatorErrs validator.ValidationErrors
	var connErr *remote.ConnectionError
	var execErr *remote.RemoteExecutionError
	var hostingErr *hosting.HostingAPIError

	switch {
	case errors.As(err, &validationErr), errors.As(err, &validatorErrs):
		return http.StatusBadRequest
	case errors.As(err, &notFoundErr):
		return http.StatusNotFound
	case errors.As(err, &connErr), errors.As(err, &execErr), errors.As(err, &hostingErr):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
