// Package services exposes the outreach operations used by the HTTP API and
// the command line, and maps domain errors to request outcomes.
package services

import (
	"errors"
	"fmt"

	"github.com/dukex/outreach/pkg/engine"
	"github.com/dukex/outreach/pkg/graph"
	"github.com/dukex/outreach/pkg/leads"
	"github.com/dukex/outreach/pkg/models"
	"github.com/dukex/outreach/pkg/persistence"
	"github.com/go-playground/validator/v10"
)

// Business Logic Errors - These indicate client errors (4xx responses).
var (
	// Validation Errors (400 Bad Request).
	ErrInvalidRequest = errors.New("invalid request")
	ErrWorkflowNil    = errors.New("workflow cannot be nil")
)

// ServiceError wraps service-level errors with additional context.
type ServiceError struct {
	Op      string // Operation name
	Code    string // Error code for API responses
	Message string // Human-readable message
	Err     error  // Underlying error
}

func (e *ServiceError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("%s: %s", e.Op, e.Message)
	}

	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *ServiceError) Unwrap() error {
	return e.Err
}

func (e *ServiceError) Is(target error) bool {
	return errors.Is(e.Err, target)
}

// IsValidationError checks if an error is a validation error that should return HTTP 400.
func IsValidationError(err error) bool {
	var (
		validationErrs validator.ValidationErrors
		unknownKind    *models.UnknownNodeKindError
	)

	return errors.Is(err, ErrInvalidRequest) ||
		errors.Is(err, ErrWorkflowNil) ||
		errors.Is(err, engine.ErrNoLeads) ||
		errors.Is(err, leads.ErrMissingColumns) ||
		graph.IsValidationError(err) ||
		graph.IsStructuralError(err) ||
		errors.As(err, &validationErrs) ||
		errors.As(err, &unknownKind)
}

// IsConflictError checks if an error is a business logic conflict that should return HTTP 409.
func IsConflictError(err error) bool {
	return engine.IsRunInProgress(err)
}

// IsNotFoundError checks if an error should return HTTP 404.
func IsNotFoundError(err error) bool {
	return persistence.IsRunNotFound(err) ||
		leads.IsLeadNotFound(err) ||
		errors.Is(err, leads.ErrIndexOutOfRange)
}

// NewValidationError creates a new validation error with context.
func NewValidationError(op, code, message string, err error) *ServiceError {
	return &ServiceError{
		Op:      op,
		Code:    code,
		Message: message,
		Err:     err,
	}
}
