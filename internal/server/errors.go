// Package server provides the HTTP API of the coJournalist service.
package server

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/jonathan/cojournalist/internal/identity"
	"github.com/jonathan/cojournalist/internal/modes"
	"github.com/jonathan/cojournalist/internal/session"
)

// ErrValidation indicates request validation failure
type ErrValidation struct {
	Field   string
	Message string
}

func (e *ErrValidation) Error() string {
	return fmt.Sprintf("validation error: %s - %s", e.Field, e.Message)
}

// ErrUnavailable indicates a collaborator that is not configured or not reachable.
type ErrUnavailable struct {
	Service string
}

func (e *ErrUnavailable) Error() string {
	return fmt.Sprintf("%s is unavailable", e.Service)
}

// validationError converts a validator failure into an ErrValidation for its
// first field.
func validationError(err error) error {
	var fieldErrors validator.ValidationErrors
	if errors.As(err, &fieldErrors) && len(fieldErrors) > 0 {
		fe := fieldErrors[0]
		return &ErrValidation{Field: fe.Field(), Message: fe.Tag()}
	}
	return &ErrValidation{Field: "body", Message: "invalid request"}
}

// HTTPStatus returns the appropriate HTTP status code for an error
func HTTPStatus(err error) int {
	var (
		validation  *ErrValidation
		unknownMode *modes.ErrUnknownMode
		notFound    *session.NotFoundError
		unavailable *ErrUnavailable
		provider    *identity.Error
	)
	switch {
	case errors.As(err, &validation), errors.As(err, &unknownMode):
		return http.StatusBadRequest
	case errors.Is(err, identity.ErrInvalidCredentials):
		return http.StatusUnauthorized
	case errors.As(err, &notFound):
		return http.StatusNotFound
	case errors.Is(err, session.ErrBusy), errors.Is(err, session.ErrInputLocked):
		return http.StatusConflict
	case errors.As(err, &unavailable):
		return http.StatusServiceUnavailable
	case errors.As(err, &provider), errors.Is(err, identity.ErrNoIdentity):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
