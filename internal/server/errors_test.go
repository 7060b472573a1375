package server

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/jonathan/cojournalist/internal/identity"
	"github.com/jonathan/cojournalist/internal/modes"
	"github.com/jonathan/cojournalist/internal/session"
	"github.com/jonathan/cojournalist/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHTTPStatus(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{name: "validation", err: &ErrValidation{Field: "mode", Message: "required"}, want: http.StatusBadRequest},
		{name: "unknown mode", err: &modes.ErrUnknownMode{Value: "CHAT"}, want: http.StatusBadRequest},
		{name: "invalid credentials", err: fmt.Errorf("%w: rejected", identity.ErrInvalidCredentials), want: http.StatusUnauthorized},
		{name: "session not found", err: &session.NotFoundError{ID: "abc"}, want: http.StatusNotFound},
		{name: "busy", err: session.ErrBusy, want: http.StatusConflict},
		{name: "input locked", err: session.ErrInputLocked, want: http.StatusConflict},
		{name: "unavailable", err: &ErrUnavailable{Service: "sign-in"}, want: http.StatusServiceUnavailable},
		{name: "provider error", err: &identity.Error{Op: "sign-up", StatusCode: 500}, want: http.StatusBadGateway},
		{name: "provider without user", err: identity.ErrNoIdentity, want: http.StatusBadGateway},
		{name: "wrapped busy", err: fmt.Errorf("submit: %w", session.ErrBusy), want: http.StatusConflict},
		{name: "unknown", err: errors.New("boom"), want: http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, HTTPStatus(tt.err))
		})
	}
}

func TestErrorMessages(t *testing.T) {
	assert.Equal(t, "validation error: job_id - uuid", (&ErrValidation{Field: "job_id", Message: "uuid"}).Error())
	assert.Equal(t, "sign-in is unavailable", (&ErrUnavailable{Service: "sign-in"}).Error())
}

func TestValidationError(t *testing.T) {
	req := types.SignInRequest{Email: "not-an-email", Password: "secret123"}
	err := validationError(validator.New().Struct(&req))

	var ve *ErrValidation
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, "Email", ve.Field)
	assert.Equal(t, "email", ve.Message)

	err = validationError(errors.New("not a validator error"))
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, "body", ve.Field)
}
