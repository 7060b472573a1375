package types

import (
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

// Identity is the authenticated caller as asserted by the identity provider.
type Identity struct {
	ExternalID string `json:"external_id"`
	Email      string `json:"email"`
}

// User is the internal user record for API responses (avoids import cycle with db package).
type User struct {
	ID                 uuid.UUID `json:"id"`
	ExternalIdentityID string    `json:"external_identity_id"`
	Email              string    `json:"email"`
	IsPaid             bool      `json:"is_paid"`
	CreatedAt          time.Time `json:"created_at"`
}

// SignInRequest represents an email/password sign-in (or first-time sign-up).
type SignInRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
}

// SignInResponse represents the sign-in response with identity and token.
type SignInResponse struct {
	Identity *Identity `json:"identity"`
	UserID   uuid.UUID `json:"user_id,omitempty"`
	Token    string    `json:"token,omitempty"`
	SignedUp bool      `json:"signed_up"`
}

// MeResponse describes the caller.
type MeResponse struct {
	Identity      *Identity  `json:"identity"`
	UserID        *uuid.UUID `json:"user_id"`
	IsPaid        bool       `json:"is_paid"`
	Authenticated bool       `json:"authenticated"`
}

// Validate validates the SignInRequest using the validator.
func (r *SignInRequest) Validate() error {
	validate := validator.New()
	return validate.Struct(r)
}
