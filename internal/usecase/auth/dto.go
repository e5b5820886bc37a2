package auth

import (
	"strings"

	"github.com/go-playground/validator/v10"

	apperrors "realtime-users/pkg/errors"
)

var validate = validator.New()

// Messages shown for invalid identity forms.
const (
	MsgFillAllFields     = "Please fill all fields"
	MsgPasswordsMismatch = "Passwords do not match"
	MsgInvalidEmail      = "Email must be in valid format"
)

// SignUpRequest represents the request to register a new account.
type SignUpRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
	Confirm  string `json:"confirm" validate:"required,eqfield=Password"`
}

// SignInRequest represents the request to open a session.
type SignInRequest struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// SessionResponse is the wire form of an issued session.
type SessionResponse struct {
	Token     string `json:"token"`
	Email     string `json:"email"`
	ExpiresAt int64  `json:"expires_at"` // unix seconds
}

func (r *SignUpRequest) normalize() {
	r.Email = strings.TrimSpace(r.Email)
	r.Password = strings.TrimSpace(r.Password)
	r.Confirm = strings.TrimSpace(r.Confirm)
}

func (r *SignInRequest) normalize() {
	r.Email = strings.TrimSpace(r.Email)
	r.Password = strings.TrimSpace(r.Password)
}

// formatValidationError converts validator.ValidationErrors into a ValidationError.
// Missing fields win over every other failure.
func formatValidationError(err error) error {
	validationErrors, ok := err.(validator.ValidationErrors)
	if !ok || len(validationErrors) == 0 {
		return apperrors.NewValidationError("", err.Error())
	}

	for _, e := range validationErrors {
		if e.Tag() == "required" {
			return apperrors.NewValidationError(e.Field(), MsgFillAllFields)
		}
	}

	e := validationErrors[0]
	switch e.Tag() {
	case "eqfield":
		return apperrors.NewValidationError(e.Field(), MsgPasswordsMismatch)
	case "email":
		return apperrors.NewValidationError(e.Field(), MsgInvalidEmail)
	default:
		return apperrors.NewValidationError(e.Field(), e.Field()+" is invalid")
	}
}
