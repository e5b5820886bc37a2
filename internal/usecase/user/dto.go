package user

import (
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"

	apperrors "realtime-users/pkg/errors"
)

var validate = validator.New()

// FormInput represents the values submitted from the user form.
type FormInput struct {
	Name  string `validate:"required"`
	Email string `validate:"required"`
}

// ValidateForm trims the submitted values and checks that none is empty.
func ValidateForm(name, email string) (FormInput, error) {
	in := FormInput{
		Name:  strings.TrimSpace(name),
		Email: strings.TrimSpace(email),
	}
	if err := validate.Struct(in); err != nil {
		return in, formatValidationError(err)
	}
	return in, nil
}

// formatValidationError converts validator.ValidationErrors into a ValidationError.
func formatValidationError(err error) error {
	validationErrors, ok := err.(validator.ValidationErrors)
	if !ok || len(validationErrors) == 0 {
		return apperrors.NewValidationError("", err.Error())
	}

	var messages []string
	for _, e := range validationErrors {
		switch e.Tag() {
		case "required":
			messages = append(messages, fmt.Sprintf("%s is required", e.Field()))
		default:
			messages = append(messages, fmt.Sprintf("%s is invalid", e.Field()))
		}
	}
	return apperrors.NewValidationError(validationErrors[0].Field(), strings.Join(messages, ", "))
}
