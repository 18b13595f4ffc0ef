package errors

import (
	"errors"

	"github.com/go-playground/validator/v10"
)

// FromValidation turns a validator failure into a VALIDATION_ERROR listing each failed field.
func FromValidation(err error, message string) *Error {
	out := Wrap(err, ErrValidation.Code, ErrValidation.Status, message)
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return out
	}
	details := make(map[string]string, len(fieldErrs))
	for _, fe := range fieldErrs {
		rule := fe.Tag()
		if fe.Param() != "" {
			rule += "=" + fe.Param()
		}
		details[fe.Field()] = rule
	}
	out.Details = details
	return out
}
