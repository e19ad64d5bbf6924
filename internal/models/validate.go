package models

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	_ = v.RegisterValidation("campus", func(fl validator.FieldLevel) bool {
		return Campus(fl.Field().String()).Valid()
	})
	_ = v.RegisterValidation("relationship", func(fl validator.FieldLevel) bool {
		return RelationshipStatus(fl.Field().String()).Valid()
	})
	return v
}

// ValidateStruct checks the validate tags of s and reports the first
// failures as a ValidationError.
func ValidateStruct(s interface{}) error {
	err := validate.Struct(s)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return NewValidationError(err.Error())
	}
	msgs := make([]string, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		msgs = append(msgs, fmt.Sprintf("%s is invalid (%s)", fe.Field(), fe.Tag()))
	}
	return NewValidationError(strings.Join(msgs, "; "))
}
