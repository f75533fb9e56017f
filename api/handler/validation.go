package handler

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"

	"profilehub/internal/dto"

	"github.com/go-playground/validator/v10"
)

var (
	personNamePattern = regexp.MustCompile(`^[а-яА-ЯёЁa-zA-Z]+$`)
	bcryptHashPattern = regexp.MustCompile(`^\$2[aby]?\$\d{2}\$[./A-Za-z0-9]{53}$`)
)

// NewValidator returns a validator that reports json field names and knows
// the person_name and bcrypt_hash tags.
func NewValidator() *validator.Validate {
	validate := validator.New(validator.WithRequiredStructEnabled())
	validate.RegisterTagNameFunc(func(field reflect.StructField) string {
		name := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	_ = validate.RegisterValidation("person_name", func(fl validator.FieldLevel) bool {
		return personNamePattern.MatchString(fl.Field().String())
	})
	_ = validate.RegisterValidation("bcrypt_hash", func(fl validator.FieldLevel) bool {
		return bcryptHashPattern.MatchString(fl.Field().String())
	})
	return validate
}

func validationErrors(validate *validator.Validate, payload any) []dto.FieldError {
	if validate == nil {
		return nil
	}
	err := validate.Struct(payload)
	if err == nil {
		return nil
	}
	var invalid validator.ValidationErrors
	if !errors.As(err, &invalid) {
		return []dto.FieldError{{Message: err.Error()}}
	}
	fieldErrors := make([]dto.FieldError, 0, len(invalid))
	for _, fe := range invalid {
		fieldErrors = append(fieldErrors, dto.FieldError{
			Message: fieldMessage(fe),
			Field:   fe.Field(),
		})
	}
	return fieldErrors
}

func fieldMessage(fe validator.FieldError) string {
	field := fe.Field()
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", field)
	case "min":
		return fmt.Sprintf("%s must be at least %s characters long", field, fe.Param())
	case "max":
		return fmt.Sprintf("%s must be at most %s characters long", field, fe.Param())
	case "email":
		return fmt.Sprintf("%s must be a valid email address", field)
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", field, fe.Param())
	case "person_name":
		return fmt.Sprintf("%s may contain only Latin or Cyrillic letters", field)
	case "bcrypt_hash":
		return fmt.Sprintf("%s must be a bcrypt hash", field)
	case "datetime":
		return fmt.Sprintf("%s must be an RFC 3339 timestamp", field)
	}
	return fmt.Sprintf("%s is invalid", field)
}
