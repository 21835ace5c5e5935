package service

import (
	"errors"
	"reflect"
	"regexp"
	"strings"
	"unicode"

	autherror "github.com/AnthoniusHendriyanto/backoffice-auth/internal/errors"
	"github.com/go-playground/validator/v10"
)

var usernameRegex = regexp.MustCompile(`^[A-Za-z0-9_]{3,30}$`)

// Validator checks request DTOs against their `validate` tags and reports
// failures as *autherror.ValidationError keyed by JSON field name.
type Validator struct {
	v *validator.Validate
}

func NewValidator() *Validator {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name, _, _ := strings.Cut(fld.Tag.Get("json"), ",")
		if name == "-" || name == "" {
			return fld.Name
		}
		return name
	})
	_ = v.RegisterValidation("username", func(fl validator.FieldLevel) bool {
		return usernameRegex.MatchString(fl.Field().String())
	})
	_ = v.RegisterValidation("strongpassword", func(fl validator.FieldLevel) bool {
		return isStrongPassword(fl.Field().String())
	})
	return &Validator{v: v}
}

func (v *Validator) Validate(input any) error {
	err := v.v.Struct(input)
	if err == nil {
		return nil
	}

	var vErrs validator.ValidationErrors
	if !errors.As(err, &vErrs) {
		return err
	}

	fields := make([]autherror.FieldError, 0, len(vErrs))
	for _, fe := range vErrs {
		fields = append(fields, autherror.FieldError{
			Field:   fe.Field(),
			Message: fieldMessage(fe),
		})
	}
	return autherror.NewValidationError(fields...)
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "email":
		return "must be a valid email address"
	case "min":
		return "must be at least " + fe.Param() + " characters"
	case "username":
		return "must be 3-30 characters and contain only letters, numbers and underscores"
	case "strongpassword":
		return "must contain an uppercase letter, a lowercase letter, a number and a special character"
	case "eqfield":
		return "passwords do not match"
	case "oneof":
		return "must be one of: " + fe.Param()
	default:
		return "is invalid"
	}
}

func isStrongPassword(pw string) bool {
	var upper, lower, digit, symbol bool
	for _, r := range pw {
		switch {
		case unicode.IsUpper(r):
			upper = true
		case unicode.IsLower(r):
			lower = true
		case unicode.IsDigit(r):
			digit = true
		case unicode.IsPunct(r) || unicode.IsSymbol(r):
			symbol = true
		}
	}
	return upper && lower && digit && symbol
}
