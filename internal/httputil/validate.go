package httputil

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		if name == "" {
			return fld.Name
		}
		return name
	})
	return v
}

// FieldError describes one failed validation rule.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Code    string `json:"code"`
}

// Validate runs the `validate` struct tags on v.
func Validate(v any) error {
	return validate.Struct(v)
}

// ValidationDetails converts validator errors into client-facing messages.
// Other errors yield nil.
func ValidationDetails(err error) []FieldError {
	var errs validator.ValidationErrors
	if !errors.As(err, &errs) {
		return nil
	}

	details := make([]FieldError, 0, len(errs))
	for _, fe := range errs {
		var message string
		switch fe.Tag() {
		case "required":
			message = fmt.Sprintf("Field '%s' is required", fe.Field())
		case "email":
			message = fmt.Sprintf("Field '%s' must be a valid email address", fe.Field())
		case "min":
			message = fmt.Sprintf("Field '%s' must be at least %s", fe.Field(), fe.Param())
		case "max":
			message = fmt.Sprintf("Field '%s' must not exceed %s", fe.Field(), fe.Param())
		case "oneof":
			message = fmt.Sprintf("Field '%s' must be one of [%s]", fe.Field(), fe.Param())
		default:
			message = fmt.Sprintf("Field validation for '%s' failed on the '%s' tag", fe.Field(), fe.Tag())
		}
		details = append(details, FieldError{
			Field:   fe.Field(),
			Message: message,
			Code:    "validation_" + fe.Tag(),
		})
	}
	return details
}
