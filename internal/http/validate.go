package http

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/nutricoach/nutricoach/internal/domain"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// validateStruct reports the first failing field as a validation error.
func validateStruct(s interface{}) error {
	err := validate.Struct(s)
	if err == nil {
		return nil
	}

	var vErrs validator.ValidationErrors
	if errors.As(err, &vErrs) && len(vErrs) > 0 {
		fe := vErrs[0]
		switch fe.Tag() {
		case "required":
			return fmt.Errorf("%s is required: %w", fe.Field(), domain.ErrValidation)
		case "min":
			return fmt.Errorf("%s must have at least %s entries: %w", fe.Field(), fe.Param(), domain.ErrValidation)
		case "gt":
			return fmt.Errorf("%s must be greater than %s: %w", fe.Field(), fe.Param(), domain.ErrValidation)
		default:
			return fmt.Errorf("%s failed %s: %w", fe.Field(), fe.Tag(), domain.ErrValidation)
		}
	}
	return fmt.Errorf("%v: %w", err, domain.ErrValidation)
}
