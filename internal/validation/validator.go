package validation

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"quiz-forge/internal/domain"

	"github.com/go-playground/validator/v10"
)

// Validator validates request DTOs through their validate struct tags.
type Validator struct {
	validate *validator.Validate
}

// NewValidator creates a new validator instance. Field names in errors use the
// json tag so they match the request body.
func NewValidator() *Validator {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name, _, _ := strings.Cut(fld.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return &Validator{validate: v}
}

// Struct validates s and returns nil or domain.ValidationErrors.
func (v *Validator) Struct(s interface{}) error {
	err := v.validate.Struct(s)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return domain.NewInvalidInputError(err.Error())
	}

	errs := make(domain.ValidationErrors, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		errs = append(errs, toValidationError(fe))
	}
	return errs
}

func toValidationError(fe validator.FieldError) domain.ValidationError {
	field := fieldPath(fe.Namespace())
	switch fe.Tag() {
	case "required":
		return domain.NewMissingFieldError(field)
	case "min", "max", "ltefield":
		return domain.ValidationError{Field: field, Message: limitMessage(fe), Value: fe.Value()}
	case "oneof":
		return domain.ValidationError{Field: field, Message: "must be one of: " + fe.Param(), Value: fe.Value()}
	default:
		return domain.NewInvalidFormatError(field, fe.Value())
	}
}

func limitMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "min":
		return fmt.Sprintf("must be at least %s", fe.Param())
	case "max":
		return fmt.Sprintf("must be at most %s", fe.Param())
	default:
		return fmt.Sprintf("must not exceed %s", fe.Param())
	}
}

// fieldPath drops the root struct name from a namespace such as
// "GenerateQuizRequest.types[0]".
func fieldPath(ns string) string {
	if _, rest, ok := strings.Cut(ns, "."); ok {
		return rest
	}
	return ns
}
