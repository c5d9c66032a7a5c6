package ir

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

// readoutValidate is the validator instance for readouts.
// Field names are reported by their JSON names.
var readoutValidate *validator.Validate

func init() {
	readoutValidate = validator.New()
	readoutValidate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
}

// ValidationError describes the first problem found in a readout.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// ValidateReadout checks required fields and enum values.
// Missing fields are reported before invalid values, in struct field order.
func ValidateReadout(r ExperimentReadout) error {
	err := readoutValidate.Struct(r)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return fmt.Errorf("validate readout: %w", err)
	}

	for _, fe := range verrs {
		if fe.Tag() == "required" {
			return &ValidationError{
				Field:   fe.Field(),
				Message: "Missing required field: " + fe.Field(),
			}
		}
	}

	fe := verrs[0]
	switch fe.Field() {
	case "verdict":
		return &ValidationError{
			Field:   fe.Field(),
			Message: fmt.Sprintf("Invalid verdict: %v. Must be one of: %s", fe.Value(), joinEnum(ValidVerdicts)),
		}
	case "confidence":
		return &ValidationError{
			Field:   fe.Field(),
			Message: fmt.Sprintf("Invalid confidence: %v. Must be one of: %s", fe.Value(), joinEnum(ValidConfidenceLevels)),
		}
	default:
		return &ValidationError{
			Field:   fe.Field(),
			Message: fmt.Sprintf("Invalid %s: %v", fe.Field(), fe.Value()),
		}
	}
}

func joinEnum[T ~string](values []T) string {
	parts := make([]string, len(values))
	for i, v := range values {
		parts[i] = string(v)
	}
	return strings.Join(parts, ", ")
}
