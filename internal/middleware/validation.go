package middleware

import (
	"encoding/json"
	"errors"
	"net/http"

	"catalog-api/internal/validation"

	"github.com/go-playground/validator/v10"
)

// ValidateRequest validates the request body against a struct with validation tags
func ValidateRequest(v interface{}) error {
	return validation.Struct(v)
}

// DecodeAndValidate decodes JSON request body and validates it
func DecodeAndValidate(r *http.Request, v interface{}) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return err
	}
	return ValidateRequest(v)
}

// ValidationError represents a field validation error
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// FormatValidationErrors converts validator errors to a readable format
func FormatValidationErrors(err error) []ValidationError {
	var formatted []ValidationError

	var validationErrors validator.ValidationErrors
	if errors.As(err, &validationErrors) {
		for _, e := range validationErrors {
			formatted = append(formatted, ValidationError{
				Field:   validation.FieldPath(e.Namespace()),
				Message: ValidationMessage(e.Tag(), e.Param()),
			})
		}
	}

	return formatted
}

// ValidationMessage renders a validator tag as a human readable message
func ValidationMessage(tag, param string) string {
	switch tag {
	case "required":
		return "This field is required"
	case "notblank":
		return "This field must not be blank"
	case "httpurl":
		return "Must be an http:// or https:// URL"
	case "oneof":
		return "Must be one of: " + param
	case "min":
		return "Value is too short"
	case "max":
		return "Value is too long"
	case "gte":
		return "Value must be greater than or equal to " + param
	case "lte":
		return "Value must be less than or equal to " + param
	case "gt":
		return "Value must be greater than " + param
	case "lt":
		return "Value must be less than " + param
	default:
		return "Invalid value"
	}
}
