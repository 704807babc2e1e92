package service

import (
	"errors"
	"fmt"
	"strings"

	"catalog-api/internal/validation"

	"github.com/go-playground/validator/v10"
)

// FieldError names one violated constraint
type FieldError struct {
	Field string
	Tag   string
	Param string
}

// ValidationError lists every constraint a write violated
type ValidationError struct {
	Fields []FieldError
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		parts = append(parts, f.Field+" ("+f.Tag+")")
	}
	return "validation failed: " + strings.Join(parts, ", ")
}

// IsValidationError reports whether err carries a *ValidationError
func IsValidationError(err error) bool {
	var verr *ValidationError
	return errors.As(err, &verr)
}

// validateStruct runs the struct tags on s and converts failures into a
// *ValidationError naming every field.
func validateStruct(s any) error {
	err := validation.Struct(s)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("failed to validate: %w", err)
	}

	fields := make([]FieldError, 0, len(verrs))
	for _, fe := range verrs {
		fields = append(fields, FieldError{
			Field: validation.FieldPath(fe.Namespace()),
			Tag:   fe.Tag(),
			Param: fe.Param(),
		})
	}
	return &ValidationError{Fields: fields}
}

func newFieldError(field, tag string) *ValidationError {
	return &ValidationError{Fields: []FieldError{{Field: field, Tag: tag}}}
}
