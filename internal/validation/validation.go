// Package validation owns the single validator instance shared by request
// decoding and the catalog services, with the catalog's custom tags:
//
//	notblank  string has a non-whitespace character
//	httpurl   string starts with http:// or https://, scheme case-insensitive
package validation

import (
	"fmt"
	"reflect"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
)

var pictureURLPattern = regexp.MustCompile(`(?i)^https?://`)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())

	// Report fields by their JSON names so errors match the wire format.
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name, _, _ := strings.Cut(fld.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		if name == "" {
			return fld.Name
		}
		return name
	})

	mustRegister(v, "notblank", func(fl validator.FieldLevel) bool {
		return strings.TrimSpace(fl.Field().String()) != ""
	})
	mustRegister(v, "httpurl", func(fl validator.FieldLevel) bool {
		return pictureURLPattern.MatchString(fl.Field().String())
	})
	return v
}

func mustRegister(v *validator.Validate, tag string, fn validator.Func) {
	if err := v.RegisterValidation(tag, fn); err != nil {
		panic(fmt.Sprintf("register %s validation: %v", tag, err))
	}
}

// Struct runs the validate tags on s. Failures are validator.ValidationErrors.
func Struct(s any) error {
	return validate.Struct(s)
}

// FieldPath drops the root struct name, "Product.price.amount" => "price.amount"
func FieldPath(namespace string) string {
	if _, rest, ok := strings.Cut(namespace, "."); ok {
		return rest
	}
	return namespace
}
