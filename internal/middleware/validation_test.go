package middleware

import (
	"bytes"
	"encoding/json"
	"net/http/httptest"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

// Shapes mirror the cart and checkout request bodies
type testCartLine struct {
	Product  string `json:"product" validate:"required"`
	Quantity int    `json:"quantity" validate:"gte=1,lte=100"`
}

type testCheckoutRequest struct {
	StripeToken string `json:"stripeToken" validate:"required"`
	Currency    string `json:"currency" validate:"omitempty,oneof=USD EUR GBP"`
}

func decode(t *testing.T, body map[string]interface{}, v interface{}) error {
	t.Helper()
	reqBody, _ := json.Marshal(body)
	req := httptest.NewRequest("POST", "/test", bytes.NewReader(reqBody))
	req.Header.Set("Content-Type", "application/json")
	return DecodeAndValidate(req, v)
}

func TestProperty_RequiredFieldValidationWorks(t *testing.T) {
	properties := gopter.NewProperties(nil)

	properties.Property("missing required fields are rejected", prop.ForAll(
		func(includeProduct bool, includeQuantity bool) bool {
			reqMap := make(map[string]interface{})
			if includeProduct {
				reqMap["product"] = "p-lg"
			}
			if includeQuantity {
				reqMap["quantity"] = 2
			}

			var line testCartLine
			err := decode(t, reqMap, &line)

			if includeProduct && includeQuantity {
				return err == nil
			}
			return err != nil
		},
		gen.Bool(),
		gen.Bool(),
	))

	properties.TestingRun(t, gopter.ConsoleReporter(false))
}

func TestProperty_ValidationErrorsAreFormatted(t *testing.T) {
	properties := gopter.NewProperties(nil)

	properties.Property("validation errors name the JSON field and carry a message", prop.ForAll(
		func(currency string) bool {
			var req testCheckoutRequest
			err := decode(t, map[string]interface{}{"currency": currency}, &req)
			if err == nil {
				return false
			}

			validationErrors := FormatValidationErrors(err)
			if len(validationErrors) != 2 {
				return false
			}
			if validationErrors[0].Field != "stripeToken" || validationErrors[1].Field != "currency" {
				return false
			}
			for _, ve := range validationErrors {
				if ve.Message == "" {
					return false
				}
			}
			return validationErrors[1].Message == "Must be one of: USD EUR GBP"
		},
		gen.OneConstOf("JPY", "usd", "CHF", "BTC"),
	))

	properties.TestingRun(t, gopter.ConsoleReporter(false))
}

func TestProperty_ValidRequestsPassValidation(t *testing.T) {
	properties := gopter.NewProperties(nil)

	properties.Property("valid requests pass validation", prop.ForAll(
		func(token string, currency string) bool {
			var req testCheckoutRequest
			err := decode(t, map[string]interface{}{
				"stripeToken": token,
				"currency":    currency,
			}, &req)
			return err == nil && req.StripeToken == token
		},
		gen.Identifier(),
		gen.OneConstOf("", "USD", "EUR", "GBP"),
	))

	properties.TestingRun(t, gopter.ConsoleReporter(false))
}

func TestProperty_QuantityRangeValidation(t *testing.T) {
	properties := gopter.NewProperties(nil)

	properties.Property("quantity outside 1..100 is rejected", prop.ForAll(
		func(quantity int) bool {
			var line testCartLine
			err := decode(t, map[string]interface{}{
				"product":  "p-asus",
				"quantity": quantity,
			}, &line)

			if quantity >= 1 && quantity <= 100 {
				return err == nil
			}
			return err != nil
		},
		gen.IntRange(-50, 200),
	))

	properties.TestingRun(t, gopter.ConsoleReporter(false))
}

func TestValidationMessage(t *testing.T) {
	tests := []struct {
		tag, param, want string
	}{
		{"required", "", "This field is required"},
		{"notblank", "", "This field must not be blank"},
		{"httpurl", "", "Must be an http:// or https:// URL"},
		{"gte", "0", "Value must be greater than or equal to 0"},
		{"unknown", "", "Invalid value"},
	}
	for _, tt := range tests {
		if got := ValidationMessage(tt.tag, tt.param); got != tt.want {
			t.Errorf("ValidationMessage(%q, %q) = %q, want %q", tt.tag, tt.param, got, tt.want)
		}
	}
}

type testPictureUpload struct {
	Caption string   `json:"caption" validate:"notblank"`
	URLs    []string `json:"urls" validate:"dive,httpurl"`
}

func TestDecodeAndValidate_UsesCatalogTags(t *testing.T) {
	var upload testPictureUpload
	err := decode(t, map[string]interface{}{
		"caption": "  ",
		"urls":    []string{"https://cdn.example.com/a.png", "javascript:alert(1)"},
	}, &upload)

	formatted := FormatValidationErrors(err)
	if len(formatted) != 2 {
		t.Fatalf("expected 2 validation errors, got %v (err=%v)", formatted, err)
	}
	if formatted[0].Field != "caption" || formatted[0].Message != "This field must not be blank" {
		t.Errorf("unexpected caption error: %+v", formatted[0])
	}
	if formatted[1].Field != "urls[1]" || formatted[1].Message != "Must be an http:// or https:// URL" {
		t.Errorf("unexpected url error: %+v", formatted[1])
	}
}
