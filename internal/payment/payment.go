package payment

import (
	"context"
	"errors"
)

// ErrPaymentFailed wraps every failure reported by a payment processor
var ErrPaymentFailed = errors.New("payment failed")

// Charger collects a payment for amount (in the currency's smallest unit)
// using a client-side token and returns the processor's charge id.
type Charger interface {
	Charge(ctx context.Context, amount int64, currency, token string) (string, error)
}
