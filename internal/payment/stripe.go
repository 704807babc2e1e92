package payment

import (
	"context"
	"errors"
	"fmt"

	"github.com/stripe/stripe-go/v80"
	"github.com/stripe/stripe-go/v80/paymentintent"
	"go.uber.org/zap"
)

// StripeCharger charges cards by creating and confirming a PaymentIntent
type StripeCharger struct {
	client paymentintent.Client
	logger *zap.Logger
}

// NewStripeCharger builds a charger for secretKey. A nil backend uses the
// public Stripe API.
func NewStripeCharger(secretKey string, backend stripe.Backend, logger *zap.Logger) *StripeCharger {
	if backend == nil {
		backend = stripe.GetBackend(stripe.APIBackend)
	}
	return &StripeCharger{
		client: paymentintent.Client{B: backend, Key: secretKey},
		logger: logger,
	}
}

func (c *StripeCharger) Charge(ctx context.Context, amount int64, currency, token string) (string, error) {
	params := &stripe.PaymentIntentParams{
		Amount:             stripe.Int64(amount),
		Currency:           stripe.String(currency),
		PaymentMethod:      stripe.String(token),
		PaymentMethodTypes: stripe.StringSlice([]string{"card"}),
		Confirm:            stripe.Bool(true),
	}
	params.Context = ctx

	pi, err := c.client.New(params)
	if err != nil {
		var stripeErr *stripe.Error
		if errors.As(err, &stripeErr) && stripeErr.Msg != "" {
			c.logger.Info("Stripe declined payment",
				zap.String("code", string(stripeErr.Code)),
				zap.String("message", stripeErr.Msg),
			)
			return "", fmt.Errorf("%w: %s", ErrPaymentFailed, stripeErr.Msg)
		}
		c.logger.Error("Stripe request failed", zap.Error(err))
		return "", fmt.Errorf("%w: %v", ErrPaymentFailed, err)
	}

	if pi.Status != stripe.PaymentIntentStatusSucceeded {
		c.logger.Info("Payment intent not completed",
			zap.String("payment_intent", pi.ID),
			zap.String("status", string(pi.Status)),
		)
		return "", fmt.Errorf("%w: payment intent %s is %s", ErrPaymentFailed, pi.ID, pi.Status)
	}

	return pi.ID, nil
}
