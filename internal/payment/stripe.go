package payment

import (
	"context"
	"errors"
	"fmt"

	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/charge"
)

// StripeGateway creates Stripe charges against a tokenised card source.
type StripeGateway struct {
	client *charge.Client
}

func NewStripeGateway(secretKey string) *StripeGateway {
	return NewStripeGatewayWithBackend(secretKey, stripe.GetBackend(stripe.APIBackend))
}

func NewStripeGatewayWithBackend(secretKey string, backend stripe.Backend) *StripeGateway {
	return &StripeGateway{client: &charge.Client{B: backend, Key: secretKey}}
}

func (g *StripeGateway) Charge(ctx context.Context, req ChargeRequest) (*ChargeResult, error) {
	params := &stripe.ChargeParams{
		Amount:      stripe.Int64(req.Amount),
		Currency:    stripe.String(req.Currency),
		Description: stripe.String(req.Description),
	}
	params.Context = ctx
	if err := params.SetSource(req.Source); err != nil {
		return nil, fmt.Errorf("invalid payment source: %w", err)
	}
	if req.IdempotencyKey != "" {
		params.SetIdempotencyKey(req.IdempotencyKey)
	}

	ch, err := g.client.New(params)
	if err != nil {
		return nil, translateStripeError(err)
	}
	return &ChargeResult{ChargeID: ch.ID}, nil
}

func translateStripeError(err error) error {
	var stripeErr *stripe.Error
	if errors.As(err, &stripeErr) && stripeErr.Type == stripe.ErrorTypeCard {
		reason := stripeErr.Msg
		if reason == "" {
			reason = string(stripeErr.DeclineCode)
		}
		return &DeclineError{Code: string(stripeErr.Code), Reason: reason}
	}
	return fmt.Errorf("stripe charge failed: %w", err)
}
