// Package payment holds the call contract of the external charge service.
package payment

import (
	"context"
	"fmt"
)

type ChargeRequest struct {
	Amount         int64
	Currency       string
	Source         string
	Description    string
	IdempotencyKey string
}

type ChargeResult struct {
	ChargeID string
}

// Gateway charges a payment source. A card-level refusal is returned as
// *DeclineError; any other error means the outcome is unknown.
type Gateway interface {
	Charge(ctx context.Context, req ChargeRequest) (*ChargeResult, error)
}

type DeclineError struct {
	Code   string
	Reason string
}

func (e *DeclineError) Error() string {
	if e.Code == "" {
		return fmt.Sprintf("payment declined: %s", e.Reason)
	}
	return fmt.Sprintf("payment declined (%s): %s", e.Code, e.Reason)
}
