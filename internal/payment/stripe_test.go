package payment

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stripe/stripe-go/v76"
)

func newStripeTestGateway(t *testing.T, status int, body string) (*StripeGateway, *http.Request) {
	t.Helper()
	var captured http.Request
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = r.ParseForm()
		captured = *r
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)

	backend := stripe.GetBackendWithConfig(stripe.APIBackend, &stripe.BackendConfig{
		URL:               stripe.String(srv.URL),
		HTTPClient:        srv.Client(),
		MaxNetworkRetries: stripe.Int64(0),
		LeveledLogger:     &stripe.LeveledLogger{Level: stripe.LevelNull},
	})
	return NewStripeGatewayWithBackend("sk_test_123", backend), &captured
}

func TestStripeGatewayCharge(t *testing.T) {
	gw, captured := newStripeTestGateway(t, http.StatusOK, `{"id":"ch_123","object":"charge","paid":true}`)

	res, err := gw.Charge(context.Background(), ChargeRequest{
		Amount:         5000,
		Currency:       "usd",
		Source:         "tok_visa",
		IdempotencyKey: "txn-abc",
	})
	if err != nil {
		t.Fatalf("Charge: %v", err)
	}
	if res.ChargeID != "ch_123" {
		t.Errorf("ChargeID = %q", res.ChargeID)
	}
	if captured.URL.Path != "/v1/charges" {
		t.Errorf("path = %s", captured.URL.Path)
	}
	if got := captured.PostForm.Get("amount"); got != "5000" {
		t.Errorf("amount = %q", got)
	}
	if got := captured.PostForm.Get("source"); got != "tok_visa" {
		t.Errorf("source = %q", got)
	}
	if got := captured.Header.Get("Idempotency-Key"); got != "txn-abc" {
		t.Errorf("Idempotency-Key = %q", got)
	}
}

func TestStripeGatewayDecline(t *testing.T) {
	gw, _ := newStripeTestGateway(t, http.StatusPaymentRequired,
		`{"error":{"type":"card_error","code":"card_declined","decline_code":"insufficient_funds","message":"Your card has insufficient funds."}}`)

	_, err := gw.Charge(context.Background(), ChargeRequest{Amount: 5000, Currency: "usd", Source: "tok_chargeDeclined"})
	var decline *DeclineError
	if !errors.As(err, &decline) {
		t.Fatalf("expected *DeclineError, got %T %v", err, err)
	}
	if decline.Code != "card_declined" || decline.Reason != "Your card has insufficient funds." {
		t.Errorf("unexpected decline %+v", decline)
	}
}

func TestStripeGatewayAPIErrorIsNotDecline(t *testing.T) {
	gw, _ := newStripeTestGateway(t, http.StatusInternalServerError,
		`{"error":{"type":"api_error","message":"Something went wrong"}}`)

	_, err := gw.Charge(context.Background(), ChargeRequest{Amount: 5000, Currency: "usd", Source: "tok_visa"})
	if err == nil {
		t.Fatal("expected error")
	}
	var decline *DeclineError
	if errors.As(err, &decline) {
		t.Errorf("api error reported as decline: %v", err)
	}
}
