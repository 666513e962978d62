//go:build !integration

package payment

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"testing"
	"time"

	"course-settlement/internal/domain"
	"course-settlement/internal/domain/model"
)

const stripeSecret = "whsec_test"

func stripeHeader(body string, at time.Time) http.Header {
	ts := strconv.FormatInt(at.Unix(), 10)
	h := http.Header{}
	h.Set("Stripe-Signature", "t="+ts+",v1=deadbeef,v1="+signHex(stripeSecret, ts+"."+body))
	return h
}

func TestStripeParser_Verify(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)
	p := NewStripeParser(stripeSecret, 5*time.Minute)
	p.now = func() time.Time { return now }
	body := `{"id":"evt_1","type":"payment_intent.succeeded","data":{"object":{"id":"pi_1"}}}`

	t.Run("should accept any matching v1 signature", func(t *testing.T) {
		if err := p.Verify(stripeHeader(body, now.Add(-time.Minute)), []byte(body)); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	})

	t.Run("should reject timestamps outside the tolerance", func(t *testing.T) {
		err := p.Verify(stripeHeader(body, now.Add(-6*time.Minute)), []byte(body))
		if !errors.Is(err, domain.ErrWebhookSignature) {
			t.Fatalf("expected ErrWebhookSignature, got %v", err)
		}
	})

	t.Run("should reject a modified body", func(t *testing.T) {
		err := p.Verify(stripeHeader(body, now), []byte(body+" "))
		if !errors.Is(err, domain.ErrWebhookSignature) {
			t.Fatalf("expected ErrWebhookSignature, got %v", err)
		}
	})
}

func TestStripeParser_Parse(t *testing.T) {
	p := NewStripeParser(stripeSecret, 0)
	ctx := context.Background()

	t.Run("should map payment intents to payment scope", func(t *testing.T) {
		ev, err := p.Parse(ctx, []byte(`{"id":"evt_1","type":"payment_intent.payment_failed","data":{"object":{"id":"pi_1","metadata":{"payment_id":"pay-1"}}}}`))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if ev.Scope != model.WebhookScopePayment || ev.ExternalPaymentID != "pi_1" || ev.ExternalReference != "pay-1" {
			t.Errorf("unexpected event: %+v", ev)
		}
		if ev.ExternalStatus != "payment_intent.payment_failed" {
			t.Errorf("unexpected status: %s", ev.ExternalStatus)
		}
	})

	t.Run("should key refunds on the payment intent", func(t *testing.T) {
		ev, err := p.Parse(ctx, []byte(`{"id":"evt_2","type":"charge.refunded","data":{"object":{"id":"ch_1","payment_intent":"pi_1"}}}`))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if ev.ExternalPaymentID != "pi_1" {
			t.Errorf("expected pi_1, got %s", ev.ExternalPaymentID)
		}
	})

	t.Run("should parse failed invoices with attempt count and period", func(t *testing.T) {
		ev, err := p.Parse(ctx, []byte(`{"id":"evt_3","type":"invoice.payment_failed","data":{"object":{"id":"in_1","subscription":"sub_1","customer":"cus_1","attempt_count":3,"period_start":1700000000,"period_end":1702592000}}}`))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if ev.Scope != model.WebhookScopeSubscription || ev.SubscriptionKind != model.SubEventInvoiceFailed {
			t.Errorf("unexpected scope/kind: %+v", ev)
		}
		if ev.ExternalSubscriptionID != "sub_1" || ev.ExternalCustomerID != "cus_1" || ev.AttemptCount != 3 {
			t.Errorf("unexpected ids: %+v", ev)
		}
		if ev.PeriodEnd == nil || ev.PeriodEnd.Unix() != 1702592000 {
			t.Errorf("unexpected period end: %v", ev.PeriodEnd)
		}
	})

	t.Run("should parse subscription updates", func(t *testing.T) {
		ev, err := p.Parse(ctx, []byte(`{"id":"evt_4","type":"customer.subscription.updated","data":{"object":{"id":"sub_1","customer":"cus_1","status":"past_due","cancel_at_period_end":true}}}`))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if ev.SubscriptionKind != model.SubEventUpdated || ev.ExternalSubscriptionID != "sub_1" || ev.SubscriptionStatus != "past_due" {
			t.Errorf("unexpected event: %+v", ev)
		}
		if ev.CancelAtPeriodEnd == nil || !*ev.CancelAtPeriodEnd {
			t.Error("expected cancel_at_period_end to be carried")
		}
		if ev.PeriodStart != nil {
			t.Error("expected no period without timestamps")
		}
	})

	t.Run("should reject payloads without id or type", func(t *testing.T) {
		for _, b := range []string{`not json`, `{"type":"payment_intent.succeeded"}`, `{"id":"evt_5","type":"payment_intent.succeeded","data":{"object":{}}}`} {
			if _, err := p.Parse(ctx, []byte(b)); !errors.Is(err, domain.ErrWebhookPayload) {
				t.Errorf("%s: expected ErrWebhookPayload, got %v", b, err)
			}
		}
	})
}
