//go:build !integration

package payment

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"course-settlement/internal/domain"
	"course-settlement/internal/domain/model"
)

const mpSecret = "mp-secret"

func mpHeaders(body string, dataID, requestID, ts string) http.Header {
	h := http.Header{}
	h.Set("x-request-id", requestID)
	h.Set("x-signature", "ts="+ts+",v1="+signHex(mpSecret, MercadoPagoManifest(dataID, requestID, ts)))
	return h
}

func TestMercadoPagoParser(t *testing.T) {
	p := NewMercadoPagoParser(mpSecret)
	body := `{"id":98765,"type":"payment","action":"payment.updated","data":{"id":"ext-1","status":"Approved","external_reference":"pay-1"}}`

	t.Run("should accept a correctly signed delivery", func(t *testing.T) {
		h := mpHeaders(body, "ext-1", "req-1", "1700000000")
		if err := p.Verify(h, []byte(body)); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	})

	t.Run("should reject a tampered signature", func(t *testing.T) {
		h := mpHeaders(body, "ext-1", "req-1", "1700000000")
		h.Set("x-request-id", "req-2")
		if err := p.Verify(h, []byte(body)); !errors.Is(err, domain.ErrWebhookSignature) {
			t.Fatalf("expected ErrWebhookSignature, got %v", err)
		}
	})

	t.Run("should reject a missing header", func(t *testing.T) {
		if err := p.Verify(http.Header{}, []byte(body)); !errors.Is(err, domain.ErrWebhookSignature) {
			t.Fatalf("expected ErrWebhookSignature, got %v", err)
		}
	})

	t.Run("should parse the payment notification", func(t *testing.T) {
		ev, err := p.Parse(context.Background(), []byte(body))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if ev.Scope != model.WebhookScopePayment {
			t.Errorf("expected payment scope, got %s", ev.Scope)
		}
		if ev.EventID != "98765" || ev.ExternalPaymentID != "ext-1" || ev.ExternalReference != "pay-1" {
			t.Errorf("unexpected ids: %+v", ev)
		}
		if ev.ExternalStatus != "approved" {
			t.Errorf("expected lowercase status, got %s", ev.ExternalStatus)
		}
	})

	t.Run("should leave the event id empty when it is null or absent", func(t *testing.T) {
		for _, b := range []string{
			`{"id":null,"type":"payment","data":{"id":"111","status":"approved"}}`,
			`{"type":"payment","data":{"id":"222","status":"approved"}}`,
			`{"id":"","type":"payment","data":{"id":"333","status":"approved"}}`,
		} {
			ev, err := p.Parse(context.Background(), []byte(b))
			if err != nil {
				t.Fatalf("%s: unexpected error: %v", b, err)
			}
			if ev.EventID != "" {
				t.Errorf("%s: expected empty event id, got %q", b, ev.EventID)
			}
		}
	})

	t.Run("should keep string ids", func(t *testing.T) {
		ev, err := p.Parse(context.Background(), []byte(`{"id":"evt-7","type":"payment","data":{"id":"444","status":"approved"}}`))
		if err != nil || ev.EventID != "evt-7" {
			t.Fatalf("expected evt-7, got %+v (%v)", ev, err)
		}
	})

	t.Run("should reject malformed or incomplete payloads", func(t *testing.T) {
		for _, b := range []string{`{`, `{"type":"payment","data":{"id":"x"}}`, `{"type":"plan","data":{"id":"x","status":"approved"}}`} {
			if _, err := p.Parse(context.Background(), []byte(b)); !errors.Is(err, domain.ErrWebhookPayload) {
				t.Errorf("%s: expected ErrWebhookPayload, got %v", b, err)
			}
		}
	})
}
