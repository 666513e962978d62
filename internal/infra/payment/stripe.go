package payment

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"course-settlement/internal/domain"
	"course-settlement/internal/domain/model"
	"course-settlement/internal/domain/ports/adapter"
)

const ProviderStripe = "stripe"

// metadataPaymentID is the metadata key checkout stores our payment id under.
const metadataPaymentID = "payment_id"

var _ adapter.WebhookParser = (*StripeParser)(nil)

type StripeParser struct {
	secret    string
	tolerance time.Duration
	now       func() time.Time
}

func NewStripeParser(secret string, tolerance time.Duration) *StripeParser {
	if tolerance <= 0 {
		tolerance = 5 * time.Minute
	}
	return &StripeParser{secret: secret, tolerance: tolerance, now: time.Now}
}

func (p *StripeParser) Provider() string { return ProviderStripe }

// Verify checks "Stripe-Signature: t=<unix>,v1=<hex>[,v1=...]" where v1 signs "<t>.<body>".
func (p *StripeParser) Verify(h http.Header, body []byte) error {
	parts := signatureParts(h.Get("Stripe-Signature"))
	ts := first(parts, "t")
	sec, err := strconv.ParseInt(ts, 10, 64)
	if err != nil || len(parts["v1"]) == 0 {
		return domain.ErrWebhookSignature
	}
	if d := p.now().Sub(time.Unix(sec, 0)); d > p.tolerance || d < -p.tolerance {
		return domain.ErrWebhookSignature
	}
	msg := ts + "." + string(body)
	for _, sig := range parts["v1"] {
		if validHex(p.secret, msg, sig) {
			return nil
		}
	}
	return domain.ErrWebhookSignature
}

type stripeEvent struct {
	ID   string `json:"id"`
	Type string `json:"type"`
	Data struct {
		Object stripeObject `json:"object"`
	} `json:"data"`
}

// stripeObject flattens the fields we read from payment intents, charges,
// invoices and subscriptions.
type stripeObject struct {
	ID                 string            `json:"id"`
	Status             string            `json:"status"`
	PaymentIntent      string            `json:"payment_intent"`
	Subscription       string            `json:"subscription"`
	Customer           string            `json:"customer"`
	AttemptCount       int               `json:"attempt_count"`
	PeriodStart        int64             `json:"period_start"`
	PeriodEnd          int64             `json:"period_end"`
	CurrentPeriodStart int64             `json:"current_period_start"`
	CurrentPeriodEnd   int64             `json:"current_period_end"`
	CancelAtPeriodEnd  *bool             `json:"cancel_at_period_end"`
	Metadata           map[string]string `json:"metadata"`
}

var stripeSubscriptionKinds = map[string]model.SubscriptionEventKind{
	"customer.subscription.created": model.SubEventCreated,
	"customer.subscription.updated": model.SubEventUpdated,
	"customer.subscription.deleted": model.SubEventDeleted,
	"invoice.payment_succeeded":     model.SubEventInvoicePaid,
	"invoice.paid":                  model.SubEventInvoicePaid,
	"invoice.payment_failed":        model.SubEventInvoiceFailed,
}

func (p *StripeParser) Parse(ctx context.Context, body []byte) (*model.WebhookEvent, error) {
	var e stripeEvent
	if err := json.Unmarshal(body, &e); err != nil {
		return nil, domain.ErrWebhookPayload
	}
	if e.ID == "" || e.Type == "" {
		return nil, fmt.Errorf("%w: missing id or type", domain.ErrWebhookPayload)
	}
	obj := e.Data.Object
	ev := &model.WebhookEvent{
		Provider:          ProviderStripe,
		EventID:           e.ID,
		ExternalReference: obj.Metadata[metadataPaymentID],
	}

	if kind, ok := stripeSubscriptionKinds[e.Type]; ok {
		ev.Scope = model.WebhookScopeSubscription
		ev.SubscriptionKind = kind
		ev.ExternalCustomerID = obj.Customer
		if kind == model.SubEventInvoicePaid || kind == model.SubEventInvoiceFailed {
			ev.ExternalSubscriptionID = obj.Subscription
			ev.AttemptCount = obj.AttemptCount
			ev.PeriodStart, ev.PeriodEnd = unixPair(obj.PeriodStart, obj.PeriodEnd)
		} else {
			ev.ExternalSubscriptionID = obj.ID
			ev.SubscriptionStatus = obj.Status
			ev.PeriodStart, ev.PeriodEnd = unixPair(obj.CurrentPeriodStart, obj.CurrentPeriodEnd)
			ev.CancelAtPeriodEnd = obj.CancelAtPeriodEnd
		}
		if ev.ExternalSubscriptionID == "" && ev.ExternalReference == "" {
			return nil, fmt.Errorf("%w: subscription event without subscription id", domain.ErrWebhookPayload)
		}
		return ev, nil
	}

	ev.Scope = model.WebhookScopePayment
	ev.ExternalStatus = e.Type
	ev.ExternalPaymentID = obj.ID
	if e.Type == "charge.refunded" && obj.PaymentIntent != "" {
		ev.ExternalPaymentID = obj.PaymentIntent
	}
	if ev.ExternalPaymentID == "" {
		return nil, fmt.Errorf("%w: missing object id", domain.ErrWebhookPayload)
	}
	return ev, nil
}

func unixPair(start, end int64) (*time.Time, *time.Time) {
	if start == 0 || end == 0 {
		return nil, nil
	}
	s, e := time.Unix(start, 0).UTC(), time.Unix(end, 0).UTC()
	return &s, &e
}
