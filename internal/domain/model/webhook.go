package model

import "time"

// WebhookScope tells the reconciler which ledger an event targets.
type WebhookScope string

const (
	WebhookScopePayment      WebhookScope = "payment"
	WebhookScopeSubscription WebhookScope = "subscription"
)

type SubscriptionEventKind string

const (
	SubEventCreated       SubscriptionEventKind = "created"
	SubEventUpdated       SubscriptionEventKind = "updated"
	SubEventDeleted       SubscriptionEventKind = "deleted"
	SubEventInvoicePaid   SubscriptionEventKind = "invoice_paid"
	SubEventInvoiceFailed SubscriptionEventKind = "invoice_failed"
)

// WebhookEvent is the provider-neutral form of a gateway callback.
type WebhookEvent struct {
	Provider string
	EventID  string // provider event id; may be empty
	Scope    WebhookScope

	// payment scope
	ExternalPaymentID string
	ExternalReference string // our payment id, when the gateway echoes it
	ExternalStatus    string

	// subscription scope
	SubscriptionKind       SubscriptionEventKind
	ExternalSubscriptionID string
	ExternalCustomerID     string
	SubscriptionStatus     string
	AttemptCount           int
	PeriodStart            *time.Time
	PeriodEnd              *time.Time
	CancelAtPeriodEnd      *bool
}

type WebhookOutcome string

const (
	WebhookApplied   WebhookOutcome = "applied"
	WebhookNoOp      WebhookOutcome = "noop"
	WebhookIgnored   WebhookOutcome = "ignored"
	WebhookIllegal   WebhookOutcome = "illegal"
	WebhookDuplicate WebhookOutcome = "duplicate"
)

type WebhookResult struct {
	Outcome   WebhookOutcome
	PaymentID string
	Status    PaymentStatus
}
