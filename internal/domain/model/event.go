package model

import (
	"encoding/json"
	"time"
)

type EventType string

const (
	EventPaymentCompleted    EventType = "payment.completed"
	EventPaymentFailed       EventType = "payment.failed"
	EventPaymentRefunded     EventType = "payment.refunded"
	EventSubscriptionUpdated EventType = "subscription.updated"
	EventRefundRequested     EventType = "refund.requested"
	EventRefundResolved      EventType = "refund.resolved"
)

// EventForStatus maps a payment status reached by a transition to the domain
// effect it emits. The bool is false when the status emits nothing.
func EventForStatus(s PaymentStatus) (EventType, bool) {
	switch s {
	case PaymentStatusCompleted:
		return EventPaymentCompleted, true
	case PaymentStatusFailed, PaymentStatusCancelled:
		return EventPaymentFailed, true
	case PaymentStatusRefunded:
		return EventPaymentRefunded, true
	}
	return "", false
}

type OutboxStatus string

const (
	OutboxStatusPending OutboxStatus = "PENDING"
	OutboxStatusSent    OutboxStatus = "SENT"
)

// OutboxEvent is a domain event stored in the same transaction as the change
// that produced it and relayed to the message broker afterwards.
type OutboxEvent struct {
	ID          string
	AggregateID string
	Type        EventType
	Payload     json.RawMessage
	Status      OutboxStatus
	CreatedAt   time.Time
	SentAt      *time.Time
}

// PaymentEventPayload is the wire body of payment.* events.
type PaymentEventPayload struct {
	PaymentID   string        `json:"paymentId"`
	UserID      string        `json:"userId"`
	CourseID    string        `json:"courseId"`
	PaymentType PaymentType   `json:"paymentType"`
	From        PaymentStatus `json:"from"`
	To          PaymentStatus `json:"to"`
	Amount      string        `json:"amount"`
	Currency    string        `json:"currency"`
	OccurredAt  time.Time     `json:"occurredAt"`
}
