package model

import (
	"time"

	"course-settlement/internal/domain"
)

type SubscriptionStatus string

const (
	SubscriptionStatusActive     SubscriptionStatus = "ACTIVE"
	SubscriptionStatusPastDue    SubscriptionStatus = "PAST_DUE"
	SubscriptionStatusUnpaid     SubscriptionStatus = "UNPAID"
	SubscriptionStatusCancelled  SubscriptionStatus = "CANCELLED"
	SubscriptionStatusIncomplete SubscriptionStatus = "INCOMPLETE"
)

// MaxInvoiceAttempts is the attempt count from which a failed invoice marks
// the subscription UNPAID instead of PAST_DUE.
const MaxInvoiceAttempts = 4

// Subscription is the recurring counterpart of a Payment (1:1 by PaymentID).
// Every mutator returns a new snapshot.
type Subscription struct {
	ID                     string
	PaymentID              string
	ExternalSubscriptionID *string
	ExternalCustomerID     *string
	Status                 SubscriptionStatus
	CurrentPeriodStart     *time.Time
	CurrentPeriodEnd       *time.Time
	CancelAtPeriodEnd      bool
	CancelledAt            *time.Time
	CreatedAt              time.Time
	UpdatedAt              time.Time
}

// NewSubscription creates an INCOMPLETE subscription linked to a payment.
func NewSubscription(id, paymentID string, now time.Time) (*Subscription, error) {
	if id == "" || paymentID == "" {
		return nil, domain.ErrInvalidArgument
	}
	return &Subscription{
		ID:        id,
		PaymentID: paymentID,
		Status:    SubscriptionStatusIncomplete,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

func (s Subscription) Terminal() bool { return s.Status == SubscriptionStatusCancelled }

// UpdateStatus mirrors a gateway status. CANCELLED is terminal.
func (s Subscription) UpdateStatus(st SubscriptionStatus, at time.Time) (Subscription, error) {
	if s.Terminal() && st != SubscriptionStatusCancelled {
		return s, domain.ErrSubscriptionTerminated
	}
	if st == SubscriptionStatusCancelled {
		return s.Cancel(at)
	}
	s.Status = st
	s.UpdatedAt = at
	return s, nil
}

func (s Subscription) UpdatePeriod(start, end time.Time, at time.Time) (Subscription, error) {
	if s.Terminal() {
		return s, domain.ErrSubscriptionTerminated
	}
	if end.Before(start) {
		return s, domain.ErrInvalidArgument
	}
	s.CurrentPeriodStart = &start
	s.CurrentPeriodEnd = &end
	s.UpdatedAt = at
	return s, nil
}

// Cancel is idempotent: cancelling a cancelled subscription returns it unchanged.
func (s Subscription) Cancel(at time.Time) (Subscription, error) {
	if s.Terminal() {
		return s, nil
	}
	s.Status = SubscriptionStatusCancelled
	s.CancelledAt = &at
	s.UpdatedAt = at
	return s, nil
}

// ScheduleCancel flags cancellation at period end; status is left as is until
// the gateway reports the cancellation.
func (s Subscription) ScheduleCancel(at time.Time) (Subscription, error) {
	if s.Terminal() {
		return s, domain.ErrSubscriptionTerminated
	}
	s.CancelAtPeriodEnd = true
	s.UpdatedAt = at
	return s, nil
}

func (s Subscription) WithExternalIDs(subID, customerID string, at time.Time) Subscription {
	if subID != "" {
		s.ExternalSubscriptionID = &subID
	}
	if customerID != "" {
		s.ExternalCustomerID = &customerID
	}
	s.UpdatedAt = at
	return s
}

// StatusForFailedInvoice maps a failed invoice attempt count to a status.
func StatusForFailedInvoice(attemptCount int) SubscriptionStatus {
	if attemptCount >= MaxInvoiceAttempts {
		return SubscriptionStatusUnpaid
	}
	return SubscriptionStatusPastDue
}

// EntitlementLost reports whether access should be paused for the status.
// PAST_DUE keeps access while the gateway retries.
func (st SubscriptionStatus) EntitlementLost() bool {
	return st == SubscriptionStatusUnpaid || st == SubscriptionStatusCancelled
}

// ParseSubscriptionStatus maps gateway vocabulary 1:1 onto the enum.
func ParseSubscriptionStatus(s string) (SubscriptionStatus, bool) {
	switch s {
	case "active", "trialing":
		return SubscriptionStatusActive, true
	case "past_due":
		return SubscriptionStatusPastDue, true
	case "unpaid":
		return SubscriptionStatusUnpaid, true
	case "canceled", "cancelled", "incomplete_expired":
		return SubscriptionStatusCancelled, true
	case "incomplete":
		return SubscriptionStatusIncomplete, true
	}
	return "", false
}
