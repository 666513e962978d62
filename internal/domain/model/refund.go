package model

import (
	"time"

	"github.com/shopspring/decimal"

	"course-settlement/internal/domain"
)

type RefundStatus string

const (
	RefundStatusPending   RefundStatus = "PENDING"
	RefundStatusApproved  RefundStatus = "APPROVED"
	RefundStatusRejected  RefundStatus = "REJECTED"
	RefundStatusProcessed RefundStatus = "PROCESSED"
	RefundStatusFailed    RefundStatus = "FAILED"
	RefundStatusCancelled RefundStatus = "CANCELLED"
)

// Active reports whether the request blocks another request for the same payment.
func (s RefundStatus) Active() bool {
	return s == RefundStatusPending || s == RefundStatusApproved
}

// DefaultRefundDaysLimit applies when the platform setting is absent.
const DefaultRefundDaysLimit = 7

type RefundRequest struct {
	ID               string
	PaymentID        string
	UserID           string
	Reason           string
	Amount           decimal.Decimal
	Status           RefundStatus
	ExternalRefundID *string
	ProcessedAt      *time.Time
	ProcessedBy      *string
	Notes            *string
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// NewRefundRequest creates a PENDING request for the full payment amount.
func NewRefundRequest(id string, p Payment, userID, reason string, now time.Time) (*RefundRequest, error) {
	if id == "" || userID == "" {
		return nil, domain.ErrInvalidArgument
	}
	return &RefundRequest{
		ID:        id,
		PaymentID: p.ID,
		UserID:    userID,
		Reason:    reason,
		Amount:    p.Amount,
		Status:    RefundStatusPending,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

// RefundEligibility checks the creation rules against a payment.
func RefundEligibility(p Payment, userID string, daysLimit int, now time.Time) error {
	if p.UserID != userID {
		return domain.ErrRefundNotOwner
	}
	if p.Status != PaymentStatusCompleted {
		return domain.ErrRefundNotCompleted
	}
	if p.Age(now) > time.Duration(daysLimit)*24*time.Hour {
		return domain.ErrRefundWindowExpired
	}
	return nil
}

func (r RefundRequest) move(from, to RefundStatus, at time.Time) (RefundRequest, error) {
	if r.Status != from {
		return r, domain.ErrRefundIllegalState
	}
	r.Status = to
	r.UpdatedAt = at
	return r, nil
}

func (r RefundRequest) Approve(adminID string, notes *string, at time.Time) (RefundRequest, error) {
	out, err := r.move(RefundStatusPending, RefundStatusApproved, at)
	if err != nil {
		return r, err
	}
	out.ProcessedBy = &adminID
	out.Notes = notes
	return out, nil
}

func (r RefundRequest) Reject(adminID string, notes *string, at time.Time) (RefundRequest, error) {
	out, err := r.move(RefundStatusPending, RefundStatusRejected, at)
	if err != nil {
		return r, err
	}
	out.ProcessedBy = &adminID
	out.ProcessedAt = &at
	out.Notes = notes
	return out, nil
}

func (r RefundRequest) Cancel(at time.Time) (RefundRequest, error) {
	return r.move(RefundStatusPending, RefundStatusCancelled, at)
}

func (r RefundRequest) MarkProcessed(adminID, externalRefundID string, at time.Time) (RefundRequest, error) {
	out, err := r.move(RefundStatusApproved, RefundStatusProcessed, at)
	if err != nil {
		return r, err
	}
	out.ProcessedBy = &adminID
	out.ProcessedAt = &at
	if externalRefundID != "" {
		out.ExternalRefundID = &externalRefundID
	}
	return out, nil
}

func (r RefundRequest) MarkFailed(adminID string, notes *string, at time.Time) (RefundRequest, error) {
	out, err := r.move(RefundStatusApproved, RefundStatusFailed, at)
	if err != nil {
		return r, err
	}
	out.ProcessedBy = &adminID
	out.ProcessedAt = &at
	out.Notes = notes
	return out, nil
}
