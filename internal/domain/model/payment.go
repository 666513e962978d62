package model

import (
	"time"

	"github.com/shopspring/decimal"

	"course-settlement/internal/domain"
)

type PaymentStatus string

const (
	PaymentStatusPending   PaymentStatus = "PENDING"   // created at checkout; awaiting gateway outcome
	PaymentStatusCompleted PaymentStatus = "COMPLETED" // gateway approved the charge
	PaymentStatusFailed    PaymentStatus = "FAILED"    // rejected by the gateway
	PaymentStatusCancelled PaymentStatus = "CANCELLED" // abandoned or cancelled before approval
	PaymentStatusRefunded  PaymentStatus = "REFUNDED"  // money returned after completion
)

type PaymentType string

const (
	PaymentTypeOneTime      PaymentType = "ONE_TIME"
	PaymentTypeSubscription PaymentType = "SUBSCRIPTION"
)

func (t PaymentType) Valid() bool {
	return t == PaymentTypeOneTime || t == PaymentTypeSubscription
}

// paymentEdges lists every legal status change. Anything else is illegal.
var paymentEdges = map[PaymentStatus][]PaymentStatus{
	PaymentStatusPending:   {PaymentStatusCompleted, PaymentStatusFailed, PaymentStatusCancelled},
	PaymentStatusCompleted: {PaymentStatusRefunded},
}

// CanTransition reports whether from -> to is a legal edge.
func CanTransition(from, to PaymentStatus) bool {
	for _, s := range paymentEdges[from] {
		if s == to {
			return true
		}
	}
	return false
}

// Payment is one purchase attempt. Values are snapshots: transitions return
// a new Payment and never mutate the receiver.
type Payment struct {
	ID                string
	UserID            string
	CourseID          string
	ExternalPaymentID *string // gateway id; idempotency key for webhooks
	ExternalOrderID   *string
	Amount            decimal.Decimal // final charged amount
	Currency          string
	Status            PaymentStatus
	PaymentType       PaymentType
	PaymentMethod     PaymentMethod
	GatewayProvider   string
	GatewayFeeAmount  decimal.Decimal
	PlatformFeeAmount decimal.Decimal
	InstructorAmount  decimal.Decimal
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// NewPayment builds a PENDING payment from a fee breakdown.
func NewPayment(id, userID, courseID, currency, provider string, typ PaymentType, b FeeBreakdown, now time.Time) (*Payment, error) {
	if id == "" || userID == "" || courseID == "" || !typ.Valid() || b.FinalAmount.IsNegative() {
		return nil, domain.ErrInvalidArgument
	}
	return &Payment{
		ID:                id,
		UserID:            userID,
		CourseID:          courseID,
		Amount:            b.FinalAmount,
		Currency:          currency,
		Status:            PaymentStatusPending,
		PaymentType:       typ,
		PaymentMethod:     b.PaymentMethod,
		GatewayProvider:   provider,
		GatewayFeeAmount:  b.GatewayFee.Total,
		PlatformFeeAmount: b.PlatformFee,
		InstructorAmount:  b.InstructorAmount,
		CreatedAt:         now,
		UpdatedAt:         now,
	}, nil
}

// WithStatus returns a copy moved to the given status.
func (p Payment) WithStatus(s PaymentStatus, at time.Time) Payment {
	p.Status = s
	p.UpdatedAt = at
	return p
}

// WithExternalID returns a copy bound to the gateway payment id.
func (p Payment) WithExternalID(extID string, at time.Time) Payment {
	p.ExternalPaymentID = &extID
	p.UpdatedAt = at
	return p
}

// Age is the time elapsed since the payment was created.
func (p Payment) Age(now time.Time) time.Duration { return now.Sub(p.CreatedAt) }

// TransitionOutcome is the three-way result of a ledger transition.
type TransitionOutcome string

const (
	TransitionApplied TransitionOutcome = "applied"
	TransitionNoOp    TransitionOutcome = "noop"
	TransitionIllegal TransitionOutcome = "illegal"
)

// TransitionResult carries the outcome together with the snapshot observed
// after the attempt.
type TransitionResult struct {
	Outcome TransitionOutcome
	From    PaymentStatus
	Payment Payment
}

func (r TransitionResult) Applied() bool { return r.Outcome == TransitionApplied }
