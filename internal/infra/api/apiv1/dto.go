package apiv1

import (
	"time"

	"github.com/shopspring/decimal"

	"course-settlement/internal/domain/model"
)

// Money is always rendered with two decimal places.
func money(d decimal.Decimal) string { return d.StringFixed(model.MinorUnitPlaces) }

type Payment struct {
	ID                string    `json:"id"`
	UserID            string    `json:"userId"`
	CourseID          string    `json:"courseId"`
	ExternalPaymentID *string   `json:"externalPaymentId,omitempty"`
	Amount            string    `json:"amount"`
	Currency          string    `json:"currency"`
	Status            string    `json:"status"`
	PaymentType       string    `json:"paymentType"`
	PaymentMethod     string    `json:"paymentMethod"`
	GatewayProvider   string    `json:"gatewayProvider"`
	GatewayFeeAmount  string    `json:"gatewayFeeAmount"`
	PlatformFeeAmount string    `json:"platformFeeAmount"`
	InstructorAmount  string    `json:"instructorAmount"`
	CreatedAt         time.Time `json:"createdAt"`
	UpdatedAt         time.Time `json:"updatedAt"`
}

func toPayment(p *model.Payment) Payment {
	return Payment{
		ID:                p.ID,
		UserID:            p.UserID,
		CourseID:          p.CourseID,
		ExternalPaymentID: p.ExternalPaymentID,
		Amount:            money(p.Amount),
		Currency:          p.Currency,
		Status:            string(p.Status),
		PaymentType:       string(p.PaymentType),
		PaymentMethod:     string(p.PaymentMethod),
		GatewayProvider:   p.GatewayProvider,
		GatewayFeeAmount:  money(p.GatewayFeeAmount),
		PlatformFeeAmount: money(p.PlatformFeeAmount),
		InstructorAmount:  money(p.InstructorAmount),
		CreatedAt:         p.CreatedAt,
		UpdatedAt:         p.UpdatedAt,
	}
}

type Coupon struct {
	ID            string     `json:"id"`
	Code          string     `json:"code"`
	DiscountType  string     `json:"discountType"`
	DiscountValue string     `json:"discountValue"`
	MaxUses       *int       `json:"maxUses,omitempty"`
	UsedCount     int        `json:"usedCount"`
	ValidFrom     time.Time  `json:"validFrom"`
	ValidUntil    *time.Time `json:"validUntil,omitempty"`
	IsActive      bool       `json:"isActive"`
	CourseID      *string    `json:"courseId,omitempty"`
	CreatedByID   string     `json:"createdById"`
}

func toCoupon(c *model.Coupon) Coupon {
	return Coupon{
		ID:            c.ID,
		Code:          c.Code,
		DiscountType:  string(c.DiscountType),
		DiscountValue: c.DiscountValue.String(),
		MaxUses:       c.MaxUses,
		UsedCount:     c.UsedCount,
		ValidFrom:     c.ValidFrom,
		ValidUntil:    c.ValidUntil,
		IsActive:      c.IsActive,
		CourseID:      c.CourseID,
		CreatedByID:   c.CreatedByID,
	}
}

type CouponValidation struct {
	IsValid        bool    `json:"isValid"`
	Coupon         *Coupon `json:"coupon,omitempty"`
	DiscountAmount string  `json:"discountAmount"`
	FinalAmount    string  `json:"finalAmount"`
	ErrorKind      string  `json:"errorKind,omitempty"`
}

func toValidation(v model.CouponValidation) CouponValidation {
	out := CouponValidation{
		IsValid:        v.IsValid,
		DiscountAmount: money(v.DiscountAmount),
		FinalAmount:    money(v.FinalAmount),
		ErrorKind:      v.ErrorKind,
	}
	if v.Coupon != nil {
		c := toCoupon(v.Coupon)
		out.Coupon = &c
	}
	return out
}

type RefundRequest struct {
	ID               string     `json:"id"`
	PaymentID        string     `json:"paymentId"`
	UserID           string     `json:"userId"`
	Reason           string     `json:"reason"`
	Amount           string     `json:"amount"`
	Status           string     `json:"status"`
	ExternalRefundID *string    `json:"externalRefundId,omitempty"`
	ProcessedAt      *time.Time `json:"processedAt,omitempty"`
	ProcessedBy      *string    `json:"processedBy,omitempty"`
	Notes            *string    `json:"notes,omitempty"`
	CreatedAt        time.Time  `json:"createdAt"`
}

func toRefund(r *model.RefundRequest) RefundRequest {
	return RefundRequest{
		ID:               r.ID,
		PaymentID:        r.PaymentID,
		UserID:           r.UserID,
		Reason:           r.Reason,
		Amount:           money(r.Amount),
		Status:           string(r.Status),
		ExternalRefundID: r.ExternalRefundID,
		ProcessedAt:      r.ProcessedAt,
		ProcessedBy:      r.ProcessedBy,
		Notes:            r.Notes,
		CreatedAt:        r.CreatedAt,
	}
}

func toRefunds(rs []*model.RefundRequest) []RefundRequest {
	out := make([]RefundRequest, 0, len(rs))
	for _, r := range rs {
		out = append(out, toRefund(r))
	}
	return out
}

type Subscription struct {
	ID                 string     `json:"id"`
	PaymentID          string     `json:"paymentId"`
	Status             string     `json:"status"`
	CurrentPeriodStart *time.Time `json:"currentPeriodStart,omitempty"`
	CurrentPeriodEnd   *time.Time `json:"currentPeriodEnd,omitempty"`
	CancelAtPeriodEnd  bool       `json:"cancelAtPeriodEnd"`
	CancelledAt        *time.Time `json:"cancelledAt,omitempty"`
}

func toSubscription(s *model.Subscription) Subscription {
	return Subscription{
		ID:                 s.ID,
		PaymentID:          s.PaymentID,
		Status:             string(s.Status),
		CurrentPeriodStart: s.CurrentPeriodStart,
		CurrentPeriodEnd:   s.CurrentPeriodEnd,
		CancelAtPeriodEnd:  s.CancelAtPeriodEnd,
		CancelledAt:        s.CancelledAt,
	}
}

type CheckoutResponse struct {
	Payment      Payment            `json:"payment"`
	Breakdown    model.FeeBreakdown `json:"breakdown"`
	Subscription *Subscription      `json:"subscription,omitempty"`
}
