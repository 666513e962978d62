package model

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"course-settlement/internal/domain"
)

type DiscountType string

const (
	DiscountPercentage DiscountType = "PERCENTAGE"
	DiscountFlatRate   DiscountType = "FLAT_RATE"
)

// Coupon is a discount rule. CourseID nil means the coupon is global.
type Coupon struct {
	ID            string
	Code          string
	DiscountType  DiscountType
	DiscountValue decimal.Decimal
	MaxUses       *int // nil = unlimited
	UsedCount     int
	ValidFrom     time.Time
	ValidUntil    *time.Time // nil = no expiry
	IsActive      bool
	CourseID      *string
	CreatedByID   string
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// NormalizeCouponCode is the canonical form used for storage and lookup.
func NormalizeCouponCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// NewCoupon validates the discount invariants and builds an active coupon.
func NewCoupon(id, code string, typ DiscountType, value decimal.Decimal, maxUses *int, validFrom time.Time, validUntil *time.Time, courseID *string, createdBy string) (*Coupon, error) {
	code = NormalizeCouponCode(code)
	if id == "" || code == "" || createdBy == "" {
		return nil, domain.ErrInvalidCoupon
	}
	switch typ {
	case DiscountPercentage:
		if !value.IsPositive() || value.GreaterThan(decimal.NewFromInt(100)) {
			return nil, domain.ErrInvalidCoupon
		}
	case DiscountFlatRate:
		if !value.IsPositive() {
			return nil, domain.ErrInvalidCoupon
		}
	default:
		return nil, domain.ErrInvalidCoupon
	}
	if maxUses != nil && *maxUses <= 0 {
		return nil, domain.ErrInvalidCoupon
	}
	if validUntil != nil && !validUntil.After(validFrom) {
		return nil, domain.ErrInvalidCoupon
	}
	now := time.Now()
	return &Coupon{
		ID:            id,
		Code:          code,
		DiscountType:  typ,
		DiscountValue: value,
		MaxUses:       maxUses,
		ValidFrom:     validFrom,
		ValidUntil:    validUntil,
		IsActive:      true,
		CourseID:      courseID,
		CreatedByID:   createdBy,
		CreatedAt:     now,
		UpdatedAt:     now,
	}, nil
}

// InWindow reports whether at lies within [ValidFrom, ValidUntil).
func (c Coupon) InWindow(at time.Time) bool {
	if at.Before(c.ValidFrom) {
		return false
	}
	return c.ValidUntil == nil || at.Before(*c.ValidUntil)
}

// Exhausted reports whether every allowed redemption has been used.
func (c Coupon) Exhausted() bool {
	return c.MaxUses != nil && c.UsedCount >= *c.MaxUses
}

// IsValid is the time-window and usage check; it does not look at per-user history.
func (c Coupon) IsValid(at time.Time) bool {
	return c.IsActive && c.InWindow(at) && !c.Exhausted()
}

// AppliesTo reports whether the coupon may be used for the course.
func (c Coupon) AppliesTo(courseID string) bool {
	return c.CourseID == nil || *c.CourseID == courseID
}

// Discount computes the discount for an amount, never exceeding the amount.
func (c Coupon) Discount(original decimal.Decimal) decimal.Decimal {
	var d decimal.Decimal
	switch c.DiscountType {
	case DiscountPercentage:
		d = Percent(original, c.DiscountValue)
	case DiscountFlatRate:
		d = decimal.Min(c.DiscountValue, original)
	}
	if d.GreaterThan(original) {
		d = original
	}
	return Round2(MaxZero(d))
}

// Deactivated returns a soft-disabled copy.
func (c Coupon) Deactivated(at time.Time) Coupon {
	c.IsActive = false
	c.UpdatedAt = at
	return c
}

// CouponUsage records one redemption. Never mutated after insert.
type CouponUsage struct {
	ID             string
	CouponID       string
	UserID         string
	PaymentID      string
	DiscountAmount decimal.Decimal
	UsedAt         time.Time
}

// CouponValidation is the result of CouponEngine.Validate.
type CouponValidation struct {
	IsValid        bool
	Coupon         *Coupon
	DiscountAmount decimal.Decimal
	FinalAmount    decimal.Decimal
	ErrorKind      string
}
