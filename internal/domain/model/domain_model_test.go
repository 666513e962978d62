//go:build !integration

package model

import (
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"course-settlement/internal/domain"
)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

// --- Fee Tests ---

func TestComputeBreakdown(t *testing.T) {
	t.Run("should split a PIX sale between gateway, platform and instructor", func(t *testing.T) {
		b, err := ComputeBreakdown(dec("100"), decimal.Zero, PaymentMethodPix, dec("10"), UnknownMethodReject)
		if err != nil {
			t.Fatalf("expected no error, but got: %v", err)
		}
		if !b.GatewayFee.Total.Equal(dec("0.99")) {
			t.Errorf("expected gateway fee 0.99, got %s", b.GatewayFee.Total)
		}
		if !b.PlatformFee.Equal(dec("9.90")) {
			t.Errorf("expected platform fee 9.90, got %s", b.PlatformFee)
		}
		if !b.InstructorAmount.Equal(dec("89.11")) {
			t.Errorf("expected instructor amount 89.11, got %s", b.InstructorAmount)
		}
		sum := b.GatewayFee.Total.Add(b.PlatformFee).Add(b.InstructorAmount)
		if !sum.Equal(b.FinalAmount) {
			t.Errorf("shares %s do not add up to %s", sum, b.FinalAmount)
		}
	})

	t.Run("should charge fixed and percentage parts for cards", func(t *testing.T) {
		b, _ := ComputeBreakdown(dec("100"), decimal.Zero, PaymentMethodCreditCard, dec("10"), UnknownMethodReject)
		if !b.GatewayFee.Total.Equal(dec("5.39")) || !b.InstructorAmount.Equal(dec("85.15")) {
			t.Errorf("unexpected breakdown: fee=%s instructor=%s", b.GatewayFee.Total, b.InstructorAmount)
		}
	})

	t.Run("should apply the discount before fees", func(t *testing.T) {
		b, _ := ComputeBreakdown(dec("100"), dec("20"), PaymentMethodPix, dec("10"), UnknownMethodReject)
		if !b.FinalAmount.Equal(dec("80")) {
			t.Errorf("expected final 80, got %s", b.FinalAmount)
		}
	})

	t.Run("should cap the gateway fee at the charged amount", func(t *testing.T) {
		b, _ := ComputeBreakdown(dec("2"), decimal.Zero, PaymentMethodBoleto, dec("10"), UnknownMethodReject)
		if !b.GatewayFee.Total.Equal(dec("2")) || !b.InstructorAmount.IsZero() {
			t.Errorf("unexpected breakdown: fee=%s instructor=%s", b.GatewayFee.Total, b.InstructorAmount)
		}
	})

	t.Run("should never go below zero when the discount exceeds the price", func(t *testing.T) {
		b, _ := ComputeBreakdown(dec("50"), dec("80"), PaymentMethodPix, dec("10"), UnknownMethodReject)
		if !b.FinalAmount.IsZero() || b.InstructorAmount.IsNegative() {
			t.Errorf("unexpected breakdown: %+v", b)
		}
	})

	t.Run("should fall back to the cheapest method or reject by policy", func(t *testing.T) {
		b, err := ComputeBreakdown(dec("100"), decimal.Zero, PaymentMethod("CRYPTO"), dec("10"), UnknownMethodCheapest)
		if err != nil || b.PaymentMethod != PaymentMethodPix || !b.MethodFallback {
			t.Errorf("expected PIX fallback, got %s (%v)", b.PaymentMethod, err)
		}
		_, err = ComputeBreakdown(dec("100"), decimal.Zero, PaymentMethod("CRYPTO"), dec("10"), UnknownMethodReject)
		if !errors.Is(err, domain.ErrUnknownPaymentMethod) {
			t.Errorf("expected ErrUnknownPaymentMethod, got %v", err)
		}
	})

	t.Run("should reject invalid inputs", func(t *testing.T) {
		if _, err := ComputeBreakdown(dec("-1"), decimal.Zero, PaymentMethodPix, dec("10"), UnknownMethodReject); !errors.Is(err, domain.ErrNegativePrice) {
			t.Errorf("expected ErrNegativePrice, got %v", err)
		}
		if _, err := ComputeBreakdown(dec("10"), dec("-1"), PaymentMethodPix, dec("10"), UnknownMethodReject); !errors.Is(err, domain.ErrNegativeDiscount) {
			t.Errorf("expected ErrNegativeDiscount, got %v", err)
		}
		if _, err := ComputeBreakdown(dec("10"), decimal.Zero, PaymentMethodPix, dec("101"), UnknownMethodReject); !errors.Is(err, domain.ErrInvalidFeePercentage) {
			t.Errorf("expected ErrInvalidFeePercentage, got %v", err)
		}
	})
}

func TestCompareMethods(t *testing.T) {
	list, err := CompareMethods(dec("100"), decimal.Zero, dec("10"))
	if err != nil {
		t.Fatalf("expected no error, but got: %v", err)
	}
	if len(list) != 4 {
		t.Fatalf("expected 4 methods, got %d", len(list))
	}
	if list[0].PaymentMethod != PaymentMethodPix {
		t.Errorf("expected PIX to be cheapest, got %s", list[0].PaymentMethod)
	}
	for i := 1; i < len(list); i++ {
		if list[i].GatewayFee.Total.LessThan(list[i-1].GatewayFee.Total) {
			t.Errorf("list not sorted at %d", i)
		}
	}
}

// --- Coupon Tests ---

func TestNewCoupon(t *testing.T) {
	now := time.Now()
	t.Run("should normalize the code", func(t *testing.T) {
		c, err := NewCoupon("c1", "  save20 ", DiscountPercentage, dec("20"), nil, now, nil, nil, "admin-1")
		if err != nil {
			t.Fatalf("expected no error, but got: %v", err)
		}
		if c.Code != "SAVE20" || !c.IsActive {
			t.Errorf("unexpected coupon: %+v", c)
		}
	})

	t.Run("should enforce discount invariants", func(t *testing.T) {
		zero := 0
		before := now.Add(-time.Hour)
		cases := []func() (*Coupon, error){
			func() (*Coupon, error) {
				return NewCoupon("c", "X", DiscountPercentage, dec("101"), nil, now, nil, nil, "a")
			},
			func() (*Coupon, error) {
				return NewCoupon("c", "X", DiscountFlatRate, dec("0"), nil, now, nil, nil, "a")
			},
			func() (*Coupon, error) {
				return NewCoupon("c", "X", DiscountFlatRate, dec("5"), &zero, now, nil, nil, "a")
			},
			func() (*Coupon, error) {
				return NewCoupon("c", "X", DiscountFlatRate, dec("5"), nil, now, &before, nil, "a")
			},
			func() (*Coupon, error) {
				return NewCoupon("c", "X", DiscountType("BOGO"), dec("5"), nil, now, nil, nil, "a")
			},
		}
		for i, f := range cases {
			if _, err := f(); !errors.Is(err, domain.ErrInvalidCoupon) {
				t.Errorf("case %d: expected ErrInvalidCoupon, got %v", i, err)
			}
		}
	})
}

func TestCoupon_Rules(t *testing.T) {
	now := time.Now()
	maxUses := 2
	until := now.Add(time.Hour)
	course := "course-1"
	c, _ := NewCoupon("c1", "FLAT150", DiscountFlatRate, dec("150"), &maxUses, now.Add(-time.Hour), &until, &course, "admin-1")

	t.Run("should cap a flat discount at the amount", func(t *testing.T) {
		if d := c.Discount(dec("100")); !d.Equal(dec("100")) {
			t.Errorf("expected 100, got %s", d)
		}
	})

	t.Run("should compute percentage discounts", func(t *testing.T) {
		p, _ := NewCoupon("c2", "P", DiscountPercentage, dec("20"), nil, now, nil, nil, "a")
		if d := p.Discount(dec("100")); !d.Equal(dec("20")) {
			t.Errorf("expected 20, got %s", d)
		}
	})

	t.Run("should respect the window, usage cap and activation", func(t *testing.T) {
		if !c.IsValid(now) {
			t.Error("expected coupon to be valid now")
		}
		if c.IsValid(until) {
			t.Error("expected coupon to be invalid at valid_until")
		}
		used := *c
		used.UsedCount = 2
		if used.IsValid(now) || !used.Exhausted() {
			t.Error("expected coupon to be exhausted")
		}
		if c.Deactivated(now).IsValid(now) {
			t.Error("expected deactivated coupon to be invalid")
		}
	})

	t.Run("should scope to the course", func(t *testing.T) {
		if !c.AppliesTo("course-1") || c.AppliesTo("course-2") {
			t.Error("unexpected course scoping")
		}
	})
}

// --- Payment Tests ---

func TestCanTransition(t *testing.T) {
	legal := [][2]PaymentStatus{
		{PaymentStatusPending, PaymentStatusCompleted},
		{PaymentStatusPending, PaymentStatusFailed},
		{PaymentStatusPending, PaymentStatusCancelled},
		{PaymentStatusCompleted, PaymentStatusRefunded},
	}
	for _, e := range legal {
		if !CanTransition(e[0], e[1]) {
			t.Errorf("expected %s -> %s to be legal", e[0], e[1])
		}
	}
	illegal := [][2]PaymentStatus{
		{PaymentStatusCompleted, PaymentStatusPending},
		{PaymentStatusCompleted, PaymentStatusFailed},
		{PaymentStatusFailed, PaymentStatusCompleted},
		{PaymentStatusRefunded, PaymentStatusCompleted},
		{PaymentStatusCancelled, PaymentStatusCompleted},
		{PaymentStatusPending, PaymentStatusRefunded},
	}
	for _, e := range illegal {
		if CanTransition(e[0], e[1]) {
			t.Errorf("expected %s -> %s to be illegal", e[0], e[1])
		}
	}
}

func TestPayment_Snapshots(t *testing.T) {
	b, _ := ComputeBreakdown(dec("100"), decimal.Zero, PaymentMethodPix, dec("10"), UnknownMethodReject)
	p, err := NewPayment("p1", "u1", "c1", "BRL", "mercadopago", PaymentTypeOneTime, b, time.Now())
	if err != nil {
		t.Fatalf("expected no error, but got: %v", err)
	}
	if p.Status != PaymentStatusPending || !p.Amount.Equal(b.FinalAmount) {
		t.Errorf("unexpected payment: %+v", p)
	}
	next := p.WithStatus(PaymentStatusCompleted, time.Now())
	if p.Status != PaymentStatusPending || next.Status != PaymentStatusCompleted {
		t.Error("expected WithStatus to return a new snapshot")
	}
	if _, err := NewPayment("p2", "u1", "c1", "BRL", "mercadopago", PaymentType("LIFETIME"), b, time.Now()); !errors.Is(err, domain.ErrInvalidArgument) {
		t.Errorf("expected ErrInvalidArgument, got %v", err)
	}
}

// --- Subscription Tests ---

func TestSubscription_Lifecycle(t *testing.T) {
	now := time.Now()
	s, _ := NewSubscription("s1", "p1", now)
	if s.Status != SubscriptionStatusIncomplete {
		t.Fatalf("expected INCOMPLETE, got %s", s.Status)
	}

	t.Run("should map failed invoice attempts", func(t *testing.T) {
		if StatusForFailedInvoice(1) != SubscriptionStatusPastDue || StatusForFailedInvoice(3) != SubscriptionStatusPastDue {
			t.Error("expected PAST_DUE below the attempt limit")
		}
		if StatusForFailedInvoice(MaxInvoiceAttempts) != SubscriptionStatusUnpaid {
			t.Error("expected UNPAID at the attempt limit")
		}
	})

	t.Run("should treat CANCELLED as terminal", func(t *testing.T) {
		c, _ := s.Cancel(now)
		if c.CancelledAt == nil {
			t.Error("expected CancelledAt to be set")
		}
		if _, err := c.UpdateStatus(SubscriptionStatusActive, now); !errors.Is(err, domain.ErrSubscriptionTerminated) {
			t.Errorf("expected ErrSubscriptionTerminated, got %v", err)
		}
		again, err := c.Cancel(now.Add(time.Minute))
		if err != nil || !again.CancelledAt.Equal(*c.CancelledAt) {
			t.Error("expected Cancel to be idempotent")
		}
		if _, err := c.ScheduleCancel(now); !errors.Is(err, domain.ErrSubscriptionTerminated) {
			t.Errorf("expected ErrSubscriptionTerminated, got %v", err)
		}
	})

	t.Run("should reject inverted periods", func(t *testing.T) {
		if _, err := s.UpdatePeriod(now, now.Add(-time.Hour), now); !errors.Is(err, domain.ErrInvalidArgument) {
			t.Errorf("expected ErrInvalidArgument, got %v", err)
		}
	})

	t.Run("should keep access while past due", func(t *testing.T) {
		if SubscriptionStatusPastDue.EntitlementLost() || !SubscriptionStatusUnpaid.EntitlementLost() {
			t.Error("unexpected entitlement rules")
		}
	})
}

// --- Refund Tests ---

func TestRefundEligibility(t *testing.T) {
	now := time.Now()
	p := Payment{ID: "p1", UserID: "u1", Status: PaymentStatusCompleted, Amount: dec("80"), CreatedAt: now.Add(-6 * 24 * time.Hour)}

	if err := RefundEligibility(p, "u1", 7, now); err != nil {
		t.Errorf("expected eligible, got %v", err)
	}
	if err := RefundEligibility(p, "u2", 7, now); !errors.Is(err, domain.ErrRefundNotOwner) {
		t.Errorf("expected ErrRefundNotOwner, got %v", err)
	}
	if err := RefundEligibility(p, "u1", 5, now); !errors.Is(err, domain.ErrRefundWindowExpired) {
		t.Errorf("expected ErrRefundWindowExpired, got %v", err)
	}
	pending := p
	pending.Status = PaymentStatusPending
	if err := RefundEligibility(pending, "u1", 7, now); !errors.Is(err, domain.ErrRefundNotCompleted) {
		t.Errorf("expected ErrRefundNotCompleted, got %v", err)
	}
}

func TestRefundRequest_StateMachine(t *testing.T) {
	now := time.Now()
	p := Payment{ID: "p1", UserID: "u1", Amount: dec("80")}
	r, _ := NewRefundRequest("r1", p, "u1", "duplicate purchase", now)
	if r.Status != RefundStatusPending || !r.Amount.Equal(dec("80")) || !r.Status.Active() {
		t.Fatalf("unexpected request: %+v", r)
	}

	approved, err := r.Approve("admin-1", nil, now)
	if err != nil || approved.Status != RefundStatusApproved || !approved.Status.Active() {
		t.Fatalf("expected APPROVED, got %s (%v)", approved.Status, err)
	}
	processed, err := approved.MarkProcessed("admin-1", "re_1", now)
	if err != nil || processed.Status != RefundStatusProcessed || *processed.ExternalRefundID != "re_1" {
		t.Fatalf("expected PROCESSED, got %s (%v)", processed.Status, err)
	}
	if processed.Status.Active() {
		t.Error("expected PROCESSED to be inactive")
	}

	if _, err := r.MarkProcessed("admin-1", "", now); !errors.Is(err, domain.ErrRefundIllegalState) {
		t.Errorf("expected ErrRefundIllegalState, got %v", err)
	}
	if _, err := approved.Cancel(now); !errors.Is(err, domain.ErrRefundIllegalState) {
		t.Errorf("expected ErrRefundIllegalState, got %v", err)
	}
}
