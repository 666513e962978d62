//go:build !integration

package usecase_test

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"course-settlement/internal/domain/model"
	"course-settlement/internal/domain/ports/adapter"
	"course-settlement/internal/usecase"
)

const (
	testCourseID     = "course-1"
	testInstructorID = "instructor-1"
)

var (
	student    = model.Actor{UserID: "student-1", Role: model.RoleStudent}
	admin      = model.Actor{UserID: "admin-1", Role: model.RoleAdmin}
	instructor = model.Actor{UserID: testInstructorID, Role: model.RoleInstructor}
)

// harness wires every use case against one in-memory store.
type harness struct {
	store *memStore
	tm    *MockTxManager

	payments    *MockPaymentRepo
	coupons     *MockCouponRepo
	usages      *MockCouponUsageRepo
	subsRepo    *MockSubscriptionRepo
	enrollRepo  *MockEnrollmentRepo
	refundsRepo *MockRefundRepo
	settings    *MockSettingsRepo
	balances    *MockBalanceRepo
	outbox      *MockOutboxRepo
	inbox       *MockInboxRepo
	courses     *MockCourseCatalog
	locker      *MockLocker
	parser      *MockParser

	settingsUC usecase.SettingsUseCase
	feeUC      usecase.FeeUseCase
	couponUC   usecase.CouponUseCase
	enrollUC   usecase.EnrollmentUseCase
	ledger     usecase.PaymentUseCase
	subUC      usecase.SubscriptionUseCase
	webhookUC  usecase.WebhookUseCase
	refundUC   usecase.RefundUseCase
	checkoutUC usecase.CheckoutUseCase
	balanceUC  usecase.BalanceUseCase
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	log := newTestLogger()
	s := newMemStore()
	h := &harness{
		store:       s,
		tm:          NewMockTxManager(s),
		payments:    &MockPaymentRepo{s: s},
		coupons:     &MockCouponRepo{s: s},
		usages:      &MockCouponUsageRepo{s: s},
		subsRepo:    &MockSubscriptionRepo{s: s},
		enrollRepo:  &MockEnrollmentRepo{s: s},
		refundsRepo: &MockRefundRepo{s: s},
		settings:    &MockSettingsRepo{s: s},
		balances:    &MockBalanceRepo{s: s},
		outbox:      &MockOutboxRepo{s: s},
		inbox:       &MockInboxRepo{s: s},
		courses:     &MockCourseCatalog{s: s},
		locker:      NewMockLocker(),
		parser:      &MockParser{Name: "mercadopago"},
	}
	s.courses[testCourseID] = model.Course{
		ID:           testCourseID,
		Title:        "Go in Practice",
		Price:        decimal.RequireFromString("100.00"),
		InstructorID: testInstructorID,
	}

	h.settingsUC = usecase.NewSettingsUseCase(h.settings, log)
	h.feeUC = usecase.NewFeeUseCase(h.settingsUC, model.UnknownMethodCheapest, log)
	h.couponUC = usecase.NewCouponUseCase(h.coupons, h.usages, h.courses, h.tm, log)
	h.enrollUC = usecase.NewEnrollmentUseCase(h.enrollRepo, log)
	h.ledger = usecase.NewPaymentUseCase(usecase.LedgerDeps{
		Payments:    h.payments,
		Courses:     h.courses,
		Balances:    h.balances,
		Refunds:     h.refundsRepo,
		Outbox:      h.outbox,
		Enrollments: h.enrollUC,
		TM:          h.tm,
		Currency:    "BRL",
		Provider:    "mercadopago",
	}, log)
	h.subUC = usecase.NewSubscriptionUseCase(h.subsRepo, h.payments, h.ledger, h.enrollUC, h.outbox, log)
	h.webhookUC = usecase.NewWebhookUseCase(
		[]adapter.WebhookParser{h.parser, &MockParser{Name: "stripe"}},
		h.ledger, h.subUC, h.inbox, h.tm, h.locker, time.Second, log,
	)
	h.refundUC = usecase.NewRefundUseCase(h.refundsRepo, h.payments, h.ledger, h.settingsUC, h.outbox, h.tm, log)
	h.checkoutUC = usecase.NewCheckoutUseCase(h.courses, h.subsRepo, h.feeUC, h.couponUC, h.ledger, h.tm, log)
	h.balanceUC = usecase.NewBalanceUseCase(h.balances, h.settingsUC, log)
	return h
}

// seedPayment stores a payment for the test course with the given state.
func (h *harness) seedPayment(t *testing.T, id, userID string, status model.PaymentStatus, ext string, typ model.PaymentType, age time.Duration) model.Payment {
	t.Helper()
	b, err := model.ComputeBreakdown(decimal.RequireFromString("100.00"), decimal.Zero, model.PaymentMethodPix, decimal.NewFromInt(10), model.UnknownMethodReject)
	if err != nil {
		t.Fatalf("breakdown: %v", err)
	}
	p, err := model.NewPayment(id, userID, testCourseID, "BRL", "mercadopago", typ, b, time.Now().Add(-age))
	if err != nil {
		t.Fatalf("new payment: %v", err)
	}
	p.Status = status
	if ext != "" {
		p.ExternalPaymentID = &ext
	}
	h.store.mu.Lock()
	h.store.payments[p.ID] = *p
	h.store.mu.Unlock()
	return *p
}

func (h *harness) seedCoupon(t *testing.T, code string, typ model.DiscountType, value string, maxUses *int) model.Coupon {
	t.Helper()
	c, err := model.NewCoupon("coupon-"+code, code, typ, decimal.RequireFromString(value), maxUses, time.Now().Add(-time.Hour), nil, nil, admin.UserID)
	if err != nil {
		t.Fatalf("new coupon: %v", err)
	}
	h.store.mu.Lock()
	h.store.coupons[c.ID] = *c
	h.store.mu.Unlock()
	return *c
}

func (h *harness) payment(t *testing.T, id string) model.Payment {
	t.Helper()
	h.store.mu.Lock()
	defer h.store.mu.Unlock()
	p, ok := h.store.payments[id]
	if !ok {
		t.Fatalf("payment %s not stored", id)
	}
	return p
}

func (h *harness) enrollmentCount(userID string) int {
	h.store.mu.Lock()
	defer h.store.mu.Unlock()
	n := 0
	for _, e := range h.store.enrollments {
		if e.UserID == userID {
			n++
		}
	}
	return n
}

func (h *harness) enrollment(t *testing.T, userID string) model.Enrollment {
	t.Helper()
	h.store.mu.Lock()
	defer h.store.mu.Unlock()
	e, ok := h.store.enrollments[pairKey(userID, testCourseID)]
	if !ok {
		t.Fatalf("no enrollment for %s", userID)
	}
	return e
}

// webhookBody encodes an event the MockParser understands.
func webhookBody(t *testing.T, ev model.WebhookEvent) []byte {
	t.Helper()
	b, err := json.Marshal(ev)
	if err != nil {
		t.Fatalf("marshal event: %v", err)
	}
	return b
}

func intPtr(n int) *int { return &n }
