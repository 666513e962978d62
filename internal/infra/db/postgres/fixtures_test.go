//go:build integration

package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"course-settlement/internal/domain/model"
)

const (
	fixtureCourseID     = "course-it-1"
	fixtureInstructorID = "instructor-it-1"
)

// seedCourse inserts the course every fixture payment points at.
func seedCourse(t *testing.T) {
	t.Helper()
	err := NewCourseRepo(testPool).Upsert(context.Background(), nil, &model.Course{
		ID: fixtureCourseID, Title: "Integration", Price: decimal.RequireFromString("100.00"), InstructorID: fixtureInstructorID,
	})
	if err != nil {
		t.Fatalf("seed course: %v", err)
	}
}

func newFixturePayment(t *testing.T, userID string, created time.Time) *model.Payment {
	t.Helper()
	b, err := model.ComputeBreakdown(decimal.RequireFromString("100.00"), decimal.Zero, model.PaymentMethodPix, decimal.NewFromInt(10), model.UnknownMethodReject)
	if err != nil {
		t.Fatalf("breakdown: %v", err)
	}
	p, err := model.NewPayment(uuid.NewString(), userID, fixtureCourseID, "BRL", "mercadopago", model.PaymentTypeOneTime, b, created)
	if err != nil {
		t.Fatalf("new payment: %v", err)
	}
	if err := NewPaymentRepo(testPool).Save(context.Background(), nil, p); err != nil {
		t.Fatalf("save payment: %v", err)
	}
	return p
}
