package repository

import (
	"context"
	"time"

	"course-settlement/internal/domain/model"
)

// -----------------------------
// Payments
// -----------------------------

type PaymentRepository interface {
	Save(ctx context.Context, tx Tx, p *model.Payment) error
	FindByID(ctx context.Context, tx Tx, id string) (*model.Payment, error)
	FindByExternalID(ctx context.Context, tx Tx, externalPaymentID string) (*model.Payment, error)
	// UpdateStatusIf moves the payment to `to` only while it is still in `from`.
	// It reports whether a row was changed.
	UpdateStatusIf(ctx context.Context, tx Tx, id string, from, to model.PaymentStatus, at time.Time) (bool, error)
	// AttachExternalID binds the gateway id when none is set yet (or the same one is).
	AttachExternalID(ctx context.Context, tx Tx, id, externalPaymentID string, at time.Time) (bool, error)
	ListPendingOlderThan(ctx context.Context, tx Tx, olderThan time.Time, limit int) ([]*model.Payment, error)
}

// CourseCatalog is the read side of the course-management collaborator.
type CourseCatalog interface {
	FindByID(ctx context.Context, tx Tx, id string) (*model.Course, error)
}
