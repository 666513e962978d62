package repository

import (
	"context"

	"course-settlement/internal/domain/model"
)

type RefundRepository interface {
	// Create returns domain.ErrRefundAlreadyRequested when an active request exists.
	Create(ctx context.Context, tx Tx, r *model.RefundRequest) error
	FindByID(ctx context.Context, tx Tx, id string) (*model.RefundRequest, error)
	FindActiveByPayment(ctx context.Context, tx Tx, paymentID string) (*model.RefundRequest, error)
	ListByUser(ctx context.Context, tx Tx, userID string) ([]*model.RefundRequest, error)
	ListByStatus(ctx context.Context, tx Tx, status model.RefundStatus, offset, limit int) ([]*model.RefundRequest, error)
	// UpdateIfStatus persists r only while the stored status equals `expected`.
	UpdateIfStatus(ctx context.Context, tx Tx, r *model.RefundRequest, expected model.RefundStatus) (bool, error)
}
