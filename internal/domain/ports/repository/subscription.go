package repository

import (
	"context"

	"course-settlement/internal/domain/model"
)

// SubscriptionRepository is the port for recurring payment subscriptions.
type SubscriptionRepository interface {
	Save(ctx context.Context, tx Tx, s *model.Subscription) error
	FindByID(ctx context.Context, tx Tx, id string) (*model.Subscription, error)
	FindByPaymentID(ctx context.Context, tx Tx, paymentID string) (*model.Subscription, error)
	FindByExternalID(ctx context.Context, tx Tx, externalSubscriptionID string) (*model.Subscription, error)
	// Update writes a new snapshot unless the stored row is already CANCELLED.
	Update(ctx context.Context, tx Tx, s *model.Subscription) (bool, error)
}
