package usecase

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v4"
	"github.com/rs/zerolog"

	"course-settlement/internal/domain"
	"course-settlement/internal/domain/model"
	"course-settlement/internal/domain/ports/repository"
	"course-settlement/internal/infra/logging"
	"course-settlement/internal/infra/metrics"
)

// Compile-time check
var _ RefundUseCase = (*refundUC)(nil)

type RefundUseCase interface {
	Create(ctx context.Context, actor model.Actor, paymentID, reason string) (*model.RefundRequest, error)
	Cancel(ctx context.Context, actor model.Actor, id string) (*model.RefundRequest, error)
	ListMine(ctx context.Context, actor model.Actor) ([]*model.RefundRequest, error)

	// Admin operations.
	ListByStatus(ctx context.Context, actor model.Actor, status model.RefundStatus, offset, limit int) ([]*model.RefundRequest, error)
	Approve(ctx context.Context, actor model.Actor, id string, notes *string) (*model.RefundRequest, error)
	Reject(ctx context.Context, actor model.Actor, id string, notes *string) (*model.RefundRequest, error)
	// MarkProcessed records the gateway refund and moves the payment to REFUNDED.
	MarkProcessed(ctx context.Context, actor model.Actor, id, externalRefundID string) (*model.RefundRequest, error)
	MarkFailed(ctx context.Context, actor model.Actor, id string, notes *string) (*model.RefundRequest, error)
}

type refundUC struct {
	refunds  repository.RefundRepository
	payments repository.PaymentRepository
	ledger   PaymentUseCase
	settings SettingsUseCase
	outbox   repository.OutboxRepository
	tm       repository.TransactionManager
	log      *zerolog.Logger
}

func NewRefundUseCase(refunds repository.RefundRepository, payments repository.PaymentRepository, ledger PaymentUseCase, settings SettingsUseCase, outbox repository.OutboxRepository, tm repository.TransactionManager, logger *zerolog.Logger) *refundUC {
	return &refundUC{
		refunds:  refunds,
		payments: payments,
		ledger:   ledger,
		settings: settings,
		outbox:   outbox,
		tm:       tm,
		log:      logger,
	}
}

func (u *refundUC) Create(ctx context.Context, actor model.Actor, paymentID, reason string) (*model.RefundRequest, error) {
	defer logging.TraceDuration(u.log, "RefundUC.Create")()

	days, err := u.settings.RefundDaysLimit(ctx)
	if err != nil {
		return nil, err
	}

	var out *model.RefundRequest
	err = u.tm.WithTx(ctx, pgx.TxOptions{IsoLevel: pgx.ReadCommitted}, func(ctx context.Context, tx repository.Tx) error {
		p, err := u.payments.FindByID(ctx, tx, paymentID)
		if errors.Is(err, domain.ErrNotFound) {
			return domain.ErrPaymentNotFound
		}
		if err != nil {
			return err
		}
		now := time.Now()
		if err := model.RefundEligibility(*p, actor.UserID, days, now); err != nil {
			return err
		}
		// Fast path; the partial unique index settles concurrent requests.
		if _, err := u.refunds.FindActiveByPayment(ctx, tx, p.ID); err == nil {
			return domain.ErrRefundAlreadyRequested
		} else if !errors.Is(err, domain.ErrNotFound) && !errors.Is(err, domain.ErrRefundNotFound) {
			return err
		}

		r, err := model.NewRefundRequest(uuid.NewString(), *p, actor.UserID, reason, now)
		if err != nil {
			return err
		}
		if err := u.refunds.Create(ctx, tx, r); err != nil {
			return err
		}
		out = r
		return enqueueEvent(ctx, u.outbox, tx, r.ID, model.EventRefundRequested, refundEvent(r))
	})
	u.count("create", err)
	if err != nil {
		u.log.Info().Err(err).Str("payment_id", paymentID).Str("user_id", actor.UserID).Msg("refund request refused")
		return nil, err
	}
	u.log.Info().Str("refund_id", out.ID).Str("payment_id", paymentID).Msg("refund requested")
	return out, nil
}

func (u *refundUC) Cancel(ctx context.Context, actor model.Actor, id string) (*model.RefundRequest, error) {
	return u.move(ctx, "cancel", id, func(r *model.RefundRequest) (model.RefundRequest, error) {
		if r.UserID != actor.UserID {
			return *r, domain.ErrRefundNotOwner
		}
		return r.Cancel(time.Now())
	}, nil)
}

func (u *refundUC) ListMine(ctx context.Context, actor model.Actor) ([]*model.RefundRequest, error) {
	return u.refunds.ListByUser(ctx, repository.NoTX, actor.UserID)
}

func (u *refundUC) ListByStatus(ctx context.Context, actor model.Actor, status model.RefundStatus, offset, limit int) ([]*model.RefundRequest, error) {
	if !actor.IsAdmin() {
		return nil, domain.ErrForbidden
	}
	if status == "" {
		status = model.RefundStatusPending
	}
	return u.refunds.ListByStatus(ctx, repository.NoTX, status, offset, limit)
}

func (u *refundUC) Approve(ctx context.Context, actor model.Actor, id string, notes *string) (*model.RefundRequest, error) {
	if !actor.IsAdmin() {
		return nil, domain.ErrForbidden
	}
	return u.move(ctx, "approve", id, func(r *model.RefundRequest) (model.RefundRequest, error) {
		return r.Approve(actor.UserID, notes, time.Now())
	}, nil)
}

func (u *refundUC) Reject(ctx context.Context, actor model.Actor, id string, notes *string) (*model.RefundRequest, error) {
	if !actor.IsAdmin() {
		return nil, domain.ErrForbidden
	}
	return u.move(ctx, "reject", id, func(r *model.RefundRequest) (model.RefundRequest, error) {
		return r.Reject(actor.UserID, notes, time.Now())
	}, nil)
}

func (u *refundUC) MarkProcessed(ctx context.Context, actor model.Actor, id, externalRefundID string) (*model.RefundRequest, error) {
	if !actor.IsAdmin() {
		return nil, domain.ErrForbidden
	}
	return u.move(ctx, "process", id, func(r *model.RefundRequest) (model.RefundRequest, error) {
		return r.MarkProcessed(actor.UserID, externalRefundID, time.Now())
	}, func(ctx context.Context, tx repository.Tx, r *model.RefundRequest) error {
		tr, err := u.ledger.Transition(ctx, tx, r.PaymentID, model.PaymentStatusRefunded)
		if err != nil {
			return err
		}
		if tr.Outcome == model.TransitionIllegal {
			return domain.ErrIllegalTransition
		}
		return nil
	})
}

func (u *refundUC) MarkFailed(ctx context.Context, actor model.Actor, id string, notes *string) (*model.RefundRequest, error) {
	if !actor.IsAdmin() {
		return nil, domain.ErrForbidden
	}
	return u.move(ctx, "fail", id, func(r *model.RefundRequest) (model.RefundRequest, error) {
		return r.MarkFailed(actor.UserID, notes, time.Now())
	}, nil)
}

// move loads a request, computes the next snapshot with step and stores it
// conditionally on the status it was read in. after runs in the same transaction.
func (u *refundUC) move(ctx context.Context, action, id string,
	step func(r *model.RefundRequest) (model.RefundRequest, error),
	after func(ctx context.Context, tx repository.Tx, r *model.RefundRequest) error,
) (*model.RefundRequest, error) {
	var out *model.RefundRequest
	err := u.tm.WithTx(ctx, pgx.TxOptions{IsoLevel: pgx.ReadCommitted}, func(ctx context.Context, tx repository.Tx) error {
		cur, err := u.refunds.FindByID(ctx, tx, id)
		if errors.Is(err, domain.ErrNotFound) {
			return domain.ErrRefundNotFound
		}
		if err != nil {
			return err
		}
		next, err := step(cur)
		if err != nil {
			return err
		}
		ok, err := u.refunds.UpdateIfStatus(ctx, tx, &next, cur.Status)
		if err != nil {
			return err
		}
		if !ok {
			return domain.ErrRefundIllegalState
		}
		if after != nil {
			if err := after(ctx, tx, &next); err != nil {
				return err
			}
		}
		out = &next
		if next.Status == model.RefundStatusApproved {
			return nil
		}
		return enqueueEvent(ctx, u.outbox, tx, next.ID, model.EventRefundResolved, refundEvent(&next))
	})
	u.count(action, err)
	if err != nil {
		return nil, err
	}
	u.log.Info().Str("refund_id", id).Str("action", action).Str("status", string(out.Status)).Msg("refund request updated")
	return out, nil
}

func (u *refundUC) count(action string, err error) {
	result := "ok"
	if err != nil {
		result = string(domain.KindOf(err))
	}
	metrics.IncRefundRequest(action, result)
}

func refundEvent(r *model.RefundRequest) map[string]any {
	return map[string]any{
		"refundId":  r.ID,
		"paymentId": r.PaymentID,
		"userId":    r.UserID,
		"status":    r.Status,
		"amount":    r.Amount.StringFixed(model.MinorUnitPlaces),
	}
}
