// File: internal/usecase/payment_uc.go
package usecase

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v4"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"course-settlement/internal/domain"
	"course-settlement/internal/domain/model"
	"course-settlement/internal/domain/ports/repository"
	"course-settlement/internal/infra/logging"
	"course-settlement/internal/infra/metrics"
)

// Compile-time check
var _ PaymentUseCase = (*paymentUC)(nil)

// PaymentUseCase is the payment ledger: the only writer of payment status.
type PaymentUseCase interface {
	// Create stores a PENDING payment built from a fee breakdown.
	Create(ctx context.Context, tx repository.Tx, userID, courseID string, typ model.PaymentType, b model.FeeBreakdown) (*model.Payment, error)
	Get(ctx context.Context, actor model.Actor, id string) (*model.Payment, error)
	FindByExternalID(ctx context.Context, tx repository.Tx, externalPaymentID string) (*model.Payment, error)
	// AttachExternalID binds a gateway id to a payment that has none yet.
	AttachExternalID(ctx context.Context, tx repository.Tx, paymentID, externalPaymentID string) (*model.Payment, error)
	// Transition moves a payment to `to`. Already being in `to` is a no-op and an
	// illegal edge is reported through the result, never as an error.
	// Downstream effects run only for applied transitions, inside the same transaction.
	Transition(ctx context.Context, tx repository.Tx, paymentID string, to model.PaymentStatus) (model.TransitionResult, error)
	ListStale(ctx context.Context, olderThan time.Time, limit int) ([]*model.Payment, error)
}

type paymentUC struct {
	payments    repository.PaymentRepository
	courses     repository.CourseCatalog
	balances    repository.BalanceRepository
	refunds     repository.RefundRepository
	outbox      repository.OutboxRepository
	enrollments EnrollmentUseCase
	tm          repository.TransactionManager
	currency    string
	provider    string
	log         *zerolog.Logger
}

// LedgerDeps groups the collaborators of the payment ledger.
type LedgerDeps struct {
	Payments    repository.PaymentRepository
	Courses     repository.CourseCatalog
	Balances    repository.BalanceRepository
	Refunds     repository.RefundRepository
	Outbox      repository.OutboxRepository
	Enrollments EnrollmentUseCase
	TM          repository.TransactionManager
	Currency    string
	Provider    string
}

func NewPaymentUseCase(d LedgerDeps, logger *zerolog.Logger) *paymentUC {
	return &paymentUC{
		payments:    d.Payments,
		courses:     d.Courses,
		balances:    d.Balances,
		refunds:     d.Refunds,
		outbox:      d.Outbox,
		enrollments: d.Enrollments,
		tm:          d.TM,
		currency:    d.Currency,
		provider:    d.Provider,
		log:         logger,
	}
}

func (u *paymentUC) Create(ctx context.Context, tx repository.Tx, userID, courseID string, typ model.PaymentType, b model.FeeBreakdown) (*model.Payment, error) {
	p, err := model.NewPayment(uuid.NewString(), userID, courseID, u.currency, u.provider, typ, b, time.Now())
	if err != nil {
		return nil, err
	}
	if err := u.payments.Save(ctx, tx, p); err != nil {
		u.log.Error().Err(err).Str("user_id", userID).Str("course_id", courseID).Msg("failed to save payment")
		return nil, err
	}
	return p, nil
}

func (u *paymentUC) Get(ctx context.Context, actor model.Actor, id string) (*model.Payment, error) {
	p, err := u.find(ctx, repository.NoTX, id)
	if err != nil {
		return nil, err
	}
	if p.UserID != actor.UserID && !actor.IsAdmin() {
		return nil, domain.ErrForbidden
	}
	return p, nil
}

func (u *paymentUC) FindByExternalID(ctx context.Context, tx repository.Tx, externalPaymentID string) (*model.Payment, error) {
	p, err := u.payments.FindByExternalID(ctx, tx, externalPaymentID)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, domain.ErrPaymentNotFound
	}
	return p, err
}

func (u *paymentUC) AttachExternalID(ctx context.Context, tx repository.Tx, paymentID, externalPaymentID string) (*model.Payment, error) {
	ok, err := u.payments.AttachExternalID(ctx, tx, paymentID, externalPaymentID, time.Now())
	if err != nil {
		return nil, err
	}
	p, err := u.find(ctx, tx, paymentID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, domain.ErrExternalIDConflict
	}
	return p, nil
}

func (u *paymentUC) ListStale(ctx context.Context, olderThan time.Time, limit int) ([]*model.Payment, error) {
	return u.payments.ListPendingOlderThan(ctx, repository.NoTX, olderThan, limit)
}

func (u *paymentUC) Transition(ctx context.Context, tx repository.Tx, paymentID string, to model.PaymentStatus) (model.TransitionResult, error) {
	defer logging.TraceDuration(u.log, "PaymentUC.Transition")()

	if tx != nil {
		return u.transition(ctx, tx, paymentID, to)
	}
	var res model.TransitionResult
	err := u.tm.WithTx(ctx, pgx.TxOptions{IsoLevel: pgx.ReadCommitted}, func(ctx context.Context, tx repository.Tx) error {
		var err error
		res, err = u.transition(ctx, tx, paymentID, to)
		return err
	})
	return res, err
}

func (u *paymentUC) transition(ctx context.Context, tx repository.Tx, paymentID string, to model.PaymentStatus) (model.TransitionResult, error) {
	p, err := u.find(ctx, tx, paymentID)
	if err != nil {
		return model.TransitionResult{}, err
	}
	res := model.TransitionResult{From: p.Status, Payment: *p}

	switch {
	case p.Status == to:
		res.Outcome = model.TransitionNoOp
	case !model.CanTransition(p.Status, to):
		res.Outcome = model.TransitionIllegal
	default:
		now := time.Now()
		ok, err := u.payments.UpdateStatusIf(ctx, tx, p.ID, p.Status, to, now)
		if err != nil {
			return model.TransitionResult{}, err
		}
		if ok {
			res.Outcome = model.TransitionApplied
			res.Payment = p.WithStatus(to, now)
			break
		}
		// Lost the race: somebody moved it first. Re-read to classify.
		cur, err := u.find(ctx, tx, paymentID)
		if err != nil {
			return model.TransitionResult{}, err
		}
		res.Payment = *cur
		if cur.Status == to {
			res.Outcome = model.TransitionNoOp
		} else {
			res.Outcome = model.TransitionIllegal
		}
	}

	metrics.IncPaymentTransition(string(to), string(res.Outcome))
	l := u.log.With().Str("payment_id", p.ID).Str("from", string(res.From)).Str("to", string(to)).Logger()
	switch res.Outcome {
	case model.TransitionIllegal:
		l.Warn().Str("current", string(res.Payment.Status)).Msg("illegal payment transition ignored")
		return res, nil
	case model.TransitionNoOp:
		l.Debug().Msg("payment already in target status")
		return res, nil
	}

	if err := u.applyEffects(ctx, tx, res); err != nil {
		l.Error().Err(err).Msg("payment transition effects failed")
		return model.TransitionResult{}, err
	}
	l.Info().Msg("payment transitioned")
	return res, nil
}

// applyEffects runs the downstream consequences of an applied transition.
func (u *paymentUC) applyEffects(ctx context.Context, tx repository.Tx, res model.TransitionResult) error {
	p := res.Payment
	switch p.Status {
	case model.PaymentStatusCompleted:
		if _, err := u.enrollments.OnPaymentApproved(ctx, tx, p.UserID, p.CourseID); err != nil {
			return err
		}
		if err := u.addBalanceEntry(ctx, tx, p, model.BalanceCredit, p.InstructorAmount); err != nil {
			return err
		}
	case model.PaymentStatusFailed, model.PaymentStatusCancelled:
		if _, err := u.enrollments.OnPaymentFailed(ctx, tx, p.UserID, p.CourseID, p.PaymentType); err != nil {
			return err
		}
	case model.PaymentStatusRefunded:
		if _, err := u.enrollments.OnRefunded(ctx, tx, p.UserID, p.CourseID); err != nil {
			return err
		}
		if err := u.addBalanceEntry(ctx, tx, p, model.BalanceReversal, p.InstructorAmount.Neg()); err != nil {
			return err
		}
		if err := u.settleApprovedRefund(ctx, tx, p); err != nil {
			return err
		}
	}

	typ, ok := model.EventForStatus(p.Status)
	if !ok {
		return nil
	}
	return enqueueEvent(ctx, u.outbox, tx, p.ID, typ, model.PaymentEventPayload{
		PaymentID:   p.ID,
		UserID:      p.UserID,
		CourseID:    p.CourseID,
		PaymentType: p.PaymentType,
		From:        res.From,
		To:          p.Status,
		Amount:      p.Amount.StringFixed(model.MinorUnitPlaces),
		Currency:    p.Currency,
		OccurredAt:  p.UpdatedAt,
	})
}

func (u *paymentUC) addBalanceEntry(ctx context.Context, tx repository.Tx, p model.Payment, kind model.BalanceEntryKind, amount decimal.Decimal) error {
	if u.balances == nil || u.courses == nil {
		return nil
	}
	course, err := u.courses.FindByID(ctx, tx, p.CourseID)
	if err != nil {
		return err
	}
	inserted, err := u.balances.AddEntry(ctx, tx, &model.BalanceEntry{
		ID:           uuid.NewString(),
		InstructorID: course.InstructorID,
		PaymentID:    p.ID,
		Kind:         kind,
		Amount:       amount,
		CreatedAt:    time.Now(),
	})
	if err != nil {
		return err
	}
	if !inserted {
		u.log.Warn().Str("payment_id", p.ID).Str("kind", string(kind)).Msg("balance entry already recorded")
	}
	return nil
}

// settleApprovedRefund closes an APPROVED request when the gateway reports the
// refund before an admin marks it processed.
func (u *paymentUC) settleApprovedRefund(ctx context.Context, tx repository.Tx, p model.Payment) error {
	if u.refunds == nil {
		return nil
	}
	r, err := u.refunds.FindActiveByPayment(ctx, tx, p.ID)
	if errors.Is(err, domain.ErrNotFound) || errors.Is(err, domain.ErrRefundNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	if r.Status != model.RefundStatusApproved {
		return nil
	}
	done, err := r.MarkProcessed(gatewayActor, "", time.Now())
	if err != nil {
		return err
	}
	_, err = u.refunds.UpdateIfStatus(ctx, tx, &done, model.RefundStatusApproved)
	return err
}

// gatewayActor is recorded as ProcessedBy when a webhook settles a refund.
const gatewayActor = "gateway"

func (u *paymentUC) find(ctx context.Context, tx repository.Tx, id string) (*model.Payment, error) {
	p, err := u.payments.FindByID(ctx, tx, id)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, domain.ErrPaymentNotFound
	}
	return p, err
}
