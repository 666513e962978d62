// File: internal/usecase/subscription_uc.go
package usecase

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"

	"course-settlement/internal/domain"
	"course-settlement/internal/domain/model"
	"course-settlement/internal/domain/ports/repository"
	"course-settlement/internal/infra/logging"
)

// Compile-time check
var _ SubscriptionUseCase = (*subscriptionUC)(nil)

// SubscriptionUseCase is the subscription ledger. Status follows gateway
// events only; users can merely ask for cancellation at period end.
type SubscriptionUseCase interface {
	Get(ctx context.Context, actor model.Actor, id string) (*model.Subscription, error)
	// HandleEvent applies one subscription-scoped gateway event inside tx.
	HandleEvent(ctx context.Context, tx repository.Tx, ev *model.WebhookEvent) (model.WebhookResult, error)
	ScheduleCancel(ctx context.Context, actor model.Actor, id string) (*model.Subscription, error)
}

type subscriptionUC struct {
	subs        repository.SubscriptionRepository
	payments    repository.PaymentRepository
	ledger      PaymentUseCase
	enrollments EnrollmentUseCase
	outbox      repository.OutboxRepository
	log         *zerolog.Logger
}

func NewSubscriptionUseCase(subs repository.SubscriptionRepository, payments repository.PaymentRepository, ledger PaymentUseCase, enrollments EnrollmentUseCase, outbox repository.OutboxRepository, logger *zerolog.Logger) *subscriptionUC {
	return &subscriptionUC{
		subs:        subs,
		payments:    payments,
		ledger:      ledger,
		enrollments: enrollments,
		outbox:      outbox,
		log:         logger,
	}
}

func (u *subscriptionUC) Get(ctx context.Context, actor model.Actor, id string) (*model.Subscription, error) {
	s, p, err := u.loadOwned(ctx, id)
	if err != nil {
		return nil, err
	}
	if p.UserID != actor.UserID && !actor.IsAdmin() {
		return nil, domain.ErrForbidden
	}
	return s, nil
}

func (u *subscriptionUC) ScheduleCancel(ctx context.Context, actor model.Actor, id string) (*model.Subscription, error) {
	s, p, err := u.loadOwned(ctx, id)
	if err != nil {
		return nil, err
	}
	if p.UserID != actor.UserID && !actor.IsAdmin() {
		return nil, domain.ErrForbidden
	}
	if s.CancelAtPeriodEnd {
		return s, nil
	}
	next, err := s.ScheduleCancel(time.Now())
	if err != nil {
		return nil, err
	}
	ok, err := u.subs.Update(ctx, repository.NoTX, &next)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, domain.ErrSubscriptionTerminated
	}
	u.log.Info().Str("subscription_id", s.ID).Str("user_id", actor.UserID).Msg("subscription cancellation scheduled")
	return &next, nil
}

func (u *subscriptionUC) loadOwned(ctx context.Context, id string) (*model.Subscription, *model.Payment, error) {
	s, err := u.subs.FindByID(ctx, repository.NoTX, id)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, nil, domain.ErrSubscriptionNotFound
	}
	if err != nil {
		return nil, nil, err
	}
	p, err := u.payments.FindByID(ctx, repository.NoTX, s.PaymentID)
	if err != nil {
		return nil, nil, err
	}
	return s, p, nil
}

func (u *subscriptionUC) HandleEvent(ctx context.Context, tx repository.Tx, ev *model.WebhookEvent) (model.WebhookResult, error) {
	defer logging.TraceDuration(u.log, "SubscriptionUC.HandleEvent")()

	l := u.log.With().Str("provider", ev.Provider).Str("kind", string(ev.SubscriptionKind)).
		Str("external_subscription_id", ev.ExternalSubscriptionID).Logger()

	cur, err := u.locate(ctx, tx, ev)
	if errors.Is(err, domain.ErrSubscriptionNotFound) {
		l.Warn().Msg("subscription not found; event ignored")
		return model.WebhookResult{Outcome: model.WebhookIgnored}, nil
	}
	if errors.Is(err, domain.ErrExternalIDConflict) {
		// Retries cannot resolve this; record it instead of failing the delivery.
		l.Warn().Str("reference", ev.ExternalReference).Msg("subscription already bound to another gateway id; event refused")
		return model.WebhookResult{Outcome: model.WebhookIllegal}, nil
	}
	if err != nil {
		return model.WebhookResult{}, err
	}
	p, err := u.payments.FindByID(ctx, tx, cur.PaymentID)
	if err != nil {
		return model.WebhookResult{}, err
	}
	res := model.WebhookResult{Outcome: model.WebhookNoOp, PaymentID: p.ID, Status: p.Status}

	now := time.Now()
	next, err := u.nextSnapshot(*cur, ev, now)
	if errors.Is(err, domain.ErrSubscriptionTerminated) {
		l.Warn().Str("subscription_id", cur.ID).Msg("event for cancelled subscription ignored")
		res.Outcome = model.WebhookIllegal
		return res, nil
	}
	if err != nil {
		return model.WebhookResult{}, err
	}

	changed := snapshotChanged(*cur, next)
	if changed {
		ok, err := u.subs.Update(ctx, tx, &next)
		if err != nil {
			return model.WebhookResult{}, err
		}
		if !ok {
			// A concurrent delivery cancelled it first.
			res.Outcome = model.WebhookIllegal
			return res, nil
		}
		res.Outcome = model.WebhookApplied
		if err := enqueueEvent(ctx, u.outbox, tx, next.ID, model.EventSubscriptionUpdated, map[string]any{
			"subscriptionId": next.ID,
			"paymentId":      next.PaymentID,
			"from":           cur.Status,
			"to":             next.Status,
			"occurredAt":     now,
		}); err != nil {
			return model.WebhookResult{}, err
		}
	}

	// Entitlement follows the payment and subscription status.
	switch {
	case ev.SubscriptionKind == model.SubEventInvoicePaid:
		tr, err := u.ledger.Transition(ctx, tx, p.ID, model.PaymentStatusCompleted)
		if err != nil {
			return model.WebhookResult{}, err
		}
		res.Status = tr.Payment.Status
		if tr.Applied() {
			res.Outcome = model.WebhookApplied
		} else if tr.Payment.Status == model.PaymentStatusCompleted {
			// Renewal: the first payment completed long ago, make sure access is back.
			ch, err := u.enrollments.OnPaymentApproved(ctx, tx, p.UserID, p.CourseID)
			if err != nil {
				return model.WebhookResult{}, err
			}
			if ch != model.EnrollmentUnchanged {
				res.Outcome = model.WebhookApplied
			}
		}
	case ev.SubscriptionKind == model.SubEventInvoiceFailed && p.Status == model.PaymentStatusPending:
		// The very first invoice failed: the checkout itself failed.
		tr, err := u.ledger.Transition(ctx, tx, p.ID, model.PaymentStatusFailed)
		if err != nil {
			return model.WebhookResult{}, err
		}
		res.Status = tr.Payment.Status
		if tr.Applied() {
			res.Outcome = model.WebhookApplied
		}
		if next.Status.EntitlementLost() {
			if _, err := u.enrollments.OnPaymentFailed(ctx, tx, p.UserID, p.CourseID, p.PaymentType); err != nil {
				return model.WebhookResult{}, err
			}
		}
	case changed && next.Status.EntitlementLost():
		if _, err := u.enrollments.OnPaymentFailed(ctx, tx, p.UserID, p.CourseID, model.PaymentTypeSubscription); err != nil {
			return model.WebhookResult{}, err
		}
	case changed && next.Status == model.SubscriptionStatusActive && cur.Status.EntitlementLost() && p.Status == model.PaymentStatusCompleted:
		if _, err := u.enrollments.OnPaymentApproved(ctx, tx, p.UserID, p.CourseID); err != nil {
			return model.WebhookResult{}, err
		}
	}

	l.Info().Str("subscription_id", cur.ID).Str("from", string(cur.Status)).Str("to", string(next.Status)).
		Str("outcome", string(res.Outcome)).Msg("subscription event handled")
	return res, nil
}

// locate resolves the subscription of an event. A creation event may only
// carry our payment id, in which case the gateway ids are bound here.
func (u *subscriptionUC) locate(ctx context.Context, tx repository.Tx, ev *model.WebhookEvent) (*model.Subscription, error) {
	if ev.ExternalSubscriptionID != "" {
		s, err := u.subs.FindByExternalID(ctx, tx, ev.ExternalSubscriptionID)
		if err == nil {
			return s, nil
		}
		if !errors.Is(err, domain.ErrNotFound) {
			return nil, err
		}
	}
	if ev.ExternalReference == "" {
		return nil, domain.ErrSubscriptionNotFound
	}
	s, err := u.subs.FindByPaymentID(ctx, tx, ev.ExternalReference)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, domain.ErrSubscriptionNotFound
	}
	if err != nil {
		return nil, err
	}
	if s.ExternalSubscriptionID != nil && *s.ExternalSubscriptionID != ev.ExternalSubscriptionID {
		return nil, domain.ErrExternalIDConflict
	}
	return s, nil
}

// nextSnapshot derives the subscription state after the event.
func (u *subscriptionUC) nextSnapshot(cur model.Subscription, ev *model.WebhookEvent, now time.Time) (model.Subscription, error) {
	next := cur
	if cur.ExternalSubscriptionID == nil || cur.ExternalCustomerID == nil {
		next = next.WithExternalIDs(ev.ExternalSubscriptionID, ev.ExternalCustomerID, now)
	}

	var err error
	switch ev.SubscriptionKind {
	case model.SubEventDeleted:
		return next.Cancel(now)
	case model.SubEventInvoicePaid:
		next, err = next.UpdateStatus(model.SubscriptionStatusActive, now)
	case model.SubEventInvoiceFailed:
		next, err = next.UpdateStatus(model.StatusForFailedInvoice(ev.AttemptCount), now)
	case model.SubEventCreated, model.SubEventUpdated:
		if st, ok := model.ParseSubscriptionStatus(ev.SubscriptionStatus); ok {
			next, err = next.UpdateStatus(st, now)
		} else if cur.Terminal() {
			err = domain.ErrSubscriptionTerminated
		}
	}
	if err != nil {
		return cur, err
	}
	if ev.PeriodStart != nil && ev.PeriodEnd != nil {
		if next, err = next.UpdatePeriod(*ev.PeriodStart, *ev.PeriodEnd, now); err != nil {
			return cur, err
		}
	}
	if ev.CancelAtPeriodEnd != nil && next.CancelAtPeriodEnd != *ev.CancelAtPeriodEnd {
		next.CancelAtPeriodEnd = *ev.CancelAtPeriodEnd
		next.UpdatedAt = now
	}
	return next, nil
}

func snapshotChanged(a, b model.Subscription) bool {
	return a.Status != b.Status ||
		a.CancelAtPeriodEnd != b.CancelAtPeriodEnd ||
		!equalStr(a.ExternalSubscriptionID, b.ExternalSubscriptionID) ||
		!equalStr(a.ExternalCustomerID, b.ExternalCustomerID) ||
		!equalTime(a.CurrentPeriodStart, b.CurrentPeriodStart) ||
		!equalTime(a.CurrentPeriodEnd, b.CurrentPeriodEnd)
}

func equalStr(a, b *string) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

func equalTime(a, b *time.Time) bool {
	if a == nil || b == nil {
		return a == b
	}
	return a.Equal(*b)
}
