package usecase

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/jackc/pgx/v4"
	"github.com/rs/zerolog"

	"course-settlement/internal/domain"
	"course-settlement/internal/domain/model"
	"course-settlement/internal/domain/ports/adapter"
	"course-settlement/internal/domain/ports/repository"
	"course-settlement/internal/infra/logging"
	"course-settlement/internal/infra/metrics"
)

// Compile-time check
var _ WebhookUseCase = (*webhookUC)(nil)

// WebhookUseCase is the single entry point for gateway callbacks.
type WebhookUseCase interface {
	// Handle verifies, parses and applies one delivery. A returned error means
	// the gateway should retry; every other condition is reported in the result.
	Handle(ctx context.Context, provider string, h http.Header, body []byte) (model.WebhookResult, error)
}

// paymentStatusTables maps each gateway's payment vocabulary onto ours.
// Statuses missing from a table (pending, in_process, ...) are no-ops.
var paymentStatusTables = map[string]map[string]model.PaymentStatus{
	"mercadopago": {
		"approved":     model.PaymentStatusCompleted,
		"rejected":     model.PaymentStatusFailed,
		"cancelled":    model.PaymentStatusFailed,
		"refunded":     model.PaymentStatusRefunded,
		"charged_back": model.PaymentStatusRefunded,
	},
	"stripe": {
		"payment_intent.succeeded":      model.PaymentStatusCompleted,
		"payment_intent.payment_failed": model.PaymentStatusFailed,
		"payment_intent.canceled":       model.PaymentStatusCancelled,
		"charge.refunded":               model.PaymentStatusRefunded,
	},
}

// MapPaymentStatus translates a provider status. ok is false for statuses
// that do not move the payment.
func MapPaymentStatus(provider, external string) (model.PaymentStatus, bool) {
	st, ok := paymentStatusTables[provider][external]
	return st, ok
}

// errNothingToRecord rolls back the inbox row of deliveries that must stay retryable.
var errNothingToRecord = errors.New("webhook: nothing to record")

type webhookUC struct {
	parsers map[string]adapter.WebhookParser
	ledger  PaymentUseCase
	subs    SubscriptionUseCase
	inbox   repository.WebhookInboxRepository
	tm      repository.TransactionManager
	locker  adapter.Locker // optional
	lockTTL time.Duration
	log     *zerolog.Logger
}

func NewWebhookUseCase(parsers []adapter.WebhookParser, ledger PaymentUseCase, subs SubscriptionUseCase, inbox repository.WebhookInboxRepository, tm repository.TransactionManager, locker adapter.Locker, lockTTL time.Duration, logger *zerolog.Logger) *webhookUC {
	m := make(map[string]adapter.WebhookParser, len(parsers))
	for _, p := range parsers {
		m[p.Provider()] = p
	}
	if lockTTL <= 0 {
		lockTTL = 30 * time.Second
	}
	return &webhookUC{
		parsers: m,
		ledger:  ledger,
		subs:    subs,
		inbox:   inbox,
		tm:      tm,
		locker:  locker,
		lockTTL: lockTTL,
		log:     logger,
	}
}

func (u *webhookUC) Handle(ctx context.Context, provider string, h http.Header, body []byte) (res model.WebhookResult, err error) {
	defer logging.TraceDuration(u.log, "WebhookUC.Handle")()
	start := time.Now()
	l := logging.With(ctx, u.log)
	defer func() {
		outcome := string(res.Outcome)
		if err != nil {
			outcome = "error"
		}
		metrics.IncWebhookEvent(provider, outcome)
		metrics.ObserveWebhookDuration(provider, time.Since(start))
	}()

	parser, ok := u.parsers[provider]
	if !ok {
		return model.WebhookResult{}, domain.ErrUnknownProvider
	}
	if err := parser.Verify(h, body); err != nil {
		l.Error().Err(err).Str("provider", provider).Msg("webhook signature rejected")
		return model.WebhookResult{}, err
	}
	ev, err := parser.Parse(ctx, body)
	if err != nil {
		l.Error().Err(err).Str("provider", provider).Msg("webhook payload rejected")
		return model.WebhookResult{}, err
	}

	// Serialise deliveries for the same gateway object across instances. The
	// conditional updates stay correct without it; the lock only avoids
	// contention between concurrent retries.
	if u.locker != nil {
		key := fmt.Sprintf("webhook:%s:%s", provider, lockSubject(ev))
		token, lerr := u.locker.TryLock(ctx, key, u.lockTTL)
		if lerr != nil {
			l.Warn().Err(lerr).Str("key", key).Msg("webhook lock busy; asking gateway to retry")
			return model.WebhookResult{}, domain.ErrLockBusy
		}
		defer func() {
			if uerr := u.locker.Unlock(context.WithoutCancel(ctx), key, token); uerr != nil {
				l.Warn().Err(uerr).Str("key", key).Msg("failed to release webhook lock")
			}
		}()
	}

	txErr := u.tm.WithTx(ctx, pgx.TxOptions{IsoLevel: pgx.ReadCommitted}, func(ctx context.Context, tx repository.Tx) error {
		eventKey := inboxKey(ev)
		first, err := u.inbox.Record(ctx, tx, provider, eventKey, start)
		if err != nil {
			return err
		}
		if !first {
			res = model.WebhookResult{Outcome: model.WebhookDuplicate}
			return nil
		}

		if ev.Scope == model.WebhookScopeSubscription {
			res, err = u.subs.HandleEvent(ctx, tx, ev)
		} else {
			res, err = u.handlePayment(ctx, tx, ev)
		}
		if err != nil {
			return err
		}
		if res.Outcome == model.WebhookIgnored {
			return errNothingToRecord
		}
		return u.inbox.SetOutcome(ctx, tx, provider, eventKey, res.Outcome)
	})
	if errors.Is(txErr, errNothingToRecord) {
		txErr = nil
	}
	if txErr != nil {
		l.Error().Err(txErr).Str("provider", provider).Str("event_id", ev.EventID).Msg("webhook processing failed")
		return model.WebhookResult{}, txErr
	}

	l.Info().Str("provider", provider).Str("event_id", ev.EventID).Str("scope", string(ev.Scope)).
		Str("payment_id", res.PaymentID).Str("outcome", string(res.Outcome)).Msg("webhook handled")
	return res, nil
}

func (u *webhookUC) handlePayment(ctx context.Context, tx repository.Tx, ev *model.WebhookEvent) (model.WebhookResult, error) {
	l := u.log.With().Str("provider", ev.Provider).Str("external_payment_id", ev.ExternalPaymentID).
		Str("external_status", ev.ExternalStatus).Logger()

	target, mapped := MapPaymentStatus(ev.Provider, ev.ExternalStatus)

	p, err := u.ledger.FindByExternalID(ctx, tx, ev.ExternalPaymentID)
	if errors.Is(err, domain.ErrPaymentNotFound) && ev.ExternalReference != "" {
		// First callback for an async method: bind the gateway id to our payment.
		p, err = u.ledger.AttachExternalID(ctx, tx, ev.ExternalReference, ev.ExternalPaymentID)
		if errors.Is(err, domain.ErrExternalIDConflict) {
			l.Warn().Str("reference", ev.ExternalReference).Msg("payment already bound to another gateway id; event ignored")
			return model.WebhookResult{Outcome: model.WebhookIgnored}, nil
		}
	}
	if errors.Is(err, domain.ErrPaymentNotFound) {
		l.Warn().Msg("payment not found; event ignored")
		return model.WebhookResult{Outcome: model.WebhookIgnored}, nil
	}
	if err != nil {
		return model.WebhookResult{}, err
	}

	if !mapped {
		l.Debug().Str("payment_id", p.ID).Msg("status does not move the payment")
		return model.WebhookResult{Outcome: model.WebhookNoOp, PaymentID: p.ID, Status: p.Status}, nil
	}

	tr, err := u.ledger.Transition(ctx, tx, p.ID, target)
	if err != nil {
		return model.WebhookResult{}, err
	}
	out := model.WebhookResult{PaymentID: p.ID, Status: tr.Payment.Status}
	switch tr.Outcome {
	case model.TransitionApplied:
		out.Outcome = model.WebhookApplied
	case model.TransitionNoOp:
		out.Outcome = model.WebhookNoOp
	default:
		out.Outcome = model.WebhookIllegal
	}
	return out, nil
}

// inboxKey identifies a delivery. Gateways without event ids are keyed on the
// object and the status they report, which is idempotent anyway.
func inboxKey(ev *model.WebhookEvent) string {
	if ev.EventID != "" {
		return ev.EventID
	}
	if ev.Scope == model.WebhookScopeSubscription {
		return fmt.Sprintf("sub:%s:%s:%s:%d", ev.ExternalSubscriptionID, ev.SubscriptionKind, ev.SubscriptionStatus, ev.AttemptCount)
	}
	return fmt.Sprintf("pay:%s:%s", ev.ExternalPaymentID, ev.ExternalStatus)
}

func lockSubject(ev *model.WebhookEvent) string {
	if ev.Scope == model.WebhookScopeSubscription {
		if ev.ExternalSubscriptionID != "" {
			return ev.ExternalSubscriptionID
		}
		return ev.ExternalReference
	}
	return ev.ExternalPaymentID
}
