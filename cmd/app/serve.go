package main

import (
	"context"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"course-settlement/internal/domain/model"
	"course-settlement/internal/domain/ports/adapter"
	"course-settlement/internal/infra/api"
	apiv1 "course-settlement/internal/infra/api/apiv1"
	"course-settlement/internal/infra/cache"
	pg "course-settlement/internal/infra/db/postgres"
	"course-settlement/internal/infra/kafka"
	"course-settlement/internal/infra/logging"
	"course-settlement/internal/infra/metrics"
	"course-settlement/internal/infra/outbox"
	"course-settlement/internal/infra/payment"
	red "course-settlement/internal/infra/redis"
	"course-settlement/internal/infra/sched"
	"course-settlement/internal/usecase"
)

func newServeCmd(flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API, outbox relay and stale checkout reconciler",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return serve(ctx, flags)
		},
	}
}

func serve(ctx context.Context, flags *rootFlags) error {
	cfg, err := flags.load()
	if err != nil {
		return err
	}
	log := logging.New(cfg.Log, cfg.Runtime.Dev)
	if cfg.Runtime.Dev {
		log.Warn().Msg("[DEV MODE] Enabled")
	}
	metrics.MustRegister()
	metrics.SetBuildInfo(version, commit)

	// ---- Postgres ----
	if cfg.Database.AutoMigrate {
		if err := runMigrations(cfg, log, true); err != nil {
			return err
		}
	}
	pool, err := pg.Connect(ctx, cfg.Database.URL)
	if err != nil {
		return err
	}
	defer pool.Close()

	// ---- Redis (optional) ----
	var (
		locker  adapter.Locker
		limiter adapter.RateLimiter
	)
	if cfg.Redis.URL != "" {
		rc, err := red.NewClient(ctx, &cfg.Redis)
		if err != nil {
			return err
		}
		defer rc.Close()
		locker = red.NewLocker(rc)
		limiter = red.NewRateLimiter(rc)
	} else {
		log.Warn().Msg("redis.url not set; webhook locks and coupon rate limits disabled")
	}

	// ---- Event publisher ----
	var publisher adapter.EventPublisher
	if len(cfg.Kafka.Brokers) > 0 {
		publisher = kafka.NewProducer(cfg.Kafka.Brokers, cfg.Kafka.Topic, log)
	} else {
		log.Warn().Msg("kafka.brokers not set; domain events are only logged")
		publisher = kafka.NewLogPublisher(log)
	}
	defer publisher.Close()

	// ---- Repositories ----
	tm := pg.NewTxManager(pool)
	paymentRepo := pg.NewPaymentRepo(pool)
	courseRepo := pg.NewCourseRepo(pool)
	couponRepo := pg.NewCouponRepo(pool)
	usageRepo := pg.NewCouponUsageRepo(pool)
	subRepo := pg.NewSubscriptionRepo(pool)
	enrollRepo := pg.NewEnrollmentRepo(pool)
	refundRepo := pg.NewRefundRepo(pool)
	balanceRepo := pg.NewBalanceRepo(pool)
	outboxRepo := pg.NewOutboxRepo(pool)
	inboxRepo := pg.NewWebhookInboxRepo(pool)
	settingsRepo := cache.NewSettingsCache(pg.NewSettingsRepo(pool), cfg.Settings.CacheSize, cfg.Settings.CacheTTL)

	// ---- Use cases ----
	settingsUC := usecase.NewSettingsUseCase(settingsRepo, log)
	feeUC := usecase.NewFeeUseCase(settingsUC, model.UnknownMethodPolicy(cfg.Fees.UnknownMethodPolicy), log)
	couponUC := usecase.NewCouponUseCase(couponRepo, usageRepo, courseRepo, tm, log)
	enrollUC := usecase.NewEnrollmentUseCase(enrollRepo, log)
	ledger := usecase.NewPaymentUseCase(usecase.LedgerDeps{
		Payments:    paymentRepo,
		Courses:     courseRepo,
		Balances:    balanceRepo,
		Refunds:     refundRepo,
		Outbox:      outboxRepo,
		Enrollments: enrollUC,
		TM:          tm,
		Currency:    cfg.Fees.Currency,
		Provider:    cfg.Fees.Provider,
	}, log)
	subUC := usecase.NewSubscriptionUseCase(subRepo, paymentRepo, ledger, enrollUC, outboxRepo, log)
	webhookUC := usecase.NewWebhookUseCase(
		[]adapter.WebhookParser{
			payment.NewMercadoPagoParser(cfg.Webhook.MercadoPagoSecret),
			payment.NewStripeParser(cfg.Webhook.StripeSecret, cfg.Webhook.StripeTolerance),
		},
		ledger, subUC, inboxRepo, tm, locker, cfg.Redis.LockTTL, log,
	)
	refundUC := usecase.NewRefundUseCase(refundRepo, paymentRepo, ledger, settingsUC, outboxRepo, tm, log)
	checkoutUC := usecase.NewCheckoutUseCase(courseRepo, subRepo, feeUC, couponUC, ledger, tm, log)
	balanceUC := usecase.NewBalanceUseCase(balanceRepo, settingsUC, log)
	outboxUC := usecase.NewOutboxUseCase(outboxRepo, publisher, cfg.Outbox.BatchSize, log)

	// ---- HTTP ----
	r := chi.NewRouter()
	r.Use(api.TraceID(log), api.Recover(log), api.RequestLog(log), api.Timeout(cfg.HTTP.RequestTimeout))
	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})
	r.Handle("/metrics", metrics.Handler())
	apiv1.RegisterAPIV1(r, &apiv1.Server{
		Checkout:      checkoutUC,
		Fees:          feeUC,
		Coupons:       couponUC,
		Payments:      ledger,
		Refunds:       refundUC,
		Subscriptions: subUC,
		Balances:      balanceUC,
		Webhooks:      webhookUC,
		Tokens:        api.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.Issuer),
		Limiter:       limiter,
		Limits: apiv1.Limits{
			CouponValidate:       cfg.Coupons.ValidateLimit,
			CouponValidateWindow: cfg.Coupons.ValidateWindow,
		},
		Log: log,
	})

	// ---- Background workers ----
	relay := outbox.NewRelay(outboxUC, cfg.Outbox.PollInterval, log)
	reconciler := sched.NewPaymentReconciler(ledger, cfg.Scheduler.Interval, cfg.Scheduler.PendingExpiry, cfg.Scheduler.BatchSize, log)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return api.Run(gctx, cfg.HTTP.Port, r, cfg.HTTP.ShutdownTimeout, log)
	})
	g.Go(func() error {
		relay.Start(gctx)
		return nil
	})
	g.Go(func() error {
		reconciler.Start(gctx)
		return nil
	})
	g.Go(func() error {
		pg.ReportPoolStats(gctx, pool, 15*time.Second, log)
		return nil
	})

	log.Info().Str("version", version).Int("port", cfg.HTTP.Port).Msg("settlement service started")
	err = g.Wait()
	log.Info().Err(err).Msg("settlement service stopped")
	return err
}
