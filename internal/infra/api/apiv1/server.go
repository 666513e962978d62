package apiv1

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"course-settlement/internal/domain"
	"course-settlement/internal/domain/model"
	"course-settlement/internal/domain/ports/adapter"
	"course-settlement/internal/infra/api"
	red "course-settlement/internal/infra/redis"
	"course-settlement/internal/usecase"
)

// Server holds the use cases behind the v1 HTTP surface.
type Server struct {
	Checkout      usecase.CheckoutUseCase
	Fees          usecase.FeeUseCase
	Coupons       usecase.CouponUseCase
	Payments      usecase.PaymentUseCase
	Refunds       usecase.RefundUseCase
	Subscriptions usecase.SubscriptionUseCase
	Balances      usecase.BalanceUseCase
	Webhooks      usecase.WebhookUseCase

	Tokens  *api.TokenManager
	Limiter adapter.RateLimiter // optional
	Limits  Limits
	Log     *zerolog.Logger
}

// Limits bounds the coupon validation endpoint per user.
type Limits struct {
	CouponValidate       int
	CouponValidateWindow time.Duration
}

// maxWebhookBody caps gateway payloads.
const maxWebhookBody = 1 << 20

// RegisterAPIV1 mounts the gateway webhooks and the authenticated /api/v1 routes.
func RegisterAPIV1(r chi.Router, s *Server) {
	r.Post("/webhooks/{provider}", s.handleWebhook)

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(api.Authenticate(s.Tokens, s.Log))

		r.Post("/checkout", s.handleCheckout)
		r.Post("/fees/calculate", s.handleFeeCalculate)
		r.Get("/fees/compare", s.handleFeeCompare)

		r.Route("/coupons", func(r chi.Router) {
			r.With(api.RateLimit(s.Limiter, s.Limits.CouponValidate, s.Limits.CouponValidateWindow, couponValidateKey, s.Log)).
				Post("/validate", s.handleCouponValidate)
			r.Post("/", s.handleCouponCreate)
			r.Get("/", s.handleCouponList)
			r.Post("/{id}/deactivate", s.handleCouponDeactivate)
		})

		r.Get("/payments/{id}", s.handlePaymentGet)

		r.Route("/refunds", func(r chi.Router) {
			r.Post("/", s.handleRefundCreate)
			r.Get("/me", s.handleRefundListMine)
			r.Post("/{id}/cancel", s.handleRefundCancel)
		})

		r.Route("/admin/refunds", func(r chi.Router) {
			r.Get("/", s.handleRefundListByStatus)
			r.Post("/{id}/approve", s.handleRefundApprove)
			r.Post("/{id}/reject", s.handleRefundReject)
			r.Post("/{id}/process", s.handleRefundProcess)
			r.Post("/{id}/fail", s.handleRefundFail)
		})

		r.Get("/subscriptions/{id}", s.handleSubscriptionGet)
		r.Post("/subscriptions/{id}/cancel", s.handleSubscriptionCancel)

		r.Get("/instructors/me/balance", s.handleBalance)
		r.Get("/instructors/{id}/balance", s.handleBalance)
	})
}

func couponValidateKey(r *http.Request) string {
	a, _ := api.ActorFrom(r.Context())
	return red.CouponValidateKey(a.UserID)
}

// decode reads a JSON body into dst. An empty body is accepted when optional.
func decode(r *http.Request, dst any, optional bool) error {
	err := json.NewDecoder(r.Body).Decode(dst)
	if errors.Is(err, io.EOF) && optional {
		return nil
	}
	if err != nil {
		return domain.ErrMalformedBody
	}
	return nil
}

func actor(r *http.Request) model.Actor {
	a, _ := api.ActorFrom(r.Context())
	return a
}

func pagination(r *http.Request) (offset, limit int) {
	offset, _ = strconv.Atoi(r.URL.Query().Get("offset"))
	limit, _ = strconv.Atoi(r.URL.Query().Get("limit"))
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}
	return offset, limit
}

func (s *Server) fail(w http.ResponseWriter, r *http.Request, err error) {
	api.WriteError(w, r, err, s.Log)
}
