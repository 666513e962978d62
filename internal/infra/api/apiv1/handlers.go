package apiv1

import (
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"course-settlement/internal/domain"
	"course-settlement/internal/domain/model"
	"course-settlement/internal/infra/api"
	"course-settlement/internal/usecase"
)

// ---- checkout & fees ----

type checkoutRequest struct {
	CourseID      string `json:"courseId"`
	PaymentMethod string `json:"paymentMethod"`
	PaymentType   string `json:"paymentType"`
	CouponCode    string `json:"couponCode"`
}

func (s *Server) handleCheckout(w http.ResponseWriter, r *http.Request) {
	var req checkoutRequest
	if err := decode(r, &req, false); err != nil {
		s.fail(w, r, err)
		return
	}
	res, err := s.Checkout.Checkout(r.Context(), actor(r), usecase.CheckoutInput{
		CourseID:      req.CourseID,
		PaymentMethod: req.PaymentMethod,
		PaymentType:   model.PaymentType(strings.ToUpper(req.PaymentType)),
		CouponCode:    req.CouponCode,
	})
	if err != nil {
		s.fail(w, r, err)
		return
	}
	out := CheckoutResponse{Payment: toPayment(res.Payment), Breakdown: res.Breakdown}
	if res.Subscription != nil {
		sub := toSubscription(res.Subscription)
		out.Subscription = &sub
	}
	api.WriteJSON(w, http.StatusCreated, out)
}

func (s *Server) handleFeeCompare(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	price, err := decimal.NewFromString(q.Get("price"))
	if err != nil {
		s.fail(w, r, domain.ErrInvalidArgument)
		return
	}
	discount := decimal.Zero
	if v := q.Get("discount"); v != "" {
		if discount, err = decimal.NewFromString(v); err != nil {
			s.fail(w, r, domain.ErrInvalidArgument)
			return
		}
	}
	list, err := s.Fees.Compare(r.Context(), price, discount)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	cheapest, err := s.Fees.Cheapest(r.Context(), price, discount)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	api.WriteJSON(w, http.StatusOK, map[string]any{"items": list, "cheapest": cheapest})
}

type feeCalculateRequest struct {
	CoursePrice    *decimal.Decimal `json:"coursePrice"`
	DiscountAmount *decimal.Decimal `json:"discountAmount"`
	PaymentMethod  string           `json:"paymentMethod"`
}

func (s *Server) handleFeeCalculate(w http.ResponseWriter, r *http.Request) {
	var req feeCalculateRequest
	if err := decode(r, &req, false); err != nil {
		s.fail(w, r, err)
		return
	}
	if req.CoursePrice == nil || strings.TrimSpace(req.PaymentMethod) == "" {
		s.fail(w, r, domain.ErrInvalidArgument)
		return
	}
	discount := decimal.Zero
	if req.DiscountAmount != nil {
		discount = *req.DiscountAmount
	}
	b, err := s.Fees.Calculate(r.Context(), *req.CoursePrice, discount, req.PaymentMethod)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	api.WriteJSON(w, http.StatusOK, b)
}

// ---- coupons ----

type couponValidateRequest struct {
	Code           string          `json:"code"`
	CourseID       string          `json:"courseId"`
	OriginalAmount decimal.Decimal `json:"originalAmount"`
}

func (s *Server) handleCouponValidate(w http.ResponseWriter, r *http.Request) {
	var req couponValidateRequest
	if err := decode(r, &req, false); err != nil {
		s.fail(w, r, err)
		return
	}
	if strings.TrimSpace(req.Code) == "" {
		s.fail(w, r, domain.ErrInvalidArgument)
		return
	}
	v, err := s.Coupons.Validate(r.Context(), req.Code, actor(r).UserID, req.CourseID, req.OriginalAmount)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	api.WriteJSON(w, http.StatusOK, toValidation(v))
}

type couponCreateRequest struct {
	Code          string          `json:"code"`
	DiscountType  string          `json:"discountType"`
	DiscountValue decimal.Decimal `json:"discountValue"`
	MaxUses       *int            `json:"maxUses"`
	ValidFrom     *time.Time      `json:"validFrom"`
	ValidUntil    *time.Time      `json:"validUntil"`
	CourseID      *string         `json:"courseId"`
}

func (s *Server) handleCouponCreate(w http.ResponseWriter, r *http.Request) {
	var req couponCreateRequest
	if err := decode(r, &req, false); err != nil {
		s.fail(w, r, err)
		return
	}
	c, err := s.Coupons.Create(r.Context(), actor(r), usecase.CreateCouponInput{
		Code:          req.Code,
		DiscountType:  model.DiscountType(strings.ToUpper(req.DiscountType)),
		DiscountValue: req.DiscountValue,
		MaxUses:       req.MaxUses,
		ValidFrom:     req.ValidFrom,
		ValidUntil:    req.ValidUntil,
		CourseID:      req.CourseID,
	})
	if err != nil {
		s.fail(w, r, err)
		return
	}
	api.WriteJSON(w, http.StatusCreated, toCoupon(c))
}

func (s *Server) handleCouponList(w http.ResponseWriter, r *http.Request) {
	offset, limit := pagination(r)
	list, err := s.Coupons.List(r.Context(), actor(r), offset, limit)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	items := make([]Coupon, 0, len(list))
	for _, c := range list {
		items = append(items, toCoupon(c))
	}
	api.WriteJSON(w, http.StatusOK, map[string]any{"items": items})
}

func (s *Server) handleCouponDeactivate(w http.ResponseWriter, r *http.Request) {
	c, err := s.Coupons.Deactivate(r.Context(), actor(r), chi.URLParam(r, "id"))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	api.WriteJSON(w, http.StatusOK, toCoupon(c))
}

// ---- payments & balance ----

func (s *Server) handlePaymentGet(w http.ResponseWriter, r *http.Request) {
	p, err := s.Payments.Get(r.Context(), actor(r), chi.URLParam(r, "id"))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	api.WriteJSON(w, http.StatusOK, toPayment(p))
}

func (s *Server) handleBalance(w http.ResponseWriter, r *http.Request) {
	b, err := s.Balances.Get(r.Context(), actor(r), chi.URLParam(r, "id"))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	api.WriteJSON(w, http.StatusOK, b)
}

// ---- refunds ----

type refundCreateRequest struct {
	PaymentID string `json:"paymentId"`
	Reason    string `json:"reason"`
}

func (s *Server) handleRefundCreate(w http.ResponseWriter, r *http.Request) {
	var req refundCreateRequest
	if err := decode(r, &req, false); err != nil {
		s.fail(w, r, err)
		return
	}
	if req.PaymentID == "" {
		s.fail(w, r, domain.ErrInvalidArgument)
		return
	}
	rr, err := s.Refunds.Create(r.Context(), actor(r), req.PaymentID, req.Reason)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	api.WriteJSON(w, http.StatusCreated, toRefund(rr))
}

func (s *Server) handleRefundListMine(w http.ResponseWriter, r *http.Request) {
	list, err := s.Refunds.ListMine(r.Context(), actor(r))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	api.WriteJSON(w, http.StatusOK, map[string]any{"items": toRefunds(list)})
}

func (s *Server) handleRefundCancel(w http.ResponseWriter, r *http.Request) {
	rr, err := s.Refunds.Cancel(r.Context(), actor(r), chi.URLParam(r, "id"))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	api.WriteJSON(w, http.StatusOK, toRefund(rr))
}

func (s *Server) handleRefundListByStatus(w http.ResponseWriter, r *http.Request) {
	offset, limit := pagination(r)
	status := model.RefundStatus(strings.ToUpper(r.URL.Query().Get("status")))
	list, err := s.Refunds.ListByStatus(r.Context(), actor(r), status, offset, limit)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	api.WriteJSON(w, http.StatusOK, map[string]any{"items": toRefunds(list)})
}

type refundReviewRequest struct {
	Notes            *string `json:"notes"`
	ExternalRefundID string  `json:"externalRefundId"`
}

func (s *Server) reviewRefund(w http.ResponseWriter, r *http.Request, act func(req refundReviewRequest) (*model.RefundRequest, error)) {
	var req refundReviewRequest
	if err := decode(r, &req, true); err != nil {
		s.fail(w, r, err)
		return
	}
	rr, err := act(req)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	api.WriteJSON(w, http.StatusOK, toRefund(rr))
}

func (s *Server) handleRefundApprove(w http.ResponseWriter, r *http.Request) {
	s.reviewRefund(w, r, func(req refundReviewRequest) (*model.RefundRequest, error) {
		return s.Refunds.Approve(r.Context(), actor(r), chi.URLParam(r, "id"), req.Notes)
	})
}

func (s *Server) handleRefundReject(w http.ResponseWriter, r *http.Request) {
	s.reviewRefund(w, r, func(req refundReviewRequest) (*model.RefundRequest, error) {
		return s.Refunds.Reject(r.Context(), actor(r), chi.URLParam(r, "id"), req.Notes)
	})
}

func (s *Server) handleRefundProcess(w http.ResponseWriter, r *http.Request) {
	s.reviewRefund(w, r, func(req refundReviewRequest) (*model.RefundRequest, error) {
		return s.Refunds.MarkProcessed(r.Context(), actor(r), chi.URLParam(r, "id"), req.ExternalRefundID)
	})
}

func (s *Server) handleRefundFail(w http.ResponseWriter, r *http.Request) {
	s.reviewRefund(w, r, func(req refundReviewRequest) (*model.RefundRequest, error) {
		return s.Refunds.MarkFailed(r.Context(), actor(r), chi.URLParam(r, "id"), req.Notes)
	})
}

// ---- subscriptions ----

func (s *Server) handleSubscriptionGet(w http.ResponseWriter, r *http.Request) {
	sub, err := s.Subscriptions.Get(r.Context(), actor(r), chi.URLParam(r, "id"))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	api.WriteJSON(w, http.StatusOK, toSubscription(sub))
}

func (s *Server) handleSubscriptionCancel(w http.ResponseWriter, r *http.Request) {
	sub, err := s.Subscriptions.ScheduleCancel(r.Context(), actor(r), chi.URLParam(r, "id"))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	api.WriteJSON(w, http.StatusOK, toSubscription(sub))
}

// ---- webhooks ----

// handleWebhook answers 200 for every processed delivery, including ignored
// ones. Anything the gateway should retry gets a 500.
func (s *Server) handleWebhook(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxWebhookBody))
	if err != nil {
		api.WriteErrorStatus(w, r, http.StatusInternalServerError, domain.ErrWebhookPayload, s.Log)
		return
	}
	res, err := s.Webhooks.Handle(r.Context(), chi.URLParam(r, "provider"), r.Header, body)
	if err != nil {
		api.WriteErrorStatus(w, r, http.StatusInternalServerError, err, s.Log)
		return
	}
	api.WriteJSON(w, http.StatusOK, map[string]any{
		"outcome":   res.Outcome,
		"paymentId": res.PaymentID,
	})
}
