package httpx

import (
	"context"
	"net/http"

	"github.com/ariefcatur/go-storefront/internal/coupons"
	"github.com/ariefcatur/go-storefront/internal/feedback"
	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

type FeedbackService interface {
	Submit(ctx context.Context, in feedback.Input) (feedback.Feedback, error)
	List(ctx context.Context, page, pageSize int) (feedback.Page, error)
}

type FeedbackHandler struct {
	Svc FeedbackService
	Log zerolog.Logger
}

func (h *FeedbackHandler) Register(r chi.Router) {
	r.Post("/", h.submit)
	r.Get("/admin/feedback", h.list)
}

func (h *FeedbackHandler) submit(w http.ResponseWriter, r *http.Request) {
	var in feedback.Input
	if err := decode(r, &in); err != nil {
		writeError(w, r, h.Log, err)
		return
	}
	f, err := h.Svc.Submit(r.Context(), in)
	if err != nil {
		writeError(w, r, h.Log, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"message": "Feedback saved", "feedback_id": f.ID})
}

func (h *FeedbackHandler) list(w http.ResponseWriter, r *http.Request) {
	page, err := h.Svc.List(r.Context(), queryInt(r, "page", 1), queryInt(r, "pageSize", 10))
	if err != nil {
		writeError(w, r, h.Log, err)
		return
	}
	writeJSON(w, http.StatusOK, page)
}

type CouponService interface {
	Validate(ctx context.Context, code string, amount *decimal.Decimal) (coupons.Result, error)
}

type CouponsHandler struct {
	Svc CouponService
	Log zerolog.Logger
}

type ValidateCouponReq struct {
	Code        string           `json:"code"`
	OrderAmount *decimal.Decimal `json:"order_amount"`
}

func (h *CouponsHandler) Register(r chi.Router) {
	r.Post("/validate", h.validateCode)
}

func (h *CouponsHandler) validateCode(w http.ResponseWriter, r *http.Request) {
	var req ValidateCouponReq
	if err := decode(r, &req); err != nil {
		writeError(w, r, h.Log, err)
		return
	}
	res, err := h.Svc.Validate(r.Context(), req.Code, req.OrderAmount)
	if err != nil {
		writeError(w, r, h.Log, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}
