package httpx

import (
	"context"
	"errors"
	"net/http"

	"github.com/ariefcatur/go-storefront/internal/orders"
	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

type OrderService interface {
	Create(ctx context.Context, in orders.CreateInput) (orders.Placed, error)
	UpdateStatus(ctx context.Context, id int64, status orders.Status) (orders.StatusView, error)
	Get(ctx context.Context, id int64) (orders.StatusView, error)
	List(ctx context.Context, f orders.ListFilter) (orders.ListPage, error)
	ListByUsername(ctx context.Context, username string, page, pageSize int) (orders.ListPage, error)
}

type OrdersHandler struct {
	Svc OrderService
	Log zerolog.Logger
}

// CreateOrderReq has no price field on its items; any price a client sends
// is dropped by the decoder.
type CreateOrderReq struct {
	UserID          int64              `json:"user_id"`
	ShippingAddress string             `json:"shipping_address"`
	Status          string             `json:"status"`
	PaymentType     string             `json:"payment_type"`
	OrderItems      []orders.ItemInput `json:"order_items"`
}

type CreateOrderResp struct {
	Message     string          `json:"message"`
	OrderID     int64           `json:"order_id"`
	TotalAmount decimal.Decimal `json:"total_amount"`
}

type UpdateStatusReq struct {
	Status string `json:"status"`
}

func (h *OrdersHandler) Register(r chi.Router) {
	r.Get("/", h.list)
	r.Post("/", h.create)
	r.Get("/user/{username}", h.listByUser)
	r.Get("/{id}", h.get)
	r.Patch("/{id}", h.updateStatus)
}

func (h *OrdersHandler) create(w http.ResponseWriter, r *http.Request) {
	var req CreateOrderReq
	if err := decode(r, &req); err != nil {
		writeError(w, r, h.Log, err)
		return
	}
	placed, err := h.Svc.Create(r.Context(), orders.CreateInput{
		UserID:          req.UserID,
		ShippingAddress: req.ShippingAddress,
		Status:          orders.Status(req.Status),
		PaymentType:     orders.PaymentType(req.PaymentType),
		Items:           req.OrderItems,
	})
	if err != nil {
		writeErrorStatus(w, r, h.Log, orderStatus(err), err)
		return
	}
	writeJSON(w, http.StatusCreated, CreateOrderResp{
		Message:     "Order created",
		OrderID:     placed.Order.ID,
		TotalAmount: placed.Order.TotalAmount,
	})
}

// orderStatus maps an unknown product in the order body to 400.
func orderStatus(err error) int {
	if errors.Is(err, orders.ErrUnknownProduct) {
		return http.StatusBadRequest
	}
	return statusOf(err)
}

func (h *OrdersHandler) updateStatus(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, h.Log, err)
		return
	}
	var req UpdateStatusReq
	if err := decode(r, &req); err != nil {
		writeError(w, r, h.Log, err)
		return
	}
	v, err := h.Svc.UpdateStatus(r.Context(), id, orders.Status(req.Status))
	if err != nil {
		writeError(w, r, h.Log, err)
		return
	}
	writeJSON(w, http.StatusOK, messagef("Order %d status updated to %s", id, v.Status))
}

func (h *OrdersHandler) get(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, h.Log, err)
		return
	}
	v, err := h.Svc.Get(r.Context(), id)
	if err != nil {
		writeError(w, r, h.Log, err)
		return
	}
	writeJSON(w, http.StatusOK, v)
}

func (h *OrdersHandler) list(w http.ResponseWriter, r *http.Request) {
	page, err := h.Svc.List(r.Context(), orders.ListFilter{
		Status:   orders.Status(r.URL.Query().Get("status")),
		Page:     queryInt(r, "page", 1),
		PageSize: queryInt(r, "page_size", 10),
	})
	if err != nil {
		writeError(w, r, h.Log, err)
		return
	}
	writeJSON(w, http.StatusOK, page)
}

func (h *OrdersHandler) listByUser(w http.ResponseWriter, r *http.Request) {
	page, err := h.Svc.ListByUsername(r.Context(), chi.URLParam(r, "username"),
		queryInt(r, "page", 1), queryInt(r, "page_size", 10))
	if err != nil {
		writeError(w, r, h.Log, err)
		return
	}
	writeJSON(w, http.StatusOK, page)
}
