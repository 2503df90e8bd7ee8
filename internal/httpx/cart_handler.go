package httpx

import (
	"context"
	"net/http"
	"strings"

	"github.com/ariefcatur/go-storefront/internal/apperr"
	"github.com/ariefcatur/go-storefront/internal/cart"
	"github.com/ariefcatur/go-storefront/internal/orders"
	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
)

// CartHandler hosts the cart model. Each request loads the cart, applies one
// operation and answers with the rendered summary.
type CartHandler struct {
	Store  cart.Store
	Pricer cart.Pricer
	Orders OrderService
	Log    zerolog.Logger
}

type AddItemReq struct {
	ProductID int64 `json:"product_id" validate:"required,gt=0"`
	Quantity  *int  `json:"quantity"`
}

type SetQuantityReq struct {
	Quantity int `json:"quantity"`
}

type ChangeQuantityReq struct {
	Delta int `json:"delta"`
}

type CheckoutReq struct {
	UserID          int64  `json:"user_id" validate:"required,gt=0"`
	ShippingAddress string `json:"shipping_address"`
	PaymentType     string `json:"payment_type" validate:"required"`
}

func (h *CartHandler) Register(r chi.Router) {
	r.Post("/", h.create)
	r.Route("/{cartID}", func(r chi.Router) {
		r.Get("/", h.get)
		r.Delete("/", h.mutate(func(ctx context.Context, m *cart.Model, _ *http.Request) error {
			return m.Clear(ctx)
		}))
		r.Post("/items", h.mutate(h.add))
		r.Put("/items/{productID}", h.mutate(h.set))
		r.Patch("/items/{productID}", h.mutate(h.change))
		r.Delete("/items/{productID}", h.mutate(func(ctx context.Context, m *cart.Model, r *http.Request) error {
			pid, err := pathID(r, "productID")
			if err != nil {
				return err
			}
			return m.Remove(ctx, pid)
		}))
		r.Post("/checkout", h.checkout)
	})
}

func (h *CartHandler) create(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusCreated, cart.NewSummary(cart.NewID()))
}

func (h *CartHandler) open(ctx context.Context, r *http.Request) (*cart.Model, *cart.Summary, error) {
	id := strings.TrimSpace(chi.URLParam(r, "cartID"))
	if id == "" {
		return nil, nil, apperr.Validation("invalid cartID")
	}
	s := cart.NewSummary(id)
	m, err := cart.Open(ctx, id, h.Store, h.Pricer, s)
	if err != nil {
		return nil, nil, err
	}
	return m, s, nil
}

func (h *CartHandler) get(w http.ResponseWriter, r *http.Request) {
	m, s, err := h.open(r.Context(), r)
	if err == nil {
		err = m.Render(r.Context())
	}
	if err != nil {
		writeError(w, r, h.Log, err)
		return
	}
	writeJSON(w, http.StatusOK, s)
}

type cartOp func(ctx context.Context, m *cart.Model, r *http.Request) error

// mutate runs op and answers with the summary. Operations that change
// nothing do not render, so the summary is rendered here instead.
func (h *CartHandler) mutate(op cartOp) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		m, s, err := h.open(ctx, r)
		if err == nil {
			err = op(ctx, m, r)
		}
		if err == nil && !s.Rendered {
			err = m.Render(ctx)
		}
		if err != nil {
			writeError(w, r, h.Log, err)
			return
		}
		writeJSON(w, http.StatusOK, s)
	}
}

func (h *CartHandler) add(ctx context.Context, m *cart.Model, r *http.Request) error {
	var req AddItemReq
	if err := decode(r, &req); err != nil {
		return err
	}
	qty := 1
	if req.Quantity != nil {
		qty = *req.Quantity
	}
	return m.Add(ctx, req.ProductID, qty)
}

func (h *CartHandler) set(ctx context.Context, m *cart.Model, r *http.Request) error {
	pid, err := pathID(r, "productID")
	if err != nil {
		return err
	}
	var req SetQuantityReq
	if err := decode(r, &req); err != nil {
		return err
	}
	return m.SetQuantity(ctx, pid, req.Quantity)
}

func (h *CartHandler) change(ctx context.Context, m *cart.Model, r *http.Request) error {
	pid, err := pathID(r, "productID")
	if err != nil {
		return err
	}
	var req ChangeQuantityReq
	if err := decode(r, &req); err != nil {
		return err
	}
	return m.ChangeQuantity(ctx, pid, req.Delta)
}

// checkout places an order from the cart and takes the ordered lines out of
// it. The order workflow prices every line; nothing priced here is sent.
func (h *CartHandler) checkout(w http.ResponseWriter, r *http.Request) {
	if h.Orders == nil {
		writeJSON(w, http.StatusNotImplemented, errorBody{Error: "checkout is not available"})
		return
	}
	ctx := r.Context()
	var req CheckoutReq
	if err := decode(r, &req); err != nil {
		writeError(w, r, h.Log, err)
		return
	}
	m, _, err := h.open(ctx, r)
	if err != nil {
		writeError(w, r, h.Log, err)
		return
	}
	ordered := m.Items()
	if len(ordered) == 0 {
		writeError(w, r, h.Log, apperr.Validation("cart is empty"))
		return
	}
	placed, err := h.Orders.Create(ctx, orders.CreateInput{
		UserID:          req.UserID,
		ShippingAddress: req.ShippingAddress,
		PaymentType:     orders.PaymentType(req.PaymentType),
		Items:           m.OrderItems(),
	})
	if err != nil {
		writeErrorStatus(w, r, h.Log, orderStatus(err), err)
		return
	}
	if err := m.Settle(ctx, ordered); err != nil {
		h.Log.Warn().Err(err).Str("cart_id", m.ID).Int64("order_id", placed.Order.ID).Msg("cart not cleared after checkout")
	}
	writeJSON(w, http.StatusCreated, CreateOrderResp{
		Message:     "Order created",
		OrderID:     placed.Order.ID,
		TotalAmount: placed.Order.TotalAmount,
	})
}
