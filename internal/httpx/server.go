package httpx

import (
	"net/http"
	"time"

	"github.com/ariefcatur/go-storefront/internal/cart"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
)

// Deps are the services behind the API. Nil entries leave their routes
// unmounted.
type Deps struct {
	Orders   OrderService
	Catalog  CatalogService
	Users    UserService
	Feedback FeedbackService
	Coupons  CouponService
	Carts    cart.Store
	Log      zerolog.Logger
	Timeout  time.Duration
}

func NewRouter(d Deps) *chi.Mux {
	if d.Timeout <= 0 {
		d.Timeout = 15 * time.Second
	}
	r := chi.NewRouter()
	r.Use(middleware.RequestID, middleware.RealIP, RequestLogger(d.Log), middleware.Recoverer)
	r.Use(middleware.Timeout(d.Timeout))
	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	if d.Orders != nil {
		oh := &OrdersHandler{Svc: d.Orders, Log: d.Log}
		r.Route("/api/order", oh.Register)
		r.Post("/orders", oh.create)
		r.Patch("/orders/{id}", oh.updateStatus)
	}
	if d.Catalog != nil {
		r.Route("/api/products", (&ProductsHandler{Svc: d.Catalog, Log: d.Log}).Register)
	}
	if d.Users != nil {
		r.Route("/api/user", (&UsersHandler{Svc: d.Users, Log: d.Log}).Register)
	}
	if d.Feedback != nil {
		fh := &FeedbackHandler{Svc: d.Feedback, Log: d.Log}
		r.Route("/api/feedback", fh.Register)
		r.Post("/feedback", fh.submit)
	}
	if d.Coupons != nil {
		ch := &CouponsHandler{Svc: d.Coupons, Log: d.Log}
		r.Route("/api/coupon", ch.Register)
		r.Post("/coupon/validate", ch.validateCode)
	}
	if d.Carts != nil {
		h := &CartHandler{Store: d.Carts, Orders: d.Orders, Log: d.Log}
		if d.Catalog != nil {
			h.Pricer = d.Catalog
		}
		r.Route("/api/cart", h.Register)
	}
	return r
}
