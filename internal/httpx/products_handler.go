package httpx

import (
	"context"
	"net/http"

	"github.com/ariefcatur/go-storefront/internal/catalog"
	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

type CatalogService interface {
	Create(ctx context.Context, in catalog.NewProduct) (int64, error)
	Get(ctx context.Context, id int64) (catalog.Product, error)
	List(ctx context.Context, f catalog.ListFilter) (catalog.Page, error)
	Patch(ctx context.Context, id int64, p catalog.ProductPatch) error
	Delete(ctx context.Context, id int64) error
	Prices(ctx context.Context, ids []int64) (map[int64]decimal.Decimal, error)
}

type ProductsHandler struct {
	Svc CatalogService
	Log zerolog.Logger
}

func (h *ProductsHandler) Register(r chi.Router) {
	r.Get("/", h.list)
	r.Post("/", h.create)
	r.Get("/{id}", h.get)
	r.Patch("/{id}", h.patch)
	r.Delete("/{id}", h.delete)
}

func (h *ProductsHandler) create(w http.ResponseWriter, r *http.Request) {
	var in catalog.NewProduct
	if err := decode(r, &in); err != nil {
		writeError(w, r, h.Log, err)
		return
	}
	id, err := h.Svc.Create(r.Context(), in)
	if err != nil {
		writeError(w, r, h.Log, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"message": "Product added", "product_id": id})
}

// list paginates only when page or pageSize is given.
func (h *ProductsHandler) list(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	page, err := h.Svc.List(r.Context(), catalog.ListFilter{
		Category: q.Get("category"),
		Admin:    q.Get("admin") == "true",
		Paginate: q.Has("page") || q.Has("pageSize"),
		Page:     queryInt(r, "page", 1),
		PageSize: queryInt(r, "pageSize", 10),
	})
	if err != nil {
		writeError(w, r, h.Log, err)
		return
	}
	writeJSON(w, http.StatusOK, page)
}

func (h *ProductsHandler) get(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, h.Log, err)
		return
	}
	p, err := h.Svc.Get(r.Context(), id)
	if err != nil {
		writeError(w, r, h.Log, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"product": p})
}

func (h *ProductsHandler) patch(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, h.Log, err)
		return
	}
	var p catalog.ProductPatch
	if err := decode(r, &p); err != nil {
		writeError(w, r, h.Log, err)
		return
	}
	if err := h.Svc.Patch(r.Context(), id, p); err != nil {
		writeError(w, r, h.Log, err)
		return
	}
	writeJSON(w, http.StatusOK, message{Message: "Product updated successfully"})
}

func (h *ProductsHandler) delete(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, h.Log, err)
		return
	}
	if err := h.Svc.Delete(r.Context(), id); err != nil {
		writeError(w, r, h.Log, err)
		return
	}
	writeJSON(w, http.StatusOK, message{Message: "Product deleted successfully"})
}
