// Package cart is the shopping cart model: an ordered list of
// (product id, quantity) entries that is persisted and re-rendered after
// every mutation.
package cart

import (
	"context"

	"github.com/ariefcatur/go-storefront/internal/apperr"
	"github.com/ariefcatur/go-storefront/internal/orders"
	"github.com/shopspring/decimal"
)

const (
	MinQuantity = 1
	MaxQuantity = 99
)

type Item struct {
	ProductID int64 `json:"product_id"`
	Quantity  int   `json:"quantity"`
}

// Mutation derives the next cart from the stored one and reports whether it
// changed anything. It may run more than once for a single update.
type Mutation func(items []Item) (next []Item, changed bool)

// Store persists whole carts. Load of an unknown id returns an empty cart.
// Update applies fn atomically against the stored cart and writes only when
// fn reports a change.
type Store interface {
	Load(ctx context.Context, cartID string) ([]Item, error)
	Update(ctx context.Context, cartID string, fn Mutation) ([]Item, bool, error)
}

// Pricer returns current prices; ids it does not know are left out.
type Pricer interface {
	Prices(ctx context.Context, ids []int64) (map[int64]decimal.Decimal, error)
}

// Line is one rendered cart entry. Prices here are informational only.
type Line struct {
	ProductID int64           `json:"product_id"`
	Quantity  int             `json:"quantity"`
	Price     decimal.Decimal `json:"price"`
	LineTotal decimal.Decimal `json:"line_total"`
}

// View receives the three surfaces that depend on the cart.
type View interface {
	RenderItems(lines []Line)
	RenderBadge(count int, visible bool)
	RenderTotal(total decimal.Decimal)
}

// Model owns one cart. It is not safe for concurrent use; callers load a
// fresh Model per request. Mutations act on the stored cart, not on the
// copy loaded by Open, so concurrent requests compose.
type Model struct {
	ID     string
	items  []Item
	store  Store
	pricer Pricer
	view   View
}

// Open loads the cart from store. pricer and view may be nil.
func Open(ctx context.Context, id string, store Store, pricer Pricer, view View) (*Model, error) {
	items, err := store.Load(ctx, id)
	if err != nil {
		return nil, err
	}
	return &Model{ID: id, items: normalize(items), store: store, pricer: pricer, view: view}, nil
}

// normalize merges duplicate entries and clamps quantities so carts written
// by older clients still satisfy the model's invariants.
func normalize(in []Item) []Item {
	out := make([]Item, 0, len(in))
	for _, it := range in {
		if it.ProductID <= 0 || it.Quantity < MinQuantity {
			continue
		}
		if i := indexOf(out, it.ProductID); i >= 0 {
			out[i].Quantity = clamp(out[i].Quantity + it.Quantity)
			continue
		}
		out = append(out, Item{ProductID: it.ProductID, Quantity: clamp(it.Quantity)})
	}
	return out
}

func indexOf(items []Item, productID int64) int {
	for i, it := range items {
		if it.ProductID == productID {
			return i
		}
	}
	return -1
}

func clamp(q int) int {
	if q < MinQuantity {
		return MinQuantity
	}
	if q > MaxQuantity {
		return MaxQuantity
	}
	return q
}

// Items returns a copy of the current entries in insertion order.
func (m *Model) Items() []Item {
	return append([]Item(nil), m.items...)
}

func (m *Model) Count() int {
	n := 0
	for _, it := range m.items {
		n += it.Quantity
	}
	return n
}

// Add merges qty into an existing entry or appends a new one. The merged
// quantity is capped at MaxQuantity.
func (m *Model) Add(ctx context.Context, productID int64, qty int) error {
	if productID <= 0 {
		return apperr.Validation("product_id is required")
	}
	if qty < MinQuantity {
		return apperr.Validation("quantity must be a positive integer")
	}
	return m.update(ctx, func(items []Item) ([]Item, bool) {
		i := indexOf(items, productID)
		if i < 0 {
			return append(items, Item{ProductID: productID, Quantity: clamp(qty)}), true
		}
		q := clamp(items[i].Quantity + qty)
		if q == items[i].Quantity {
			return items, false
		}
		items[i].Quantity = q
		return items, true
	})
}

// SetQuantity replaces the quantity. Values outside [1, 99] and unknown
// products are ignored.
func (m *Model) SetQuantity(ctx context.Context, productID int64, qty int) error {
	if qty < MinQuantity || qty > MaxQuantity {
		return nil
	}
	return m.update(ctx, func(items []Item) ([]Item, bool) {
		i := indexOf(items, productID)
		if i < 0 || items[i].Quantity == qty {
			return items, false
		}
		items[i].Quantity = qty
		return items, true
	})
}

func (m *Model) ChangeQuantity(ctx context.Context, productID int64, delta int) error {
	return m.update(ctx, func(items []Item) ([]Item, bool) {
		i := indexOf(items, productID)
		if i < 0 {
			return items, false
		}
		q := clamp(items[i].Quantity + delta)
		if q == items[i].Quantity {
			return items, false
		}
		items[i].Quantity = q
		return items, true
	})
}

func (m *Model) Remove(ctx context.Context, productID int64) error {
	return m.update(ctx, func(items []Item) ([]Item, bool) {
		i := indexOf(items, productID)
		if i < 0 {
			return items, false
		}
		return append(items[:i], items[i+1:]...), true
	})
}

func (m *Model) Clear(ctx context.Context) error {
	return m.update(ctx, func(items []Item) ([]Item, bool) {
		return nil, len(items) > 0
	})
}

// Settle takes ordered quantities out of the cart after checkout. Entries
// that reach zero are dropped; anything added since the order was read stays.
func (m *Model) Settle(ctx context.Context, ordered []Item) error {
	return m.update(ctx, func(items []Item) ([]Item, bool) {
		changed := false
		for _, o := range ordered {
			i := indexOf(items, o.ProductID)
			if i < 0 {
				continue
			}
			changed = true
			if items[i].Quantity <= o.Quantity {
				items = append(items[:i], items[i+1:]...)
				continue
			}
			items[i].Quantity -= o.Quantity
		}
		return items, changed
	})
}

// OrderItems is the cart as order input. Only ids and quantities are passed
// on; the order workflow prices every line itself.
func (m *Model) OrderItems() []orders.ItemInput {
	out := make([]orders.ItemInput, 0, len(m.items))
	for _, it := range m.items {
		out = append(out, orders.ItemInput{ProductID: it.ProductID, Quantity: it.Quantity})
	}
	return out
}

// update applies fn to the stored cart, then renders when it changed. The
// model's items follow the stored cart either way.
func (m *Model) update(ctx context.Context, fn func(items []Item) ([]Item, bool)) error {
	items, changed, err := m.store.Update(ctx, m.ID, func(cur []Item) ([]Item, bool) {
		return fn(normalize(cur))
	})
	if err != nil {
		return err
	}
	m.items = items
	if !changed {
		return nil
	}
	return m.Render(ctx)
}

// Render pushes the current cart to the view. Products without a known price
// render at zero.
func (m *Model) Render(ctx context.Context) error {
	if m.view == nil {
		return nil
	}
	prices := map[int64]decimal.Decimal{}
	if m.pricer != nil && len(m.items) > 0 {
		ids := make([]int64, 0, len(m.items))
		for _, it := range m.items {
			ids = append(ids, it.ProductID)
		}
		p, err := m.pricer.Prices(ctx, ids)
		if err != nil {
			return err
		}
		prices = p
	}

	lines := make([]Line, 0, len(m.items))
	total := decimal.Zero
	for _, it := range m.items {
		price := prices[it.ProductID]
		lt := price.Mul(decimal.NewFromInt(int64(it.Quantity)))
		total = total.Add(lt)
		lines = append(lines, Line{ProductID: it.ProductID, Quantity: it.Quantity, Price: price, LineTotal: lt})
	}

	count := m.Count()
	m.view.RenderItems(lines)
	m.view.RenderBadge(count, count > 0)
	m.view.RenderTotal(total)
	return nil
}
