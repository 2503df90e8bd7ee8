package cart

import "github.com/shopspring/decimal"

type Badge struct {
	Count   int  `json:"count"`
	Visible bool `json:"visible"`
}

// Summary is a View that records the last render, for JSON responses.
type Summary struct {
	CartID string          `json:"cart_id"`
	Items  []Line          `json:"items"`
	Badge  Badge           `json:"badge"`
	Total  decimal.Decimal `json:"total"`

	// Rendered is set once any render has reached the summary.
	Rendered bool `json:"-"`
}

func NewSummary(cartID string) *Summary {
	return &Summary{CartID: cartID, Items: []Line{}, Total: decimal.Zero}
}

func (s *Summary) RenderItems(lines []Line) { s.Items = lines }

func (s *Summary) RenderBadge(count int, visible bool) {
	s.Badge = Badge{Count: count, Visible: visible}
}

func (s *Summary) RenderTotal(total decimal.Decimal) {
	s.Total = total
	s.Rendered = true
}
