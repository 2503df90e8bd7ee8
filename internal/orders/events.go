package orders

import "github.com/shopspring/decimal"

const (
	EventOrderCreated       = "OrderCreated"
	EventOrderStatusChanged = "OrderStatusChanged"
)

type OrderCreatedPayload struct {
	OrderID     int64           `json:"order_id"`
	UserID      int64           `json:"user_id"`
	Status      Status          `json:"status"`
	PaymentType PaymentType     `json:"payment_type"`
	Items       []OrderItem     `json:"items"`
	TotalAmount decimal.Decimal `json:"total_amount"`
	CreatedAt   string          `json:"created_at"`
	Version     int64           `json:"version"`
}

type OrderStatusChangedPayload struct {
	OrderID   int64  `json:"order_id"`
	Status    Status `json:"status"`
	UpdatedAt string `json:"updated_at"`
	Version   int64  `json:"version"`
}
