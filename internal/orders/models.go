package orders

import "github.com/shopspring/decimal"

type PaymentType string

const (
	PaymentUPI PaymentType = "UPI"
	PaymentCOD PaymentType = "Cash on Delivery"
)

func (p PaymentType) Valid() bool {
	return p == PaymentUPI || p == PaymentCOD
}

type Order struct {
	ID              int64           `json:"id"`
	UserID          int64           `json:"user_id"`
	TotalAmount     decimal.Decimal `json:"total_amount"`
	Status          Status          `json:"status"`
	ShippingAddress string          `json:"shipping_address"`
	PaymentType     PaymentType     `json:"payment_type"`
	CreatedAt       string          `json:"created_at"`
	UpdatedAt       string          `json:"updated_at"`
}

// OrderItem.Price is the catalog price when the order was placed.
type OrderItem struct {
	OrderID   int64           `json:"order_id"`
	ProductID int64           `json:"product_id"`
	Quantity  int             `json:"quantity"`
	Price     decimal.Decimal `json:"price"`
}

// ItemInput carries no price: line prices always come from the catalog.
type ItemInput struct {
	ProductID int64 `json:"product_id"`
	Quantity  int   `json:"quantity"`
}

type CreateInput struct {
	UserID          int64
	ShippingAddress string
	Status          Status
	PaymentType     PaymentType
	Items           []ItemInput
}

// Placed is the result of a committed order creation.
type Placed struct {
	Order Order
	Items []OrderItem
}

// StatusView is the cached status of an order. Version starts at
// InitialVersion and grows by one on every status change.
type StatusView struct {
	OrderID   int64  `json:"order_id"`
	Status    Status `json:"status"`
	UpdatedAt string `json:"updated_at"`
	Version   int64  `json:"version"`
}

const InitialVersion int64 = 1

type ListFilter struct {
	Status   Status
	Page     int
	PageSize int
}

type UserRef struct {
	Username string `json:"username"`
	Name     string `json:"name"`
}

type LineView struct {
	OrderID     int64           `json:"order_id"`
	ProductID   int64           `json:"product_id"`
	Quantity    int             `json:"quantity"`
	Price       decimal.Decimal `json:"price"`
	ProductName string          `json:"product_name"`
	ImageURL    string          `json:"image_url"`
	Description string          `json:"description"`
}

type FeedbackView struct {
	OrderID   int64   `json:"order_id"`
	UserID    int64   `json:"user_id"`
	Rating    *int    `json:"rating"`
	Comments  *string `json:"comments"`
	CreatedAt string  `json:"created_at"`
}

type OrderView struct {
	ID              int64           `json:"id"`
	CreatedAt       string          `json:"created_at"`
	UpdatedAt       string          `json:"updated_at"`
	TotalAmount     decimal.Decimal `json:"total_amount"`
	Status          Status          `json:"status"`
	ShippingAddress string          `json:"shipping_address"`
	PaymentType     PaymentType     `json:"payment_type"`
	User            UserRef         `json:"user"`
	OrderItems      []LineView      `json:"order_items"`
	Feedback        *FeedbackView   `json:"feedback"`
}

type ListPage struct {
	TotalCount int         `json:"totalCount"`
	Page       int         `json:"page"`
	PageSize   int         `json:"page_size"`
	Orders     []OrderView `json:"orders"`
}
