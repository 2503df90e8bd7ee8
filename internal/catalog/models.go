package catalog

import "github.com/shopspring/decimal"

type Product struct {
	ID          int64           `json:"id"`
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Price       decimal.Decimal `json:"price"`
	ImageURL    string          `json:"image_url"`
	Category    string          `json:"category"`
	Available   bool            `json:"available"`
}

type NewProduct struct {
	Name        string           `json:"name" validate:"required"`
	Description string           `json:"description"`
	Price       *decimal.Decimal `json:"price" validate:"required"`
	ImageURL    string           `json:"image_url"`
	Category    string           `json:"category"`
	Available   *bool            `json:"available"`
}

// ProductPatch lists every field an update may touch. Nil means unchanged.
type ProductPatch struct {
	Name        *string          `json:"name"`
	Description *string          `json:"description"`
	Price       *decimal.Decimal `json:"price"`
	ImageURL    *string          `json:"image_url"`
	Category    *string          `json:"category"`
	Available   *bool            `json:"available"`
}

type ListFilter struct {
	Category string
	// Admin listings include unavailable products.
	Admin    bool
	Paginate bool
	Page     int
	PageSize int
}

type Page struct {
	Page       int       `json:"page"`
	PageSize   int       `json:"pageSize"`
	TotalPages int       `json:"totalPages"`
	TotalItems int       `json:"totalItems"`
	Products   []Product `json:"products"`
}
