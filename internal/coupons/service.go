package coupons

import (
	"context"
	"errors"
	"strings"

	"github.com/ariefcatur/go-storefront/internal/apperr"
	"github.com/ariefcatur/go-storefront/internal/postgres"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

type Repo struct{ DB postgres.DB }

// FindActive looks the code up case-insensitively among active coupons.
func (r *Repo) FindActive(ctx context.Context, code string) (Coupon, error) {
	var c Coupon
	var typ string
	err := r.DB.QueryRow(ctx, `
		SELECT code, active, discount_type, discount_value
		FROM coupons WHERE code = $1 AND active = TRUE`,
		strings.ToUpper(strings.TrimSpace(code)),
	).Scan(&c.Code, &c.Active, &typ, &c.DiscountValue)
	if errors.Is(err, pgx.ErrNoRows) {
		return Coupon{}, apperr.NotFound("Coupon code is invalid or inactive.")
	}
	if err != nil {
		return Coupon{}, apperr.Store(err)
	}
	c.DiscountType = DiscountType(typ)
	return c, nil
}

type Finder interface {
	FindActive(ctx context.Context, code string) (Coupon, error)
}

type Service struct{ Coupons Finder }

func (s *Service) Validate(ctx context.Context, code string, amount *decimal.Decimal) (Result, error) {
	if strings.TrimSpace(code) == "" || amount == nil {
		return Result{}, apperr.Validation("Missing code or order_amount")
	}
	if amount.IsNegative() {
		return Result{}, apperr.Validation("order_amount must not be negative")
	}
	c, err := s.Coupons.FindActive(ctx, code)
	if err != nil {
		return Result{}, err
	}
	return Evaluate(c, *amount), nil
}
