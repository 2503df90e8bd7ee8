package catalog

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/ariefcatur/go-storefront/internal/apperr"
	"github.com/ariefcatur/go-storefront/internal/postgres"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

const productColumns = `id, name, description, price, image_url, category, available`

type Repo struct{ DB postgres.DB }

func (r *Repo) Create(ctx context.Context, in NewProduct) (int64, error) {
	if strings.TrimSpace(in.Name) == "" || in.Price == nil {
		return 0, apperr.Validation("name and price are required")
	}
	if in.Price.IsNegative() {
		return 0, apperr.Validation("price must not be negative")
	}
	available := true
	if in.Available != nil {
		available = *in.Available
	}
	var id int64
	err := r.DB.QueryRow(ctx, `
		INSERT INTO products(name, description, price, image_url, category, available)
		VALUES ($1, $2, $3, $4, $5, $6) RETURNING id`,
		in.Name, in.Description, *in.Price, in.ImageURL, in.Category, available,
	).Scan(&id)
	if err != nil {
		return 0, apperr.Store(err)
	}
	return id, nil
}

func (r *Repo) Get(ctx context.Context, id int64) (Product, error) {
	row := r.DB.QueryRow(ctx, `SELECT `+productColumns+` FROM products WHERE id=$1`, id)
	p, err := scanProduct(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return Product{}, apperr.NotFound("product not found")
	}
	if err != nil {
		return Product{}, apperr.Store(err)
	}
	return p, nil
}

func (r *Repo) List(ctx context.Context, f ListFilter) (Page, error) {
	where := []string{"TRUE"}
	var args []any
	if !f.Admin {
		where = append(where, "available = TRUE")
	}
	if f.Category != "" {
		args = append(args, f.Category)
		where = append(where, fmt.Sprintf("category = $%d", len(args)))
	}
	cond := strings.Join(where, " AND ")

	if !f.Paginate {
		ps, err := r.query(ctx, `SELECT `+productColumns+` FROM products WHERE `+cond+` ORDER BY id`, args...)
		if err != nil {
			return Page{}, err
		}
		return Page{Page: 1, PageSize: len(ps), TotalPages: 1, TotalItems: len(ps), Products: ps}, nil
	}

	page, size, offset := postgres.Offset(f.Page, f.PageSize, 10)
	var total int
	if err := r.DB.QueryRow(ctx, `SELECT COUNT(*) FROM products WHERE `+cond, args...).Scan(&total); err != nil {
		return Page{}, apperr.Store(err)
	}
	n := len(args)
	args = append(args, size, offset)
	ps, err := r.query(ctx, fmt.Sprintf(`SELECT `+productColumns+` FROM products WHERE `+cond+` ORDER BY id LIMIT $%d OFFSET $%d`, n+1, n+2), args...)
	if err != nil {
		return Page{}, err
	}
	return Page{
		Page:       page,
		PageSize:   size,
		TotalPages: (total + size - 1) / size,
		TotalItems: total,
		Products:   ps,
	}, nil
}

// Patch applies only the fields set on p.
func (r *Repo) Patch(ctx context.Context, id int64, p ProductPatch) error {
	var sets []string
	var args []any
	set := func(col string, v any) {
		args = append(args, v)
		sets = append(sets, fmt.Sprintf("%s = $%d", col, len(args)))
	}
	if p.Name != nil {
		set("name", *p.Name)
	}
	if p.Description != nil {
		set("description", *p.Description)
	}
	if p.Price != nil {
		if p.Price.IsNegative() {
			return apperr.Validation("price must not be negative")
		}
		set("price", *p.Price)
	}
	if p.ImageURL != nil {
		set("image_url", *p.ImageURL)
	}
	if p.Category != nil {
		set("category", *p.Category)
	}
	if p.Available != nil {
		set("available", *p.Available)
	}
	if len(sets) == 0 {
		return apperr.Validation("no fields to update provided")
	}
	args = append(args, id)
	sql := fmt.Sprintf(`UPDATE products SET %s WHERE id = $%d`, strings.Join(sets, ", "), len(args))
	ct, err := r.DB.Exec(ctx, sql, args...)
	if err != nil {
		return apperr.Store(err)
	}
	if ct.RowsAffected() == 0 {
		return apperr.NotFound("product not found")
	}
	return nil
}

func (r *Repo) Delete(ctx context.Context, id int64) error {
	ct, err := r.DB.Exec(ctx, `DELETE FROM products WHERE id=$1`, id)
	if postgres.IsForeignKeyViolation(err) {
		return apperr.Conflict("product is referenced by existing orders")
	}
	if err != nil {
		return apperr.Store(err)
	}
	if ct.RowsAffected() == 0 {
		return apperr.NotFound("product not found")
	}
	return nil
}

// Prices returns the current price of every known id. Unknown ids are absent.
func (r *Repo) Prices(ctx context.Context, ids []int64) (map[int64]decimal.Decimal, error) {
	out := make(map[int64]decimal.Decimal, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	rows, err := r.DB.Query(ctx, `SELECT id, price FROM products WHERE id = ANY($1)`, ids)
	if err != nil {
		return nil, apperr.Store(err)
	}
	defer rows.Close()
	for rows.Next() {
		var id int64
		var price decimal.Decimal
		if err := rows.Scan(&id, &price); err != nil {
			return nil, apperr.Store(err)
		}
		out[id] = price
	}
	if err := rows.Err(); err != nil {
		return nil, apperr.Store(err)
	}
	return out, nil
}

func (r *Repo) query(ctx context.Context, sql string, args ...any) ([]Product, error) {
	rows, err := r.DB.Query(ctx, sql, args...)
	if err != nil {
		return nil, apperr.Store(err)
	}
	defer rows.Close()

	out := []Product{}
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, apperr.Store(err)
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, apperr.Store(err)
	}
	return out, nil
}

func scanProduct(row pgx.Row) (Product, error) {
	var p Product
	err := row.Scan(&p.ID, &p.Name, &p.Description, &p.Price, &p.ImageURL, &p.Category, &p.Available)
	return p, err
}
