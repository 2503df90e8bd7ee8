package orders

import (
	"context"
	"errors"
	"fmt"

	"github.com/ariefcatur/go-storefront/internal/apperr"
	"github.com/ariefcatur/go-storefront/internal/postgres"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"
)

// ErrUnknownProduct is wrapped by the NotFound returned when an order names a
// product the catalog does not have.
var ErrUnknownProduct = errors.New("unknown product")

type Repo struct{ DB postgres.DB }

// CreateOrderTx prices every line from the products table and writes the
// header plus all items in one transaction. Client prices are never used.
// On any failure nothing is committed.
func (r *Repo) CreateOrderTx(ctx context.Context, in CreateInput, stamp string) (Placed, error) {
	var placed Placed
	err := postgres.WithTx(ctx, r.DB, func(tx pgx.Tx) error {
		prices, err := priceItems(ctx, tx, in.Items)
		if err != nil {
			return err
		}

		total := decimal.Zero
		items := make([]OrderItem, 0, len(in.Items))
		for _, it := range in.Items {
			price := prices[it.ProductID]
			total = total.Add(price.Mul(decimal.NewFromInt(int64(it.Quantity))))
			items = append(items, OrderItem{ProductID: it.ProductID, Quantity: it.Quantity, Price: price})
		}

		var orderID int64
		err = tx.QueryRow(ctx, `
			INSERT INTO orders(user_id, total_amount, status, shipping_address, payment_type, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6, $6) RETURNING id`,
			in.UserID, total, string(in.Status), in.ShippingAddress, string(in.PaymentType), stamp,
		).Scan(&orderID)
		if postgres.IsForeignKeyViolation(err) {
			return apperr.NotFound("User ID %d not found.", in.UserID)
		}
		if err != nil {
			return apperr.Store(err)
		}

		for i := range items {
			items[i].OrderID = orderID
			if _, err := tx.Exec(ctx, `
				INSERT INTO order_items(order_id, product_id, quantity, price)
				VALUES ($1, $2, $3, $4)`,
				orderID, items[i].ProductID, items[i].Quantity, items[i].Price,
			); err != nil {
				return apperr.Store(err)
			}
		}

		placed = Placed{
			Order: Order{
				ID:              orderID,
				UserID:          in.UserID,
				TotalAmount:     total,
				Status:          in.Status,
				ShippingAddress: in.ShippingAddress,
				PaymentType:     in.PaymentType,
				CreatedAt:       stamp,
				UpdatedAt:       stamp,
			},
			Items: items,
		}
		return nil
	})
	if err != nil {
		return Placed{}, apperr.Store(err)
	}
	return placed, nil
}

// priceItems resolves each distinct product id; the first unknown id fails.
func priceItems(ctx context.Context, tx pgx.Tx, items []ItemInput) (map[int64]decimal.Decimal, error) {
	ids := make([]int64, 0, len(items))
	seen := make(map[int64]bool, len(items))
	for _, it := range items {
		if !seen[it.ProductID] {
			seen[it.ProductID] = true
			ids = append(ids, it.ProductID)
		}
	}

	rows, err := tx.Query(ctx, `SELECT id, price FROM products WHERE id = ANY($1)`, ids)
	if err != nil {
		return nil, apperr.Store(err)
	}
	defer rows.Close()

	prices := make(map[int64]decimal.Decimal, len(ids))
	for rows.Next() {
		var id int64
		var price decimal.Decimal
		if err := rows.Scan(&id, &price); err != nil {
			return nil, apperr.Store(err)
		}
		prices[id] = price
	}
	if err := rows.Err(); err != nil {
		return nil, apperr.Store(err)
	}

	for _, id := range ids {
		if _, ok := prices[id]; !ok {
			return nil, &apperr.Error{Kind: apperr.ErrNotFound, Msg: fmt.Sprintf("Product ID %d not found.", id), Err: ErrUnknownProduct}
		}
	}
	return prices, nil
}

// UpdateStatus touches only status and updated_at, and bumps the version.
func (r *Repo) UpdateStatus(ctx context.Context, id int64, status Status, stamp string) (StatusView, error) {
	v := StatusView{OrderID: id, Status: status, UpdatedAt: stamp}
	err := r.DB.QueryRow(ctx,
		`UPDATE orders SET status=$1, updated_at=$2, version=version+1 WHERE id=$3 RETURNING version`,
		string(status), stamp, id,
	).Scan(&v.Version)
	if errors.Is(err, pgx.ErrNoRows) {
		return StatusView{}, apperr.NotFound("Order not found")
	}
	if err != nil {
		return StatusView{}, apperr.Store(err)
	}
	return v, nil
}

func (r *Repo) GetStatus(ctx context.Context, id int64) (StatusView, error) {
	v := StatusView{OrderID: id}
	var s string
	err := r.DB.QueryRow(ctx, `SELECT status, updated_at, version FROM orders WHERE id=$1`, id).
		Scan(&s, &v.UpdatedAt, &v.Version)
	if errors.Is(err, pgx.ErrNoRows) {
		return StatusView{}, apperr.NotFound("Order not found")
	}
	if err != nil {
		return StatusView{}, apperr.Store(err)
	}
	v.Status = Status(s)
	return v, nil
}

const orderSelect = `
	SELECT o.id, o.created_at, o.updated_at, o.total_amount, o.status, o.shipping_address,
	       o.payment_type, u.username, u.name
	FROM orders o
	JOIN users u ON o.user_id = u.id`

// List returns one page of orders, newest first, optionally by status.
func (r *Repo) List(ctx context.Context, f ListFilter) (ListPage, error) {
	where, args := "", []any{}
	if f.Status != "" {
		where = ` WHERE o.status = $1`
		args = append(args, string(f.Status))
	}
	return r.page(ctx, where, args, f.Page, f.PageSize, feedbackAny)
}

func (r *Repo) ListByUsername(ctx context.Context, username string, page, pageSize int) (ListPage, error) {
	return r.page(ctx, ` WHERE u.username = $1`, []any{username}, page, pageSize, feedbackByOwner)
}

// Feedback lookups for a page of orders. The admin listing attaches feedback
// from anyone; a user's own listing only shows what that user wrote.
const (
	feedbackAny = `
		SELECT f.order_id, f.user_id, f.rating, f.comments, f.created_at
		FROM feedback f
		WHERE f.order_id = ANY($1)
		ORDER BY f.created_at, f.id`
	feedbackByOwner = `
		SELECT f.order_id, f.user_id, f.rating, f.comments, f.created_at
		FROM feedback f
		JOIN orders o ON o.id = f.order_id AND o.user_id = f.user_id
		WHERE f.order_id = ANY($1)
		ORDER BY f.created_at, f.id`
)

func (r *Repo) page(ctx context.Context, where string, args []any, page, pageSize int, feedbackSQL string) (ListPage, error) {
	page, pageSize, offset := postgres.Offset(page, pageSize, 10)
	out := ListPage{Page: page, PageSize: pageSize, Orders: []OrderView{}}

	err := r.DB.QueryRow(ctx, `SELECT COUNT(*) FROM orders o JOIN users u ON o.user_id = u.id`+where, args...).
		Scan(&out.TotalCount)
	if err != nil {
		return ListPage{}, apperr.Store(err)
	}

	n := len(args)
	sql := orderSelect + where + fmt.Sprintf(` ORDER BY o.created_at DESC, o.id DESC LIMIT $%d OFFSET $%d`, n+1, n+2)
	rows, err := r.DB.Query(ctx, sql, append(args, pageSize, offset)...)
	if err != nil {
		return ListPage{}, apperr.Store(err)
	}
	ids, err := func() ([]int64, error) {
		defer rows.Close()
		var ids []int64
		for rows.Next() {
			var v OrderView
			var status, payment string
			if err := rows.Scan(&v.ID, &v.CreatedAt, &v.UpdatedAt, &v.TotalAmount, &status,
				&v.ShippingAddress, &payment, &v.User.Username, &v.User.Name); err != nil {
				return nil, err
			}
			v.Status, v.PaymentType = Status(status), PaymentType(payment)
			v.OrderItems = []LineView{}
			out.Orders = append(out.Orders, v)
			ids = append(ids, v.ID)
		}
		return ids, rows.Err()
	}()
	if err != nil {
		return ListPage{}, apperr.Store(err)
	}
	if len(ids) == 0 {
		return out, nil
	}

	var lines map[int64][]LineView
	var fbs map[int64]*FeedbackView
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		lines, err = r.lines(gctx, ids)
		return err
	})
	g.Go(func() error {
		var err error
		fbs, err = r.feedback(gctx, feedbackSQL, ids)
		return err
	})
	if err := g.Wait(); err != nil {
		return ListPage{}, apperr.Store(err)
	}

	for i := range out.Orders {
		id := out.Orders[i].ID
		if ls := lines[id]; ls != nil {
			out.Orders[i].OrderItems = ls
		}
		out.Orders[i].Feedback = fbs[id]
	}
	return out, nil
}

func (r *Repo) lines(ctx context.Context, ids []int64) (map[int64][]LineView, error) {
	rows, err := r.DB.Query(ctx, `
		SELECT oi.order_id, oi.product_id, oi.quantity, oi.price, p.name, p.image_url, p.description
		FROM order_items oi
		JOIN products p ON oi.product_id = p.id
		WHERE oi.order_id = ANY($1)
		ORDER BY oi.id`, ids)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(map[int64][]LineView)
	for rows.Next() {
		var l LineView
		if err := rows.Scan(&l.OrderID, &l.ProductID, &l.Quantity, &l.Price, &l.ProductName, &l.ImageURL, &l.Description); err != nil {
			return nil, err
		}
		out[l.OrderID] = append(out[l.OrderID], l)
	}
	return out, rows.Err()
}

// feedback maps each order to its most recent feedback row.
func (r *Repo) feedback(ctx context.Context, query string, ids []int64) (map[int64]*FeedbackView, error) {
	rows, err := r.DB.Query(ctx, query, ids)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(map[int64]*FeedbackView)
	for rows.Next() {
		var f FeedbackView
		if err := rows.Scan(&f.OrderID, &f.UserID, &f.Rating, &f.Comments, &f.CreatedAt); err != nil {
			return nil, err
		}
		out[f.OrderID] = &f
	}
	return out, rows.Err()
}
