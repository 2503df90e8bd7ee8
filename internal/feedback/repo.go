package feedback

import (
	"context"

	"github.com/ariefcatur/go-storefront/internal/apperr"
	"github.com/ariefcatur/go-storefront/internal/postgres"
)

type Repo struct{ DB postgres.DB }

func (r *Repo) Insert(ctx context.Context, f Feedback) (int64, error) {
	var id int64
	err := r.DB.QueryRow(ctx, `
		INSERT INTO feedback(order_id, user_id, rating, comments, created_at)
		VALUES ($1, $2, $3, $4, $5) RETURNING feedback_id`,
		f.OrderID, f.UserID, f.Rating, f.Comments, f.CreatedAt,
	).Scan(&id)
	if postgres.IsUniqueViolation(err) {
		return 0, apperr.Conflict("Feedback already submitted for this order.")
	}
	if postgres.IsForeignKeyViolation(err) {
		return 0, apperr.NotFound("order or user not found")
	}
	if err != nil {
		return 0, apperr.Store(err)
	}
	return id, nil
}

func (r *Repo) List(ctx context.Context, page, pageSize int) (Page, error) {
	page, pageSize, offset := postgres.Offset(page, pageSize, 10)
	out := Page{Page: page, PageSize: pageSize, Feedbacks: []AdminRow{}}

	if err := r.DB.QueryRow(ctx, `SELECT COUNT(*) FROM feedback`).Scan(&out.TotalItems); err != nil {
		return Page{}, apperr.Store(err)
	}
	out.TotalPages = (out.TotalItems + pageSize - 1) / pageSize

	rows, err := r.DB.Query(ctx, `
		SELECT f.feedback_id, f.order_id, f.rating, f.comments, f.created_at,
		       o.status, u.username, u.name
		FROM feedback f
		LEFT JOIN orders o ON f.order_id = o.id
		LEFT JOIN users u ON f.user_id = u.id
		ORDER BY f.created_at DESC, f.feedback_id DESC
		LIMIT $1 OFFSET $2`, pageSize, offset)
	if err != nil {
		return Page{}, apperr.Store(err)
	}
	defer rows.Close()
	for rows.Next() {
		var a AdminRow
		if err := rows.Scan(&a.ID, &a.OrderID, &a.Rating, &a.Comments, &a.CreatedAt,
			&a.OrderStatus, &a.Username, &a.Name); err != nil {
			return Page{}, apperr.Store(err)
		}
		out.Feedbacks = append(out.Feedbacks, a)
	}
	if err := rows.Err(); err != nil {
		return Page{}, apperr.Store(err)
	}
	return out, nil
}
