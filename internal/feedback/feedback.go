package feedback

import (
	"context"
	"strconv"

	"github.com/ariefcatur/go-storefront/internal/apperr"
	"github.com/ariefcatur/go-storefront/internal/civil"
	kafkax "github.com/ariefcatur/go-storefront/internal/kafka"
	"github.com/rs/zerolog"
	kafkago "github.com/segmentio/kafka-go"
)

const (
	TopicFeedbackSubmitted = "storefront.feedback.submitted"
	EventFeedbackSubmitted = "FeedbackSubmitted"
)

type Input struct {
	OrderID  int64   `json:"order_id"`
	UserID   int64   `json:"user_id"`
	Rating   *int    `json:"rating"`
	Comments *string `json:"comments"`
}

type Feedback struct {
	ID        int64   `json:"feedback_id"`
	OrderID   int64   `json:"order_id"`
	UserID    int64   `json:"user_id"`
	Rating    *int    `json:"rating"`
	Comments  *string `json:"comments"`
	CreatedAt string  `json:"created_at"`
}

type AdminRow struct {
	ID          int64   `json:"feedback_id"`
	OrderID     int64   `json:"order_id"`
	Rating      *int    `json:"rating"`
	Comments    *string `json:"comments"`
	CreatedAt   string  `json:"created_at"`
	OrderStatus *string `json:"order_status"`
	Username    *string `json:"username"`
	Name        *string `json:"name"`
}

type Page struct {
	Page       int        `json:"page"`
	PageSize   int        `json:"pageSize"`
	TotalItems int        `json:"totalItems"`
	TotalPages int        `json:"totalPages"`
	Feedbacks  []AdminRow `json:"feedbacks"`
}

type Store interface {
	Insert(ctx context.Context, f Feedback) (int64, error)
	List(ctx context.Context, page, pageSize int) (Page, error)
}

type Publisher interface {
	Publish(topic string, key, value []byte, headers ...kafkago.Header)
}

type Service struct {
	Store   Store
	Events  Publisher
	Clock   *civil.Clock
	Log     zerolog.Logger
	Service string
}

// Submit stores one feedback per (order, user). Uniqueness is enforced by
// the store; a duplicate surfaces as apperr.ErrConflict.
func (s *Service) Submit(ctx context.Context, in Input) (Feedback, error) {
	if in.OrderID <= 0 || in.UserID <= 0 {
		return Feedback{}, apperr.Validation("order_id and user_id are required.")
	}
	if in.Rating != nil && (*in.Rating < 1 || *in.Rating > 5) {
		return Feedback{}, apperr.Validation("rating must be between 1 and 5.")
	}
	if in.Comments != nil && *in.Comments == "" {
		in.Comments = nil
	}

	f := Feedback{
		OrderID:   in.OrderID,
		UserID:    in.UserID,
		Rating:    in.Rating,
		Comments:  in.Comments,
		CreatedAt: s.Clock.Stamp(),
	}
	id, err := s.Store.Insert(ctx, f)
	if err != nil {
		return Feedback{}, err
	}
	f.ID = id

	if s.Events != nil {
		key := []byte(strconv.FormatInt(f.OrderID, 10))
		env := kafkax.NewEnvelope(EventFeedbackSubmitted, s.Service, kafkax.TraceID(ctx), string(key), f)
		s.Events.Publish(TopicFeedbackSubmitted, key, kafkax.MustMarshal(env), env.Headers()...)
	}
	return f, nil
}

func (s *Service) List(ctx context.Context, page, pageSize int) (Page, error) {
	return s.Store.List(ctx, page, pageSize)
}
