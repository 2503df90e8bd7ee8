package orders

import (
	"context"
	"strings"

	"github.com/ariefcatur/go-storefront/internal/apperr"
	"github.com/ariefcatur/go-storefront/internal/civil"
	kafkax "github.com/ariefcatur/go-storefront/internal/kafka"
	"github.com/rs/zerolog"
	kafkago "github.com/segmentio/kafka-go"
)

type Store interface {
	CreateOrderTx(ctx context.Context, in CreateInput, stamp string) (Placed, error)
	UpdateStatus(ctx context.Context, id int64, status Status, stamp string) (StatusView, error)
	GetStatus(ctx context.Context, id int64) (StatusView, error)
	List(ctx context.Context, f ListFilter) (ListPage, error)
	ListByUsername(ctx context.Context, username string, page, pageSize int) (ListPage, error)
}

// StatusCache.Set must keep an entry whose version is the same or newer
// than v's.
type StatusCache interface {
	Get(ctx context.Context, id int64) (StatusView, bool)
	Set(ctx context.Context, v StatusView) error
	Invalidate(ctx context.Context, id int64) error
}

type Publisher interface {
	Publish(topic string, key, value []byte, headers ...kafkago.Header)
}

// Service is the order workflow. Cache and Events are optional.
type Service struct {
	Store   Store
	Cache   StatusCache
	Events  Publisher
	Clock   *civil.Clock
	Log     zerolog.Logger
	Service string
}

var ErrInvalidPayment = apperr.Validation("Invalid payment_type. Allowed values: 'UPI', 'Cash on Delivery'.")

// Create validates the request before touching the store, then places the
// order atomically.
func (s *Service) Create(ctx context.Context, in CreateInput) (Placed, error) {
	if in.UserID <= 0 || len(in.Items) == 0 {
		return Placed{}, apperr.Validation("Invalid order data")
	}
	for _, it := range in.Items {
		if it.Quantity < 1 {
			return Placed{}, apperr.Validation("invalid quantity for product %d", it.ProductID)
		}
	}
	in.PaymentType = PaymentType(strings.TrimSpace(string(in.PaymentType)))
	if !in.PaymentType.Valid() {
		return Placed{}, ErrInvalidPayment
	}
	in.Status = normalizeStatus(in.Status)
	if in.Status == "" {
		in.Status = StatusPending
	}

	placed, err := s.Store.CreateOrderTx(ctx, in, s.Clock.Stamp())
	if err != nil {
		return Placed{}, err
	}
	o := placed.Order

	s.cacheSet(ctx, StatusView{OrderID: o.ID, Status: o.Status, UpdatedAt: o.UpdatedAt, Version: InitialVersion})
	s.publish(ctx, TopicOrderCreated, EventOrderCreated, o.ID, OrderCreatedPayload{
		OrderID:     o.ID,
		UserID:      o.UserID,
		Status:      o.Status,
		PaymentType: o.PaymentType,
		Items:       placed.Items,
		TotalAmount: o.TotalAmount,
		CreatedAt:   o.CreatedAt,
		Version:     InitialVersion,
	})
	return placed, nil
}

func (s *Service) UpdateStatus(ctx context.Context, id int64, status Status) (StatusView, error) {
	status = normalizeStatus(status)
	if status == "" {
		return StatusView{}, apperr.Validation("Status is required")
	}
	v, err := s.Store.UpdateStatus(ctx, id, status, s.Clock.Stamp())
	if err != nil {
		return StatusView{}, err
	}
	if s.Cache != nil {
		if err := s.Cache.Set(ctx, v); err != nil {
			s.Log.Warn().Err(err).Int64("order_id", id).Msg("status cache set failed, evicting")
			if err := s.Cache.Invalidate(ctx, id); err != nil {
				s.Log.Warn().Err(err).Int64("order_id", id).Msg("status cache invalidate failed")
			}
		}
	}
	s.publish(ctx, TopicOrderStatusChanged, EventOrderStatusChanged, id, OrderStatusChangedPayload(v))
	return v, nil
}

// Get serves the status from cache, falling back to the store.
func (s *Service) Get(ctx context.Context, id int64) (StatusView, error) {
	if s.Cache != nil {
		if v, ok := s.Cache.Get(ctx, id); ok {
			return v, nil
		}
	}
	v, err := s.Store.GetStatus(ctx, id)
	if err != nil {
		return StatusView{}, err
	}
	s.cacheSet(ctx, v)
	return v, nil
}

func (s *Service) List(ctx context.Context, f ListFilter) (ListPage, error) {
	f.Status = normalizeStatus(f.Status)
	return s.Store.List(ctx, f)
}

func (s *Service) ListByUsername(ctx context.Context, username string, page, pageSize int) (ListPage, error) {
	if strings.TrimSpace(username) == "" {
		return ListPage{}, apperr.Validation("username is required")
	}
	return s.Store.ListByUsername(ctx, username, page, pageSize)
}

func (s *Service) cacheSet(ctx context.Context, v StatusView) {
	if s.Cache == nil {
		return
	}
	if err := s.Cache.Set(ctx, v); err != nil {
		s.Log.Warn().Err(err).Int64("order_id", v.OrderID).Msg("status cache set failed")
	}
}

func (s *Service) publish(ctx context.Context, topic, eventType string, orderID int64, payload any) {
	if s.Events == nil {
		return
	}
	env := kafkax.NewEnvelope(eventType, s.Service, kafkax.TraceID(ctx), string(PartitionKey(orderID)), payload)
	s.Events.Publish(topic, PartitionKey(orderID), kafkax.MustMarshal(env), env.Headers()...)
}
