// Package projector keeps the order status cache in step with the order
// event stream, so status reads stay warm across API instances.
package projector

import (
	"context"
	"encoding/json"
	"fmt"

	kafkax "github.com/ariefcatur/go-storefront/internal/kafka"
	"github.com/ariefcatur/go-storefront/internal/orders"
	"github.com/ariefcatur/go-storefront/internal/redisx"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	kafkago "github.com/segmentio/kafka-go"
)

// Topics the projector subscribes to.
var Topics = []string{orders.TopicOrderCreated, orders.TopicOrderStatusChanged}

// Cache must ignore a Set whose version is not newer than the cached one.
type Cache interface {
	Set(ctx context.Context, v orders.StatusView) error
}

type Service struct {
	Cache Cache
	Redis redis.Cmdable
	Name  string
	Log   zerolog.Logger
}

// Handle is installed as the consumer handler. A returned error leaves the
// message uncommitted so it is fetched again.
func (s *Service) Handle(ctx context.Context, m kafkago.Message) error {
	var env kafkax.Envelope
	if err := json.Unmarshal(m.Value, &env); err != nil {
		s.Log.Warn().Err(err).Str("topic", m.Topic).Int64("offset", m.Offset).Msg("dropping undecodable event")
		return nil
	}

	dkey := fmt.Sprintf(redisx.KeyDedup, s.Name, env.EventID)
	seen, err := redisx.Exists(ctx, s.Redis, dkey)
	if err != nil {
		return err
	}
	if seen {
		return nil
	}

	var v orders.StatusView
	switch env.EventType {
	case orders.EventOrderCreated:
		p, err := kafkax.UnwrapPayload[orders.OrderCreatedPayload](env.Payload)
		if err != nil {
			return err
		}
		v = orders.StatusView{OrderID: p.OrderID, Status: p.Status, UpdatedAt: p.CreatedAt, Version: p.Version}
	case orders.EventOrderStatusChanged:
		p, err := kafkax.UnwrapPayload[orders.OrderStatusChangedPayload](env.Payload)
		if err != nil {
			return err
		}
		v = orders.StatusView(p)
	default:
		return nil
	}

	// Events arrive on separate topics in no fixed order; the versioned
	// cache drops anything older than what it holds.
	if err := s.Cache.Set(ctx, v); err != nil {
		return err
	}
	if _, err := redisx.MarkOnce(ctx, s.Redis, dkey, redisx.TTLDedup); err != nil {
		s.Log.Warn().Err(err).Str("event_id", env.EventID).Msg("dedup mark failed")
	}
	s.Log.Debug().Str("event_type", env.EventType).Int64("order_id", v.OrderID).Str("status", string(v.Status)).Int64("version", v.Version).Msg("status projected")
	return nil
}
