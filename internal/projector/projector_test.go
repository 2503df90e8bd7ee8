package projector

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	kafkax "github.com/ariefcatur/go-storefront/internal/kafka"
	"github.com/ariefcatur/go-storefront/internal/orders"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	kafkago "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setup(t *testing.T) (*Service, *orders.RedisStatusCache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	cache := &orders.RedisStatusCache{R: rdb}
	return &Service{Cache: cache, Redis: rdb, Name: "projector", Log: zerolog.Nop()}, cache, mr
}

func message(env kafkax.Envelope) kafkago.Message {
	return kafkago.Message{Topic: orders.TopicOrderStatusChanged, Value: kafkax.MustMarshal(env)}
}

func TestProjectsCreatedThenStatusChanged(t *testing.T) {
	svc, cache, _ := setup(t)
	ctx := context.Background()

	created := kafkax.NewEnvelope(orders.EventOrderCreated, "api", "", "5", orders.OrderCreatedPayload{
		OrderID: 5, Status: orders.StatusPending, CreatedAt: "2025-01-02 10:00:00", Version: orders.InitialVersion,
	})
	require.NoError(t, svc.Handle(ctx, message(created)))
	v, ok := cache.Get(ctx, 5)
	require.True(t, ok)
	assert.Equal(t, orders.StatusPending, v.Status)

	changed := kafkax.NewEnvelope(orders.EventOrderStatusChanged, "api", "", "5", orders.OrderStatusChangedPayload{
		OrderID: 5, Status: "shipped", UpdatedAt: "2025-01-02 11:00:00", Version: 2,
	})
	require.NoError(t, svc.Handle(ctx, message(changed)))
	v, _ = cache.Get(ctx, 5)
	assert.Equal(t, orders.Status("shipped"), v.Status)
}

func TestStaleEventDoesNotOverwrite(t *testing.T) {
	svc, cache, _ := setup(t)
	ctx := context.Background()
	require.NoError(t, cache.Set(ctx, orders.StatusView{OrderID: 9, Status: "delivered", UpdatedAt: "2025-01-03 09:00:00", Version: 4}))

	old := kafkax.NewEnvelope(orders.EventOrderStatusChanged, "api", "", "9", orders.OrderStatusChangedPayload{
		OrderID: 9, Status: "shipped", UpdatedAt: "2025-01-02 09:00:00", Version: 3,
	})
	require.NoError(t, svc.Handle(ctx, message(old)))
	v, _ := cache.Get(ctx, 9)
	assert.Equal(t, orders.Status("delivered"), v.Status)
}

func TestLateCreatedInSameSecondKeepsChange(t *testing.T) {
	svc, cache, _ := setup(t)
	ctx := context.Background()

	changed := kafkax.NewEnvelope(orders.EventOrderStatusChanged, "api", "", "6", orders.OrderStatusChangedPayload{
		OrderID: 6, Status: "shipped", UpdatedAt: "2025-01-02 10:00:00", Version: 2,
	})
	created := kafkax.NewEnvelope(orders.EventOrderCreated, "api", "", "6", orders.OrderCreatedPayload{
		OrderID: 6, Status: orders.StatusPending, CreatedAt: "2025-01-02 10:00:00", Version: orders.InitialVersion,
	})
	require.NoError(t, svc.Handle(ctx, message(changed)))
	require.NoError(t, svc.Handle(ctx, message(created)))

	v, ok := cache.Get(ctx, 6)
	require.True(t, ok)
	assert.Equal(t, orders.Status("shipped"), v.Status)
	assert.Equal(t, int64(2), v.Version)
}

func TestSameSecondChangesFollowVersion(t *testing.T) {
	svc, cache, _ := setup(t)
	ctx := context.Background()

	shipped := kafkax.NewEnvelope(orders.EventOrderStatusChanged, "api", "", "7", orders.OrderStatusChangedPayload{
		OrderID: 7, Status: "shipped", UpdatedAt: "2025-01-02 10:00:00", Version: 3,
	})
	packed := kafkax.NewEnvelope(orders.EventOrderStatusChanged, "api", "", "7", orders.OrderStatusChangedPayload{
		OrderID: 7, Status: "packed", UpdatedAt: "2025-01-02 10:00:00", Version: 2,
	})
	require.NoError(t, svc.Handle(ctx, message(shipped)))
	require.NoError(t, svc.Handle(ctx, message(packed)))

	v, _ := cache.Get(ctx, 7)
	assert.Equal(t, orders.Status("shipped"), v.Status)
}

func TestDuplicateEventIsSkipped(t *testing.T) {
	svc, cache, mr := setup(t)
	ctx := context.Background()

	env := kafkax.NewEnvelope(orders.EventOrderStatusChanged, "api", "", "3", orders.OrderStatusChangedPayload{
		OrderID: 3, Status: "packed", UpdatedAt: "2025-01-02 09:00:00", Version: 2,
	})
	require.NoError(t, svc.Handle(ctx, message(env)))
	assert.True(t, mr.Exists("dedup:projector:"+env.EventID))

	// a redelivery after the entry was evicted must not restore "packed"
	require.NoError(t, cache.Invalidate(ctx, 3))
	require.NoError(t, svc.Handle(ctx, message(env)))
	_, ok := cache.Get(ctx, 3)
	assert.False(t, ok)
}

func TestIgnoresForeignAndBrokenMessages(t *testing.T) {
	svc, _, mr := setup(t)
	ctx := context.Background()

	require.NoError(t, svc.Handle(ctx, kafkago.Message{Value: []byte("not json")}))

	other := kafkax.NewEnvelope("FeedbackSubmitted", "api", "", "1", map[string]int{"order_id": 1})
	require.NoError(t, svc.Handle(ctx, message(other)))
	assert.Empty(t, mr.Keys())
}

func TestRedisDownLeavesMessageUncommitted(t *testing.T) {
	svc, _, mr := setup(t)
	mr.Close()
	env := kafkax.NewEnvelope(orders.EventOrderCreated, "api", "", "1", orders.OrderCreatedPayload{OrderID: 1})
	assert.Error(t, svc.Handle(context.Background(), message(env)))
}
