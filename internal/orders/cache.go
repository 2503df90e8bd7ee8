package orders

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/ariefcatur/go-storefront/internal/redisx"
	"github.com/redis/go-redis/v9"
)

const maxCacheAttempts = 8

// RedisStatusCache keeps the last known status of an order. The database
// stays the source of truth; every method is best effort.
type RedisStatusCache struct{ R redis.UniversalClient }

func statusKey(id int64) string { return fmt.Sprintf(redisx.KeyOrderStatus, id) }

func (c *RedisStatusCache) Get(ctx context.Context, id int64) (StatusView, bool) {
	s, err := c.R.Get(ctx, statusKey(id)).Result()
	if err != nil || s == "" {
		return StatusView{}, false
	}
	var v StatusView
	if err := json.Unmarshal([]byte(s), &v); err != nil {
		return StatusView{}, false
	}
	return v, true
}

// Set writes v unless the cache already holds the same or a newer version,
// so late or replayed writers never move a status backwards.
func (c *RedisStatusCache) Set(ctx context.Context, v StatusView) error {
	key := statusKey(v.OrderID)
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	txf := func(tx *redis.Tx) error {
		raw, err := tx.Get(ctx, key).Bytes()
		if err != nil && !errors.Is(err, redis.Nil) {
			return err
		}
		if err == nil {
			var cur StatusView
			if json.Unmarshal(raw, &cur) == nil && cur.Version >= v.Version {
				return nil
			}
		}
		_, err = tx.TxPipelined(ctx, func(p redis.Pipeliner) error {
			p.Set(ctx, key, b, redisx.TTLStatusCache)
			return nil
		})
		return err
	}
	for i := 0; i < maxCacheAttempts; i++ {
		err = c.R.Watch(ctx, txf, key)
		if !errors.Is(err, redis.TxFailedErr) {
			return err
		}
	}
	return err
}

func (c *RedisStatusCache) Invalidate(ctx context.Context, id int64) error {
	return c.R.Del(ctx, statusKey(id)).Err()
}
