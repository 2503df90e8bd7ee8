package cart

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/ariefcatur/go-storefront/internal/apperr"
	"github.com/ariefcatur/go-storefront/internal/redisx"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// maxUpdateAttempts bounds optimistic retries on a contended cart. An attempt
// only fails when another writer committed in between.
const maxUpdateAttempts = 64

// NewID returns a fresh cart id.
func NewID() string { return uuid.NewString() }

// RedisStore keeps each cart as one JSON value under cart:{id}. An empty cart
// deletes the key. Updates run under WATCH so concurrent writers never lose
// each other's changes.
type RedisStore struct{ R redis.UniversalClient }

func cartKey(id string) string { return fmt.Sprintf(redisx.KeyCart, id) }

func decodeCart(raw []byte, err error) ([]Item, error) {
	if errors.Is(err, redis.Nil) {
		return []Item{}, nil
	}
	if err != nil {
		return nil, apperr.Store(fmt.Errorf("load cart: %w", err))
	}
	var items []Item
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, apperr.Store(fmt.Errorf("decode cart: %w", err))
	}
	return items, nil
}

func (s *RedisStore) Load(ctx context.Context, cartID string) ([]Item, error) {
	return decodeCart(s.R.Get(ctx, cartKey(cartID)).Bytes())
}

func (s *RedisStore) Update(ctx context.Context, cartID string, fn Mutation) ([]Item, bool, error) {
	key := cartKey(cartID)
	var (
		next    []Item
		changed bool
	)
	txf := func(tx *redis.Tx) error {
		cur, err := decodeCart(tx.Get(ctx, key).Bytes())
		if err != nil {
			return err
		}
		next, changed = fn(cur)
		if !changed {
			return nil
		}
		var payload []byte
		if len(next) > 0 {
			if payload, err = json.Marshal(next); err != nil {
				return fmt.Errorf("encode cart: %w", err)
			}
		}
		_, err = tx.TxPipelined(ctx, func(p redis.Pipeliner) error {
			if len(next) == 0 {
				p.Del(ctx, key)
			} else {
				p.Set(ctx, key, payload, redisx.TTLCart)
			}
			return nil
		})
		return err
	}

	for i := 0; i < maxUpdateAttempts; i++ {
		err := s.R.Watch(ctx, txf, key)
		if err == nil {
			return next, changed, nil
		}
		if !errors.Is(err, redis.TxFailedErr) {
			return nil, false, apperr.Store(fmt.Errorf("update cart: %w", err))
		}
	}
	return nil, false, apperr.Store(fmt.Errorf("update cart %s: gave up after %d attempts", cartID, maxUpdateAttempts))
}

type MemoryStore struct {
	mu    sync.Mutex
	carts map[string][]Item
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{carts: make(map[string][]Item)}
}

func (s *MemoryStore) Load(_ context.Context, cartID string) ([]Item, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Item{}, s.carts[cartID]...), nil
}

func (s *MemoryStore) Update(_ context.Context, cartID string, fn Mutation) ([]Item, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	next, changed := fn(append([]Item{}, s.carts[cartID]...))
	if !changed {
		return next, false, nil
	}
	if len(next) == 0 {
		delete(s.carts, cartID)
	} else {
		s.carts[cartID] = append([]Item(nil), next...)
	}
	return next, true, nil
}
