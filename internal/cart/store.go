package cart

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/ariefcatur/go-storefront/internal/redisx"
	"github.com/redis/go-redis/v9"
)

// Store persists one cart document per session in Redis so a cart survives
// page reloads. The owning session is the only writer; reads and writes go
// through Load/Save as a whole document.
type Store struct {
	Redis *redis.Client
}

func (s *Store) Load(ctx context.Context, userID string) (*Cart, error) {
	key := fmt.Sprintf(redisx.KeyCart, userID)
	raw, err := s.Redis.Get(ctx, key).Bytes()
	if err == redis.Nil {
		return New(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("load cart: %w", err)
	}

	var items []LineItem
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, fmt.Errorf("decode cart: %w", err)
	}
	return FromItems(items), nil
}

func (s *Store) Save(ctx context.Context, userID string, c *Cart) error {
	b, err := json.Marshal(c.Items())
	if err != nil {
		return fmt.Errorf("encode cart: %w", err)
	}
	key := fmt.Sprintf(redisx.KeyCart, userID)
	if err := s.Redis.Set(ctx, key, b, redisx.TTLCart).Err(); err != nil {
		return fmt.Errorf("save cart: %w", err)
	}
	return nil
}

func (s *Store) Delete(ctx context.Context, userID string) error {
	key := fmt.Sprintf(redisx.KeyCart, userID)
	if err := s.Redis.Del(ctx, key).Err(); err != nil {
		return fmt.Errorf("delete cart: %w", err)
	}
	return nil
}
