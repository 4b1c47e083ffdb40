package cart

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Store persists carts in Redis keyed by terminal id so an in-progress
// transaction survives a register restart. The JSON round-trip must
// reproduce identical derived totals; Cart holds only whole-rupiah integers
// so this is exact.
type Store struct {
	R   *redis.Client
	TTL time.Duration
}

func (s *Store) ttl() time.Duration {
	if s == nil || s.TTL <= 0 {
		return 30 * 24 * time.Hour
	}
	return s.TTL
}

func cartKey(terminalID string) string {
	return "pos:cart:" + terminalID
}

// Load returns the terminal's cart, or an empty cart when none is stored.
func (s *Store) Load(ctx context.Context, terminalID string) (*Cart, error) {
	if s == nil || s.R == nil {
		return New(), nil
	}
	data, err := s.R.Get(ctx, cartKey(terminalID)).Bytes()
	if err != nil {
		if err == redis.Nil {
			return New(), nil
		}
		return nil, fmt.Errorf("load cart: %w", err)
	}
	var c Cart
	if err := json.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("load cart: decode: %w", err)
	}
	return &c, nil
}

// Save writes the cart and refreshes its TTL.
func (s *Store) Save(ctx context.Context, terminalID string, c *Cart) error {
	if s == nil || s.R == nil {
		return nil
	}
	data, err := json.Marshal(c)
	if err != nil {
		return fmt.Errorf("save cart: encode: %w", err)
	}
	if err := s.R.Set(ctx, cartKey(terminalID), data, s.ttl()).Err(); err != nil {
		return fmt.Errorf("save cart: %w", err)
	}
	return nil
}

// Delete removes the terminal's stored cart.
func (s *Store) Delete(ctx context.Context, terminalID string) error {
	if s == nil || s.R == nil {
		return nil
	}
	if err := s.R.Del(ctx, cartKey(terminalID)).Err(); err != nil {
		return fmt.Errorf("delete cart: %w", err)
	}
	return nil
}
