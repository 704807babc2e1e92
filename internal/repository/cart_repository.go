package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"catalog-api/internal/domain"

	"github.com/redis/go-redis/v9"
)

const cartKeyPrefix = "cart"

// CartRepository defines the interface for per-user cart storage
type CartRepository interface {
	// Get returns the stored cart, or an empty cart when none exists
	Get(ctx context.Context, userID string) ([]domain.CartItem, error)
	Save(ctx context.Context, userID string, items []domain.CartItem) error
	Clear(ctx context.Context, userID string) error
}

type cartRepository struct {
	redis *redis.Client
	ttl   time.Duration
}

// NewCartRepository creates a Redis-backed CartRepository. A zero ttl keeps
// carts until they are cleared.
func NewCartRepository(redisClient *redis.Client, ttl time.Duration) CartRepository {
	return &cartRepository{redis: redisClient, ttl: ttl}
}

func (r *cartRepository) Get(ctx context.Context, userID string) ([]domain.CartItem, error) {
	data, err := r.redis.Get(ctx, cartKey(userID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return []domain.CartItem{}, nil
		}
		return nil, fmt.Errorf("failed to load cart: %w", err)
	}

	items := []domain.CartItem{}
	if err := json.Unmarshal(data, &items); err != nil {
		return nil, fmt.Errorf("failed to decode cart: %w", err)
	}
	return items, nil
}

func (r *cartRepository) Save(ctx context.Context, userID string, items []domain.CartItem) error {
	if items == nil {
		items = []domain.CartItem{}
	}
	data, err := json.Marshal(items)
	if err != nil {
		return fmt.Errorf("failed to encode cart: %w", err)
	}

	if err := r.redis.Set(ctx, cartKey(userID), data, r.ttl).Err(); err != nil {
		return fmt.Errorf("failed to save cart: %w", err)
	}
	return nil
}

func (r *cartRepository) Clear(ctx context.Context, userID string) error {
	if err := r.redis.Del(ctx, cartKey(userID)).Err(); err != nil {
		return fmt.Errorf("failed to clear cart: %w", err)
	}
	return nil
}

func cartKey(userID string) string {
	return fmt.Sprintf("%s:%s", cartKeyPrefix, userID)
}
