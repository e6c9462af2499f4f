package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"storefront/models"
)

const (
	defaultTTL = 15 * time.Minute
	keyPrefix  = "cart:"
)

// RedisCache stores carts as JSON under cart:<user id>.
type RedisCache struct {
	rdb redis.Cmdable
	ttl time.Duration
}

// NewRedisCache returns a cache whose entries live for ttl plus jitter.
// A non-positive ttl uses the default of fifteen minutes.
func NewRedisCache(rdb redis.Cmdable, ttl time.Duration) *RedisCache {
	if ttl <= 0 {
		ttl = defaultTTL
	}
	return &RedisCache{rdb: rdb, ttl: ttl}
}

func (r *RedisCache) Get(ctx context.Context, userID primitive.ObjectID) (*models.Cart, error) {
	raw, err := r.rdb.Get(ctx, cacheKey(userID)).Bytes()
	switch {
	case errors.Is(err, redis.Nil):
		return nil, ErrCacheMiss
	case err != nil:
		return nil, fmt.Errorf("cart cache get: %w", err)
	}

	cart := new(models.Cart)
	if err := json.Unmarshal(raw, cart); err != nil {
		return nil, fmt.Errorf("cart cache decode: %w", err)
	}
	return cart, nil
}

// Set writes cart with an expiry spread over [ttl, ttl+ttl/4] so entries
// filled together do not expire together.
func (r *RedisCache) Set(ctx context.Context, userID primitive.ObjectID, cart *models.Cart) error {
	raw, err := json.Marshal(cart)
	if err != nil {
		return fmt.Errorf("cart cache encode: %w", err)
	}
	if err := r.rdb.Set(ctx, cacheKey(userID), raw, r.expiry()).Err(); err != nil {
		return fmt.Errorf("cart cache set: %w", err)
	}
	return nil
}

func (r *RedisCache) Delete(ctx context.Context, userID primitive.ObjectID) error {
	if err := r.rdb.Del(ctx, cacheKey(userID)).Err(); err != nil {
		return fmt.Errorf("cart cache delete: %w", err)
	}
	return nil
}

func (r *RedisCache) expiry() time.Duration {
	return r.ttl + rand.N(r.ttl/4+1)
}

func cacheKey(userID primitive.ObjectID) string {
	return keyPrefix + userID.Hex()
}
