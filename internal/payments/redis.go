package payments

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand"
	"time"

	"github.com/LeeCheeHoong/PetCare-Portal/internal/domain"
	"github.com/redis/go-redis/v9"
)

const cacheKey = "payment-methods"

// NewRedisCache caches the saved-instrument list for ten minutes, matching
// the staleness window the storefront tolerates for this data.
func NewRedisCache(client *redis.Client) *RedisCache {
	return &RedisCache{
		client:  client,
		baseTTL: 10 * time.Minute,
	}
}

type RedisCache struct {
	client  *redis.Client
	baseTTL time.Duration
}

func (r RedisCache) Get(ctx context.Context) ([]domain.PaymentMethod, error) {
	data, err := r.client.Get(ctx, cacheKey).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrCacheMiss
	}
	if err != nil {
		return nil, fmt.Errorf("redis get failed: %w", err)
	}

	var methods []domain.PaymentMethod
	if err2 := json.Unmarshal(data, &methods); err2 != nil {
		return nil, fmt.Errorf("unmarshal payment methods failed: %w", err2)
	}
	return methods, nil
}

func (r RedisCache) Set(ctx context.Context, methods []domain.PaymentMethod) error {
	data, err := json.Marshal(methods)
	if err != nil {
		return fmt.Errorf("marshal payment methods failed: %w", err)
	}

	// Jitter spreads expiry so a burst of sessions does not refetch at once.
	jitter := time.Duration(rand.Intn(60)) * time.Second
	if err := r.client.Set(ctx, cacheKey, data, r.baseTTL+jitter).Err(); err != nil {
		return fmt.Errorf("redis set failed: %w", err)
	}
	return nil
}

func (r RedisCache) Delete(ctx context.Context) error {
	if err := r.client.Del(ctx, cacheKey).Err(); err != nil {
		return fmt.Errorf("redis delete failed: %w", err)
	}
	return nil
}
