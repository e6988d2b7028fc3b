// Package payments supplies the saved payment instruments for checkout,
// reading through a short-lived cache in front of the backing source.
package payments

import (
	"context"
	"errors"
	"log"

	"github.com/LeeCheeHoong/PetCare-Portal/internal/domain"
	"github.com/LeeCheeHoong/PetCare-Portal/internal/gateway"
	"golang.org/x/sync/singleflight"
)

// Registry implements gateway.PaymentMethodSource with caching. A nil cache
// disables caching and reads straight through.
type Registry struct {
	source gateway.PaymentMethodSource
	cache  MethodCache
	sfg    singleflight.Group // prevents a miss stampede on the source
}

func NewRegistry(source gateway.PaymentMethodSource, cache MethodCache) *Registry {
	return &Registry{
		source: source,
		cache:  cache,
	}
}

func (r *Registry) ListPaymentMethods(ctx context.Context) ([]domain.PaymentMethod, error) {
	if r.cache == nil {
		return r.source.ListPaymentMethods(ctx)
	}

	v, err, _ := r.sfg.Do(cacheKey, func() (interface{}, error) {
		methods, err := r.cache.Get(ctx)
		if err == nil {
			return methods, nil
		}
		if !errors.Is(err, ErrCacheMiss) {
			log.Printf("payment methods cache get error: %v", err)
		}

		methods, err = r.source.ListPaymentMethods(ctx)
		if err != nil {
			return nil, err
		}

		go func() {
			if errSet := r.cache.Set(context.Background(), methods); errSet != nil {
				log.Printf("payment methods cache set error: %v", errSet)
			}
		}()

		return methods, nil
	})
	if err != nil {
		return nil, err
	}
	return v.([]domain.PaymentMethod), nil
}

// Invalidate drops the cached list, e.g. after the user saves a new
// instrument elsewhere.
func (r *Registry) Invalidate(ctx context.Context) error {
	if r.cache == nil {
		return nil
	}
	return r.cache.Delete(ctx)
}
