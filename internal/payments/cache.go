package payments

import (
	"context"
	"errors"

	"github.com/LeeCheeHoong/PetCare-Portal/internal/domain"
)

// MethodCache holds the saved-instrument list for a short staleness window.
type MethodCache interface {
	Get(ctx context.Context) ([]domain.PaymentMethod, error)
	Set(ctx context.Context, methods []domain.PaymentMethod) error
	Delete(ctx context.Context) error
}

var ErrCacheMiss = errors.New("cache miss")
