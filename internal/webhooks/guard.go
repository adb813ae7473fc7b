package webhooks

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sokohub/sokohub-backend/pkg/redis"
)

// IdempotencyGuard pre-filters repeat callback deliveries with a Redis SetNX.
// It is only an optimization; the database status check remains the source of
// truth, so a lost Redis key costs nothing but a no-op transaction.
type IdempotencyGuard struct {
	store redis.IdempotencyStore
	ttl   time.Duration
	scope string
}

func NewIdempotencyGuard(store redis.IdempotencyStore, ttl time.Duration, scope string) (*IdempotencyGuard, error) {
	if store == nil {
		return nil, errors.New("idempotency store is required")
	}
	if ttl < 0 {
		return nil, errors.New("ttl must be non-negative")
	}
	if scope == "" {
		return nil, errors.New("scope is required")
	}
	return &IdempotencyGuard{store: store, ttl: ttl, scope: scope}, nil
}

// CheckAndMark records the checkout request id and reports whether it was
// already seen.
func (g *IdempotencyGuard) CheckAndMark(ctx context.Context, checkoutRequestID string) (bool, error) {
	if checkoutRequestID == "" {
		return false, errors.New("checkout request id is required")
	}
	key := g.store.IdempotencyKey(g.scope, checkoutRequestID)
	set, err := g.store.SetNX(ctx, key, "1", g.ttl)
	if err != nil {
		return false, fmt.Errorf("set idempotency key: %w", err)
	}
	return !set, nil
}

// Delete releases the mark so the provider's retry can be reprocessed after a
// handler failure.
func (g *IdempotencyGuard) Delete(ctx context.Context, checkoutRequestID string) error {
	if checkoutRequestID == "" {
		return errors.New("checkout request id is required")
	}
	key := g.store.IdempotencyKey(g.scope, checkoutRequestID)
	return g.store.Del(ctx, key)
}
