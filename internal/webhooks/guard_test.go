package webhooks

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memoryStore struct {
	mu   sync.Mutex
	keys map[string]string
}

func newMemoryStore() *memoryStore {
	return &memoryStore{keys: map[string]string{}}
}

func (m *memoryStore) Get(_ context.Context, key string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.keys[key], nil
}

func (m *memoryStore) SetNX(_ context.Context, key string, value any, _ time.Duration) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.keys[key]; exists {
		return false, nil
	}
	m.keys[key] = "1"
	return true, nil
}

func (m *memoryStore) IdempotencyKey(scope, id string) string {
	return "test:idempotency:" + scope + ":" + id
}

func (m *memoryStore) Del(_ context.Context, keys ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, key := range keys {
		delete(m.keys, key)
	}
	return nil
}

func TestGuardMarksFirstDeliveryOnly(t *testing.T) {
	guard, err := NewIdempotencyGuard(newMemoryStore(), time.Hour, "mpesa")
	require.NoError(t, err)
	ctx := context.Background()

	seen, err := guard.CheckAndMark(ctx, "ws_CO_1")
	require.NoError(t, err)
	assert.False(t, seen)

	seen, err = guard.CheckAndMark(ctx, "ws_CO_1")
	require.NoError(t, err)
	assert.True(t, seen)

	seen, err = guard.CheckAndMark(ctx, "ws_CO_2")
	require.NoError(t, err)
	assert.False(t, seen)
}

func TestGuardDeleteAllowsReprocessing(t *testing.T) {
	guard, err := NewIdempotencyGuard(newMemoryStore(), time.Hour, "mpesa")
	require.NoError(t, err)
	ctx := context.Background()

	_, err = guard.CheckAndMark(ctx, "ws_CO_1")
	require.NoError(t, err)
	require.NoError(t, guard.Delete(ctx, "ws_CO_1"))

	seen, err := guard.CheckAndMark(ctx, "ws_CO_1")
	require.NoError(t, err)
	assert.False(t, seen)
}

func TestGuardConstructorValidation(t *testing.T) {
	_, err := NewIdempotencyGuard(nil, time.Hour, "mpesa")
	assert.Error(t, err)

	_, err = NewIdempotencyGuard(newMemoryStore(), -time.Second, "mpesa")
	assert.Error(t, err)

	_, err = NewIdempotencyGuard(newMemoryStore(), time.Hour, "")
	assert.Error(t, err)
}
