package cartstore

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/bellybee/checkout/domain"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// setupTestRedis creates a miniredis server and returns a RedisCache instance
func setupTestRedis(t *testing.T) (*RedisCache, *miniredis.Miniredis, func()) {
	mr := miniredis.RunT(t)

	client := redis.NewClient(&redis.Options{
		Addr: mr.Addr(),
	})

	cache := NewRedisCache(client)

	cleanup := func() {
		client.Close()
		mr.Close()
	}

	return cache, mr, cleanup
}

func TestCacheGet_Success(t *testing.T) {
	cache, mr, cleanup := setupTestRedis(t)
	defer cleanup()

	ctx := context.Background()
	userID := "user123"

	cart := &domain.Cart{
		UserID: userID,
		Lines: []domain.CartLine{
			{ID: "p1", Name: "Margherita", Price: 249, Quantity: 2},
			{ID: "p2", Name: "Garlic Bread", Price: 99, DiscountPct: 10, Quantity: 1},
		},
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}

	cartJSON, _ := json.Marshal(cart)
	mr.Set(cacheKey(userID), string(cartJSON))

	result, err := cache.Get(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, userID, result.UserID)
	assert.Len(t, result.Lines, 2)
	assert.Equal(t, int64(249), result.Lines[0].Price)
}

func TestCacheGet_CacheMiss(t *testing.T) {
	cache, _, cleanup := setupTestRedis(t)
	defer cleanup()

	_, err := cache.Get(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrCacheMiss)
}

func TestCacheSet_ThenGet(t *testing.T) {
	cache, mr, cleanup := setupTestRedis(t)
	defer cleanup()

	ctx := context.Background()
	cart := &domain.Cart{
		UserID: "user123",
		Lines:  []domain.CartLine{{ID: "p1", Name: "Margherita", Price: 249, Quantity: 1}},
	}

	require.NoError(t, cache.Set(ctx, "user123", cart))
	assert.True(t, mr.Exists(cacheKey("user123")))

	got, err := cache.Get(ctx, "user123")
	require.NoError(t, err)
	assert.Equal(t, cart.Lines, got.Lines)
}

func TestCacheDelete(t *testing.T) {
	cache, mr, cleanup := setupTestRedis(t)
	defer cleanup()

	ctx := context.Background()
	mr.Set(cacheKey("user123"), "{}")

	require.NoError(t, cache.Delete(ctx, "user123"))
	assert.False(t, mr.Exists(cacheKey("user123")))
}
