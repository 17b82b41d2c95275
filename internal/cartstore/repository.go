// Package cartstore persists the session cart: a Mongo-backed repository
// fronted by a Redis read-through cache.
package cartstore

import (
	"context"
	"errors"

	"github.com/bellybee/checkout/domain"
)

var ErrCartNotFound = errors.New("cart not found")

// CartRepository is the durable store for carts, keyed by user id.
type CartRepository interface {
	GetCart(ctx context.Context, userID string) (*domain.Cart, error)
	UpsertCart(ctx context.Context, cart *domain.Cart) error
	DeleteCart(ctx context.Context, userID string) error
}
