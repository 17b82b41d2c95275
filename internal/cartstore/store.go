package cartstore

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/bellybee/checkout/domain"
	"golang.org/x/sync/singleflight"
)

// Store is the cart persistence contract the checkout session works against:
// read at session start, write after every mutation, delete at finalization.
type Store struct {
	repo  CartRepository
	cache CartCache
	sfg   singleflight.Group // prevents cache stampede on concurrent reads
}

func NewStore(repo CartRepository, cache CartCache) *Store {
	return &Store{repo: repo, cache: cache}
}

// Get returns the user's cart, or an empty cart when none is stored yet.
func (s *Store) Get(ctx context.Context, userID string) (*domain.Cart, error) {
	v, err, _ := s.sfg.Do(userID, func() (interface{}, error) {
		cart, err := s.cache.Get(ctx, userID)
		if err == nil {
			return cart, nil
		}
		if !errors.Is(err, ErrCacheMiss) {
			log.Printf("cart cache get error: %v", err) // degrade to the repo
		}

		cart, err = s.repo.GetCart(ctx, userID)
		if errors.Is(err, ErrCartNotFound) {
			return &domain.Cart{
				UserID:    userID,
				CreatedAt: time.Now(),
				UpdatedAt: time.Now(),
			}, nil
		}
		if err != nil {
			return nil, err
		}

		go func() {
			if err := s.cache.Set(context.Background(), userID, cart); err != nil {
				log.Printf("cart cache set error: %v", err)
			}
		}()

		return cart, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*domain.Cart), nil
}

// Save replaces the entire stored cart for the user.
func (s *Store) Save(ctx context.Context, cart *domain.Cart) error {
	if err := s.repo.UpsertCart(ctx, cart); err != nil {
		log.Printf("cart upsert error: %v", err)
		return err
	}
	s.invalidate(cart.UserID)
	return nil
}

// Clear deletes the stored cart. Called once, at order finalization.
func (s *Store) Clear(ctx context.Context, userID string) error {
	if err := s.repo.DeleteCart(ctx, userID); err != nil {
		log.Printf("cart delete error: %v", err)
		return err
	}
	s.invalidate(userID)
	return nil
}

func (s *Store) invalidate(userID string) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := s.cache.Delete(ctx, userID); err != nil {
		log.Printf("cart cache invalidate error: %v", err)
	}
}
