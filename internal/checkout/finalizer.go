// Package checkout coordinates cart state, location, payment and order
// finalization for one user session.
package checkout

import (
	"context"
	"fmt"
	"log"
	"math/rand"
	"time"

	"github.com/bellybee/checkout/domain"
)

// CartClearer deletes the persisted cart. Satisfied by *cartstore.Store.
type CartClearer interface {
	Clear(ctx context.Context, userID string) error
}

// OrderSink persists finalized order records. Satisfied by *orders.Repository.
type OrderSink interface {
	SaveOrder(ctx context.Context, userID string, order *domain.Order) error
}

// EventPublisher announces finalized orders to downstream consumers.
type EventPublisher interface {
	PublishOrderCompleted(ctx context.Context, userID string, order *domain.Order) error
}

// Finalizer mints the order record and clears the cart. Clearing the cart is
// the finalizer's externally visible effect; persisting and publishing are
// best-effort and never block the confirmation.
type Finalizer struct {
	carts  CartClearer
	sink   OrderSink      // optional
	events EventPublisher // optional
	newID  func() string
}

func NewFinalizer(carts CartClearer, sink OrderSink, events EventPublisher) *Finalizer {
	return &Finalizer{
		carts:  carts,
		sink:   sink,
		events: events,
		newID:  newOrderID,
	}
}

// newOrderID is a fixed prefix plus six random digits. Uniqueness is
// best-effort; at scale this should be a server-issued identifier.
func newOrderID() string {
	return fmt.Sprintf("BB%d", 100000+rand.Intn(900000))
}

// Finalize mints the order, clears the persisted cart and returns the order
// with its human-readable confirmation. Must be called at most once per
// successful payment attempt.
func (f *Finalizer) Finalize(ctx context.Context, userID string, method domain.PaymentMethod, total int64, paymentRef string) (*domain.Order, string, error) {
	order := &domain.Order{
		OrderID:    f.newID(),
		Method:     method,
		PaymentRef: paymentRef,
		Total:      total,
		CreatedAt:  time.Now().UTC(),
	}

	if err := f.carts.Clear(ctx, userID); err != nil {
		// The payment already went through; the order stands. A stale cart
		// is recoverable, a lost paid order is not.
		log.Printf("order %s: failed to clear cart for user %s: %v", order.OrderID, userID, err)
	}

	if f.sink != nil {
		if err := f.sink.SaveOrder(ctx, userID, order); err != nil {
			log.Printf("order %s: failed to persist: %v", order.OrderID, err)
		}
	}
	if f.events != nil {
		if err := f.events.PublishOrderCompleted(ctx, userID, order); err != nil {
			log.Printf("order %s: failed to publish event: %v", order.OrderID, err)
		}
	}

	return order, confirmation(order), nil
}

func confirmation(o *domain.Order) string {
	msg := fmt.Sprintf("Order placed: %s\nMethod: %s", o.OrderID, o.Method)
	if o.PaymentRef != "" {
		msg += fmt.Sprintf("\nRef: %s", o.PaymentRef)
	}
	msg += fmt.Sprintf("\nTotal: ₹%d", o.Total)
	return msg
}
