package domain

import "time"

// Order is the immutable record minted when a payment attempt succeeds.
// Its creation is the single side effect that clears the persisted cart.
type Order struct {
	OrderID    string        `json:"order_id"`
	Method     PaymentMethod `json:"method"`
	PaymentRef string        `json:"payment_ref,omitempty"`
	Total      int64         `json:"total"`
	CreatedAt  time.Time     `json:"created_at"`
}
