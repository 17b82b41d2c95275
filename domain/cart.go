package domain

import "time"

// CartLine is one catalog item held by the active session, with the quantity
// and optional percentage discount captured when it was added.
type CartLine struct {
	ID          string `json:"id" bson:"id"`
	Name        string `json:"name" bson:"name"`
	Price       int64  `json:"price" bson:"price"`
	DiscountPct int    `json:"discount,omitempty" bson:"discount,omitempty"`
	Quantity    int    `json:"quantity" bson:"quantity"`
	Image       string `json:"image,omitempty" bson:"image,omitempty"`
}

// Cart is the persisted shape of a user's cart.
type Cart struct {
	UserID    string     `json:"user_id" bson:"user_id"`
	Lines     []CartLine `json:"lines" bson:"lines"`
	CreatedAt time.Time  `json:"created_at" bson:"created_at"`
	UpdatedAt time.Time  `json:"updated_at" bson:"updated_at"`
}

// Totals is derived from a cart on every read, never stored.
// Total == Subtotal + Tax + DeliveryFee always holds.
type Totals struct {
	Subtotal    int64 `json:"subtotal"`
	Tax         int64 `json:"tax"`
	DeliveryFee int64 `json:"delivery_fee"`
	Total       int64 `json:"total"`
}
