// Package pricing derives cart totals. All functions are pure and use the same
// half-up integer rounding, so the amount shown in the cart summary and the
// amount handed to a payment integration can never diverge.
package pricing

import (
	"strings"

	"github.com/bellybee/checkout/domain"
)

const (
	// FreeDeliveryThreshold is the subtotal at which delivery becomes free (inclusive).
	FreeDeliveryThreshold = 499
	// FlatDeliveryFee applies to every non-empty cart under the threshold.
	FlatDeliveryFee = 35
	// taxPct is charged on the discounted subtotal.
	taxPct = 5
)

// DiscountedUnitPrice returns the unit price after the percentage discount,
// rounded half-up to the nearest currency unit. A zero discount leaves the
// price untouched.
func DiscountedUnitPrice(price int64, discountPct int) int64 {
	if discountPct == 0 {
		return price
	}
	return roundPct(price, 100-int64(discountPct))
}

// Subtotal sums discounted unit prices times quantity over all lines.
func Subtotal(lines []domain.CartLine) int64 {
	var sum int64
	for _, l := range lines {
		sum += DiscountedUnitPrice(l.Price, l.DiscountPct) * int64(l.Quantity)
	}
	return sum
}

// DeliveryFee is zero for an empty cart or when the subtotal reaches the free
// threshold, otherwise the flat fee.
func DeliveryFee(lines []domain.CartLine) int64 {
	if len(lines) == 0 {
		return 0
	}
	if Subtotal(lines) >= FreeDeliveryThreshold {
		return 0
	}
	return FlatDeliveryFee
}

// Tax is 5% of the subtotal, rounded half-up. Zero for an empty cart.
func Tax(lines []domain.CartLine) int64 {
	if len(lines) == 0 {
		return 0
	}
	return roundPct(Subtotal(lines), taxPct)
}

// Total is subtotal + tax + delivery fee. Zero for an empty cart.
func Total(lines []domain.CartLine) int64 {
	if len(lines) == 0 {
		return 0
	}
	return Subtotal(lines) + Tax(lines) + DeliveryFee(lines)
}

// Derive computes all four figures in one pass for display.
func Derive(lines []domain.CartLine) domain.Totals {
	return domain.Totals{
		Subtotal:    Subtotal(lines),
		Tax:         Tax(lines),
		DeliveryFee: DeliveryFee(lines),
		Total:       Total(lines),
	}
}

// roundPct computes value*pct/100 rounded half-up, in integer arithmetic.
func roundPct(value, pct int64) int64 {
	return (value*pct + 50) / 100
}

const (
	promoCode        = "FLAT50"
	promoMinSubtotal = 399
)

// CheckPromo reports whether the given promo code applies at the current
// subtotal. The discount itself is granted at payment time by the backend;
// this only answers applicability for the cart summary.
func CheckPromo(code string, subtotal int64) bool {
	return strings.EqualFold(strings.TrimSpace(code), promoCode) && subtotal >= promoMinSubtotal
}
