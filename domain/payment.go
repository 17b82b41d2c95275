package domain

import "fmt"

// PaymentMethod is the closed set of ways an order can be paid for.
type PaymentMethod string

const (
	MethodCOD            PaymentMethod = "COD"
	MethodHostedCheckout PaymentMethod = "HOSTED_CHECKOUT"
	MethodDeepLinkA      PaymentMethod = "DEEPLINK_A"
	MethodDeepLinkB      PaymentMethod = "DEEPLINK_B"
)

// ParsePaymentMethod maps a wire value onto the closed method set.
func ParsePaymentMethod(s string) (PaymentMethod, error) {
	switch PaymentMethod(s) {
	case MethodCOD, MethodHostedCheckout, MethodDeepLinkA, MethodDeepLinkB:
		return PaymentMethod(s), nil
	default:
		return "", fmt.Errorf("unknown payment method %q", s)
	}
}

// IsDeepLink reports whether the method pays through an external app URI.
func (m PaymentMethod) IsDeepLink() bool {
	return m == MethodDeepLinkA || m == MethodDeepLinkB
}

func (m PaymentMethod) String() string {
	return string(m)
}
