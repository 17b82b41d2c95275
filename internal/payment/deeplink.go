package payment

import (
	"context"
	"fmt"
	"log"
	"net/url"
	"time"
)

// ConfirmDelay is how long the orchestrator waits after handing off to the
// external payment app before asking the user whether the payment went
// through. The app gives no programmatic completion signal.
const ConfirmDelay = 4 * time.Second

// DeepLinkConfig identifies the payee for intent URIs.
type DeepLinkConfig struct {
	PayeeAddress string // virtual payment address, e.g. "bellybee@oksbi"
	PayeeName    string
	Currency     string
	Note         string
}

// Navigator hands a payment-intent URI to the device so the external payment
// app can take over.
type Navigator interface {
	OpenURI(ctx context.Context, uri string) error
}

// Confirmer asks the user whether the external app completed the payment.
// An ignored prompt counts as "no".
type Confirmer interface {
	ConfirmPayment(ctx context.Context) (bool, error)
}

// PushNavigator delivers the intent URI to the user's device over a client
// push channel. The channel itself is pluggable; the default logs the URI so
// a polling client can pick it up from the attempt record.
type PushNavigator struct {
	Send func(ctx context.Context, userID, uri string) error
	User string
}

func (n *PushNavigator) OpenURI(ctx context.Context, uri string) error {
	if n.Send == nil {
		log.Printf("payment intent for %s: %s", n.User, uri)
		return nil
	}
	return n.Send(ctx, n.User, uri)
}

// BuildIntentURI renders the upi://pay URI for the given total in major
// currency units. The amount is a two-decimal fixed string per the scheme.
func BuildIntentURI(cfg DeepLinkConfig, total int64) string {
	q := url.Values{}
	q.Set("pa", cfg.PayeeAddress)
	q.Set("pn", cfg.PayeeName)
	q.Set("am", fmt.Sprintf("%d.00", total))
	q.Set("cu", cfg.Currency)
	q.Set("tn", cfg.Note)

	u := url.URL{Scheme: "upi", Host: "pay", RawQuery: q.Encode()}
	return u.String()
}
