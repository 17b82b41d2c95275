// Package payment drives a selected payment method to a terminal outcome.
package payment

import (
	"context"
	"errors"
	"log"
	"sync"
	"time"

	"github.com/bellybee/checkout/domain"
	"github.com/google/uuid"
)

// HostedConfig is the merchant identity presented on the hosted sheet.
type HostedConfig struct {
	MerchantKey  string
	MerchantName string
	Currency     string
	Description  string
	ThemeColor   string
}

// SubmitRequest carries everything one attempt needs. Total must be computed
// by the pricing engine immediately before Submit, never cached from an
// earlier render.
type SubmitRequest struct {
	Method      domain.PaymentMethod
	Total       int64
	HasItems    bool
	Name        string
	Phone       string
	AddressLine string
	Pincode     string
}

// Result is the terminal outcome of one attempt. PaymentRef is set only for
// hosted-checkout completions; deep-link successes carry no verifiable
// reference (user attestation only).
type Result struct {
	AttemptID  string
	Status     domain.AttemptStatus
	PaymentRef string
}

// Orchestrator runs at most one payment attempt at a time for its session.
type Orchestrator struct {
	hosted       HostedGateway
	hostedCfg    HostedConfig
	loader       *ScriptLoader
	deeplink     DeepLinkConfig
	nav          Navigator
	confirmer    Confirmer
	confirmDelay time.Duration

	mu     sync.Mutex
	status domain.AttemptStatus
}

// NewOrchestrator wires the injected payment capabilities. The hosted checkout
// script loader is shared process-wide: the script is loaded at most once no
// matter how many sessions exist.
func NewOrchestrator(hosted HostedGateway, hostedCfg HostedConfig, deeplink DeepLinkConfig, nav Navigator, confirmer Confirmer) *Orchestrator {
	return &Orchestrator{
		hosted:       hosted,
		hostedCfg:    hostedCfg,
		loader:       &sharedLoader,
		deeplink:     deeplink,
		nav:          nav,
		confirmer:    confirmer,
		confirmDelay: ConfirmDelay,
		status:       domain.AttemptStatusIdle,
	}
}

// Status returns the state of the current (or last) attempt.
func (o *Orchestrator) Status() domain.AttemptStatus {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.status
}

// Submit validates the request and drives the selected method to a terminal
// status. Validation failures make no external call. Abandonment (dismissed
// sheet, unconfirmed deep link) is reported in the Result, not as an error;
// the session stays open for a retry.
func (o *Orchestrator) Submit(ctx context.Context, req SubmitRequest) (*Result, error) {
	if err := o.begin(req); err != nil {
		return nil, err
	}

	attemptID := uuid.NewString()
	log.Printf("payment attempt %s started: method=%s total=%d", attemptID, req.Method, req.Total)

	var (
		status domain.AttemptStatus
		ref    string
		err    error
	)

	switch req.Method {
	case domain.MethodCOD:
		// No external call: the courier collects on delivery.
		status = domain.AttemptStatusSucceeded

	case domain.MethodHostedCheckout:
		status, ref, err = o.runHosted(ctx, req)

	case domain.MethodDeepLinkA, domain.MethodDeepLinkB:
		status, err = o.runDeepLink(ctx, req)

	default:
		o.finish(domain.AttemptStatusFailed)
		return nil, ErrUnsupportedMethod
	}

	if err != nil {
		o.finish(domain.AttemptStatusFailed)
		log.Printf("payment attempt %s failed: %v", attemptID, err)
		return nil, err
	}

	o.finish(status)
	log.Printf("payment attempt %s finished: status=%s", attemptID, status)
	return &Result{AttemptID: attemptID, Status: status, PaymentRef: ref}, nil
}

// begin rejects concurrent submissions, validates the request, and moves the
// attempt to SUBMITTING. Validation failures leave the status untouched.
func (o *Orchestrator) begin(req SubmitRequest) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.status == domain.AttemptStatusSubmitting {
		return ErrAttemptInFlight
	}
	if !req.HasItems {
		return ErrEmptyCart
	}
	if req.Name == "" || req.Phone == "" || req.AddressLine == "" || req.Pincode == "" {
		return ErrMissingFields
	}

	o.status = domain.AttemptStatusSubmitting
	return nil
}

func (o *Orchestrator) finish(status domain.AttemptStatus) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if !domain.CanTransitionTo(o.status, status) {
		log.Printf("illegal attempt transition %s -> %s", o.status, status)
	}
	o.status = status
}

func (o *Orchestrator) runHosted(ctx context.Context, req SubmitRequest) (domain.AttemptStatus, string, error) {
	if err := o.loader.Ensure(ctx, o.hosted); err != nil {
		return "", "", err
	}

	opts := CheckoutOptions{
		MerchantKey:      o.hostedCfg.MerchantKey,
		AmountMinorUnits: req.Total * 100,
		Currency:         o.hostedCfg.Currency,
		MerchantName:     o.hostedCfg.MerchantName,
		Description:      o.hostedCfg.Description,
		Prefill:          Prefill{Name: req.Name, Contact: req.Phone},
		Notes:            map[string]string{"address": req.AddressLine},
		ThemeColor:       o.hostedCfg.ThemeColor,
	}

	ref, err := o.hosted.OpenSheet(ctx, opts)
	if errors.Is(err, ErrSheetDismissed) {
		return domain.AttemptStatusAbandoned, "", nil
	}
	if err != nil {
		return "", "", err
	}
	// The reference is not verified server-side here; callers must treat
	// SUCCEEDED as provisional until a backend verifies it.
	return domain.AttemptStatusSucceeded, ref, nil
}

func (o *Orchestrator) runDeepLink(ctx context.Context, req SubmitRequest) (domain.AttemptStatus, error) {
	uri := BuildIntentURI(o.deeplink, req.Total)
	if err := o.nav.OpenURI(ctx, uri); err != nil {
		return "", err
	}

	// The external app never calls back; wait a fixed delay, then ask the
	// user. This path's success is attestation, not proof.
	timer := time.NewTimer(o.confirmDelay)
	defer timer.Stop()
	select {
	case <-timer.C:
	case <-ctx.Done():
		return "", ctx.Err()
	}

	ok, err := o.confirmer.ConfirmPayment(ctx)
	if err != nil || !ok {
		return domain.AttemptStatusAbandoned, nil
	}
	return domain.AttemptStatusSucceeded, nil
}
