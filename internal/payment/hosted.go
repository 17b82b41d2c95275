package payment

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync/atomic"
	"time"

	"golang.org/x/sync/singleflight"
)

// Prefill carries contact details shown pre-filled on the hosted sheet.
type Prefill struct {
	Name    string `json:"name"`
	Contact string `json:"contact"`
}

// CheckoutOptions configures one hosted payment sheet. Amount is in minor
// currency units (e.g. paise), as the provider requires.
type CheckoutOptions struct {
	MerchantKey      string            `json:"key"`
	AmountMinorUnits int64             `json:"amount"`
	Currency         string            `json:"currency"`
	MerchantName     string            `json:"name"`
	Description      string            `json:"description"`
	Prefill          Prefill           `json:"prefill"`
	Notes            map[string]string `json:"notes,omitempty"`
	ThemeColor       string            `json:"theme_color,omitempty"`
}

// HostedGateway is the narrow surface of the external checkout provider: load
// its SDK once, then open sheets. OpenSheet returns the payment reference on
// completion or ErrSheetDismissed when the user closes the sheet.
type HostedGateway interface {
	LoadScript(ctx context.Context) error
	OpenSheet(ctx context.Context, opts CheckoutOptions) (string, error)
}

// ScriptLoader makes LoadScript happen at most once per process. Concurrent
// callers wait for the in-flight load instead of starting their own.
type ScriptLoader struct {
	sfg    singleflight.Group
	loaded atomic.Bool
}

// sharedLoader backs every orchestrator unless tests inject their own.
var sharedLoader ScriptLoader

// Ensure loads the checkout script if it has not been loaded yet. A failed
// load is not latched, so a later attempt may retry.
func (l *ScriptLoader) Ensure(ctx context.Context, gw HostedGateway) error {
	if l.loaded.Load() {
		return nil
	}
	_, err, _ := l.sfg.Do("checkout-script", func() (interface{}, error) {
		if l.loaded.Load() {
			return nil, nil
		}
		if err := gw.LoadScript(ctx); err != nil {
			return nil, err
		}
		l.loaded.Store(true)
		return nil, nil
	})
	if err != nil {
		return fmt.Errorf("%w: %v", ErrScriptLoad, err)
	}
	return nil
}

// HTTPHostedGateway talks to a hosted-checkout provider over HTTP.
type HTTPHostedGateway struct {
	baseURL string
	client  *http.Client
}

func NewHTTPHostedGateway(baseURL string) *HTTPHostedGateway {
	return &HTTPHostedGateway{
		baseURL: baseURL,
		client:  &http.Client{Timeout: 30 * time.Second},
	}
}

// LoadScript verifies the provider's checkout SDK is reachable.
func (g *HTTPHostedGateway) LoadScript(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.baseURL+"/v1/checkout.js", nil)
	if err != nil {
		return err
	}
	resp, err := g.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("checkout script endpoint returned status %d", resp.StatusCode)
	}
	return nil
}

type sheetResponse struct {
	Status     string `json:"status"`
	PaymentRef string `json:"payment_ref"`
}

// OpenSheet opens a hosted sheet and blocks until the provider reports the
// outcome: "completed" with a reference, or "dismissed".
func (g *HTTPHostedGateway) OpenSheet(ctx context.Context, opts CheckoutOptions) (string, error) {
	body, err := json.Marshal(opts)
	if err != nil {
		return "", fmt.Errorf("failed to marshal checkout options: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.baseURL+"/v1/sheets", bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := g.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("hosted sheet request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("hosted sheet returned status %d", resp.StatusCode)
	}

	var sheet sheetResponse
	if err := json.NewDecoder(resp.Body).Decode(&sheet); err != nil {
		return "", fmt.Errorf("failed to decode sheet response: %w", err)
	}

	switch sheet.Status {
	case "completed":
		return sheet.PaymentRef, nil
	case "dismissed":
		return "", ErrSheetDismissed
	default:
		return "", fmt.Errorf("unexpected sheet status %q", sheet.Status)
	}
}
