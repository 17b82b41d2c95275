package payment

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScriptLoader_ConcurrentCallersLoadOnce(t *testing.T) {
	gw := &MockHostedGateway{}
	loader := &ScriptLoader{}

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.NoError(t, loader.Ensure(context.Background(), gw))
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), atomic.LoadInt32(&gw.LoadCalls))
}

func TestScriptLoader_FailedLoadIsNotLatched(t *testing.T) {
	gw := &MockHostedGateway{LoadErr: errors.New("cdn down")}
	loader := &ScriptLoader{}

	err := loader.Ensure(context.Background(), gw)
	assert.ErrorIs(t, err, ErrScriptLoad)

	gw.LoadErr = nil
	require.NoError(t, loader.Ensure(context.Background(), gw))
	require.NoError(t, loader.Ensure(context.Background(), gw))
	assert.Equal(t, int32(2), atomic.LoadInt32(&gw.LoadCalls))
}

func TestHTTPHostedGateway_OpenSheet_Completed(t *testing.T) {
	var gotOpts CheckoutOptions
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/v1/checkout.js":
			w.WriteHeader(http.StatusOK)
		case "/v1/sheets":
			require.NoError(t, json.NewDecoder(r.Body).Decode(&gotOpts))
			json.NewEncoder(w).Encode(sheetResponse{Status: "completed", PaymentRef: "pay_xyz"})
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	gw := NewHTTPHostedGateway(srv.URL)
	require.NoError(t, gw.LoadScript(context.Background()))

	ref, err := gw.OpenSheet(context.Background(), CheckoutOptions{
		MerchantKey:      "rzp_test_key",
		AmountMinorUnits: 41300,
		Currency:         "INR",
		MerchantName:     "Belly Bee",
		Prefill:          Prefill{Name: "Asha", Contact: "9876543210"},
	})

	require.NoError(t, err)
	assert.Equal(t, "pay_xyz", ref)
	assert.Equal(t, int64(41300), gotOpts.AmountMinorUnits)
	assert.Equal(t, "rzp_test_key", gotOpts.MerchantKey)
}

func TestHTTPHostedGateway_OpenSheet_Dismissed(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(sheetResponse{Status: "dismissed"})
	}))
	defer srv.Close()

	gw := NewHTTPHostedGateway(srv.URL)
	_, err := gw.OpenSheet(context.Background(), CheckoutOptions{})

	assert.ErrorIs(t, err, ErrSheetDismissed)
}

func TestHTTPHostedGateway_LoadScript_Unavailable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "gone", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	gw := NewHTTPHostedGateway(srv.URL)
	err := gw.LoadScript(context.Background())

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "status 503")
}
