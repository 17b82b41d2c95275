package location

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNominatimClient_Reverse(t *testing.T) {
	var gotPath string
	var gotQuery map[string][]string
	var gotLang string

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotQuery = r.URL.Query()
		gotLang = r.Header.Get("Accept-Language")
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"address": {
				"house_number": "7",
				"road": "Church Street",
				"suburb": "Shivajinagar",
				"city": "Bengaluru",
				"state": "Karnataka",
				"country": "India",
				"postcode": "560001"
			}
		}`))
	}))
	defer srv.Close()

	client := NewNominatimClient(srv.URL, "en-IN")
	place, err := client.Reverse(context.Background(), 12.975, 77.605)

	require.NoError(t, err)
	assert.Equal(t, "/reverse", gotPath)
	assert.Equal(t, "jsonv2", gotQuery["format"][0])
	assert.Equal(t, "12.975", gotQuery["lat"][0])
	assert.Equal(t, "77.605", gotQuery["lon"][0])
	assert.Equal(t, "19", gotQuery["zoom"][0])
	assert.Equal(t, "1", gotQuery["addressdetails"][0])
	assert.Equal(t, "en-IN", gotLang)

	assert.Equal(t, "7", place.HouseNumber)
	assert.Equal(t, "Church Street", place.Road)
	assert.Equal(t, "560001", place.Postcode)
}

func TestNominatimClient_NonOKStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "too many requests", http.StatusTooManyRequests)
	}))
	defer srv.Close()

	client := NewNominatimClient(srv.URL, "en-IN")
	_, err := client.Reverse(context.Background(), 1, 2)

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "status 429")
}

func TestNominatimClient_BadBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("not json"))
	}))
	defer srv.Close()

	client := NewNominatimClient(srv.URL, "en-IN")
	_, err := client.Reverse(context.Background(), 1, 2)

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "decode")
}
