package location

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"
)

// Place is the raw component breakdown returned by a reverse-geocoding
// service. Every field is best-effort and may be empty.
type Place struct {
	HouseNumber   string `json:"house_number"`
	Road          string `json:"road"`
	Neighbourhood string `json:"neighbourhood"`
	Suburb        string `json:"suburb"`
	Quarter       string `json:"quarter"`
	City          string `json:"city"`
	Town          string `json:"town"`
	Village       string `json:"village"`
	County        string `json:"county"`
	State         string `json:"state"`
	Country       string `json:"country"`
	Postcode      string `json:"postcode"`
	Hamlet        string `json:"hamlet"`
	Locality      string `json:"locality"`
}

// Geocoder converts coordinates into address components.
type Geocoder interface {
	Reverse(ctx context.Context, lat, lng float64) (*Place, error)
}

// NominatimClient is a Geocoder backed by a Nominatim-compatible endpoint.
type NominatimClient struct {
	baseURL  string
	language string
	client   *http.Client
}

// NewNominatimClient builds a client for the given endpoint, e.g.
// "https://nominatim.openstreetmap.org".
func NewNominatimClient(baseURL, language string) *NominatimClient {
	return &NominatimClient{
		baseURL:  baseURL,
		language: language,
		client:   &http.Client{Timeout: 10 * time.Second},
	}
}

type nominatimResponse struct {
	Address Place `json:"address"`
}

func (c *NominatimClient) Reverse(ctx context.Context, lat, lng float64) (*Place, error) {
	q := url.Values{}
	q.Set("format", "jsonv2")
	q.Set("lat", strconv.FormatFloat(lat, 'f', -1, 64))
	q.Set("lon", strconv.FormatFloat(lng, 'f', -1, 64))
	q.Set("zoom", "19")
	q.Set("addressdetails", "1")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/reverse?"+q.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build reverse geocode request: %w", err)
	}
	req.Header.Set("Accept-Language", c.language)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("reverse geocode request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("reverse geocode returned status %d", resp.StatusCode)
	}

	var decoded nominatimResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return nil, fmt.Errorf("failed to decode reverse geocode response: %w", err)
	}

	return &decoded.Address, nil
}
