package geocode

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const defaultBaseURL = "https://maps.googleapis.com"

// Location is a successful geocoding result.
type Location struct {
	FormattedAddress string
	Latitude         float64
	Longitude        float64
}

// Client calls the Google Maps geocoding API. Lookups are best-effort: the
// submission flow treats every failure here as "no location data".
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// NewClient constructs a geocoding client. baseURL is overridable for tests;
// empty means the public Google Maps endpoint.
func NewClient(baseURL, apiKey string) *Client {
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	return &Client{
		baseURL:    baseURL,
		apiKey:     strings.TrimSpace(apiKey),
		httpClient: &http.Client{Timeout: 5 * time.Second},
	}
}

type geocodeResponse struct {
	Status  string `json:"status"`
	Results []struct {
		FormattedAddress string `json:"formatted_address"`
		Geometry         struct {
			Location struct {
				Lat float64 `json:"lat"`
				Lng float64 `json:"lng"`
			} `json:"location"`
		} `json:"geometry"`
	} `json:"results"`
}

// Geocode resolves an address to coordinates. It returns ok=false without an
// error when the upstream gives no usable result (unknown address, non-OK
// status, missing API key); transport and decoding problems surface as errors
// so callers can log them before degrading.
func (c *Client) Geocode(ctx context.Context, address string) (Location, bool, error) {
	if c.apiKey == "" {
		// Without an API key the request cannot be made; degrade gracefully.
		return Location{}, false, nil
	}

	params := url.Values{}
	params.Set("address", address)
	params.Set("key", c.apiKey)
	reqURL := c.baseURL + "/maps/api/geocode/json?" + params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return Location{}, false, err
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return Location{}, false, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return Location{}, false, fmt.Errorf("geocode upstream status %d", resp.StatusCode)
	}

	var payload geocodeResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return Location{}, false, fmt.Errorf("decode geocode response: %w", err)
	}
	if payload.Status != "OK" || len(payload.Results) == 0 {
		return Location{}, false, nil
	}

	first := payload.Results[0]
	return Location{
		FormattedAddress: first.FormattedAddress,
		Latitude:         first.Geometry.Location.Lat,
		Longitude:        first.Geometry.Location.Lng,
	}, true, nil
}
