// Package weather implements the per-order weather lookup. Each lookup is a
// single GET keyed by (latitude, longitude, unix seconds); the response must
// expose the current temperature and a primary condition label, and anything
// else is treated as a malformed payload.
package weather

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"salespipe/internal/httpds"
	"salespipe/internal/model"
)

// Config configures the lookup client.
type Config struct {
	// BaseURL is the weather endpoint without query parameters.
	BaseURL string

	// APIKey is sent as the appid query parameter.
	APIKey string

	// Timeout is the per-request timeout. Zero uses the httpds default.
	Timeout time.Duration

	// MaxRetries is the retry budget for transient HTTP failures.
	MaxRetries int

	// Transport optionally replaces the HTTP transport (tests).
	Transport http.RoundTripper
}

// Client performs weather lookups.
type Client struct {
	baseURL string
	apiKey  string
	client  *httpds.Client
}

// New constructs a Client from cfg.
func New(cfg Config) *Client {
	return &Client{
		baseURL: cfg.BaseURL,
		apiKey:  cfg.APIKey,
		client: httpds.NewClient(httpds.Config{
			Timeout:    cfg.Timeout,
			MaxRetries: cfg.MaxRetries,
			Transport:  cfg.Transport,
		}),
	}
}

// payload mirrors the wire shape of a lookup response, restricted to the
// fields the pipeline consumes.
type payload struct {
	Main struct {
		Temp float64 `json:"temp"`
	} `json:"main"`
	Weather []struct {
		Main string `json:"main"`
	} `json:"weather"`
}

// Lookup fetches the weather observation for the given coordinates and time.
// A network failure, non-2xx status, or a payload without a condition entry
// is an error; the caller decides whether that aborts the run.
func (c *Client) Lookup(ctx context.Context, lat, lng float64, unix int64) (model.Observation, error) {
	values := url.Values{}
	values.Set("appid", c.apiKey)
	values.Set("lat", strconv.FormatFloat(lat, 'f', -1, 64))
	values.Set("lon", strconv.FormatFloat(lng, 'f', -1, 64))
	values.Set("dt", strconv.FormatInt(unix, 10))
	u := fmt.Sprintf("%s?%s", c.baseURL, values.Encode())

	resp, err := c.client.Get(ctx, u, nil)
	if err != nil {
		return model.Observation{}, fmt.Errorf("weather: lookup lat=%v lon=%v dt=%d: %w", lat, lng, unix, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return model.Observation{}, fmt.Errorf("weather: unexpected status %d for lat=%v lon=%v dt=%d", resp.StatusCode, lat, lng, unix)
	}

	var p payload
	if err := json.NewDecoder(resp.Body).Decode(&p); err != nil {
		return model.Observation{}, fmt.Errorf("weather: decode response: %w", err)
	}
	if len(p.Weather) == 0 {
		return model.Observation{}, fmt.Errorf("weather: response has no condition entry for lat=%v lon=%v dt=%d", lat, lng, unix)
	}

	return model.Observation{
		Condition: p.Weather[0].Main,
		Temp:      p.Main.Temp,
	}, nil
}
