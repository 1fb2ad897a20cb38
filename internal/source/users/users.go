// Package users implements the HTTP user directory adapter. It fetches the
// JSON array of user objects, flattens the nested geo coordinates, and maps
// each object onto the typed model.Customer schema at the adapter boundary.
package users

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"salespipe/internal/httpds"
	"salespipe/internal/model"
)

// Config configures the adapter.
type Config struct {
	// URL is the user directory endpoint.
	URL string

	// Timeout is the per-request timeout. Zero uses the httpds default.
	Timeout time.Duration

	// MaxRetries is the retry budget for transient HTTP failures.
	MaxRetries int

	// Transport optionally replaces the HTTP transport (tests).
	Transport http.RoundTripper
}

// Source fetches customers from the user directory endpoint.
type Source struct {
	url    string
	client *httpds.Client
}

// New constructs a Source from cfg.
func New(cfg Config) *Source {
	return &Source{
		url: cfg.URL,
		client: httpds.NewClient(httpds.Config{
			Timeout:    cfg.Timeout,
			MaxRetries: cfg.MaxRetries,
			Transport:  cfg.Transport,
		}),
	}
}

// coord is a latitude or longitude that the upstream API may serialize as
// either a JSON string or a JSON number.
type coord float64

func (c *coord) UnmarshalJSON(b []byte) error {
	s := string(b)
	if len(s) >= 2 && s[0] == '"' {
		var str string
		if err := json.Unmarshal(b, &str); err != nil {
			return err
		}
		s = str
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return fmt.Errorf("coordinate %q is not numeric: %w", s, err)
	}
	*c = coord(f)
	return nil
}

// userObject mirrors the wire shape of one user, restricted to the fields the
// pipeline consumes.
type userObject struct {
	ID       int64  `json:"id"`
	Name     string `json:"name"`
	Username string `json:"username"`
	Email    string `json:"email"`
	Address  struct {
		Geo struct {
			Lat coord `json:"lat"`
			Lng coord `json:"lng"`
		} `json:"geo"`
	} `json:"address"`
}

// Fetch retrieves and maps the full user list. A non-2xx status or an
// undecodable body is an error; there is no partial result.
func (s *Source) Fetch(ctx context.Context) ([]model.Customer, error) {
	resp, err := s.client.Get(ctx, s.url, nil)
	if err != nil {
		return nil, fmt.Errorf("users: fetch %s: %w", s.url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("users: unexpected status %d from %s", resp.StatusCode, s.url)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("users: read body: %w", err)
	}

	var raw []userObject
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, fmt.Errorf("users: decode response: %w", err)
	}

	out := make([]model.Customer, 0, len(raw))
	for i, u := range raw {
		if u.ID == 0 {
			return nil, fmt.Errorf("users: object %d has no id", i)
		}
		out = append(out, model.Customer{
			ID:       u.ID,
			Name:     u.Name,
			Username: u.Username,
			Email:    u.Email,
			Lat:      float64(u.Address.Geo.Lat),
			Lng:      float64(u.Address.Geo.Lng),
		})
	}
	return out, nil
}
