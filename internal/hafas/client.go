package hafas

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

// Client talks to a hafas-client REST endpoint.
type Client struct {
	baseURL   string
	userAgent string
	client    *http.Client
}

func NewClient(baseURL, userAgent string, timeout time.Duration) *Client {
	return &Client{
		baseURL:   baseURL,
		userAgent: userAgent,
		client: &http.Client{
			Timeout: timeout,
		},
	}
}

// Departures fetches upcoming departures from a stop within the given window.
func (c *Client) Departures(ctx context.Context, stopID string, window time.Duration) ([]Departure, error) {
	u := fmt.Sprintf("%s/stops/%s/departures?duration=%d",
		c.baseURL, url.PathEscape(stopID), int(window.Minutes()))
	var res departuresResponse
	if err := c.get(ctx, u, &res); err != nil {
		return nil, err
	}
	return res.Departures, nil
}

// Trip fetches the full detail of a single trip, including stopovers.
func (c *Client) Trip(ctx context.Context, tripID string) (*Trip, error) {
	// HAFAS trip ids contain '#' and '|'; they must be path-escaped.
	u := fmt.Sprintf("%s/trips/%s?stopovers=true&remarks=false",
		c.baseURL, url.PathEscape(tripID))
	var res tripResponse
	if err := c.get(ctx, u, &res); err != nil {
		return nil, err
	}
	if res.Trip == nil {
		return nil, fmt.Errorf("trip %s: empty response", tripID)
	}
	return res.Trip, nil
}

func (c *Client) get(ctx context.Context, url string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("fetch: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("upstream returned status %d", resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
