// Package dealers is a client for the dealership and review REST API.
package dealers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/dealerhub/dealerhub/internal/breaker"
	"github.com/dealerhub/dealerhub/internal/config"
	"github.com/sony/gobreaker"
)

// ErrNotFound is returned when the dealer API answers with 404.
var ErrNotFound = errors.New("not found")

// Client represents a dealer API client.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	cb         *gobreaker.CircuitBreaker
}

// New creates a new dealer API client.
func New(cfg *config.DealersConfig) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		baseURL:    strings.TrimSuffix(cfg.URL, "/"),
		apiKey:     cfg.APIKey,
		httpClient: &http.Client{Timeout: timeout},
		cb:         breaker.New("dealers", ErrNotFound),
	}
}

// Review is the body accepted by the insert_review endpoint.
type Review struct {
	Name         string `json:"name,omitempty"`
	Dealership   int    `json:"dealership"`
	Review       string `json:"review"`
	Purchase     bool   `json:"purchase"`
	PurchaseDate string `json:"purchase_date,omitempty"`
	CarMake      string `json:"car_make,omitempty"`
	CarModel     string `json:"car_model,omitempty"`
	CarYear      int    `json:"car_year,omitempty"`
}

// doRequest performs an HTTP request against the dealer API through the circuit breaker
// and returns the raw response body.
func (c *Client) doRequest(ctx context.Context, method, endpoint string, body any) (json.RawMessage, error) {
	res, err := c.cb.Execute(func() (any, error) {
		var reader io.Reader
		if body != nil {
			buf, err := json.Marshal(body)
			if err != nil {
				return nil, fmt.Errorf("error encoding request body: %w", err)
			}
			reader = bytes.NewReader(buf)
		}

		req, err := http.NewRequestWithContext(ctx, method, c.baseURL+endpoint, reader)
		if err != nil {
			return nil, fmt.Errorf("error creating request: %w", err)
		}
		req.Header.Set("Accept", "application/json")
		if body != nil {
			req.Header.Set("Content-Type", "application/json")
		}
		if c.apiKey != "" {
			req.Header.Set("X-Api-Key", c.apiKey)
		}

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return nil, fmt.Errorf("error performing request: %w", err)
		}
		defer resp.Body.Close() //nolint:errcheck

		bodyBytes, err := io.ReadAll(resp.Body)
		if err != nil {
			return nil, fmt.Errorf("error reading response: %w", err)
		}

		if resp.StatusCode == http.StatusNotFound {
			return nil, fmt.Errorf("%s %s: %w", method, endpoint, ErrNotFound)
		}
		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			return nil, fmt.Errorf("API request failed with status %d: %s", resp.StatusCode, string(bodyBytes))
		}

		if len(bytes.TrimSpace(bodyBytes)) == 0 {
			return json.RawMessage("null"), nil
		}
		if !json.Valid(bodyBytes) {
			return nil, fmt.Errorf("invalid JSON in response from %s", endpoint)
		}
		return json.RawMessage(bodyBytes), nil
	})
	if err != nil {
		return nil, err
	}
	return res.(json.RawMessage), nil
}

// Fetch performs a GET against an arbitrary API path and returns the raw JSON payload.
func (c *Client) Fetch(ctx context.Context, path string) (json.RawMessage, error) {
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	return c.doRequest(ctx, http.MethodGet, path, nil)
}

// FetchDealers lists all dealers, or only the dealers of a state.
// An empty state or "All" lists every dealer.
func (c *Client) FetchDealers(ctx context.Context, state string) (json.RawMessage, error) {
	if state == "" || state == "All" {
		return c.Fetch(ctx, "/fetchDealers")
	}
	return c.Fetch(ctx, "/fetchDealers/"+url.PathEscape(state))
}

// FetchDealer returns the details of a single dealer.
func (c *Client) FetchDealer(ctx context.Context, id uint) (json.RawMessage, error) {
	return c.Fetch(ctx, "/fetchDealer/"+strconv.FormatUint(uint64(id), 10))
}

// FetchReviews returns the reviews of a dealer as generic objects so that
// unknown fields survive the round trip.
func (c *Client) FetchReviews(ctx context.Context, dealerID uint) ([]map[string]any, error) {
	raw, err := c.Fetch(ctx, "/fetchReviews/dealer/"+strconv.FormatUint(uint64(dealerID), 10))
	if err != nil {
		return nil, err
	}

	var reviews []map[string]any
	if err := json.Unmarshal(raw, &reviews); err != nil {
		return nil, fmt.Errorf("error decoding reviews: %w", err)
	}
	if reviews == nil {
		reviews = []map[string]any{}
	}
	return reviews, nil
}

// PostReview forwards a review to the insert_review endpoint.
func (c *Client) PostReview(ctx context.Context, review any) (json.RawMessage, error) {
	return c.doRequest(ctx, http.MethodPost, "/insert_review", review)
}
