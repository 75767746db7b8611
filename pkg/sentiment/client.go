// Package sentiment is a client for the sentiment analyzer microservice.
package sentiment

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/dealerhub/dealerhub/internal/breaker"
	"github.com/dealerhub/dealerhub/internal/config"
	"github.com/sony/gobreaker"
)

// Labels returned by Classify.
const (
	Positive = "positive"
	Neutral  = "neutral"
	Negative = "negative"
	Unknown  = "unknown"

	// Fallback is shown instead of a label when the text could not be classified.
	Fallback = "Can't analyze"
)

// ErrNoSentiment is returned when the analyzer answered without a label.
var ErrNoSentiment = errors.New("analyzer returned no sentiment")

// Classifier labels a piece of text.
type Classifier interface {
	Classify(ctx context.Context, text string) (string, error)
}

var _ Classifier = (*Client)(nil)

// Client represents a sentiment analyzer client.
type Client struct {
	baseURL    string
	httpClient *http.Client
	cb         *gobreaker.CircuitBreaker
}

// New creates a new sentiment analyzer client.
func New(cfg *config.SentimentConfig) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &Client{
		baseURL:    strings.TrimSuffix(cfg.URL, "/"),
		httpClient: &http.Client{Timeout: timeout},
		cb:         breaker.New("sentiment"),
	}
}

type analyzeResponse struct {
	Sentiment string `json:"sentiment"`
}

// Classify returns the normalized sentiment label for text.
func (c *Client) Classify(ctx context.Context, text string) (string, error) {
	res, err := c.cb.Execute(func() (any, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/analyze/"+url.PathEscape(text), nil)
		if err != nil {
			return nil, fmt.Errorf("error creating request: %w", err)
		}
		req.Header.Set("Accept", "application/json")

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return nil, fmt.Errorf("error performing request: %w", err)
		}
		defer resp.Body.Close() //nolint:errcheck

		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			bodyBytes, _ := io.ReadAll(resp.Body)
			return nil, fmt.Errorf("API request failed with status %d: %s", resp.StatusCode, string(bodyBytes))
		}

		var out analyzeResponse
		if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
			return nil, fmt.Errorf("error decoding response: %w", err)
		}
		return out.Sentiment, nil
	})
	if err != nil {
		return "", err
	}

	label := res.(string)
	if strings.TrimSpace(label) == "" {
		return "", ErrNoSentiment
	}
	return Normalize(label), nil
}

// Normalize maps analyzer output onto one of the known labels.
func Normalize(label string) string {
	switch strings.ToLower(strings.TrimSpace(label)) {
	case "positive", "pos":
		return Positive
	case "neutral", "neu":
		return Neutral
	case "negative", "neg":
		return Negative
	default:
		return Unknown
	}
}

// ClassifyOrFallback classifies text and returns Fallback instead of an error.
func ClassifyOrFallback(ctx context.Context, c Classifier, text string) (string, error) {
	label, err := c.Classify(ctx, text)
	if err != nil {
		return Fallback, err
	}
	return label, nil
}
