// Package imagesource talks to the external stock-image service. Every
// outbound attempt, successful or not, is reserved and recorded through the
// usage governor so quota accounting never drifts from reality.
package imagesource

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"brandcraft/pkg/domain"
	"brandcraft/pkg/governor"
)

const (
	// Provider is the governor accounting key for this service.
	Provider = "freepik"

	searchCost = 0.002
	fetchCost  = 0.01

	maxAttempts  = 3
	initialDelay = 200 * time.Millisecond
)

// UsageGate is the slice of the governor this client needs.
type UsageGate interface {
	Reserve(ctx context.Context, orgID, provider, operation string, estimatedCost float64) (*governor.Grant, error)
	Record(ctx context.Context, grant *governor.Grant, actualCost float64, status string, latency time.Duration) error
}

// Candidate is one search hit.
type Candidate struct {
	ID      string `json:"id"`
	Title   string `json:"title"`
	URL     string `json:"url"`
	Premium bool   `json:"premium"`
}

// Client calls the image-search API with retry and quota accounting.
type Client struct {
	baseURL    string
	apiKey     string
	gate       UsageGate
	httpClient *http.Client

	sleep func(ctx context.Context, d time.Duration) error
}

func NewClient(baseURL, apiKey string, gate UsageGate) *Client {
	return &Client{
		baseURL: strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		apiKey:  strings.TrimSpace(apiKey),
		gate:    gate,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		sleep: sleepCtx,
	}
}

// Search queries the service for candidates matching the query and spec.
func (c *Client) Search(ctx context.Context, orgID, query string, spec domain.ImageSpec) ([]Candidate, error) {
	var candidates []Candidate
	err := c.withRetry(ctx, orgID, "search", searchCost, func(ctx context.Context) error {
		params := url.Values{}
		params.Set("term", query)
		params.Set("orientation", orientation(spec))
		params.Set("limit", "5")

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/v1/resources?"+params.Encode(), nil)
		if err != nil {
			return err
		}
		c.setHeaders(req)

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return fmt.Errorf("image search request: %w", err)
		}
		defer resp.Body.Close()
		if resp.StatusCode >= 400 {
			return fmt.Errorf("image search api error: %s", resp.Status)
		}

		var body struct {
			Data []Candidate `json:"data"`
		}
		if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
			return fmt.Errorf("image search decode: %w", err)
		}
		candidates = body.Data
		return nil
	})
	if err != nil {
		return nil, err
	}
	if len(candidates) == 0 {
		return nil, fmt.Errorf("no image candidates for %q", query)
	}
	return candidates, nil
}

// Fetch downloads one candidate's bytes.
func (c *Client) Fetch(ctx context.Context, orgID, imageID string) ([]byte, error) {
	var data []byte
	err := c.withRetry(ctx, orgID, "fetch", fetchCost, func(ctx context.Context) error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/v1/resources/"+url.PathEscape(imageID)+"/download", nil)
		if err != nil {
			return err
		}
		c.setHeaders(req)

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return fmt.Errorf("image fetch request: %w", err)
		}
		defer resp.Body.Close()
		if resp.StatusCode >= 400 {
			return fmt.Errorf("image fetch api error: %s", resp.Status)
		}
		data, err = io.ReadAll(resp.Body)
		if err != nil {
			return fmt.Errorf("image fetch read: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return data, nil
}

// withRetry runs one governed attempt up to maxAttempts times with
// exponential backoff. A governor denial aborts immediately so the caller can
// degrade instead of burning the remaining attempts.
func (c *Client) withRetry(ctx context.Context, orgID, operation string, cost float64, attempt func(ctx context.Context) error) error {
	delay := initialDelay
	var lastErr error
	for i := 0; i < maxAttempts; i++ {
		grant, err := c.gate.Reserve(ctx, orgID, Provider, operation, cost)
		if err != nil {
			return err
		}

		start := time.Now()
		err = attempt(ctx)
		latency := time.Since(start)
		if err == nil {
			if recErr := c.gate.Record(ctx, grant, cost, "ok", latency); recErr != nil {
				return recErr
			}
			return nil
		}
		if recErr := c.gate.Record(ctx, grant, cost, "error", latency); recErr != nil {
			return recErr
		}
		lastErr = err

		if i < maxAttempts-1 {
			if err := c.sleep(ctx, delay); err != nil {
				return err
			}
			delay *= 2
		}
	}
	return fmt.Errorf("image service failed after %d attempts: %w", maxAttempts, lastErr)
}

func (c *Client) setHeaders(req *http.Request) {
	req.Header.Set("Accept", "application/json")
	if c.apiKey != "" {
		req.Header.Set("X-Freepik-API-Key", c.apiKey)
	}
}

func orientation(spec domain.ImageSpec) string {
	switch {
	case spec.Width > spec.Height:
		return "landscape"
	case spec.Width < spec.Height:
		return "portrait"
	default:
		return "square"
	}
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
