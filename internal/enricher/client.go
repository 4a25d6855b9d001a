package enricher

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"golang.org/x/time/rate"

	"github.com/jonesrussell/intent-engine/internal/config"
	"github.com/jonesrussell/intent-engine/internal/domain"
)

// Client is an HTTP client for an external enrichment service. Requests are
// rate limited so batch runs cannot overwhelm the inference boundary.
type Client struct {
	baseURL string
	http    *http.Client
	limiter *rate.Limiter
}

// NewClient creates an enrichment service client.
func NewClient(cfg config.EnrichmentConfig) *Client {
	rps := cfg.RequestsPerSecond
	if rps <= 0 {
		rps = 20
	}
	return &Client{
		baseURL: cfg.ServiceURL,
		http:    &http.Client{Timeout: cfg.Timeout},
		limiter: rate.NewLimiter(rate.Limit(rps), rps),
	}
}

// Lookup fetches the enrichment bundle for a signal id. Transport failures
// and non-2xx responses wrap domain.ErrEnrichmentUnavailable so callers
// degrade to heuristic scoring; a 404 is the explicit "no enrichment"
// value.
func (c *Client) Lookup(ctx context.Context, signalID string) (*domain.EnrichmentBundle, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrEnrichmentUnavailable, err)
	}

	url := fmt.Sprintf("%s/api/v1/enrichment/%s", c.baseURL, signalID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("build enrichment request: %w", err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrEnrichmentUnavailable, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, nil
	case resp.StatusCode != http.StatusOK:
		return nil, fmt.Errorf("%w: enrichment service returned %d", domain.ErrEnrichmentUnavailable, resp.StatusCode)
	}

	var bundle domain.EnrichmentBundle
	if err := json.NewDecoder(resp.Body).Decode(&bundle); err != nil {
		return nil, fmt.Errorf("%w: decode bundle: %w", domain.ErrEnrichmentUnavailable, err)
	}
	return &bundle, nil
}

// Health checks whether the enrichment service is reachable.
func (c *Client) Health(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/health", http.NoBody)
	if err != nil {
		return fmt.Errorf("build health request: %w", err)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %w", domain.ErrEnrichmentUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: health returned %d", domain.ErrEnrichmentUnavailable, resp.StatusCode)
	}
	return nil
}
