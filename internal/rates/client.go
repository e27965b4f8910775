// Package rates fetches exchange rates from an external HTTP provider.
//
// The provider is a collaborator, not a source of truth: callers merge its
// answers into the stored currency table and keep the previous rates when a
// fetch fails. The base currency's rate is never taken from the provider.
package rates

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"moneta/internal/cache"
)

// Source returns the exchange rates for every currency quoted against the
// given base code (units of quoted currency per one unit of base).
type Source interface {
	FetchRates(ctx context.Context, base string) (map[string]decimal.Decimal, error)
}

const (
	fetchTimeout  = 10 * time.Second
	fetchAttempts = 3
	retryBackoff  = 2 * time.Second
)

// Client fetches rates from an exchangerate-api style endpoint returning
// {"conversion_rates": {"EUR": 0.9, ...}}. Responses are cached per base
// code so a burst of refreshes does not hammer the provider.
type Client struct {
	baseURL string
	http    *http.Client
	cache   *cache.LRU[map[string]decimal.Decimal]
}

type ratesResponse struct {
	ConversionRates map[string]json.Number `json:"conversion_rates"`
}

// NewClient creates a rate client for the given endpoint. The base code is
// appended to the URL path on fetch.
func NewClient(baseURL string, cacheTTL time.Duration) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: fetchTimeout},
		cache:   cache.NewLRU[map[string]decimal.Decimal](8, cacheTTL),
	}
}

// FetchRates implements Source with retry and per-base caching. Rates that
// are missing, zero or negative in the provider response are dropped here so
// they never reach the stored table.
func (c *Client) FetchRates(ctx context.Context, base string) (map[string]decimal.Decimal, error) {
	base = strings.ToUpper(strings.TrimSpace(base))
	if base == "" {
		return nil, fmt.Errorf("empty base currency code")
	}
	if cached, ok := c.cache.Get(base); ok {
		slog.DebugContext(ctx, "Using cached exchange rates", "base", base)
		return cached, nil
	}

	var lastErr error
	for attempt := 1; attempt <= fetchAttempts; attempt++ {
		rates, err := c.fetchOnce(ctx, base)
		if err == nil {
			c.cache.Set(base, rates)
			slog.InfoContext(ctx, "Fetched exchange rates", "base", base, "count", len(rates))
			return rates, nil
		}
		lastErr = err
		slog.WarnContext(ctx, "Exchange rate fetch failed",
			"base", base, "attempt", attempt, "error", err)
		if attempt < fetchAttempts {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(retryBackoff):
			}
		}
	}
	return nil, fmt.Errorf("fetch rates for %s: %w", base, lastErr)
}

func (c *Client) fetchOnce(ctx context.Context, base string) (map[string]decimal.Decimal, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/"+base, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request rates: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("provider returned status %d", resp.StatusCode)
	}

	var body ratesResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	if len(body.ConversionRates) == 0 {
		return nil, fmt.Errorf("provider returned no rates")
	}

	rates := make(map[string]decimal.Decimal, len(body.ConversionRates))
	for code, raw := range body.ConversionRates {
		rate, err := decimal.NewFromString(raw.String())
		if err != nil || !rate.IsPositive() {
			slog.DebugContext(ctx, "Dropping unusable rate", "code", code, "raw", raw.String())
			continue
		}
		rates[strings.ToUpper(code)] = rate
	}
	if len(rates) == 0 {
		return nil, fmt.Errorf("provider returned only unusable rates")
	}
	return rates, nil
}
