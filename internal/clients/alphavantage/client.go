// Package alphavantage wraps the Alpha Vantage HTTP API: typed fetchers for
// the three endpoints the service uses, plus normalization of the raw
// string-typed responses into the internal financial record.
package alphavantage

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

	"github.com/rs/zerolog"

	"github.com/Atharva9281/WindBorne/internal/ratelimit"
)

// Sentinel errors. Both mean "no usable data for this symbol right now";
// callers fall back to cached or default data rather than failing the batch.
var (
	// ErrUnavailable covers upstream outages, non-200 responses, and
	// explicit error payloads for invalid symbols.
	ErrUnavailable = errors.New("alphavantage: data unavailable")
	// ErrRateLimited means the provider rejected the call for quota reasons.
	ErrRateLimited = errors.New("alphavantage: rate limited")
)

// Overview is the raw company overview payload. Alpha Vantage returns every
// field as a string.
type Overview map[string]string

// IncomeStatement holds the quarterly income reports for a symbol.
type IncomeStatement struct {
	Symbol           string              `json:"symbol"`
	QuarterlyReports []map[string]string `json:"quarterlyReports"`
}

// BalanceSheetResponse holds the annual balance sheet reports for a symbol.
type BalanceSheetResponse struct {
	Symbol        string              `json:"symbol"`
	AnnualReports []map[string]string `json:"annualReports"`
}

// UsageRecorder receives call and error counts for daily stats. Implemented
// by the cache stats repository.
type UsageRecorder interface {
	RecordAPICall(now time.Time) error
	RecordError(now time.Time) error
}

// Client calls the Alpha Vantage API. Every request first acquires a slot
// from the shared rate limiter, so concurrent fetchers are paced to the
// provider's quota no matter how many goroutines are in flight.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	limiter    *ratelimit.Limiter
	usage      UsageRecorder
	log        zerolog.Logger
}

// New creates an Alpha Vantage client. usage may be nil.
func New(baseURL, apiKey string, limiter *ratelimit.Limiter, usage UsageRecorder, log zerolog.Logger) *Client {
	return &Client{
		baseURL:    baseURL,
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: 30 * time.Second},
		limiter:    limiter,
		usage:      usage,
		log:        log.With().Str("component", "alphavantage").Logger(),
	}
}

// CompanyOverview fetches the OVERVIEW endpoint for a symbol.
func (c *Client) CompanyOverview(ctx context.Context, symbol string) (Overview, error) {
	var overview Overview
	if err := c.fetch(ctx, "OVERVIEW", symbol, &overview); err != nil {
		return nil, err
	}
	// An empty object is what Alpha Vantage returns for unknown symbols.
	if len(overview) == 0 || overview["Symbol"] == "" {
		return nil, fmt.Errorf("empty overview for %s: %w", symbol, ErrUnavailable)
	}
	return overview, nil
}

// IncomeStatement fetches the INCOME_STATEMENT endpoint for a symbol.
func (c *Client) IncomeStatement(ctx context.Context, symbol string) (*IncomeStatement, error) {
	var income IncomeStatement
	if err := c.fetch(ctx, "INCOME_STATEMENT", symbol, &income); err != nil {
		return nil, err
	}
	return &income, nil
}

// BalanceSheet fetches the BALANCE_SHEET endpoint for a symbol.
func (c *Client) BalanceSheet(ctx context.Context, symbol string) (*BalanceSheetResponse, error) {
	var sheet BalanceSheetResponse
	if err := c.fetch(ctx, "BALANCE_SHEET", symbol, &sheet); err != nil {
		return nil, err
	}
	return &sheet, nil
}

// fetch performs one paced GET and decodes the response into out after
// screening the provider's in-band error payloads.
func (c *Client) fetch(ctx context.Context, function, symbol string, out interface{}) error {
	if err := c.limiter.AcquireSlot(ctx); err != nil {
		return fmt.Errorf("gave up waiting for a call slot for %s/%s: %w", function, symbol, err)
	}
	c.recordCall()

	query := url.Values{}
	query.Set("function", function)
	query.Set("symbol", symbol)
	query.Set("apikey", c.apiKey)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+query.Encode(), nil)
	if err != nil {
		return fmt.Errorf("failed to build request for %s/%s: %w", function, symbol, err)
	}

	c.log.Debug().Str("function", function).Str("symbol", symbol).Msg("Fetching upstream data")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.recordError()
		return fmt.Errorf("request failed for %s/%s: %v: %w", function, symbol, err, ErrUnavailable)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		c.recordError()
		return fmt.Errorf("upstream returned %d for %s/%s: %w", resp.StatusCode, function, symbol, ErrUnavailable)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		c.recordError()
		return fmt.Errorf("failed to read response for %s/%s: %w", function, symbol, err)
	}

	if err := c.screenErrorPayload(body, function, symbol); err != nil {
		c.recordError()
		return err
	}

	if err := json.Unmarshal(body, out); err != nil {
		c.recordError()
		return fmt.Errorf("failed to decode %s response for %s: %v: %w", function, symbol, err, ErrUnavailable)
	}
	return nil
}

// screenErrorPayload detects Alpha Vantage's 200-OK error envelopes:
// "Error Message" for invalid requests, "Note" and rate-limit "Information"
// for quota exhaustion.
func (c *Client) screenErrorPayload(body []byte, function, symbol string) error {
	var envelope map[string]json.RawMessage
	if err := json.Unmarshal(body, &envelope); err != nil {
		// Not an object; let the typed decode report it.
		return nil
	}

	if raw, ok := envelope["Error Message"]; ok {
		c.log.Warn().Str("function", function).Str("symbol", symbol).RawJSON("detail", raw).Msg("Upstream error payload")
		return fmt.Errorf("upstream error for %s/%s: %w", function, symbol, ErrUnavailable)
	}
	if _, ok := envelope["Note"]; ok {
		c.log.Warn().Str("function", function).Str("symbol", symbol).Msg("Upstream rate limit note")
		return fmt.Errorf("quota exceeded for %s/%s: %w", function, symbol, ErrRateLimited)
	}
	if raw, ok := envelope["Information"]; ok {
		var info string
		if err := json.Unmarshal(raw, &info); err == nil && strings.Contains(strings.ToLower(info), "rate limit") {
			c.log.Warn().Str("function", function).Str("symbol", symbol).Msg("Upstream rate limit information")
			return fmt.Errorf("quota exceeded for %s/%s: %w", function, symbol, ErrRateLimited)
		}
	}
	return nil
}

func (c *Client) recordCall() {
	if c.usage == nil {
		return
	}
	if err := c.usage.RecordAPICall(time.Now().UTC()); err != nil {
		c.log.Warn().Err(err).Msg("Failed to record API call")
	}
}

func (c *Client) recordError() {
	if c.usage == nil {
		return
	}
	if err := c.usage.RecordError(time.Now().UTC()); err != nil {
		c.log.Warn().Err(err).Msg("Failed to record API error")
	}
}
