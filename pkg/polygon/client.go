// Package polygon provides a client for the Polygon.io market data API.
package polygon

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math/rand/v2"
	"net/http"
	"net/url"
	"time"

	"github.com/rotisserie/eris"
)

// ErrMarketDataUnavailable is the single failure sentinel for this adapter:
// every error leaving Price or RSI wraps it, whether the cause is a missing
// bar, an exhausted retry budget, or a transport failure. Callers gate on
// errors.Is and never need to distinguish upstream causes.
var ErrMarketDataUnavailable = eris.New("market data unavailable")

// maxWalkBackDays bounds how far Price walks back from a non-trading day
// before giving up. Covers weekends plus one adjacent holiday.
const maxWalkBackDays = 3

// Client defines the Polygon market data operations.
type Client interface {
	// Price returns the daily closing price for a ticker on the given date,
	// walking back up to three calendar days when the market was closed.
	Price(ctx context.Context, ticker string, date time.Time) (float64, error)
	// RSI returns the relative strength index for a ticker as of the given
	// date, using the default 14-period daily window.
	RSI(ctx context.Context, ticker string, date time.Time) (float64, error)
}

// Option configures the Polygon client.
type Option func(*httpClient)

// WithBaseURL sets a custom base URL (for testing).
func WithBaseURL(url string) Option {
	return func(c *httpClient) {
		c.baseURL = url
	}
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *httpClient) {
		c.http = hc
	}
}

type httpClient struct {
	apiKey  string
	baseURL string
	http    *http.Client
}

// NewClient creates a new Polygon client.
func NewClient(apiKey string, opts ...Option) Client {
	c := &httpClient{
		apiKey:  apiKey,
		baseURL: "https://api.polygon.io",
		http: &http.Client{
			Timeout: 30 * time.Second,
			Transport: &http.Transport{
				MaxIdleConnsPerHost: 20,
				IdleConnTimeout:     90 * time.Second,
			},
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// retryableStatusCode returns true if the HTTP status code should trigger a retry.
func retryableStatusCode(code int) bool {
	return code == http.StatusTooManyRequests ||
		code == http.StatusInternalServerError ||
		code == http.StatusBadGateway ||
		code == http.StatusServiceUnavailable
}

// retryDo executes an HTTP request with exponential backoff retries on
// retryable status codes and transport errors.
func (c *httpClient) retryDo(ctx context.Context, method, rawURL string) (*http.Response, error) {
	const maxRetries = 3

	var lastErr error
	for attempt := range maxRetries {
		req, err := http.NewRequestWithContext(ctx, method, rawURL, nil)
		if err != nil {
			return nil, eris.Wrapf(ErrMarketDataUnavailable, "polygon: create request: %v", err)
		}
		req.Header.Set("Authorization", "Bearer "+c.apiKey)

		resp, err := c.http.Do(req)
		if err == nil && !retryableStatusCode(resp.StatusCode) {
			return resp, nil
		}
		if err != nil {
			lastErr = err
		} else {
			lastErr = eris.Errorf("polygon: http %d", resp.StatusCode)
			resp.Body.Close() //nolint:errcheck
		}

		d := time.Duration(1<<attempt) * time.Second
		d += time.Duration(rand.Int64N(int64(d) / 2))
		t := time.NewTimer(d)
		select {
		case <-ctx.Done():
			t.Stop()
			return nil, eris.Wrapf(ErrMarketDataUnavailable, "polygon: cancelled: %v", ctx.Err())
		case <-t.C:
		}
	}
	return nil, eris.Wrapf(ErrMarketDataUnavailable, "polygon: retries exhausted: %v", lastErr)
}

const dateLayout = "2006-01-02"

type dailyOpenClose struct {
	Status string  `json:"status"`
	Close  float64 `json:"close"`
}

// Price returns the daily close for the ticker on date. Weekends and market
// holidays have no bar; the lookup walks back one day at a time, at most
// three days, before failing. A zero date means the most recent close.
func (c *httpClient) Price(ctx context.Context, ticker string, date time.Time) (float64, error) {
	if date.IsZero() {
		date = time.Now().UTC()
	}

	var lastStatus string
	for back := 0; back <= maxWalkBackDays; back++ {
		day := date.AddDate(0, 0, -back)
		u := fmt.Sprintf("%s/v1/open-close/%s/%s?adjusted=true",
			c.baseURL, url.PathEscape(ticker), day.Format(dateLayout))

		resp, err := c.retryDo(ctx, http.MethodGet, u)
		if err != nil {
			return 0, err
		}

		switch resp.StatusCode {
		case http.StatusOK:
			var body dailyOpenClose
			err := json.NewDecoder(resp.Body).Decode(&body)
			resp.Body.Close() //nolint:errcheck
			if err != nil {
				return 0, eris.Wrapf(ErrMarketDataUnavailable, "polygon: decode open-close: %v", err)
			}
			if body.Status != "OK" {
				lastStatus = body.Status
				continue
			}
			return body.Close, nil
		case http.StatusNotFound:
			// No bar for this day; try the previous one.
			io.Copy(io.Discard, resp.Body) //nolint:errcheck
			resp.Body.Close()              //nolint:errcheck
			lastStatus = "NOT_FOUND"
		default:
			resp.Body.Close() //nolint:errcheck
			return 0, eris.Wrapf(ErrMarketDataUnavailable,
				"polygon: unexpected status %d for %s", resp.StatusCode, ticker)
		}
	}

	return 0, eris.Wrapf(ErrMarketDataUnavailable,
		"no close for %s within %d days of %s (last status %s)",
		ticker, maxWalkBackDays, date.Format(dateLayout), lastStatus)
}

type rsiResponse struct {
	Results struct {
		Values []struct {
			Timestamp int64   `json:"timestamp"`
			Value     float64 `json:"value"`
		} `json:"values"`
	} `json:"results"`
}

// RSI returns the 14-period daily RSI as of date. Polygon returns the most
// recent values at or before the timestamp bound, so no walk-back is needed.
// A zero date means the most recent value.
func (c *httpClient) RSI(ctx context.Context, ticker string, date time.Time) (float64, error) {
	if date.IsZero() {
		date = time.Now().UTC()
	}

	u := fmt.Sprintf("%s/v1/indicators/rsi/%s?timespan=day&window=14&series_type=close&order=desc&limit=1&timestamp.lte=%s",
		c.baseURL, url.PathEscape(ticker), date.Format(dateLayout))

	resp, err := c.retryDo(ctx, http.MethodGet, u)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode != http.StatusOK {
		return 0, eris.Wrapf(ErrMarketDataUnavailable,
			"polygon: unexpected status %d for %s rsi", resp.StatusCode, ticker)
	}

	var body rsiResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return 0, eris.Wrapf(ErrMarketDataUnavailable, "polygon: decode rsi: %v", err)
	}
	if len(body.Results.Values) == 0 {
		return 0, eris.Wrapf(ErrMarketDataUnavailable, "no rsi for %s at %s",
			ticker, date.Format(dateLayout))
	}
	return body.Results.Values[0].Value, nil
}
