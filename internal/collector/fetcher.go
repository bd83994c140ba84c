package collector

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"QuoteBoard/internal/model"
)

// Fetcher defines the interface for fetching quotes from a market-data source.
type Fetcher interface {
	// Fetch returns the samples of symbol covering period (e.g. "1d") at the
	// given sampling interval (e.g. "1m"), oldest first.
	Fetch(ctx context.Context, symbol, period, interval string) (model.QuoteSeries, error)
	Name() string
}

// IncrementalFetcher is implemented by sources that can return only the
// samples at or after a point in time.
type IncrementalFetcher interface {
	FetchSince(ctx context.Context, symbol string, since time.Time, interval string) (model.QuoteSeries, error)
}

// FetchError reports a failed fetch for a single symbol.
type FetchError struct {
	Symbol string
	Err    error
}

func (e *FetchError) Error() string { return fmt.Sprintf("fetch %s: %v", e.Symbol, e.Err) }

func (e *FetchError) Unwrap() error { return e.Err }

// newHTTPClient creates an HTTP client with optional proxy support.
func newHTTPClient(proxyURL string) *http.Client {
	transport := &http.Transport{}
	if proxyURL != "" {
		if u, err := url.Parse(proxyURL); err == nil {
			transport.Proxy = http.ProxyURL(u)
		}
	}
	return &http.Client{
		Timeout:   30 * time.Second,
		Transport: transport,
	}
}
