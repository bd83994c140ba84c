package collector

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"QuoteBoard/internal/model"

	polygonrest "github.com/polygon-io/client-go/rest"
	rmodels "github.com/polygon-io/client-go/rest/models"
)

// PolygonFetcher implements Fetcher and IncrementalFetcher using Polygon aggregates.
type PolygonFetcher struct {
	rest *polygonrest.Client
	now  func() time.Time
}

// NewPolygonFetcher creates a Polygon fetcher with optional proxy support.
func NewPolygonFetcher(apiKey, proxyURL string) *PolygonFetcher {
	return NewPolygonFetcherWithClient(apiKey, newHTTPClient(proxyURL))
}

// NewPolygonFetcherWithClient creates a Polygon fetcher on a caller-supplied HTTP client.
func NewPolygonFetcherWithClient(apiKey string, client *http.Client) *PolygonFetcher {
	return &PolygonFetcher{
		rest: polygonrest.NewWithClient(apiKey, client),
		now:  time.Now,
	}
}

func (f *PolygonFetcher) Name() string { return "polygon" }

func (f *PolygonFetcher) Fetch(ctx context.Context, symbol, period, interval string) (model.QuoteSeries, error) {
	lookback, err := ParsePeriod(period)
	if err != nil {
		return model.QuoteSeries{Symbol: symbol}, err
	}
	return f.FetchSince(ctx, symbol, f.now().Add(-lookback), interval)
}

// FetchSince returns the bars starting at since, inclusive.
func (f *PolygonFetcher) FetchSince(ctx context.Context, symbol string, since time.Time, interval string) (model.QuoteSeries, error) {
	now := f.now()
	series := model.QuoteSeries{Symbol: symbol, FetchedAt: now}

	span, err := ParseInterval(interval)
	if err != nil {
		return series, err
	}
	timespan, err := polygonTimespan(span.Unit)
	if err != nil {
		return series, err
	}

	params := &rmodels.ListAggsParams{
		Ticker:     symbol,
		Timespan:   timespan,
		Multiplier: span.Multiplier,
		From:       rmodels.Millis(since),
		// 'To' is exclusive; extend by one bar to include the forming one.
		To: rmodels.Millis(now.Add(span.Duration())),
	}
	lim := 50000
	asc := rmodels.Asc
	adj := true
	params.Limit = &lim
	params.Order = &asc
	params.Adjusted = &adj

	iter := f.rest.ListAggs(ctx, params)
	for iter.Next() {
		a := iter.Item()
		series.Quotes = append(series.Quotes, model.Quote{
			Time:   time.Time(a.Timestamp),
			Open:   a.Open,
			High:   a.High,
			Low:    a.Low,
			Close:  a.Close,
			Volume: a.Volume,
		})
	}
	if err := iter.Err(); err != nil {
		return series, fmt.Errorf("polygon aggs: %w", err)
	}
	return series, nil
}

func polygonTimespan(unit string) (rmodels.Timespan, error) {
	switch unit {
	case "minute":
		return rmodels.Minute, nil
	case "hour":
		return rmodels.Hour, nil
	case "day":
		return rmodels.Day, nil
	case "week":
		return rmodels.Week, nil
	}
	return "", fmt.Errorf("polygon: unsupported timespan %q", unit)
}
