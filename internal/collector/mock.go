package collector

import (
	"context"
	"math"
	"sync"
	"time"

	"QuoteBoard/internal/model"
)

// MockFetcher returns controllable fixed data for development and testing.
type MockFetcher struct {
	Price  float64
	Series map[string][]model.Quote
	Errors map[string]error

	mu    sync.Mutex
	calls map[string]int
}

func (m *MockFetcher) Name() string { return "mock" }

func (m *MockFetcher) Fetch(_ context.Context, symbol, period, interval string) (model.QuoteSeries, error) {
	m.mu.Lock()
	if m.calls == nil {
		m.calls = make(map[string]int)
	}
	m.calls[symbol]++
	m.mu.Unlock()

	series := model.QuoteSeries{Symbol: symbol, FetchedAt: time.Now()}
	if err, ok := m.Errors[symbol]; ok {
		return series, err
	}
	if quotes, ok := m.Series[symbol]; ok {
		series.Quotes = append([]model.Quote(nil), quotes...)
		return series, nil
	}
	series.Quotes = generateMockQuotes(m.Price, mockCount(period, interval), time.Now())
	return series, nil
}

// Calls returns how many times symbol has been fetched.
func (m *MockFetcher) Calls(symbol string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls[symbol]
}

// mockCount sizes a generated series from period/interval, capped at one
// regular trading session of minute bars.
func mockCount(period, interval string) int {
	const maxBars = 390
	lookback, err := ParsePeriod(period)
	if err != nil {
		return 60
	}
	span, err := ParseInterval(interval)
	if err != nil || span.Duration() == 0 {
		return 60
	}
	n := int(lookback / span.Duration())
	if n > maxBars {
		n = maxBars
	}
	if n < 1 {
		n = 1
	}
	return n
}

func generateMockQuotes(basePrice float64, count int, end time.Time) []model.Quote {
	if basePrice <= 0 {
		basePrice = 100
	}
	end = end.Truncate(time.Minute)
	quotes := make([]model.Quote, count)
	for i := 0; i < count; i++ {
		p := basePrice * (1 + 0.01*math.Sin(float64(i)/10))
		quotes[i] = model.Quote{
			Time:   end.Add(-time.Duration(count-1-i) * time.Minute),
			Open:   p * 0.999,
			High:   p * 1.002,
			Low:    p * 0.997,
			Close:  p,
			Volume: 10000,
		}
	}
	return quotes
}
