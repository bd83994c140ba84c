package collector

import (
	"context"
	"log"
	"sort"
	"sync"
	"time"

	"QuoteBoard/internal/model"

	"golang.org/x/sync/errgroup"
)

// Result is the outcome of fetching one symbol during a cycle.
type Result struct {
	Symbol  string
	Series  model.QuoteSeries
	Err     error
	Elapsed time.Duration
}

// Collector fetches quote series for a set of symbols. Each symbol is
// fetched independently; one symbol's failure never affects another.
type Collector struct {
	Fetcher  Fetcher
	Period   string
	Interval string
	// Workers bounds concurrent fetches; 1 fetches sequentially.
	Workers int
	// BufferSize enables a per-symbol rolling buffer when positive.
	BufferSize int

	mu      sync.Mutex
	buffers map[string]*Buffer
}

// NewCollector creates a new Collector.
func NewCollector(fetcher Fetcher, period, interval string, workers, bufferSize int) *Collector {
	if workers < 1 {
		workers = 1
	}
	return &Collector{
		Fetcher:    fetcher,
		Period:     period,
		Interval:   interval,
		Workers:    workers,
		BufferSize: bufferSize,
		buffers:    make(map[string]*Buffer),
	}
}

// CollectAll fetches every symbol and returns results in input order.
func (c *Collector) CollectAll(ctx context.Context, symbols []string) []Result {
	results := make([]Result, len(symbols))

	var g errgroup.Group
	g.SetLimit(c.Workers)
	for i, sym := range symbols {
		g.Go(func() error {
			start := time.Now()
			series, err := c.Collect(ctx, sym)
			results[i] = Result{Symbol: sym, Series: series, Err: err, Elapsed: time.Since(start)}
			return nil
		})
	}
	_ = g.Wait()
	return results
}

// Collect fetches one symbol. Errors are returned as *FetchError.
func (c *Collector) Collect(ctx context.Context, symbol string) (model.QuoteSeries, error) {
	if c.BufferSize <= 0 {
		series, err := c.Fetcher.Fetch(ctx, symbol, c.Period, c.Interval)
		if err != nil {
			return model.QuoteSeries{Symbol: symbol}, &FetchError{Symbol: symbol, Err: err}
		}
		series.Symbol = symbol
		series.Quotes = normalize(series.Quotes)
		return series, nil
	}

	buf := c.buffer(symbol)
	series, err := c.fetchIncremental(ctx, symbol, buf)
	if err != nil {
		return model.QuoteSeries{Symbol: symbol}, &FetchError{Symbol: symbol, Err: err}
	}

	c.mu.Lock()
	buf.Merge(normalize(series.Quotes))
	series.Quotes = buf.Snapshot()
	c.mu.Unlock()

	series.Symbol = symbol
	return series, nil
}

// fetchIncremental asks only for new samples when the buffer already holds
// data and the source supports it; otherwise it fetches the full window.
func (c *Collector) fetchIncremental(ctx context.Context, symbol string, buf *Buffer) (model.QuoteSeries, error) {
	inc, ok := c.Fetcher.(IncrementalFetcher)
	c.mu.Lock()
	last, hasData := buf.Last()
	c.mu.Unlock()
	if ok && hasData {
		return inc.FetchSince(ctx, symbol, last, c.Interval)
	}
	return c.Fetcher.Fetch(ctx, symbol, c.Period, c.Interval)
}

func (c *Collector) buffer(symbol string) *Buffer {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.buffers == nil {
		c.buffers = make(map[string]*Buffer)
	}
	b, ok := c.buffers[symbol]
	if !ok {
		b = NewBuffer(c.BufferSize)
		c.buffers[symbol] = b
		log.Printf("[INFO] rolling buffer created for %s (capacity %d)", symbol, c.BufferSize)
	}
	return b
}

// normalize orders quotes by time and keeps the last sample of any
// duplicated timestamp.
func normalize(quotes []model.Quote) []model.Quote {
	if len(quotes) < 2 {
		return quotes
	}
	sorted := sort.SliceIsSorted(quotes, func(i, j int) bool { return quotes[i].Time.Before(quotes[j].Time) })
	if !sorted {
		quotes = append([]model.Quote(nil), quotes...)
		sort.SliceStable(quotes, func(i, j int) bool { return quotes[i].Time.Before(quotes[j].Time) })
	}
	out := quotes[:0:0]
	for _, q := range quotes {
		if n := len(out); n > 0 && out[n-1].Time.Equal(q.Time) {
			out[n-1] = q
			continue
		}
		out = append(out, q)
	}
	return out
}
