package collector

import (
	"sort"
	"time"

	"QuoteBoard/internal/model"
)

// Buffer keeps the most recent samples of one symbol, ordered by time.
// It holds at most capacity samples; the oldest are evicted first.
type Buffer struct {
	capacity int
	quotes   []model.Quote
}

// NewBuffer creates a buffer holding up to capacity samples (minimum 1).
func NewBuffer(capacity int) *Buffer {
	if capacity < 1 {
		capacity = 1
	}
	return &Buffer{capacity: capacity, quotes: make([]model.Quote, 0, capacity)}
}

// Merge inserts quotes by timestamp. A sample with the same timestamp as an
// existing one replaces it, so a still-forming bar is updated in place.
// It returns the number of new timestamps added.
func (b *Buffer) Merge(quotes []model.Quote) int {
	added := 0
	for _, q := range quotes {
		n := len(b.quotes)
		if n == 0 || b.quotes[n-1].Time.Before(q.Time) {
			b.quotes = append(b.quotes, q)
			added++
			continue
		}
		i := sort.Search(n, func(i int) bool { return !b.quotes[i].Time.Before(q.Time) })
		if b.quotes[i].Time.Equal(q.Time) {
			b.quotes[i] = q
			continue
		}
		b.quotes = append(b.quotes, model.Quote{})
		copy(b.quotes[i+1:], b.quotes[i:])
		b.quotes[i] = q
		added++
	}
	if over := len(b.quotes) - b.capacity; over > 0 {
		b.quotes = append(b.quotes[:0], b.quotes[over:]...)
	}
	return added
}

// Snapshot returns a copy of the buffered samples.
func (b *Buffer) Snapshot() []model.Quote {
	out := make([]model.Quote, len(b.quotes))
	copy(out, b.quotes)
	return out
}

// Last returns the timestamp of the newest sample.
func (b *Buffer) Last() (time.Time, bool) {
	if len(b.quotes) == 0 {
		return time.Time{}, false
	}
	return b.quotes[len(b.quotes)-1].Time, true
}

func (b *Buffer) Len() int { return len(b.quotes) }
func (b *Buffer) Cap() int { return b.capacity }
