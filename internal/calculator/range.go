package calculator

import (
	"errors"

	"QuoteBoard/internal/model"
)

// Range is the high/low envelope of a window of quotes.
type Range struct {
	High float64
	Low  float64
	// Position is where the last close sits between Low (0) and High (1).
	Position float64
}

// SessionRange scans quotes for the highest high and lowest low and places
// the most recent close within them. A flat window puts the close at 0.5.
func SessionRange(quotes []model.Quote) (Range, error) {
	if len(quotes) == 0 {
		return Range{}, errors.New("no quotes provided")
	}
	r := Range{High: quotes[0].High, Low: quotes[0].Low}
	for _, q := range quotes[1:] {
		r.High = max(r.High, q.High)
		r.Low = min(r.Low, q.Low)
	}
	if r.High <= r.Low {
		r.Position = 0.5
		return r, nil
	}
	last := quotes[len(quotes)-1].Close
	r.Position = min(max((last-r.Low)/(r.High-r.Low), 0), 1)
	return r, nil
}
