package calculator

import (
	"errors"

	"QuoteBoard/internal/model"
)

// ErrInvalidWindow is returned for a non-positive moving-average window.
var ErrInvalidWindow = errors.New("window must be positive")

// MovingAverage computes the trailing simple moving average of prices.
// The result has the same length as prices; position i is undefined until
// window samples are available (i < window-1). prices is not modified.
func MovingAverage(prices []float64, window int) ([]model.OptionalPrice, error) {
	if window <= 0 {
		return nil, ErrInvalidWindow
	}
	out := make([]model.OptionalPrice, len(prices))
	sum := 0.0
	for i, p := range prices {
		sum += p
		if i >= window {
			sum -= prices[i-window]
		}
		if i >= window-1 {
			out[i] = model.Price(sum / float64(window))
		}
	}
	return out, nil
}

// Closes extracts the close column of quotes.
func Closes(quotes []model.Quote) []float64 {
	closes := make([]float64, len(quotes))
	for i, q := range quotes {
		closes[i] = q.Close
	}
	return closes
}
