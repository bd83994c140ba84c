package model

import (
	"strconv"
	"time"
)

// Quote represents a single OHLC sample.
type Quote struct {
	Time   time.Time `json:"time"`
	Open   float64   `json:"open"`
	High   float64   `json:"high"`
	Low    float64   `json:"low"`
	Close  float64   `json:"close"`
	Volume float64   `json:"volume"`
}

// QuoteSeries holds the samples fetched for one symbol during one polling cycle.
type QuoteSeries struct {
	Symbol    string
	Quotes    []Quote
	FetchedAt time.Time
}

// Len returns the number of samples.
func (s QuoteSeries) Len() int { return len(s.Quotes) }

// Latest returns the most recent sample. ok is false for an empty series.
func (s QuoteSeries) Latest() (q Quote, ok bool) {
	if len(s.Quotes) == 0 {
		return Quote{}, false
	}
	return s.Quotes[len(s.Quotes)-1], true
}

// OptionalPrice is a price that may be undefined, e.g. a moving average
// position without enough history behind it.
type OptionalPrice struct {
	Value float64
	Valid bool
}

// Price returns a defined OptionalPrice.
func Price(v float64) OptionalPrice { return OptionalPrice{Value: v, Valid: true} }

func (p OptionalPrice) MarshalJSON() ([]byte, error) {
	if !p.Valid {
		return []byte("null"), nil
	}
	return strconv.AppendFloat(nil, p.Value, 'f', -1, 64), nil
}

func (p *OptionalPrice) UnmarshalJSON(b []byte) error {
	if string(b) == "null" {
		*p = OptionalPrice{}
		return nil
	}
	v, err := strconv.ParseFloat(string(b), 64)
	if err != nil {
		return err
	}
	*p = Price(v)
	return nil
}
