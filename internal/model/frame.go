package model

import "time"

// Point is one (time, value) pair of a line series.
type Point struct {
	Time  time.Time     `json:"time"`
	Value OptionalPrice `json:"value"`
}

// LineSeries is a labelled line on a panel's price chart.
type LineSeries struct {
	Label  string  `json:"label"`
	Points []Point `json:"points"`
}

// Panel is everything rendered for one symbol in a frame.
type Panel struct {
	Symbol      string       `json:"symbol"`
	Lines       []LineSeries `json:"lines"`
	Candles     []Quote      `json:"candles"`
	LatestClose float64      `json:"latest_close"`
	Threshold   float64      `json:"threshold"`
	High        float64      `json:"high"`
	Low         float64      `json:"low"`
	// RangePos is where LatestClose sits between Low (0) and High (1).
	RangePos    float64      `json:"range_pos"`
	Alert       *AlertEvent  `json:"alert,omitempty"`
	NoData      bool         `json:"no_data"`
	Notes       []string     `json:"notes,omitempty"`
}

// SymbolFailure marks a symbol whose fetch failed during the cycle.
type SymbolFailure struct {
	Symbol string `json:"symbol"`
	Error  string `json:"error"`
}

// Frame is the complete, immutable output of one polling cycle.
// Surfaces replace whatever they displayed before with it.
type Frame struct {
	ID        string          `json:"id"`
	Title     string          `json:"title"`
	Panels    []Panel         `json:"panels"`
	Failures  []SymbolFailure `json:"failures,omitempty"`
	Alerts    []AlertEvent    `json:"alerts,omitempty"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// Panel returns the panel for symbol, or nil.
func (f *Frame) Panel(symbol string) *Panel {
	for i := range f.Panels {
		if f.Panels[i].Symbol == symbol {
			return &f.Panels[i]
		}
	}
	return nil
}

// Failed reports whether symbol is listed as a failure.
func (f *Frame) Failed(symbol string) bool {
	for _, fl := range f.Failures {
		if fl.Symbol == symbol {
			return true
		}
	}
	return false
}
