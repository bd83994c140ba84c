package model

import "time"

// AlertRule is the user-configured threshold for one tracked symbol.
type AlertRule struct {
	Symbol    string  `json:"symbol"`
	Threshold float64 `json:"threshold"`
}

// AlertEvent is emitted when the latest close meets or exceeds the threshold.
type AlertEvent struct {
	Symbol    string    `json:"symbol"`
	Price     float64   `json:"price"`
	Threshold float64   `json:"threshold"`
	At        time.Time `json:"at"`
}
