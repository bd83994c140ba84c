// Package alert evaluates per-symbol price thresholds against the latest close.
package alert

import (
	"errors"
	"fmt"
	"time"

	"QuoteBoard/internal/model"
)

// ErrNoData is returned when a symbol's series has no samples to evaluate.
var ErrNoData = errors.New("no data for symbol")

// Evaluate returns an event when latestClose >= threshold, nil otherwise.
// It holds no state: the same inputs always give the same answer, and the
// event fires on every call while the condition holds. A NaN price or
// threshold never fires.
func Evaluate(symbol string, latestClose, threshold float64, at time.Time) *model.AlertEvent {
	if !(latestClose >= threshold) {
		return nil
	}
	return &model.AlertEvent{
		Symbol:    symbol,
		Price:     latestClose,
		Threshold: threshold,
		At:        at,
	}
}

// EvaluateSeries evaluates rule against the most recent close of series.
func EvaluateSeries(rule model.AlertRule, series model.QuoteSeries) (*model.AlertEvent, error) {
	latest, ok := series.Latest()
	if !ok {
		return nil, fmt.Errorf("%s: %w", rule.Symbol, ErrNoData)
	}
	return Evaluate(rule.Symbol, latest.Close, rule.Threshold, latest.Time), nil
}

// Message formats the warning line shown for a fired alert.
func Message(evt *model.AlertEvent) string {
	return fmt.Sprintf("🔔 Price Alert: %s has reached $%.2f (Alert: $%.2f)",
		evt.Symbol, evt.Price, evt.Threshold)
}
