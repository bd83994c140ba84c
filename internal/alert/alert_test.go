package alert

import (
	"errors"
	"math"
	"strings"
	"testing"
	"time"

	"QuoteBoard/internal/model"
)

func TestEvaluate_Boundary(t *testing.T) {
	now := time.Now()
	tests := []struct {
		price     float64
		threshold float64
		fire      bool
	}{
		{100.0, 100.0, true},
		{99.99, 100.0, false},
		{100.01, 100.0, true},
		{250.5, 100.0, true},
		{0.1 + 0.2, 0.3, true},
		{1.0, 1.5, false},
		{math.NaN(), 100.0, false},
		{100.0, math.NaN(), false},
		{1e9, math.Inf(1), false},
	}
	for _, tt := range tests {
		evt := Evaluate("AAPL", tt.price, tt.threshold, now)
		if (evt != nil) != tt.fire {
			t.Errorf("price %.2f threshold %.2f: expected fire=%v, got %v", tt.price, tt.threshold, tt.fire, evt != nil)
		}
		if evt != nil && (evt.Price != tt.price || evt.Threshold != tt.threshold || evt.Symbol != "AAPL") {
			t.Errorf("unexpected event payload: %+v", evt)
		}
	}
}

func TestEvaluate_RefiresEveryCall(t *testing.T) {
	now := time.Now()
	for i := 0; i < 5; i++ {
		if Evaluate("MSFT", 120, 100, now) == nil {
			t.Fatalf("call %d: expected alert to fire again", i)
		}
	}
}

func TestEvaluateSeries(t *testing.T) {
	rule := model.AlertRule{Symbol: "TSLA", Threshold: 200}
	series := model.QuoteSeries{Symbol: "TSLA", Quotes: []model.Quote{
		{Close: 250},
		{Close: 150},
	}}
	evt, err := EvaluateSeries(rule, series)
	if err != nil {
		t.Fatal(err)
	}
	if evt != nil {
		t.Errorf("expected latest close (150) to be used, got event %+v", evt)
	}

	series.Quotes = append(series.Quotes, model.Quote{Close: 200})
	evt, err = EvaluateSeries(rule, series)
	if err != nil || evt == nil {
		t.Fatalf("expected alert, got %v, %v", evt, err)
	}

	_, err = EvaluateSeries(rule, model.QuoteSeries{Symbol: "TSLA"})
	if !errors.Is(err, ErrNoData) {
		t.Errorf("expected ErrNoData, got %v", err)
	}
}

func TestMessage(t *testing.T) {
	msg := Message(&model.AlertEvent{Symbol: "AAPL", Price: 101.234, Threshold: 100})
	if !strings.Contains(msg, "AAPL has reached $101.23 (Alert: $100.00)") {
		t.Errorf("unexpected message: %s", msg)
	}
	// 1.005 is stored just below the tie and rounds down.
	msg = Message(&model.AlertEvent{Symbol: "F", Price: 1.005, Threshold: 1})
	if !strings.Contains(msg, "F has reached $1.00 (Alert: $1.00)") {
		t.Errorf("unexpected rounding: %s", msg)
	}
}

func TestCooldown(t *testing.T) {
	start := time.Date(2024, 1, 2, 10, 0, 0, 0, time.UTC)
	evt := &model.AlertEvent{Symbol: "AAPL", Price: 110, Threshold: 100}

	c := NewCooldown(5 * time.Minute)
	if c.Filter("AAPL", evt, start) == nil {
		t.Fatal("first event should pass")
	}
	if c.Filter("AAPL", evt, start.Add(time.Minute)) != nil {
		t.Error("event inside window should be suppressed")
	}
	if c.Filter("AAPL", evt, start.Add(6*time.Minute)) == nil {
		t.Error("event after window should pass")
	}

	// Dropping below the threshold resets the symbol.
	c.Filter("AAPL", nil, start.Add(7*time.Minute))
	if c.Filter("AAPL", evt, start.Add(8*time.Minute)) == nil {
		t.Error("event after reset should pass")
	}

	var disabled *Cooldown
	if disabled.Filter("AAPL", evt, start) == nil {
		t.Error("nil cooldown should pass every event")
	}
	zero := NewCooldown(0)
	for i := 0; i < 3; i++ {
		if zero.Filter("AAPL", evt, start) == nil {
			t.Error("zero window should pass every event")
		}
	}
}
