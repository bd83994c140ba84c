package alert

import (
	"sync"
	"time"

	"QuoteBoard/internal/model"
)

// Cooldown suppresses repeat display of an alert for the same symbol within
// a time window. A zero window lets every event through.
type Cooldown struct {
	mu     sync.Mutex
	window time.Duration
	last   map[string]time.Time
}

// NewCooldown creates a Cooldown with the given window.
func NewCooldown(window time.Duration) *Cooldown {
	return &Cooldown{window: window, last: make(map[string]time.Time)}
}

// Filter returns evt if it should be shown at now, nil if it is suppressed.
// A nil evt clears the symbol so the next breach shows immediately.
func (c *Cooldown) Filter(symbol string, evt *model.AlertEvent, now time.Time) *model.AlertEvent {
	if c == nil || c.window <= 0 {
		return evt
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	if evt == nil {
		delete(c.last, symbol)
		return nil
	}
	if at, ok := c.last[symbol]; ok && now.Sub(at) < c.window {
		return nil
	}
	c.last[symbol] = now
	return evt
}
