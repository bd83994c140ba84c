package collector

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// ParsePeriod converts a lookback period such as "1d", "5d", "1mo" or "1y"
// into a duration. Months count as 30 days and years as 365.
func ParsePeriod(period string) (time.Duration, error) {
	n, unit, err := splitSpan(period)
	if err != nil {
		return 0, fmt.Errorf("invalid period %q: %w", period, err)
	}
	day := 24 * time.Hour
	switch unit {
	case "d":
		return time.Duration(n) * day, nil
	case "wk":
		return time.Duration(n) * 7 * day, nil
	case "mo":
		return time.Duration(n) * 30 * day, nil
	case "y":
		return time.Duration(n) * 365 * day, nil
	default:
		return 0, fmt.Errorf("invalid period %q: unknown unit %q", period, unit)
	}
}

// Timespan is a bar size expressed as multiplier x unit, e.g. 5 x minute.
type Timespan struct {
	Multiplier int
	Unit       string // minute, hour, day, week
}

// ParseInterval converts a sampling interval such as "1m", "15m", "1h",
// "1d" or "1wk" into a Timespan.
func ParseInterval(interval string) (Timespan, error) {
	n, unit, err := splitSpan(interval)
	if err != nil {
		return Timespan{}, fmt.Errorf("invalid interval %q: %w", interval, err)
	}
	switch unit {
	case "m":
		return Timespan{Multiplier: n, Unit: "minute"}, nil
	case "h":
		return Timespan{Multiplier: n, Unit: "hour"}, nil
	case "d":
		return Timespan{Multiplier: n, Unit: "day"}, nil
	case "wk":
		return Timespan{Multiplier: n, Unit: "week"}, nil
	default:
		return Timespan{}, fmt.Errorf("invalid interval %q: unknown unit %q", interval, unit)
	}
}

// Duration returns the length of one bar.
func (t Timespan) Duration() time.Duration {
	switch t.Unit {
	case "minute":
		return time.Duration(t.Multiplier) * time.Minute
	case "hour":
		return time.Duration(t.Multiplier) * time.Hour
	case "day":
		return time.Duration(t.Multiplier) * 24 * time.Hour
	case "week":
		return time.Duration(t.Multiplier) * 7 * 24 * time.Hour
	}
	return 0
}

func splitSpan(s string) (int, string, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	i := 0
	for i < len(s) && s[i] >= '0' && s[i] <= '9' {
		i++
	}
	if i == 0 || i == len(s) {
		return 0, "", fmt.Errorf("expected <number><unit>")
	}
	n, err := strconv.Atoi(s[:i])
	if err != nil {
		return 0, "", err
	}
	if n <= 0 {
		return 0, "", fmt.Errorf("must be positive")
	}
	return n, s[i:], nil
}
