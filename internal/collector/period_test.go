package collector

import (
	"testing"
	"time"
)

func TestParsePeriod(t *testing.T) {
	day := 24 * time.Hour
	tests := []struct {
		in   string
		want time.Duration
		ok   bool
	}{
		{"1d", day, true},
		{"5d", 5 * day, true},
		{"1wk", 7 * day, true},
		{"3mo", 90 * day, true},
		{"1y", 365 * day, true},
		{"", 0, false},
		{"d", 0, false},
		{"0d", 0, false},
		{"7x", 0, false},
	}
	for _, tt := range tests {
		got, err := ParsePeriod(tt.in)
		if (err == nil) != tt.ok {
			t.Errorf("%q: expected ok=%v, got err=%v", tt.in, tt.ok, err)
			continue
		}
		if got != tt.want {
			t.Errorf("%q: expected %v, got %v", tt.in, tt.want, got)
		}
	}
}

func TestParseInterval(t *testing.T) {
	tests := []struct {
		in   string
		want Timespan
		dur  time.Duration
	}{
		{"1m", Timespan{1, "minute"}, time.Minute},
		{"15m", Timespan{15, "minute"}, 15 * time.Minute},
		{"1h", Timespan{1, "hour"}, time.Hour},
		{"1d", Timespan{1, "day"}, 24 * time.Hour},
		{"1wk", Timespan{1, "week"}, 7 * 24 * time.Hour},
	}
	for _, tt := range tests {
		got, err := ParseInterval(tt.in)
		if err != nil {
			t.Errorf("%q: %v", tt.in, err)
			continue
		}
		if got != tt.want || got.Duration() != tt.dur {
			t.Errorf("%q: expected %+v (%v), got %+v (%v)", tt.in, tt.want, tt.dur, got, got.Duration())
		}
	}
	if _, err := ParseInterval("1mo"); err == nil {
		t.Error("expected error for unsupported interval unit")
	}
}
