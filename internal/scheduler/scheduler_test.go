package scheduler

import (
	"context"
	"errors"
	"math"
	"sync"
	"testing"
	"time"

	"QuoteBoard/internal/collector"
	"QuoteBoard/internal/metrics"
	"QuoteBoard/internal/model"
)

type captureSurface struct {
	mu     sync.Mutex
	frames []*model.Frame
	err    error
}

func (c *captureSurface) Render(_ context.Context, f *model.Frame) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.frames = append(c.frames, f)
	return c.err
}

func (c *captureSurface) count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.frames)
}

func quotes(closes ...float64) []model.Quote {
	start := time.Date(2024, 3, 1, 14, 30, 0, 0, time.UTC)
	out := make([]model.Quote, len(closes))
	for i, c := range closes {
		out[i] = model.Quote{Time: start.Add(time.Duration(i) * time.Minute), Open: c, High: c + 1, Low: c - 1, Close: c}
	}
	return out
}

func newTestScheduler(m *collector.MockFetcher, surface *captureSurface, symbols []string, threshold float64) *Scheduler {
	rules := make([]model.AlertRule, len(symbols))
	for i, s := range symbols {
		rules[i] = model.AlertRule{Symbol: s, Threshold: threshold}
	}
	col := collector.NewCollector(m, "1d", "1m", 2, 0)
	return NewScheduler(col, surface, metrics.NewMetrics(), Options{
		Title:       "Test",
		Symbols:     symbols,
		Rules:       rules,
		ShortWindow: 3,
		LongWindow:  5,
		Interval:    10 * time.Millisecond,
	})
}

func TestRunCycle_FailureIsolated(t *testing.T) {
	m := &collector.MockFetcher{
		Series: map[string][]model.Quote{"B": quotes(10, 12, 11, 13, 15, 14, 16, 18, 17, 19)},
		Errors: map[string]error{"A": errors.New("network down")},
	}
	surface := &captureSurface{}
	s := newTestScheduler(m, surface, []string{"A", "B"}, 100)

	frame := s.RunCycle(context.Background())
	if frame == nil {
		t.Fatal("expected a frame")
	}
	if surface.count() != 1 || surface.frames[0] != frame {
		t.Fatal("expected the frame to be rendered exactly once")
	}
	if !frame.Failed("A") {
		t.Error("expected failure marker for A")
	}
	if frame.Panel("A") != nil {
		t.Error("failed symbol must not have a panel")
	}
	b := frame.Panel("B")
	if b == nil {
		t.Fatal("expected panel for B")
	}
	if len(b.Lines) != 3 {
		t.Fatalf("expected close + 2 MA lines, got %d", len(b.Lines))
	}
	ma3 := b.Lines[1]
	if ma3.Label != "MA3" || len(ma3.Points) != 10 {
		t.Fatalf("unexpected MA3 line: %s len=%d", ma3.Label, len(ma3.Points))
	}
	if ma3.Points[1].Value.Valid || ma3.Points[2].Value.Value != 11 || ma3.Points[9].Value.Value != 18 {
		t.Errorf("unexpected MA3 values: %+v", ma3.Points)
	}
	if b.LatestClose != 19 || b.High != 20 || b.Low != 9 {
		t.Errorf("unexpected panel header: close=%.0f high=%.0f low=%.0f", b.LatestClose, b.High, b.Low)
	}
	if math.Abs(b.RangePos-10.0/11.0) > 1e-9 {
		t.Errorf("expected range position 10/11, got %v", b.RangePos)
	}
	if frame.ID == "" || frame.UpdatedAt.IsZero() {
		t.Error("frame must carry an id and update time")
	}
	if st := s.Status(); st.State != "idle" || st.Cycles != 1 {
		t.Errorf("unexpected status: %+v", st)
	}
}

func TestRunCycle_AlertsRefireEveryCycle(t *testing.T) {
	m := &collector.MockFetcher{Series: map[string][]model.Quote{"AAPL": quotes(99, 100)}}
	surface := &captureSurface{}
	s := newTestScheduler(m, surface, []string{"AAPL"}, 100)

	for i := 0; i < 3; i++ {
		frame := s.RunCycle(context.Background())
		if len(frame.Alerts) != 1 || frame.Alerts[0].Price != 100 {
			t.Fatalf("cycle %d: expected alert at boundary, got %+v", i, frame.Alerts)
		}
	}
}

func TestRunCycle_CooldownSuppresses(t *testing.T) {
	m := &collector.MockFetcher{Series: map[string][]model.Quote{"AAPL": quotes(120)}}
	col := collector.NewCollector(m, "1d", "1m", 1, 0)
	s := NewScheduler(col, &captureSurface{}, metrics.NewMetrics(), Options{
		Symbols:     []string{"AAPL"},
		Rules:       []model.AlertRule{{Symbol: "AAPL", Threshold: 100}},
		ShortWindow: 2,
		LongWindow:  3,
		Cooldown:    time.Hour,
	})
	if f := s.RunCycle(context.Background()); len(f.Alerts) != 1 {
		t.Fatal("first breach should be shown")
	}
	if f := s.RunCycle(context.Background()); len(f.Alerts) != 0 {
		t.Error("repeat breach inside cooldown should be suppressed")
	}
}

func TestRunCycle_FetchFailureResetsCooldown(t *testing.T) {
	m := &collector.MockFetcher{Series: map[string][]model.Quote{"AAPL": quotes(120)}}
	col := collector.NewCollector(m, "1d", "1m", 1, 0)
	s := NewScheduler(col, &captureSurface{}, metrics.NewMetrics(), Options{
		Symbols:     []string{"AAPL"},
		Rules:       []model.AlertRule{{Symbol: "AAPL", Threshold: 100}},
		ShortWindow: 2,
		LongWindow:  3,
		Cooldown:    time.Hour,
	})
	if f := s.RunCycle(context.Background()); len(f.Alerts) != 1 {
		t.Fatal("first breach should be shown")
	}

	m.Errors = map[string]error{"AAPL": errors.New("timeout")}
	if f := s.RunCycle(context.Background()); !f.Failed("AAPL") {
		t.Fatal("expected failure marker")
	}

	m.Errors = nil
	if f := s.RunCycle(context.Background()); len(f.Alerts) != 1 {
		t.Error("breach after a failed fetch should be shown again")
	}
}

func TestRunCycle_NoDataAndInsufficientHistory(t *testing.T) {
	m := &collector.MockFetcher{Series: map[string][]model.Quote{
		"EMPTY": {},
		"SHORT": quotes(1, 2, 3, 4),
	}}
	s := newTestScheduler(m, &captureSurface{}, []string{"EMPTY", "SHORT"}, 100)

	frame := s.RunCycle(context.Background())
	empty := frame.Panel("EMPTY")
	if empty == nil || !empty.NoData {
		t.Fatalf("expected no-data placeholder, got %+v", empty)
	}
	if len(frame.Failures) != 0 {
		t.Errorf("empty series is not a fetch failure: %+v", frame.Failures)
	}

	short := frame.Panel("SHORT")
	if short == nil || short.NoData {
		t.Fatal("expected data panel for SHORT")
	}
	ma5 := short.Lines[2]
	for i, p := range ma5.Points {
		if p.Value.Valid {
			t.Errorf("MA5 position %d should be undefined", i)
		}
	}
	if len(short.Notes) != 1 {
		t.Errorf("expected one insufficient-data note, got %v", short.Notes)
	}
}

func TestSetRule_AppliesNextCycle(t *testing.T) {
	m := &collector.MockFetcher{Series: map[string][]model.Quote{"AAPL": quotes(150)}}
	s := newTestScheduler(m, &captureSurface{}, []string{"AAPL"}, 100)

	if err := s.SetRule("AAPL", 200); err != nil {
		t.Fatal(err)
	}
	if got := s.Rules(); got[0].Threshold != 200 {
		t.Errorf("expected pending rule to be reported, got %+v", got)
	}
	frame := s.RunCycle(context.Background())
	if len(frame.Alerts) != 0 || frame.Panels[0].Threshold != 200 {
		t.Errorf("expected new threshold to apply, got alerts=%v threshold=%.0f", frame.Alerts, frame.Panels[0].Threshold)
	}

	if err := s.SetRule("MSFT", 10); !errors.Is(err, ErrUnknownSymbol) {
		t.Errorf("expected ErrUnknownSymbol, got %v", err)
	}
	for _, bad := range []float64{0, -5, math.Inf(1), math.NaN()} {
		if err := s.SetRule("AAPL", bad); !errors.Is(err, ErrInvalidThreshold) {
			t.Errorf("threshold %v: expected ErrInvalidThreshold, got %v", bad, err)
		}
	}
	if got := s.Rules(); got[0].Threshold != 200 {
		t.Errorf("rejected thresholds must not replace the rule, got %+v", got)
	}
}

func TestRunCycle_RenderErrorDoesNotStopLoop(t *testing.T) {
	m := &collector.MockFetcher{Price: 50}
	surface := &captureSurface{err: errors.New("display gone")}
	s := newTestScheduler(m, surface, []string{"AAPL"}, 100)

	if s.RunCycle(context.Background()) == nil {
		t.Fatal("expected a frame even when rendering fails")
	}
	if s.Status().Cycles != 1 {
		t.Error("cycle should still be counted")
	}
}

func TestRun_StopsOnCancel(t *testing.T) {
	m := &collector.MockFetcher{Price: 50}
	surface := &captureSurface{}
	s := newTestScheduler(m, surface, []string{"AAPL", "MSFT"}, 100)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Run(ctx) }()

	deadline := time.After(2 * time.Second)
	for surface.count() < 3 {
		select {
		case <-deadline:
			t.Fatalf("expected repeated cycles, got %d", surface.count())
		case <-time.After(5 * time.Millisecond):
		}
	}
	cancel()

	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Errorf("expected context.Canceled, got %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not stop after cancel")
	}
}

func TestRun_CronMode(t *testing.T) {
	m := &collector.MockFetcher{Price: 50}
	surface := &captureSurface{}
	col := collector.NewCollector(m, "1d", "1m", 1, 0)
	s := NewScheduler(col, surface, metrics.NewMetrics(), Options{
		Symbols:     []string{"AAPL"},
		Rules:       []model.AlertRule{{Symbol: "AAPL", Threshold: 100}},
		ShortWindow: 2,
		LongWindow:  3,
		Cron:        "@every 1h",
	})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Run(ctx) }()

	deadline := time.After(2 * time.Second)
	for surface.count() < 1 {
		select {
		case <-deadline:
			t.Fatal("expected the first cycle to run immediately")
		case <-time.After(5 * time.Millisecond):
		}
	}
	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("cron mode did not stop after cancel")
	}
}

func TestRun_InvalidCron(t *testing.T) {
	col := collector.NewCollector(&collector.MockFetcher{}, "1d", "1m", 1, 0)
	s := NewScheduler(col, &captureSurface{}, metrics.NewMetrics(), Options{Cron: "not a schedule"})
	if err := s.Run(context.Background()); err == nil {
		t.Error("expected error for invalid cron expression")
	}
}
