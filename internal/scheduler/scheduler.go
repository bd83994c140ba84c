package scheduler

import (
	"context"
	"errors"
	"fmt"
	"log"
	"math"
	"sync"
	"sync/atomic"
	"time"

	"QuoteBoard/internal/alert"
	"QuoteBoard/internal/calculator"
	"QuoteBoard/internal/collector"
	"QuoteBoard/internal/metrics"
	"QuoteBoard/internal/model"
	"QuoteBoard/internal/render"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"
)

// State is the polling loop state.
type State int32

const (
	Idle State = iota
	Fetching
)

func (s State) String() string {
	if s == Fetching {
		return "fetching"
	}
	return "idle"
}

// ErrUnknownSymbol is returned when a rule targets a symbol that is not tracked.
var ErrUnknownSymbol = errors.New("symbol is not tracked")

// ErrInvalidThreshold is returned for a non-positive or non-finite alert threshold.
var ErrInvalidThreshold = errors.New("threshold must be positive")

// Options configures a Scheduler.
type Options struct {
	Title       string
	Symbols     []string
	Rules       []model.AlertRule
	ShortWindow int
	LongWindow  int
	// Interval is the sleep after each cycle in sleep mode.
	Interval time.Duration
	// Cron, when set, drives cycles on a wall-clock schedule instead.
	Cron     string
	Cooldown time.Duration
}

// Scheduler runs the polling loop: fetch every symbol, compute indicators,
// evaluate alerts, render one frame, then wait for the next cycle.
type Scheduler struct {
	Collector *collector.Collector
	Surface   render.Surface
	Metrics   *metrics.Metrics
	Cooldown  *alert.Cooldown

	opts Options
	now  func() time.Time

	mu      sync.Mutex
	rules   map[string]float64
	pending map[string]float64

	state      atomic.Int32
	cycles     atomic.Int64
	lastUpdate atomic.Int64 // unix nanos
}

// NewScheduler creates a new Scheduler.
func NewScheduler(col *collector.Collector, surface render.Surface, m *metrics.Metrics, opts Options) *Scheduler {
	rules := make(map[string]float64, len(opts.Rules))
	for _, r := range opts.Rules {
		rules[r.Symbol] = r.Threshold
	}
	return &Scheduler{
		Collector: col,
		Surface:   surface,
		Metrics:   m,
		Cooldown:  alert.NewCooldown(opts.Cooldown),
		opts:      opts,
		now:       time.Now,
		rules:     rules,
		pending:   make(map[string]float64),
	}
}

// Run blocks until ctx is cancelled, running cycles in sleep mode or,
// if configured, cron mode. It returns ctx.Err().
func (s *Scheduler) Run(ctx context.Context) error {
	if s.opts.Cron != "" {
		return s.runCron(ctx)
	}
	log.Printf("[INFO] polling %d symbols every %v after each cycle", len(s.opts.Symbols), s.opts.Interval)
	for {
		s.RunCycle(ctx)

		timer := time.NewTimer(s.opts.Interval)
		select {
		case <-ctx.Done():
			timer.Stop()
			log.Println("[INFO] polling loop stopped")
			return ctx.Err()
		case <-timer.C:
		}
	}
}

func (s *Scheduler) runCron(ctx context.Context) error {
	c := cron.New(
		cron.WithParser(cronParser),
		cron.WithChain(cron.SkipIfStillRunning(cron.DefaultLogger)),
	)
	if _, err := c.AddFunc(s.opts.Cron, func() { s.RunCycle(ctx) }); err != nil {
		return fmt.Errorf("register polling cycle: %w", err)
	}
	log.Printf("[INFO] polling %d symbols on schedule %q", len(s.opts.Symbols), s.opts.Cron)

	s.RunCycle(ctx)
	c.Start()
	<-ctx.Done()
	<-c.Stop().Done()
	log.Println("[INFO] polling loop stopped")
	return ctx.Err()
}

// cronParser accepts 5- or 6-field expressions and descriptors like "@every 1m".
var cronParser = cron.NewParser(
	cron.SecondOptional | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor,
)

// RunCycle performs one Fetching pass and renders the resulting frame.
// It returns nil if ctx was cancelled before the frame could be rendered.
func (s *Scheduler) RunCycle(ctx context.Context) *model.Frame {
	rules := s.applyPending()

	s.state.Store(int32(Fetching))
	defer s.state.Store(int32(Idle))

	start := s.now()
	results := s.Collector.CollectAll(ctx, s.opts.Symbols)
	if ctx.Err() != nil {
		return nil
	}

	frame := &model.Frame{
		ID:    uuid.NewString(),
		Title: s.opts.Title,
	}
	for _, r := range results {
		s.Metrics.FetchDuration.WithLabelValues(r.Symbol).Observe(r.Elapsed.Seconds())
		if r.Err != nil {
			log.Printf("[WARN] %v", r.Err)
			s.Metrics.FetchFailures.WithLabelValues(r.Symbol).Inc()
			s.Cooldown.Filter(r.Symbol, nil, s.now())
			frame.Failures = append(frame.Failures, model.SymbolFailure{Symbol: r.Symbol, Error: r.Err.Error()})
			continue
		}

		rule := model.AlertRule{Symbol: r.Symbol, Threshold: rules[r.Symbol]}
		panel := s.buildPanel(r.Series, rule)
		if panel.Alert != nil {
			frame.Alerts = append(frame.Alerts, *panel.Alert)
			s.Metrics.AlertsFired.WithLabelValues(r.Symbol).Inc()
		}
		frame.Panels = append(frame.Panels, panel)
	}
	frame.UpdatedAt = s.now()

	if err := s.Surface.Render(ctx, frame); err != nil {
		log.Printf("[ERROR] render frame: %v", err)
		s.Metrics.RenderFailures.Inc()
	}

	s.cycles.Add(1)
	s.lastUpdate.Store(frame.UpdatedAt.UnixNano())
	s.Metrics.CyclesTotal.Inc()
	s.Metrics.CycleDuration.Observe(frame.UpdatedAt.Sub(start).Seconds())
	s.Metrics.LastUpdate.Set(float64(frame.UpdatedAt.Unix()))
	return frame
}

// buildPanel computes indicators and evaluates the alert for one symbol.
func (s *Scheduler) buildPanel(series model.QuoteSeries, rule model.AlertRule) model.Panel {
	panel := model.Panel{Symbol: series.Symbol, Threshold: rule.Threshold}

	evt, err := alert.EvaluateSeries(rule, series)
	if errors.Is(err, alert.ErrNoData) {
		log.Printf("[WARN] %v", err)
		s.Metrics.EmptySeries.WithLabelValues(series.Symbol).Inc()
		s.Cooldown.Filter(series.Symbol, nil, s.now())
		panel.NoData = true
		panel.Notes = []string{"no data for symbol"}
		return panel
	}
	panel.Alert = s.Cooldown.Filter(series.Symbol, evt, s.now())

	quotes := series.Quotes
	latest := quotes[len(quotes)-1]
	panel.LatestClose = latest.Close
	panel.Candles = quotes
	s.Metrics.LatestClose.WithLabelValues(series.Symbol).Set(latest.Close)

	if r, err := calculator.SessionRange(quotes); err == nil {
		panel.High, panel.Low, panel.RangePos = r.High, r.Low, r.Position
	}

	closes := calculator.Closes(quotes)
	panel.Lines = append(panel.Lines, lineSeries(render.CloseLabel, quotes, prices(closes)))
	for _, w := range []int{s.opts.ShortWindow, s.opts.LongWindow} {
		label := fmt.Sprintf("MA%d", w)
		ma, err := calculator.MovingAverage(closes, w)
		if err != nil {
			log.Printf("[WARN] %s %s: %v", series.Symbol, label, err)
			continue
		}
		if len(closes) < w {
			panel.Notes = append(panel.Notes, fmt.Sprintf("%s needs %d samples, have %d", label, w, len(closes)))
		}
		panel.Lines = append(panel.Lines, lineSeries(label, quotes, ma))
	}
	return panel
}

func lineSeries(label string, quotes []model.Quote, values []model.OptionalPrice) model.LineSeries {
	points := make([]model.Point, len(quotes))
	for i, q := range quotes {
		points[i] = model.Point{Time: q.Time, Value: values[i]}
	}
	return model.LineSeries{Label: label, Points: points}
}

func prices(vals []float64) []model.OptionalPrice {
	out := make([]model.OptionalPrice, len(vals))
	for i, v := range vals {
		out[i] = model.Price(v)
	}
	return out
}

// SetRule replaces the threshold for symbol. It takes effect at the start
// of the next cycle; a cycle in progress keeps the rules it started with.
func (s *Scheduler) SetRule(symbol string, threshold float64) error {
	if !s.tracks(symbol) {
		return fmt.Errorf("%s: %w", symbol, ErrUnknownSymbol)
	}
	if !(threshold > 0) || math.IsInf(threshold, 0) {
		return fmt.Errorf("%s: %w", symbol, ErrInvalidThreshold)
	}
	s.mu.Lock()
	s.pending[symbol] = threshold
	s.mu.Unlock()
	log.Printf("[INFO] alert threshold for %s set to %.2f (next cycle)", symbol, threshold)
	return nil
}

// Rules returns the rules the next cycle will use, in symbol order.
func (s *Scheduler) Rules() []model.AlertRule {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]model.AlertRule, 0, len(s.opts.Symbols))
	for _, sym := range s.opts.Symbols {
		t := s.rules[sym]
		if p, ok := s.pending[sym]; ok {
			t = p
		}
		out = append(out, model.AlertRule{Symbol: sym, Threshold: t})
	}
	return out
}

func (s *Scheduler) applyPending() map[string]float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	for sym, t := range s.pending {
		s.rules[sym] = t
	}
	clear(s.pending)
	snapshot := make(map[string]float64, len(s.rules))
	for sym, t := range s.rules {
		snapshot[sym] = t
	}
	return snapshot
}

func (s *Scheduler) tracks(symbol string) bool {
	for _, sym := range s.opts.Symbols {
		if sym == symbol {
			return true
		}
	}
	return false
}

// Status is a point-in-time view of the loop for health checks.
type Status struct {
	State      string    `json:"state"`
	Cycles     int64     `json:"cycles"`
	LastUpdate time.Time `json:"last_update"`
}

// Status returns the current loop status.
func (s *Scheduler) Status() Status {
	st := Status{
		State:  State(s.state.Load()).String(),
		Cycles: s.cycles.Load(),
	}
	if ns := s.lastUpdate.Load(); ns != 0 {
		st.LastUpdate = time.Unix(0, ns)
	}
	return st
}
