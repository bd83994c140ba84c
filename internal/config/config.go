package config

import (
	"errors"
	"fmt"
	"math"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/robfig/cron/v3"
	"gopkg.in/yaml.v3"
)

// ErrInvalidConfig is wrapped by every validation failure.
var ErrInvalidConfig = errors.New("invalid configuration")

// Refresh interval bounds, in seconds.
const (
	MinRefreshSeconds = 10
	MaxRefreshSeconds = 300
)

// Config holds all application configuration.
type Config struct {
	Title          string   `yaml:"title"`
	Symbols        []string `yaml:"symbols"`
	RefreshSeconds int      `yaml:"refresh_interval"`
	// Cron, when set, drives cycles on a wall-clock schedule instead of
	// sleeping RefreshSeconds after each cycle.
	Cron string `yaml:"cron"`
	Alerts struct {
		Default         float64            `yaml:"default"`
		Thresholds      map[string]float64 `yaml:"thresholds"`
		CooldownSeconds int                `yaml:"cooldown_seconds"`
	} `yaml:"alerts"`
	Indicators struct {
		ShortWindow int `yaml:"short_window"`
		LongWindow  int `yaml:"long_window"`
	} `yaml:"indicators"`
	DataSource struct {
		Provider   string `yaml:"provider"` // yahoo, polygon, mock
		APIKey     string `yaml:"api_key"`
		Period     string `yaml:"period"`
		Interval   string `yaml:"interval"`
		Workers    int    `yaml:"workers"`
		BufferSize int    `yaml:"buffer_size"`
	} `yaml:"data_source"`
	Dashboard struct {
		Listen   string `yaml:"listen"`
		Terminal *bool  `yaml:"terminal"`
	} `yaml:"dashboard"`
	Proxy string `yaml:"proxy"`
}

// Load reads config from a YAML file, then applies environment variable overrides.
// A missing file is not an error: defaults apply.
func Load(path string) (*Config, error) {
	cfg := &Config{}

	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if len(data) > 0 {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	// Environment variable overrides
	if v := os.Getenv("DASHBOARD_SYMBOLS"); v != "" {
		cfg.Symbols = splitSymbols(v)
	}
	if v := os.Getenv("REFRESH_INTERVAL"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return nil, fmt.Errorf("%w: REFRESH_INTERVAL %q is not an integer", ErrInvalidConfig, v)
		}
		cfg.RefreshSeconds = n
	}
	if v := os.Getenv("DASHBOARD_CRON"); v != "" {
		cfg.Cron = v
	}
	if v := os.Getenv("DATA_PROVIDER"); v != "" {
		cfg.DataSource.Provider = v
	}
	if v := os.Getenv("POLYGON_API_KEY"); v != "" {
		cfg.DataSource.APIKey = v
	}
	if v := os.Getenv("DASHBOARD_LISTEN"); v != "" {
		cfg.Dashboard.Listen = v
	}
	if v := os.Getenv("HTTPS_PROXY"); v != "" {
		cfg.Proxy = v
	}

	cfg.applyDefaults()
	return cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Title == "" {
		c.Title = "Real-Time Stock Price Dashboard"
	}
	if len(c.Symbols) == 0 {
		c.Symbols = []string{"AAPL", "MSFT"}
	}
	for i, s := range c.Symbols {
		c.Symbols[i] = strings.ToUpper(strings.TrimSpace(s))
	}
	if c.RefreshSeconds == 0 {
		c.RefreshSeconds = 60
	}
	if c.Alerts.Default == 0 {
		c.Alerts.Default = 100.0
	}
	if c.Indicators.ShortWindow == 0 {
		c.Indicators.ShortWindow = 20
	}
	if c.Indicators.LongWindow == 0 {
		c.Indicators.LongWindow = 50
	}
	if c.DataSource.Provider == "" {
		c.DataSource.Provider = "yahoo"
	}
	c.DataSource.Provider = strings.ToLower(c.DataSource.Provider)
	if c.DataSource.Period == "" {
		c.DataSource.Period = "1d"
	}
	if c.DataSource.Interval == "" {
		c.DataSource.Interval = "1m"
	}
	if c.DataSource.Workers == 0 {
		c.DataSource.Workers = 4
	}
	if c.Dashboard.Listen == "" {
		c.Dashboard.Listen = ":8080"
	}
	if c.Dashboard.Terminal == nil {
		on := true
		c.Dashboard.Terminal = &on
	}
}

// Threshold returns the alert threshold for symbol, falling back to the default.
func (c *Config) Threshold(symbol string) float64 {
	if t, ok := c.Alerts.Thresholds[symbol]; ok {
		return t
	}
	if t, ok := c.Alerts.Thresholds[strings.ToLower(symbol)]; ok {
		return t
	}
	return c.Alerts.Default
}

// TerminalEnabled reports whether frames are also printed to stdout.
func (c *Config) TerminalEnabled() bool {
	return c.Dashboard.Terminal == nil || *c.Dashboard.Terminal
}

// Validate checks the configuration before the polling loop starts.
func (c *Config) Validate() error {
	if len(c.Symbols) == 0 {
		return fmt.Errorf("%w: at least one symbol is required", ErrInvalidConfig)
	}
	seen := make(map[string]bool, len(c.Symbols))
	for _, s := range c.Symbols {
		if s == "" {
			return fmt.Errorf("%w: empty symbol", ErrInvalidConfig)
		}
		if seen[s] {
			return fmt.Errorf("%w: duplicate symbol %s", ErrInvalidConfig, s)
		}
		seen[s] = true
		if t := c.Threshold(s); !ValidThreshold(t) {
			return fmt.Errorf("%w: alert threshold for %s must be a positive finite number, got %v", ErrInvalidConfig, s, t)
		}
	}
	if c.Cron != "" {
		if _, err := cronParser.Parse(c.Cron); err != nil {
			return fmt.Errorf("%w: cron %q: %v", ErrInvalidConfig, c.Cron, err)
		}
	}
	if c.Cron == "" && (c.RefreshSeconds < MinRefreshSeconds || c.RefreshSeconds > MaxRefreshSeconds) {
		return fmt.Errorf("%w: refresh_interval must be in [%d, %d] seconds, got %d",
			ErrInvalidConfig, MinRefreshSeconds, MaxRefreshSeconds, c.RefreshSeconds)
	}
	if c.Alerts.CooldownSeconds < 0 {
		return fmt.Errorf("%w: alerts.cooldown_seconds must not be negative", ErrInvalidConfig)
	}
	if c.Indicators.ShortWindow <= 0 || c.Indicators.LongWindow <= 0 {
		return fmt.Errorf("%w: indicator windows must be positive", ErrInvalidConfig)
	}
	if c.DataSource.Workers < 1 {
		return fmt.Errorf("%w: data_source.workers must be at least 1", ErrInvalidConfig)
	}
	if c.DataSource.BufferSize < 0 {
		return fmt.Errorf("%w: data_source.buffer_size must not be negative", ErrInvalidConfig)
	}
	switch c.DataSource.Provider {
	case "yahoo", "mock":
	case "polygon":
		if c.DataSource.APIKey == "" {
			return fmt.Errorf("%w: data_source.api_key (POLYGON_API_KEY) is required for polygon", ErrInvalidConfig)
		}
	default:
		return fmt.Errorf("%w: unknown data_source.provider %q", ErrInvalidConfig, c.DataSource.Provider)
	}
	return nil
}

// ValidThreshold reports whether t can be used as an alert threshold.
func ValidThreshold(t float64) bool {
	return t > 0 && !math.IsInf(t, 0)
}

// CyclePeriod returns the expected time between two cycles: the refresh
// interval in sleep mode, or the gap between the schedule's next two
// activations after now in cron mode.
func (c *Config) CyclePeriod(now time.Time) (time.Duration, error) {
	if c.Cron == "" {
		return time.Duration(c.RefreshSeconds) * time.Second, nil
	}
	sched, err := cronParser.Parse(c.Cron)
	if err != nil {
		return 0, fmt.Errorf("%w: cron %q: %v", ErrInvalidConfig, c.Cron, err)
	}
	first := sched.Next(now)
	return sched.Next(first).Sub(first), nil
}

// StaleAfter is how long the dashboard may go without a new frame before
// it is reported stale: three missed cycles plus a minute of fetch slack.
func (c *Config) StaleAfter(now time.Time) (time.Duration, error) {
	period, err := c.CyclePeriod(now)
	if err != nil {
		return 0, err
	}
	return 3*period + time.Minute, nil
}

var cronParser = cron.NewParser(
	cron.SecondOptional | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor,
)

func splitSymbols(v string) []string {
	var out []string
	for _, s := range strings.Split(v, ",") {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}
