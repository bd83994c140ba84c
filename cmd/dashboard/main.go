package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"QuoteBoard/internal/collector"
	"QuoteBoard/internal/config"
	"QuoteBoard/internal/dashboard"
	"QuoteBoard/internal/metrics"
	"QuoteBoard/internal/model"
	"QuoteBoard/internal/render"
	"QuoteBoard/internal/scheduler"

	"github.com/joho/godotenv"
)

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)

	defaultPath := "configs/config.yaml"
	if v := os.Getenv("CONFIG_PATH"); v != "" {
		defaultPath = v
	}
	cfgPath := flag.String("config", defaultPath, "path to the YAML config file")
	once := flag.Bool("once", false, "run a single polling cycle, render it and exit")
	flag.Parse()

	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Printf("[WARN] load .env: %v", err)
	}

	log.Println("[INFO] QuoteBoard starting...")

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		log.Fatalf("[FATAL] load config: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("[FATAL] config validation: %v", err)
	}

	// Init fetcher
	var fetcher collector.Fetcher
	switch cfg.DataSource.Provider {
	case "polygon":
		fetcher = collector.NewPolygonFetcher(cfg.DataSource.APIKey, cfg.Proxy)
	case "mock":
		fetcher = &collector.MockFetcher{Price: cfg.Alerts.Default}
	default:
		fetcher = collector.NewYahooFetcher(cfg.Proxy)
	}
	log.Printf("[INFO] data source: %s", fetcher.Name())

	col := collector.NewCollector(fetcher, cfg.DataSource.Period, cfg.DataSource.Interval,
		cfg.DataSource.Workers, cfg.DataSource.BufferSize)

	m := metrics.NewMetrics()
	hub := dashboard.NewHub(m)
	surfaces := render.Multi{hub}
	if cfg.TerminalEnabled() {
		surfaces = append(surfaces, render.NewText(os.Stdout))
	}

	rules := make([]model.AlertRule, 0, len(cfg.Symbols))
	for _, sym := range cfg.Symbols {
		rules = append(rules, model.AlertRule{Symbol: sym, Threshold: cfg.Threshold(sym)})
	}
	interval := time.Duration(cfg.RefreshSeconds) * time.Second
	sched := scheduler.NewScheduler(col, surfaces, m, scheduler.Options{
		Title:       cfg.Title,
		Symbols:     cfg.Symbols,
		Rules:       rules,
		ShortWindow: cfg.Indicators.ShortWindow,
		LongWindow:  cfg.Indicators.LongWindow,
		Interval:    interval,
		Cron:        cfg.Cron,
		Cooldown:    time.Duration(cfg.Alerts.CooldownSeconds) * time.Second,
	})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if *once {
		if sched.RunCycle(ctx) == nil {
			log.Println("[WARN] cycle interrupted before render")
		}
		return
	}

	staleAfter, err := cfg.StaleAfter(time.Now())
	if err != nil {
		log.Fatalf("[FATAL] health threshold: %v", err)
	}
	srv := dashboard.NewServer(cfg.Dashboard.Listen, hub, sched, m, staleAfter)
	go func() {
		if err := srv.ListenAndServe(); err != nil {
			log.Printf("[ERROR] dashboard server: %v", err)
			stop()
		}
	}()

	log.Println("[INFO] QuoteBoard is running. Press Ctrl+C to stop.")
	if err := sched.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		log.Printf("[ERROR] polling loop: %v", err)
	}

	log.Println("[INFO] shutdown signal received, stopping...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("[WARN] dashboard shutdown: %v", err)
	}
	log.Println("[INFO] QuoteBoard stopped")
}
