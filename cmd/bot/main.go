package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"WeekendTrader/internal/config"
	"WeekendTrader/internal/confirm"
	"WeekendTrader/internal/engine"
	"WeekendTrader/internal/feed"
	"WeekendTrader/internal/fund"
	"WeekendTrader/internal/logger"
	"WeekendTrader/internal/recorder"
	"WeekendTrader/internal/risk"
	"WeekendTrader/internal/scheduler"
	"WeekendTrader/internal/web"
)

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)
	log.Println("[INFO] WeekendTrader starting...")

	// Load config
	cfgPath := "configs/config.yaml"
	if v := os.Getenv("CONFIG_PATH"); v != "" {
		cfgPath = v
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		log.Fatalf("[FATAL] load config: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("[FATAL] config validation: %v", err)
	}
	vwapReset, err := cfg.VWAPSchedule()
	if err != nil {
		log.Fatalf("[FATAL] vwap reset: %v", err)
	}

	lg := logger.New(cfg.Logging.Level)

	// Init recorder
	var rec recorder.Recorder
	if cfg.Database.SQLitePath != "" {
		sr, err := recorder.NewSQLiteRecorder(cfg.Database.SQLitePath, lg.With("component", "recorder"))
		if err != nil {
			log.Printf("[WARN] init sqlite recorder failed, using noop: %v", err)
			rec = recorder.NewNoopRecorder()
		} else {
			rec = sr
		}
	} else {
		rec = recorder.NewNoopRecorder()
	}
	journal := recorder.NewAsync(rec, 1024, lg.With("component", "journal"))
	defer journal.Close()

	// Decision board for the external confirmation layer
	board := confirm.NewBoard(cfg.Confirm.VetoTTL, cfg.Confirm.MinConfidence, time.Now, lg.With("component", "confirm"))

	// Engine
	acct := fund.NewAccountant(cfg.Account.StartingBalance, cfg.Account.MarkToMarket)
	eng := engine.New(acct, engine.Options{
		Symbols:      cfg.SymbolSettings(),
		Sizing:       risk.NewPolicy(cfg.Risk.PerTrade),
		Spread:       cfg.Market.Spread,
		HistoryLimit: cfg.Market.HistoryLimit,
		VWAPReset:    vwapReset,
		Recorder:     journal,
		Vetoer:       board,
		Log:          lg,
	})
	log.Printf("[INFO] symbols: %v, balance %.2f", eng.Symbols(), acct.Account().Balance)

	// Init scheduler
	sched := scheduler.NewScheduler(eng, journal, cfg.Account.StateFile, lg.With("component", "scheduler"))
	if err := sched.RegisterAll(cfg.Schedule.SnapshotCron, cfg.Schedule.ExportCron, cfg.Schedule.SummaryCron); err != nil {
		log.Fatalf("[FATAL] register cron tasks: %v", err)
	}
	sched.Start()
	defer sched.Stop()

	// Web
	srv := web.NewServer(cfg.Web.Addr, eng, board, lg.With("component", "web"))
	go func() {
		if err := srv.Start(); err != nil {
			log.Printf("[ERROR] %v", err)
		}
	}()

	// Feed
	stopFeed := eng.Run(feed.NewSyntheticFeed(cfg.Market.Speedup))
	log.Println("[INFO] WeekendTrader is running. Press Ctrl+C to stop.")

	// Wait for shutdown signal
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	log.Println("[INFO] shutdown signal received, stopping...")
	stopFeed()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Printf("[WARN] web shutdown: %v", err)
	}
	if err := sched.ExportNow(); err != nil {
		log.Printf("[WARN] final export: %v", err)
	}
	log.Println("[INFO] WeekendTrader stopped")
}
