package scheduler

import (
	"fmt"

	"github.com/robfig/cron/v3"

	"WeekendTrader/internal/fund"
	"WeekendTrader/internal/logger"
	"WeekendTrader/internal/model"
	"WeekendTrader/internal/recorder"
)

// Source provides the read-only projection the jobs work from.
type Source interface {
	Snapshot() model.Snapshot
}

// Scheduler manages all cron tasks.
type Scheduler struct {
	Cron      *cron.Cron
	Source    Source
	Recorder  recorder.Recorder
	StateFile string
	Log       *logger.Logger
}

// NewScheduler creates a new Scheduler. Specs use the six-field format with seconds.
func NewScheduler(src Source, rec recorder.Recorder, stateFile string, log *logger.Logger) *Scheduler {
	if log == nil {
		log = logger.Nop()
	}
	if rec == nil {
		rec = recorder.NewNoopRecorder()
	}
	return &Scheduler{
		Cron:      cron.New(cron.WithSeconds()),
		Source:    src,
		Recorder:  rec,
		StateFile: stateFile,
		Log:       log,
	}
}

// RegisterAll registers the account snapshot, state export and summary tasks.
func (s *Scheduler) RegisterAll(snapshotCron, exportCron, summaryCron string) error {
	if _, err := s.Cron.AddFunc(snapshotCron, s.guard("snapshot", s.RecordSnapshotNow)); err != nil {
		return fmt.Errorf("register snapshot task: %w", err)
	}
	if s.StateFile != "" {
		if _, err := s.Cron.AddFunc(exportCron, s.guard("export", s.ExportNow)); err != nil {
			return fmt.Errorf("register export task: %w", err)
		}
	}
	if _, err := s.Cron.AddFunc(summaryCron, s.guard("summary", s.SummaryNow)); err != nil {
		return fmt.Errorf("register summary task: %w", err)
	}
	return nil
}

// Start starts the cron scheduler.
func (s *Scheduler) Start() {
	s.Cron.Start()
	s.Log.Info("scheduler started", "jobs", len(s.Cron.Entries()))
}

// Stop stops the cron scheduler and waits for running jobs.
func (s *Scheduler) Stop() {
	<-s.Cron.Stop().Done()
	s.Log.Info("scheduler stopped")
}

// guard wraps a job so an error or panic is logged and never kills the cron runner.
func (s *Scheduler) guard(name string, job func() error) func() {
	return func() {
		defer func() {
			if r := recover(); r != nil {
				s.Log.Error("job panicked", "job", name, "panic", r)
			}
		}()
		if err := job(); err != nil {
			s.Log.Error("job failed", "job", name, "error", err)
		}
	}
}

// RecordSnapshotNow stores one account sample.
func (s *Scheduler) RecordSnapshotNow() error {
	snap := s.Source.Snapshot()
	err := s.Recorder.RecordAccount(&recorder.AccountSnapshot{
		Time:        snap.TakenAt,
		Balance:     snap.Account.Balance,
		Equity:      snap.Account.Equity,
		RealizedPnL: snap.RealizedPnL(),
		OpenTrades:  len(snap.OpenTrades()),
	})
	if err != nil {
		return fmt.Errorf("record account: %w", err)
	}
	return nil
}

// ExportNow writes the dashboard state file.
func (s *Scheduler) ExportNow() error {
	snap := s.Source.Snapshot()
	if err := fund.SaveSnapshot(s.StateFile, &snap); err != nil {
		return fmt.Errorf("export state: %w", err)
	}
	return nil
}

// SummaryNow logs the account summary.
func (s *Scheduler) SummaryNow() error {
	snap := s.Source.Snapshot()
	s.Log.Info("daily summary\n" + FormatSummary(&snap))
	return nil
}
