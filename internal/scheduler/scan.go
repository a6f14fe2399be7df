// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package scheduler

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/olegiv/pagelinks/internal/cache"
	"github.com/olegiv/pagelinks/internal/model"
	"github.com/olegiv/pagelinks/internal/service"
	"github.com/olegiv/pagelinks/internal/store"
	"github.com/olegiv/pagelinks/internal/translink"
)

// ScanJobName is the cron job name of the periodic scan.
const ScanJobName = "translation-scan"

// ScannerConfig wires a Scanner.
type ScannerConfig struct {
	Reconciler  *translink.Reconciler
	DB          *sql.DB // scan_runs history
	Reports     *cache.ReportCache
	Events      *service.EventService
	Logger      *slog.Logger
	AutoCleanup bool
	PageLimit   int

	// OnComplete runs after every scan, failed or not.
	OnComplete func(ctx context.Context, report *model.ScanReport)
}

// Scanner runs FindOrphans over every page and records the outcome.
// Only one scan runs at a time.
type Scanner struct {
	cfg     ScannerConfig
	queries *store.Queries
	logger  *slog.Logger
	mu      sync.Mutex
}

// NewScanner creates a Scanner. Reports and Events are optional.
func NewScanner(cfg ScannerConfig) *Scanner {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.PageLimit == 0 {
		cfg.PageLimit = -1
	}
	s := &Scanner{cfg: cfg, logger: logger}
	if cfg.DB != nil {
		s.queries = store.New(cfg.DB)
	}
	return s
}

// Run scans the store and returns the report. A report is returned even when
// the scan fails so the failure is visible on the dashboard.
func (s *Scanner) Run(ctx context.Context, trigger string) (*model.ScanReport, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	report := &model.ScanReport{
		ID:        uuid.NewString(),
		Trigger:   trigger,
		Orphans:   []model.OrphanEntry{},
		StartedAt: time.Now().UTC(),
	}

	err := s.scan(ctx, report)
	report.FinishedAt = time.Now().UTC()
	if err != nil {
		report.Error = err.Error()
		s.logger.Error("translation scan failed", "scan_id", report.ID, "trigger", trigger, "error", err)
	} else {
		s.logger.Info("translation scan finished",
			"scan_id", report.ID,
			"trigger", trigger,
			"pages", report.PagesScanned,
			"connections", report.Connections,
			"orphans", len(report.Orphans),
			"cleaned", report.Cleaned,
			"duration", report.Duration(),
		)
	}

	s.record(ctx, report)
	if s.cfg.OnComplete != nil {
		s.cfg.OnComplete(ctx, report)
	}
	return report, err
}

func (s *Scanner) scan(ctx context.Context, report *model.ScanReport) error {
	r := s.cfg.Reconciler
	pages, err := r.Store().ListPages(ctx, s.cfg.PageLimit)
	if err != nil {
		return fmt.Errorf("listing pages: %w", err)
	}
	report.PagesScanned = len(pages)

	pairs, err := r.DiscoverConnections(ctx, pages)
	if err != nil {
		return fmt.Errorf("discovering connections: %w", err)
	}
	report.Connections = len(pairs)

	var orphans []translink.OrphanedReference
	if s.cfg.AutoCleanup {
		summary, err := r.CleanupAllOrphans(ctx, pages)
		if err != nil {
			return fmt.Errorf("cleaning orphans: %w", err)
		}
		orphans = summary.Orphans
		report.Cleaned = summary.Cleaned
	} else {
		orphans, err = r.FindOrphans(ctx, pages)
		if err != nil {
			return fmt.Errorf("finding orphans: %w", err)
		}
	}

	for _, o := range orphans {
		report.Orphans = append(report.Orphans, o.Entry())
	}
	return nil
}

// record persists the report to history, cache and the event log. Failures
// are logged and never fail the scan.
func (s *Scanner) record(ctx context.Context, report *model.ScanReport) {
	// Recording must survive a cancelled request.
	ctx = context.WithoutCancel(ctx)

	if s.queries != nil {
		orphansJSON, _ := json.Marshal(report.Orphans)
		err := s.queries.CreateScanRun(ctx, store.CreateScanRunParams{
			ID:           report.ID,
			Trigger:      report.Trigger,
			PagesScanned: int64(report.PagesScanned),
			Connections:  int64(report.Connections),
			Orphans:      int64(len(report.Orphans)),
			Cleaned:      int64(report.Cleaned),
			OrphansJson:  string(orphansJSON),
			Error:        report.Error,
			StartedAt:    report.StartedAt,
			FinishedAt:   report.FinishedAt,
		})
		if err != nil {
			s.logger.Warn("failed to record scan run", "scan_id", report.ID, "error", err)
		}
	}

	if s.cfg.Reports != nil {
		if err := s.cfg.Reports.Store(ctx, report); err != nil {
			s.logger.Warn("failed to cache scan report", "scan_id", report.ID, "error", err)
		}
	}

	if s.cfg.Events != nil {
		level := model.EventLevelInfo
		message := fmt.Sprintf("Scan found %d orphaned references in %d pages", len(report.Orphans), report.PagesScanned)
		switch {
		case report.Error != "":
			level = model.EventLevelError
			message = "Scan failed: " + report.Error
		case report.HasOrphans() && report.Cleaned == 0:
			level = model.EventLevelWarning
		}
		_ = s.cfg.Events.LogSchedulerEvent(ctx, level, message, map[string]any{
			"scan_id": report.ID,
			"trigger": report.Trigger,
			"cleaned": report.Cleaned,
		})
	}
}

// Latest returns the newest report from the cache, falling back to the
// scan_runs history. It returns nil when no scan has run yet.
func (s *Scanner) Latest(ctx context.Context) (*model.ScanReport, error) {
	if s.cfg.Reports != nil {
		if report, ok := s.cfg.Reports.Latest(ctx); ok {
			return report, nil
		}
	}
	if s.queries == nil {
		return nil, nil
	}

	run, err := s.queries.GetLatestScanRun(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("loading latest scan run: %w", err)
	}
	return reportFromRun(run), nil
}

// History returns up to limit recorded scans, newest first.
func (s *Scanner) History(ctx context.Context, limit int64) ([]model.ScanReport, error) {
	if s.queries == nil {
		return nil, nil
	}
	runs, err := s.queries.ListScanRuns(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("listing scan runs: %w", err)
	}
	reports := make([]model.ScanReport, 0, len(runs))
	for _, run := range runs {
		reports = append(reports, *reportFromRun(run))
	}
	return reports, nil
}

// Prune deletes scan history older than keep.
func (s *Scanner) Prune(ctx context.Context, keep time.Duration) (int64, error) {
	if s.queries == nil {
		return 0, nil
	}
	return s.queries.DeleteScanRunsBefore(ctx, time.Now().UTC().Add(-keep))
}

// Schedule registers the scan with sched under ScanJobName.
func (s *Scanner) Schedule(sched *Scheduler, schedule string) error {
	return sched.AddJob(ScanJobName, schedule, func() {
		_, _ = s.Run(context.Background(), model.ScanTriggerScheduled)
	})
}

func reportFromRun(run store.ScanRun) *model.ScanReport {
	report := &model.ScanReport{
		ID:           run.ID,
		Trigger:      run.Trigger,
		PagesScanned: int(run.PagesScanned),
		Connections:  int(run.Connections),
		Cleaned:      int(run.Cleaned),
		Error:        run.Error,
		StartedAt:    run.StartedAt,
		FinishedAt:   run.FinishedAt,
	}
	if err := json.Unmarshal([]byte(run.OrphansJson), &report.Orphans); err != nil || report.Orphans == nil {
		report.Orphans = []model.OrphanEntry{}
	}
	return report
}
