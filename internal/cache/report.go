// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package cache

import (
	"context"
	"time"

	"github.com/olegiv/pagelinks/internal/model"
)

// KeyLatestReport is shared by every process using the same backend.
const KeyLatestReport = "scan:latest"

// reportTTL keeps the latest report until a newer scan replaces it.
const reportTTL = 100 * 365 * 24 * time.Hour

// ReportCache keeps the most recent scan report so the dashboard can render
// without rescanning the store. Connections and orphans are never cached;
// they are computed from the store on every read.
type ReportCache struct {
	reports *TypedCache[model.ScanReport]
	backend Cacher
}

// NewReportCache wraps a Cacher.
func NewReportCache(c Cacher) *ReportCache {
	return &ReportCache{
		reports: NewTypedCache[model.ScanReport](c, reportTTL),
		backend: c,
	}
}

// Latest returns the last stored report, if any.
func (r *ReportCache) Latest(ctx context.Context) (*model.ScanReport, bool) {
	return r.reports.Get(ctx, KeyLatestReport)
}

// Store replaces the latest report.
func (r *ReportCache) Store(ctx context.Context, report *model.ScanReport) error {
	return r.reports.Set(ctx, KeyLatestReport, report)
}

// MarkStale flags the latest report as outdated after translations were
// rewritten. The report is kept as a record of what the scan saw.
func (r *ReportCache) MarkStale(ctx context.Context) error {
	report, ok := r.Latest(ctx)
	if !ok || report.Stale {
		return nil
	}
	report.Stale = true
	return r.Store(ctx, report)
}

// Backend returns the underlying cache.
func (r *ReportCache) Backend() Cacher {
	return r.backend
}
