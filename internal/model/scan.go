// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package model

import "time"

// Scan triggers
const (
	ScanTriggerManual    = "manual"
	ScanTriggerScheduled = "scheduled"
	ScanTriggerCLI       = "cli"
)

// OrphanEntry is the persisted form of one dangling mapping entry found by a scan.
type OrphanEntry struct {
	ExistingPageID    int64  `json:"existing_page_id"`
	ExistingPageTitle string `json:"existing_page_title"`
	MissingPageID     int64  `json:"missing_page_id"`
	Lang              string `json:"lang"`
}

// ScanReport summarizes one reconciliation run over the translation store.
type ScanReport struct {
	ID           string        `json:"id"`
	Trigger      string        `json:"trigger"`
	PagesScanned int           `json:"pages_scanned"`
	Connections  int           `json:"connections"`
	Orphans      []OrphanEntry `json:"orphans"`
	Cleaned      int           `json:"cleaned"`
	Error        string        `json:"error,omitempty"`
	StartedAt    time.Time     `json:"started_at"`
	FinishedAt   time.Time     `json:"finished_at"`
	// Stale is set when translations changed after the scan finished.
	Stale        bool          `json:"stale,omitempty"`
}

// Duration returns how long the scan took.
func (r *ScanReport) Duration() time.Duration {
	return r.FinishedAt.Sub(r.StartedAt)
}

// HasOrphans returns true if the scan found dangling references.
func (r *ScanReport) HasOrphans() bool {
	return len(r.Orphans) > 0
}
