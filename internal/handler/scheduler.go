// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"fmt"
	"net/http"

	"github.com/olegiv/pagelinks/internal/middleware"
	"github.com/olegiv/pagelinks/internal/model"
	"github.com/olegiv/pagelinks/internal/render"
	"github.com/olegiv/pagelinks/internal/scheduler"
	"github.com/olegiv/pagelinks/internal/uikit"
)

// scanHistoryLimit is the number of past scans listed.
const scanHistoryLimit = 30

// ScansHandler shows scheduled jobs and scan history, and starts scans.
type ScansHandler struct {
	renderer  *render.Renderer
	scanner   *scheduler.Scanner
	scheduler *scheduler.Scheduler
}

// NewScansHandler creates a new ScansHandler. sched may be nil when
// scheduled scans are disabled.
func NewScansHandler(renderer *render.Renderer, scanner *scheduler.Scanner, sched *scheduler.Scheduler) *ScansHandler {
	return &ScansHandler{
		renderer:  renderer,
		scanner:   scanner,
		scheduler: sched,
	}
}

// ScanJobView represents a job for the template.
type ScanJobView struct {
	Name     string
	Schedule string
	LastRun  string
	NextRun  string
}

// ScanRunView represents one recorded scan for the template.
type ScanRunView struct {
	ID          string
	Trigger     string
	Pages       int
	Connections int
	Orphans     int
	Cleaned     int
	Error       string
	StartedAt   string
	Duration    string
}

// ScansListData holds all data for the scans page.
type ScansListData struct {
	Jobs []ScanJobView
	Runs []ScanRunView
}

func formatJobTime(job scheduler.JobInfo, lastRun bool) string {
	t := job.NextRun
	if lastRun {
		t = job.LastRun
	}
	if t.IsZero() {
		return "-"
	}
	return t.Format("2006-01-02 15:04:05")
}

// List handles GET /admin/scans.
func (h *ScansHandler) List(w http.ResponseWriter, r *http.Request) {
	var data ScansListData

	if h.scheduler != nil {
		for _, job := range h.scheduler.Jobs() {
			data.Jobs = append(data.Jobs, ScanJobView{
				Name:     job.Name,
				Schedule: job.Schedule,
				LastRun:  formatJobTime(job, true),
				NextRun:  formatJobTime(job, false),
			})
		}
	}

	reports, err := h.scanner.History(r.Context(), scanHistoryLimit)
	if err != nil {
		logAndInternalError(w, "failed to list scan history", "error", err)
		return
	}
	for _, rep := range reports {
		data.Runs = append(data.Runs, ScanRunView{
			ID:          rep.ID,
			Trigger:     rep.Trigger,
			Pages:       rep.PagesScanned,
			Connections: rep.Connections,
			Orphans:     len(rep.Orphans),
			Cleaned:     rep.Cleaned,
			Error:       rep.Error,
			StartedAt:   rep.StartedAt.Local().Format("2006-01-02 15:04:05"),
			Duration:    uikit.FormatDuration(rep.Duration()),
		})
	}

	renderPage(w, r, h.renderer, "admin/scans", render.TemplateData{
		Title:       "Scans",
		User:        middleware.GetUser(r),
		Data:        data,
		Breadcrumbs: uikit.Breadcrumbs("Scans", redirectAdminScans),
	})
}

// Run handles POST /admin/scans/run - scans the store now.
func (h *ScansHandler) Run(w http.ResponseWriter, r *http.Request) {
	report, err := h.scanner.Run(r.Context(), model.ScanTriggerManual)
	if err != nil {
		flashError(w, r, h.renderer, redirectAdminScans, "Scan failed: "+report.Error)
		return
	}

	msg := fmt.Sprintf("Scan finished: %d connections, %d orphaned references in %d pages.",
		report.Connections, len(report.Orphans), report.PagesScanned)
	flashType := render.FlashSuccess
	if report.HasOrphans() {
		flashType = render.FlashWarning
	}
	flashAndRedirect(w, r, h.renderer, redirectAdminScans, msg, flashType)
}
