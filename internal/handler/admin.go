// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"database/sql"
	"log/slog"
	"net/http"

	"github.com/olegiv/pagelinks/internal/middleware"
	"github.com/olegiv/pagelinks/internal/model"
	"github.com/olegiv/pagelinks/internal/render"
	"github.com/olegiv/pagelinks/internal/scheduler"
	"github.com/olegiv/pagelinks/internal/store"
)

// dashboardEventLimit is the number of recent events on the dashboard.
const dashboardEventLimit = 10

// DashboardStats holds the counters shown on the dashboard.
type DashboardStats struct {
	Users       int64
	Events      int64
	Pages       int
	Connections int
	Orphans     int
	Cleaned     int
}

// DashboardData holds data for the dashboard template.
type DashboardData struct {
	Backend      string
	Stats        DashboardStats
	LatestScan   *model.ScanReport
	LastScanAgo  string
	Jobs         []scheduler.JobInfo
	RecentEvents []EventView
}

// AdminHandler handles admin dashboard routes.
type AdminHandler struct {
	queries   *store.Queries
	renderer  *render.Renderer
	scanner   *scheduler.Scanner
	scheduler *scheduler.Scheduler
	backend   string
}

// NewAdminHandler creates a new AdminHandler. scanner and sched may be nil.
func NewAdminHandler(db *sql.DB, renderer *render.Renderer, scanner *scheduler.Scanner, sched *scheduler.Scheduler, backend string) *AdminHandler {
	return &AdminHandler{
		queries:   store.New(db),
		renderer:  renderer,
		scanner:   scanner,
		scheduler: sched,
		backend:   backend,
	}
}

// Dashboard handles GET /admin.
func (h *AdminHandler) Dashboard(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	data := DashboardData{Backend: h.backend}

	var err error
	if data.Stats.Users, err = h.queries.CountUsers(ctx); err != nil {
		slog.Error("failed to count users", "error", err)
	}
	if data.Stats.Events, err = h.queries.CountEvents(ctx); err != nil {
		slog.Error("failed to count events", "error", err)
	}

	if h.scanner != nil {
		report, err := h.scanner.Latest(ctx)
		if err != nil {
			slog.Error("failed to load latest scan", "error", err)
		}
		if report != nil {
			data.LatestScan = report
			data.LastScanAgo = formatTimeAgo(report.FinishedAt)
			data.Stats.Pages = report.PagesScanned
			data.Stats.Connections = report.Connections
			data.Stats.Orphans = len(report.Orphans)
			data.Stats.Cleaned = report.Cleaned
		}
	}

	if h.scheduler != nil {
		data.Jobs = h.scheduler.Jobs()
	}

	events, err := h.queries.ListEvents(ctx, store.ListEventsParams{Limit: dashboardEventLimit})
	if err != nil {
		slog.Error("failed to list recent events", "error", err)
	}
	data.RecentEvents = newEventViews(events)

	renderPage(w, r, h.renderer, "admin/dashboard", render.TemplateData{
		Title: "Dashboard",
		User:  middleware.GetUser(r),
		Data:  data,
		Breadcrumbs: []render.Breadcrumb{
			{Label: "Dashboard", Active: true},
		},
	})
}
