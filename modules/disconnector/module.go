// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package disconnector is the admin surface for English/Italian translation
// links. It lists connected page pairs and orphaned references, and lets an
// administrator disconnect pairs, clean orphans and run scans on demand.
package disconnector

import (
	"context"
	_ "embed"
	"errors"
	"sync"

	"github.com/go-chi/chi/v5"

	"github.com/olegiv/pagelinks/internal/middleware"
	"github.com/olegiv/pagelinks/internal/model"
	"github.com/olegiv/pagelinks/internal/module"
)

//go:embed help.md
var helpMarkdown []byte

const (
	moduleName = "disconnector"
	adminURL   = "/admin/disconnector"

	// connectionsPerPage is the page size of the connections table.
	connectionsPerPage = 50
)

// Module implements module.Module for translation link maintenance.
type Module struct {
	module.BaseModule
	ctx *module.Context

	// traces holds the debug trace of each user's last action until the
	// page is shown again.
	tracesMu sync.Mutex
	traces   map[int64][]string
}

// New creates a new instance of the disconnector module.
func New() *Module {
	return &Module{
		BaseModule: module.NewBaseModule(
			moduleName,
			"1.0.0",
			"Disconnect English/Italian page translations and clean orphaned references",
		),
		traces: make(map[int64][]string),
	}
}

// Init initializes the module with the given context.
func (m *Module) Init(ctx *module.Context) error {
	if ctx.Reconciler == nil {
		return errors.New("disconnector: reconciler not configured")
	}
	m.ctx = ctx

	if ctx.Hooks != nil {
		ctx.Hooks.RegisterFunc(module.HookTranslationsChanged, "disconnector.stale-report", moduleName, m.onTranslationsChanged)
	}

	ctx.Logger.Info("Disconnector module initialized")
	return nil
}

// Shutdown performs cleanup when the module is shutting down.
func (m *Module) Shutdown() error {
	if m.ctx != nil {
		m.ctx.Logger.Info("Disconnector module shutting down")
	}
	return nil
}

// RegisterAdminRoutes registers admin routes for the module. Mutations
// require the admin role; viewers may only read.
func (m *Module) RegisterAdminRoutes(r chi.Router) {
	r.Route("/disconnector", func(r chi.Router) {
		r.Get("/", m.handleIndex)
		r.Get("/connections.json", m.handleConnectionsJSON)
		r.Get("/orphans.json", m.handleOrphansJSON)
		r.Get("/help", m.handleHelp)

		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireAdminWithEventLog(m.ctx.Events))
			r.Post("/disconnect", m.handleDisconnect)
			r.Post("/bulk", m.handleBulk)
			r.Post("/cleanup", m.handleCleanup)
			r.Post("/force-cleanup", m.handleForceCleanup)
			r.Post("/scan", m.handleScan)
		})
	})
}

// AdminURL returns the admin dashboard URL for the module.
func (m *Module) AdminURL() string {
	return adminURL
}

// SidebarLabel returns the display label for the admin sidebar.
func (m *Module) SidebarLabel() string {
	return "Translations"
}

// onTranslationsChanged flags the cached scan report as outdated.
func (m *Module) onTranslationsChanged(ctx context.Context, data any) (any, error) {
	if m.ctx.Reports == nil {
		return data, nil
	}
	if err := m.ctx.Reports.MarkStale(ctx); err != nil {
		m.ctx.Logger.Warn("failed to mark scan report stale", "error", err)
	}
	return data, nil
}

// pageLimit returns the configured ListPages limit.
func (m *Module) pageLimit() int {
	if m.ctx.Config == nil || m.ctx.Config.PageLimit == 0 {
		return -1
	}
	return m.ctx.Config.PageLimit
}

// loadPages lists the pages every report is derived from.
func (m *Module) loadPages(ctx context.Context) ([]model.Page, error) {
	return m.ctx.Reconciler.Store().ListPages(ctx, m.pageLimit())
}

// storeTrace keeps steps for userID until the next page view.
func (m *Module) storeTrace(userID int64, steps []string) {
	if len(steps) == 0 {
		return
	}
	m.tracesMu.Lock()
	defer m.tracesMu.Unlock()
	m.traces[userID] = steps
}

// popTrace returns and forgets the stored steps for userID.
func (m *Module) popTrace(userID int64) []string {
	m.tracesMu.Lock()
	defer m.tracesMu.Unlock()
	steps := m.traces[userID]
	delete(m.traces, userID)
	return steps
}
