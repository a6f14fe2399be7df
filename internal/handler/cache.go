// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"log/slog"
	"net/http"

	"github.com/olegiv/pagelinks/internal/cache"
	"github.com/olegiv/pagelinks/internal/middleware"
	"github.com/olegiv/pagelinks/internal/model"
	"github.com/olegiv/pagelinks/internal/render"
	"github.com/olegiv/pagelinks/internal/service"
	"github.com/olegiv/pagelinks/internal/uikit"
)

// CacheHandler handles cache management routes.
type CacheHandler struct {
	renderer     *render.Renderer
	reports      *cache.ReportCache
	backendName  string
	eventService *service.EventService
}

// NewCacheHandler creates a new CacheHandler.
func NewCacheHandler(renderer *render.Renderer, reports *cache.ReportCache, backendName string, es *service.EventService) *CacheHandler {
	return &CacheHandler{
		renderer:     renderer,
		reports:      reports,
		backendName:  backendName,
		eventService: es,
	}
}

// CacheStatsData holds data for the cache stats template.
type CacheStatsData struct {
	Backend     string
	Stats       cache.Stats
	HasStats    bool
	HasReport   bool
	IsRedis     bool
	HealthError string // Non-empty if health check failed
}

// Stats handles GET /admin/cache - displays cache statistics.
func (h *CacheHandler) Stats(w http.ResponseWriter, r *http.Request) {
	if h.reports == nil {
		flashError(w, r, h.renderer, redirectAdmin, "Cache system not initialized")
		return
	}

	backend := h.reports.Backend()
	data := CacheStatsData{
		Backend: h.backendName,
		IsRedis: h.backendName == cache.BackendRedis,
	}
	if sp, ok := backend.(cache.StatsProvider); ok {
		data.Stats = sp.Stats()
		data.HasStats = true
	}
	if p, ok := backend.(Pinger); ok {
		if err := p.Ping(r.Context()); err != nil {
			data.HealthError = err.Error()
		}
	}
	_, data.HasReport = h.reports.Latest(r.Context())

	renderPage(w, r, h.renderer, "admin/cache", render.TemplateData{
		Title:       "Cache",
		User:        middleware.GetUser(r),
		Data:        data,
		Breadcrumbs: uikit.Breadcrumbs("Cache", redirectAdminCache),
	})
}

// Clear handles POST /admin/cache/clear - empties the cache backend.
// Scan history stays in the database, so the dashboard falls back to it.
func (h *CacheHandler) Clear(w http.ResponseWriter, r *http.Request) {
	if h.reports == nil {
		flashError(w, r, h.renderer, redirectAdminCache, "Cache system not initialized")
		return
	}

	if err := h.reports.Backend().Clear(r.Context()); err != nil {
		slog.Error("failed to clear cache", "error", err)
		flashError(w, r, h.renderer, redirectAdminCache, "Failed to clear cache")
		return
	}
	if sp, ok := h.reports.Backend().(cache.StatsProvider); ok {
		sp.ResetStats()
	}

	slog.Info("cache cleared", "cleared_by", middleware.GetUserID(r))
	if h.eventService != nil {
		_ = h.eventService.LogInfo(r.Context(), model.EventCategoryCache, "Cache cleared",
			middleware.GetUserIDPtr(r), middleware.GetClientIP(r), map[string]any{"backend": h.backendName})
	}

	flashSuccess(w, r, h.renderer, redirectAdminCache, "Cache cleared successfully")
}
