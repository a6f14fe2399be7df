// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package disconnector

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"html/template"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/yuin/goldmark"

	"github.com/olegiv/pagelinks/internal/middleware"
	"github.com/olegiv/pagelinks/internal/model"
	"github.com/olegiv/pagelinks/internal/render"
	"github.com/olegiv/pagelinks/internal/translink"
	"github.com/olegiv/pagelinks/internal/uikit"
	"github.com/olegiv/pagelinks/internal/util"
)

// Flash messages that are not produced by the reconciler.
const (
	msgNoForceIDs   = "No page IDs provided for force cleanup."
	msgScanDisabled = "Scanning is not configured."
	msgLoadFailed   = "Failed to load pages from the translation store."
)

// Stats holds the counters shown above the connections table.
type Stats struct {
	Pages       int
	Connections int
	Filtered    int
	Orphans     int
}

// IndexData holds data for the admin/module_disconnector template.
type IndexData struct {
	Stats           Stats
	Filter          translink.Filter
	Facets          translink.Facets
	Connections     []translink.ConnectionPair
	Pagination      uikit.AdminPagination
	Orphans         []translink.OrphanedReference
	LatestScan      *model.ScanReport
	ForceCleanupIDs string
	Debug           bool
	Trace           []string
	CanEdit         bool
}

// HelpData holds data for the admin/module_disconnector_help template.
type HelpData struct {
	Content template.HTML
}

// handleIndex handles GET /admin/disconnector - connections, orphans and the
// last scan report.
func (m *Module) handleIndex(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUser(r)
	query := r.URL.Query()
	debug := query.Get("debug") == "1"

	ctx := r.Context()
	var trace *translink.Trace
	if debug {
		trace = translink.NewTrace()
		ctx = translink.WithTrace(ctx, trace)
	}

	pages, err := m.loadPages(ctx)
	if err != nil {
		m.ctx.Logger.Error("failed to list pages", "error", err)
		http.Error(w, msgLoadFailed, http.StatusInternalServerError)
		return
	}
	pairs, err := m.ctx.Reconciler.DiscoverConnections(ctx, pages)
	if err != nil {
		m.ctx.Logger.Error("failed to discover connections", "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	orphans, err := m.ctx.Reconciler.FindOrphans(ctx, pages)
	if err != nil {
		m.ctx.Logger.Error("failed to find orphans", "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	filter := filterFromQuery(query)
	filtered := translink.FilterConnections(pairs, filter)

	page, _ := uikit.NormalizePagination(uikit.ParsePageParam(r), len(filtered), connectionsPerPage)
	start := min((page-1)*connectionsPerPage, len(filtered))
	end := min(start+connectionsPerPage, len(filtered))

	data := IndexData{
		Stats: Stats{
			Pages:       len(pages),
			Connections: len(pairs),
			Filtered:    len(filtered),
			Orphans:     len(orphans),
		},
		Filter:      filter,
		Facets:      translink.CollectFacets(pairs),
		Connections: filtered[start:end],
		Pagination:  uikit.BuildAdminPagination(page, len(filtered), connectionsPerPage, adminURL, query),
		Orphans:     orphans,
		Debug:       debug,
		CanEdit:     user != nil && user.Role == middleware.RoleAdmin,
	}
	if m.ctx.Config != nil {
		data.ForceCleanupIDs = m.ctx.Config.ForceCleanupIDs
	}
	if m.ctx.Scanner != nil {
		latest, err := m.ctx.Scanner.Latest(ctx)
		if err != nil {
			m.ctx.Logger.Warn("failed to load latest scan", "error", err)
		}
		data.LatestScan = latest
	}
	if debug {
		data.Trace = append(m.popTrace(middleware.GetUserID(r)), trace.Steps()...)
	}

	if err := m.ctx.Render.Render(w, r, "admin/module_disconnector", render.TemplateData{
		Title:       "Translation Links",
		User:        user,
		Data:        data,
		Breadcrumbs: uikit.Breadcrumbs("Modules", "/admin/modules", "Translation Links", adminURL),
	}); err != nil {
		m.ctx.Logger.Error("render error", "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
	}
}

// handleDisconnect handles POST /admin/disconnector/disconnect.
func (m *Module) handleDisconnect(w http.ResponseWriter, r *http.Request) {
	ctx, trace, debug := m.actionContext(r)

	enID := parseID(r.FormValue("en_id"))
	itID := parseID(r.FormValue("it_id"))
	res := m.ctx.Reconciler.DisconnectPair(ctx, enID, itID)

	meta := map[string]any{"en_id": enID, "it_id": itID}
	if res.Success {
		m.audit(r, model.EventLevelInfo, res.Message, meta)
		m.notifyChanged(r, "disconnect", []int64{enID, itID})
	} else {
		meta["kind"] = res.Kind.String()
		m.audit(r, model.EventLevelWarning, res.Message, meta)
	}

	m.finish(w, r, trace, debug, util.PlainText(res.Message), flashType(res.Success))
}

// handleBulk handles POST /admin/disconnector/bulk.
func (m *Module) handleBulk(w http.ResponseWriter, r *http.Request) {
	ctx, trace, debug := m.actionContext(r)

	if err := r.ParseForm(); err != nil {
		m.finish(w, r, trace, debug, "Invalid form data", render.FlashError)
		return
	}
	keys := r.Form["selected_connections"]
	if len(keys) == 0 {
		m.finish(w, r, trace, debug, translink.MsgNoneSelected, render.FlashError)
		return
	}

	summary := m.ctx.Reconciler.BulkDisconnect(ctx, keys)

	var changed []int64
	for _, res := range summary.Results {
		if res.Success {
			changed = append(changed, res.ENID, res.ITID)
		}
	}
	m.audit(r, levelFor(summary.Succeeded, summary.Total), summary.Message(), map[string]any{
		"requested": summary.Total,
		"succeeded": summary.Succeeded,
		"invalid":   summary.Invalid,
	})
	m.notifyChanged(r, "bulk_disconnect", changed)

	m.finish(w, r, trace, debug, summary.Message(), flashType(summary.Succeeded == summary.Total))
}

// handleCleanup handles POST /admin/disconnector/cleanup - scans every page
// and drops references to deleted pages.
func (m *Module) handleCleanup(w http.ResponseWriter, r *http.Request) {
	ctx, trace, debug := m.actionContext(r)

	pages, err := m.loadPages(ctx)
	if err != nil {
		m.ctx.Logger.Error("failed to list pages", "error", err)
		m.finish(w, r, trace, debug, msgLoadFailed, render.FlashError)
		return
	}
	summary, err := m.ctx.Reconciler.CleanupAllOrphans(ctx, pages)
	if err != nil {
		m.ctx.Logger.Error("orphan cleanup failed", "error", err)
		m.finish(w, r, trace, debug, "Orphan cleanup failed.", render.FlashError)
		return
	}

	var changed []int64
	if summary.Cleaned > 0 {
		seen := make(map[int64]bool)
		for _, o := range summary.Orphans {
			if !seen[o.ExistingPageID] {
				seen[o.ExistingPageID] = true
				changed = append(changed, o.ExistingPageID)
			}
		}
	}
	m.audit(r, model.EventLevelInfo, summary.Message(), map[string]any{
		"scanned": summary.Scanned,
		"orphans": len(summary.Orphans),
		"cleaned": summary.Cleaned,
	})
	m.notifyChanged(r, "cleanup", changed)

	m.finish(w, r, trace, debug, summary.Message(), render.FlashSuccess)
}

// handleForceCleanup handles POST /admin/disconnector/force-cleanup. Ids come
// from the form, or from PAGELINKS_FORCE_CLEANUP_IDS when the field is empty.
func (m *Module) handleForceCleanup(w http.ResponseWriter, r *http.Request) {
	ctx, trace, debug := m.actionContext(r)

	raw := strings.TrimSpace(r.FormValue("ids"))
	if raw == "" && m.ctx.Config != nil {
		raw = m.ctx.Config.ForceCleanupIDs
	}
	ids, invalid := translink.ParseIDList(raw)
	if len(ids) == 0 {
		m.finish(w, r, trace, debug, msgNoForceIDs, render.FlashError)
		return
	}

	summary := m.ctx.Reconciler.ForceCleanup(ctx, ids)

	message := summary.Message()
	if len(invalid) > 0 {
		message += fmt.Sprintf(" Ignored invalid entries: %s.", strings.Join(invalid, ", "))
	}

	changed := make([]int64, 0, summary.Normalized)
	skipped := make(map[int64]bool, len(summary.Skipped))
	for _, id := range summary.Skipped {
		skipped[id] = true
	}
	for _, id := range ids {
		if !skipped[id] {
			changed = append(changed, id)
		}
	}

	m.audit(r, levelFor(summary.Normalized, summary.Total), summary.Message(), map[string]any{
		"ids":     ids,
		"skipped": summary.Skipped,
		"invalid": invalid,
	})
	m.notifyChanged(r, "force_cleanup", changed)

	m.finish(w, r, trace, debug, util.PlainText(message), flashType(summary.Normalized == summary.Total && len(invalid) == 0))
}

// handleScan handles POST /admin/disconnector/scan - runs a scan now.
func (m *Module) handleScan(w http.ResponseWriter, r *http.Request) {
	ctx, trace, debug := m.actionContext(r)

	if m.ctx.Scanner == nil {
		m.finish(w, r, trace, debug, msgScanDisabled, render.FlashError)
		return
	}

	report, err := m.ctx.Scanner.Run(ctx, model.ScanTriggerManual)
	if err != nil {
		m.ctx.Logger.Error("manual scan failed", "error", err)
		m.finish(w, r, trace, debug, "Scan failed: "+report.Error, render.FlashError)
		return
	}

	message := fmt.Sprintf("Scan finished: %d connections, %d orphaned references in %d pages.",
		report.Connections, len(report.Orphans), report.PagesScanned)
	level := render.FlashSuccess
	if report.HasOrphans() {
		level = render.FlashWarning
	}
	m.finish(w, r, trace, debug, message, level)
}

// handleConnectionsJSON handles GET /admin/disconnector/connections.json.
// Accepts the same brand, category and search filters as the page.
func (m *Module) handleConnectionsJSON(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	pages, err := m.loadPages(ctx)
	if err != nil {
		m.ctx.Logger.Error("failed to list pages", "error", err)
		writeJSONError(w, http.StatusInternalServerError, msgLoadFailed)
		return
	}
	pairs, err := m.ctx.Reconciler.DiscoverConnections(ctx, pages)
	if err != nil {
		m.ctx.Logger.Error("failed to discover connections", "error", err)
		writeJSONError(w, http.StatusInternalServerError, "Failed to discover connections")
		return
	}

	filtered := translink.FilterConnections(pairs, filterFromQuery(r.URL.Query()))
	writeJSON(w, http.StatusOK, map[string]any{
		"success":     true,
		"total":       len(pairs),
		"count":       len(filtered),
		"connections": filtered,
	})
}

// handleOrphansJSON handles GET /admin/disconnector/orphans.json.
func (m *Module) handleOrphansJSON(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	pages, err := m.loadPages(ctx)
	if err != nil {
		m.ctx.Logger.Error("failed to list pages", "error", err)
		writeJSONError(w, http.StatusInternalServerError, msgLoadFailed)
		return
	}
	orphans, err := m.ctx.Reconciler.FindOrphans(ctx, pages)
	if err != nil {
		m.ctx.Logger.Error("failed to find orphans", "error", err)
		writeJSONError(w, http.StatusInternalServerError, "Failed to find orphans")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"success":       true,
		"pages_scanned": len(pages),
		"count":         len(orphans),
		"orphans":       orphans,
	})
}

// handleHelp handles GET /admin/disconnector/help.
func (m *Module) handleHelp(w http.ResponseWriter, r *http.Request) {
	var buf bytes.Buffer
	if err := goldmark.Convert(helpMarkdown, &buf); err != nil {
		m.ctx.Logger.Error("failed to render help", "error", err)
		http.Error(w, "Failed to render document", http.StatusInternalServerError)
		return
	}

	if err := m.ctx.Render.Render(w, r, "admin/module_disconnector_help", render.TemplateData{
		Title: "Translation Links Help",
		User:  middleware.GetUser(r),
		Data:  HelpData{Content: template.HTML(util.SanitizeHTML(buf.String()))}, //nolint:gosec // sanitized above
		Breadcrumbs: uikit.Breadcrumbs("Modules", "/admin/modules",
			"Translation Links", adminURL, "Help", adminURL+"/help"),
	}); err != nil {
		m.ctx.Logger.Error("render error", "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
	}
}

// actionContext returns the request context, carrying a fresh trace when the
// form asked for debug output.
func (m *Module) actionContext(r *http.Request) (context.Context, *translink.Trace, bool) {
	debug := isChecked(r.FormValue("debug_mode"))
	if !debug {
		return r.Context(), nil, false
	}
	trace := translink.NewTrace()
	return translink.WithTrace(r.Context(), trace), trace, true
}

// finish stores the flash and trace, then redirects back to the page.
func (m *Module) finish(w http.ResponseWriter, r *http.Request, trace *translink.Trace, debug bool, message, flashType string) {
	m.ctx.Render.SetFlash(r, message, flashType)

	target := adminURL
	if debug {
		m.storeTrace(middleware.GetUserID(r), trace.Steps())
		target += "?debug=1"
	}
	http.Redirect(w, r, target, http.StatusSeeOther)
}

func filterFromQuery(q url.Values) translink.Filter {
	return translink.Filter{
		Brand:    q.Get("brand"),
		Category: q.Get("category"),
		Search:   strings.TrimSpace(q.Get("search")),
	}
}

// parseID returns the id in s, or 0 when s is not an integer.
func parseID(s string) int64 {
	id, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil {
		return 0
	}
	return id
}

func isChecked(v string) bool {
	switch strings.ToLower(v) {
	case "1", "on", "true", "yes":
		return true
	}
	return false
}

func flashType(ok bool) string {
	if ok {
		return render.FlashSuccess
	}
	return render.FlashError
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeJSONError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]any{"success": false, "error": message})
}
