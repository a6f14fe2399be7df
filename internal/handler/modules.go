// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/olegiv/pagelinks/internal/middleware"
	"github.com/olegiv/pagelinks/internal/model"
	"github.com/olegiv/pagelinks/internal/module"
	"github.com/olegiv/pagelinks/internal/render"
	"github.com/olegiv/pagelinks/internal/service"
	"github.com/olegiv/pagelinks/internal/uikit"
)

// ModulesHandler handles module management routes.
type ModulesHandler struct {
	renderer     *render.Renderer
	registry     *module.Registry
	hooks        *module.HookRegistry
	eventService *service.EventService
}

// NewModulesHandler creates a new ModulesHandler.
func NewModulesHandler(renderer *render.Renderer, registry *module.Registry, hooks *module.HookRegistry, es *service.EventService) *ModulesHandler {
	return &ModulesHandler{
		renderer:     renderer,
		registry:     registry,
		hooks:        hooks,
		eventService: es,
	}
}

// ModulesListData holds data for the modules list template.
type ModulesListData struct {
	Modules []module.Info
	Hooks   []string
}

// ToggleActiveRequest is the JSON body of a toggle request.
type ToggleActiveRequest struct {
	Active bool `json:"active"`
}

// ToggleActiveResponse is the JSON answer to a toggle request.
type ToggleActiveResponse struct {
	Success bool   `json:"success"`
	Active  bool   `json:"active"`
	Message string `json:"message,omitempty"`
}

// List handles GET /admin/modules - displays registered modules.
func (h *ModulesHandler) List(w http.ResponseWriter, r *http.Request) {
	data := ModulesListData{
		Modules: h.registry.ListInfo(),
	}
	if h.hooks != nil {
		data.Hooks = h.hooks.ListHooks()
	}

	renderPage(w, r, h.renderer, "admin/modules", render.TemplateData{
		Title:       "Modules",
		User:        middleware.GetUser(r),
		Data:        data,
		Breadcrumbs: uikit.Breadcrumbs("Modules", redirectAdminModules),
	})
}

// ToggleActive handles POST /admin/modules/{name}/toggle. JSON requests get
// a JSON answer; form posts are redirected back to the list.
func (h *ModulesHandler) ToggleActive(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	wantsJSON := r.Header.Get(HeaderContentType) == "application/json"

	var active bool
	if wantsJSON {
		var req ToggleActiveRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeJSONError(w, http.StatusBadRequest, "Invalid request body")
			return
		}
		active = req.Active
	} else {
		if !parseFormOrRedirect(w, r, h.renderer, redirectAdminModules) {
			return
		}
		active = r.FormValue("active") == "true"
	}

	if _, ok := h.registry.Get(name); !ok {
		if wantsJSON {
			writeJSON(w, http.StatusNotFound, ToggleActiveResponse{Message: "Module not found"})
			return
		}
		flashError(w, r, h.renderer, redirectAdminModules, "Module not found")
		return
	}

	if err := h.registry.SetActive(name, active); err != nil {
		slog.Error("failed to toggle module", "module", name, "error", err)
		if wantsJSON {
			writeJSON(w, http.StatusInternalServerError, ToggleActiveResponse{Message: "Failed to update module"})
			return
		}
		flashError(w, r, h.renderer, redirectAdminModules, "Failed to update module")
		return
	}

	state := "disabled"
	if active {
		state = "enabled"
	}
	slog.Info("module toggled", "module", name, "active", active, "user_id", middleware.GetUserID(r))
	if h.eventService != nil {
		_ = h.eventService.LogInfo(r.Context(), model.EventCategoryConfig, "Module "+name+" "+state,
			middleware.GetUserIDPtr(r), middleware.GetClientIP(r), map[string]any{"module": name, "active": active})
	}

	if wantsJSON {
		writeJSON(w, http.StatusOK, ToggleActiveResponse{Success: true, Active: active})
		return
	}
	flashSuccess(w, r, h.renderer, redirectAdminModules, "Module "+name+" "+state)
}
