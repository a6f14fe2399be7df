// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/olegiv/pagelinks/internal/model"
	"github.com/olegiv/pagelinks/internal/module"
	"github.com/olegiv/pagelinks/internal/service"
	"github.com/olegiv/pagelinks/internal/testutil"
)

type stubModule struct {
	module.BaseModule
}

func newStubModule(name string) *stubModule {
	return &stubModule{BaseModule: module.NewBaseModule(name, "1.0.0", "stub "+name)}
}

func newTestModulesRouter(t *testing.T) (http.Handler, *module.Registry, *service.EventService) {
	t.Helper()
	db, sm := testHandlerSetup(t)

	logger := testutil.TestLoggerSilent()
	registry := module.NewRegistry(logger)
	require.NoError(t, registry.Register(newStubModule("disconnector")))
	hooks := module.NewHookRegistry(logger)
	require.NoError(t, registry.InitAll(&module.Context{DB: db, Logger: logger, Hooks: hooks}))

	events := service.NewEventService(db)
	h := NewModulesHandler(testRenderer(t, sm), registry, hooks, events)

	r := chi.NewRouter()
	r.Use(sm.LoadAndSave)
	r.Get(RouteModules, h.List)
	r.Post(RouteModuleToggle, h.ToggleActive)
	return r, registry, events
}

func TestModulesHandler_List(t *testing.T) {
	router, _, _ := newTestModulesRouter(t)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, RouteModules, nil))

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "disconnector:true")
}

func TestModulesHandler_ToggleJSON(t *testing.T) {
	router, registry, events := newTestModulesRouter(t)

	req := httptest.NewRequest(http.MethodPost, "/modules/disconnector/toggle", strings.NewReader(`{"active":false}`))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	var resp ToggleActiveResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
	assert.False(t, resp.Active)
	assert.False(t, registry.IsActive("disconnector"))

	logged, err := events.ListRecent(context.Background(), model.EventCategoryConfig, 1)
	require.NoError(t, err)
	require.Len(t, logged, 1)
	assert.Equal(t, "Module disconnector disabled", logged[0].Message)
}

func TestModulesHandler_ToggleForm(t *testing.T) {
	router, registry, _ := newTestModulesRouter(t)
	require.NoError(t, registry.SetActive("disconnector", false))

	form := url.Values{"active": {"true"}}
	req := httptest.NewRequest(http.MethodPost, "/modules/disconnector/toggle", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusSeeOther, w.Code)
	assert.Equal(t, redirectAdminModules, w.Header().Get("Location"))
	assert.True(t, registry.IsActive("disconnector"))
}

func TestModulesHandler_ToggleUnknown(t *testing.T) {
	router, _, _ := newTestModulesRouter(t)

	req := httptest.NewRequest(http.MethodPost, "/modules/nope/toggle", strings.NewReader(`{"active":true}`))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Contains(t, w.Body.String(), "Module not found")
}

func TestModulesHandler_ToggleBadJSON(t *testing.T) {
	router, _, _ := newTestModulesRouter(t)

	req := httptest.NewRequest(http.MethodPost, "/modules/disconnector/toggle", strings.NewReader(`{`))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}
