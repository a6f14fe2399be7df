// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"context"
	"database/sql"
	"net/http"
	"net/http/httptest"
	"testing"
	"testing/fstest"
	"time"

	"github.com/alexedwards/scs/v2"
	"github.com/alexedwards/scs/v2/memstore"
	"github.com/stretchr/testify/require"

	"github.com/olegiv/pagelinks/internal/auth"
	"github.com/olegiv/pagelinks/internal/middleware"
	"github.com/olegiv/pagelinks/internal/render"
	"github.com/olegiv/pagelinks/internal/store"
	"github.com/olegiv/pagelinks/internal/testutil"
)

// testHandlerSetup returns a migrated database and an in-memory session manager.
func testHandlerSetup(t *testing.T) (*sql.DB, *scs.SessionManager) {
	t.Helper()
	db, cleanup := testutil.TestDB(t)
	t.Cleanup(cleanup)
	return db, testSessionManager(t)
}

// testSessionManager creates a session manager for testing.
func testSessionManager(t *testing.T) *scs.SessionManager {
	t.Helper()
	sm := scs.New()
	sm.Store = memstore.New()
	sm.Lifetime = 24 * time.Hour
	return sm
}

// testTemplates renders just enough of each page for assertions.
func testTemplates() fstest.MapFS {
	return fstest.MapFS{
		"layouts/base.html":  {Data: []byte(`{{define "base"}}{{if .Flash}}[flash {{.FlashType}}: {{.Flash}}]{{end}}{{block "layout" .}}{{template "content" .}}{{end}}{{end}}`)},
		"layouts/admin.html": {Data: []byte(`{{define "layout"}}<main>{{template "content" .}}</main>{{end}}`)},
		"auth/login.html":    {Data: []byte(`{{define "content"}}login form{{end}}`)},
		"admin/dashboard.html": {Data: []byte(`{{define "content"}}users={{.Data.Stats.Users}} backend={{.Data.Backend}}` +
			` orphans={{.Data.Stats.Orphans}}{{range .Data.RecentEvents}} event={{.Message}}{{end}}{{end}}`)},
		"admin/events.html": {Data: []byte(`{{define "content"}}total={{.Data.TotalEvents}}` +
			`{{range .Data.Events}} [{{.Category}}] {{.Message}} ({{.Details}}){{end}}{{end}}`)},
		"admin/modules.html": {Data: []byte(`{{define "content"}}{{range .Data.Modules}}{{.Name}}:{{.Active}} {{end}}{{end}}`)},
		"admin/cache.html":   {Data: []byte(`{{define "content"}}backend={{.Data.Backend}} items={{.Data.Stats.Items}} report={{.Data.HasReport}}{{end}}`)},
		"admin/scans.html":   {Data: []byte(`{{define "content"}}{{range .Data.Runs}}run {{.Trigger}} orphans={{.Orphans}} {{end}}{{end}}`)},
	}
}

// testRenderer creates a renderer over testTemplates.
func testRenderer(t *testing.T, sm *scs.SessionManager) *render.Renderer {
	t.Helper()
	r, err := render.New(render.Config{
		TemplatesFS:    testTemplates(),
		SessionManager: sm,
		Version:        "test",
	})
	require.NoError(t, err)
	return r
}

// testUser is a test user for testing.
type testUser struct {
	Email    string
	Name     string
	Role     string
	Password string
}

// createTestUser creates a test user in the database.
func createTestUser(t *testing.T, db *sql.DB, user testUser) store.User {
	t.Helper()

	if user.Password == "" {
		user.Password = "password123"
	}
	if user.Role == "" {
		user.Role = middleware.RoleAdmin
	}
	hash, err := auth.HashPassword(user.Password)
	require.NoError(t, err)

	now := time.Now()
	created, err := store.New(db).CreateUser(context.Background(), store.CreateUserParams{
		Email:        user.Email,
		PasswordHash: hash,
		Role:         user.Role,
		Name:         user.Name,
		CreatedAt:    now,
		UpdatedAt:    now,
	})
	require.NoError(t, err)
	return created
}

// withUser attaches user to the request context as LoadUser would.
func withUser(r *http.Request, user store.User) *http.Request {
	return r.WithContext(middleware.WithUser(r.Context(), user))
}

// serveWithSession runs h inside sm.LoadAndSave, replaying cookies from a
// previous response so flash messages survive the redirect.
func serveWithSession(sm *scs.SessionManager, h http.Handler, r *http.Request, cookies []*http.Cookie) *httptest.ResponseRecorder {
	for _, c := range cookies {
		r.AddCookie(c)
	}
	w := httptest.NewRecorder()
	sm.LoadAndSave(h).ServeHTTP(w, r)
	return w
}
