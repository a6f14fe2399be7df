// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package web_test

import (
	"io/fs"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/olegiv/pagelinks/internal/render"
	"github.com/olegiv/pagelinks/web"
)

func TestTemplatesParse(t *testing.T) {
	r, err := render.New(render.Config{TemplatesFS: web.Templates, Version: "test"})
	require.NoError(t, err)

	for _, name := range []string{
		"admin/dashboard",
		"admin/events",
		"admin/modules",
		"admin/cache",
		"admin/scans",
		"admin/module_disconnector",
		"admin/module_disconnector_help",
		"auth/login",
	} {
		assert.True(t, r.HasTemplate(name), name)
	}
}

func TestLoginRenders(t *testing.T) {
	r, err := render.New(render.Config{TemplatesFS: web.Templates, Version: "1.0.0"})
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/login", nil)
	require.NoError(t, r.Render(rec, req, "auth/login", render.TemplateData{Title: "Sign in"}))

	body := rec.Body.String()
	assert.Contains(t, body, `action="/login"`)
	assert.Contains(t, body, "/static/dist/admin.css?v=1.0.0")
	assert.Contains(t, body, "<title>Sign in · pagelinks</title>")
}

func TestStaticAssets(t *testing.T) {
	for _, name := range []string{"static/dist/admin.css", "static/dist/admin.js"} {
		data, err := fs.ReadFile(web.Static, name)
		require.NoError(t, err, name)
		assert.NotEmpty(t, data, name)
	}
}
