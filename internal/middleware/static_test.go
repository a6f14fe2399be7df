// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStaticCache(t *testing.T) {
	tests := []struct {
		name   string
		maxAge int
		target string
		want   string
	}{
		{"plain", 3600, "/static/dist/admin.css", "public, max-age=3600"},
		{"versioned", 3600, "/static/dist/admin.css?v=1.2.0", "public, max-age=3600, immutable"},
		{"disabled", 0, "/static/dist/admin.js", "no-cache"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			called := false
			h := StaticCache(tt.maxAge)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				called = true
			}))

			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, tt.target, nil))

			assert.True(t, called)
			assert.Equal(t, tt.want, rec.Header().Get("Cache-Control"))
		})
	}
}
