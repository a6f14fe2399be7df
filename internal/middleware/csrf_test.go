// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testCSRFKey = []byte("12345678901234567890123456789012")

func TestDefaultCSRFConfig(t *testing.T) {
	t.Run("development trusts loopback on the server port", func(t *testing.T) {
		cfg := DefaultCSRFConfig(testCSRFKey, true, 9090)
		assert.Len(t, cfg.AuthKey, 32)
		assert.ElementsMatch(t, []string{"localhost:9090", "127.0.0.1:9090"}, cfg.TrustedOrigins)
		for _, origin := range cfg.TrustedOrigins {
			assert.NotContains(t, origin, "://", "trusted origins are host:port, not URLs")
		}
	})

	t.Run("production trusts nothing extra", func(t *testing.T) {
		cfg := DefaultCSRFConfig(testCSRFKey, false, 8080)
		assert.Empty(t, cfg.TrustedOrigins)
	})
}

func csrfProtected(t *testing.T, cfg CSRFConfig) http.Handler {
	t.Helper()
	mw := CSRF(cfg)
	require.NotNil(t, mw)
	return mw(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
}

func TestCSRF_FetchMetadata(t *testing.T) {
	handler := csrfProtected(t, DefaultCSRFConfig(testCSRFKey, false, 8080))

	tests := []struct {
		name   string
		method string
		site   string
		want   int
	}{
		{"safe method cross-site", http.MethodGet, "cross-site", http.StatusOK},
		{"same-origin post", http.MethodPost, "same-origin", http.StatusOK},
		{"user initiated post", http.MethodPost, "none", http.StatusOK},
		{"cross-site post", http.MethodPost, "cross-site", http.StatusForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, "/admin/disconnector/disconnect", nil)
			req.Header.Set("Sec-Fetch-Site", tt.site)
			rr := httptest.NewRecorder()

			handler.ServeHTTP(rr, req)

			assert.Equal(t, tt.want, rr.Code)
		})
	}
}

func TestCSRF_CustomErrorHandler(t *testing.T) {
	cfg := DefaultCSRFConfig(testCSRFKey, false, 8080)
	called := false
	cfg.ErrorHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
		http.Error(w, "custom", http.StatusTeapot)
	})
	handler := csrfProtected(t, cfg)

	req := httptest.NewRequest(http.MethodPost, "/admin/disconnector/bulk", nil)
	req.Header.Set("Sec-Fetch-Site", "cross-site")
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	assert.True(t, called)
	assert.Equal(t, http.StatusTeapot, rr.Code)
}
