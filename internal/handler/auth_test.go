// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/olegiv/pagelinks/internal/middleware"
	"github.com/olegiv/pagelinks/internal/model"
	"github.com/olegiv/pagelinks/internal/service"
)

func loginRequest(email, password string) *http.Request {
	form := url.Values{"email": {email}, "password": {password}}
	req := httptest.NewRequest(http.MethodPost, RouteLogin, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.RemoteAddr = "192.0.2.10:1234"
	return req
}

func newTestAuthHandler(t *testing.T, lp *middleware.LoginProtection) (*AuthHandler, *service.EventService) {
	t.Helper()
	db, sm := testHandlerSetup(t)
	createTestUser(t, db, testUser{Email: "admin@example.com", Name: "Ada", Password: "correct-horse"})
	events := service.NewEventService(db)
	return NewAuthHandler(db, testRenderer(t, sm), sm, lp, events), events
}

func TestAuthHandler_LoginSuccess(t *testing.T) {
	h, events := newTestAuthHandler(t, nil)

	w := serveWithSession(h.sessionManager, http.HandlerFunc(h.Login), loginRequest("admin@example.com", "correct-horse"), nil)
	require.Equal(t, http.StatusSeeOther, w.Code)
	assert.Equal(t, redirectAdmin, w.Header().Get("Location"))

	var userID int64
	probe := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		userID = h.sessionManager.GetInt64(r.Context(), middleware.SessionKeyUserID)
	})
	serveWithSession(h.sessionManager, probe, httptest.NewRequest(http.MethodGet, "/", nil), w.Result().Cookies())
	assert.Positive(t, userID)

	logged, err := events.ListRecent(context.Background(), model.EventCategoryAuth, 10)
	require.NoError(t, err)
	require.Len(t, logged, 1)
	assert.Equal(t, "User logged in", logged[0].Message)
	assert.Equal(t, "192.0.2.10", logged[0].IpAddress)
}

func TestAuthHandler_LoginFailures(t *testing.T) {
	tests := []struct {
		name      string
		email     string
		password  string
		wantFlash string
	}{
		{"missing fields", "", "", "Email and password are required."},
		{"unknown user", "nobody@example.com", "whatever", msgInvalidCredentials},
		{"wrong password", "admin@example.com", "wrong", msgInvalidCredentials},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h, _ := newTestAuthHandler(t, nil)

			w := serveWithSession(h.sessionManager, http.HandlerFunc(h.Login), loginRequest(tt.email, tt.password), nil)
			require.Equal(t, http.StatusSeeOther, w.Code)
			assert.Equal(t, redirectLogin, w.Header().Get("Location"))

			page := serveWithSession(h.sessionManager, http.HandlerFunc(h.LoginForm),
				httptest.NewRequest(http.MethodGet, RouteLogin, nil), w.Result().Cookies())
			assert.Contains(t, page.Body.String(), tt.wantFlash)
		})
	}
}

func TestAuthHandler_Lockout(t *testing.T) {
	lp := middleware.NewLoginProtection(middleware.LoginProtectionConfig{
		MaxFailedAttempts: 2,
		LockoutDuration:   time.Minute,
	})
	h, events := newTestAuthHandler(t, lp)

	for range 2 {
		serveWithSession(h.sessionManager, http.HandlerFunc(h.Login), loginRequest("admin@example.com", "wrong"), nil)
	}

	locked, _ := lp.IsAccountLocked("admin@example.com")
	require.True(t, locked)

	// The right password is refused while the lock holds.
	w := serveWithSession(h.sessionManager, http.HandlerFunc(h.Login), loginRequest("admin@example.com", "correct-horse"), nil)
	assert.Equal(t, redirectLogin, w.Header().Get("Location"))

	logged, err := events.ListRecent(context.Background(), model.EventCategoryAuth, 10)
	require.NoError(t, err)
	var messages []string
	for _, e := range logged {
		messages = append(messages, e.Message)
	}
	assert.Contains(t, messages, "Account locked due to failed attempts")
	assert.Contains(t, messages, "Login attempt on locked account")
}

func TestAuthHandler_LoginFormRedirectsSignedIn(t *testing.T) {
	h, _ := newTestAuthHandler(t, nil)

	w := serveWithSession(h.sessionManager, http.HandlerFunc(h.Login), loginRequest("admin@example.com", "correct-horse"), nil)
	page := serveWithSession(h.sessionManager, http.HandlerFunc(h.LoginForm),
		httptest.NewRequest(http.MethodGet, RouteLogin, nil), w.Result().Cookies())

	assert.Equal(t, http.StatusSeeOther, page.Code)
	assert.Equal(t, redirectAdmin, page.Header().Get("Location"))
}

func TestAuthHandler_Logout(t *testing.T) {
	h, events := newTestAuthHandler(t, nil)

	login := serveWithSession(h.sessionManager, http.HandlerFunc(h.Login), loginRequest("admin@example.com", "correct-horse"), nil)
	w := serveWithSession(h.sessionManager, http.HandlerFunc(h.Logout),
		httptest.NewRequest(http.MethodPost, RouteLogout, nil), login.Result().Cookies())

	assert.Equal(t, http.StatusSeeOther, w.Code)
	assert.Equal(t, redirectLogin, w.Header().Get("Location"))

	logged, err := events.ListRecent(context.Background(), model.EventCategoryAuth, 1)
	require.NoError(t, err)
	require.Len(t, logged, 1)
	assert.Equal(t, "User logged out", logged[0].Message)
}
