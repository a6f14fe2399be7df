// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestListAndCount(t *testing.T) {
	items, total, err := ListAndCount(
		func() ([]int, error) { return []int{1, 2}, nil },
		func() (int64, error) { return 7, nil },
	)
	require.NoError(t, err)
	assert.Equal(t, []int{1, 2}, items)
	assert.Equal(t, int64(7), total)

	countCalled := false
	_, _, err = ListAndCount(
		func() ([]int, error) { return nil, errors.New("list failed") },
		func() (int64, error) { countCalled = true; return 0, nil },
	)
	assert.EqualError(t, err, "list failed")
	assert.False(t, countCalled)
}

func TestFormatTimeAgo(t *testing.T) {
	now := time.Now()
	tests := []struct {
		name string
		time time.Time
		want string
	}{
		{"just now", now.Add(-30 * time.Second), "just now"},
		{"1 minute", now.Add(-time.Minute - time.Second), "1 minute ago"},
		{"5 minutes", now.Add(-5*time.Minute - time.Second), "5 minutes ago"},
		{"1 hour", now.Add(-time.Hour - time.Second), "1 hour ago"},
		{"3 hours", now.Add(-3*time.Hour - time.Second), "3 hours ago"},
		{"yesterday", now.Add(-30 * time.Hour), "yesterday"},
		{"3 days", now.Add(-72*time.Hour - time.Second), "3 days ago"},
		{"older", now.Add(-14 * 24 * time.Hour), now.Add(-14 * 24 * time.Hour).Format("Jan 2, 2006")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, formatTimeAgo(tt.time))
		})
	}
}

func TestFormatDuration(t *testing.T) {
	assert.Equal(t, "45 seconds", formatDuration(45*time.Second))
	assert.Equal(t, "1 minute", formatDuration(time.Minute))
	assert.Equal(t, "15 minutes", formatDuration(15*time.Minute))
	assert.Equal(t, "1 hour", formatDuration(time.Hour))
	assert.Equal(t, "24 hours", formatDuration(24*time.Hour))
}

func TestWriteJSON(t *testing.T) {
	w := httptest.NewRecorder()
	writeJSONError(w, http.StatusBadRequest, "bad input")

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))
	var resp map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, false, resp["success"])
	assert.Equal(t, "bad input", resp["error"])

	w = httptest.NewRecorder()
	writeJSONSuccess(w, map[string]any{"success": false, "count": 2})
	resp = nil
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, true, resp["success"])
	assert.Equal(t, float64(2), resp["count"])

	w = httptest.NewRecorder()
	writeJSONSuccess(w, nil)
	assert.JSONEq(t, `{"success":true}`, w.Body.String())
}

func TestLogAndInternalError(t *testing.T) {
	w := httptest.NewRecorder()
	logAndInternalError(w, "test failure", "error", errors.New("boom"))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Contains(t, w.Body.String(), "Internal Server Error")
}

func TestParseFormOrRedirect(t *testing.T) {
	_, sm := testHandlerSetup(t)
	renderer := testRenderer(t, sm)

	var ok bool
	h := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ok = parseFormOrRedirect(w, r, renderer, redirectAdmin)
	})

	req := httptest.NewRequest(http.MethodPost, "/", nil)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.URL.RawQuery = "%zz"
	w := serveWithSession(sm, h, req, nil)

	assert.False(t, ok)
	assert.Equal(t, http.StatusSeeOther, w.Code)
	assert.Equal(t, redirectAdmin, w.Header().Get("Location"))
}
