// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package render

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

// testUser is a mock user struct with the same Role field as store.User.
type testUser struct {
	ID   int64
	Role string
}

func TestGetUserRole(t *testing.T) {
	tests := []struct {
		name     string
		user     any
		expected string
	}{
		{"nil user", nil, ""},
		{"admin user", testUser{ID: 1, Role: "admin"}, "admin"},
		{"viewer user", testUser{ID: 2, Role: "viewer"}, "viewer"},
		{"pointer admin", &testUser{ID: 1, Role: "admin"}, "admin"},
		{"nil pointer", (*testUser)(nil), ""},
		{"wrong type (string)", "not a user", ""},
		{"wrong type (int)", 123, ""},
		{"struct without Role", struct{ Name string }{Name: "test"}, ""},
		{"non-string Role", struct{ Role int }{Role: 2}, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, getUserRole(tt.user))
		})
	}
}

func TestRoleChecks(t *testing.T) {
	funcs := (&Renderer{}).TemplateFuncs()
	isAdmin := funcs["isAdmin"].(func(any) bool)
	isViewer := funcs["isViewer"].(func(any) bool)

	tests := []struct {
		name       string
		user       any
		wantAdmin  bool
		wantViewer bool
	}{
		{"nil user", nil, false, false},
		{"admin", testUser{Role: "admin"}, true, true},
		{"admin pointer", &testUser{Role: "admin"}, true, true},
		{"viewer", testUser{Role: "viewer"}, false, true},
		{"unknown", testUser{Role: "editor"}, false, false},
		{"case sensitive", testUser{Role: "Admin"}, false, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.wantAdmin, isAdmin(tt.user))
			assert.Equal(t, tt.wantViewer, isViewer(tt.user))
		})
	}
}

func TestTemplateFuncsExist(t *testing.T) {
	funcs := (&Renderer{}).TemplateFuncs()

	for _, name := range []string{"isAdmin", "isViewer", "userRole", "isDev", "formatDate", "langName", "dict"} {
		assert.Contains(t, funcs, name)
	}
}
