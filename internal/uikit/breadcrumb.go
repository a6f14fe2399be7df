// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package uikit

// Breadcrumb represents a single breadcrumb item.
type Breadcrumb struct {
	Label  string
	URL    string
	Active bool
}

// Breadcrumbs builds a trail rooted at the dashboard. Pairs alternate label
// and URL; the last item is marked active and its URL is dropped.
func Breadcrumbs(pairs ...string) []Breadcrumb {
	crumbs := []Breadcrumb{{Label: "Dashboard", URL: "/admin"}}
	for i := 0; i+1 < len(pairs); i += 2 {
		crumbs = append(crumbs, Breadcrumb{Label: pairs[i], URL: pairs[i+1]})
	}
	last := &crumbs[len(crumbs)-1]
	last.Active = true
	last.URL = ""
	return crumbs
}
