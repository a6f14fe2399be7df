// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package middleware

import (
	"net/http"
	"strconv"
)

// StaticCache sets Cache-Control for embedded admin assets. Requests carrying
// a version query (?v=...) are marked immutable. A maxAge of zero or less
// disables caching, which is what development mode uses.
func StaticCache(maxAge int) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			switch {
			case maxAge <= 0:
				w.Header().Set("Cache-Control", "no-cache")
			case r.URL.Query().Get("v") != "":
				w.Header().Set("Cache-Control", "public, max-age="+strconv.Itoa(maxAge)+", immutable")
			default:
				w.Header().Set("Cache-Control", "public, max-age="+strconv.Itoa(maxAge))
			}
			next.ServeHTTP(w, r)
		})
	}
}
