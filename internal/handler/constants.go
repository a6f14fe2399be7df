// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

// Route pattern constants for chi router registration.
const (
	// RouteRoot is the root path.
	RouteRoot = "/"
	// RouteLogin is the login route.
	RouteLogin = "/login"
	// RouteLogout is the logout route.
	RouteLogout = "/logout"

	// RouteEvents is the event log admin route.
	RouteEvents = "/events"
	// RouteModules is the modules admin route.
	RouteModules = "/modules"
	// RouteModuleToggle toggles a module on or off.
	RouteModuleToggle = RouteModules + "/{name}/toggle"
	// RouteCache is the cache admin route.
	RouteCache = "/cache"
	// RouteCacheClear clears the cache.
	RouteCacheClear = RouteCache + "/clear"
	// RouteScans is the scan history admin route.
	RouteScans = "/scans"
	// RouteScansRun starts a scan now.
	RouteScansRun = RouteScans + "/run"
)

const (
	redirectAdmin        = "/admin"
	redirectAdminEvents  = redirectAdmin + RouteEvents
	redirectAdminModules = redirectAdmin + RouteModules
	redirectAdminCache   = redirectAdmin + RouteCache
	redirectAdminScans   = redirectAdmin + RouteScans
	redirectLogin        = RouteLogin
)

// HeaderContentType is the Content-Type HTTP header name.
const HeaderContentType = "Content-Type"
