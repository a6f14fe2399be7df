// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package module provides the admin module system. Modules register admin
// routes, template functions and hooks, and receive the application services
// through Context.
package module

import (
	"database/sql"
	"html/template"
	"log/slog"

	"github.com/go-chi/chi/v5"

	"github.com/olegiv/pagelinks/internal/cache"
	"github.com/olegiv/pagelinks/internal/config"
	"github.com/olegiv/pagelinks/internal/render"
	"github.com/olegiv/pagelinks/internal/scheduler"
	"github.com/olegiv/pagelinks/internal/service"
	"github.com/olegiv/pagelinks/internal/translink"
)

// Context provides access to application services for modules.
type Context struct {
	DB         *sql.DB
	Logger     *slog.Logger
	Config     *config.Config
	Render     *render.Renderer
	Events     *service.EventService
	Hooks      *HookRegistry
	Reconciler *translink.Reconciler
	Scanner    *scheduler.Scanner
	Reports    *cache.ReportCache
}

// Module defines the interface that all modules must implement.
type Module interface {
	Name() string
	Version() string
	Description() string
	// Dependencies returns names of modules that must be registered too.
	Dependencies() []string

	Init(ctx *Context) error
	Shutdown() error

	// RegisterAdminRoutes mounts routes under the authenticated /admin router.
	RegisterAdminRoutes(r chi.Router)

	// TemplateFuncs returns functions merged into the shared template set.
	TemplateFuncs() template.FuncMap

	Migrations() []Migration

	// AdminURL returns the module dashboard URL, or empty for none.
	AdminURL() string

	// SidebarLabel returns the sidebar label. Empty uses Name.
	SidebarLabel() string
}

// Migration represents a database migration for a module.
type Migration struct {
	Version     int64
	Description string
	Up          func(db *sql.DB) error
	Down        func(db *sql.DB) error
}

// BaseModule provides no-op defaults. Modules embed it.
type BaseModule struct {
	name        string
	version     string
	description string
	ctx         *Context
}

// NewBaseModule creates a new BaseModule with the given metadata.
func NewBaseModule(name, version, description string) BaseModule {
	return BaseModule{
		name:        name,
		version:     version,
		description: description,
	}
}

func (m *BaseModule) Name() string                     { return m.name }
func (m *BaseModule) Version() string                  { return m.version }
func (m *BaseModule) Description() string              { return m.description }
func (m *BaseModule) Dependencies() []string           { return nil }
func (m *BaseModule) Shutdown() error                  { return nil }
func (m *BaseModule) RegisterAdminRoutes(_ chi.Router) {}
func (m *BaseModule) TemplateFuncs() template.FuncMap  { return nil }
func (m *BaseModule) Migrations() []Migration          { return nil }
func (m *BaseModule) AdminURL() string                 { return "" }
func (m *BaseModule) SidebarLabel() string             { return "" }

// Init stores the context for later use through Context.
func (m *BaseModule) Init(ctx *Context) error {
	m.ctx = ctx
	return nil
}

// Context returns the module context (for use by embedded modules).
func (m *BaseModule) Context() *Context { return m.ctx }
