// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package moduleutil provides module-specific test helpers.
package moduleutil

import (
	"database/sql"
	"testing"

	"github.com/olegiv/pagelinks/internal/cache"
	"github.com/olegiv/pagelinks/internal/config"
	"github.com/olegiv/pagelinks/internal/module"
	"github.com/olegiv/pagelinks/internal/scheduler"
	"github.com/olegiv/pagelinks/internal/service"
	"github.com/olegiv/pagelinks/internal/store"
	"github.com/olegiv/pagelinks/internal/testutil"
	"github.com/olegiv/pagelinks/internal/translink"
)

// RunMigrations runs all migrations up for the given module.
func RunMigrations(t *testing.T, db *sql.DB, migrations []module.Migration) {
	t.Helper()
	for _, mig := range migrations {
		if err := mig.Up(db); err != nil {
			t.Fatalf("migration %d up: %v", mig.Version, err)
		}
	}
}

// RunMigrationsDown rolls back all migrations for the given module.
func RunMigrationsDown(t *testing.T, db *sql.DB, migrations []module.Migration) {
	t.Helper()
	for i := len(migrations) - 1; i >= 0; i-- {
		if err := migrations[i].Down(db); err != nil {
			t.Fatalf("migration %d down: %v", migrations[i].Version, err)
		}
	}
}

// TestModuleContext creates a module.Context for testing.
// Returns the context and the hooks registry for verifying hook behavior.
func TestModuleContext(t *testing.T, db *sql.DB) (*module.Context, *module.HookRegistry) {
	t.Helper()
	logger := testutil.TestLoggerSilent()
	hooks := module.NewHookRegistry(logger)
	return &module.Context{
		DB:     db,
		Logger: logger,
		Config: &config.Config{PageLimit: -1, CacheTTL: 3600},
		Events: service.NewEventService(db),
		Hooks:  hooks,
	}, hooks
}

// TestModuleContextWithReconciler extends TestModuleContext with a
// reconciler over the SQLite translation store, a scanner and a memory
// report cache using the default cache TTL.
func TestModuleContextWithReconciler(t *testing.T, db *sql.DB) (*module.Context, *module.HookRegistry) {
	t.Helper()
	ctx, hooks := TestModuleContext(t, db)

	backend := cache.NewMemoryCache(cache.MemoryCacheOptions{DefaultTTL: ctx.Config.CacheTTLDuration()})
	t.Cleanup(func() { _ = backend.Close() })

	ctx.Reconciler = translink.New(store.NewTranslationStore(db), ctx.Logger)
	ctx.Reports = cache.NewReportCache(backend)
	ctx.Scanner = scheduler.NewScanner(scheduler.ScannerConfig{
		Reconciler: ctx.Reconciler,
		DB:         db,
		Reports:    ctx.Reports,
		Events:     ctx.Events,
		Logger:     ctx.Logger,
		PageLimit:  ctx.Config.PageLimit,
	})
	return ctx, hooks
}
