// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Command pagelinks serves the admin UI that maintains English/Italian
// translation links, and can run a single scan or cleanup from the CLI.
package main

import (
	"context"
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/joho/godotenv"

	"github.com/olegiv/pagelinks/internal/cache"
	"github.com/olegiv/pagelinks/internal/config"
	"github.com/olegiv/pagelinks/internal/handler"
	"github.com/olegiv/pagelinks/internal/logging"
	"github.com/olegiv/pagelinks/internal/middleware"
	"github.com/olegiv/pagelinks/internal/model"
	"github.com/olegiv/pagelinks/internal/module"
	"github.com/olegiv/pagelinks/internal/render"
	"github.com/olegiv/pagelinks/internal/scheduler"
	"github.com/olegiv/pagelinks/internal/service"
	"github.com/olegiv/pagelinks/internal/session"
	"github.com/olegiv/pagelinks/internal/store"
	"github.com/olegiv/pagelinks/internal/translink"
	"github.com/olegiv/pagelinks/internal/version"
	"github.com/olegiv/pagelinks/internal/wordpress"
	"github.com/olegiv/pagelinks/modules/disconnector"
	"github.com/olegiv/pagelinks/web"
)

const (
	// historyRetention is how long scan runs and events are kept.
	historyRetention = 90 * 24 * time.Hour
	pruneJobName     = "history-prune"
	pruneSchedule    = "30 4 * * *"

	staticMaxAge = 86400
)

func main() {
	showVersion := flag.Bool("version", false, "Show version information")
	flag.BoolVar(showVersion, "v", false, "Show version information (shorthand)")
	runScan := flag.Bool("scan", false, "Run one orphan scan, print the report and exit")
	runCleanup := flag.Bool("cleanup", false, "Clean every orphaned translation reference and exit")

	flag.Usage = func() {
		_, _ = fmt.Fprintf(os.Stderr, "pagelinks - English/Italian translation link maintenance\n\n")
		_, _ = fmt.Fprintf(os.Stderr, "Usage: %s [options]\n\n", os.Args[0])
		_, _ = fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
		_, _ = fmt.Fprintf(os.Stderr, "\nEnvironment Variables:\n")
		_, _ = fmt.Fprintf(os.Stderr, "  PAGELINKS_SESSION_SECRET   Session encryption key (required, min 32 bytes)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  PAGELINKS_DB_PATH          SQLite database path (default: ./data/pagelinks.db)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  PAGELINKS_BACKEND          Translation store: sqlite|wordpress (default: sqlite)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  PAGELINKS_WP_DSN           WordPress MySQL DSN (wordpress backend)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  PAGELINKS_SCAN_SCHEDULE    Cron schedule for scans (default: 0 3 * * *)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  PAGELINKS_REDIS_URL        Redis URL for the report cache (optional)\n")
	}

	flag.Parse()

	if *showVersion {
		_, _ = fmt.Printf("pagelinks %s\n", version.Get())
		os.Exit(0)
	}

	var err error
	switch {
	case *runScan:
		err = runOnce(func(ctx context.Context, a *app) error {
			report, err := a.scanner.Run(ctx, model.ScanTriggerCLI)
			if err != nil {
				return err
			}
			_, _ = fmt.Printf("scanned %d pages: %d connections, %d orphaned references, %d cleaned\n",
				report.PagesScanned, report.Connections, len(report.Orphans), report.Cleaned)
			for _, o := range report.Orphans {
				_, _ = fmt.Printf("  page %d (%s) -> missing %s page %d\n", o.ExistingPageID, o.ExistingPageTitle, o.Lang, o.MissingPageID)
			}
			return nil
		})
	case *runCleanup:
		err = runOnce(func(ctx context.Context, a *app) error {
			pages, err := a.reconciler.Store().ListPages(ctx, a.cfg.PageLimit)
			if err != nil {
				return fmt.Errorf("listing pages: %w", err)
			}
			summary, err := a.reconciler.CleanupAllOrphans(ctx, pages)
			if err != nil {
				return fmt.Errorf("cleaning orphans: %w", err)
			}
			_, _ = fmt.Println(summary.Message())
			return nil
		})
	default:
		err = run()
	}

	if err != nil {
		slog.Error("application error", "error", err)
		os.Exit(1)
	}
}

// app holds the services shared by the server and the CLI modes.
type app struct {
	cfg        *config.Config
	logger     *slog.Logger
	db         *sql.DB
	backend    translationBackend
	reconciler *translink.Reconciler
	events     *service.EventService
	hooks      *module.HookRegistry
	cacheImpl  cache.Cacher
	cacheName  string
	reports    *cache.ReportCache
	scanner    *scheduler.Scanner
}

// translationBackend is a translation store that can report reachability.
type translationBackend interface {
	translink.Store
	Ping(ctx context.Context) error
}

// sqliteBackend adds a health check to the local translation store.
type sqliteBackend struct {
	*store.TranslationStore
	db *sql.DB
}

func (b sqliteBackend) Ping(ctx context.Context) error {
	return b.db.PingContext(ctx)
}

// setup opens the database and builds every shared service.
func setup(ctx context.Context) (*app, func(), error) {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		return nil, nil, fmt.Errorf("loading config: %w", err)
	}

	logger := slog.New(logging.NewTextHandler(cfg.LogLevel))
	slog.SetDefault(logger)

	if err := os.MkdirAll(filepath.Dir(cfg.DBPath), 0o755); err != nil {
		return nil, nil, fmt.Errorf("creating data directory: %w", err)
	}

	slog.Info("initializing database", "path", cfg.DBPath)
	db, err := store.NewDB(cfg.DBPath)
	if err != nil {
		return nil, nil, fmt.Errorf("initializing database: %w", err)
	}
	closers := []func(){func() {
		if err := db.Close(); err != nil {
			slog.Error("error closing database connection", "error", err)
		}
	}}
	cleanup := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}

	if err := store.MigrateContext(ctx, db); err != nil {
		cleanup()
		return nil, nil, fmt.Errorf("running migrations: %w", err)
	}

	// WARN and ERROR records are mirrored into the events table from here on.
	eventHandler := logging.NewEventLogHandler(logging.NewTextHandler(cfg.LogLevel), db).
		WithRequestPath(middleware.GetRequestPath)
	logger = slog.New(eventHandler)
	slog.SetDefault(logger)

	if err := store.Seed(ctx, db, store.AdminCredentials{Email: cfg.AdminEmail, Password: cfg.AdminPassword}); err != nil {
		cleanup()
		return nil, nil, fmt.Errorf("seeding database: %w", err)
	}
	// Demo pages only make sense for the local store.
	if cfg.DoSeed && !cfg.UseWordPress() {
		if err := store.SeedDemo(ctx, db); err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("seeding demo content: %w", err)
		}
	}

	a := &app{cfg: cfg, logger: logger, db: db}

	if cfg.UseWordPress() {
		wp, err := wordpress.Open(cfg.WPDSN, cfg.WPTablePrefix)
		if err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("opening wordpress database: %w", err)
		}
		closers = append(closers, func() { _ = wp.Close() })
		a.backend = wp
	} else {
		a.backend = sqliteBackend{TranslationStore: store.NewTranslationStore(db), db: db}
	}
	slog.Info("translation store ready", "backend", cfg.Backend)

	a.reconciler = translink.New(a.backend, logger)
	a.events = service.NewEventService(db)
	a.hooks = module.NewHookRegistry(logger)

	a.cacheImpl, a.cacheName = cache.NewCache(cache.Config{
		RedisURL:        cfg.RedisURL,
		Prefix:          cfg.CachePrefix,
		DefaultTTL:      cfg.CacheTTLDuration(),
		MaxSize:         cfg.CacheMaxSize,
		CleanupInterval: time.Minute,
	}, logger)
	closers = append(closers, func() { _ = a.cacheImpl.Close() })
	a.reports = cache.NewReportCache(a.cacheImpl)

	a.scanner = scheduler.NewScanner(scheduler.ScannerConfig{
		Reconciler:  a.reconciler,
		DB:          db,
		Reports:     a.reports,
		Events:      a.events,
		Logger:      logger,
		AutoCleanup: cfg.AutoCleanup,
		PageLimit:   cfg.PageLimit,
		OnComplete: func(ctx context.Context, report *model.ScanReport) {
			if err := a.hooks.CallNoResult(ctx, module.HookScanCompleted, report); err != nil {
				slog.Warn("scan.completed hook failed", "error", err)
			}
		},
	})

	return a, cleanup, nil
}

// runOnce builds the services, runs fn and exits.
func runOnce(fn func(ctx context.Context, a *app) error) error {
	ctx := context.Background()
	a, cleanup, err := setup(ctx)
	if err != nil {
		return err
	}
	defer cleanup()
	return fn(ctx, a)
}

func run() error {
	ctx := context.Background()
	a, cleanup, err := setup(ctx)
	if err != nil {
		return err
	}
	defer cleanup()
	cfg := a.cfg

	sessionManager := session.New(a.db, cfg.IsDevelopment())
	slog.Info("session manager initialized")

	templatesFS, err := fs.Sub(web.Templates, "templates")
	if err != nil {
		return fmt.Errorf("getting templates fs: %w", err)
	}
	info := version.Get()

	sched := scheduler.New(a.logger)
	if cfg.ScanEnabled() {
		if err := a.scanner.Schedule(sched, cfg.ScanSchedule); err != nil {
			return fmt.Errorf("scheduling scans: %w", err)
		}
	}
	if err := sched.AddJob(pruneJobName, pruneSchedule, func() {
		pruneHistory(context.Background(), a)
	}); err != nil {
		return fmt.Errorf("scheduling history prune: %w", err)
	}

	moduleRegistry := module.NewRegistry(a.logger)
	if err := moduleRegistry.Register(disconnector.New()); err != nil {
		return fmt.Errorf("registering disconnector module: %w", err)
	}

	moduleCtx := &module.Context{
		DB:         a.db,
		Logger:     a.logger,
		Config:     cfg,
		Events:     a.events,
		Hooks:      a.hooks,
		Reconciler: a.reconciler,
		Scanner:    a.scanner,
		Reports:    a.reports,
	}
	if err := moduleRegistry.InitAll(moduleCtx); err != nil {
		return fmt.Errorf("initializing modules: %w", err)
	}
	defer func() {
		if err := moduleRegistry.ShutdownAll(); err != nil {
			slog.Error("error shutting down modules", "error", err)
		}
	}()
	a.hooks.SetIsModuleActive(moduleRegistry.IsActive)

	// Templates are parsed once module funcs are known.
	renderer, err := render.New(render.Config{
		TemplatesFS:    templatesFS,
		SessionManager: sessionManager,
		IsDev:          cfg.IsDevelopment(),
		Version:        info.Version,
		Funcs:          moduleRegistry.AllTemplateFuncs(),
		Sidebar:        moduleRegistry,
	})
	if err != nil {
		return fmt.Errorf("initializing renderer: %w", err)
	}
	moduleCtx.Render = renderer
	slog.Info("module system initialized", "modules", moduleRegistry.Count())

	sched.Start()
	defer sched.Stop()

	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Logger)
	r.Use(chimw.Recoverer)
	r.Use(chimw.Compress(5))
	r.Use(chimw.GetHead)
	r.Use(middleware.Timeout(30 * time.Second))
	r.Use(middleware.SecurityHeaders(middleware.DefaultSecurityHeadersConfig(cfg.IsDevelopment())))
	r.Use(middleware.RequestPath)
	r.Use(sessionManager.LoadAndSave)

	csrfMiddleware := middleware.CSRF(middleware.DefaultCSRFConfig([]byte(cfg.SessionSecret), cfg.IsDevelopment(), cfg.ServerPort))
	loginProtection := middleware.NewLoginProtection(middleware.DefaultLoginProtectionConfig())

	authHandler := handler.NewAuthHandler(a.db, renderer, sessionManager, loginProtection, a.events)
	adminHandler := handler.NewAdminHandler(a.db, renderer, a.scanner, sched, cfg.Backend)
	eventsHandler := handler.NewEventsHandler(a.db, renderer)
	modulesHandler := handler.NewModulesHandler(renderer, moduleRegistry, a.hooks, a.events)
	cacheHandler := handler.NewCacheHandler(renderer, a.reports, a.cacheName, a.events)
	scansHandler := handler.NewScansHandler(renderer, a.scanner, sched)
	healthHandler := handler.NewHealthHandler(a.db, sessionManager, filepath.Dir(cfg.DBPath))
	healthHandler.AddCheck(cfg.Backend, a.backend)
	if p, ok := a.cacheImpl.(handler.Pinger); ok {
		healthHandler.AddCheck("cache", p)
	}

	r.Get("/health", healthHandler.Health)
	r.Get("/health/live", healthHandler.Liveness)
	r.Get("/health/ready", healthHandler.Readiness)

	staticFS, err := fs.Sub(web.Static, "static/dist")
	if err != nil {
		return fmt.Errorf("getting static fs: %w", err)
	}
	staticMax := staticMaxAge
	if cfg.IsDevelopment() {
		staticMax = 0
	}
	r.With(middleware.StaticCache(staticMax)).
		Handle("/static/dist/*", http.StripPrefix("/static/dist/", http.FileServer(http.FS(staticFS))))

	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/admin", http.StatusSeeOther)
	})

	r.Group(func(r chi.Router) {
		r.Use(csrfMiddleware)
		r.Get(handler.RouteLogin, authHandler.LoginForm)
		r.With(loginProtection.Middleware()).Post(handler.RouteLogin, authHandler.Login)
		r.Post(handler.RouteLogout, authHandler.Logout)
	})

	r.Route("/admin", func(r chi.Router) {
		r.Use(csrfMiddleware)
		r.Use(middleware.Auth(sessionManager))
		r.Use(middleware.LoadUser(sessionManager, a.db))

		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireRoleWithEventLog(middleware.RoleViewer, a.events))

			r.Get(handler.RouteRoot, adminHandler.Dashboard)
			r.Get(handler.RouteEvents, eventsHandler.List)
			r.Get(handler.RouteScans, scansHandler.List)
			moduleRegistry.AdminRouteAll(r)
		})

		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireAdminWithEventLog(a.events))

			r.Post(handler.RouteScansRun, scansHandler.Run)
			r.Get(handler.RouteModules, modulesHandler.List)
			r.Post(handler.RouteModuleToggle, modulesHandler.ToggleActive)
			r.Get(handler.RouteCache, cacheHandler.Stats)
			r.Post(handler.RouteCacheClear, cacheHandler.Clear)
		})
	})

	srv := &http.Server{
		Addr:              cfg.ServerAddr(),
		Handler:           r,
		ReadTimeout:       15 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       60 * time.Second,
		MaxHeaderBytes:    1 << 20,
	}

	go func() {
		slog.Info("starting server", "addr", cfg.ServerAddr(), "env", cfg.Env, "version", info.String())
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("server error", "error", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}

	slog.Info("server stopped")
	return nil
}

// pruneHistory drops scan runs and events older than historyRetention.
func pruneHistory(ctx context.Context, a *app) {
	runs, err := a.scanner.Prune(ctx, historyRetention)
	if err != nil {
		slog.Warn("failed to prune scan history", "error", err)
	}
	events, err := a.events.DeleteOldEvents(ctx, historyRetention)
	if err != nil {
		slog.Warn("failed to prune event log", "error", err)
	}
	slog.Info("history pruned", "scan_runs", runs, "events", events)
}
