// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package module

import (
	"context"
	"database/sql"
	"errors"
	"html/template"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/olegiv/pagelinks/internal/testutil"
)

type mockModule struct {
	BaseModule
	deps        []string
	migrations  []Migration
	adminURL    string
	initCalled  bool
	shutdownErr error
	funcs       template.FuncMap
}

func newMockModule(name string) *mockModule {
	return &mockModule{BaseModule: NewBaseModule(name, "1.0.0", name+" module")}
}

func (m *mockModule) Dependencies() []string          { return m.deps }
func (m *mockModule) Migrations() []Migration         { return m.migrations }
func (m *mockModule) AdminURL() string                { return m.adminURL }
func (m *mockModule) Shutdown() error                 { return m.shutdownErr }
func (m *mockModule) TemplateFuncs() template.FuncMap { return m.funcs }
func (m *mockModule) Init(ctx *Context) error {
	m.initCalled = true
	return m.BaseModule.Init(ctx)
}
func (m *mockModule) RegisterAdminRoutes(r chi.Router) {
	r.Get("/"+m.Name(), func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(m.Name()))
	})
}

func initRegistry(t *testing.T, modules ...Module) (*Registry, *sql.DB) {
	t.Helper()
	db := testutil.TestMemoryDB(t)
	r := NewRegistry(newTestLogger())
	for _, m := range modules {
		if err := r.Register(m); err != nil {
			t.Fatalf("Register(%s): %v", m.Name(), err)
		}
	}
	if err := r.InitAll(&Context{DB: db, Logger: newTestLogger(), Hooks: NewHookRegistry(newTestLogger())}); err != nil {
		t.Fatalf("InitAll: %v", err)
	}
	return r, db
}

func TestRegistry_RegisterAndList(t *testing.T) {
	r := NewRegistry(newTestLogger())
	a, b := newMockModule("a"), newMockModule("b")

	if err := r.Register(a); err != nil {
		t.Fatal(err)
	}
	if err := r.Register(b); err != nil {
		t.Fatal(err)
	}
	if err := r.Register(newMockModule("a")); err == nil {
		t.Error("duplicate Register should fail")
	}

	if r.Count() != 2 {
		t.Errorf("Count() = %d", r.Count())
	}
	list := r.List()
	if list[0].Name() != "a" || list[1].Name() != "b" {
		t.Errorf("List() order = %s, %s", list[0].Name(), list[1].Name())
	}
	if m, ok := r.Get("b"); !ok || m != b {
		t.Error("Get(b) failed")
	}
	if _, ok := r.Get("missing"); ok {
		t.Error("Get(missing) should fail")
	}
}

func TestRegistry_InitAll(t *testing.T) {
	m := newMockModule("disconnector")
	ran := 0
	m.migrations = []Migration{{
		Version:     1,
		Description: "create notes",
		Up: func(db *sql.DB) error {
			ran++
			_, err := db.Exec("CREATE TABLE notes (id INTEGER PRIMARY KEY)")
			return err
		},
		Down: func(db *sql.DB) error {
			_, err := db.Exec("DROP TABLE notes")
			return err
		},
	}}

	r, db := initRegistry(t, m)
	if !m.initCalled {
		t.Error("Init was not called")
	}
	if ran != 1 {
		t.Errorf("migration ran %d times", ran)
	}

	// A second InitAll does not rerun applied migrations.
	if err := r.InitAll(&Context{DB: db, Logger: newTestLogger()}); err != nil {
		t.Fatal(err)
	}
	if ran != 1 {
		t.Errorf("migration reran: %d", ran)
	}

	info := r.ListInfo()
	if len(info) != 1 || info[0].MigrationCount != 1 || info[0].MigrationsApplied != 1 || !info[0].Active {
		t.Errorf("ListInfo() = %+v", info)
	}
}

func TestRegistry_MissingDependency(t *testing.T) {
	m := newMockModule("needs-other")
	m.deps = []string{"other"}

	r := NewRegistry(newTestLogger())
	_ = r.Register(m)
	err := r.InitAll(&Context{DB: testutil.TestMemoryDB(t), Logger: newTestLogger()})
	if err == nil {
		t.Fatal("InitAll should fail on a missing dependency")
	}
}

func TestRegistry_ActiveStatus(t *testing.T) {
	m := newMockModule("disconnector")
	m.adminURL = "/admin/disconnector"
	m.funcs = template.FuncMap{"x": func() string { return "x" }}
	hooks := NewHookRegistry(newTestLogger())

	db := testutil.TestMemoryDB(t)
	r := NewRegistry(newTestLogger())
	_ = r.Register(m)
	if err := r.InitAll(&Context{DB: db, Logger: newTestLogger(), Hooks: hooks}); err != nil {
		t.Fatal(err)
	}

	if !r.IsActive("disconnector") || !r.IsActive("untracked") {
		t.Error("modules default to active")
	}
	if len(r.ListSidebarModules()) != 1 || len(r.AllTemplateFuncs()) != 1 {
		t.Error("active module should contribute sidebar entry and funcs")
	}

	called := false
	hooks.RegisterFunc(HookTranslationsChanged, "h", "disconnector", func(_ context.Context, d any) (any, error) {
		called = true
		return d, nil
	})

	if err := r.SetActive("disconnector", false); err != nil {
		t.Fatal(err)
	}
	if r.IsActive("disconnector") {
		t.Error("SetActive(false) not applied")
	}
	if len(r.ListSidebarModules()) != 0 || len(r.AllTemplateFuncs()) != 0 {
		t.Error("inactive module should be hidden")
	}
	_ = hooks.CallNoResult(context.Background(), HookTranslationsChanged, nil)
	if called {
		t.Error("hooks of inactive modules should be skipped")
	}

	// Status survives a new registry on the same database.
	r2 := NewRegistry(newTestLogger())
	_ = r2.Register(newMockModule("disconnector"))
	if err := r2.InitAll(&Context{DB: db, Logger: newTestLogger()}); err != nil {
		t.Fatal(err)
	}
	if r2.IsActive("disconnector") {
		t.Error("inactive status was not persisted")
	}

	if err := r.SetActive("missing", true); err == nil {
		t.Error("SetActive on unknown module should fail")
	}
	if err := NewRegistry(newTestLogger()).SetActive("x", true); err == nil {
		t.Error("SetActive before InitAll should fail")
	}
}

func TestRegistry_AdminRouteAll(t *testing.T) {
	m := newMockModule("disconnector")
	r, _ := initRegistry(t, m)

	router := chi.NewRouter()
	r.AdminRouteAll(router)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/disconnector", nil))
	if rec.Code != http.StatusOK || rec.Body.String() != "disconnector" {
		t.Errorf("active route = %d %q", rec.Code, rec.Body.String())
	}

	if err := r.SetActive("disconnector", false); err != nil {
		t.Fatal(err)
	}
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/disconnector", nil))
	if rec.Code != http.StatusSeeOther {
		t.Errorf("inactive route status = %d, want 303", rec.Code)
	}
}

func TestRegistry_ShutdownAll(t *testing.T) {
	ok := newMockModule("ok")
	bad := newMockModule("bad")
	bad.shutdownErr = errors.New("boom")
	r, _ := initRegistry(t, ok, bad)

	if err := r.ShutdownAll(); err == nil {
		t.Error("ShutdownAll should report the failing module")
	}
}
