// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package render parses the admin templates once and renders them with the
// per-request data every page needs: the current user, the flash message,
// the module sidebar and the breadcrumb trail.
package render

import (
	"bytes"
	"fmt"
	"html/template"
	"io/fs"
	"maps"
	"net/http"
	"path"
	"reflect"
	"regexp"
	"strings"
	"time"

	"github.com/alexedwards/scs/v2"

	"github.com/olegiv/pagelinks/internal/uikit"
)

// Session keys for flash messages.
const (
	sessionKeyFlash     = "flash"
	sessionKeyFlashType = "flash_type"
)

// Flash types understood by the layout.
const (
	FlashSuccess = "success"
	FlashError   = "error"
	FlashWarning = "warning"
	FlashInfo    = "info"
)

// blankLinesRegex collapses runs of blank lines left behind by template actions.
var blankLinesRegex = regexp.MustCompile(`(\r?\n[ \t]*)+\r?\n`)

// Breadcrumb is re-exported so handlers need only this package.
type Breadcrumb = uikit.Breadcrumb

// SidebarModule is one module link in the admin sidebar.
type SidebarModule struct {
	Name     string
	Label    string
	AdminURL string
}

// SidebarProvider lists the modules that should appear in the sidebar.
type SidebarProvider interface {
	ListSidebarModules() []SidebarModule
}

// Renderer handles template rendering with caching.
type Renderer struct {
	templates      map[string]*template.Template
	sessionManager *scs.SessionManager
	isDev          bool
	version        string
	extraFuncs     template.FuncMap
	sidebar        SidebarProvider
}

// Config holds renderer configuration.
type Config struct {
	TemplatesFS    fs.FS
	SessionManager *scs.SessionManager
	IsDev          bool
	Version        string
	// Funcs are merged over the built-in functions before parsing.
	Funcs   template.FuncMap
	Sidebar SidebarProvider
}

// New creates a new Renderer with parsed templates.
func New(cfg Config) (*Renderer, error) {
	r := &Renderer{
		templates:      make(map[string]*template.Template),
		sessionManager: cfg.SessionManager,
		isDev:          cfg.IsDev,
		version:        cfg.Version,
		sidebar:        cfg.Sidebar,
	}
	r.AddTemplateFuncs(cfg.Funcs)

	if err := r.parseTemplates(cfg.TemplatesFS); err != nil {
		return nil, err
	}

	return r, nil
}

// AddTemplateFuncs merges funcs into the set used for later parses.
func (r *Renderer) AddTemplateFuncs(funcs template.FuncMap) {
	if len(funcs) == 0 {
		return
	}
	if r.extraFuncs == nil {
		r.extraFuncs = make(template.FuncMap, len(funcs))
	}
	maps.Copy(r.extraFuncs, funcs)
}

// SetSidebar sets the sidebar provider. The module registry is created
// after the renderer, so it is attached late.
func (r *Renderer) SetSidebar(p SidebarProvider) {
	r.sidebar = p
}

// parseTemplates parses all templates from the filesystem.
func (r *Renderer) parseTemplates(templatesFS fs.FS) error {
	partials, err := getTemplateFiles(templatesFS, "partials")
	if err != nil {
		return fmt.Errorf("getting partials: %w", err)
	}

	const (
		baseLayout  = "layouts/base.html"
		adminLayout = "layouts/admin.html"
	)

	groups := []struct {
		dir     string
		layouts []string
	}{
		{"admin", []string{baseLayout, adminLayout}},
		{"auth", []string{baseLayout}},
	}

	funcs := r.TemplateFuncs()
	for _, g := range groups {
		pages, err := getTemplateFiles(templatesFS, g.dir)
		if err != nil {
			return fmt.Errorf("getting %s templates: %w", g.dir, err)
		}

		for _, tmplPath := range pages {
			name := g.dir + "/" + strings.TrimSuffix(path.Base(tmplPath), ".html")

			files := append([]string{}, g.layouts...)
			files = append(files, partials...)
			files = append(files, tmplPath)

			tmpl, err := template.New("").Funcs(funcs).ParseFS(templatesFS, files...)
			if err != nil {
				return fmt.Errorf("parsing template %s: %w", name, err)
			}

			r.templates[name] = tmpl
		}
	}

	return nil
}

// getTemplateFiles returns all .html files in a directory. A missing
// directory yields no files.
func getTemplateFiles(templatesFS fs.FS, dir string) ([]string, error) {
	var files []string

	entries, err := fs.ReadDir(templatesFS, dir)
	if err != nil {
		return files, nil
	}

	for _, entry := range entries {
		if !entry.IsDir() && strings.HasSuffix(entry.Name(), ".html") {
			files = append(files, path.Join(dir, entry.Name()))
		}
	}

	return files, nil
}

// HasTemplate reports whether name was parsed.
func (r *Renderer) HasTemplate(name string) bool {
	_, ok := r.templates[name]
	return ok
}

// TemplateFuncs returns the uikit helpers, the role helpers and any funcs
// added through Config.Funcs or AddTemplateFuncs.
func (r *Renderer) TemplateFuncs() template.FuncMap {
	funcs := uikit.TemplateFuncs()

	funcs["isAdmin"] = func(user any) bool {
		return getUserRole(user) == "admin"
	}
	funcs["isViewer"] = func(user any) bool {
		role := getUserRole(user)
		return role == "admin" || role == "viewer"
	}
	funcs["userRole"] = getUserRole
	funcs["isDev"] = func() bool {
		return r.isDev
	}

	maps.Copy(funcs, r.extraFuncs)
	return funcs
}

// getUserRole extracts the Role field from a user struct or pointer.
// Templates receive store.User values, but this keeps render free of the
// store import.
func getUserRole(user any) string {
	if user == nil {
		return ""
	}
	v := reflect.ValueOf(user)
	if v.Kind() == reflect.Pointer {
		if v.IsNil() {
			return ""
		}
		v = v.Elem()
	}
	if v.Kind() != reflect.Struct {
		return ""
	}
	f := v.FieldByName("Role")
	if !f.IsValid() || f.Kind() != reflect.String {
		return ""
	}
	return f.String()
}

// ListSidebarModules returns the module links for the sidebar.
func (r *Renderer) ListSidebarModules() []SidebarModule {
	if r.sidebar == nil {
		return nil
	}
	return r.sidebar.ListSidebarModules()
}

// TemplateData holds data passed to templates.
type TemplateData struct {
	Title       string
	User        any
	Data        any
	Breadcrumbs []Breadcrumb
	Sidebar     []SidebarModule
	CurrentPath string
	Flash       string
	FlashType   string
	CurrentYear int
	Version     string
}

// Render renders a template with the given data.
func (r *Renderer) Render(w http.ResponseWriter, req *http.Request, name string, data TemplateData) error {
	return r.RenderStatus(w, req, http.StatusOK, name, data)
}

// RenderStatus renders a template with an explicit status code.
func (r *Renderer) RenderStatus(w http.ResponseWriter, req *http.Request, status int, name string, data TemplateData) error {
	tmpl, ok := r.templates[name]
	if !ok {
		return fmt.Errorf("template %s not found", name)
	}

	data.CurrentYear = time.Now().Year()
	data.Version = r.version
	data.CurrentPath = req.URL.Path
	if data.Sidebar == nil {
		data.Sidebar = r.ListSidebarModules()
	}

	if data.Flash == "" {
		data.Flash, data.FlashType = r.popFlash(req)
	}

	// Render to a buffer first so a template error does not leave a half
	// written page.
	buf := new(bytes.Buffer)
	if err := tmpl.ExecuteTemplate(buf, "base", data); err != nil {
		return fmt.Errorf("executing template %s: %w", name, err)
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, err := w.Write(blankLinesRegex.ReplaceAll(buf.Bytes(), []byte("\n")))
	return err
}

// SetFlash sets a flash message in the session.
func (r *Renderer) SetFlash(req *http.Request, message, flashType string) {
	if r.sessionManager == nil {
		return
	}
	r.sessionManager.Put(req.Context(), sessionKeyFlash, message)
	r.sessionManager.Put(req.Context(), sessionKeyFlashType, flashType)
}

func (r *Renderer) popFlash(req *http.Request) (message, flashType string) {
	if r.sessionManager == nil {
		return "", ""
	}
	message = r.sessionManager.PopString(req.Context(), sessionKeyFlash)
	if message == "" {
		return "", ""
	}
	flashType = r.sessionManager.PopString(req.Context(), sessionKeyFlashType)
	if flashType == "" {
		flashType = FlashInfo
	}
	return message, flashType
}
