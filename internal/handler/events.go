// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"database/sql"
	"encoding/json"
	"net/http"
	"slices"
	"sort"
	"strconv"
	"strings"

	"github.com/olegiv/pagelinks/internal/middleware"
	"github.com/olegiv/pagelinks/internal/model"
	"github.com/olegiv/pagelinks/internal/render"
	"github.com/olegiv/pagelinks/internal/store"
	"github.com/olegiv/pagelinks/internal/uikit"
)

// EventsPerPage is the number of events to display per page.
const EventsPerPage = 25

// detailsLengthThreshold is the max chars before details are collapsible
const detailsLengthThreshold = 80

// eventCategories lists the categories offered by the filter.
var eventCategories = []string{
	model.EventCategoryTranslation,
	model.EventCategoryScheduler,
	model.EventCategoryAuth,
	model.EventCategoryCache,
	model.EventCategoryConfig,
	model.EventCategorySystem,
}

// EventsHandler handles event log viewing routes.
type EventsHandler struct {
	queries  *store.Queries
	renderer *render.Renderer
}

// NewEventsHandler creates a new EventsHandler.
func NewEventsHandler(db *sql.DB, renderer *render.Renderer) *EventsHandler {
	return &EventsHandler{
		queries:  store.New(db),
		renderer: renderer,
	}
}

// EventView is an event prepared for display.
type EventView struct {
	ID          int64
	Level       string
	Category    string
	Message     string
	Details     string // metadata as "key: value" pairs
	DetailsLong bool
	IPAddress   string
	CreatedAt   string
	Ago         string
}

func newEventView(e store.Event) EventView {
	details := formatMetadata(e.Metadata)
	return EventView{
		ID:          e.ID,
		Level:       e.Level,
		Category:    e.Category,
		Message:     e.Message,
		Details:     details,
		DetailsLong: len(details) > detailsLengthThreshold,
		IPAddress:   e.IpAddress,
		CreatedAt:   e.CreatedAt.Format("2006-01-02 15:04:05"),
		Ago:         formatTimeAgo(e.CreatedAt),
	}
}

func newEventViews(events []store.Event) []EventView {
	views := make([]EventView, len(events))
	for i, e := range events {
		views[i] = newEventView(e)
	}
	return views
}

// formatMetadata converts JSON metadata to readable text format.
// Example: {"en_id":101,"it_id":202} -> "en_id: 101, it_id: 202"
func formatMetadata(metadata string) string {
	if metadata == "" || metadata == "{}" {
		return ""
	}

	var data map[string]any
	if err := json.Unmarshal([]byte(metadata), &data); err != nil {
		return metadata
	}
	if len(data) == 0 {
		return ""
	}

	keys := make([]string, 0, len(data))
	for key := range data {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, key := range keys {
		var strValue string
		switch v := data[key].(type) {
		case string:
			strValue = v
		case float64:
			strValue = strconv.FormatFloat(v, 'f', -1, 64)
		case bool:
			strValue = strconv.FormatBool(v)
		default:
			if b, err := json.Marshal(v); err == nil {
				strValue = string(b)
			}
		}
		parts = append(parts, key+": "+strValue)
	}

	return strings.Join(parts, ", ")
}

// EventsListData holds data for the events list template.
type EventsListData struct {
	Events      []EventView
	TotalEvents int64
	Category    string
	Categories  []string
	Pagination  uikit.AdminPagination
}

// List handles GET /admin/events - displays a paginated list of events.
func (h *EventsHandler) List(w http.ResponseWriter, r *http.Request) {
	category := r.URL.Query().Get("category")
	if !slices.Contains(eventCategories, category) {
		category = ""
	}
	ctx := r.Context()

	countFn := func() (int64, error) { return h.queries.CountEvents(ctx) }
	if category != "" {
		countFn = func() (int64, error) { return h.queries.CountEventsByCategory(ctx, category) }
	}
	total, err := countFn()
	if err != nil {
		logAndInternalError(w, "failed to count events", "error", err)
		return
	}

	page, _ := uikit.NormalizePagination(uikit.ParsePageParam(r), int(total), EventsPerPage)
	offset := int64((page - 1) * EventsPerPage)

	listFn := func() ([]store.Event, error) {
		return h.queries.ListEvents(ctx, store.ListEventsParams{Limit: EventsPerPage, Offset: offset})
	}
	if category != "" {
		listFn = func() ([]store.Event, error) {
			return h.queries.ListEventsByCategory(ctx, store.ListEventsByCategoryParams{
				Category: category,
				Limit:    EventsPerPage,
				Offset:   offset,
			})
		}
	}

	events, total, err := ListAndCount(listFn, countFn)
	if err != nil {
		logAndInternalError(w, "failed to list events", "error", err)
		return
	}

	data := EventsListData{
		Events:      newEventViews(events),
		TotalEvents: total,
		Category:    category,
		Categories:  eventCategories,
		Pagination:  uikit.BuildAdminPagination(page, int(total), EventsPerPage, redirectAdminEvents, r.URL.Query()),
	}

	renderPage(w, r, h.renderer, "admin/events", render.TemplateData{
		Title:       "Event log",
		User:        middleware.GetUser(r),
		Data:        data,
		Breadcrumbs: uikit.Breadcrumbs("Event log", redirectAdminEvents),
	})
}
