// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"testing"
	"time"

	"github.com/olegiv/pagelinks/internal/model"
	"github.com/olegiv/pagelinks/internal/store"
	"github.com/olegiv/pagelinks/internal/testutil"
)

func readEvent(t *testing.T, db *sql.DB) store.Event {
	t.Helper()
	events, err := store.New(db).ListEvents(context.Background(), store.ListEventsParams{Limit: 10})
	if err != nil {
		t.Fatalf("ListEvents: %v", err)
	}
	if len(events) != 1 {
		t.Fatalf("got %d events, want 1", len(events))
	}
	return events[0]
}

func TestLogEvent(t *testing.T) {
	db, cleanup := testutil.TestDB(t)
	defer cleanup()
	svc := NewEventService(db)

	userID := int64(1)
	err := svc.LogEvent(context.Background(), model.EventLevelInfo, model.EventCategoryTranslation,
		"Successfully disconnected: Miele Washer and Lavatrice Miele", &userID, "127.0.0.1",
		map[string]any{"en_id": 101, "it_id": 202})
	if err != nil {
		t.Fatalf("LogEvent: %v", err)
	}

	ev := readEvent(t, db)
	if ev.Level != model.EventLevelInfo || ev.Category != model.EventCategoryTranslation {
		t.Errorf("level/category = %q/%q", ev.Level, ev.Category)
	}
	if !ev.UserID.Valid || ev.UserID.Int64 != 1 {
		t.Errorf("UserID = %+v, want 1", ev.UserID)
	}
	if ev.IpAddress != "127.0.0.1" {
		t.Errorf("IpAddress = %q", ev.IpAddress)
	}

	var meta map[string]int
	if err := json.Unmarshal([]byte(ev.Metadata), &meta); err != nil {
		t.Fatalf("metadata: %v", err)
	}
	if meta["en_id"] != 101 || meta["it_id"] != 202 {
		t.Errorf("metadata = %v", meta)
	}
}

func TestLogEvent_NilUserAndMetadata(t *testing.T) {
	db, cleanup := testutil.TestDB(t)
	defer cleanup()
	err := NewEventService(db).LogInfo(context.Background(), model.EventCategorySystem, "started", nil, "", nil)
	if err != nil {
		t.Fatal(err)
	}
	ev := readEvent(t, db)
	if ev.UserID.Valid {
		t.Error("UserID should be NULL")
	}
	if ev.Metadata != "{}" {
		t.Errorf("Metadata = %q, want {}", ev.Metadata)
	}
}

func TestLogCategories(t *testing.T) {
	tests := []struct {
		name  string
		logFn func(*EventService, context.Context) error
		want  string
	}{
		{"auth", func(s *EventService, ctx context.Context) error {
			return s.LogAuthEvent(ctx, model.EventLevelWarning, "login failed", nil, "", nil)
		}, model.EventCategoryAuth},
		{"translation", func(s *EventService, ctx context.Context) error {
			return s.LogTranslationEvent(ctx, model.EventLevelInfo, "cleanup", nil, "", nil)
		}, model.EventCategoryTranslation},
		{"scheduler", func(s *EventService, ctx context.Context) error {
			return s.LogSchedulerEvent(ctx, model.EventLevelInfo, "scan finished", nil)
		}, model.EventCategoryScheduler},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db, cleanup := testutil.TestDB(t)
			defer cleanup()
			if err := tt.logFn(NewEventService(db), context.Background()); err != nil {
				t.Fatal(err)
			}
			if got := readEvent(t, db).Category; got != tt.want {
				t.Errorf("category = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestListRecent(t *testing.T) {
	db, cleanup := testutil.TestDB(t)
	defer cleanup()
	svc := NewEventService(db)
	ctx := context.Background()

	_ = svc.LogInfo(ctx, model.EventCategoryAuth, "login", nil, "", nil)
	_ = svc.LogInfo(ctx, model.EventCategoryTranslation, "disconnect", nil, "", nil)
	_ = svc.LogWarning(ctx, model.EventCategoryTranslation, "partial", nil, "", nil)

	all, err := svc.ListRecent(ctx, "", 10)
	if err != nil || len(all) != 3 {
		t.Fatalf("ListRecent all = %d, %v", len(all), err)
	}
	translation, err := svc.ListRecent(ctx, model.EventCategoryTranslation, 10)
	if err != nil || len(translation) != 2 {
		t.Fatalf("ListRecent translation = %d, %v", len(translation), err)
	}
	if translation[0].Message != "partial" {
		t.Errorf("newest first: got %q", translation[0].Message)
	}
}

func TestDeleteOldEvents(t *testing.T) {
	db, cleanup := testutil.TestDB(t)
	defer cleanup()
	svc := NewEventService(db)
	ctx := context.Background()

	_, err := store.New(db).CreateEvent(ctx, store.CreateEventParams{
		Level:     model.EventLevelInfo,
		Category:  model.EventCategorySystem,
		Message:   "old",
		Metadata:  "{}",
		CreatedAt: time.Now().UTC().Add(-40 * 24 * time.Hour),
	})
	if err != nil {
		t.Fatal(err)
	}
	_ = svc.LogInfo(ctx, model.EventCategorySystem, "recent", nil, "", nil)

	n, err := svc.DeleteOldEvents(ctx, 30*24*time.Hour)
	if err != nil {
		t.Fatalf("DeleteOldEvents: %v", err)
	}
	if n != 1 {
		t.Errorf("deleted %d, want 1", n)
	}
	if readEvent(t, db).Message != "recent" {
		t.Error("recent event should survive")
	}
}
