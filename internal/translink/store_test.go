// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package translink

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sort"

	"github.com/olegiv/pagelinks/internal/model"
)

var errWrite = errors.New("write refused")

// memStore is a Polylang-like in-memory store: saving a mapping assigns it
// to every page it names.
type memStore struct {
	pages     map[int64]*model.Page
	mappings  map[int64]model.TranslationMap
	malformed map[int64]bool
	saves     []model.TranslationMap

	// failTruncate rejects single-entry writes for these pages.
	failTruncate map[int64]bool
}

func newMemStore() *memStore {
	return &memStore{
		pages:        make(map[int64]*model.Page),
		mappings:     make(map[int64]model.TranslationMap),
		malformed:    make(map[int64]bool),
		failTruncate: make(map[int64]bool),
	}
}

func (s *memStore) addPage(id int64, lang, title string) {
	s.pages[id] = &model.Page{ID: id, Title: title, LanguageCode: lang, Status: model.PageStatusPublished}
}

// link sets a mapping on exactly one page, allowing asymmetric data.
func (s *memStore) link(pageID int64, m model.TranslationMap) {
	s.mappings[pageID] = m.Clone()
}

func (s *memStore) connect(m model.TranslationMap) {
	for _, id := range m {
		s.mappings[id] = m.Clone()
	}
}

func (s *memStore) GetTranslations(_ context.Context, pageID int64) (model.TranslationMap, error) {
	if s.malformed[pageID] {
		return nil, model.ErrMalformedMapping
	}
	m, ok := s.mappings[pageID]
	if !ok {
		return model.TranslationMap{}, nil
	}
	return m.Clone(), nil
}

func (s *memStore) SaveTranslations(_ context.Context, m model.TranslationMap) error {
	if len(m) == 1 {
		for _, id := range m {
			if s.failTruncate[id] {
				return errWrite
			}
		}
	}
	s.saves = append(s.saves, m.Clone())
	for _, id := range m {
		s.mappings[id] = m.Clone()
	}
	return nil
}

func (s *memStore) GetPage(_ context.Context, pageID int64) (*model.Page, error) {
	p, ok := s.pages[pageID]
	if !ok {
		return nil, model.ErrPageNotFound
	}
	cp := *p
	return &cp, nil
}

func (s *memStore) GetLanguageCode(_ context.Context, pageID int64) (string, error) {
	p, ok := s.pages[pageID]
	if !ok {
		return "", model.ErrPageNotFound
	}
	return p.LanguageCode, nil
}

func (s *memStore) ListPages(_ context.Context, limit int) ([]model.Page, error) {
	pages := make([]model.Page, 0, len(s.pages))
	for _, p := range s.pages {
		pages = append(pages, *p)
	}
	sort.Slice(pages, func(i, j int) bool { return pages[i].Title < pages[j].Title })
	if limit > 0 && len(pages) > limit {
		pages = pages[:limit]
	}
	return pages, nil
}

func (s *memStore) all() []model.Page {
	pages, _ := s.ListPages(context.Background(), 0)
	return pages
}

func testReconciler(s *memStore) *Reconciler {
	return New(s, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

// sampleStore holds one connected pair and one page with a dangling link.
func sampleStore() *memStore {
	s := newMemStore()
	s.addPage(101, "en", "Miele Washing Machine")
	s.addPage(202, "it", "Lavatrice Miele")
	s.addPage(303, "en", "Bosch Dryer")
	s.connect(model.TranslationMap{"en": 101, "it": 202})
	s.link(303, model.TranslationMap{"en": 303, "it": 404})
	return s
}
