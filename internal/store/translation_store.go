// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"golang.org/x/text/language"

	"github.com/olegiv/pagelinks/internal/model"
)

// TranslationStore keeps page translations in translation groups. Every page
// points to at most one group and the group's entries are the page's mapping.
type TranslationStore struct {
	db      *sql.DB
	queries *Queries
}

// NewTranslationStore creates a translation store over db.
func NewTranslationStore(db *sql.DB) *TranslationStore {
	return &TranslationStore{db: db, queries: New(db)}
}

// GetPage returns the page with id, or model.ErrPageNotFound.
func (s *TranslationStore) GetPage(ctx context.Context, id int64) (*model.Page, error) {
	p, err := s.queries.GetPageByID(ctx, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, model.ErrPageNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("getting page %d: %w", id, err)
	}
	page := p.ToModel()
	return &page, nil
}

// GetLanguageCode returns the language of page id, or model.ErrPageNotFound.
func (s *TranslationStore) GetLanguageCode(ctx context.Context, id int64) (string, error) {
	page, err := s.GetPage(ctx, id)
	if err != nil {
		return "", err
	}
	return page.LanguageCode, nil
}

// ListPages returns up to limit published pages ordered by title.
// A non-positive limit returns every published page.
func (s *TranslationStore) ListPages(ctx context.Context, limit int) ([]model.Page, error) {
	l := int64(limit)
	if l <= 0 {
		l = -1
	}
	rows, err := s.queries.ListPublishedPages(ctx, l)
	if err != nil {
		return nil, fmt.Errorf("listing pages: %w", err)
	}
	pages := make([]model.Page, 0, len(rows))
	for _, p := range rows {
		pages = append(pages, p.ToModel())
	}
	return pages, nil
}

// GetTranslations returns the mapping of the group page id belongs to.
// Pages that do not exist or have no group yield an empty mapping.
func (s *TranslationStore) GetTranslations(ctx context.Context, id int64) (model.TranslationMap, error) {
	p, err := s.queries.GetPageByID(ctx, id)
	if errors.Is(err, sql.ErrNoRows) {
		return model.TranslationMap{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting page %d: %w", id, err)
	}
	if !p.TranslationGroupID.Valid {
		return selfMapping(p.LanguageCode, id), nil
	}

	entries, err := s.queries.ListTranslationGroupEntries(ctx, p.TranslationGroupID.Int64)
	if err != nil {
		return nil, fmt.Errorf("listing translations of group %d: %w", p.TranslationGroupID.Int64, err)
	}

	m := make(model.TranslationMap, len(entries))
	for _, e := range entries {
		if e.LanguageCode == "" || e.PageID <= 0 {
			return nil, fmt.Errorf("%w: group %d has entry %q => %d",
				model.ErrMalformedMapping, e.GroupID, e.LanguageCode, e.PageID)
		}
		m[e.LanguageCode] = e.PageID
	}
	return m, nil
}

// SaveTranslations creates a new group holding mapping and moves every
// existing page it names into that group. Groups no page points to anymore
// are removed. An empty mapping is a no-op.
func (s *TranslationStore) SaveTranslations(ctx context.Context, mapping model.TranslationMap) error {
	if len(mapping) == 0 {
		return nil
	}
	for lang, id := range mapping {
		if id <= 0 || !ValidLanguageCode(lang) {
			return fmt.Errorf("%w: %q => %d", model.ErrMalformedMapping, lang, id)
		}
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	q := s.queries.WithTx(tx)
	now := time.Now()

	groupID, err := q.CreateTranslationGroup(ctx, now)
	if err != nil {
		return fmt.Errorf("creating translation group: %w", err)
	}

	for _, lang := range mapping.Languages() {
		if err := q.CreateTranslationGroupEntry(ctx, CreateTranslationGroupEntryParams{
			GroupID:      groupID,
			LanguageCode: lang,
			PageID:       mapping[lang],
		}); err != nil {
			return fmt.Errorf("adding %s translation: %w", lang, err)
		}
	}

	for _, id := range mapping.PageIDs() {
		if err := q.SetPageTranslationGroup(ctx, SetPageTranslationGroupParams{
			TranslationGroupID: sql.NullInt64{Int64: groupID, Valid: true},
			UpdatedAt:          now,
			ID:                 id,
		}); err != nil {
			return fmt.Errorf("moving page %d to group %d: %w", id, groupID, err)
		}
	}

	if err := q.DeleteUnreferencedTranslationEntries(ctx); err != nil {
		return fmt.Errorf("pruning translation entries: %w", err)
	}
	if _, err := q.DeleteUnreferencedTranslationGroups(ctx); err != nil {
		return fmt.Errorf("pruning translation groups: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing translations: %w", err)
	}
	return nil
}

// selfMapping is the mapping of a page outside any translation group: the
// page under its own language, or nothing when it has no language.
func selfMapping(lang string, id int64) model.TranslationMap {
	if lang == "" {
		return model.TranslationMap{}
	}
	return model.TranslationMap{lang: id}
}

// ValidLanguageCode reports whether code is a well-formed BCP 47 tag.
func ValidLanguageCode(code string) bool {
	if code == "" {
		return false
	}
	_, err := language.Parse(code)
	return err == nil
}

// DeletePage removes a page. Its translation entries are kept, so other
// pages of its group now hold an orphaned reference.
func (s *TranslationStore) DeletePage(ctx context.Context, id int64) error {
	if err := s.queries.DeletePage(ctx, id); err != nil {
		return fmt.Errorf("deleting page %d: %w", id, err)
	}
	return nil
}

// ToModel converts a row to the domain page.
func (p Page) ToModel() model.Page {
	return model.Page{
		ID:                 p.ID,
		Title:              p.Title,
		Slug:               p.Slug,
		Status:             p.Status,
		LanguageCode:       p.LanguageCode,
		TranslationGroupID: p.TranslationGroupID,
		CreatedAt:          p.CreatedAt,
		UpdatedAt:          p.UpdatedAt,
	}
}
