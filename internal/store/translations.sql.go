// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package store

import (
	"context"
	"time"
)

const createTranslationGroup = `INSERT INTO translation_groups (created_at) VALUES (?) RETURNING id`

func (q *Queries) CreateTranslationGroup(ctx context.Context, createdAt time.Time) (int64, error) {
	var id int64
	err := q.db.QueryRowContext(ctx, createTranslationGroup, createdAt).Scan(&id)
	return id, err
}

const createTranslationGroupEntry = `
INSERT INTO translation_group_entries (group_id, language_code, page_id)
VALUES (?, ?, ?)`

type CreateTranslationGroupEntryParams struct {
	GroupID      int64  `json:"group_id"`
	LanguageCode string `json:"language_code"`
	PageID       int64  `json:"page_id"`
}

func (q *Queries) CreateTranslationGroupEntry(ctx context.Context, arg CreateTranslationGroupEntryParams) error {
	_, err := q.db.ExecContext(ctx, createTranslationGroupEntry, arg.GroupID, arg.LanguageCode, arg.PageID)
	return err
}

const listTranslationGroupEntries = `
SELECT group_id, language_code, page_id FROM translation_group_entries
WHERE group_id = ?
ORDER BY language_code ASC`

func (q *Queries) ListTranslationGroupEntries(ctx context.Context, groupID int64) ([]TranslationGroupEntry, error) {
	rows, err := q.db.QueryContext(ctx, listTranslationGroupEntries, groupID)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	var items []TranslationGroupEntry
	for rows.Next() {
		var i TranslationGroupEntry
		if err := rows.Scan(&i.GroupID, &i.LanguageCode, &i.PageID); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const deleteUnreferencedTranslationEntries = `
DELETE FROM translation_group_entries
WHERE group_id NOT IN (
    SELECT translation_group_id FROM pages WHERE translation_group_id IS NOT NULL
)`

func (q *Queries) DeleteUnreferencedTranslationEntries(ctx context.Context) error {
	_, err := q.db.ExecContext(ctx, deleteUnreferencedTranslationEntries)
	return err
}

const deleteUnreferencedTranslationGroups = `
DELETE FROM translation_groups
WHERE id NOT IN (
    SELECT translation_group_id FROM pages WHERE translation_group_id IS NOT NULL
)`

func (q *Queries) DeleteUnreferencedTranslationGroups(ctx context.Context) (int64, error) {
	res, err := q.db.ExecContext(ctx, deleteUnreferencedTranslationGroups)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

const countTranslationGroups = `SELECT COUNT(*) FROM translation_groups`

func (q *Queries) CountTranslationGroups(ctx context.Context) (int64, error) {
	var count int64
	err := q.db.QueryRowContext(ctx, countTranslationGroups).Scan(&count)
	return count, err
}
