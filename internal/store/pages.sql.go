// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package store

import (
	"context"
	"database/sql"
	"time"
)

const pageColumns = `id, title, slug, status, language_code, translation_group_id, created_at, updated_at`

func scanPage(row interface{ Scan(...any) error }) (Page, error) {
	var i Page
	err := row.Scan(
		&i.ID,
		&i.Title,
		&i.Slug,
		&i.Status,
		&i.LanguageCode,
		&i.TranslationGroupID,
		&i.CreatedAt,
		&i.UpdatedAt,
	)
	return i, err
}

func scanPages(rows *sql.Rows) ([]Page, error) {
	defer func() { _ = rows.Close() }()
	var items []Page
	for rows.Next() {
		i, err := scanPage(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const createPage = `
INSERT INTO pages (title, slug, status, language_code, created_at, updated_at)
VALUES (?, ?, ?, ?, ?, ?)
RETURNING ` + pageColumns

type CreatePageParams struct {
	Title        string    `json:"title"`
	Slug         string    `json:"slug"`
	Status       string    `json:"status"`
	LanguageCode string    `json:"language_code"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

func (q *Queries) CreatePage(ctx context.Context, arg CreatePageParams) (Page, error) {
	row := q.db.QueryRowContext(ctx, createPage,
		arg.Title,
		arg.Slug,
		arg.Status,
		arg.LanguageCode,
		arg.CreatedAt,
		arg.UpdatedAt,
	)
	return scanPage(row)
}

const getPageByID = `SELECT ` + pageColumns + ` FROM pages WHERE id = ?`

func (q *Queries) GetPageByID(ctx context.Context, id int64) (Page, error) {
	return scanPage(q.db.QueryRowContext(ctx, getPageByID, id))
}

const listPublishedPages = `
SELECT ` + pageColumns + ` FROM pages
WHERE status = 'published'
ORDER BY title ASC, id ASC
LIMIT ?`

func (q *Queries) ListPublishedPages(ctx context.Context, limit int64) ([]Page, error) {
	rows, err := q.db.QueryContext(ctx, listPublishedPages, limit)
	if err != nil {
		return nil, err
	}
	return scanPages(rows)
}

const countPages = `SELECT COUNT(*) FROM pages`

func (q *Queries) CountPages(ctx context.Context) (int64, error) {
	var count int64
	err := q.db.QueryRowContext(ctx, countPages).Scan(&count)
	return count, err
}

const setPageTranslationGroup = `UPDATE pages SET translation_group_id = ?, updated_at = ? WHERE id = ?`

type SetPageTranslationGroupParams struct {
	TranslationGroupID sql.NullInt64 `json:"translation_group_id"`
	UpdatedAt          time.Time     `json:"updated_at"`
	ID                 int64         `json:"id"`
}

func (q *Queries) SetPageTranslationGroup(ctx context.Context, arg SetPageTranslationGroupParams) error {
	_, err := q.db.ExecContext(ctx, setPageTranslationGroup, arg.TranslationGroupID, arg.UpdatedAt, arg.ID)
	return err
}

const deletePage = `DELETE FROM pages WHERE id = ?`

func (q *Queries) DeletePage(ctx context.Context, id int64) error {
	_, err := q.db.ExecContext(ctx, deletePage, id)
	return err
}
