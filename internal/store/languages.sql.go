// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package store

import (
	"context"
	"time"
)

const languageColumns = `id, code, name, native_name, is_default, position, created_at`

func scanLanguage(row interface{ Scan(...any) error }) (Language, error) {
	var i Language
	err := row.Scan(
		&i.ID,
		&i.Code,
		&i.Name,
		&i.NativeName,
		&i.IsDefault,
		&i.Position,
		&i.CreatedAt,
	)
	return i, err
}

const createLanguage = `
INSERT INTO languages (code, name, native_name, is_default, position, created_at)
VALUES (?, ?, ?, ?, ?, ?)
RETURNING ` + languageColumns

type CreateLanguageParams struct {
	Code       string    `json:"code"`
	Name       string    `json:"name"`
	NativeName string    `json:"native_name"`
	IsDefault  bool      `json:"is_default"`
	Position   int64     `json:"position"`
	CreatedAt  time.Time `json:"created_at"`
}

func (q *Queries) CreateLanguage(ctx context.Context, arg CreateLanguageParams) (Language, error) {
	row := q.db.QueryRowContext(ctx, createLanguage,
		arg.Code,
		arg.Name,
		arg.NativeName,
		arg.IsDefault,
		arg.Position,
		arg.CreatedAt,
	)
	return scanLanguage(row)
}

const getLanguageByCode = `SELECT ` + languageColumns + ` FROM languages WHERE code = ?`

func (q *Queries) GetLanguageByCode(ctx context.Context, code string) (Language, error) {
	return scanLanguage(q.db.QueryRowContext(ctx, getLanguageByCode, code))
}

const listLanguages = `SELECT ` + languageColumns + ` FROM languages ORDER BY position ASC, code ASC`

func (q *Queries) ListLanguages(ctx context.Context) ([]Language, error) {
	rows, err := q.db.QueryContext(ctx, listLanguages)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	var items []Language
	for rows.Next() {
		i, err := scanLanguage(rows)
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
