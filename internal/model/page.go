// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package model

import (
	"database/sql"
	"time"
)

// Page statuses
const (
	PageStatusDraft     = "draft"
	PageStatusPublished = "published"
)

// Page represents a content page that can be linked to its translations.
type Page struct {
	ID                 int64         `json:"id"`
	Title              string        `json:"title"`
	Slug               string        `json:"slug"`
	Status             string        `json:"status"`
	LanguageCode       string        `json:"language_code"`
	TranslationGroupID sql.NullInt64 `json:"-"`
	CreatedAt          time.Time     `json:"created_at"`
	UpdatedAt          time.Time     `json:"updated_at"`
}

// IsPublished returns true if the page is published.
func (p *Page) IsPublished() bool {
	return p.Status == PageStatusPublished
}
