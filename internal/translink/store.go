// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package translink reconciles English/Italian translation links held by a
// translation store. It discovers connected page pairs, reports orphaned
// references to deleted pages, and rewrites mappings to disconnect pairs or
// drop dangling entries.
package translink

import (
	"context"

	"github.com/olegiv/pagelinks/internal/model"
)

// Store is the translation store the reconciler reads from and writes to.
//
// GetPage returns model.ErrPageNotFound when the id does not resolve.
// GetTranslations returns an empty mapping for pages without links and
// model.ErrMalformedMapping when the stored mapping cannot be decoded.
// SaveTranslations replaces the mapping of every page named in the mapping.
type Store interface {
	GetTranslations(ctx context.Context, pageID int64) (model.TranslationMap, error)
	SaveTranslations(ctx context.Context, mapping model.TranslationMap) error
	GetPage(ctx context.Context, pageID int64) (*model.Page, error)
	GetLanguageCode(ctx context.Context, pageID int64) (string, error)
	ListPages(ctx context.Context, limit int) ([]model.Page, error)
}
