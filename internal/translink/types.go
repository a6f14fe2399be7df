// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package translink

import "github.com/olegiv/pagelinks/internal/model"

// Kind classifies why a mutation did not succeed.
type Kind int

// Result kinds.
const (
	KindNone Kind = iota
	KindNotFound
	KindNotConnected
	KindPartialWriteFailure
	KindInvalidInput
	KindStoreError
)

// String returns the kind name.
func (k Kind) String() string {
	switch k {
	case KindNone:
		return "none"
	case KindNotFound:
		return "not_found"
	case KindNotConnected:
		return "not_connected"
	case KindPartialWriteFailure:
		return "partial_write_failure"
	case KindInvalidInput:
		return "invalid_input"
	case KindStoreError:
		return "store_error"
	default:
		return "unknown"
	}
}

// ConnectionPair is one validated link between an English and an Italian page.
type ConnectionPair struct {
	ENID       int64  `json:"en_id"`
	ITID       int64  `json:"it_id"`
	ENTitle    string `json:"en_title"`
	ITTitle    string `json:"it_title"`
	ENSlug     string `json:"en_slug"`
	ITSlug     string `json:"it_slug"`
	ENBrand    string `json:"en_brand"`
	ITBrand    string `json:"it_brand"`
	ENCategory string `json:"en_category"`
	ITCategory string `json:"it_category"`
}

// Key returns the form key of the pair ("enId-itId").
func (p ConnectionPair) Key() PairKey {
	return PairKey{EN: p.ENID, IT: p.ITID}
}

func newConnectionPair(en, it *model.Page) ConnectionPair {
	return ConnectionPair{
		ENID:       en.ID,
		ITID:       it.ID,
		ENTitle:    en.Title,
		ITTitle:    it.Title,
		ENSlug:     en.Slug,
		ITSlug:     it.Slug,
		ENBrand:    ExtractBrand(en.Title),
		ITBrand:    ExtractBrand(it.Title),
		ENCategory: Categorize(en.Title),
		ITCategory: Categorize(it.Title),
	}
}

// OrphanedReference is a mapping entry on an existing page that points to a
// page id that no longer exists.
type OrphanedReference struct {
	ExistingPageID    int64  `json:"existing_page_id"`
	ExistingPageTitle string `json:"existing_page_title"`
	MissingPageID     int64  `json:"missing_page_id"`
	// Lang is the language of the referencing page.
	Lang string `json:"lang"`
	// MissingLang is the mapping key the dangling id is stored under.
	MissingLang string `json:"missing_lang"`
}

// Entry converts the reference to its persisted form.
func (o OrphanedReference) Entry() model.OrphanEntry {
	return model.OrphanEntry{
		ExistingPageID:    o.ExistingPageID,
		ExistingPageTitle: o.ExistingPageTitle,
		MissingPageID:     o.MissingPageID,
		Lang:              o.Lang,
	}
}

// Result reports the outcome of a disconnect.
type Result struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Kind    Kind   `json:"-"`
	ENID    int64  `json:"en_id"`
	ITID    int64  `json:"it_id"`
}

// BulkSummary reports the outcome of a bulk disconnect.
type BulkSummary struct {
	Succeeded int      `json:"succeeded"`
	Total     int      `json:"total"`
	Invalid   int      `json:"invalid"`
	Results   []Result `json:"results"`
}

// CleanupSummary reports the outcome of an orphan cleanup pass.
type CleanupSummary struct {
	Scanned int                 `json:"scanned"`
	Orphans []OrphanedReference `json:"orphans"`
	Cleaned int                 `json:"cleaned"`
}

// ForceSummary reports the outcome of normalizing a caller-supplied id list.
type ForceSummary struct {
	Normalized int     `json:"normalized"`
	Total      int     `json:"total"`
	Skipped    []int64 `json:"skipped"`
}
