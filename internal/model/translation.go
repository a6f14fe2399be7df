// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package model

import (
	"errors"
	"sort"
)

// Sentinel errors shared by translation store implementations.
var (
	// ErrPageNotFound is returned when a page id does not resolve to an existing page.
	ErrPageNotFound = errors.New("page not found")
	// ErrMalformedMapping is returned when a stored mapping cannot be read as language -> page id.
	ErrMalformedMapping = errors.New("malformed translation mapping")
)

// TranslationMap maps a language code to the page id that holds that language.
// For example, page 101 (English) linked to page 202 (Italian) has the mapping
// {"en": 101, "it": 202} on both pages.
type TranslationMap map[string]int64

// Languages returns the language codes of the mapping in ascending order.
// All scans iterate a mapping in this order.
func (m TranslationMap) Languages() []string {
	langs := make([]string, 0, len(m))
	for lang := range m {
		langs = append(langs, lang)
	}
	sort.Strings(langs)
	return langs
}

// Clone returns a copy of the mapping.
func (m TranslationMap) Clone() TranslationMap {
	out := make(TranslationMap, len(m))
	for lang, id := range m {
		out[lang] = id
	}
	return out
}

// PageIDs returns the page ids of the mapping in language order.
func (m TranslationMap) PageIDs() []int64 {
	ids := make([]int64, 0, len(m))
	for _, lang := range m.Languages() {
		ids = append(ids, m[lang])
	}
	return ids
}
