// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package model

import "time"

// Language codes handled by the disconnector.
const (
	LangEnglish = "en"
	LangItalian = "it"
)

// Language represents a content language.
type Language struct {
	ID         int64     `json:"id"`
	Code       string    `json:"code"`        // ISO 639-1: en, it
	Name       string    `json:"name"`        // English, Italian
	NativeName string    `json:"native_name"` // English, Italiano
	IsDefault  bool      `json:"is_default"`  // only one can be default
	IsActive   bool      `json:"is_active"`
	Position   int       `json:"position"`
	CreatedAt  time.Time `json:"created_at"`
}
