// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package store

import (
	"database/sql"
	"time"
)

type User struct {
	ID           int64        `json:"id"`
	Email        string       `json:"email"`
	PasswordHash string       `json:"password_hash"`
	Role         string       `json:"role"`
	Name         string       `json:"name"`
	LastLoginAt  sql.NullTime `json:"last_login_at"`
	CreatedAt    time.Time    `json:"created_at"`
	UpdatedAt    time.Time    `json:"updated_at"`
}

type Language struct {
	ID         int64     `json:"id"`
	Code       string    `json:"code"`
	Name       string    `json:"name"`
	NativeName string    `json:"native_name"`
	IsDefault  bool      `json:"is_default"`
	Position   int64     `json:"position"`
	CreatedAt  time.Time `json:"created_at"`
}

type Page struct {
	ID                 int64         `json:"id"`
	Title              string        `json:"title"`
	Slug               string        `json:"slug"`
	Status             string        `json:"status"`
	LanguageCode       string        `json:"language_code"`
	TranslationGroupID sql.NullInt64 `json:"translation_group_id"`
	CreatedAt          time.Time     `json:"created_at"`
	UpdatedAt          time.Time     `json:"updated_at"`
}

type TranslationGroupEntry struct {
	GroupID      int64  `json:"group_id"`
	LanguageCode string `json:"language_code"`
	PageID       int64  `json:"page_id"`
}

type Event struct {
	ID        int64         `json:"id"`
	Level     string        `json:"level"`
	Category  string        `json:"category"`
	Message   string        `json:"message"`
	UserID    sql.NullInt64 `json:"user_id"`
	Metadata  string        `json:"metadata"`
	IpAddress string        `json:"ip_address"`
	CreatedAt time.Time     `json:"created_at"`
}

type ScanRun struct {
	ID           string    `json:"id"`
	Trigger      string    `json:"trigger"`
	PagesScanned int64     `json:"pages_scanned"`
	Connections  int64     `json:"connections"`
	Orphans      int64     `json:"orphans"`
	Cleaned      int64     `json:"cleaned"`
	OrphansJson  string    `json:"orphans_json"`
	Error        string    `json:"error"`
	StartedAt    time.Time `json:"started_at"`
	FinishedAt   time.Time `json:"finished_at"`
}
