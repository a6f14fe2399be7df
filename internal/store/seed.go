// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/olegiv/pagelinks/internal/auth"
	"github.com/olegiv/pagelinks/internal/model"
)

// Default admin credentials
const (
	DefaultAdminEmail    = "admin@example.com"
	DefaultAdminPassword = "changeme1234"
	DefaultAdminName     = "Administrator"
)

// AdminCredentials identifies the initial administrator account.
type AdminCredentials struct {
	Email    string
	Password string
}

// Seed creates the English and Italian languages and the initial admin user.
func Seed(ctx context.Context, db *sql.DB, admin AdminCredentials) error {
	queries := New(db)

	if err := seedLanguages(ctx, queries); err != nil {
		return err
	}

	if admin.Email == "" {
		admin.Email = DefaultAdminEmail
	}
	if admin.Password == "" {
		admin.Password = DefaultAdminPassword
	}

	// Check if admin user already exists
	_, err := queries.GetUserByEmail(ctx, admin.Email)
	if err == nil {
		slog.Info("admin user already exists, skipping seed")
		return nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("checking for admin user: %w", err)
	}

	passwordHash, err := auth.HashPassword(admin.Password)
	if err != nil {
		return fmt.Errorf("hashing password: %w", err)
	}

	now := time.Now()
	user, err := queries.CreateUser(ctx, CreateUserParams{
		Email:        admin.Email,
		PasswordHash: passwordHash,
		Role:         model.RoleAdmin,
		Name:         DefaultAdminName,
		CreatedAt:    now,
		UpdatedAt:    now,
	})
	if err != nil {
		return fmt.Errorf("creating admin user: %w", err)
	}

	slog.Info("created admin user", "id", user.ID, "email", user.Email)
	return nil
}

func seedLanguages(ctx context.Context, queries *Queries) error {
	languages := []CreateLanguageParams{
		{Code: model.LangEnglish, Name: "English", NativeName: "English", IsDefault: true, Position: 0},
		{Code: model.LangItalian, Name: "Italian", NativeName: "Italiano", Position: 1},
	}

	for _, lang := range languages {
		_, err := queries.GetLanguageByCode(ctx, lang.Code)
		if err == nil {
			continue
		}
		if !errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("checking language %s: %w", lang.Code, err)
		}
		lang.CreatedAt = time.Now()
		if _, err := queries.CreateLanguage(ctx, lang); err != nil {
			return fmt.Errorf("creating language %s: %w", lang.Code, err)
		}
		slog.Info("created language", "code", lang.Code)
	}
	return nil
}
