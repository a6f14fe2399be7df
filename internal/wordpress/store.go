// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package wordpress implements the translation store over a WordPress
// database managed by Polylang. Languages are terms of the "language"
// taxonomy; translation groups are "post_translations" terms whose
// description holds the PHP-serialized language => post id array.
package wordpress

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-sql-driver/mysql"
	"github.com/google/uuid"

	"github.com/olegiv/pagelinks/internal/model"
)

// Polylang taxonomies.
const (
	TaxonomyLanguage     = "language"
	TaxonomyTranslations = "post_translations"
)

// Store reads and writes Polylang translations.
type Store struct {
	db     *sql.DB
	prefix string
}

// Open connects to a WordPress MySQL database.
func Open(dsn, tablePrefix string) (*Store, error) {
	cfg, err := mysql.ParseDSN(dsn)
	if err != nil {
		return nil, fmt.Errorf("parsing dsn: %w", err)
	}
	cfg.ParseTime = true
	if cfg.Params == nil {
		cfg.Params = map[string]string{}
	}
	if _, ok := cfg.Params["charset"]; !ok {
		cfg.Params["charset"] = "utf8mb4"
	}

	connector, err := mysql.NewConnector(cfg)
	if err != nil {
		return nil, fmt.Errorf("creating connector: %w", err)
	}
	db := sql.OpenDB(connector)
	db.SetMaxOpenConns(10)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	s, err := NewStore(db, tablePrefix)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

// NewStore wraps an open database. The table prefix is validated.
func NewStore(db *sql.DB, tablePrefix string) (*Store, error) {
	prefix, err := sanitizeTablePrefix(tablePrefix)
	if err != nil {
		return nil, err
	}
	return &Store{db: db, prefix: prefix}, nil
}

// Ping checks that the WordPress database is reachable.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// table returns the prefixed table name.
func (s *Store) table(name string) string {
	return s.prefix + name
}

// q expands {posts}-style placeholders to prefixed table names.
func (s *Store) q(query string) string {
	return strings.NewReplacer(
		"{posts}", s.table("posts"),
		"{terms}", s.table("terms"),
		"{term_taxonomy}", s.table("term_taxonomy"),
		"{term_relationships}", s.table("term_relationships"),
	).Replace(query)
}

func pageStatus(wpStatus string) string {
	if wpStatus == "publish" {
		return model.PageStatusPublished
	}
	return wpStatus
}

// GetPage returns the post with id, or model.ErrPageNotFound. Trashed posts
// and auto-drafts count as missing.
func (s *Store) GetPage(ctx context.Context, id int64) (*model.Page, error) {
	var (
		p      model.Page
		status string
	)
	err := s.db.QueryRowContext(ctx, s.q(`
		SELECT ID, post_title, post_name, post_status, post_date, post_modified
		FROM {posts}
		WHERE ID = ? AND post_status NOT IN ('trash', 'auto-draft')
	`), id).Scan(&p.ID, &p.Title, &p.Slug, &status, &p.CreatedAt, &p.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, model.ErrPageNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query post %d: %w", id, err)
	}
	p.Status = pageStatus(status)

	lang, err := s.languageOf(ctx, id)
	if err != nil {
		return nil, err
	}
	p.LanguageCode = lang
	return &p, nil
}

// GetLanguageCode returns the Polylang language slug of post id.
func (s *Store) GetLanguageCode(ctx context.Context, id int64) (string, error) {
	if _, err := s.GetPage(ctx, id); err != nil {
		return "", err
	}
	return s.languageOf(ctx, id)
}

func (s *Store) languageOf(ctx context.Context, id int64) (string, error) {
	var slug string
	err := s.db.QueryRowContext(ctx, s.q(`
		SELECT t.slug
		FROM {terms} t
		JOIN {term_taxonomy} tt ON tt.term_id = t.term_id
		JOIN {term_relationships} tr ON tr.term_taxonomy_id = tt.term_taxonomy_id
		WHERE tr.object_id = ? AND tt.taxonomy = ?
		LIMIT 1
	`), id, TaxonomyLanguage).Scan(&slug)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to query language of post %d: %w", id, err)
	}
	return slug, nil
}

// ListPages returns up to limit published pages ordered by title.
// A non-positive limit returns every published page.
func (s *Store) ListPages(ctx context.Context, limit int) ([]model.Page, error) {
	query := s.q(`
		SELECT p.ID, p.post_title, p.post_name, p.post_status, p.post_date, p.post_modified,
			COALESCE(l.slug, '')
		FROM {posts} p
		LEFT JOIN (
			SELECT tr.object_id, t.slug
			FROM {term_relationships} tr
			JOIN {term_taxonomy} tt ON tt.term_taxonomy_id = tr.term_taxonomy_id
			JOIN {terms} t ON t.term_id = tt.term_id
			WHERE tt.taxonomy = ?
		) l ON l.object_id = p.ID
		WHERE p.post_type = 'page' AND p.post_status = 'publish'
		ORDER BY p.post_title ASC, p.ID ASC`)
	args := []any{TaxonomyLanguage}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query pages: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var pages []model.Page
	for rows.Next() {
		var (
			p      model.Page
			status string
		)
		if err := rows.Scan(&p.ID, &p.Title, &p.Slug, &status, &p.CreatedAt, &p.UpdatedAt, &p.LanguageCode); err != nil {
			return nil, fmt.Errorf("failed to scan page: %w", err)
		}
		p.Status = pageStatus(status)
		pages = append(pages, p)
	}
	return pages, rows.Err()
}

// GetTranslations returns the post_translations mapping of post id. A post
// without a translation group maps to itself under its own language, the way
// pll_get_post_translations reports it.
func (s *Store) GetTranslations(ctx context.Context, id int64) (model.TranslationMap, error) {
	var description string
	err := s.db.QueryRowContext(ctx, s.q(`
		SELECT tt.description
		FROM {term_taxonomy} tt
		JOIN {term_relationships} tr ON tr.term_taxonomy_id = tt.term_taxonomy_id
		WHERE tr.object_id = ? AND tt.taxonomy = ?
		LIMIT 1
	`), id, TaxonomyTranslations).Scan(&description)
	if errors.Is(err, sql.ErrNoRows) {
		lang, err := s.languageOf(ctx, id)
		if err != nil {
			return nil, err
		}
		if lang == "" {
			return model.TranslationMap{}, nil
		}
		return model.TranslationMap{lang: id}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query translations of post %d: %w", id, err)
	}

	m, err := DecodeMapping(description)
	if err != nil {
		return nil, fmt.Errorf("post %d: %w", id, err)
	}
	return m, nil
}

// SaveTranslations detaches every post in mapping from its current
// translation group and, when mapping has at least two entries, attaches
// them to a new group holding mapping. Emptied groups are deleted.
func (s *Store) SaveTranslations(ctx context.Context, mapping model.TranslationMap) error {
	if len(mapping) == 0 {
		return nil
	}
	for lang, id := range mapping {
		if lang == "" || id <= 0 {
			return fmt.Errorf("%w: %q => %d", model.ErrMalformedMapping, lang, id)
		}
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	ids := mapping.PageIDs()

	oldGroups, err := s.groupsOf(ctx, tx, ids)
	if err != nil {
		return err
	}

	for _, id := range ids {
		if _, err := tx.ExecContext(ctx, s.q(`
			DELETE FROM {term_relationships}
			WHERE object_id = ? AND term_taxonomy_id IN (
				SELECT term_taxonomy_id FROM {term_taxonomy} WHERE taxonomy = ?
			)
		`), id, TaxonomyTranslations); err != nil {
			return fmt.Errorf("failed to detach post %d: %w", id, err)
		}
	}

	if len(mapping) > 1 {
		ttID, err := s.createGroup(ctx, tx, mapping)
		if err != nil {
			return err
		}
		for _, id := range ids {
			if _, err := tx.ExecContext(ctx, s.q(`
				INSERT INTO {term_relationships} (object_id, term_taxonomy_id, term_order)
				SELECT ID, ?, 0 FROM {posts} WHERE ID = ?
			`), ttID, id); err != nil {
				return fmt.Errorf("failed to attach post %d: %w", id, err)
			}
		}
		if err := s.recount(ctx, tx, ttID); err != nil {
			return err
		}
	}

	for _, ttID := range oldGroups {
		if err := s.recount(ctx, tx, ttID); err != nil {
			return err
		}
		if err := s.deleteIfEmpty(ctx, tx, ttID); err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit translations: %w", err)
	}
	return nil
}

// groupsOf returns the distinct post_translations term_taxonomy ids of posts.
func (s *Store) groupsOf(ctx context.Context, tx *sql.Tx, ids []int64) ([]int64, error) {
	seen := make(map[int64]bool)
	var groups []int64
	for _, id := range ids {
		rows, err := tx.QueryContext(ctx, s.q(`
			SELECT tr.term_taxonomy_id
			FROM {term_relationships} tr
			JOIN {term_taxonomy} tt ON tt.term_taxonomy_id = tr.term_taxonomy_id
			WHERE tr.object_id = ? AND tt.taxonomy = ?
		`), id, TaxonomyTranslations)
		if err != nil {
			return nil, fmt.Errorf("failed to query groups of post %d: %w", id, err)
		}
		for rows.Next() {
			var ttID int64
			if err := rows.Scan(&ttID); err != nil {
				_ = rows.Close()
				return nil, fmt.Errorf("failed to scan group: %w", err)
			}
			if !seen[ttID] {
				seen[ttID] = true
				groups = append(groups, ttID)
			}
		}
		if err := rows.Close(); err != nil {
			return nil, err
		}
	}
	return groups, nil
}

// createGroup inserts a pll_ term and its post_translations taxonomy row.
func (s *Store) createGroup(ctx context.Context, tx *sql.Tx, mapping model.TranslationMap) (int64, error) {
	name := "pll_" + strings.ReplaceAll(uuid.NewString(), "-", "")

	res, err := tx.ExecContext(ctx, s.q(`
		INSERT INTO {terms} (name, slug, term_group) VALUES (?, ?, 0)
	`), name, name)
	if err != nil {
		return 0, fmt.Errorf("failed to create term: %w", err)
	}
	termID, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to read term id: %w", err)
	}

	res, err = tx.ExecContext(ctx, s.q(`
		INSERT INTO {term_taxonomy} (term_id, taxonomy, description, parent, count)
		VALUES (?, ?, ?, 0, 0)
	`), termID, TaxonomyTranslations, EncodeMapping(mapping))
	if err != nil {
		return 0, fmt.Errorf("failed to create term taxonomy: %w", err)
	}
	ttID, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to read term taxonomy id: %w", err)
	}
	return ttID, nil
}

func (s *Store) recount(ctx context.Context, tx *sql.Tx, ttID int64) error {
	if _, err := tx.ExecContext(ctx, s.q(`
		UPDATE {term_taxonomy}
		SET count = (SELECT COUNT(*) FROM {term_relationships} WHERE term_taxonomy_id = ?)
		WHERE term_taxonomy_id = ?
	`), ttID, ttID); err != nil {
		return fmt.Errorf("failed to recount group %d: %w", ttID, err)
	}
	return nil
}

// deleteIfEmpty removes a translation group no post belongs to anymore.
func (s *Store) deleteIfEmpty(ctx context.Context, tx *sql.Tx, ttID int64) error {
	var termID int64
	var count int64
	err := tx.QueryRowContext(ctx, s.q(`
		SELECT term_id, count FROM {term_taxonomy} WHERE term_taxonomy_id = ?
	`), ttID).Scan(&termID, &count)
	if errors.Is(err, sql.ErrNoRows) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to load group %d: %w", ttID, err)
	}
	if count > 0 {
		return nil
	}

	if _, err := tx.ExecContext(ctx, s.q(`DELETE FROM {term_taxonomy} WHERE term_taxonomy_id = ?`), ttID); err != nil {
		return fmt.Errorf("failed to delete group %d: %w", ttID, err)
	}
	if _, err := tx.ExecContext(ctx, s.q(`
		DELETE FROM {terms}
		WHERE term_id = ? AND NOT EXISTS (SELECT 1 FROM {term_taxonomy} WHERE term_id = ?)
	`), termID, termID); err != nil {
		return fmt.Errorf("failed to delete term %d: %w", termID, err)
	}
	return nil
}
