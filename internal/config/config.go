// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package config

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"

	"github.com/olegiv/pagelinks/internal/translink"
	"github.com/olegiv/pagelinks/internal/wordpress"
)

// Translation store backends.
const (
	BackendSQLite    = "sqlite"
	BackendWordPress = "wordpress"
)

// knownWeakSecrets contains default/example secrets that must be rejected in production.
var knownWeakSecrets = []string{
	"change-me-to-32-byte-secret-key!",
	"REPLACE_WITH_YOUR_OWN_SECRET_KEY!",
}

// Config holds the application configuration loaded from environment variables.
type Config struct {
	DBPath        string `env:"PAGELINKS_DB_PATH" envDefault:"./data/pagelinks.db"`
	SessionSecret string `env:"PAGELINKS_SESSION_SECRET,required"`
	ServerHost    string `env:"PAGELINKS_SERVER_HOST" envDefault:"localhost"`
	ServerPort    int    `env:"PAGELINKS_SERVER_PORT" envDefault:"8080"`
	Env           string `env:"PAGELINKS_ENV" envDefault:"development"`
	LogLevel      string `env:"PAGELINKS_LOG_LEVEL" envDefault:"info"`

	// Translation store
	Backend       string `env:"PAGELINKS_BACKEND" envDefault:"sqlite"`
	WPDSN         string `env:"PAGELINKS_WP_DSN"`                           // user:pass@tcp(host:3306)/wordpress
	WPTablePrefix string `env:"PAGELINKS_WP_TABLE_PREFIX" envDefault:"wp_"` // WordPress $table_prefix
	PageLimit     int    `env:"PAGELINKS_PAGE_LIMIT" envDefault:"-1"`       // -1 loads every published page

	// Cache configuration
	RedisURL     string `env:"PAGELINKS_REDIS_URL"`
	CachePrefix  string `env:"PAGELINKS_CACHE_PREFIX" envDefault:"pagelinks:"`
	CacheTTL     int    `env:"PAGELINKS_CACHE_TTL" envDefault:"3600"` // seconds
	CacheMaxSize int    `env:"PAGELINKS_CACHE_MAX_SIZE" envDefault:"1000"`

	// Scheduled scans
	ScanSchedule    string `env:"PAGELINKS_SCAN_SCHEDULE" envDefault:"0 3 * * *"` // empty disables
	AutoCleanup     bool   `env:"PAGELINKS_AUTO_CLEANUP" envDefault:"false"`
	ForceCleanupIDs string `env:"PAGELINKS_FORCE_CLEANUP_IDS"`

	// Seeding configuration
	AdminEmail    string `env:"PAGELINKS_ADMIN_EMAIL" envDefault:"admin@example.com"`
	AdminPassword string `env:"PAGELINKS_ADMIN_PASSWORD"`
	DoSeed        bool   `env:"PAGELINKS_DO_SEED" envDefault:"false"`
}

// IsDevelopment returns true if the application is running in development mode.
func (c Config) IsDevelopment() bool {
	return c.Env == "development"
}

// ServerAddr returns the full server address in host:port format.
func (c Config) ServerAddr() string {
	return fmt.Sprintf("%s:%d", c.ServerHost, c.ServerPort)
}

// UseRedisCache returns true if Redis caching is configured.
func (c Config) UseRedisCache() bool {
	return c.RedisURL != ""
}

// UseWordPress returns true if translations live in a WordPress database.
func (c Config) UseWordPress() bool {
	return c.Backend == BackendWordPress
}

// ScanEnabled returns true if scheduled scans are configured.
func (c Config) ScanEnabled() bool {
	return strings.TrimSpace(c.ScanSchedule) != ""
}

// CacheTTLDuration returns the cache TTL as a duration.
func (c Config) CacheTTLDuration() time.Duration {
	return time.Duration(c.CacheTTL) * time.Second
}

// ForceCleanupList parses PAGELINKS_FORCE_CLEANUP_IDS. Entries that are not
// positive integers are returned separately so callers can log them.
func (c Config) ForceCleanupList() (ids []int64, invalid []string) {
	return translink.ParseIDList(c.ForceCleanupIDs)
}

// MinSessionSecretLength is the minimum required length for the session secret.
// AES-256 requires 32 bytes minimum for secure encryption.
const MinSessionSecretLength = 32

// Load parses environment variables and returns a validated Config.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks values env.Parse cannot.
func (c *Config) Validate() error {
	if len(c.SessionSecret) < MinSessionSecretLength {
		return fmt.Errorf("PAGELINKS_SESSION_SECRET must be at least %d bytes long, got %d bytes; "+
			"generate a secure secret with: openssl rand -base64 32",
			MinSessionSecretLength, len(c.SessionSecret))
	}
	for _, weak := range knownWeakSecrets {
		if c.SessionSecret == weak {
			return fmt.Errorf("PAGELINKS_SESSION_SECRET is a known default value and must not be used; " +
				"generate a secure secret with: openssl rand -base64 32")
		}
	}
	if !hasMinimumEntropy(c.SessionSecret) {
		slog.Warn("PAGELINKS_SESSION_SECRET has low character diversity; " +
			"consider generating a random secret with: openssl rand -base64 32")
	}

	switch c.Backend {
	case BackendSQLite:
	case BackendWordPress:
		if c.WPDSN == "" {
			return fmt.Errorf("PAGELINKS_WP_DSN is required when PAGELINKS_BACKEND=%s", BackendWordPress)
		}
		if err := wordpress.ValidateTablePrefix(c.WPTablePrefix); err != nil {
			return fmt.Errorf("PAGELINKS_WP_TABLE_PREFIX: %w", err)
		}
	default:
		return fmt.Errorf("PAGELINKS_BACKEND must be %q or %q, got %q", BackendSQLite, BackendWordPress, c.Backend)
	}

	if c.PageLimit == 0 || c.PageLimit < -1 {
		return fmt.Errorf("PAGELINKS_PAGE_LIMIT must be positive or -1, got %d", c.PageLimit)
	}
	if c.CacheTTL <= 0 {
		return fmt.Errorf("PAGELINKS_CACHE_TTL must be positive, got %d", c.CacheTTL)
	}
	return nil
}

// hasMinimumEntropy checks that a secret contains at least 3 character classes
// (lowercase, uppercase, digits, special characters).
func hasMinimumEntropy(s string) bool {
	charTypes := 0
	if strings.ContainsAny(s, "abcdefghijklmnopqrstuvwxyz") {
		charTypes++
	}
	if strings.ContainsAny(s, "ABCDEFGHIJKLMNOPQRSTUVWXYZ") {
		charTypes++
	}
	if strings.ContainsAny(s, "0123456789") {
		charTypes++
	}
	if strings.ContainsAny(s, "!@#$%^&*()-_=+[]{}|;:,.<>?/~`'\"\\") {
		charTypes++
	}
	return charTypes >= 3
}
