// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package wordpress

import (
	"fmt"
	"regexp"
)

// DefaultTablePrefix is the WordPress default $table_prefix.
const DefaultTablePrefix = "wp_"

const maxTablePrefixLen = 20

var tablePrefixRegex = regexp.MustCompile(`^[A-Za-z0-9_]*$`)

// sanitizeTablePrefix validates a table prefix before it is interpolated
// into SQL identifiers.
func sanitizeTablePrefix(prefix string) (string, error) {
	if len(prefix) > maxTablePrefixLen {
		return "", fmt.Errorf("table prefix %q exceeds %d characters", prefix, maxTablePrefixLen)
	}
	if !tablePrefixRegex.MatchString(prefix) {
		return "", fmt.Errorf("table prefix %q may only contain letters, digits and underscores", prefix)
	}
	return prefix, nil
}

// ValidateTablePrefix reports whether prefix is safe to use.
func ValidateTablePrefix(prefix string) error {
	_, err := sanitizeTablePrefix(prefix)
	return err
}
