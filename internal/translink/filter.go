// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package translink

import (
	"sort"
	"strings"
)

// Filter narrows a list of connection pairs. Empty fields match everything.
type Filter struct {
	Brand    string
	Category string
	Search   string
}

// IsEmpty returns true if the filter matches every pair.
func (f Filter) IsEmpty() bool {
	return f.Brand == "" && f.Category == "" && strings.TrimSpace(f.Search) == ""
}

// Match reports whether either side of p satisfies every set criterion.
func (f Filter) Match(p ConnectionPair) bool {
	if f.Brand != "" && p.ENBrand != f.Brand && p.ITBrand != f.Brand {
		return false
	}
	if f.Category != "" && p.ENCategory != f.Category && p.ITCategory != f.Category {
		return false
	}
	if search := strings.ToLower(strings.TrimSpace(f.Search)); search != "" {
		if !strings.Contains(strings.ToLower(p.ENTitle), search) &&
			!strings.Contains(strings.ToLower(p.ITTitle), search) {
			return false
		}
	}
	return true
}

// FilterConnections returns the pairs matching f, preserving order.
func FilterConnections(pairs []ConnectionPair, f Filter) []ConnectionPair {
	if f.IsEmpty() {
		return pairs
	}
	out := make([]ConnectionPair, 0, len(pairs))
	for _, p := range pairs {
		if f.Match(p) {
			out = append(out, p)
		}
	}
	return out
}

// Facets lists the distinct brands and categories present in a set of pairs.
type Facets struct {
	Brands     []string
	Categories []string
}

// CollectFacets returns the sorted distinct brands and categories of pairs.
func CollectFacets(pairs []ConnectionPair) Facets {
	brands := make(map[string]bool)
	categories := make(map[string]bool)
	for _, p := range pairs {
		for _, b := range []string{p.ENBrand, p.ITBrand} {
			if b != "" {
				brands[b] = true
			}
		}
		for _, c := range []string{p.ENCategory, p.ITCategory} {
			if c != "" {
				categories[c] = true
			}
		}
	}
	return Facets{Brands: sortedKeys(brands), Categories: sortedKeys(categories)}
}

func sortedKeys(m map[string]bool) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
