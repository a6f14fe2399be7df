// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package translink

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ErrInvalidPairKey is returned by ParsePairKey for malformed or non-positive keys.
var ErrInvalidPairKey = errors.New("invalid pair key")

// PairKeySeparator joins the two ids of a pair key.
const PairKeySeparator = "-"

// PairKey identifies a pair as submitted by the admin form: English id first.
type PairKey struct {
	EN int64
	IT int64
}

// String formats the key as "enId-itId".
func (k PairKey) String() string {
	return strconv.FormatInt(k.EN, 10) + PairKeySeparator + strconv.FormatInt(k.IT, 10)
}

// ParsePairKey decodes "enId-itId". Both ids must be positive integers.
func ParsePairKey(s string) (PairKey, error) {
	enRaw, itRaw, ok := strings.Cut(strings.TrimSpace(s), PairKeySeparator)
	if !ok {
		return PairKey{}, fmt.Errorf("%w: %q", ErrInvalidPairKey, s)
	}

	en, err := strconv.ParseInt(strings.TrimSpace(enRaw), 10, 64)
	if err != nil {
		return PairKey{}, fmt.Errorf("%w: %q", ErrInvalidPairKey, s)
	}
	it, err := strconv.ParseInt(strings.TrimSpace(itRaw), 10, 64)
	if err != nil {
		return PairKey{}, fmt.Errorf("%w: %q", ErrInvalidPairKey, s)
	}
	if en <= 0 || it <= 0 {
		return PairKey{}, fmt.Errorf("%w: %q", ErrInvalidPairKey, s)
	}

	return PairKey{EN: en, IT: it}, nil
}

// unorderedKey identifies a pair regardless of which side was scanned first.
type unorderedKey struct {
	lo, hi int64
}

func newUnorderedKey(a, b int64) unorderedKey {
	if a > b {
		a, b = b, a
	}
	return unorderedKey{lo: a, hi: b}
}

// ParseIDList parses a comma or whitespace separated list of page ids.
// Entries that are not positive integers are returned in invalid.
func ParseIDList(s string) (ids []int64, invalid []string) {
	fields := strings.FieldsFunc(s, func(r rune) bool {
		return r == ',' || r == ';' || r == ' ' || r == '\n' || r == '\r' || r == '\t'
	})
	seen := make(map[int64]bool, len(fields))
	for _, f := range fields {
		id, err := strconv.ParseInt(f, 10, 64)
		if err != nil || id <= 0 {
			invalid = append(invalid, f)
			continue
		}
		if seen[id] {
			continue
		}
		seen[id] = true
		ids = append(ids, id)
	}
	return ids, invalid
}
