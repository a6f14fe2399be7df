// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package wordpress

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/olegiv/pagelinks/internal/model"
)

var errSyntax = errors.New("php serialize syntax error")

// EncodeMapping serializes a mapping the way PHP's serialize() writes an
// array of string keys to integer values, keys in ascending order.
func EncodeMapping(m model.TranslationMap) string {
	var b strings.Builder
	b.WriteString("a:")
	b.WriteString(strconv.Itoa(len(m)))
	b.WriteString(":{")
	for _, lang := range m.Languages() {
		fmt.Fprintf(&b, `s:%d:"%s";i:%d;`, len(lang), lang, m[lang])
	}
	b.WriteString("}")
	return b.String()
}

// DecodeMapping parses a serialized PHP array of language code => post id.
// Integer and numeric string values are accepted. Anything else is reported
// as model.ErrMalformedMapping.
func DecodeMapping(s string) (model.TranslationMap, error) {
	if strings.TrimSpace(s) == "" {
		return model.TranslationMap{}, nil
	}

	d := &decoder{data: s}
	m, err := d.mapping()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", model.ErrMalformedMapping, err)
	}
	if d.pos != len(d.data) {
		return nil, fmt.Errorf("%w: trailing data at offset %d", model.ErrMalformedMapping, d.pos)
	}
	return m, nil
}

type decoder struct {
	data string
	pos  int
}

func (d *decoder) mapping() (model.TranslationMap, error) {
	if err := d.expect("a:"); err != nil {
		return nil, err
	}
	n, err := d.integer(':')
	if err != nil {
		return nil, err
	}
	if n < 0 {
		return nil, fmt.Errorf("%w: negative array length", errSyntax)
	}
	if err := d.expect("{"); err != nil {
		return nil, err
	}

	m := make(model.TranslationMap, n)
	for i := int64(0); i < n; i++ {
		key, err := d.str()
		if err != nil {
			return nil, fmt.Errorf("key %d: %w", i, err)
		}
		id, err := d.id()
		if err != nil {
			return nil, fmt.Errorf("value of %q: %w", key, err)
		}
		if key == "" || id <= 0 {
			return nil, fmt.Errorf("invalid entry %q => %d", key, id)
		}
		m[key] = id
	}

	if err := d.expect("}"); err != nil {
		return nil, err
	}
	return m, nil
}

// str reads s:<len>:"<bytes>";
func (d *decoder) str() (string, error) {
	if err := d.expect("s:"); err != nil {
		return "", err
	}
	n, err := d.integer(':')
	if err != nil {
		return "", err
	}
	if err := d.expect(`"`); err != nil {
		return "", err
	}
	end := d.pos + int(n)
	if n < 0 || end > len(d.data) {
		return "", fmt.Errorf("%w: string length %d out of range", errSyntax, n)
	}
	v := d.data[d.pos:end]
	d.pos = end
	if err := d.expect(`";`); err != nil {
		return "", err
	}
	return v, nil
}

// id reads i:<n>; or a numeric s:<len>:"<n>";
func (d *decoder) id() (int64, error) {
	if strings.HasPrefix(d.data[d.pos:], "i:") {
		d.pos += 2
		return d.integer(';')
	}
	v, err := d.str()
	if err != nil {
		return 0, err
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: non-numeric value %q", errSyntax, v)
	}
	return n, nil
}

// integer reads digits up to and including the terminator.
func (d *decoder) integer(term byte) (int64, error) {
	idx := strings.IndexByte(d.data[d.pos:], term)
	if idx < 0 {
		return 0, fmt.Errorf("%w: missing %q at offset %d", errSyntax, term, d.pos)
	}
	n, err := strconv.ParseInt(d.data[d.pos:d.pos+idx], 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: bad integer at offset %d", errSyntax, d.pos)
	}
	d.pos += idx + 1
	return n, nil
}

func (d *decoder) expect(tok string) error {
	if !strings.HasPrefix(d.data[d.pos:], tok) {
		return fmt.Errorf("%w: expected %q at offset %d", errSyntax, tok, d.pos)
	}
	d.pos += len(tok)
	return nil
}
