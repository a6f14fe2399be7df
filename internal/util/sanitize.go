// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package util

import (
	"html"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

var (
	// strictPolicy strips every tag. Page titles come from the translation
	// store and may carry markup typed into the CMS editor.
	strictPolicy = bluemonday.StrictPolicy()

	// htmlPolicy allows the formatting markdown produces.
	htmlPolicy = bluemonday.UGCPolicy()
)

// PlainText removes all HTML from s and collapses whitespace. The result is
// unescaped text; html/template escapes it again on output.
func PlainText(s string) string {
	return strings.Join(strings.Fields(html.UnescapeString(strictPolicy.Sanitize(s))), " ")
}

// SanitizeHTML keeps safe formatting tags and drops scripts, event
// handlers and unsafe URLs.
func SanitizeHTML(s string) string {
	return htmlPolicy.Sanitize(s)
}
