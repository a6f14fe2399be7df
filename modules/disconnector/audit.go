// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package disconnector

import (
	"maps"
	"net/http"

	"github.com/mileusna/useragent"

	"github.com/olegiv/pagelinks/internal/middleware"
	"github.com/olegiv/pagelinks/internal/model"
	"github.com/olegiv/pagelinks/internal/module"
)

// client describes the browser an action was submitted from.
type client struct {
	Browser    string
	OS         string
	DeviceType string
}

// parseClient extracts browser, OS and device type from a user agent string.
func parseClient(uaString string) client {
	ua := useragent.Parse(uaString)

	c := client{Browser: ua.Name, OS: ua.OS}
	if c.Browser == "" {
		c.Browser = "Unknown"
	}
	if c.OS == "" {
		c.OS = "Unknown"
	}

	switch {
	case ua.Mobile:
		c.DeviceType = "mobile"
	case ua.Tablet:
		c.DeviceType = "tablet"
	case ua.Bot:
		c.DeviceType = "bot"
	default:
		c.DeviceType = "desktop"
	}
	return c
}

// audit writes a translation event for an admin action. level follows the
// outcome: info on success, warning when nothing or only part was done.
func (m *Module) audit(r *http.Request, level, message string, metadata map[string]any) {
	if m.ctx.Events == nil {
		return
	}

	c := parseClient(r.UserAgent())
	meta := map[string]any{
		"browser": c.Browser,
		"os":      c.OS,
		"device":  c.DeviceType,
	}
	maps.Copy(meta, metadata)

	if err := m.ctx.Events.LogTranslationEvent(r.Context(), level, message,
		middleware.GetUserIDPtr(r), middleware.GetClientIP(r), meta); err != nil {
		m.ctx.Logger.Warn("failed to write audit event", "error", err)
	}
}

// notifyChanged fires the translations.changed hook when pages were rewritten.
func (m *Module) notifyChanged(r *http.Request, action string, pageIDs []int64) {
	if len(pageIDs) == 0 || m.ctx.Hooks == nil {
		return
	}
	data := module.TranslationsChanged{
		Action:  action,
		PageIDs: pageIDs,
		UserID:  middleware.GetUserID(r),
	}
	if err := m.ctx.Hooks.CallNoResult(r.Context(), module.HookTranslationsChanged, data); err != nil {
		m.ctx.Logger.Warn("translations.changed hook failed", "action", action, "error", err)
	}
}

// levelFor returns the event level for an action that changed done of total
// items.
func levelFor(done, total int) string {
	if total > 0 && done == total {
		return model.EventLevelInfo
	}
	return model.EventLevelWarning
}
