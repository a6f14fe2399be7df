// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package translink

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"

	"github.com/olegiv/pagelinks/internal/model"
)

// Result messages.
const (
	msgNotFound       = "Error: One or both pages do not exist (EN: %d, IT: %d)"
	msgNotConnected   = "Pages are not connected: %s and %s"
	msgDisconnected   = "Successfully disconnected: %s and %s"
	msgFailed         = "Failed to disconnect: %s and %s"
	msgLookupFailed   = "Failed to load pages (EN: %d, IT: %d)"
	MsgInvalidIDs     = "Invalid page IDs provided."
	MsgNoneSelected   = "No connections selected for disconnection."
	msgBulkSummary    = "Disconnected %d out of %d page pairs successfully."
	msgCleanupSummary = "Cleaned up %d pages with orphaned translation references."
	msgForceSummary   = "Normalized %d out of %d pages."
)

// Reconciler derives connection and orphan reports from a Store and applies
// disconnect and cleanup rewrites to it.
type Reconciler struct {
	store  Store
	logger *slog.Logger
}

// New creates a reconciler over store.
func New(store Store, logger *slog.Logger) *Reconciler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Reconciler{store: store, logger: logger}
}

// Store returns the underlying translation store.
func (r *Reconciler) Store() Store {
	return r.store
}

// resolve returns the page for id. A missing page is reported as ok=false
// with a nil error.
func (r *Reconciler) resolve(ctx context.Context, id int64) (*model.Page, bool, error) {
	if id <= 0 {
		return nil, false, nil
	}
	page, err := r.store.GetPage(ctx, id)
	if err != nil {
		if errors.Is(err, model.ErrPageNotFound) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("resolving page %d: %w", id, err)
	}
	if page == nil {
		return nil, false, nil
	}
	return page, true, nil
}

// mapping returns the translations of pageID. Malformed mappings are reported
// as ok=false with a nil error so scans can skip them.
func (r *Reconciler) mapping(ctx context.Context, pageID int64) (model.TranslationMap, bool, error) {
	m, err := r.store.GetTranslations(ctx, pageID)
	if err != nil {
		if errors.Is(err, model.ErrPageNotFound) {
			return model.TranslationMap{}, true, nil
		}
		if errors.Is(err, model.ErrMalformedMapping) {
			r.logger.Warn("skipping malformed translation mapping", "page_id", pageID, "error", err)
			TraceFrom(ctx).Addf("Page %d: malformed translation mapping, skipped", pageID)
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("loading translations for page %d: %w", pageID, err)
	}
	return m, true, nil
}

// DiscoverConnections returns every valid English/Italian pair reachable from
// pages, each unordered pair once, sorted by English title.
func (r *Reconciler) DiscoverConnections(ctx context.Context, pages []model.Page) ([]ConnectionPair, error) {
	tr := TraceFrom(ctx)
	processed := make(map[unorderedKey]bool)
	pairs := make([]ConnectionPair, 0)

	for _, page := range pages {
		m, ok, err := r.mapping(ctx, page.ID)
		if err != nil {
			return nil, err
		}
		if !ok || len(m) < 2 {
			continue
		}

		enID, itID := m[model.LangEnglish], m[model.LangItalian]
		if enID == 0 || itID == 0 || enID == itID {
			continue
		}

		key := newUnorderedKey(enID, itID)
		if processed[key] {
			continue
		}

		// The pair is only reported when the English side agrees.
		if page.ID != enID {
			enMap, ok, err := r.mapping(ctx, enID)
			if err != nil {
				return nil, err
			}
			if !ok || enMap[model.LangItalian] != itID {
				tr.Addf("Page %d links EN %d and IT %d but EN mapping disagrees, skipped", page.ID, enID, itID)
				continue
			}
		}
		processed[key] = true

		enPage, enOK, err := r.resolve(ctx, enID)
		if err != nil {
			return nil, err
		}
		itPage, itOK, err := r.resolve(ctx, itID)
		if err != nil {
			return nil, err
		}
		if !enOK || !itOK {
			tr.Addf("Pair %d-%d has a missing side, left for orphan scan", enID, itID)
			continue
		}

		pairs = append(pairs, newConnectionPair(enPage, itPage))
	}

	sort.SliceStable(pairs, func(i, j int) bool {
		return pairs[i].ENTitle < pairs[j].ENTitle
	})

	tr.Addf("Discovered %d connections across %d pages", len(pairs), len(pages))
	return pairs, nil
}

// FindOrphans returns one entry per mapping entry on pages whose target does
// not resolve, in page order then ascending language order.
func (r *Reconciler) FindOrphans(ctx context.Context, pages []model.Page) ([]OrphanedReference, error) {
	tr := TraceFrom(ctx)
	orphans := make([]OrphanedReference, 0)

	for _, page := range pages {
		m, ok, err := r.mapping(ctx, page.ID)
		if err != nil {
			return nil, err
		}
		if !ok {
			continue
		}

		lang := ""
		for _, missingLang := range m.Languages() {
			target := m[missingLang]
			if target == page.ID {
				continue
			}
			_, exists, err := r.resolve(ctx, target)
			if err != nil {
				return nil, err
			}
			if exists {
				continue
			}

			if lang == "" {
				lang = r.ownLanguage(ctx, page, m)
			}
			tr.Addf("Page %d (%s) references missing page %d under %q", page.ID, lang, target, missingLang)
			orphans = append(orphans, OrphanedReference{
				ExistingPageID:    page.ID,
				ExistingPageTitle: page.Title,
				MissingPageID:     target,
				Lang:              lang,
				MissingLang:       missingLang,
			})
		}
	}

	return orphans, nil
}

// ownLanguage returns the language of page, preferring the store's answer
// and falling back to the page record and then the mapping itself.
func (r *Reconciler) ownLanguage(ctx context.Context, page model.Page, m model.TranslationMap) string {
	if lang, err := r.store.GetLanguageCode(ctx, page.ID); err == nil && lang != "" {
		return lang
	}
	if page.LanguageCode != "" {
		return page.LanguageCode
	}
	for _, lang := range m.Languages() {
		if m[lang] == page.ID {
			return lang
		}
	}
	return ""
}

// DisconnectPair truncates both pages' mappings to themselves. If exactly one
// of the two writes fails, the side that was written is restored to its
// previous mapping.
func (r *Reconciler) DisconnectPair(ctx context.Context, enID, itID int64) Result {
	tr := TraceFrom(ctx)
	res := Result{ENID: enID, ITID: itID}

	if enID <= 0 || itID <= 0 {
		res.Kind = KindInvalidInput
		res.Message = MsgInvalidIDs
		return res
	}

	tr.Addf("Disconnect requested: EN %d, IT %d", enID, itID)

	enPage, enOK, enErr := r.resolve(ctx, enID)
	itPage, itOK, itErr := r.resolve(ctx, itID)
	if enErr != nil || itErr != nil {
		r.logger.Error("failed to resolve pages for disconnect", "en_id", enID, "it_id", itID,
			"error", errors.Join(enErr, itErr))
		tr.Addf("Page lookup failed")
		res.Kind = KindStoreError
		res.Message = fmt.Sprintf(msgLookupFailed, enID, itID)
		return res
	}
	if !enOK || !itOK {
		tr.Addf("Page lookup: EN exists=%t, IT exists=%t", enOK, itOK)
		res.Kind = KindNotFound
		res.Message = fmt.Sprintf(msgNotFound, enID, itID)
		return res
	}

	// A malformed mapping links nothing. Other read errors are store
	// failures, not "not connected".
	enMap, _, err := r.mapping(ctx, enID)
	if err != nil {
		r.logger.Error("failed to load English mapping", "en_id", enID, "error", err)
		tr.Addf("EN %d mapping could not be read", enID)
		res.Kind = KindStoreError
		res.Message = fmt.Sprintf(msgFailed, enPage.Title, itPage.Title)
		return res
	}
	tr.Addf("EN %d mapping: %v", enID, enMap)
	if enMap[model.LangItalian] != itID {
		res.Kind = KindNotConnected
		res.Message = fmt.Sprintf(msgNotConnected, enPage.Title, itPage.Title)
		return res
	}

	itMap, err := r.store.GetTranslations(ctx, itID)
	if err != nil {
		r.logger.Warn("failed to load Italian mapping", "it_id", itID, "error", err)
		itMap = nil
	}
	tr.Addf("IT %d mapping: %v", itID, itMap)

	enErr = r.store.SaveTranslations(ctx, model.TranslationMap{model.LangEnglish: enID})
	itErr = r.store.SaveTranslations(ctx, model.TranslationMap{model.LangItalian: itID})
	tr.Addf("Write results: EN ok=%t, IT ok=%t", enErr == nil, itErr == nil)

	if enErr == nil && itErr == nil {
		r.logger.Info("disconnected page pair", "en_id", enID, "it_id", itID)
		res.Success = true
		res.Message = fmt.Sprintf(msgDisconnected, enPage.Title, itPage.Title)
		return res
	}

	r.logger.Error("failed to disconnect page pair", "en_id", enID, "it_id", itID,
		"error", errors.Join(enErr, itErr))

	switch {
	case enErr == nil && itErr != nil:
		r.restore(ctx, enID, enMap)
	case enErr != nil && itErr == nil:
		r.restore(ctx, itID, itMap)
	}

	res.Kind = KindPartialWriteFailure
	res.Message = fmt.Sprintf(msgFailed, enPage.Title, itPage.Title)
	return res
}

// restore rewrites a previously loaded mapping after a one-sided write.
func (r *Reconciler) restore(ctx context.Context, pageID int64, previous model.TranslationMap) {
	tr := TraceFrom(ctx)
	if len(previous) == 0 {
		r.logger.Warn("no previous mapping to restore", "page_id", pageID)
		tr.Addf("Rollback of page %d skipped: previous mapping unknown", pageID)
		return
	}
	if err := r.store.SaveTranslations(ctx, previous.Clone()); err != nil {
		r.logger.Error("failed to restore translation mapping", "page_id", pageID, "error", err)
		tr.Addf("Rollback of page %d failed", pageID)
		return
	}
	tr.Addf("Rolled back page %d to %v", pageID, previous)
}

// CleanupOrphan drops mapping entries of pageID whose targets no longer
// exist. It returns true only if a rewrite was performed.
func (r *Reconciler) CleanupOrphan(ctx context.Context, pageID int64) bool {
	tr := TraceFrom(ctx)

	m, err := r.store.GetTranslations(ctx, pageID)
	if err != nil {
		r.logger.Debug("cleanup skipped", "page_id", pageID, "error", err)
		return false
	}
	if len(m) == 0 {
		return false
	}

	filtered := make(model.TranslationMap, len(m))
	dropped := 0
	for _, lang := range m.Languages() {
		id := m[lang]
		_, ok, err := r.resolve(ctx, id)
		if err != nil {
			r.logger.Error("cleanup aborted", "page_id", pageID, "error", err)
			return false
		}
		if !ok {
			tr.Addf("Page %d: dropping %s => %d", pageID, lang, id)
			dropped++
			continue
		}
		filtered[lang] = id
	}
	if dropped == 0 {
		return false
	}

	if err := r.store.SaveTranslations(ctx, filtered); err != nil {
		r.logger.Error("failed to save cleaned mapping", "page_id", pageID, "error", err)
		tr.Addf("Page %d: save failed", pageID)
		return false
	}

	r.logger.Info("cleaned orphaned translation references", "page_id", pageID, "dropped", dropped)
	return true
}
