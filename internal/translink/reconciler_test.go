// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package translink

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/olegiv/pagelinks/internal/model"
)

func TestDiscoverConnections_Example(t *testing.T) {
	s := sampleStore()
	r := testReconciler(s)

	pairs, err := r.DiscoverConnections(context.Background(), s.all())
	require.NoError(t, err)
	require.Len(t, pairs, 1)

	p := pairs[0]
	assert.Equal(t, int64(101), p.ENID)
	assert.Equal(t, int64(202), p.ITID)
	assert.Equal(t, "Washing Machines", p.ENCategory)
	assert.Equal(t, "Washing Machines", p.ITCategory)
	assert.Equal(t, "Miele", p.ENBrand)
	assert.Equal(t, "Miele", p.ITBrand)
	assert.Equal(t, "101-202", p.Key().String())
}

func TestDiscoverConnections_NoDuplicates(t *testing.T) {
	s := newMemStore()
	s.addPage(1, "en", "Zeta Oven")
	s.addPage(2, "it", "Forno Zeta")
	s.addPage(3, "en", "Alpha Hood")
	s.addPage(4, "it", "Cappa Alpha")
	s.connect(model.TranslationMap{"en": 1, "it": 2})
	s.connect(model.TranslationMap{"en": 3, "it": 4})
	r := testReconciler(s)

	pages := s.all()
	// Scan every page twice to make sure repeated input still yields each pair once.
	pairs, err := r.DiscoverConnections(context.Background(), append(pages, pages...))
	require.NoError(t, err)
	require.Len(t, pairs, 2)
	assert.Equal(t, "Alpha Hood", pairs[0].ENTitle)
	assert.Equal(t, "Zeta Oven", pairs[1].ENTitle)
}

func TestDiscoverConnections_SortIsByteWise(t *testing.T) {
	s := newMemStore()
	s.addPage(1, "en", "beko fridge")
	s.addPage(2, "it", "frigo beko")
	s.addPage(3, "en", "Zanussi Oven")
	s.addPage(4, "it", "Forno Zanussi")
	s.connect(model.TranslationMap{"en": 1, "it": 2})
	s.connect(model.TranslationMap{"en": 3, "it": 4})
	r := testReconciler(s)

	pairs, err := r.DiscoverConnections(context.Background(), s.all())
	require.NoError(t, err)
	require.Len(t, pairs, 2)
	// Upper case sorts before lower case.
	assert.Equal(t, "Zanussi Oven", pairs[0].ENTitle)
	assert.Equal(t, "beko fridge", pairs[1].ENTitle)
}

func TestDiscoverConnections_Skips(t *testing.T) {
	tests := []struct {
		name  string
		setup func(s *memStore)
	}{
		{
			name: "missing italian side",
			setup: func(s *memStore) {
				s.addPage(1, "en", "Orphan")
				s.link(1, model.TranslationMap{"en": 1, "it": 99})
			},
		},
		{
			name: "only english entry",
			setup: func(s *memStore) {
				s.addPage(1, "en", "Alone")
				s.link(1, model.TranslationMap{"en": 1})
			},
		},
		{
			name: "same id under both languages",
			setup: func(s *memStore) {
				s.addPage(1, "en", "Self")
				s.link(1, model.TranslationMap{"en": 1, "it": 1})
			},
		},
		{
			name: "english and german only",
			setup: func(s *memStore) {
				s.addPage(1, "en", "Miele Oven")
				s.addPage(2, "de", "Miele Backofen")
				s.connect(model.TranslationMap{"en": 1, "de": 2})
			},
		},
		{
			name: "malformed mapping",
			setup: func(s *memStore) {
				s.addPage(1, "en", "Broken")
				s.malformed[1] = true
			},
		},
		{
			name: "english mapping disagrees",
			setup: func(s *memStore) {
				s.addPage(1, "en", "Bosch Oven")
				s.addPage(2, "it", "Forno Bosch")
				s.link(1, model.TranslationMap{"en": 1})
				s.link(2, model.TranslationMap{"en": 1, "it": 2})
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newMemStore()
			tt.setup(s)
			r := testReconciler(s)

			pairs, err := r.DiscoverConnections(context.Background(), s.all())
			require.NoError(t, err)
			assert.Empty(t, pairs)
		})
	}
}

type failingStore struct {
	*memStore
}

func (f failingStore) GetTranslations(context.Context, int64) (model.TranslationMap, error) {
	return nil, errors.New("database is locked")
}

func TestDiscoverConnections_StoreError(t *testing.T) {
	s := sampleStore()
	r := New(failingStore{s}, nil)

	_, err := r.DiscoverConnections(context.Background(), s.all())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "database is locked")

	_, err = r.FindOrphans(context.Background(), s.all())
	require.Error(t, err)
}

func TestFindOrphans_Example(t *testing.T) {
	s := sampleStore()
	r := testReconciler(s)

	orphans, err := r.FindOrphans(context.Background(), s.all())
	require.NoError(t, err)
	require.Len(t, orphans, 1)
	assert.Equal(t, OrphanedReference{
		ExistingPageID:    303,
		ExistingPageTitle: "Bosch Dryer",
		MissingPageID:     404,
		Lang:              "en",
		MissingLang:       "it",
	}, orphans[0])
}

func TestFindOrphans_NoDeduplication(t *testing.T) {
	s := newMemStore()
	s.addPage(1, "en", "A")
	s.addPage(2, "it", "B")
	s.link(1, model.TranslationMap{"en": 1, "it": 50, "de": 60})
	s.link(2, model.TranslationMap{"it": 2, "en": 50})
	r := testReconciler(s)

	orphans, err := r.FindOrphans(context.Background(), s.all())
	require.NoError(t, err)
	require.Len(t, orphans, 3)

	// Page order, then ascending language order.
	assert.Equal(t, int64(60), orphans[0].MissingPageID)
	assert.Equal(t, "de", orphans[0].MissingLang)
	assert.Equal(t, int64(50), orphans[1].MissingPageID)
	assert.Equal(t, int64(2), orphans[2].ExistingPageID)
	assert.Equal(t, "it", orphans[2].Lang)
}

func TestFindOrphans_NoneWhenAllResolve(t *testing.T) {
	s := sampleStore()
	delete(s.mappings, 303)
	r := testReconciler(s)

	orphans, err := r.FindOrphans(context.Background(), s.all())
	require.NoError(t, err)
	assert.Empty(t, orphans)
}

func TestDisconnectPair_Success(t *testing.T) {
	s := sampleStore()
	s.addPage(505, "de", "Miele Waschmaschine")
	s.connect(model.TranslationMap{"en": 101, "it": 202, "de": 505})
	r := testReconciler(s)

	res := r.DisconnectPair(context.Background(), 101, 202)
	assert.True(t, res.Success)
	assert.Equal(t, KindNone, res.Kind)
	assert.Equal(t, "Successfully disconnected: Miele Washing Machine and Lavatrice Miele", res.Message)

	// Each side is truncated to itself, other languages included.
	assert.Equal(t, model.TranslationMap{"en": 101}, s.mappings[101])
	assert.Equal(t, model.TranslationMap{"it": 202}, s.mappings[202])

	pairs, err := r.DiscoverConnections(context.Background(), s.all())
	require.NoError(t, err)
	for _, p := range pairs {
		assert.False(t, p.ENID == 101 && p.ITID == 202)
	}
}

func TestDisconnectPair_NotFound(t *testing.T) {
	s := sampleStore()
	r := testReconciler(s)

	res := r.DisconnectPair(context.Background(), 303, 404)
	assert.False(t, res.Success)
	assert.Equal(t, KindNotFound, res.Kind)
	assert.Equal(t, "Error: One or both pages do not exist (EN: 303, IT: 404)", res.Message)
	assert.Empty(t, s.saves)
}

func TestDisconnectPair_NotConnected(t *testing.T) {
	s := sampleStore()
	before101 := s.mappings[101].Clone()
	before303 := s.mappings[303].Clone()
	r := testReconciler(s)

	res := r.DisconnectPair(context.Background(), 303, 202)
	assert.False(t, res.Success)
	assert.Equal(t, KindNotConnected, res.Kind)
	assert.Equal(t, "Pages are not connected: Bosch Dryer and Lavatrice Miele", res.Message)

	assert.Empty(t, s.saves)
	assert.Equal(t, before101, s.mappings[101])
	assert.Equal(t, before303, s.mappings[303])
}

// pageLookupFailingStore fails every page lookup.
type pageLookupFailingStore struct {
	*memStore
}

func (f pageLookupFailingStore) GetPage(context.Context, int64) (*model.Page, error) {
	return nil, errors.New("connection refused")
}

func TestDisconnectPair_StoreErrors(t *testing.T) {
	t.Run("mapping read fails", func(t *testing.T) {
		s := sampleStore()
		r := New(failingStore{s}, nil)

		res := r.DisconnectPair(context.Background(), 101, 202)
		assert.False(t, res.Success)
		assert.Equal(t, KindStoreError, res.Kind)
		assert.Equal(t, "Failed to disconnect: Miele Washing Machine and Lavatrice Miele", res.Message)
		assert.Empty(t, s.saves)
	})

	t.Run("page lookup fails", func(t *testing.T) {
		s := sampleStore()
		r := New(pageLookupFailingStore{s}, nil)

		res := r.DisconnectPair(context.Background(), 101, 202)
		assert.Equal(t, KindStoreError, res.Kind)
		assert.Equal(t, "Failed to load pages (EN: 101, IT: 202)", res.Message)
		assert.Empty(t, s.saves)
	})

	t.Run("malformed mapping is not connected", func(t *testing.T) {
		s := sampleStore()
		s.malformed[101] = true
		r := testReconciler(s)

		res := r.DisconnectPair(context.Background(), 101, 202)
		assert.Equal(t, KindNotConnected, res.Kind)
		assert.Equal(t, "Pages are not connected: Miele Washing Machine and Lavatrice Miele", res.Message)
		assert.Empty(t, s.saves)
	})
}

func TestDisconnectPair_InvalidInput(t *testing.T) {
	r := testReconciler(sampleStore())

	res := r.DisconnectPair(context.Background(), 0, 202)
	assert.False(t, res.Success)
	assert.Equal(t, KindInvalidInput, res.Kind)
	assert.Equal(t, MsgInvalidIDs, res.Message)
}

func TestDisconnectPair_PartialFailureRollsBack(t *testing.T) {
	s := sampleStore()
	s.failTruncate[202] = true
	r := testReconciler(s)

	tr := NewTrace()
	res := r.DisconnectPair(WithTrace(context.Background(), tr), 101, 202)
	assert.False(t, res.Success)
	assert.Equal(t, KindPartialWriteFailure, res.Kind)
	assert.Equal(t, "Failed to disconnect: Miele Washing Machine and Lavatrice Miele", res.Message)

	// The English write went through and was then restored.
	require.Len(t, s.saves, 2)
	assert.Equal(t, model.TranslationMap{"en": 101}, s.saves[0])
	assert.Equal(t, model.TranslationMap{"en": 101, "it": 202}, s.saves[1])
	assert.Equal(t, model.TranslationMap{"en": 101, "it": 202}, s.mappings[101])
	assert.Contains(t, tr.Steps()[len(tr.Steps())-1], "Rolled back page 101")
}

func TestDisconnectPair_BothWritesFail(t *testing.T) {
	s := sampleStore()
	s.failTruncate[101] = true
	s.failTruncate[202] = true
	r := testReconciler(s)

	res := r.DisconnectPair(context.Background(), 101, 202)
	assert.False(t, res.Success)
	assert.Equal(t, KindPartialWriteFailure, res.Kind)
	assert.Equal(t, model.TranslationMap{"en": 101, "it": 202}, s.mappings[101])
}

func TestCleanupOrphan_Example(t *testing.T) {
	s := sampleStore()
	r := testReconciler(s)

	assert.True(t, r.CleanupOrphan(context.Background(), 303))
	assert.Equal(t, model.TranslationMap{"en": 303}, s.mappings[303])

	// Idempotent: nothing left to remove.
	assert.False(t, r.CleanupOrphan(context.Background(), 303))
	assert.Len(t, s.saves, 1)
}

func TestCleanupOrphan_WritesFilteredMappingOnly(t *testing.T) {
	s := sampleStore()
	s.addPage(505, "de", "Bosch Trockner")
	// The stored mapping of 303 does not name 303 itself.
	s.link(303, model.TranslationMap{"it": 404, "de": 505})
	r := testReconciler(s)

	require.True(t, r.CleanupOrphan(context.Background(), 303))
	require.Len(t, s.saves, 1)
	assert.Equal(t, model.TranslationMap{"de": 505}, s.saves[0])
}

func TestCleanupOrphan_NoWrite(t *testing.T) {
	s := sampleStore()
	s.addPage(7, "en", "Broken")
	s.malformed[7] = true
	r := testReconciler(s)

	assert.False(t, r.CleanupOrphan(context.Background(), 101), "clean mapping")
	assert.False(t, r.CleanupOrphan(context.Background(), 7), "malformed mapping")
	assert.False(t, r.CleanupOrphan(context.Background(), 999), "absent mapping")
	assert.Empty(t, s.saves)
}

func TestCleanupOrphan_SaveFails(t *testing.T) {
	s := sampleStore()
	s.failTruncate[303] = true
	r := testReconciler(s)

	assert.False(t, r.CleanupOrphan(context.Background(), 303))
}

func TestBulkDisconnect_Example(t *testing.T) {
	s := sampleStore()
	r := testReconciler(s)

	summary := r.BulkDisconnect(context.Background(), []string{"101-202", "303-404"})
	assert.Equal(t, 1, summary.Succeeded)
	assert.Equal(t, 2, summary.Total)
	assert.Equal(t, 0, summary.Invalid)
	require.Len(t, summary.Results, 2)
	assert.Equal(t, KindNotFound, summary.Results[1].Kind)
	assert.Equal(t, "Disconnected 1 out of 2 page pairs successfully.", summary.Message())
}

func TestBulkDisconnect_InvalidKeys(t *testing.T) {
	s := sampleStore()
	r := testReconciler(s)

	summary := r.BulkDisconnect(context.Background(), []string{"abc", "0-5", "101-202", "12"})
	assert.Equal(t, 1, summary.Succeeded)
	assert.Equal(t, 4, summary.Total)
	assert.Equal(t, 3, summary.Invalid)
	assert.Len(t, summary.Results, 1)
}

func TestBulkDisconnect_Empty(t *testing.T) {
	r := testReconciler(sampleStore())

	summary := r.BulkDisconnect(context.Background(), nil)
	assert.Equal(t, 0, summary.Total)
	assert.Equal(t, MsgNoneSelected, summary.Message())
}

func TestCleanupAllOrphans(t *testing.T) {
	s := sampleStore()
	s.addPage(9, "it", "Asciugatrice")
	s.link(9, model.TranslationMap{"it": 9, "en": 77, "de": 78})
	r := testReconciler(s)

	summary, err := r.CleanupAllOrphans(context.Background(), s.all())
	require.NoError(t, err)
	assert.Equal(t, 4, summary.Scanned)
	assert.Len(t, summary.Orphans, 3)
	assert.Equal(t, 2, summary.Cleaned)
	assert.Equal(t, model.TranslationMap{"it": 9}, s.mappings[9])

	orphans, err := r.FindOrphans(context.Background(), s.all())
	require.NoError(t, err)
	assert.Empty(t, orphans)
}

func TestForceCleanup(t *testing.T) {
	s := sampleStore()
	r := testReconciler(s)

	summary := r.ForceCleanup(context.Background(), []int64{202, 303, 999})
	assert.Equal(t, 2, summary.Normalized)
	assert.Equal(t, 3, summary.Total)
	assert.Equal(t, []int64{999}, summary.Skipped)

	// Italian pages keep their own language.
	assert.Equal(t, model.TranslationMap{"it": 202}, s.mappings[202])
	assert.Equal(t, model.TranslationMap{"en": 303}, s.mappings[303])
	assert.Equal(t, "Normalized 2 out of 3 pages.", summary.Message())
}

func TestForceCleanup_UnknownLanguage(t *testing.T) {
	s := sampleStore()
	s.addPage(8, "", "No language")
	r := testReconciler(s)

	summary := r.ForceCleanup(context.Background(), []int64{8})
	assert.Equal(t, 0, summary.Normalized)
	assert.Equal(t, []int64{8}, summary.Skipped)
	assert.Empty(t, s.saves)
}

func TestKindString(t *testing.T) {
	assert.Equal(t, "not_found", KindNotFound.String())
	assert.Equal(t, "partial_write_failure", KindPartialWriteFailure.String())
	assert.Equal(t, "store_error", KindStoreError.String())
	assert.Equal(t, "unknown", Kind(42).String())
}
