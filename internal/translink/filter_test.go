// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package translink

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/olegiv/pagelinks/internal/model"
)

func filterFixture(t *testing.T) []ConnectionPair {
	t.Helper()
	s := newMemStore()
	s.addPage(1, "en", "Miele Washing Machine")
	s.addPage(2, "it", "Lavatrice Miele")
	s.addPage(3, "en", "Bosch Oven")
	s.addPage(4, "it", "Forno Bosch")
	s.addPage(5, "en", "Contact")
	s.addPage(6, "it", "Contatti")
	s.connect(model.TranslationMap{"en": 1, "it": 2})
	s.connect(model.TranslationMap{"en": 3, "it": 4})
	s.connect(model.TranslationMap{"en": 5, "it": 6})

	pairs, err := testReconciler(s).DiscoverConnections(context.Background(), s.all())
	require.NoError(t, err)
	require.Len(t, pairs, 3)
	return pairs
}

func TestFilterConnections(t *testing.T) {
	pairs := filterFixture(t)

	tests := []struct {
		name   string
		filter Filter
		want   []int64
	}{
		{"empty", Filter{}, []int64{3, 5, 1}},
		{"brand", Filter{Brand: "Bosch"}, []int64{3}},
		{"category", Filter{Category: "Other"}, []int64{5}},
		{"search italian title", Filter{Search: "lavatrice"}, []int64{1}},
		{"search case insensitive", Filter{Search: "  OVEN "}, []int64{3}},
		{"combined no match", Filter{Brand: "Miele", Category: "Ovens"}, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got []int64
			for _, p := range FilterConnections(pairs, tt.filter) {
				got = append(got, p.ENID)
			}
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestCollectFacets(t *testing.T) {
	facets := CollectFacets(filterFixture(t))

	assert.Equal(t, []string{"Bosch", "Miele"}, facets.Brands)
	assert.Equal(t, []string{"Ovens", "Other", "Washing Machines"}, facets.Categories)
}

func TestTrace(t *testing.T) {
	var nilTrace *Trace
	nilTrace.Addf("ignored %d", 1)
	assert.Nil(t, nilTrace.Steps())
	assert.Nil(t, TraceFrom(context.Background()))

	tr := NewTrace()
	ctx := WithTrace(context.Background(), tr)
	TraceFrom(ctx).Addf("step %d", 1)
	TraceFrom(ctx).Addf("step %d", 2)
	assert.Equal(t, []string{"step 1", "step 2"}, tr.Steps())
}
