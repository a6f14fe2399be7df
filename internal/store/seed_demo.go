// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package store

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/olegiv/pagelinks/internal/model"
	"github.com/olegiv/pagelinks/internal/util"
)

type demoPair struct {
	en string
	it string
}

// demoPairs are linked English/Italian page titles.
var demoPairs = []demoPair{
	{"Miele Washing Machine Repair", "Riparazione Lavatrice Miele"},
	{"Bosch Dishwasher Service", "Assistenza Lavastoviglie Bosch"},
	{"Samsung Refrigerator Repair", "Riparazione Frigorifero Samsung"},
	{"Smeg Oven Repair", "Riparazione Forno Smeg"},
	{"Electrolux Tumble Dryer Service", "Assistenza Asciugatrice Electrolux"},
	{"Whirlpool Cooktop Repair", "Riparazione Piano Cottura Whirlpool"},
	{"Faber Range Hood Cleaning", "Pulizia Cappa Faber"},
	{"Ariston Water Heater Service", "Assistenza Scaldabagno Ariston"},
	{"LG Air Conditioner Installation", "Installazione Condizionatore LG"},
	{"Contact Us", "Contatti"},
}

// demoOrphans are English pages whose Italian translation is deleted after linking.
var demoOrphans = []demoPair{
	{"Hotpoint Washer Spare Parts", "Ricambi Lavatrice Hotpoint"},
	{"Beko Fridge Troubleshooting", "Problemi Frigo Beko"},
}

// SeedDemo creates linked demo pages plus a few pages whose translations
// have been deleted. It does nothing if any page exists.
func SeedDemo(ctx context.Context, db *sql.DB) error {
	queries := New(db)

	count, err := queries.CountPages(ctx)
	if err != nil {
		return fmt.Errorf("counting pages: %w", err)
	}
	if count > 0 {
		slog.Info("pages already exist, skipping demo seed")
		return nil
	}

	slog.Info("seeding demo pages")
	ts := NewTranslationStore(db)

	for _, pair := range demoPairs {
		if _, _, err := seedDemoPair(ctx, queries, ts, pair); err != nil {
			return err
		}
	}

	for _, pair := range demoOrphans {
		_, itID, err := seedDemoPair(ctx, queries, ts, pair)
		if err != nil {
			return err
		}
		if err := ts.DeletePage(ctx, itID); err != nil {
			return err
		}
	}

	slog.Info("demo pages seeded", "pairs", len(demoPairs), "orphans", len(demoOrphans))
	return nil
}

func seedDemoPair(ctx context.Context, queries *Queries, ts *TranslationStore, pair demoPair) (int64, int64, error) {
	en, err := createDemoPage(ctx, queries, pair.en, model.LangEnglish)
	if err != nil {
		return 0, 0, err
	}
	it, err := createDemoPage(ctx, queries, pair.it, model.LangItalian)
	if err != nil {
		return 0, 0, err
	}
	if err := ts.SaveTranslations(ctx, model.TranslationMap{
		model.LangEnglish: en.ID,
		model.LangItalian: it.ID,
	}); err != nil {
		return 0, 0, fmt.Errorf("linking %q and %q: %w", pair.en, pair.it, err)
	}
	return en.ID, it.ID, nil
}

func createDemoPage(ctx context.Context, queries *Queries, title, lang string) (Page, error) {
	now := time.Now()
	page, err := queries.CreatePage(ctx, CreatePageParams{
		Title:        title,
		Slug:         lang + "-" + util.Slugify(title),
		Status:       model.PageStatusPublished,
		LanguageCode: lang,
		CreatedAt:    now,
		UpdatedAt:    now,
	})
	if err != nil {
		return Page{}, fmt.Errorf("creating page %q: %w", title, err)
	}
	return page, nil
}
