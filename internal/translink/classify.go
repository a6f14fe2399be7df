// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package translink

import "strings"

// CategoryOther is returned when no category keyword matches.
const CategoryOther = "Other"

type categoryRule struct {
	name     string
	keywords []string
}

// categoryRules is matched in order; the first keyword hit wins.
var categoryRules = []categoryRule{
	{"Washing Machines", []string{"washing", "lavatrice", "lavatrici", "washer"}},
	{"Dryers", []string{"dryer", "asciugatrice", "asciugatrici", "tumble"}},
	{"Dishwashers", []string{"dishwasher", "lavastoviglie", "dish"}},
	{"Refrigerators", []string{"refrigerator", "fridge", "frigorifero", "frigo"}},
	{"Ovens", []string{"oven", "forno", "forni", "microwave"}},
	{"Cooktops", []string{"cooktop", "hob", "piano cottura", "gas"}},
	{"Hoods", []string{"hood", "range hood", "cappa", "extractor"}},
	{"Air Conditioners", []string{"air conditioner", "condizionatore", "ac unit", "clima"}},
	{"Water Heaters", []string{"water heater", "boiler", "scaldabagno", "caldaia"}},
}

// Brands is matched in order; the first case-insensitive substring hit wins.
var Brands = []string{
	"Miele", "Bosch", "Siemens", "Samsung", "LG", "Whirlpool",
	"Electrolux", "AEG", "Indesit", "Hotpoint", "Ariston",
	"Smeg", "Candy", "Beko", "Zanussi", "Hoover", "Gorenje",
	"Liebherr", "Neff", "Gaggenau", "Fisher & Paykel", "GE",
	"Kenmore", "Maytag", "KitchenAid", "Frigidaire", "Haier",
}

// Categories returns the category names in match order, followed by CategoryOther.
func Categories() []string {
	names := make([]string, 0, len(categoryRules)+1)
	for _, rule := range categoryRules {
		names = append(names, rule.name)
	}
	return append(names, CategoryOther)
}

// Categorize infers an appliance category from a page title.
func Categorize(title string) string {
	lower := asciiLower(title)
	for _, rule := range categoryRules {
		for _, kw := range rule.keywords {
			if strings.Contains(lower, kw) {
				return rule.name
			}
		}
	}
	return CategoryOther
}

// ExtractBrand infers a brand from a page title. It returns "" when no brand matches.
func ExtractBrand(title string) string {
	lower := asciiLower(title)
	for _, brand := range Brands {
		if strings.Contains(lower, asciiLower(brand)) {
			return brand
		}
	}
	return ""
}

// asciiLower folds only A-Z so that non-ASCII letters never produce new ASCII matches.
func asciiLower(s string) string {
	return strings.Map(func(r rune) rune {
		if r >= 'A' && r <= 'Z' {
			return r + ('a' - 'A')
		}
		return r
	}, s)
}
