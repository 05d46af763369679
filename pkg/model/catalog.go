package model

import (
	"sort"
	"strings"
)

// DefaultHydrationFactor applies to beverages missing from the catalog.
const DefaultHydrationFactor = 1.0

var catalog = map[string]float64{
	"water":                     1.0,
	"sparkling water":           1.0,
	"tea":                       0.9,
	"coffee":                    0.8,
	"milk":                      1.5,
	"juice":                     0.9,
	"soda":                      0.9,
	"sports drink":              1.1,
	"oral rehydration solution": 1.5,
	"beer":                      0.6,
}

// LookupBeverage returns the catalog entry for name.
// Unknown names get DefaultHydrationFactor and keep the caller's spelling.
func LookupBeverage(name string) Beverage {
	key := strings.ToLower(strings.TrimSpace(name))
	if key == "" {
		key = "water"
	}

	factor, ok := catalog[key]
	if !ok {
		return Beverage{ID: key, Name: strings.TrimSpace(name), HydrationFactor: DefaultHydrationFactor}
	}
	return Beverage{ID: strings.ReplaceAll(key, " ", "-"), Name: key, HydrationFactor: factor}
}

// Catalog lists the known beverages sorted by name.
func Catalog() []Beverage {
	names := make([]string, 0, len(catalog))
	for name := range catalog {
		names = append(names, name)
	}
	sort.Strings(names)

	out := make([]Beverage, 0, len(names))
	for _, name := range names {
		out = append(out, LookupBeverage(name))
	}
	return out
}
