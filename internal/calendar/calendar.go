// Package calendar groups economic releases by country and derives the
// text shown next to them on the globe.
package calendar

import (
	"slices"
	"strings"

	"github.com/poseidonvest/globe/pkg/core"
)

// EuroAreaKey is the calendar key shared by every euro member.
const EuroAreaKey = "Euro Area"

// countryKeys maps marker names to the key the calendar feed files events under.
var countryKeys = map[string]string{
	"USA":     "United States",
	"UK":      "United Kingdom",
	"Germany": EuroAreaKey,
	"France":  EuroAreaKey,
	"Italy":   EuroAreaKey,
	"Spain":   EuroAreaKey,
}

// CountryKey returns the calendar key for a marker name. Names without a
// mapping are their own key.
func CountryKey(name string) string {
	if k, ok := countryKeys[name]; ok {
		return k
	}
	return name
}

// Book is the economic event collection keyed by calendar key.
type Book map[string][]core.EconomicEvent

// FromEvents groups events by their Country field. Events without a country are dropped.
func FromEvents(events []core.EconomicEvent) Book {
	b := Book{}
	for _, e := range events {
		b.Add(e)
	}
	return b
}

// Add files e under its country.
func (b Book) Add(e core.EconomicEvent) {
	if e.Country == "" {
		return
	}
	b[e.Country] = append(b[e.Country], e)
}

// For returns the events for a marker name. Mapped names always read their
// calendar key, so a euro-area member never shows events filed under its own name.
func (b Book) For(name string) []core.EconomicEvent {
	return b[CountryKey(name)]
}

// HighImportance returns the High events for a marker name, in feed order.
func (b Book) HighImportance(name string) []core.EconomicEvent {
	var out []core.EconomicEvent
	for _, e := range b.For(name) {
		if e.IsHigh() {
			out = append(out, e)
		}
	}
	return out
}

// Len is the total number of events.
func (b Book) Len() int {
	n := 0
	for _, events := range b {
		n += len(events)
	}
	return n
}

// Countries returns the keys in sorted order.
func (b Book) Countries() []string {
	keys := make([]string, 0, len(b))
	for k := range b {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}

// Sorted flattens the book ordered by date, then time string.
// Events on the same date and time keep country order.
func (b Book) Sorted() []core.EconomicEvent {
	var all []core.EconomicEvent
	for _, k := range b.Countries() {
		all = append(all, b[k]...)
	}
	slices.SortStableFunc(all, func(x, y core.EconomicEvent) int {
		if c := x.Date.Compare(y.Date); c != 0 {
			return c
		}
		return strings.Compare(x.Time, y.Time)
	})
	return all
}
