// Package analytics holds the filter engine and the aggregation functions
// behind every dashboard view. All functions are pure: the dataset is passed
// in explicitly and never mutated.
package analytics

import (
	"time"

	"retailense/internal/models"
)

// UnitedKingdom is excluded from the country share ranking.
const UnitedKingdom = "United Kingdom"

// Dataset is an immutable, in-memory transaction table.
type Dataset []models.Transaction

// Countries returns the distinct countries in first-seen order.
func (ds Dataset) Countries() []string {
	seen := make(map[string]bool)
	countries := make([]string, 0)
	for _, tx := range ds {
		if tx.Country == "" || seen[tx.Country] {
			continue
		}
		seen[tx.Country] = true
		countries = append(countries, tx.Country)
	}
	return countries
}

// DateBounds returns the earliest and latest invoice dates. ok is false for an
// empty dataset.
func (ds Dataset) DateBounds() (first, last time.Time, ok bool) {
	if len(ds) == 0 {
		return time.Time{}, time.Time{}, false
	}
	first, last = ds[0].InvoiceDate, ds[0].InvoiceDate
	for _, tx := range ds[1:] {
		if tx.InvoiceDate.Before(first) {
			first = tx.InvoiceDate
		}
		if tx.InvoiceDate.After(last) {
			last = tx.InvoiceDate
		}
	}
	return first, last, true
}
