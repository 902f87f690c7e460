package analytics

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"retailense/internal/models"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func day(year int, month time.Month, d, hour int) time.Time {
	return time.Date(year, month, d, hour, 0, 0, 0, time.UTC)
}

// sampleDataset is ten rows across five countries. The only UK row is a
// return dated 2024-03-15.
func sampleDataset() Dataset {
	return Dataset{
		{InvoiceID: "536365", Description: "WHITE HANGING HEART T-LIGHT HOLDER", Quantity: 6, InvoiceDate: day(2024, 1, 5, 9), UnitPrice: dec("2.55"), CustomerID: "17850", Country: "Germany", Revenue: dec("15.30")},
		{InvoiceID: "536365", Description: "REGENCY CAKESTAND 3 TIER", Quantity: 2, InvoiceDate: day(2024, 1, 5, 9), UnitPrice: dec("12.75"), CustomerID: "17850", Country: "Germany", Revenue: dec("25.50")},
		{InvoiceID: "536366", Description: "JUMBO BAG RED RETROSPOT", Quantity: 10, InvoiceDate: day(2024, 1, 20, 11), UnitPrice: dec("1.95"), Country: "France", Revenue: dec("19.50")},
		{InvoiceID: "536367", Description: "WHITE HANGING HEART T-LIGHT HOLDER", Quantity: 12, InvoiceDate: day(2024, 2, 2, 14), UnitPrice: dec("2.55"), CustomerID: "13047", Country: "France", Revenue: dec("30.60")},
		{InvoiceID: "536368", Description: "PARTY BUNTING", Quantity: 4, InvoiceDate: day(2024, 2, 14, 10), UnitPrice: dec("4.95"), Country: "Spain", Revenue: dec("19.80")},
		{InvoiceID: "536368", Description: "JUMBO BAG RED RETROSPOT", Quantity: 5, InvoiceDate: day(2024, 2, 14, 10), UnitPrice: dec("1.95"), Country: "Spain", Revenue: dec("9.75")},
		{InvoiceID: "536369", Description: "REGENCY CAKESTAND 3 TIER", Quantity: 1, InvoiceDate: day(2024, 3, 1, 8), UnitPrice: dec("12.75"), CustomerID: "12583", Country: "Italy", Revenue: dec("12.75")},
		{InvoiceID: "536370", Description: "LUNCH BAG RED RETROSPOT", Quantity: 8, InvoiceDate: day(2024, 3, 10, 16), UnitPrice: dec("1.65"), CustomerID: "17850", Country: "Germany", Revenue: dec("13.20")},
		{InvoiceID: "536371", Description: "PARTY BUNTING", Quantity: 3, InvoiceDate: day(2024, 3, 31, 10), UnitPrice: dec("4.95"), CustomerID: "12431", Country: "Italy", Revenue: dec("14.85")},
		{InvoiceID: "C536372", Description: "REGENCY CAKESTAND 3 TIER", Quantity: -2, InvoiceDate: day(2024, 3, 15, 12), UnitPrice: dec("12.75"), CustomerID: "14527", Country: "United Kingdom", Revenue: dec("-25.50")},
	}
}

var continental = []string{"Germany", "France", "Spain", "Italy"}

var allSampleCountries = []string{"United Kingdom", "Germany", "France", "Spain", "Italy"}

// countryMix builds one single-line invoice per requested transaction so the
// per-country counts are exactly those given.
func countryMix(date time.Time, counts []countryCount) Dataset {
	ds := make(Dataset, 0)
	n := 0
	for _, cc := range counts {
		for i := 0; i < cc.count; i++ {
			n++
			ds = append(ds, models.Transaction{
				InvoiceID:   fmt.Sprintf("INV%04d", n),
				Description: "POSTAGE",
				Quantity:    1,
				InvoiceDate: date,
				UnitPrice:   dec("1.00"),
				Country:     cc.country,
				Revenue:     dec("1.00"),
			})
		}
	}
	return ds
}
