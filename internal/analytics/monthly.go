package analytics

import (
	"slices"
	"time"

	"github.com/shopspring/decimal"

	"retailense/internal/models"
)

// MonthLabelLayout renders a month as "Jan-2024".
const MonthLabelLayout = "Jan-2006"

// MonthlyRevenue sums revenue per calendar month, ordered by the first day of
// each month rather than by label.
func MonthlyRevenue(ds Dataset) []models.MonthlyRevenue {
	groups := make(map[time.Time]decimal.Decimal)
	for _, tx := range ds {
		month := monthStart(tx.InvoiceDate)
		groups[month] = groups[month].Add(tx.Revenue)
	}

	result := make([]models.MonthlyRevenue, 0, len(groups))
	for month, revenue := range groups {
		result = append(result, models.MonthlyRevenue{
			Month:        month,
			Label:        month.Format(MonthLabelLayout),
			TotalRevenue: revenue,
		})
	}

	slices.SortFunc(result, func(a, b models.MonthlyRevenue) int {
		return a.Month.Compare(b.Month)
	})
	return result
}

func monthStart(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
}
