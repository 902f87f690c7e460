package analytics

import (
	"fmt"
	"slices"

	"github.com/shopspring/decimal"

	"retailense/internal/errors"
	"retailense/internal/models"
)

// DefaultTopN is the number of products shown when the caller does not ask.
const DefaultTopN = 10

// TopProducts ranks product descriptions by summed revenue, highest first.
// Ties keep the order in which the products were first seen.
func TopProducts(ds Dataset, n int) ([]models.ProductRevenue, error) {
	if n <= 0 {
		return nil, errors.InvalidParameter(fmt.Sprintf("top-N must be a positive integer, got %d", n))
	}

	totals := make(map[string]decimal.Decimal)
	order := make([]string, 0)
	for _, tx := range ds {
		if _, exists := totals[tx.Description]; !exists {
			order = append(order, tx.Description)
		}
		totals[tx.Description] = totals[tx.Description].Add(tx.Revenue)
	}

	ranked := make([]models.ProductRevenue, 0, len(order))
	for _, description := range order {
		ranked = append(ranked, models.ProductRevenue{
			Description:  description,
			TotalRevenue: totals[description],
		})
	}

	slices.SortStableFunc(ranked, func(a, b models.ProductRevenue) int {
		return b.TotalRevenue.Cmp(a.TotalRevenue)
	})

	if len(ranked) > n {
		ranked = ranked[:n]
	}
	for i := range ranked {
		ranked[i].Rank = i + 1
	}
	return ranked, nil
}
