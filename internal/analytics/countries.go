package analytics

import (
	"slices"

	"github.com/shopspring/decimal"

	"retailense/internal/models"
)

// TopCountryCount is the number of countries shown individually before the
// remainder is bucketed into Others.
const TopCountryCount = 5

var hundred = decimal.NewFromInt(100)

type countryCount struct {
	country string
	count   int
}

// rankCountries counts transactions per country, UK excluded, in descending
// order with ties kept in first-seen order.
func rankCountries(ds Dataset) ([]countryCount, int) {
	index := make(map[string]int)
	ranked := make([]countryCount, 0)
	total := 0

	for _, tx := range ds {
		if tx.Country == UnitedKingdom {
			continue
		}
		total++
		if i, ok := index[tx.Country]; ok {
			ranked[i].count++
			continue
		}
		index[tx.Country] = len(ranked)
		ranked = append(ranked, countryCount{country: tx.Country, count: 1})
	}

	slices.SortStableFunc(ranked, func(a, b countryCount) int {
		return b.count - a.count
	})
	return ranked, total
}

// CountryShares returns the top five non-UK countries by transaction count
// plus an Others row for the remainder. Percentages are of the full non-UK
// total; Others takes the residual so the column sums to exactly 100.
func CountryShares(ds Dataset) []models.CountryShare {
	ranked, total := rankCountries(ds)
	shares := make([]models.CountryShare, 0, TopCountryCount+1)
	if total == 0 {
		return shares
	}

	top := ranked
	if len(top) > TopCountryCount {
		top = top[:TopCountryCount]
	}

	topCount := 0
	topPercentage := decimal.Zero
	for _, cc := range top {
		pct := decimal.NewFromInt(int64(cc.count)).Mul(hundred).Div(decimal.NewFromInt(int64(total))).Round(1)
		shares = append(shares, models.CountryShare{
			Country:          cc.country,
			TransactionCount: cc.count,
			Percentage:       pct,
		})
		topCount += cc.count
		topPercentage = topPercentage.Add(pct)
	}

	if len(ranked) > TopCountryCount {
		shares = append(shares, models.CountryShare{
			Country:          models.OthersCountry,
			TransactionCount: total - topCount,
			Percentage:       hundred.Sub(topPercentage),
		})
	}
	return shares
}

// OtherCountries lists the countries bucketed into Others, in rank order.
func OtherCountries(ds Dataset) []string {
	ranked, _ := rankCountries(ds)
	others := make([]string, 0)
	if len(ranked) <= TopCountryCount {
		return others
	}
	for _, cc := range ranked[TopCountryCount:] {
		others = append(others, cc.country)
	}
	return others
}
