package analytics

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"retailense/internal/errors"
	"retailense/internal/models"
)

func assertDecimal(t *testing.T, want string, got decimal.Decimal, msgAndArgs ...any) {
	t.Helper()
	assert.True(t, dec(want).Equal(got), append([]any{"want %s, got %s", want, got.String()}, msgAndArgs...)...)
}

func TestMonthlyRevenue(t *testing.T) {
	filtered, err := Filter(sampleDataset(), "2024-01-01", "2024-03-31", continental)
	require.NoError(t, err)

	points := MonthlyRevenue(filtered)
	require.Len(t, points, 3)

	assert.Equal(t, []string{"Jan-2024", "Feb-2024", "Mar-2024"}, []string{points[0].Label, points[1].Label, points[2].Label})
	assertDecimal(t, "60.30", points[0].TotalRevenue)
	assertDecimal(t, "60.15", points[1].TotalRevenue)
	assertDecimal(t, "40.80", points[2].TotalRevenue)
	assert.Equal(t, time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), points[0].Month)
}

func TestMonthlyRevenue_ChronologicalAcrossYearBoundary(t *testing.T) {
	ds := Dataset{
		{Description: "A", Quantity: 1, InvoiceDate: day(2024, 1, 10, 0), Revenue: dec("3")},
		{Description: "A", Quantity: 1, InvoiceDate: day(2023, 12, 5, 0), Revenue: dec("2")},
		{Description: "A", Quantity: 1, InvoiceDate: day(2023, 3, 5, 0), Revenue: dec("1")},
		{Description: "A", Quantity: 1, InvoiceDate: day(2024, 2, 1, 0), Revenue: dec("4")},
	}

	points := MonthlyRevenue(ds)
	labels := make([]string, 0, len(points))
	for _, p := range points {
		labels = append(labels, p.Label)
	}

	// Lexicographic order would put Dec-2023 last and Feb-2024 first.
	assert.Equal(t, []string{"Mar-2023", "Dec-2023", "Jan-2024", "Feb-2024"}, labels)
	for i := 1; i < len(points); i++ {
		assert.True(t, points[i-1].Month.Before(points[i].Month))
	}
}

func TestWaterfall(t *testing.T) {
	filtered, err := Filter(sampleDataset(), "2024-01-01", "2024-03-31", allSampleCountries)
	require.NoError(t, err)

	segments := Waterfall(filtered)
	require.Len(t, segments, 3)

	gross, refund, net := segments[0], segments[1], segments[2]
	assert.Equal(t, models.GrossRevenue, gross.Category)
	assert.Equal(t, models.Refund, refund.Category)
	assert.Equal(t, models.NetRevenue, net.Category)

	assertDecimal(t, "161.25", gross.Value)
	assertDecimal(t, "0", gross.CumulativeStart)
	assertDecimal(t, "161.25", gross.CumulativeEnd)
	assert.Equal(t, models.Increase, gross.Direction)

	assertDecimal(t, "-25.50", refund.Value)
	assertDecimal(t, "161.25", refund.CumulativeStart)
	assertDecimal(t, "135.75", refund.CumulativeEnd)
	assert.Equal(t, models.Decrease, refund.Direction)

	assertDecimal(t, "135.75", net.Value)
	assertDecimal(t, "0", net.CumulativeStart)
	assertDecimal(t, "135.75", net.CumulativeEnd)
	assert.Equal(t, models.Increase, net.Direction)

	assert.True(t, gross.Value.Add(refund.Value).Equal(net.Value))
}

func TestWaterfall_ReturnsOnly(t *testing.T) {
	filtered, err := Filter(sampleDataset(), "2024-03-15", "2024-03-15", []string{UnitedKingdom})
	require.NoError(t, err)

	segments := Waterfall(filtered)
	assertDecimal(t, "0", segments[0].Value)
	assert.Equal(t, models.Decrease, segments[0].Direction)
	assertDecimal(t, "-25.50", segments[2].Value)
	assertDecimal(t, "0", segments[2].CumulativeStart)
	assertDecimal(t, "-25.50", segments[2].CumulativeEnd)
	assert.Equal(t, models.Decrease, segments[2].Direction)
}

func TestTopProducts(t *testing.T) {
	ds := sampleDataset()

	t.Run("ranked by revenue", func(t *testing.T) {
		top, err := TopProducts(ds, 3)
		require.NoError(t, err)
		require.Len(t, top, 3)

		assert.Equal(t, "WHITE HANGING HEART T-LIGHT HOLDER", top[0].Description)
		assertDecimal(t, "45.90", top[0].TotalRevenue)
		assert.Equal(t, "PARTY BUNTING", top[1].Description)
		assertDecimal(t, "34.65", top[1].TotalRevenue)
		assert.Equal(t, "JUMBO BAG RED RETROSPOT", top[2].Description)
		for i, p := range top {
			assert.Equal(t, i+1, p.Rank)
		}
	})

	t.Run("n+1th never beats nth", func(t *testing.T) {
		all, err := TopProducts(ds, 100)
		require.NoError(t, err)
		assert.Len(t, all, 5, "fewer products than n returns all of them")
		for i := 1; i < len(all); i++ {
			assert.True(t, all[i].TotalRevenue.LessThanOrEqual(all[i-1].TotalRevenue))
		}
		// Returns net against sales of the same description.
		assert.Equal(t, "REGENCY CAKESTAND 3 TIER", all[4].Description)
		assertDecimal(t, "12.75", all[4].TotalRevenue)
	})

	t.Run("ties keep input order", func(t *testing.T) {
		tied := Dataset{
			{Description: "B", Quantity: 1, Revenue: dec("5")},
			{Description: "A", Quantity: 1, Revenue: dec("5")},
			{Description: "C", Quantity: 1, Revenue: dec("7")},
		}
		top, err := TopProducts(tied, 10)
		require.NoError(t, err)
		assert.Equal(t, []string{"C", "B", "A"}, []string{top[0].Description, top[1].Description, top[2].Description})
	})

	t.Run("descriptions are not normalised", func(t *testing.T) {
		near := Dataset{
			{Description: "PARTY BUNTING", Quantity: 1, Revenue: dec("1")},
			{Description: "PARTY BUNTING ", Quantity: 1, Revenue: dec("1")},
		}
		top, err := TopProducts(near, DefaultTopN)
		require.NoError(t, err)
		assert.Len(t, top, 2)
	})

	for _, n := range []int{0, -1} {
		_, err := TopProducts(ds, n)
		assert.True(t, errors.IsCode(err, errors.CodeInvalidParam), "n=%d: %v", n, err)
	}
}

func TestCountryShares(t *testing.T) {
	t.Run("fewer than five countries has no Others", func(t *testing.T) {
		shares := CountryShares(sampleDataset())
		require.Len(t, shares, 4)

		assert.Equal(t, "Germany", shares[0].Country)
		assert.Equal(t, 3, shares[0].TransactionCount)
		assertDecimal(t, "33.3", shares[0].Percentage)
		// Ties stay in first-seen order.
		assert.Equal(t, []string{"France", "Spain", "Italy"}, []string{shares[1].Country, shares[2].Country, shares[3].Country})
		assertDecimal(t, "22.2", shares[1].Percentage)
		for _, s := range shares {
			assert.NotEqual(t, UnitedKingdom, s.Country)
		}
	})

	t.Run("Others takes the residual", func(t *testing.T) {
		ds := countryMix(day(2024, 1, 1, 0), []countryCount{
			{"United Kingdom", 50},
			{"Germany", 7}, {"France", 5}, {"Spain", 3}, {"Italy", 3}, {"Netherlands", 2},
			{"Belgium", 1}, {"Portugal", 1}, {"Norway", 1},
		})

		shares := CountryShares(ds)
		require.Len(t, shares, 6)

		others := shares[5]
		assert.Equal(t, models.OthersCountry, others.Country)
		assert.Equal(t, 3, others.TransactionCount)

		total := 0
		sum := decimal.Zero
		for _, s := range shares {
			total += s.TransactionCount
			sum = sum.Add(s.Percentage)
		}
		assert.Equal(t, 23, total)
		assertDecimal(t, "100", sum)

		// 7/23 = 30.43..., rounded to one place.
		assertDecimal(t, "30.4", shares[0].Percentage)
		// Residual, not 3/23 = 13.0 recomputed.
		assertDecimal(t, "13.2", others.Percentage)
	})

	t.Run("only UK", func(t *testing.T) {
		ds := countryMix(day(2024, 1, 1, 0), []countryCount{{"United Kingdom", 4}})
		assert.Empty(t, CountryShares(ds))
		assert.Empty(t, OtherCountries(ds))
	})
}

func TestOtherCountries(t *testing.T) {
	ds := countryMix(day(2024, 1, 1, 0), []countryCount{
		{"Germany", 7}, {"France", 5}, {"Spain", 3}, {"Italy", 3}, {"Netherlands", 2},
		{"Belgium", 1}, {"Portugal", 4}, {"United Kingdom", 9},
	})
	// Portugal outranks Spain, Italy and Netherlands.
	assert.Equal(t, []string{"Netherlands", "Belgium"}, OtherCountries(ds))

	assert.Empty(t, OtherCountries(sampleDataset()))
}

func TestSummarize(t *testing.T) {
	ds := sampleDataset()

	t.Run("continental filter", func(t *testing.T) {
		filtered, err := Filter(ds, "2024-01-01", "2024-03-31", continental)
		require.NoError(t, err)

		s := Summarize(filtered)
		assertDecimal(t, "161.25", s.NetSales)
		assertDecimal(t, "0", s.TotalReturns)
		assertDecimal(t, "112.20", s.LoyalCustomerSales)
		// 4 distinct customers, 2 anonymous invoices.
		assert.InDelta(t, 4.0/6.0, s.LoyalCustomerRatio, 1e-9)
	})

	t.Run("UK included", func(t *testing.T) {
		filtered, err := Filter(ds, "2024-01-01", "2024-03-31", allSampleCountries)
		require.NoError(t, err)

		s := Summarize(filtered)
		assertDecimal(t, "135.75", s.NetSales)
		assertDecimal(t, "-25.50", s.TotalReturns)
		assertDecimal(t, "86.70", s.LoyalCustomerSales)
		assert.InDelta(t, 5.0/7.0, s.LoyalCustomerRatio, 1e-9)
	})

	t.Run("anonymous invoice counted once", func(t *testing.T) {
		anon := Dataset{
			{InvoiceID: "1", Quantity: 1, Revenue: dec("1")},
			{InvoiceID: "1", Quantity: 1, Revenue: dec("1")},
			{InvoiceID: "1", Quantity: 1, Revenue: dec("1")},
			{InvoiceID: "2", Quantity: 1, CustomerID: "A", Revenue: dec("1")},
		}
		assert.InDelta(t, 0.5, LoyalCustomerRatio(anon), 1e-9)
	})
}

func TestEmptyDataset(t *testing.T) {
	filtered, err := Filter(sampleDataset(), "2030-01-01", "2030-12-31", continental)
	require.NoError(t, err)
	require.Empty(t, filtered)

	s := Summarize(filtered)
	assert.Equal(t, 0.0, s.LoyalCustomerRatio)
	assert.True(t, s.NetSales.IsZero())
	assert.True(t, s.TotalReturns.IsZero())
	assert.True(t, s.LoyalCustomerSales.IsZero())

	top, err := TopProducts(filtered, DefaultTopN)
	require.NoError(t, err)
	assert.NotNil(t, top)
	assert.Empty(t, top)

	assert.NotNil(t, CountryShares(filtered))
	assert.Empty(t, CountryShares(filtered))
	assert.Empty(t, MonthlyRevenue(filtered))
	assert.Empty(t, OtherCountries(filtered))

	segments := Waterfall(filtered)
	require.Len(t, segments, 3)
	for _, seg := range segments {
		assert.True(t, seg.Value.IsZero())
	}
}
