package analytics

import (
	"context"
	"fmt"
	"slices"
	"time"

	"golang.org/x/sync/errgroup"

	"retailense/internal/errors"
	"retailense/internal/models"
)

// Report is every derived view for one set of filter parameters.
type Report struct {
	StartDate      string                    `json:"start_date"`
	EndDate        string                    `json:"end_date"`
	Countries      []string                  `json:"countries"`
	TopN           int                       `json:"top_n"`
	MonthlyRevenue []models.MonthlyRevenue   `json:"monthly_revenue"`
	Waterfall      []models.WaterfallSegment `json:"waterfall"`
	TopProducts    []models.ProductRevenue   `json:"top_products"`
	CountryShares  []models.CountryShare     `json:"country_shares"`
	OtherCountries []string                  `json:"other_countries"`
	Summary        models.Summary            `json:"summary"`
	ComputedAt     time.Time                 `json:"computed_at"`
}

// Build runs the filter once and evaluates the independent aggregations
// concurrently. The country views use the date window only.
func Build(ctx context.Context, ds Dataset, params models.FilterParams) (*Report, error) {
	if params.TopN <= 0 {
		return nil, errors.InvalidParameter(fmt.Sprintf("top-N must be a positive integer, got %d", params.TopN))
	}

	r, err := ParseDateRange(params.StartDate, params.EndDate)
	if err != nil {
		return nil, err
	}

	filtered := FilterRange(ds, r, params.Countries)
	window := FilterDates(ds, r)

	report := &Report{
		StartDate: params.StartDate,
		EndDate:   params.EndDate,
		Countries: slices.Clone(params.Countries),
		TopN:      params.TopN,
	}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		report.MonthlyRevenue = MonthlyRevenue(filtered)
		return ctx.Err()
	})
	g.Go(func() error {
		report.Waterfall = Waterfall(filtered)
		return ctx.Err()
	})
	g.Go(func() error {
		products, err := TopProducts(filtered, params.TopN)
		report.TopProducts = products
		return err
	})
	g.Go(func() error {
		report.CountryShares = CountryShares(window)
		report.OtherCountries = OtherCountries(window)
		return ctx.Err()
	})
	g.Go(func() error {
		report.Summary = Summarize(filtered)
		return ctx.Err()
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}

	if report.Countries == nil {
		report.Countries = []string{}
	}
	report.ComputedAt = time.Now().UTC()
	return report, nil
}
