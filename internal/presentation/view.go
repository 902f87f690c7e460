package presentation

import "retailense/internal/analytics"

// View is the complete set of render-ready records for one report.
type View struct {
	MonthlyRevenue     []Point      `json:"monthly_revenue"`
	Waterfall          []Bar        `json:"waterfall"`
	RevenueComposition []Component  `json:"revenue_composition"`
	TopProducts        []ProductBar `json:"top_products"`
	CountryShares      []Slice      `json:"country_shares"`
	OtherCountries     []string     `json:"other_countries"`
	Cards              []Card       `json:"cards"`
	TopN               int          `json:"top_n"`
}

// Render formats a report. selected highlights a country slice.
func Render(r *analytics.Report, selected string) View {
	others := r.OtherCountries
	if others == nil {
		others = []string{}
	}
	return View{
		MonthlyRevenue:     MonthlyTrend(r.MonthlyRevenue),
		Waterfall:          WaterfallBars(r.Waterfall),
		RevenueComposition: Composition(r.Waterfall),
		TopProducts:        ProductBars(r.TopProducts),
		CountryShares:      CountrySlices(r.CountryShares, selected),
		OtherCountries:     others,
		Cards:              Cards(r.Summary),
		TopN:               r.TopN,
	}
}
