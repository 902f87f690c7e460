package analytics

import (
	"github.com/shopspring/decimal"

	"retailense/internal/models"
)

// RevenueBreakdown splits revenue by the sign of quantity. Refund keeps its
// natural negative sign, so Net = Gross + Refund.
func RevenueBreakdown(ds Dataset) (gross, refund, net decimal.Decimal) {
	for _, tx := range ds {
		switch {
		case tx.Quantity > 0:
			gross = gross.Add(tx.Revenue)
		case tx.Quantity < 0:
			refund = refund.Add(tx.Revenue)
		}
	}
	return gross, refund, gross.Add(refund)
}

// Waterfall returns the Gross, Refund and Net segments in that order. Refund
// continues from the end of Gross; Net always spans [0, net].
func Waterfall(ds Dataset) []models.WaterfallSegment {
	gross, refund, net := RevenueBreakdown(ds)

	segments := []models.WaterfallSegment{
		{Category: models.GrossRevenue, Value: gross},
		{Category: models.Refund, Value: refund},
		{Category: models.NetRevenue, Value: net},
	}

	cumulative := decimal.Zero
	for i := range segments {
		seg := &segments[i]
		seg.CumulativeStart = cumulative
		seg.CumulativeEnd = cumulative.Add(seg.Value)
		cumulative = seg.CumulativeEnd

		if seg.Category == models.NetRevenue {
			seg.CumulativeStart = decimal.Zero
			seg.CumulativeEnd = seg.Value
		}

		seg.Direction = models.Decrease
		if seg.Value.IsPositive() {
			seg.Direction = models.Increase
		}
	}
	return segments
}
