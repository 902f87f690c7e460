package analytics

import (
	"github.com/shopspring/decimal"

	"retailense/internal/models"
)

// LoyalCustomerRatio is distinct identified customers over identified
// customers plus distinct anonymous invoices. An empty set yields 0.
func LoyalCustomerRatio(ds Dataset) float64 {
	customers := make(map[string]struct{})
	anonymousInvoices := make(map[string]struct{})

	for _, tx := range ds {
		if tx.Loyal() {
			customers[tx.CustomerID] = struct{}{}
		} else {
			anonymousInvoices[tx.InvoiceID] = struct{}{}
		}
	}

	denominator := len(customers) + len(anonymousInvoices)
	if denominator == 0 {
		return 0
	}
	return float64(len(customers)) / float64(denominator)
}

func LoyalCustomerSales(ds Dataset) decimal.Decimal {
	total := decimal.Zero
	for _, tx := range ds {
		if tx.Loyal() {
			total = total.Add(tx.Revenue)
		}
	}
	return total
}

func NetSales(ds Dataset) decimal.Decimal {
	total := decimal.Zero
	for _, tx := range ds {
		total = total.Add(tx.Revenue)
	}
	return total
}

// TotalReturns sums negative revenue; the result is zero or negative.
func TotalReturns(ds Dataset) decimal.Decimal {
	total := decimal.Zero
	for _, tx := range ds {
		if tx.Revenue.IsNegative() {
			total = total.Add(tx.Revenue)
		}
	}
	return total
}

// Summarize computes the four card metrics.
func Summarize(ds Dataset) models.Summary {
	return models.Summary{
		LoyalCustomerRatio: LoyalCustomerRatio(ds),
		LoyalCustomerSales: LoyalCustomerSales(ds),
		NetSales:           NetSales(ds),
		TotalReturns:       TotalReturns(ds),
	}
}
