package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type Transaction struct {
	InvoiceID   string
	StockCode   string
	Description string
	Quantity    int
	InvoiceDate time.Time
	UnitPrice   decimal.Decimal
	CustomerID  string
	Country     string
	Revenue     decimal.Decimal
}

// Loyal reports whether the row belongs to an identified customer.
func (t Transaction) Loyal() bool {
	return t.CustomerID != ""
}

// FilterParams is the input contract shared by every aggregation.
type FilterParams struct {
	StartDate string   `json:"start_date"`
	EndDate   string   `json:"end_date"`
	Countries []string `json:"countries"`
	TopN      int      `json:"top_n,omitempty"`
}

type MonthlyRevenue struct {
	Month        time.Time       `json:"month"`
	Label        string          `json:"label"`
	TotalRevenue decimal.Decimal `json:"total_revenue"`
}

type WaterfallCategory string

const (
	GrossRevenue WaterfallCategory = "Gross Revenue"
	Refund       WaterfallCategory = "Refund"
	NetRevenue   WaterfallCategory = "Net Revenue"
)

type Direction string

const (
	Increase Direction = "Increase"
	Decrease Direction = "Decrease"
)

type WaterfallSegment struct {
	Category        WaterfallCategory `json:"category"`
	Value           decimal.Decimal   `json:"value"`
	CumulativeStart decimal.Decimal   `json:"cumulative_start"`
	CumulativeEnd   decimal.Decimal   `json:"cumulative_end"`
	Direction       Direction         `json:"direction"`
}

type ProductRevenue struct {
	Rank         int             `json:"rank"`
	Description  string          `json:"description"`
	TotalRevenue decimal.Decimal `json:"total_revenue"`
}

// OthersCountry is the synthetic bucket covering every country outside the top five.
const OthersCountry = "Others"

type CountryShare struct {
	Country          string          `json:"country"`
	TransactionCount int             `json:"transaction_count"`
	Percentage       decimal.Decimal `json:"percentage"`
}

type Summary struct {
	LoyalCustomerRatio float64         `json:"loyal_customer_ratio"`
	LoyalCustomerSales decimal.Decimal `json:"loyal_customer_sales"`
	NetSales           decimal.Decimal `json:"net_sales"`
	TotalReturns       decimal.Decimal `json:"total_returns"`
}
