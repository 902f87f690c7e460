// Package presentation maps aggregate records to the flat, chart-agnostic
// records a renderer consumes: category/value pairs with an explicit order
// and a colour class. It knows nothing about any charting grammar.
package presentation

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"retailense/internal/models"
)

const (
	currencySymbol   = "£"
	descriptionWidth = 30
)

// Colours for ranks 1..10 of the top-product chart.
var productColors = []string{
	"#150e37", "#3b0f70", "#651a80", "#8c2a81", "#b6377a",
	"#de4968", "#f76f5c", "#fe9f6d", "#fece91", "#e8d3bd",
}

var printer = message.NewPrinter(language.BritishEnglish)

type Point struct {
	Category string  `json:"category"`
	Value    float64 `json:"value"`
	Order    int     `json:"order"`
}

type Bar struct {
	Category   string  `json:"category"`
	Value      float64 `json:"value"`
	Start      float64 `json:"start"`
	End        float64 `json:"end"`
	Order      int     `json:"order"`
	ColorClass string  `json:"color_class"`
}

type Component struct {
	Component  string  `json:"component"`
	Value      float64 `json:"value"`
	Total      float64 `json:"total"`
	Order      int     `json:"order"`
	ColorClass string  `json:"color_class"`
}

type ProductBar struct {
	Rank        int      `json:"rank"`
	Description string   `json:"description"`
	Lines       []string `json:"lines"`
	Value       float64  `json:"value"`
	Color       string   `json:"color"`
}

type Slice struct {
	Category   string  `json:"category"`
	Count      int     `json:"count"`
	Percentage float64 `json:"percentage"`
	Order      int     `json:"order"`
	ColorClass string  `json:"color_class"`
	Selected   bool    `json:"selected"`
}

type Card struct {
	ID    string `json:"id"`
	Title string `json:"title"`
	Value string `json:"value"`
	Tone  string `json:"tone"`
}

func toFloat(d decimal.Decimal) float64 {
	return d.Round(2).InexactFloat64()
}

func MonthlyTrend(points []models.MonthlyRevenue) []Point {
	out := make([]Point, 0, len(points))
	for i, p := range points {
		out = append(out, Point{Category: p.Label, Value: toFloat(p.TotalRevenue), Order: i})
	}
	return out
}

func WaterfallBars(segments []models.WaterfallSegment) []Bar {
	out := make([]Bar, 0, len(segments))
	for i, seg := range segments {
		out = append(out, Bar{
			Category:   string(seg.Category),
			Value:      toFloat(seg.Value),
			Start:      toFloat(seg.CumulativeStart),
			End:        toFloat(seg.CumulativeEnd),
			Order:      i,
			ColorClass: strings.ToLower(string(seg.Direction)),
		})
	}
	return out
}

// Composition splits gross revenue into net revenue and the refund magnitude
// for the stacked view. Both components share the gross total.
func Composition(segments []models.WaterfallSegment) []Component {
	var gross, refund, net decimal.Decimal
	for _, seg := range segments {
		switch seg.Category {
		case models.GrossRevenue:
			gross = seg.Value
		case models.Refund:
			refund = seg.Value
		case models.NetRevenue:
			net = seg.Value
		}
	}

	total := toFloat(gross)
	return []Component{
		{Component: "Net Revenue", Value: toFloat(net), Total: total, Order: 0, ColorClass: "net"},
		{Component: "Refunds", Value: toFloat(refund.Abs()), Total: total, Order: 1, ColorClass: "refund"},
	}
}

func ProductBars(products []models.ProductRevenue) []ProductBar {
	out := make([]ProductBar, 0, len(products))
	for _, p := range products {
		out = append(out, ProductBar{
			Rank:        p.Rank,
			Description: p.Description,
			Lines:       Wrap(p.Description, descriptionWidth),
			Value:       toFloat(p.TotalRevenue),
			Color:       productColors[(p.Rank-1)%len(productColors)],
		})
	}
	return out
}

// CountrySlices marks the slice matching selected, if any.
func CountrySlices(shares []models.CountryShare, selected string) []Slice {
	out := make([]Slice, 0, len(shares))
	for i, s := range shares {
		colorClass := fmt.Sprintf("country-%d", i+1)
		if s.Country == models.OthersCountry {
			colorClass = "others"
		}
		out = append(out, Slice{
			Category:   s.Country,
			Count:      s.TransactionCount,
			Percentage: s.Percentage.InexactFloat64(),
			Order:      i,
			ColorClass: colorClass,
			Selected:   selected != "" && s.Country == selected,
		})
	}
	return out
}

func Cards(s models.Summary) []Card {
	return []Card{
		{ID: "card-loyal-customer-ratio", Title: "Loyal Customer Ratio", Value: FormatRatio(s.LoyalCustomerRatio), Tone: "neutral"},
		{ID: "card-loyal-customer-sales", Title: "Loyal Customer Sales", Value: FormatCurrency(s.LoyalCustomerSales), Tone: "neutral"},
		{ID: "card-net-sales", Title: "Net Sales", Value: FormatCurrency(s.NetSales), Tone: "neutral"},
		{ID: "card-total-returns", Title: "Total Returns", Value: FormatReturns(s.TotalReturns), Tone: "negative"},
	}
}

// FormatRatio renders a fraction as a percentage rounded to two places.
func FormatRatio(ratio float64) string {
	pct := math.Round(ratio*10000) / 100
	return strconv.FormatFloat(pct, 'f', -1, 64) + "%"
}

func FormatCurrency(amount decimal.Decimal) string {
	if amount.IsNegative() {
		return "-" + currencySymbol + printer.Sprintf("%.2f", toFloat(amount.Abs()))
	}
	return currencySymbol + printer.Sprintf("%.2f", toFloat(amount))
}

// FormatReturns shows returns as a negative amount whatever the sign stored.
func FormatReturns(amount decimal.Decimal) string {
	if amount.IsZero() {
		return FormatCurrency(amount)
	}
	return "-" + FormatCurrency(amount.Abs())
}

// Wrap breaks text into lines of at most width runes on whitespace. Words
// longer than width are split.
func Wrap(text string, width int) []string {
	lines := make([]string, 0)
	var current []rune

	flush := func() {
		if len(current) > 0 {
			lines = append(lines, string(current))
			current = current[:0]
		}
	}

	for _, word := range strings.Fields(text) {
		runes := []rune(word)
		for len(runes) > width {
			flush()
			lines = append(lines, string(runes[:width]))
			runes = runes[width:]
		}
		switch {
		case len(current) == 0:
			current = append(current, runes...)
		case len(current)+1+len(runes) <= width:
			current = append(current, ' ')
			current = append(current, runes...)
		default:
			flush()
			current = append(current, runes...)
		}
	}
	flush()
	return lines
}
