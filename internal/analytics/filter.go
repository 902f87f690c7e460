package analytics

import (
	"fmt"
	"strings"
	"time"

	"retailense/internal/errors"
)

var dateLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04",
	"2006-01-02",
}

// DateRange is an inclusive time window.
type DateRange struct {
	Start time.Time
	End   time.Time
}

// Contains reports whether t falls inside the inclusive window.
func (r DateRange) Contains(t time.Time) bool {
	return !t.Before(r.Start) && !t.After(r.End)
}

// ParseDateRange parses both bounds. A date-only end bound covers the whole day.
func ParseDateRange(startDate, endDate string) (DateRange, error) {
	start, _, err := parseDate(startDate)
	if err != nil {
		return DateRange{}, errors.InvalidDateRangeWrap(err, fmt.Sprintf("invalid start date %q", startDate))
	}

	end, dateOnly, err := parseDate(endDate)
	if err != nil {
		return DateRange{}, errors.InvalidDateRangeWrap(err, fmt.Sprintf("invalid end date %q", endDate))
	}
	if dateOnly {
		end = end.Add(24*time.Hour - time.Nanosecond)
	}

	if start.After(end) {
		return DateRange{}, errors.InvalidDateRange(fmt.Sprintf("start date %s is after end date %s", startDate, endDate))
	}

	return DateRange{Start: start, End: end}, nil
}

func parseDate(value string) (time.Time, bool, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, false, fmt.Errorf("empty date")
	}

	var lastErr error
	for _, layout := range dateLayouts {
		t, err := time.Parse(layout, value)
		if err == nil {
			return t, layout == "2006-01-02", nil
		}
		lastErr = err
	}
	return time.Time{}, false, lastErr
}

// Filter keeps the rows whose invoice date falls in [startDate, endDate] and
// whose country is one of countries. No countries means no rows.
func Filter(ds Dataset, startDate, endDate string, countries []string) (Dataset, error) {
	r, err := ParseDateRange(startDate, endDate)
	if err != nil {
		return nil, err
	}
	return FilterRange(ds, r, countries), nil
}

// FilterRange applies an already parsed range and a country set.
func FilterRange(ds Dataset, r DateRange, countries []string) Dataset {
	filtered := make(Dataset, 0)
	if len(countries) == 0 {
		return filtered
	}

	allowed := make(map[string]bool, len(countries))
	for _, c := range countries {
		allowed[c] = true
	}

	for _, tx := range ds {
		if allowed[tx.Country] && r.Contains(tx.InvoiceDate) {
			filtered = append(filtered, tx)
		}
	}
	return filtered
}

// FilterDates applies only the date predicate. The country share view and the
// Others membership are computed over every country in the window.
func FilterDates(ds Dataset, r DateRange) Dataset {
	filtered := make(Dataset, 0)
	for _, tx := range ds {
		if r.Contains(tx.InvoiceDate) {
			filtered = append(filtered, tx)
		}
	}
	return filtered
}
