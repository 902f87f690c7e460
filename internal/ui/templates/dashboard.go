// Package templates renders the dashboard page. Chart data and cards are
// streamed in afterwards over Datastar SSE.
package templates

import (
	"encoding/json"
	"slices"
)

//go:generate templ generate

const defaultTitle = "RetaiLense"

type Props struct {
	Title     string
	Countries []string
	MinDate   string
	MaxDate   string
	StartDate string
	EndDate   string
	Selected  []string
	TopN      int
}

func pageTitle(props Props) string {
	if props.Title == "" {
		return defaultTitle
	}
	return props.Title
}

// initialSignals seeds the client signal store with the filter defaults.
func initialSignals(props Props) (string, error) {
	selected := props.Selected
	if selected == nil {
		selected = []string{}
	}
	signals, err := json.Marshal(map[string]any{
		"startDate":       props.StartDate,
		"endDate":         props.EndDate,
		"countries":       selected,
		"topN":            props.TopN,
		"clickedCountry":  "",
		"selection":       map[string]any{},
		"selectedCountry": "",
		"otherCountries":  []string{},
	})
	return string(signals), err
}

func isSelected(selected []string, country string) bool {
	return slices.Contains(selected, country)
}
