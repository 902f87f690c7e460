// Package interaction turns chart selections into country filter updates.
package interaction

import (
	"encoding/json"
	"slices"
	"strings"
	"sync"

	"retailense/internal/models"
)

type State int

const (
	Unselected State = iota
	SingleCountrySelected
	OthersSelected
)

func (s State) String() string {
	switch s {
	case SingleCountrySelected:
		return "single_country"
	case OthersSelected:
		return "others"
	default:
		return "unselected"
	}
}

// Selection is the resolved value of the chart selection signal.
type Selection struct {
	State   State  `json:"state"`
	Country string `json:"country,omitempty"`
}

// Select maps a clicked category to a selection. A blank category clears it.
func Select(category string) Selection {
	category = strings.TrimSpace(category)
	switch category {
	case "":
		return Selection{State: Unselected}
	case models.OthersCountry:
		return Selection{State: OthersSelected, Country: models.OthersCountry}
	default:
		return Selection{State: SingleCountrySelected, Country: category}
	}
}

// ParseSignal reads a chart selection signal of the form
// {"selected_country": {"Country": ["Germany"]}}. Only the first value is
// used. Anything else resolves to no selection.
func ParseSignal(signal any) Selection {
	root, ok := signal.(map[string]any)
	if !ok {
		return Selection{State: Unselected}
	}
	selected, ok := root["selected_country"].(map[string]any)
	if !ok {
		return Selection{State: Unselected}
	}
	values, ok := selected["Country"].([]any)
	if !ok || len(values) == 0 {
		return Selection{State: Unselected}
	}
	country, ok := values[0].(string)
	if !ok {
		return Selection{State: Unselected}
	}
	return Select(country)
}

// DecodeSignal is ParseSignal over raw JSON.
func DecodeSignal(raw []byte) Selection {
	if len(raw) == 0 {
		return Selection{State: Unselected}
	}
	var signal any
	if err := json.Unmarshal(raw, &signal); err != nil {
		return Selection{State: Unselected}
	}
	return ParseSignal(signal)
}

// Resolve returns the country filter implied by sel. A single country
// replaces the filter, Others replaces it with the current Others list, and
// no selection keeps the current filter.
func Resolve(sel Selection, otherCountries, current []string) []string {
	switch sel.State {
	case SingleCountrySelected:
		return []string{sel.Country}
	case OthersSelected:
		return append(make([]string, 0, len(otherCountries)), otherCountries...)
	default:
		return append(make([]string, 0, len(current)), current...)
	}
}

// OthersFunc computes the Others membership for a date range.
type OthersFunc func(startDate, endDate string) ([]string, error)

// Session holds the selection state of one dashboard. The Others list is
// recomputed on every date range change under the same lock that resolves
// clicks, so a click never sees a list from an earlier range.
type Session struct {
	mu        sync.Mutex
	others    OthersFunc
	selection Selection
	otherList []string
	countries []string
}

func NewSession(others OthersFunc, countries []string) *Session {
	return &Session{
		others:    others,
		selection: Selection{State: Unselected},
		otherList: []string{},
		countries: slices.Clone(countries),
	}
}

// SetDateRange recomputes the Others membership. The selection state is left
// as it is.
func (s *Session) SetDateRange(startDate, endDate string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	others, err := s.others(startDate, endDate)
	if err != nil {
		return err
	}
	s.otherList = others
	return nil
}

// Apply resolves a parsed selection against the current state and returns
// the new country filter.
func (s *Session) Apply(sel Selection) []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.selection = sel
	s.countries = Resolve(s.selection, s.otherList, s.countries)
	return slices.Clone(s.countries)
}

func (s *Session) Selection() Selection {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.selection
}

func (s *Session) OtherCountries() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.otherList)
}
