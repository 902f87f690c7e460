package interaction

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseSignal(t *testing.T) {
	tests := []struct {
		name   string
		signal any
		want   Selection
	}{
		{
			name:   "country click",
			signal: map[string]any{"selected_country": map[string]any{"Country": []any{"Germany"}}},
			want:   Selection{State: SingleCountrySelected, Country: "Germany"},
		},
		{
			name:   "others click",
			signal: map[string]any{"selected_country": map[string]any{"Country": []any{"Others"}}},
			want:   Selection{State: OthersSelected, Country: "Others"},
		},
		{
			name:   "first value wins",
			signal: map[string]any{"selected_country": map[string]any{"Country": []any{"France", "Spain"}}},
			want:   Selection{State: SingleCountrySelected, Country: "France"},
		},
		{name: "nil", signal: nil, want: Selection{State: Unselected}},
		{name: "empty map", signal: map[string]any{}, want: Selection{State: Unselected}},
		{name: "wrong root type", signal: []any{"Germany"}, want: Selection{State: Unselected}},
		{name: "selected_country not an object", signal: map[string]any{"selected_country": "Germany"}, want: Selection{State: Unselected}},
		{name: "missing Country", signal: map[string]any{"selected_country": map[string]any{"country": []any{"Germany"}}}, want: Selection{State: Unselected}},
		{name: "Country not a list", signal: map[string]any{"selected_country": map[string]any{"Country": "Germany"}}, want: Selection{State: Unselected}},
		{name: "empty list", signal: map[string]any{"selected_country": map[string]any{"Country": []any{}}}, want: Selection{State: Unselected}},
		{name: "non string value", signal: map[string]any{"selected_country": map[string]any{"Country": []any{42.0}}}, want: Selection{State: Unselected}},
		{name: "blank value", signal: map[string]any{"selected_country": map[string]any{"Country": []any{"  "}}}, want: Selection{State: Unselected}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseSignal(tt.signal))
		})
	}
}

func TestDecodeSignal(t *testing.T) {
	assert.Equal(t, Selection{State: SingleCountrySelected, Country: "Italy"},
		DecodeSignal([]byte(`{"selected_country":{"Country":["Italy"]}}`)))
	assert.Equal(t, Selection{State: Unselected}, DecodeSignal([]byte(`{not json`)))
	assert.Equal(t, Selection{State: Unselected}, DecodeSignal(nil))
	assert.Equal(t, Selection{State: Unselected}, DecodeSignal([]byte(`null`)))
}

func TestResolve(t *testing.T) {
	tests := []struct {
		name     string
		sel      Selection
		others   []string
		current  []string
		expected []string
	}{
		{"single country", Select("Germany"), []string{}, []string{}, []string{"Germany"}},
		{"others", Select("Others"), []string{"Italy", "Spain"}, []string{}, []string{"Italy", "Spain"}},
		{"no selection keeps filter", Select(""), []string{}, []string{"United Kingdom"}, []string{"United Kingdom"}},
		{"others with empty list", Select("Others"), nil, []string{"France"}, []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Resolve(tt.sel, tt.others, tt.current))
		})
	}
}

func TestResolve_DoesNotAliasInputs(t *testing.T) {
	others := []string{"Italy", "Spain"}
	got := Resolve(Select("Others"), others, nil)
	got[0] = "Changed"
	assert.Equal(t, "Italy", others[0])
}

func TestStateString(t *testing.T) {
	assert.Equal(t, "unselected", Unselected.String())
	assert.Equal(t, "single_country", SingleCountrySelected.String())
	assert.Equal(t, "others", OthersSelected.String())
}

func othersClick() Selection {
	return ParseSignal(map[string]any{"selected_country": map[string]any{"Country": []any{"Others"}}})
}

func TestSession_OthersFollowsDateRange(t *testing.T) {
	membership := map[string][]string{
		"2024-01-01": {"Belgium", "Norway"},
		"2024-06-01": {"Portugal", "Spain", "Austria"},
	}
	session := NewSession(func(start, end string) ([]string, error) {
		return membership[start], nil
	}, []string{"United Kingdom"})

	require.NoError(t, session.SetDateRange("2024-01-01", "2024-01-31"))
	assert.Equal(t, []string{"Belgium", "Norway"}, session.Apply(othersClick()))

	require.NoError(t, session.SetDateRange("2024-06-01", "2024-06-30"))
	assert.Equal(t, []string{"Portugal", "Spain", "Austria"}, session.OtherCountries())
	assert.Equal(t, OthersSelected, session.Selection().State, "date change keeps selection")

	assert.Equal(t, []string{"Portugal", "Spain", "Austria"}, session.Apply(othersClick()))
}

func TestSession_Transitions(t *testing.T) {
	session := NewSession(func(string, string) ([]string, error) { return []string{"Norway"}, nil }, []string{"United Kingdom"})
	require.NoError(t, session.SetDateRange("2024-01-01", "2024-12-31"))

	assert.Equal(t, []string{"United Kingdom"}, session.Apply(Selection{}))
	assert.Equal(t, Unselected, session.Selection().State)

	assert.Equal(t, []string{"Germany"}, session.Apply(ParseSignal(map[string]any{"selected_country": map[string]any{"Country": []any{"Germany"}}})))
	assert.Equal(t, SingleCountrySelected, session.Selection().State)

	// Clearing keeps the last filter rather than resetting it.
	assert.Equal(t, []string{"Germany"}, session.Apply(ParseSignal(map[string]any{})))

	assert.Equal(t, []string{"Germany"}, session.Apply(DecodeSignal([]byte(`"garbage"`))))
	assert.Equal(t, Unselected, session.Selection().State)
}

func TestSession_SetDateRangeError(t *testing.T) {
	session := NewSession(func(start, end string) ([]string, error) {
		if start == "bad" {
			return nil, fmt.Errorf("invalid start")
		}
		return []string{"Norway"}, nil
	}, nil)

	require.NoError(t, session.SetDateRange("2024-01-01", "2024-12-31"))
	require.Error(t, session.SetDateRange("bad", "2024-12-31"))
	assert.Equal(t, []string{"Norway"}, session.OtherCountries(), "failed change keeps previous membership")
}
