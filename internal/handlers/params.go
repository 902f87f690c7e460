package handlers

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"retailense/internal/errors"
	"retailense/internal/models"
)

// parseFilterQuery reads start, end, countries and top from the query
// string. An absent countries parameter yields nil so defaults apply; a
// present but empty one yields an empty filter.
func parseFilterQuery(r *http.Request) (models.FilterParams, error) {
	q := r.URL.Query()

	params := models.FilterParams{
		StartDate: strings.TrimSpace(q.Get("start")),
		EndDate:   strings.TrimSpace(q.Get("end")),
	}

	if values, ok := q["countries"]; ok {
		params.Countries = splitCountries(values)
	}

	if top := strings.TrimSpace(q.Get("top")); top != "" {
		n, err := strconv.Atoi(top)
		if err != nil || n <= 0 {
			return params, errors.InvalidParameter(fmt.Sprintf("top must be a positive integer, got %q", top))
		}
		params.TopN = n
	}

	return params, nil
}

func splitCountries(values []string) []string {
	countries := make([]string, 0, len(values))
	seen := make(map[string]bool)
	for _, value := range values {
		for _, c := range strings.Split(value, ",") {
			c = strings.TrimSpace(c)
			if c == "" || seen[c] {
				continue
			}
			seen[c] = true
			countries = append(countries, c)
		}
	}
	return countries
}
