package routes

import (
	"fmt"
	"sort"
	"strings"

	"github.com/agnivade/levenshtein"

	"github.com/ngmaloney/weatherlink/internal/apperr"
	"github.com/ngmaloney/weatherlink/internal/models"
)

// Find returns the route named by query: an exact ID or name match, then a
// unique name prefix or substring, then the closest name by edit distance
// within a length-scaled limit
func Find(routes []models.Route, query string) (models.Route, error) {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return models.Route{}, apperr.New(apperr.CodeValidation, "", "empty route name", nil)
	}

	for _, r := range routes {
		if strings.ToLower(r.ID) == q || strings.ToLower(r.Name) == q {
			return r, nil
		}
	}

	var partial []models.Route
	for _, r := range routes {
		if strings.Contains(strings.ToLower(r.Name), q) {
			partial = append(partial, r)
		}
	}
	if len(partial) == 1 {
		return partial[0], nil
	}
	if len(partial) > 1 {
		names := make([]string, len(partial))
		for i, r := range partial {
			names[i] = r.Name
		}
		sort.Strings(names)
		return models.Route{}, apperr.New(apperr.CodeValidation, "",
			fmt.Sprintf("%q matches several routes: %s", query, strings.Join(names, ", ")), nil)
	}

	best, bestDist := -1, 0
	for i, r := range routes {
		name := strings.ToLower(r.Name)
		dist := levenshtein.ComputeDistance(q, name)
		if dist > editLimit(len(name)) {
			continue
		}
		if best < 0 || dist < bestDist {
			best, bestDist = i, dist
		}
	}
	if best < 0 {
		return models.Route{}, apperr.New(apperr.CodeValidation, "", fmt.Sprintf("no route matches %q", query), nil)
	}
	return routes[best], nil
}

func editLimit(length int) int {
	switch {
	case length <= 4:
		return 1
	case length <= 8:
		return 2
	default:
		return 3
	}
}
