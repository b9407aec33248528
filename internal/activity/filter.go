package activity

import "strings"

// Criteria is the set of user-chosen filter settings. Distances are in
// kilometres; activity distances are stored in metres.
type Criteria struct {
	// CategoryVisibility maps each category label to shown (true), hidden
	// (false) or not applicable (nil, no activities of that category exist).
	// Both false and nil exclude the category.
	CategoryVisibility map[Label]*bool
	MinimumDistance    float64
	MaximumDistance    float64
	Keyword            string
	Year               *int
	Country            *string
}

// Filter returns the subsequence of activities visible under the given
// criteria, preserving input order, along with the surviving selection.
// If selectedID does not appear in the visible subset it is cleared to nil.
// Filter is pure: it never errors and mutates nothing.
func Filter(activities []Activity, criteria Criteria, selectedID *int64) ([]Activity, *int64) {
	minDistanceMetres := criteria.MinimumDistance * 1000
	maxDistanceMetres := criteria.MaximumDistance * 1000
	keyword := strings.ToLower(criteria.Keyword)

	visible := make([]Activity, 0, len(activities))
	selectionSurvives := selectedID == nil

	for _, a := range activities {
		label, ok := CategoryOf(a.Type)
		if !ok {
			// A type outside the category table is never shown.
			continue
		}

		shown := criteria.CategoryVisibility[label]
		if shown == nil || !*shown {
			continue
		}

		if a.Distance < minDistanceMetres || a.Distance > maxDistanceMetres {
			continue
		}

		if keyword != "" && !strings.Contains(strings.ToLower(a.Name), keyword) {
			continue
		}

		if criteria.Year != nil && a.StartDate.Year() != *criteria.Year {
			continue
		}

		if criteria.Country != nil {
			if a.Location == nil || a.Location.Country != *criteria.Country {
				continue
			}
		}

		if selectedID != nil && a.ID == *selectedID {
			selectionSurvives = true
		}
		visible = append(visible, a)
	}

	if !selectionSurvives {
		return visible, nil
	}
	return visible, selectedID
}
