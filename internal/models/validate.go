package models

import "strings"

const (
	MinRating = 1
	MaxRating = 5
)

func (g Gear) Validate() error {
	if strings.TrimSpace(g.Name) == "" {
		return NewValidationError("name", "Gear name is required")
	}
	if len(g.Name) > 100 {
		return NewValidationError("name", "Gear name must be 100 characters or less")
	}
	if strings.TrimSpace(g.Category) == "" {
		return NewValidationError("category", "Category is required")
	}
	if len(g.Category) > 50 {
		return NewValidationError("category", "Category must be 50 characters or less")
	}
	if g.WeightGrams != nil && *g.WeightGrams < 0 {
		return NewValidationError("weight_grams", "Weight must be a positive number")
	}
	return nil
}

func (t Trip) Validate() error {
	if strings.TrimSpace(t.Name) == "" {
		return NewValidationError("name", "Trip name is required")
	}
	if len(t.Name) > 150 {
		return NewValidationError("name", "Trip name must be 150 characters or less")
	}
	if t.Date.IsZero() {
		return NewValidationError("date", "Trip date is required")
	}
	if t.DistanceKm != nil && *t.DistanceKm < 0 {
		return NewValidationError("distance_km", "Distance must be a positive number")
	}
	if t.ElevationGainM != nil && *t.ElevationGainM < 0 {
		return NewValidationError("elevation_gain_m", "Elevation gain must be a positive number")
	}
	return nil
}

func (r ReviewInput) Validate() error {
	ratings := []struct {
		field string
		value *int
	}{
		{"overall_rating", r.OverallRating},
		{"comfort_rating", r.ComfortRating},
		{"durability_rating", r.DurabilityRating},
		{"weather_performance", r.WeatherPerformance},
	}
	for _, rating := range ratings {
		if rating.value != nil && (*rating.value < MinRating || *rating.value > MaxRating) {
			return NewValidationError(rating.field, "Ratings must be between 1 and 5")
		}
	}
	return nil
}

// Normalized returns the review with issue_description cleared unless
// had_issues is set.
func (r ReviewInput) Normalized() ReviewInput {
	if !r.HadIssues {
		r.IssueDescription = nil
	}
	return r
}
