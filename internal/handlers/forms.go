package handlers

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"hikelog/internal/models"
)

// reviewFields are the per-gear review inputs, submitted as <field>_<gearID>.
var reviewFields = []string{
	"overall_rating",
	"comfort_rating",
	"durability_rating",
	"weather_performance",
	"performance_notes",
	"had_issues",
	"issue_description",
	"would_bring_again",
}

type tripForm struct {
	Trip        models.Trip
	GearIDs     []int
	ReviewAfter bool
}

func optionalString(form url.Values, field string) *string {
	value := strings.TrimSpace(form.Get(field))
	if value == "" {
		return nil
	}
	return &value
}

func parseOptionalInt(form url.Values, field, label string) (*int, error) {
	value := strings.TrimSpace(form.Get(field))
	if value == "" {
		return nil, nil
	}

	n, err := strconv.Atoi(value)
	if err != nil {
		return nil, models.NewValidationError(field, label+" must be a whole number")
	}
	return &n, nil
}

func parseOptionalFloat(form url.Values, field, label string) (*float64, error) {
	value := strings.TrimSpace(form.Get(field))
	if value == "" {
		return nil, nil
	}

	f, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return nil, models.NewValidationError(field, label+" must be a number")
	}
	return &f, nil
}

// parseCheckbox reports whether a checkbox value means "checked". Only on,
// true, 1 and yes count; anything else, "off" included, is false.
func parseCheckbox(value string) bool {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "on", "true", "1", "yes":
		return true
	default:
		return false
	}
}

// parseDate returns the zero time for an empty value so that Trip.Validate
// reports the missing date.
func parseDate(value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, nil
	}

	date, err := time.Parse(models.DateLayout, value)
	if err != nil {
		return time.Time{}, models.NewValidationError("date", "Trip date must be in YYYY-MM-DD format")
	}
	return date, nil
}

// parseGearIDs returns the selected gear ids in submission order, without
// duplicates.
func parseGearIDs(values []string) ([]int, error) {
	ids := make([]int, 0, len(values))
	seen := make(map[int]bool, len(values))
	for _, value := range values {
		id, err := strconv.Atoi(strings.TrimSpace(value))
		if err != nil {
			return nil, models.NewValidationError("gear_ids", fmt.Sprintf("Invalid gear selection %q", value))
		}
		if seen[id] {
			continue
		}
		seen[id] = true
		ids = append(ids, id)
	}
	return ids, nil
}

func decodeTripForm(form url.Values) (tripForm, error) {
	var tf tripForm
	var err error

	tf.Trip.Name = strings.TrimSpace(form.Get("name"))
	tf.Trip.Location = optionalString(form, "location")
	tf.Trip.Weather = optionalString(form, "weather")
	tf.Trip.Notes = optionalString(form, "notes")

	if tf.Trip.Date, err = parseDate(form.Get("date")); err != nil {
		return tf, err
	}
	if tf.Trip.DistanceKm, err = parseOptionalFloat(form, "distance_km", "Distance"); err != nil {
		return tf, err
	}
	if tf.Trip.ElevationGainM, err = parseOptionalInt(form, "elevation_gain_m", "Elevation gain"); err != nil {
		return tf, err
	}
	if tf.GearIDs, err = parseGearIDs(form["gear_ids"]); err != nil {
		return tf, err
	}
	tf.ReviewAfter = parseCheckbox(form.Get("review_after"))

	return tf, tf.Trip.Validate()
}

func decodeGearForm(form url.Values) (models.Gear, error) {
	gear := models.Gear{
		Name:     strings.TrimSpace(form.Get("name")),
		Category: strings.TrimSpace(form.Get("category")),
		Notes:    optionalString(form, "notes"),
	}

	weight, err := parseOptionalInt(form, "weight_grams", "Weight")
	if err != nil {
		return gear, err
	}
	gear.WeightGrams = weight

	return gear, gear.Validate()
}

// decodeReviewForm collects the review inputs of each gear id. A gear id gets
// an entry only when at least one of its fields was submitted, so rows the
// form did not include are left alone.
func decodeReviewForm(form url.Values, gearIDs []int) (map[int]models.ReviewInput, error) {
	inputs := make(map[int]models.ReviewInput, len(gearIDs))

	for _, gearID := range gearIDs {
		key := func(field string) string {
			return fmt.Sprintf("%s_%d", field, gearID)
		}

		present := false
		for _, field := range reviewFields {
			if _, ok := form[key(field)]; ok {
				present = true
				break
			}
		}
		if !present {
			continue
		}

		var input models.ReviewInput
		var err error
		if input.OverallRating, err = parseOptionalInt(form, key("overall_rating"), "Overall rating"); err != nil {
			return nil, err
		}
		if input.ComfortRating, err = parseOptionalInt(form, key("comfort_rating"), "Comfort rating"); err != nil {
			return nil, err
		}
		if input.DurabilityRating, err = parseOptionalInt(form, key("durability_rating"), "Durability rating"); err != nil {
			return nil, err
		}
		if input.WeatherPerformance, err = parseOptionalInt(form, key("weather_performance"), "Weather performance"); err != nil {
			return nil, err
		}
		input.PerformanceNotes = optionalString(form, key("performance_notes"))
		input.HadIssues = parseCheckbox(form.Get(key("had_issues")))
		input.IssueDescription = optionalString(form, key("issue_description"))
		input.WouldBringAgain = parseCheckbox(form.Get(key("would_bring_again")))

		if err := input.Validate(); err != nil {
			return nil, err
		}
		inputs[gearID] = input
	}

	return inputs, nil
}

// applyReviewForm overlays a rejected submission onto the stored rows so the
// review form can be shown again with what was typed. Unparsable ratings are
// shown as unset.
func applyReviewForm(items []models.TripGear, form url.Values) []models.TripGear {
	shown := make([]models.TripGear, len(items))
	for i, item := range items {
		key := func(field string) string {
			return fmt.Sprintf("%s_%d", field, item.GearID)
		}

		present := false
		for _, field := range reviewFields {
			if _, ok := form[key(field)]; ok {
				present = true
				break
			}
		}
		if !present {
			shown[i] = item
			continue
		}

		rating := func(field string) *int {
			n, err := strconv.Atoi(strings.TrimSpace(form.Get(key(field))))
			if err != nil {
				return nil
			}
			return &n
		}
		bringAgain := parseCheckbox(form.Get(key("would_bring_again")))

		item.OverallRating = rating("overall_rating")
		item.ComfortRating = rating("comfort_rating")
		item.DurabilityRating = rating("durability_rating")
		item.WeatherPerformance = rating("weather_performance")
		item.PerformanceNotes = optionalString(form, key("performance_notes"))
		item.HadIssues = parseCheckbox(form.Get(key("had_issues")))
		item.IssueDescription = optionalString(form, key("issue_description"))
		item.WouldBringAgain = &bringAgain
		shown[i] = item
	}
	return shown
}
