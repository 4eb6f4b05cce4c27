package models

import (
	"time"
)

// DateLayout is the calendar date format used in forms and in the trips table.
const DateLayout = "2006-01-02"

type Gear struct {
	ID          int     `json:"id" db:"id"`
	Name        string  `json:"name" db:"name"`
	Category    string  `json:"category" db:"category"`
	WeightGrams *int    `json:"weight_grams,omitempty" db:"weight_grams"`
	Notes       *string `json:"notes,omitempty" db:"notes"`

	// Populated by catalog queries only.
	AverageRating *float64 `json:"average_rating,omitempty"`
	TripCount     int      `json:"trip_count"`
}

type Trip struct {
	ID             int       `json:"id" db:"id"`
	Name           string    `json:"name" db:"name"`
	Date           time.Time `json:"date" db:"date"`
	Location       *string   `json:"location,omitempty" db:"location"`
	DistanceKm     *float64  `json:"distance_km,omitempty" db:"distance_km"`
	ElevationGainM *int      `json:"elevation_gain_m,omitempty" db:"elevation_gain_m"`
	Weather        *string   `json:"weather,omitempty" db:"weather"`
	Notes          *string   `json:"notes,omitempty" db:"notes"`
}

// DateString returns the trip date in DateLayout.
func (t Trip) DateString() string {
	return t.Date.Format(DateLayout)
}

type TripGear struct {
	ID     int `json:"id" db:"id"`
	TripID int `json:"trip_id" db:"trip_id"`
	GearID int `json:"gear_id" db:"gear_id"`

	OverallRating      *int    `json:"overall_rating,omitempty" db:"overall_rating"`
	ComfortRating      *int    `json:"comfort_rating,omitempty" db:"comfort_rating"`
	DurabilityRating   *int    `json:"durability_rating,omitempty" db:"durability_rating"`
	WeatherPerformance *int    `json:"weather_performance,omitempty" db:"weather_performance"`
	PerformanceNotes   *string `json:"performance_notes,omitempty" db:"performance_notes"`
	HadIssues          bool    `json:"had_issues" db:"had_issues"`
	IssueDescription   *string `json:"issue_description,omitempty" db:"issue_description"`
	WouldBringAgain    *bool   `json:"would_bring_again,omitempty" db:"would_bring_again"`

	Gear *Gear `json:"gear,omitempty"`
}

// Reviewed reports whether any review field has been recorded.
func (tg TripGear) Reviewed() bool {
	return tg.OverallRating != nil || tg.ComfortRating != nil || tg.DurabilityRating != nil ||
		tg.WeatherPerformance != nil || tg.PerformanceNotes != nil || tg.HadIssues ||
		tg.WouldBringAgain != nil
}

// ReviewInput is one gear item's decoded review form submission.
type ReviewInput struct {
	OverallRating      *int
	ComfortRating      *int
	DurabilityRating   *int
	WeatherPerformance *int
	PerformanceNotes   *string
	HadIssues          bool
	IssueDescription   *string
	WouldBringAgain    bool
}

// PerformanceEntry is one row of a gear item's performance history.
type PerformanceEntry struct {
	TripGear TripGear `json:"trip_gear"`
	Trip     Trip     `json:"trip"`
}

// GearEditMode selects how a trip edit updates its gear associations.
type GearEditMode string

const (
	// GearEditReplace deletes every association and recreates it, discarding reviews.
	GearEditReplace GearEditMode = "replace"
	// GearEditMerge keeps associations (and their reviews) that remain selected.
	GearEditMerge GearEditMode = "merge"
)

type LogStats struct {
	TotalTrips      int     `json:"total_trips"`
	TotalDistanceKm float64 `json:"total_distance_km"`
	TotalElevationM int     `json:"total_elevation_m"`
	TotalGear       int     `json:"total_gear"`
	ReviewsRecorded int     `json:"reviews_recorded"`
	LatestTripName  string  `json:"latest_trip_name"`
	LatestTripDate  string  `json:"latest_trip_date"`
}
