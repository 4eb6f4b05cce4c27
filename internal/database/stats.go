package database

import (
	"database/sql"
	"errors"
	"fmt"

	"hikelog/internal/models"
)

func GetLogStats(db *sql.DB) (*models.LogStats, error) {
	stats := &models.LogStats{}

	// Trip totals
	err := db.QueryRow(`
		SELECT COUNT(*), COALESCE(SUM(distance_km), 0), COALESCE(SUM(elevation_gain_m), 0)
		FROM trips
	`).Scan(&stats.TotalTrips, &stats.TotalDistanceKm, &stats.TotalElevationM)
	if err != nil {
		return nil, fmt.Errorf("failed to get trip totals: %w", err)
	}

	err = db.QueryRow("SELECT COUNT(*) FROM gear").Scan(&stats.TotalGear)
	if err != nil {
		return nil, fmt.Errorf("failed to get gear count: %w", err)
	}

	err = db.QueryRow(
		"SELECT COUNT(*) FROM trip_gear WHERE overall_rating IS NOT NULL",
	).Scan(&stats.ReviewsRecorded)
	if err != nil {
		return nil, fmt.Errorf("failed to get review count: %w", err)
	}

	err = db.QueryRow(
		"SELECT name, date FROM trips ORDER BY date DESC, id DESC LIMIT 1",
	).Scan(&stats.LatestTripName, &stats.LatestTripDate)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("failed to get latest trip: %w", err)
	}

	return stats, nil
}
