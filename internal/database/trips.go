package database

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"hikelog/internal/logger"
	"hikelog/internal/models"
)

const tripColumns = `t.id, t.name, t.date, t.location, t.distance_km, t.elevation_gain_m, t.weather, t.notes`

func scanTrip(row rowScanner, extra ...any) (models.Trip, error) {
	var trip models.Trip
	var date string
	var location, weather, notes sql.NullString
	var distance sql.NullFloat64
	var elevation sql.NullInt64

	dest := append([]any{
		&trip.ID, &trip.Name, &date,
		&location, &distance, &elevation,
		&weather, &notes,
	}, extra...)
	if err := row.Scan(dest...); err != nil {
		return trip, err
	}

	parsed, err := time.Parse(models.DateLayout, date)
	if err != nil {
		return trip, fmt.Errorf("invalid stored date %q for trip %d: %w", date, trip.ID, err)
	}
	trip.Date = parsed

	// Handle nullable fields
	trip.Location = stringPtr(location)
	trip.DistanceKm = floatPtr(distance)
	trip.ElevationGainM = intPtr(elevation)
	trip.Weather = stringPtr(weather)
	trip.Notes = stringPtr(notes)

	return trip, nil
}

// CreateTrip inserts a trip and one trip_gear row per selected gear id in a
// single transaction. Nothing is written when validation fails.
func CreateTrip(db *sql.DB, trip models.Trip, gearIDs []int) (*models.Trip, error) {
	if err := trip.Validate(); err != nil {
		return nil, err
	}

	err := withTx(db, func(tx *sql.Tx) error {
		query := `
			INSERT INTO trips (name, date, location, distance_km, elevation_gain_m, weather, notes)
			VALUES (?, ?, ?, ?, ?, ?, ?)
		`

		result, err := tx.Exec(query, trip.Name, trip.DateString(), trip.Location,
			trip.DistanceKm, trip.ElevationGainM, trip.Weather, trip.Notes)
		if err != nil {
			return fmt.Errorf("failed to create trip: %w", err)
		}

		id, err := result.LastInsertId()
		if err != nil {
			return fmt.Errorf("failed to get trip ID: %w", err)
		}
		trip.ID = int(id)

		return insertTripGear(tx, trip.ID, gearIDs)
	})
	if err != nil {
		return nil, err
	}

	logger.Debug("Trip created", "trip_id", trip.ID, "gear_count", len(uniqueIDs(gearIDs)))
	return &trip, nil
}

// GetTrips returns every trip, newest first. Trips on the same date keep
// insertion order.
func GetTrips(db *sql.DB) ([]models.Trip, error) {
	query := `
		SELECT ` + tripColumns + `
		FROM trips t
		ORDER BY t.date DESC, t.id ASC
	`

	rows, err := db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("failed to query trips: %w", err)
	}
	defer rows.Close()

	var trips []models.Trip
	for rows.Next() {
		trip, err := scanTrip(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan trip: %w", err)
		}
		trips = append(trips, trip)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating trips: %w", err)
	}

	return trips, nil
}

func GetTrip(db *sql.DB, tripID int) (*models.Trip, error) {
	query := `SELECT ` + tripColumns + ` FROM trips t WHERE t.id = ?`

	trip, err := scanTrip(db.QueryRow(query, tripID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("trip %d: %w", tripID, models.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get trip: %w", err)
	}

	return &trip, nil
}

func HasTrips(db *sql.DB) (bool, error) {
	var exists bool
	if err := db.QueryRow("SELECT EXISTS(SELECT 1 FROM trips)").Scan(&exists); err != nil {
		return false, fmt.Errorf("failed to check trips: %w", err)
	}
	return exists, nil
}

// UpdateTrip overwrites a trip's fields and its gear associations in one
// transaction. GearEditReplace discards every existing review for the trip;
// GearEditMerge keeps the rows of gear that stay selected.
func UpdateTrip(db *sql.DB, trip models.Trip, gearIDs []int, mode models.GearEditMode) error {
	if err := trip.Validate(); err != nil {
		return err
	}

	return withTx(db, func(tx *sql.Tx) error {
		query := `
			UPDATE trips
			SET name = ?, date = ?, location = ?, distance_km = ?, elevation_gain_m = ?,
			    weather = ?, notes = ?
			WHERE id = ?
		`

		result, err := tx.Exec(query, trip.Name, trip.DateString(), trip.Location,
			trip.DistanceKm, trip.ElevationGainM, trip.Weather, trip.Notes, trip.ID)
		if err != nil {
			return fmt.Errorf("failed to update trip: %w", err)
		}

		rowsAffected, err := result.RowsAffected()
		if err != nil {
			return fmt.Errorf("failed to get rows affected: %w", err)
		}
		if rowsAffected == 0 {
			return fmt.Errorf("trip %d: %w", trip.ID, models.ErrNotFound)
		}

		if mode == models.GearEditMerge {
			return syncTripGear(tx, trip.ID, gearIDs)
		}
		return replaceTripGear(tx, trip.ID, gearIDs)
	})
}

// GetTripTotalWeight sums the weight of the gear used on a trip. Gear
// without a recorded weight counts as zero.
func GetTripTotalWeight(db *sql.DB, tripID int) (int, error) {
	query := `
		SELECT COALESCE(SUM(g.weight_grams), 0)
		FROM trip_gear tg
		INNER JOIN gear g ON g.id = tg.gear_id
		WHERE tg.trip_id = ?
	`

	var total int
	if err := db.QueryRow(query, tripID).Scan(&total); err != nil {
		return 0, fmt.Errorf("failed to get trip weight: %w", err)
	}
	return total, nil
}

func ensureTripExists(q querier, tripID int) error {
	var exists bool
	err := q.QueryRow("SELECT EXISTS(SELECT 1 FROM trips WHERE id = ?)", tripID).Scan(&exists)
	if err != nil {
		return fmt.Errorf("failed to check trip: %w", err)
	}
	if !exists {
		return fmt.Errorf("trip %d: %w", tripID, models.ErrNotFound)
	}
	return nil
}
