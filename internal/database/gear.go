package database

import (
	"database/sql"
	"errors"
	"fmt"

	"hikelog/internal/models"
)

type rowScanner interface {
	Scan(dest ...any) error
}

func scanGear(row rowScanner, extra ...any) (models.Gear, error) {
	var gear models.Gear
	var weight sql.NullInt64
	var notes sql.NullString

	dest := append([]any{&gear.ID, &gear.Name, &gear.Category, &weight, &notes}, extra...)
	if err := row.Scan(dest...); err != nil {
		return gear, err
	}

	gear.WeightGrams = intPtr(weight)
	gear.Notes = stringPtr(notes)
	return gear, nil
}

func CreateGear(db *sql.DB, gear models.Gear) (*models.Gear, error) {
	if err := gear.Validate(); err != nil {
		return nil, err
	}

	query := `
		INSERT INTO gear (name, category, weight_grams, notes)
		VALUES (?, ?, ?, ?)
	`

	result, err := db.Exec(query, gear.Name, gear.Category, gear.WeightGrams, gear.Notes)
	if err != nil {
		return nil, fmt.Errorf("failed to create gear: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("failed to get gear ID: %w", err)
	}

	gear.ID = int(id)
	return &gear, nil
}

// GetAllGear returns the gear catalog ordered by category then name. Each
// item carries its average overall rating and the number of trips it was on.
func GetAllGear(db *sql.DB) ([]models.Gear, error) {
	query := `
		SELECT g.id, g.name, g.category, g.weight_grams, g.notes,
		       AVG(tg.overall_rating), COUNT(tg.id)
		FROM gear g
		LEFT JOIN trip_gear tg ON tg.gear_id = g.id
		GROUP BY g.id
		ORDER BY g.category, g.name, g.id
	`

	rows, err := db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("failed to query gear: %w", err)
	}
	defer rows.Close()

	var gear []models.Gear
	for rows.Next() {
		var avg sql.NullFloat64
		var tripCount int

		g, err := scanGear(rows, &avg, &tripCount)
		if err != nil {
			return nil, fmt.Errorf("failed to scan gear: %w", err)
		}

		if avg.Valid {
			rounded := models.RoundRating(avg.Float64)
			g.AverageRating = &rounded
		}
		g.TripCount = tripCount

		gear = append(gear, g)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating gear: %w", err)
	}

	return gear, nil
}

func GetGear(db *sql.DB, gearID int) (*models.Gear, error) {
	query := `SELECT id, name, category, weight_grams, notes FROM gear WHERE id = ?`

	gear, err := scanGear(db.QueryRow(query, gearID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("gear %d: %w", gearID, models.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get gear: %w", err)
	}

	return &gear, nil
}

// GetGearAverageRating returns the rounded mean overall rating for a gear
// item, or nil when it has never been rated.
func GetGearAverageRating(db *sql.DB, gearID int) (*float64, error) {
	var avg sql.NullFloat64
	err := db.QueryRow(
		"SELECT AVG(overall_rating) FROM trip_gear WHERE gear_id = ?", gearID,
	).Scan(&avg)
	if err != nil {
		return nil, fmt.Errorf("failed to get average rating: %w", err)
	}

	if !avg.Valid {
		return nil, nil
	}
	rounded := models.RoundRating(avg.Float64)
	return &rounded, nil
}

// GetGearUsedOnTrip returns the gear associated with a trip, ordered by name.
func GetGearUsedOnTrip(db *sql.DB, tripID int) ([]models.Gear, error) {
	query := `
		SELECT g.id, g.name, g.category, g.weight_grams, g.notes
		FROM gear g
		INNER JOIN trip_gear tg ON tg.gear_id = g.id
		WHERE tg.trip_id = ?
		ORDER BY g.name, g.id
	`

	rows, err := db.Query(query, tripID)
	if err != nil {
		return nil, fmt.Errorf("failed to query trip gear: %w", err)
	}
	defer rows.Close()

	var gear []models.Gear
	for rows.Next() {
		g, err := scanGear(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan gear: %w", err)
		}
		gear = append(gear, g)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating trip gear: %w", err)
	}

	return gear, nil
}

// ensureGearExists reports a validation failure for ids that are not in the
// catalog, so a tampered form cannot surface as a constraint error.
func ensureGearExists(q querier, gearID int) error {
	var exists bool
	err := q.QueryRow("SELECT EXISTS(SELECT 1 FROM gear WHERE id = ?)", gearID).Scan(&exists)
	if err != nil {
		return fmt.Errorf("failed to check gear: %w", err)
	}
	if !exists {
		return models.NewValidationError("gear_ids", fmt.Sprintf("Unknown gear selected (id %d)", gearID))
	}
	return nil
}
