package database

import (
	"database/sql"
	"fmt"

	"hikelog/internal/logger"
	"hikelog/internal/models"
)

const tripGearColumns = `tg.id, tg.trip_id, tg.gear_id,
	tg.overall_rating, tg.comfort_rating, tg.durability_rating, tg.weather_performance,
	tg.performance_notes, tg.had_issues, tg.issue_description, tg.would_bring_again`

func tripGearDest(tg *models.TripGear, n *tripGearNulls) []any {
	return []any{
		&tg.ID, &tg.TripID, &tg.GearID,
		&n.overall, &n.comfort, &n.durability, &n.weather,
		&n.notes, &tg.HadIssues, &n.issue, &n.bringAgain,
	}
}

type tripGearNulls struct {
	overall, comfort, durability, weather sql.NullInt64
	notes, issue                          sql.NullString
	bringAgain                            sql.NullBool
}

func (n tripGearNulls) apply(tg *models.TripGear) {
	tg.OverallRating = intPtr(n.overall)
	tg.ComfortRating = intPtr(n.comfort)
	tg.DurabilityRating = intPtr(n.durability)
	tg.WeatherPerformance = intPtr(n.weather)
	tg.PerformanceNotes = stringPtr(n.notes)
	tg.IssueDescription = stringPtr(n.issue)
	tg.WouldBringAgain = boolPtr(n.bringAgain)
}

func insertTripGear(q querier, tripID int, gearIDs []int) error {
	for _, gearID := range uniqueIDs(gearIDs) {
		if err := ensureGearExists(q, gearID); err != nil {
			return err
		}

		_, err := q.Exec("INSERT INTO trip_gear (trip_id, gear_id) VALUES (?, ?)", tripID, gearID)
		if err != nil {
			return fmt.Errorf("failed to add gear %d to trip: %w", gearID, err)
		}
	}
	return nil
}

func replaceTripGear(q querier, tripID int, gearIDs []int) error {
	result, err := q.Exec("DELETE FROM trip_gear WHERE trip_id = ?", tripID)
	if err != nil {
		return fmt.Errorf("failed to clear trip gear: %w", err)
	}

	if removed, err := result.RowsAffected(); err == nil && removed > 0 {
		logger.Debug("Cleared trip gear", "trip_id", tripID, "rows", removed)
	}

	return insertTripGear(q, tripID, gearIDs)
}

func syncTripGear(q querier, tripID int, gearIDs []int) error {
	current, err := tripGearIDs(q, tripID)
	if err != nil {
		return err
	}

	wanted := make(map[int]bool, len(gearIDs))
	for _, id := range gearIDs {
		wanted[id] = true
	}

	existing := make(map[int]bool, len(current))
	for _, id := range current {
		existing[id] = true
		if wanted[id] {
			continue
		}
		if _, err := q.Exec("DELETE FROM trip_gear WHERE trip_id = ? AND gear_id = ?", tripID, id); err != nil {
			return fmt.Errorf("failed to remove gear %d from trip: %w", id, err)
		}
	}

	var added []int
	for _, id := range uniqueIDs(gearIDs) {
		if !existing[id] {
			added = append(added, id)
		}
	}
	return insertTripGear(q, tripID, added)
}

// ReplaceTripGear deletes every trip_gear row of the trip and inserts a fresh
// row per gear id. Reviews recorded on the old rows are lost.
func ReplaceTripGear(db *sql.DB, tripID int, gearIDs []int) error {
	return withTx(db, func(tx *sql.Tx) error {
		if err := ensureTripExists(tx, tripID); err != nil {
			return err
		}
		return replaceTripGear(tx, tripID, gearIDs)
	})
}

// SyncTripGear makes the trip's gear match gearIDs, deleting only deselected
// rows and inserting only new ones, so surviving rows keep their reviews.
func SyncTripGear(db *sql.DB, tripID int, gearIDs []int) error {
	return withTx(db, func(tx *sql.Tx) error {
		if err := ensureTripExists(tx, tripID); err != nil {
			return err
		}
		return syncTripGear(tx, tripID, gearIDs)
	})
}

func tripGearIDs(q querier, tripID int) ([]int, error) {
	rows, err := q.Query("SELECT gear_id FROM trip_gear WHERE trip_id = ? ORDER BY id", tripID)
	if err != nil {
		return nil, fmt.Errorf("failed to query trip gear ids: %w", err)
	}
	defer rows.Close()

	var ids []int
	for rows.Next() {
		var id int
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan gear id: %w", err)
		}
		ids = append(ids, id)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating trip gear ids: %w", err)
	}
	return ids, nil
}

// GetTripGearIDs returns the ids of the gear currently associated with a trip.
func GetTripGearIDs(db *sql.DB, tripID int) ([]int, error) {
	return tripGearIDs(db, tripID)
}

// GetTripGear returns the trip's association rows with their gear attached,
// ordered by gear name.
func GetTripGear(db *sql.DB, tripID int) ([]models.TripGear, error) {
	query := `
		SELECT ` + tripGearColumns + `,
		       g.id, g.name, g.category, g.weight_grams, g.notes
		FROM trip_gear tg
		INNER JOIN gear g ON g.id = tg.gear_id
		WHERE tg.trip_id = ?
		ORDER BY g.name, g.id
	`

	rows, err := db.Query(query, tripID)
	if err != nil {
		return nil, fmt.Errorf("failed to query trip gear: %w", err)
	}
	defer rows.Close()

	var items []models.TripGear
	for rows.Next() {
		var tg models.TripGear
		var nulls tripGearNulls
		var gear models.Gear
		var weight sql.NullInt64
		var notes sql.NullString

		dest := append(tripGearDest(&tg, &nulls),
			&gear.ID, &gear.Name, &gear.Category, &weight, &notes)
		if err := rows.Scan(dest...); err != nil {
			return nil, fmt.Errorf("failed to scan trip gear: %w", err)
		}

		nulls.apply(&tg)
		gear.WeightGrams = intPtr(weight)
		gear.Notes = stringPtr(notes)
		tg.Gear = &gear

		items = append(items, tg)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating trip gear: %w", err)
	}

	return items, nil
}

// RecordReviews overwrites the review fields of the trip's gear rows from
// inputs keyed by gear id. Rows whose gear has no input are left unchanged,
// and inputs for gear not on the trip are ignored.
func RecordReviews(db *sql.DB, tripID int, inputs map[int]models.ReviewInput) error {
	for _, input := range inputs {
		if err := input.Validate(); err != nil {
			return err
		}
	}

	return withTx(db, func(tx *sql.Tx) error {
		if err := ensureTripExists(tx, tripID); err != nil {
			return err
		}

		gearIDs, err := tripGearIDs(tx, tripID)
		if err != nil {
			return err
		}

		query := `
			UPDATE trip_gear
			SET overall_rating = ?, comfort_rating = ?, durability_rating = ?,
			    weather_performance = ?, performance_notes = ?, had_issues = ?,
			    issue_description = ?, would_bring_again = ?
			WHERE trip_id = ? AND gear_id = ?
		`

		updated := 0
		for _, gearID := range gearIDs {
			input, ok := inputs[gearID]
			if !ok {
				continue
			}
			input = input.Normalized()

			_, err := tx.Exec(query,
				input.OverallRating, input.ComfortRating, input.DurabilityRating,
				input.WeatherPerformance, input.PerformanceNotes, input.HadIssues,
				input.IssueDescription, input.WouldBringAgain,
				tripID, gearID,
			)
			if err != nil {
				return fmt.Errorf("failed to record review for gear %d: %w", gearID, err)
			}
			updated++
		}

		logger.Debug("Reviews recorded", "trip_id", tripID, "updated", updated)
		return nil
	})
}

// GetPerformanceHistory returns every review row for a gear item joined with
// its trip, newest trip first.
func GetPerformanceHistory(db *sql.DB, gearID int) ([]models.PerformanceEntry, error) {
	query := `
		SELECT ` + tripColumns + `, ` + tripGearColumns + `
		FROM trip_gear tg
		INNER JOIN trips t ON t.id = tg.trip_id
		WHERE tg.gear_id = ?
		ORDER BY t.date DESC, t.id DESC
	`

	rows, err := db.Query(query, gearID)
	if err != nil {
		return nil, fmt.Errorf("failed to query performance history: %w", err)
	}
	defer rows.Close()

	var history []models.PerformanceEntry
	for rows.Next() {
		var entry models.PerformanceEntry
		var nulls tripGearNulls

		trip, err := scanTrip(rows, tripGearDest(&entry.TripGear, &nulls)...)
		if err != nil {
			return nil, fmt.Errorf("failed to scan performance entry: %w", err)
		}

		nulls.apply(&entry.TripGear)
		entry.Trip = trip
		history = append(history, entry)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating performance history: %w", err)
	}

	return history, nil
}
