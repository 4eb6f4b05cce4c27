package handlers

import (
	"database/sql"
	"errors"
	"fmt"
	"net/http"

	"hikelog/internal/database"
	"hikelog/internal/logger"
	"hikelog/internal/models"

	"github.com/gin-gonic/gin"
)

// loadReviewPage fetches the trip and its gear rows. It renders the error
// page itself and returns ok=false on failure.
func loadReviewPage(c *gin.Context, db *sql.DB, tripID int) (*models.Trip, []models.TripGear, bool) {
	trip, err := database.GetTrip(db, tripID)
	if err != nil {
		logger.Error("Failed to get trip", "trip_id", tripID, "error", err)
		renderError(c, err, "Trip not found", "Failed to load trip")
		return nil, nil, false
	}

	items, err := database.GetTripGear(db, tripID)
	if err != nil {
		logger.Error("Failed to get trip gear", "trip_id", tripID, "error", err)
		renderServerError(c, "Failed to load trip gear")
		return nil, nil, false
	}

	return trip, items, true
}

func handleReviewGearPage(c *gin.Context) {
	db := c.MustGet("db").(*sql.DB)

	tripID, ok := idParam(c, "Trip")
	if !ok {
		return
	}

	trip, items, ok := loadReviewPage(c, db, tripID)
	if !ok {
		return
	}

	if len(items) == 0 {
		c.Redirect(http.StatusFound, fmt.Sprintf("/trip/%d", tripID))
		return
	}

	c.HTML(http.StatusOK, "review_gear.html", gin.H{
		"Title": pageTitle("Review " + trip.Name),
		"Trip":  trip,
		"Items": items,
	})
}

func handleRecordReviews(c *gin.Context) {
	db := c.MustGet("db").(*sql.DB)

	tripID, ok := idParam(c, "Trip")
	if !ok {
		return
	}

	trip, items, ok := loadReviewPage(c, db, tripID)
	if !ok {
		return
	}

	form, err := postForm(c)

	// a rejected submission is shown again with the values the user typed
	renderInvalid := func(err error) {
		c.HTML(http.StatusBadRequest, "review_gear.html", gin.H{
			"Title": pageTitle("Review " + trip.Name),
			"Trip":  trip,
			"Items": applyReviewForm(items, form),
			"Error": models.ValidationMessage(err),
		})
	}

	if err != nil {
		renderInvalid(err)
		return
	}

	gearIDs := make([]int, 0, len(items))
	for _, item := range items {
		gearIDs = append(gearIDs, item.GearID)
	}

	inputs, err := decodeReviewForm(form, gearIDs)
	if err != nil {
		renderInvalid(err)
		return
	}

	if err := database.RecordReviews(db, tripID, inputs); err != nil {
		switch {
		case errors.Is(err, models.ErrValidation):
			renderInvalid(err)
		default:
			logger.Error("Failed to record reviews", "trip_id", tripID, "error", err)
			renderError(c, err, "Trip not found", "Failed to save reviews")
		}
		return
	}

	logger.Info("Gear reviews recorded", "trip_id", tripID, "reviews", len(inputs))
	c.Redirect(http.StatusFound, fmt.Sprintf("/trip/%d", tripID))
}
