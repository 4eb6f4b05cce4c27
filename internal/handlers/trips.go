package handlers

import (
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"hikelog/internal/config"
	"hikelog/internal/database"
	emailService "hikelog/internal/email"
	"hikelog/internal/logger"
	"hikelog/internal/models"

	"github.com/gin-gonic/gin"
)

// renderTripForm shows the add or edit form. trip is nil when adding.
func renderTripForm(c *gin.Context, status int, trip *models.Trip, form url.Values, selected map[int]bool, errMsg string) {
	db := c.MustGet("db").(*sql.DB)

	allGear, err := database.GetAllGear(db)
	if err != nil {
		logger.Warn("Failed to load gear catalog for trip form", "error", err)
	}

	title := "Log a Trip"
	action := "/add_trip"
	if trip != nil {
		title = "Edit " + trip.Name
		action = fmt.Sprintf("/edit_trip/%d", trip.ID)
	}

	c.HTML(status, "trip_form.html", gin.H{
		"Title":    pageTitle(title),
		"Trip":     trip,
		"Action":   action,
		"Form":     form,
		"Selected": selected,
		"AllGear":  allGear,
		"Error":    errMsg,
	})
}

// selectedFromForm re-checks the gear boxes of a rejected submission.
func selectedFromForm(form url.Values) map[int]bool {
	selected := make(map[int]bool)
	for _, value := range form["gear_ids"] {
		if id, err := strconv.Atoi(value); err == nil {
			selected[id] = true
		}
	}
	return selected
}

func tripFormValues(trip *models.Trip) url.Values {
	form := url.Values{}
	form.Set("name", trip.Name)
	form.Set("date", trip.DateString())
	if trip.Location != nil {
		form.Set("location", *trip.Location)
	}
	if trip.DistanceKm != nil {
		form.Set("distance_km", strconv.FormatFloat(*trip.DistanceKm, 'f', -1, 64))
	}
	if trip.ElevationGainM != nil {
		form.Set("elevation_gain_m", strconv.Itoa(*trip.ElevationGainM))
	}
	if trip.Weather != nil {
		form.Set("weather", *trip.Weather)
	}
	if trip.Notes != nil {
		form.Set("notes", *trip.Notes)
	}
	return form
}

func handleNewTripPage(c *gin.Context) {
	renderTripForm(c, http.StatusOK, nil, url.Values{}, map[int]bool{}, "")
}

func handleCreateTrip(c *gin.Context) {
	db := c.MustGet("db").(*sql.DB)

	form, err := postForm(c)
	if err != nil {
		renderTripForm(c, http.StatusBadRequest, nil, url.Values{}, map[int]bool{}, models.ValidationMessage(err))
		return
	}

	tf, err := decodeTripForm(form)
	if err != nil {
		renderTripForm(c, http.StatusBadRequest, nil, form, selectedFromForm(form), models.ValidationMessage(err))
		return
	}

	trip, err := database.CreateTrip(db, tf.Trip, tf.GearIDs)
	if err != nil {
		if errors.Is(err, models.ErrValidation) {
			renderTripForm(c, http.StatusBadRequest, nil, form, selectedFromForm(form), models.ValidationMessage(err))
			return
		}
		logger.Error("Failed to create trip", "name", tf.Trip.Name, "error", err)
		renderTripForm(c, http.StatusInternalServerError, nil, form, selectedFromForm(form), "Failed to save trip")
		return
	}

	logger.Info("Trip logged", "trip_id", trip.ID, "gear_count", len(tf.GearIDs))

	if len(tf.GearIDs) == 0 {
		c.Redirect(http.StatusFound, "/")
		return
	}

	if tf.ReviewAfter {
		c.Redirect(http.StatusFound, fmt.Sprintf("/trip/%d/review_gear", trip.ID))
		return
	}

	sendReviewReminder(c, db, trip)
	c.Redirect(http.StatusFound, "/")
}

// sendReviewReminder emails a link to the review form in the background when
// the reminder service is configured.
func sendReviewReminder(c *gin.Context, db *sql.DB, trip *models.Trip) {
	emailSvc, _ := c.Get("email_service")
	service, ok := emailSvc.(*emailService.Service)
	if !ok || !service.IsEnabled() {
		return
	}

	gear, err := database.GetGearUsedOnTrip(db, trip.ID)
	if err != nil {
		logger.Warn("Failed to load gear for review reminder", "trip_id", trip.ID, "error", err)
		return
	}

	go func(trip models.Trip) {
		if err := service.SendReviewReminder(&trip, gear); err != nil {
			logger.Warn("Failed to send review reminder", "trip_id", trip.ID, "error", err)
		}
	}(*trip)
}

func handleTripDetail(c *gin.Context) {
	db := c.MustGet("db").(*sql.DB)

	tripID, ok := idParam(c, "Trip")
	if !ok {
		return
	}

	trip, err := database.GetTrip(db, tripID)
	if err != nil {
		logger.Error("Failed to get trip", "trip_id", tripID, "error", err)
		renderError(c, err, "Trip not found", "Failed to load trip")
		return
	}

	items, err := database.GetTripGear(db, tripID)
	if err != nil {
		logger.Error("Failed to get trip gear", "trip_id", tripID, "error", err)
		renderServerError(c, "Failed to load trip gear")
		return
	}

	totalWeight, err := database.GetTripTotalWeight(db, tripID)
	if err != nil {
		logger.Error("Failed to get trip weight", "trip_id", tripID, "error", err)
		renderServerError(c, "Failed to load trip gear")
		return
	}

	c.HTML(http.StatusOK, "trip_detail.html", gin.H{
		"Title":       pageTitle(trip.Name),
		"Trip":        trip,
		"Items":       items,
		"TotalWeight": totalWeight,
	})
}

func handleEditTripPage(c *gin.Context) {
	db := c.MustGet("db").(*sql.DB)

	tripID, ok := idParam(c, "Trip")
	if !ok {
		return
	}

	trip, err := database.GetTrip(db, tripID)
	if err != nil {
		logger.Error("Failed to get trip", "trip_id", tripID, "error", err)
		renderError(c, err, "Trip not found", "Failed to load trip")
		return
	}

	gearIDs, err := database.GetTripGearIDs(db, tripID)
	if err != nil {
		logger.Error("Failed to get trip gear ids", "trip_id", tripID, "error", err)
		renderServerError(c, "Failed to load trip gear")
		return
	}

	selected := make(map[int]bool, len(gearIDs))
	for _, id := range gearIDs {
		selected[id] = true
	}

	renderTripForm(c, http.StatusOK, trip, tripFormValues(trip), selected, "")
}

func handleUpdateTrip(c *gin.Context) {
	db := c.MustGet("db").(*sql.DB)
	cfg := c.MustGet("config").(*config.Config)

	tripID, ok := idParam(c, "Trip")
	if !ok {
		return
	}

	existing, err := database.GetTrip(db, tripID)
	if err != nil {
		logger.Error("Failed to get trip", "trip_id", tripID, "error", err)
		renderError(c, err, "Trip not found", "Failed to load trip")
		return
	}

	form, err := postForm(c)
	if err != nil {
		renderTripForm(c, http.StatusBadRequest, existing, tripFormValues(existing), map[int]bool{}, models.ValidationMessage(err))
		return
	}

	tf, err := decodeTripForm(form)
	if err != nil {
		renderTripForm(c, http.StatusBadRequest, existing, form, selectedFromForm(form), models.ValidationMessage(err))
		return
	}
	tf.Trip.ID = tripID

	if err := database.UpdateTrip(db, tf.Trip, tf.GearIDs, cfg.GearEditMode); err != nil {
		switch {
		case errors.Is(err, models.ErrValidation):
			renderTripForm(c, http.StatusBadRequest, existing, form, selectedFromForm(form), models.ValidationMessage(err))
		case errors.Is(err, models.ErrNotFound):
			renderNotFound(c, "Trip not found")
		default:
			logger.Error("Failed to update trip", "trip_id", tripID, "error", err)
			renderTripForm(c, http.StatusInternalServerError, existing, form, selectedFromForm(form), "Failed to save trip")
		}
		return
	}

	logger.Info("Trip updated", "trip_id", tripID, "gear_count", len(tf.GearIDs), "mode", cfg.GearEditMode)
	c.Redirect(http.StatusFound, fmt.Sprintf("/trip/%d", tripID))
}
