package handlers

import (
	"bytes"
	"database/sql"
	"encoding/csv"
	"errors"
	"net/http"
	"net/url"
	"strconv"

	"hikelog/internal/database"
	"hikelog/internal/logger"
	"hikelog/internal/models"

	"github.com/gin-gonic/gin"
)

func renderGearForm(c *gin.Context, status int, form url.Values, errMsg string) {
	db := c.MustGet("db").(*sql.DB)

	gear, err := database.GetAllGear(db)
	if err != nil {
		logger.Warn("Failed to load gear categories", "error", err)
	}

	c.HTML(status, "gear_form.html", gin.H{
		"Title":      pageTitle("Add Gear"),
		"Form":       form,
		"Categories": categoriesOf(gear),
		"Error":      errMsg,
	})
}

// categoriesOf returns the distinct categories of an ordered gear list.
func categoriesOf(gear []models.Gear) []string {
	var categories []string
	for i, g := range gear {
		if i == 0 || gear[i-1].Category != g.Category {
			categories = append(categories, g.Category)
		}
	}
	return categories
}

func handleNewGearPage(c *gin.Context) {
	renderGearForm(c, http.StatusOK, url.Values{}, "")
}

func handleCreateGear(c *gin.Context) {
	db := c.MustGet("db").(*sql.DB)

	form, err := postForm(c)
	if err != nil {
		renderGearForm(c, http.StatusBadRequest, url.Values{}, models.ValidationMessage(err))
		return
	}

	gear, err := decodeGearForm(form)
	if err != nil {
		renderGearForm(c, http.StatusBadRequest, form, models.ValidationMessage(err))
		return
	}

	created, err := database.CreateGear(db, gear)
	if err != nil {
		if errors.Is(err, models.ErrValidation) {
			renderGearForm(c, http.StatusBadRequest, form, models.ValidationMessage(err))
			return
		}
		logger.Error("Failed to create gear", "name", gear.Name, "error", err)
		renderGearForm(c, http.StatusInternalServerError, form, "Failed to save gear")
		return
	}

	logger.Info("Gear added", "gear_id", created.ID, "category", created.Category)
	c.Redirect(http.StatusFound, "/")
}

// handleGearList shows the catalog. A failed query degrades to an empty list.
func handleGearList(c *gin.Context) {
	db := c.MustGet("db").(*sql.DB)

	gear, err := database.GetAllGear(db)
	if err != nil {
		logger.Warn("Failed to get gear catalog, showing empty list", "error", err)
		gear = []models.Gear{}
	}

	c.HTML(http.StatusOK, "gear.html", gin.H{
		"Title": pageTitle("Gear"),
		"Gear":  gear,
	})
}

func handleExportGear(c *gin.Context) {
	db := c.MustGet("db").(*sql.DB)

	gear, err := database.GetAllGear(db)
	if err != nil {
		logger.Error("Failed to get gear for export", "error", err)
		c.String(http.StatusInternalServerError, "Failed to load gear")
		return
	}

	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	header := []string{"Name", "Category", "Weight (grams)", "Average rating", "Trips", "Notes"}
	if err := writer.Write(header); err != nil {
		c.String(http.StatusInternalServerError, "Failed to generate CSV")
		return
	}

	for _, g := range gear {
		record := []string{g.Name, g.Category, "", "", strconv.Itoa(g.TripCount), ""}
		if g.WeightGrams != nil {
			record[2] = strconv.Itoa(*g.WeightGrams)
		}
		if g.AverageRating != nil {
			record[3] = strconv.FormatFloat(*g.AverageRating, 'f', 1, 64)
		}
		if g.Notes != nil {
			record[5] = *g.Notes
		}
		if err := writer.Write(record); err != nil {
			c.String(http.StatusInternalServerError, "Failed to generate CSV")
			return
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		c.String(http.StatusInternalServerError, "Failed to generate CSV")
		return
	}

	c.Header("Content-Disposition", "attachment; filename=gear.csv")
	c.Data(http.StatusOK, "text/csv", buf.Bytes())
}

func handleGearPerformance(c *gin.Context) {
	db := c.MustGet("db").(*sql.DB)

	gearID, ok := idParam(c, "Gear")
	if !ok {
		return
	}

	gear, err := database.GetGear(db, gearID)
	if err != nil {
		logger.Error("Failed to get gear", "gear_id", gearID, "error", err)
		renderError(c, err, "Gear not found", "Failed to load gear")
		return
	}

	history, err := database.GetPerformanceHistory(db, gearID)
	if err != nil {
		logger.Error("Failed to get performance history", "gear_id", gearID, "error", err)
		renderServerError(c, "Failed to load performance history")
		return
	}

	c.HTML(http.StatusOK, "gear_performance.html", gin.H{
		"Title":         pageTitle(gear.Name),
		"Gear":          gear,
		"History":       history,
		"AverageRating": models.AverageRating(models.OverallRatings(history)),
	})
}
