package handlers

import (
	"database/sql"
	"errors"
	"fmt"
	"html/template"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"hikelog/internal/config"
	"hikelog/internal/database"
	"hikelog/internal/email"
	"hikelog/internal/logger"
	"hikelog/internal/middleware"
	"hikelog/internal/models"
	"hikelog/web"

	"github.com/gin-gonic/gin"
)

const appName = "Hike Log"

// NewRouter builds the gin engine with templates, static assets, middleware
// and every route registered.
func NewRouter(cfg *config.Config, db *sql.DB, emailService *email.Service) (*gin.Engine, error) {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.LogRequests())
	r.Use(middleware.SecurityHeaders(cfg))
	r.Use(middleware.RateLimit(cfg))

	tmpl, err := web.Templates(TemplateFuncs())
	if err != nil {
		return nil, fmt.Errorf("failed to parse templates: %w", err)
	}
	r.SetHTMLTemplate(tmpl)
	r.StaticFS("/static", http.FS(web.Static()))

	SetupRoutes(r, db, cfg, emailService)
	return r, nil
}

func SetupRoutes(r *gin.Engine, db *sql.DB, cfg *config.Config, emailService *email.Service) {
	r.Use(middleware.AddDBContext(db))
	r.Use(addConfigContext(cfg))
	r.Use(addEmailServiceContext(emailService))
	r.Use(middleware.TrimSpaces())

	r.GET("/", handleHome)
	r.GET("/healthz", handleHealth)

	r.GET("/add_trip", handleNewTripPage)
	r.POST("/add_trip", handleCreateTrip)
	r.GET("/trip/:id", handleTripDetail)
	r.GET("/edit_trip/:id", handleEditTripPage)
	r.POST("/edit_trip/:id", handleUpdateTrip)
	r.GET("/trip/:id/review_gear", handleReviewGearPage)
	r.POST("/trip/:id/review_gear", handleRecordReviews)

	r.GET("/add_gear", handleNewGearPage)
	r.POST("/add_gear", handleCreateGear)
	r.GET("/gear", handleGearList)
	r.GET("/gear/export", handleExportGear)
	r.GET("/gear/:id/performance", handleGearPerformance)

	r.NoRoute(func(c *gin.Context) {
		renderNotFound(c, "Page not found")
	})
}

// TemplateFuncs are the helpers available to every page template.
func TemplateFuncs() template.FuncMap {
	return template.FuncMap{
		"formatDate": func(t time.Time) string {
			return t.Format("Jan 2, 2006")
		},
		"str": func(s *string) string {
			if s == nil {
				return "–"
			}
			return *s
		},
		"text": func(s *string) string {
			if s == nil {
				return ""
			}
			return *s
		},
		"num": func(n *int, unit string) string {
			if n == nil {
				return "–"
			}
			return fmt.Sprintf("%d %s", *n, unit)
		},
		"km": func(f *float64) string {
			if f == nil {
				return "–"
			}
			return fmt.Sprintf("%.1f km", *f)
		},
		"kg": func(grams int) string {
			return fmt.Sprintf("%.2f kg", float64(grams)/1000)
		},
		"rating": func(avg *float64) string {
			if avg == nil {
				return "not rated"
			}
			return fmt.Sprintf("%.1f / 5", *avg)
		},
		"stars": func(r *int) string {
			if r == nil {
				return "–"
			}
			return strconv.Itoa(*r) + " / 5"
		},
		"yesNo": func(b *bool) string {
			switch {
			case b == nil:
				return "–"
			case *b:
				return "Yes"
			default:
				return "No"
			}
		},
		"isTrue": func(b *bool) bool {
			return b != nil && *b
		},
		"ratingScale": func() []int {
			scale := make([]int, 0, models.MaxRating-models.MinRating+1)
			for i := models.MinRating; i <= models.MaxRating; i++ {
				scale = append(scale, i)
			}
			return scale
		},
		"isRating": func(r *int, value int) bool {
			return r != nil && *r == value
		},
		"checked": func(selected map[int]bool, id int) bool {
			return selected[id]
		},
	}
}

func addConfigContext(cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set("config", cfg)
		c.Next()
	}
}

func addEmailServiceContext(emailService *email.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set("email_service", emailService)
		c.Next()
	}
}

func pageTitle(title string) string {
	return title + " - " + appName
}

func renderNotFound(c *gin.Context, message string) {
	c.HTML(http.StatusNotFound, "404.html", gin.H{
		"Title":   pageTitle("Not Found"),
		"Message": message,
	})
}

func renderServerError(c *gin.Context, message string) {
	c.HTML(http.StatusInternalServerError, "500.html", gin.H{
		"Title":   pageTitle("Error"),
		"Message": message,
	})
}

// renderError maps a data-access error to the not-found or server error page.
// Validation errors are handled by the form handlers themselves.
func renderError(c *gin.Context, err error, notFound, failed string) {
	if errors.Is(err, models.ErrNotFound) {
		renderNotFound(c, notFound)
		return
	}
	_ = c.Error(err)
	renderServerError(c, failed)
}

// idParam parses the :id route parameter. A non-numeric id renders 404.
func idParam(c *gin.Context, what string) (int, bool) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil || id <= 0 {
		renderNotFound(c, what+" not found")
		return 0, false
	}
	return id, true
}

func postForm(c *gin.Context) (url.Values, error) {
	if err := c.Request.ParseForm(); err != nil {
		return nil, models.NewValidationError("form", "Could not read the submitted form")
	}
	return c.Request.PostForm, nil
}

func handleHome(c *gin.Context) {
	db := c.MustGet("db").(*sql.DB)

	hasTrips, err := database.HasTrips(db)
	if err != nil {
		logger.Error("Failed to check for trips", "error", err)
		renderServerError(c, "Failed to load trips")
		return
	}
	if !hasTrips {
		c.Redirect(http.StatusFound, "/add_trip")
		return
	}

	trips, err := database.GetTrips(db)
	if err != nil {
		logger.Error("Failed to get trips", "error", err)
		renderServerError(c, "Failed to load trips")
		return
	}

	gear, err := database.GetAllGear(db)
	if err != nil {
		logger.Warn("Failed to get gear for home page", "error", err)
	}

	stats, err := database.GetLogStats(db)
	if err != nil {
		logger.Warn("Failed to get log statistics", "error", err)
	}

	c.HTML(http.StatusOK, "index.html", gin.H{
		"Title": pageTitle("Trips"),
		"Trips": trips,
		"Gear":  gear,
		"Stats": stats,
	})
}

func handleHealth(c *gin.Context) {
	db := c.MustGet("db").(*sql.DB)

	if err := db.PingContext(c.Request.Context()); err != nil {
		logger.Error("Health check failed", "error", err)
		c.String(http.StatusServiceUnavailable, "database unavailable")
		return
	}
	c.String(http.StatusOK, "ok")
}
