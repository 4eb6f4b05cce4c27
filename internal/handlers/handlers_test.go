package handlers

import (
	"database/sql"
	"encoding/csv"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"testing"
	"time"

	"hikelog/internal/config"
	"hikelog/internal/database"
	"hikelog/internal/email"
	"hikelog/internal/models"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	os.Exit(m.Run())
}

type testApp struct {
	db     *sql.DB
	cfg    *config.Config
	router *gin.Engine
}

func setupTestApp(t *testing.T) *testApp {
	t.Helper()

	db, err := database.Initialize(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, database.Migrate(db))

	cfg := &config.Config{
		Environment:        "development",
		GearEditMode:       models.GearEditReplace,
		RateLimitPerSecond: 20,
		BaseURL:            "http://localhost:8080",
	}

	router, err := NewRouter(cfg, db, email.NewService(cfg))
	require.NoError(t, err)

	return &testApp{db: db, cfg: cfg, router: router}
}

func (a *testApp) get(t *testing.T, path string) *httptest.ResponseRecorder {
	t.Helper()
	w := httptest.NewRecorder()
	a.router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
	return w
}

func (a *testApp) post(t *testing.T, path string, form url.Values) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	w := httptest.NewRecorder()
	a.router.ServeHTTP(w, req)
	return w
}

func (a *testApp) gear(t *testing.T, name, category string, weight int) *models.Gear {
	t.Helper()
	g, err := database.CreateGear(a.db, models.Gear{Name: name, Category: category, WeightGrams: &weight})
	require.NoError(t, err)
	return g
}

func (a *testApp) trip(t *testing.T, name, day string, gearIDs ...int) *models.Trip {
	t.Helper()
	d, err := time.Parse(models.DateLayout, day)
	require.NoError(t, err)
	trip, err := database.CreateTrip(a.db, models.Trip{Name: name, Date: d}, gearIDs)
	require.NoError(t, err)
	return trip
}

func (a *testApp) count(t *testing.T, table string) int {
	t.Helper()
	var n int
	require.NoError(t, a.db.QueryRow("SELECT COUNT(*) FROM "+table).Scan(&n))
	return n
}

func TestHomeRedirectsToAddTripWhenEmpty(t *testing.T) {
	app := setupTestApp(t)

	w := app.get(t, "/")
	assert.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "/add_trip", w.Header().Get("Location"))
}

func TestHomeListsTrips(t *testing.T) {
	app := setupTestApp(t)
	tent := app.gear(t, "Tent", "Shelter", 1200)
	app.trip(t, "Ridge Hike", "2024-06-01", tent.ID)
	app.trip(t, "Lake Loop", "2024-07-15")

	w := app.get(t, "/")
	require.Equal(t, http.StatusOK, w.Code)

	body := w.Body.String()
	assert.Contains(t, body, "Ridge Hike")
	assert.Contains(t, body, "Lake Loop")
	assert.Contains(t, body, "Tent")
	assert.Less(t, strings.Index(body, "Lake Loop"), strings.Index(body, "Ridge Hike"), "newest trip first")
}

func TestTripDetailNotFound(t *testing.T) {
	app := setupTestApp(t)

	for _, path := range []string{"/trip/999", "/trip/abc", "/edit_trip/42", "/trip/7/review_gear", "/gear/5/performance"} {
		w := app.get(t, path)
		assert.Equal(t, http.StatusNotFound, w.Code, path)
	}
}

func TestCreateTripRejectsMissingDate(t *testing.T) {
	app := setupTestApp(t)
	tent := app.gear(t, "Tent", "Shelter", 1200)

	w := app.post(t, "/add_trip", url.Values{
		"name":     {"Ridge Hike"},
		"date":     {""},
		"gear_ids": {fmt.Sprint(tent.ID)},
	})

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "Trip date is required")
	assert.Zero(t, app.count(t, "trips"))
	assert.Zero(t, app.count(t, "trip_gear"))
}

func TestCreateTripRejectsBadNumbers(t *testing.T) {
	app := setupTestApp(t)

	w := app.post(t, "/add_trip", url.Values{
		"name":        {"Ridge Hike"},
		"date":        {"2024-06-01"},
		"distance_km": {"far"},
	})

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "Distance must be a number")
	assert.Zero(t, app.count(t, "trips"))
}

func TestCreateTripRejectsUnknownGear(t *testing.T) {
	app := setupTestApp(t)

	w := app.post(t, "/add_trip", url.Values{
		"name":     {"Ridge Hike"},
		"date":     {"2024-06-01"},
		"gear_ids": {"99"},
	})

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Zero(t, app.count(t, "trips"))
}

func TestCreateTripRedirects(t *testing.T) {
	app := setupTestApp(t)
	tent := app.gear(t, "Tent", "Shelter", 1200)

	t.Run("review after with gear", func(t *testing.T) {
		w := app.post(t, "/add_trip", url.Values{
			"name":         {"Ridge Hike"},
			"date":         {"2024-06-01"},
			"gear_ids":     {fmt.Sprint(tent.ID)},
			"review_after": {"on"},
		})
		require.Equal(t, http.StatusFound, w.Code)
		assert.Regexp(t, `^/trip/\d+/review_gear$`, w.Header().Get("Location"))
	})

	t.Run("review after without gear", func(t *testing.T) {
		w := app.post(t, "/add_trip", url.Values{
			"name":         {"Day Walk"},
			"date":         {"2024-06-02"},
			"review_after": {"on"},
		})
		require.Equal(t, http.StatusFound, w.Code)
		assert.Equal(t, "/", w.Header().Get("Location"))
	})

	t.Run("no review", func(t *testing.T) {
		w := app.post(t, "/add_trip", url.Values{
			"name":     {"Lake Loop"},
			"date":     {"2024-06-03"},
			"gear_ids": {fmt.Sprint(tent.ID)},
		})
		require.Equal(t, http.StatusFound, w.Code)
		assert.Equal(t, "/", w.Header().Get("Location"))
	})

	assert.Equal(t, 3, app.count(t, "trips"))
	assert.Equal(t, 2, app.count(t, "trip_gear"))
}

func TestCreateTripAcceptsFineGrainedDistance(t *testing.T) {
	app := setupTestApp(t)

	w := app.get(t, "/add_trip")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Regexp(t, `<input type="number" step="any"[^>]*name="distance_km"`, w.Body.String())

	w = app.post(t, "/add_trip", url.Values{
		"name":        {"Ridge Hike"},
		"date":        {"2024-06-01"},
		"distance_km": {"12.35"},
	})
	require.Equal(t, http.StatusFound, w.Code)

	trips, err := database.GetTrips(app.db)
	require.NoError(t, err)
	require.Len(t, trips, 1)
	require.NotNil(t, trips[0].DistanceKm)
	assert.InDelta(t, 12.35, *trips[0].DistanceKm, 1e-9)
}

func TestCreateTripTrimsFields(t *testing.T) {
	app := setupTestApp(t)

	w := app.post(t, "/add_trip", url.Values{
		"name":     {"  Ridge Hike  "},
		"date":     {"2024-06-01"},
		"location": {"   "},
	})
	require.Equal(t, http.StatusFound, w.Code)

	trips, err := database.GetTrips(app.db)
	require.NoError(t, err)
	require.Len(t, trips, 1)
	assert.Equal(t, "Ridge Hike", trips[0].Name)
	assert.Nil(t, trips[0].Location)
}

func TestReviewFlow(t *testing.T) {
	app := setupTestApp(t)
	tent := app.gear(t, "Tent", "Shelter", 1200)
	stove := app.gear(t, "Stove", "Kitchen", 300)
	trip := app.trip(t, "Ridge Hike", "2024-06-01", tent.ID, stove.ID)

	reviewPath := fmt.Sprintf("/trip/%d/review_gear", trip.ID)

	w := app.get(t, reviewPath)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), fmt.Sprintf(`name="overall_rating_%d"`, tent.ID))

	w = app.post(t, reviewPath, url.Values{
		fmt.Sprintf("overall_rating_%d", tent.ID):    {"4"},
		fmt.Sprintf("comfort_rating_%d", tent.ID):    {"5"},
		fmt.Sprintf("had_issues_%d", tent.ID):        {"off"},
		fmt.Sprintf("issue_description_%d", tent.ID): {"zip stuck"},
		fmt.Sprintf("would_bring_again_%d", tent.ID): {"on"},
	})
	require.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, fmt.Sprintf("/trip/%d", trip.ID), w.Header().Get("Location"))

	items, err := database.GetTripGear(app.db, trip.ID)
	require.NoError(t, err)
	require.Len(t, items, 2)

	byGear := map[int]models.TripGear{}
	for _, item := range items {
		byGear[item.GearID] = item
	}

	reviewed := byGear[tent.ID]
	require.NotNil(t, reviewed.OverallRating)
	assert.Equal(t, 4, *reviewed.OverallRating)
	assert.Equal(t, 5, *reviewed.ComfortRating)
	assert.False(t, reviewed.HadIssues)
	assert.Nil(t, reviewed.IssueDescription)
	require.NotNil(t, reviewed.WouldBringAgain)
	assert.True(t, *reviewed.WouldBringAgain)

	assert.False(t, byGear[stove.ID].Reviewed(), "gear without input is untouched")

	w = app.get(t, fmt.Sprintf("/gear/%d/performance", tent.ID))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Ridge Hike")
	assert.Contains(t, w.Body.String(), "4.0 / 5")
}

func TestReviewRejectsOutOfRangeRating(t *testing.T) {
	app := setupTestApp(t)
	tent := app.gear(t, "Tent", "Shelter", 1200)
	trip := app.trip(t, "Ridge Hike", "2024-06-01", tent.ID)

	w := app.post(t, fmt.Sprintf("/trip/%d/review_gear", trip.ID), url.Values{
		fmt.Sprintf("overall_rating_%d", tent.ID): {"7"},
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "Ratings must be between 1 and 5")

	items, err := database.GetTripGear(app.db, trip.ID)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Nil(t, items[0].OverallRating)
}

// textareaValue returns the content of the named textarea in a rendered page.
func textareaValue(t *testing.T, body, name string) string {
	t.Helper()
	re := regexp.MustCompile(`(?s)<textarea[^>]*name="` + regexp.QuoteMeta(name) + `"[^>]*>(.*?)</textarea>`)
	m := re.FindStringSubmatch(body)
	require.NotNil(t, m, "textarea %s", name)
	return m[1]
}

func TestReviewFormResubmittedUnchangedKeepsNotesEmpty(t *testing.T) {
	app := setupTestApp(t)
	tent := app.gear(t, "Tent", "Shelter", 1200)
	trip := app.trip(t, "Ridge Hike", "2024-06-01", tent.ID)
	reviewPath := fmt.Sprintf("/trip/%d/review_gear", trip.ID)

	w := app.get(t, reviewPath)
	require.Equal(t, http.StatusOK, w.Code)

	notesField := fmt.Sprintf("performance_notes_%d", tent.ID)
	issueField := fmt.Sprintf("issue_description_%d", tent.ID)
	notes := textareaValue(t, w.Body.String(), notesField)
	issue := textareaValue(t, w.Body.String(), issueField)
	assert.Empty(t, notes)
	assert.Empty(t, issue)

	w = app.post(t, reviewPath, url.Values{
		fmt.Sprintf("overall_rating_%d", tent.ID): {"4"},
		fmt.Sprintf("had_issues_%d", tent.ID):     {"on"},
		notesField: {notes},
		issueField: {issue},
	})
	require.Equal(t, http.StatusFound, w.Code)

	items, err := database.GetTripGear(app.db, trip.ID)
	require.NoError(t, err)
	require.Len(t, items, 1)
	require.NotNil(t, items[0].OverallRating)
	assert.Equal(t, 4, *items[0].OverallRating)
	assert.True(t, items[0].HadIssues)
	assert.Nil(t, items[0].PerformanceNotes)
	assert.Nil(t, items[0].IssueDescription)

	w = app.get(t, reviewPath)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, textareaValue(t, w.Body.String(), notesField))
}

func TestReviewRejectedSubmissionKeepsTypedValues(t *testing.T) {
	app := setupTestApp(t)
	tent := app.gear(t, "Tent", "Shelter", 1200)
	trip := app.trip(t, "Ridge Hike", "2024-06-01", tent.ID)

	w := app.post(t, fmt.Sprintf("/trip/%d/review_gear", trip.ID), url.Values{
		fmt.Sprintf("overall_rating_%d", tent.ID):    {"4"},
		fmt.Sprintf("comfort_rating_%d", tent.ID):    {"9"},
		fmt.Sprintf("performance_notes_%d", tent.ID): {"Stayed dry all night"},
	})
	require.Equal(t, http.StatusBadRequest, w.Code)

	body := w.Body.String()
	assert.Equal(t, "Stayed dry all night", textareaValue(t, body, fmt.Sprintf("performance_notes_%d", tent.ID)))
	assert.Contains(t, body, `<option value="4" selected>`)

	items, err := database.GetTripGear(app.db, trip.ID)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.False(t, items[0].Reviewed())
}

func TestReviewPageWithoutGearRedirectsToTrip(t *testing.T) {
	app := setupTestApp(t)
	trip := app.trip(t, "Day Walk", "2024-06-01")

	w := app.get(t, fmt.Sprintf("/trip/%d/review_gear", trip.ID))
	assert.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, fmt.Sprintf("/trip/%d", trip.ID), w.Header().Get("Location"))
}

func TestTripDetailShowsGearAndWeight(t *testing.T) {
	app := setupTestApp(t)
	tent := app.gear(t, "Tent", "Shelter", 500)
	stove := app.gear(t, "Stove", "Kitchen", 250)
	trip := app.trip(t, "Ridge Hike", "2024-06-01", tent.ID, stove.ID)

	w := app.get(t, fmt.Sprintf("/trip/%d", trip.ID))
	require.Equal(t, http.StatusOK, w.Code)

	body := w.Body.String()
	assert.Contains(t, body, "Tent")
	assert.Contains(t, body, "Stove")
	assert.Contains(t, body, "0.75 kg")
}

func TestEditTrip(t *testing.T) {
	app := setupTestApp(t)
	tent := app.gear(t, "Tent", "Shelter", 1200)
	stove := app.gear(t, "Stove", "Kitchen", 300)
	trip := app.trip(t, "Ridge Hike", "2024-06-01", tent.ID)

	w := app.get(t, fmt.Sprintf("/edit_trip/%d", trip.ID))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `value="2024-06-01"`)

	w = app.post(t, fmt.Sprintf("/edit_trip/%d", trip.ID), url.Values{
		"name":     {"Ridge Traverse"},
		"date":     {"2024-06-02"},
		"gear_ids": {fmt.Sprint(stove.ID)},
	})
	require.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, fmt.Sprintf("/trip/%d", trip.ID), w.Header().Get("Location"))

	updated, err := database.GetTrip(app.db, trip.ID)
	require.NoError(t, err)
	assert.Equal(t, "Ridge Traverse", updated.Name)
	assert.Equal(t, "2024-06-02", updated.DateString())

	ids, err := database.GetTripGearIDs(app.db, trip.ID)
	require.NoError(t, err)
	assert.Equal(t, []int{stove.ID}, ids)
}

func TestEditTripRejectsInvalidInput(t *testing.T) {
	app := setupTestApp(t)
	trip := app.trip(t, "Ridge Hike", "2024-06-01")

	w := app.post(t, fmt.Sprintf("/edit_trip/%d", trip.ID), url.Values{
		"name": {""},
		"date": {"2024-06-02"},
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	unchanged, err := database.GetTrip(app.db, trip.ID)
	require.NoError(t, err)
	assert.Equal(t, "Ridge Hike", unchanged.Name)
}

func TestCreateGear(t *testing.T) {
	app := setupTestApp(t)

	w := app.post(t, "/add_gear", url.Values{
		"name":         {"Sleeping Bag"},
		"category":     {"Sleep"},
		"weight_grams": {"800"},
	})
	require.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "/", w.Header().Get("Location"))

	gear, err := database.GetAllGear(app.db)
	require.NoError(t, err)
	require.Len(t, gear, 1)
	assert.Equal(t, "Sleeping Bag", gear[0].Name)
	require.NotNil(t, gear[0].WeightGrams)
	assert.Equal(t, 800, *gear[0].WeightGrams)

	w = app.post(t, "/add_gear", url.Values{"name": {"Headlamp"}, "category": {""}})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = app.post(t, "/add_gear", url.Values{"name": {"Headlamp"}, "category": {"Light"}, "weight_grams": {"heavy"}})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	assert.Equal(t, 1, app.count(t, "gear"))
}

func TestGearListAndExport(t *testing.T) {
	app := setupTestApp(t)
	app.gear(t, "Tent", "Shelter", 1200)
	app.gear(t, "Stove", "Kitchen", 300)

	w := app.get(t, "/gear")
	require.Equal(t, http.StatusOK, w.Code)
	body := w.Body.String()
	assert.Less(t, strings.Index(body, "Stove"), strings.Index(body, "Tent"), "ordered by category")

	w = app.get(t, "/gear/export")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Type"), "text/csv")

	records, err := csv.NewReader(w.Body).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 3)
	assert.Equal(t, "Name", records[0][0])
	assert.Equal(t, []string{"Stove", "Kitchen", "300", "", "0", ""}, records[1])
}

func TestGearListDegradesToEmptyOnDatabaseError(t *testing.T) {
	app := setupTestApp(t)
	app.gear(t, "Tent", "Shelter", 1200)
	require.NoError(t, app.db.Close())

	w := app.get(t, "/gear")
	require.Equal(t, http.StatusOK, w.Code)

	body := w.Body.String()
	assert.Contains(t, body, "No gear recorded.")
	assert.NotContains(t, body, "Tent")
}

func TestHealth(t *testing.T) {
	app := setupTestApp(t)

	w := app.get(t, "/healthz")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "ok", w.Body.String())
}

func TestStaticAssets(t *testing.T) {
	app := setupTestApp(t)

	w := app.get(t, "/static/style.css")
	assert.Equal(t, http.StatusOK, w.Code)
}
