package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/unithq/cqhub-go/internal/clock"
	"github.com/unithq/cqhub-go/internal/database"
	"github.com/unithq/cqhub-go/internal/middleware"
	"github.com/unithq/cqhub-go/internal/models"
	"github.com/unithq/cqhub-go/internal/weather"
)

func weatherLocation(c *gin.Context, db *pgxpool.Pool) models.WeatherLocation {
	settings := database.NewSettings(db)
	loc := models.WeatherLocation{Units: "imperial"}
	raw, err := settings.GetStringMap(c.Request.Context(), models.SettingWeatherLocation)
	if err != nil {
		return loc
	}
	if v, err := strconv.ParseFloat(raw["latitude"], 64); err == nil {
		loc.Latitude = v
	}
	if v, err := strconv.ParseFloat(raw["longitude"], 64); err == nil {
		loc.Longitude = v
	}
	if u := raw["units"]; u != "" {
		loc.Units = u
	}
	return loc
}

func defaultUniform(c *gin.Context, db *pgxpool.Pool) string {
	settings := database.NewSettings(db)
	uniform, err := settings.GetString(c.Request.Context(), models.SettingDefaultUniform)
	if err != nil || uniform == "" {
		return "ocp"
	}
	return uniform
}

// CurrentWeather returns the current (possibly cached) snapshot
func (e *Env) CurrentWeather(c *gin.Context) {
	db, ok := e.companyDB(c)
	if !ok {
		return
	}

	snap, err := e.weatherService(db).CurrentSnapshot(c.Request.Context(), weatherLocation(c, db))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, snap)
}

// ListRecommendations returns a date's uniform recommendations
func (e *Env) ListRecommendations(c *gin.Context) {
	db, ok := e.companyDB(c)
	if !ok {
		return
	}

	date := c.Query("date")
	if date == "" {
		date = e.resolver(c, db).Today()
	}

	recs, err := e.weatherService(db).ListRecommendations(c.Request.Context(), date)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"recommendations": recs,
		"count":           len(recs),
	})
}

type runRecommendationRequest struct {
	Slot      string `json:"slot,omitempty"`
	Date      string `json:"date,omitempty"`
	Supersede bool   `json:"supersede"`
}

// RunRecommendation triggers a recommendation on demand, defaulting to today's
// current meal slot. With supersede set, an active recommendation for the same
// slot is replaced.
func (e *Env) RunRecommendation(c *gin.Context) {
	db, ok := e.companyDB(c)
	if !ok {
		return
	}

	var req runRecommendationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request", "details": err.Error()})
		return
	}

	res := e.resolver(c, db)
	date := req.Date
	if date == "" {
		date = res.Today()
	}
	slot := clock.Slot(req.Slot)
	if req.Slot == "" {
		slot = res.TargetSlot()
	}

	svc := e.weatherService(db)
	snap, err := svc.CurrentSnapshot(c.Request.Context(), weatherLocation(c, db))
	if err != nil {
		respondError(c, err)
		return
	}

	rec, err := svc.Recommend(c.Request.Context(), date, slot, snap, defaultUniform(c, db), req.Supersede)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, rec)
}

type decideRecommendationRequest struct {
	Approve bool `json:"approve"`
}

// DecideRecommendation approves or rejects a pending recommendation
func (e *Env) DecideRecommendation(c *gin.Context) {
	db, ok := e.companyDB(c)
	if !ok {
		return
	}
	userID, ok := middleware.GetAuthUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Not authenticated"})
		return
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid recommendation ID"})
		return
	}

	var req decideRecommendationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request", "details": err.Error()})
		return
	}

	rec, err := e.weatherService(db).Decide(c.Request.Context(), id, req.Approve, userID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, rec)
}

// ListWeatherRules returns the rule set ordered by priority
func (e *Env) ListWeatherRules(c *gin.Context) {
	db, ok := e.companyDB(c)
	if !ok {
		return
	}

	rules, err := weather.NewPGStore(db).ListRules(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to query weather rules"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"rules": rules,
		"count": len(rules),
	})
}

type replaceRulesRequest struct {
	Rules []models.WeatherRule `json:"rules" binding:"required"`
}

// ReplaceWeatherRules swaps the full rule set atomically
func (e *Env) ReplaceWeatherRules(c *gin.Context) {
	db, ok := e.companyDB(c)
	if !ok {
		return
	}

	var req replaceRulesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request", "details": err.Error()})
		return
	}

	if err := weather.NewPGStore(db).ReplaceRules(c.Request.Context(), req.Rules); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to replace weather rules"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "count": len(req.Rules)})
}
