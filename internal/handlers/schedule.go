package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/unithq/cqhub-go/internal/middleware"
	"github.com/unithq/cqhub-go/internal/models"
)

// ListSchedule returns the CQ schedule for a date range
func (e *Env) ListSchedule(c *gin.Context) {
	db, ok := e.companyDB(c)
	if !ok {
		return
	}

	start := c.Query("start")
	end := c.Query("end")
	if start == "" || end == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "start and end query parameters are required"})
		return
	}

	entries, err := e.scheduleService(db).ListEntries(c.Request.Context(), start, end)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"schedule": entries,
		"count":    len(entries),
	})
}

// MyShiftTonight runs the two-entry overnight lookup for the caller
func (e *Env) MyShiftTonight(c *gin.Context) {
	db, ok := e.companyDB(c)
	if !ok {
		return
	}
	userID, ok := middleware.GetAuthUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Not authenticated"})
		return
	}

	res := e.resolver(c, db)
	my, err := e.scheduleService(db).FindMyShiftTonight(c.Request.Context(), res, userID)
	if err != nil {
		respondError(c, err)
		return
	}

	if my == nil {
		c.JSON(http.StatusOK, gin.H{"has_shift": false})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"has_shift":     true,
		"entry":         my.Entry,
		"shift_type":    my.ShiftType,
		"shift_context": my.ShiftContext,
	})
}

// GenerateSchedule creates entries for a date range from the rotation
func (e *Env) GenerateSchedule(c *gin.Context) {
	db, ok := e.companyDB(c)
	if !ok {
		return
	}

	var req models.ScheduleGenerateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request", "details": err.Error()})
		return
	}

	entries, err := e.scheduleService(db).Generate(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"created": len(entries),
		"entries": entries,
	})
}

// SkipScheduleDate removes one date and shifts the rotation back
func (e *Env) SkipScheduleDate(c *gin.Context) {
	db, ok := e.companyDB(c)
	if !ok {
		return
	}

	var req models.SkipDateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request", "details": err.Error()})
		return
	}

	shifted, err := e.scheduleService(db).SkipDate(c.Request.Context(), req.Date, req.Reason)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":         true,
		"entries_shifted": shifted,
	})
}

// ReassignScheduleSlot manually overrides one shift position
func (e *Env) ReassignScheduleSlot(c *gin.Context) {
	db, ok := e.companyDB(c)
	if !ok {
		return
	}

	entryID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid schedule entry ID"})
		return
	}

	var req models.ReassignSlotRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request", "details": err.Error()})
		return
	}

	if err := e.scheduleService(db).ReassignSlot(c.Request.Context(), entryID, req); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true})
}
