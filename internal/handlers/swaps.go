package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/unithq/cqhub-go/internal/database"
	"github.com/unithq/cqhub-go/internal/middleware"
	"github.com/unithq/cqhub-go/internal/models"
	"github.com/unithq/cqhub-go/internal/roles"
	"github.com/unithq/cqhub-go/internal/schedule"
)

func (e *Env) swapActor(c *gin.Context, db *pgxpool.Pool) (schedule.Actor, bool) {
	userID, ok := middleware.GetAuthUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Not authenticated"})
		return schedule.Actor{}, false
	}
	p, err := fetchPersonnel(c, db, userID)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Personnel record not found"})
		return schedule.Actor{}, false
	}
	return schedule.Actor{ID: p.ID, Name: p.DisplayName}, true
}

// CreateSwapRequest opens a shift swap request. Requests are only accepted
// before the company's weekly swap deadline.
func (e *Env) CreateSwapRequest(c *gin.Context) {
	db, ok := e.companyDB(c)
	if !ok {
		return
	}
	actor, ok := e.swapActor(c, db)
	if !ok {
		return
	}

	var req models.SwapCreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request", "details": err.Error()})
		return
	}

	settings := database.NewSettings(db)
	res := e.resolver(c, db)
	dayVal, errDay := settings.Get(c.Request.Context(), models.SettingSwapDeadlineDay)
	deadlineTime, errTime := settings.GetString(c.Request.Context(), models.SettingSwapDeadlineTime)
	if errDay == nil && errTime == nil {
		if day, isInt := dayVal.(int); isInt {
			beforeDeadline, err := res.BeforeWeeklyDeadline(time.Weekday(day), deadlineTime)
			if err == nil && !beforeDeadline {
				c.JSON(http.StatusBadRequest, gin.H{"error": "The swap deadline for this week has passed"})
				return
			}
		}
	}

	swap, err := e.scheduleService(db).CreateSwap(c.Request.Context(), actor, req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, swap)
}

// ListSwapRequests returns swap requests, optionally filtered by status
func (e *Env) ListSwapRequests(c *gin.Context) {
	db, ok := e.companyDB(c)
	if !ok {
		return
	}

	swaps, err := e.scheduleService(db).ListSwaps(c.Request.Context(), c.Query("status"))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"swap_requests": swaps,
		"count":         len(swaps),
	})
}

// ApproveSwapRequest resolves a pending swap, updating the schedule
func (e *Env) ApproveSwapRequest(c *gin.Context) {
	db, ok := e.companyDB(c)
	if !ok {
		return
	}
	actor, ok := e.swapActor(c, db)
	if !ok {
		return
	}

	swapID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid swap request ID"})
		return
	}

	swap, err := e.scheduleService(db).ApproveSwap(c.Request.Context(), swapID, actor)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, swap)
}

// RejectSwapRequest resolves a pending swap without touching the schedule
func (e *Env) RejectSwapRequest(c *gin.Context) {
	db, ok := e.companyDB(c)
	if !ok {
		return
	}
	actor, ok := e.swapActor(c, db)
	if !ok {
		return
	}

	swapID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid swap request ID"})
		return
	}

	swap, err := e.scheduleService(db).RejectSwap(c.Request.Context(), swapID, actor)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, swap)
}

// CancelSwapRequest withdraws a pending swap
func (e *Env) CancelSwapRequest(c *gin.Context) {
	db, ok := e.companyDB(c)
	if !ok {
		return
	}
	actor, ok := e.swapActor(c, db)
	if !ok {
		return
	}

	swapID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid swap request ID"})
		return
	}

	role, _ := middleware.GetAuthRole(c)
	isApprover := roles.Has(role, roles.PermApproveSwap)

	swap, err := e.scheduleService(db).CancelSwap(c.Request.Context(), swapID, actor, isApprover)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, swap)
}
