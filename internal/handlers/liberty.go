package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/unithq/cqhub-go/internal/liberty"
	"github.com/unithq/cqhub-go/internal/middleware"
	"github.com/unithq/cqhub-go/internal/models"
	"github.com/unithq/cqhub-go/internal/roles"
)

func (e *Env) libertyRequester(c *gin.Context, db *pgxpool.Pool, userID uuid.UUID) (liberty.Requester, bool) {
	p, err := fetchPersonnel(c, db, userID)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Personnel record not found"})
		return liberty.Requester{}, false
	}
	return liberty.Requester{ID: p.ID, Name: p.DisplayName, Email: p.Email, Rank: p.Rank}, true
}

func (e *Env) libertyApprover(c *gin.Context, db *pgxpool.Pool) (liberty.Approver, bool) {
	userID, ok := middleware.GetAuthUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Not authenticated"})
		return liberty.Approver{}, false
	}
	p, err := fetchPersonnel(c, db, userID)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Personnel record not found"})
		return liberty.Approver{}, false
	}
	return liberty.Approver{ID: p.ID, FirstName: p.FirstName, LastName: p.LastName, Name: p.DisplayName}, true
}

// CreateLibertyRequest files a pass request for the caller, or on someone's
// behalf when the caller holds the approval permission.
func (e *Env) CreateLibertyRequest(c *gin.Context) {
	db, ok := e.companyDB(c)
	if !ok {
		return
	}
	userID, ok := middleware.GetAuthUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Not authenticated"})
		return
	}

	var req models.LibertyCreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request", "details": err.Error()})
		return
	}
	if req.WeekendDate == "" {
		req.WeekendDate = e.resolver(c, db).WeekendAnchor()
	}

	role, _ := middleware.GetAuthRole(c)
	targetID := userID
	var creator *liberty.Approver
	if req.OnBehalfOf != nil || req.AutoApprove {
		if !roles.Has(role, roles.PermApproveLiberty) {
			c.JSON(http.StatusForbidden, gin.H{"error": "Creating requests on behalf of others requires approval permission"})
			return
		}
		if req.OnBehalfOf != nil {
			targetID = *req.OnBehalfOf
		}
		approver, ok := e.libertyApprover(c, db)
		if !ok {
			return
		}
		creator = &approver
	}

	requester, ok := e.libertyRequester(c, db, targetID)
	if !ok {
		return
	}

	result, err := e.libertyService(c, db).Create(c.Request.Context(), requester, req, creator)
	if err != nil {
		respondError(c, err)
		return
	}

	if result.IsDuplicate {
		c.JSON(http.StatusOK, result)
		return
	}
	c.JSON(http.StatusCreated, result)
}

// ListLibertyRequests returns requests filtered by weekend/status
func (e *Env) ListLibertyRequests(c *gin.Context) {
	db, ok := e.companyDB(c)
	if !ok {
		return
	}

	reqs, err := e.libertyService(c, db).ListRequests(c.Request.Context(), c.Query("weekend"), c.Query("status"))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"requests": reqs,
		"count":    len(reqs),
	})
}

// ListMyLibertyRequests returns the caller's own requests
func (e *Env) ListMyLibertyRequests(c *gin.Context) {
	db, ok := e.companyDB(c)
	if !ok {
		return
	}
	userID, ok := middleware.GetAuthUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Not authenticated"})
		return
	}

	reqs, err := e.libertyService(c, db).ListMine(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"requests": reqs,
		"count":    len(reqs),
	})
}

// ApproveLibertyRequest stamps a pending request approved
func (e *Env) ApproveLibertyRequest(c *gin.Context) {
	db, ok := e.companyDB(c)
	if !ok {
		return
	}
	approver, ok := e.libertyApprover(c, db)
	if !ok {
		return
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request ID"})
		return
	}

	req, err := e.libertyService(c, db).Approve(c.Request.Context(), id, approver)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, req)
}

// RejectLibertyRequest stamps a pending request rejected
func (e *Env) RejectLibertyRequest(c *gin.Context) {
	db, ok := e.companyDB(c)
	if !ok {
		return
	}
	approver, ok := e.libertyApprover(c, db)
	if !ok {
		return
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request ID"})
		return
	}

	req, err := e.libertyService(c, db).Reject(c.Request.Context(), id, approver)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, req)
}

type cancelRequest struct {
	Reason *string `json:"reason,omitempty"`
}

// CancelLibertyRequest withdraws a pending or approved request
func (e *Env) CancelLibertyRequest(c *gin.Context) {
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
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request ID"})
		return
	}

	var body cancelRequest
	_ = c.ShouldBindJSON(&body)

	role, _ := middleware.GetAuthRole(c)
	isApprover := roles.Has(role, roles.PermApproveLiberty)

	req, err := e.libertyService(c, db).Cancel(c.Request.Context(), id, userID, isApprover, body.Reason)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, req)
}

// BulkApproveLibertyRequests approves a list of IDs independently
func (e *Env) BulkApproveLibertyRequests(c *gin.Context) {
	db, ok := e.companyDB(c)
	if !ok {
		return
	}
	approver, ok := e.libertyApprover(c, db)
	if !ok {
		return
	}

	var req models.BulkDecisionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request", "details": err.Error()})
		return
	}

	results := e.libertyService(c, db).BulkApprove(c.Request.Context(), req.IDs, approver)
	c.JSON(http.StatusOK, gin.H{"results": results})
}

// BulkRejectLibertyRequests rejects a list of IDs independently
func (e *Env) BulkRejectLibertyRequests(c *gin.Context) {
	db, ok := e.companyDB(c)
	if !ok {
		return
	}
	approver, ok := e.libertyApprover(c, db)
	if !ok {
		return
	}

	var req models.BulkDecisionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request", "details": err.Error()})
		return
	}

	results := e.libertyService(c, db).BulkReject(c.Request.Context(), req.IDs, approver)
	c.JSON(http.StatusOK, gin.H{"results": results})
}

// JoinLibertyTimeSlot adds the caller to a ride/party list
func (e *Env) JoinLibertyTimeSlot(c *gin.Context) {
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
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request ID"})
		return
	}
	slotIndex, err := strconv.Atoi(c.Param("slot"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid slot index"})
		return
	}

	joiner, ok := e.libertyRequester(c, db, userID)
	if !ok {
		return
	}

	req, err := e.libertyService(c, db).JoinTimeSlot(c.Request.Context(), id, slotIndex, joiner)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, req)
}

// LeaveLibertyTimeSlot removes the caller from a ride/party list
func (e *Env) LeaveLibertyTimeSlot(c *gin.Context) {
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
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request ID"})
		return
	}
	slotIndex, err := strconv.Atoi(c.Param("slot"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid slot index"})
		return
	}

	req, err := e.libertyService(c, db).LeaveTimeSlot(c.Request.Context(), id, slotIndex, userID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, req)
}
