package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/unithq/cqhub-go/internal/middleware"
	"github.com/unithq/cqhub-go/internal/models"
	"github.com/unithq/cqhub-go/internal/store"
)

// ClaimDetail lets a soldier take an open detail assignment
func (e *Env) ClaimDetail(c *gin.Context) {
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
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid assignment ID"})
		return
	}

	// the status guard in the WHERE clause makes claiming first-wins
	result, err := db.Exec(c.Request.Context(), `
		UPDATE detail_assignments
		SET assigned_to = $1, status = $2, updated_at = NOW()
		WHERE id = $3 AND status = $4 AND assigned_to IS NULL
	`, userID, models.DetailStatusPending, id, models.DetailStatusOpen)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to claim detail"})
		return
	}
	if result.RowsAffected() == 0 {
		c.JSON(http.StatusConflict, gin.H{"error": "Detail is no longer open for claiming"})
		return
	}

	e.Hub.Publish(store.TopicDetails, "updated", id)
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// CompleteDetail marks an assignment done. Details requiring inspection move
// to pending verification; the rest verify immediately.
func (e *Env) CompleteDetail(c *gin.Context) {
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
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid assignment ID"})
		return
	}

	var req models.DetailCompleteRequest
	_ = c.ShouldBindJSON(&req)

	var requiresInspection bool
	err = db.QueryRow(c.Request.Context(), `
		SELECT dt.requires_inspection
		FROM detail_assignments da
		JOIN detail_types dt ON dt.id = da.detail_type_id
		WHERE da.id = $1 AND da.assigned_to = $2
	`, id, userID).Scan(&requiresInspection)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Assignment not found or not yours"})
		return
	}

	newStatus := models.DetailStatusVerified
	if requiresInspection {
		newStatus = models.DetailStatusPendingVerification
	}

	result, err := db.Exec(c.Request.Context(), `
		UPDATE detail_assignments
		SET status = $1, completed_at = NOW(), completion_notes = $2,
		    verified_at = CASE WHEN $1 = 'verified' THEN NOW() ELSE NULL END,
		    updated_at = NOW()
		WHERE id = $3 AND assigned_to = $4 AND status = $5
	`, newStatus, req.Notes, id, userID, models.DetailStatusPending)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to complete detail"})
		return
	}
	if result.RowsAffected() == 0 {
		c.JSON(http.StatusConflict, gin.H{"error": "Assignment is not in a completable state"})
		return
	}

	e.Hub.Publish(store.TopicDetails, "updated", id)
	c.JSON(http.StatusOK, gin.H{"success": true, "status": newStatus})
}

// VerifyDetail resolves a pending-verification assignment after inspection.
// A failed inspection sends it back to pending with the inspector's notes.
func (e *Env) VerifyDetail(c *gin.Context) {
	db, ok := e.companyDB(c)
	if !ok {
		return
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid assignment ID"})
		return
	}

	var req models.DetailVerifyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request", "details": err.Error()})
		return
	}

	newStatus := models.DetailStatusVerified
	if !req.Approved {
		newStatus = models.DetailStatusPending
	}

	result, err := db.Exec(c.Request.Context(), `
		UPDATE detail_assignments
		SET status = $1, inspection_notes = $2,
		    verified_at = CASE WHEN $1 = 'verified' THEN NOW() ELSE NULL END,
		    completed_at = CASE WHEN $1 = 'pending' THEN NULL ELSE completed_at END,
		    updated_at = NOW()
		WHERE id = $3 AND status = $4
	`, newStatus, req.InspectionNotes, id, models.DetailStatusPendingVerification)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to verify detail"})
		return
	}
	if result.RowsAffected() == 0 {
		c.JSON(http.StatusConflict, gin.H{"error": "Assignment is not awaiting verification"})
		return
	}

	e.Hub.Publish(store.TopicDetails, "updated", id)
	c.JSON(http.StatusOK, gin.H{"success": true, "status": newStatus})
}
