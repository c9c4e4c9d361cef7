package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/unithq/cqhub-go/internal/middleware"
	"github.com/unithq/cqhub-go/internal/models"
)

// GetMe returns the caller's own personnel record
func (e *Env) GetMe(c *gin.Context) {
	db, ok := e.companyDB(c)
	if !ok {
		return
	}
	userID, ok := middleware.GetAuthUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Not authenticated"})
		return
	}

	p, err := fetchPersonnel(c, db, userID)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Personnel record not found"})
		return
	}
	c.JSON(http.StatusOK, p)
}

// UpdateProfile patches the caller's own contact fields
func (e *Env) UpdateProfile(c *gin.Context) {
	db, ok := e.companyDB(c)
	if !ok {
		return
	}
	userID, ok := middleware.GetAuthUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Not authenticated"})
		return
	}

	var req models.UpdateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request", "details": err.Error()})
		return
	}

	_, err := db.Exec(c.Request.Context(), `
		UPDATE personnel
		SET display_name = COALESCE($1, display_name),
		    email = COALESCE($2, email),
		    phone_number = COALESCE($3, phone_number),
		    room_number = COALESCE($4, room_number),
		    updated_at = NOW()
		WHERE id = $5
	`, req.DisplayName, req.Email, req.PhoneNumber, req.RoomNumber, userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update profile"})
		return
	}

	p, err := fetchPersonnel(c, db, userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load updated profile"})
		return
	}
	c.JSON(http.StatusOK, p)
}

// RegisterPushToken adds a device token to the caller's record. Registration
// is idempotent: an already-registered token is not duplicated.
func (e *Env) RegisterPushToken(c *gin.Context) {
	db, ok := e.companyDB(c)
	if !ok {
		return
	}
	userID, ok := middleware.GetAuthUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Not authenticated"})
		return
	}

	var req models.PushTokenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request", "details": err.Error()})
		return
	}

	_, err := db.Exec(c.Request.Context(), `
		UPDATE personnel
		SET fcm_tokens = array_append(array_remove(fcm_tokens, $1), $1), updated_at = NOW()
		WHERE id = $2
	`, req.Token, userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to register push token"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true})
}

// RemovePushToken strips a device token from the caller's record
func (e *Env) RemovePushToken(c *gin.Context) {
	db, ok := e.companyDB(c)
	if !ok {
		return
	}
	userID, ok := middleware.GetAuthUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Not authenticated"})
		return
	}

	var req models.PushTokenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request", "details": err.Error()})
		return
	}

	_, err := db.Exec(c.Request.Context(), `
		UPDATE personnel
		SET fcm_tokens = array_remove(fcm_tokens, $1), updated_at = NOW()
		WHERE id = $2
	`, req.Token, userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to remove push token"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true})
}
