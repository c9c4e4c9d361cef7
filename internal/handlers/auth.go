package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/unithq/cqhub-go/internal/middleware"
	"github.com/unithq/cqhub-go/internal/roles"
)

type LoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type LoginResponse struct {
	Token       string    `json:"token"`
	UserID      uuid.UUID `json:"user_id"`
	Username    string    `json:"username"`
	DisplayName string    `json:"display_name"`
	Role        string    `json:"role"`
	CompanyID   uuid.UUID `json:"company_id"`
}

// Login authenticates a soldier against the company roster and returns a JWT.
func (e *Env) Login(c *gin.Context) {
	db, ok := e.companyDB(c)
	if !ok {
		return
	}

	company, ok := middleware.GetCompany(c)
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Company context required"})
		return
	}

	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request", "details": err.Error()})
		return
	}

	username := strings.ToLower(strings.TrimSpace(req.Username))

	query := `
		SELECT id, username, display_name, role, password_hash, login_enabled, is_active
		FROM personnel
		WHERE LOWER(username) = $1
	`

	var userID uuid.UUID
	var dbUsername, displayName, roleName string
	var passwordHash *string
	var loginEnabled, isActive bool

	err := db.QueryRow(c.Request.Context(), query, username).Scan(
		&userID, &dbUsername, &displayName, &roleName, &passwordHash, &loginEnabled, &isActive,
	)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid username or password"})
		return
	}

	if !loginEnabled || !isActive {
		c.JSON(http.StatusForbidden, gin.H{"error": "Login is disabled for this user"})
		return
	}

	if passwordHash == nil || *passwordHash == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Password authentication not configured for this user"})
		return
	}

	if err := bcrypt.CompareHashAndPassword([]byte(*passwordHash), []byte(req.Password)); err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid username or password"})
		return
	}

	role := roles.Parse(roleName)
	token, err := e.JWT.GenerateToken(userID, company.ID, dbUsername, role)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to generate token"})
		return
	}

	// best-effort login stamp
	_, _ = db.Exec(c.Request.Context(), `UPDATE personnel SET last_login = NOW() WHERE id = $1`, userID)

	c.JSON(http.StatusOK, LoginResponse{
		Token:       token,
		UserID:      userID,
		Username:    dbUsername,
		DisplayName: displayName,
		Role:        string(role),
		CompanyID:   company.ID,
	})
}
