package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/unithq/cqhub-go/internal/auth"
	"github.com/unithq/cqhub-go/internal/roles"
)

const (
	authUserKey     = "auth_user_id"
	authUsernameKey = "auth_username"
	authRoleKey     = "auth_role"
)

// RequireAuth validates JWT token and sets user context
func RequireAuth(jwtService *auth.JWTService) gin.HandlerFunc {
	return func(c *gin.Context) {
		// Extract token from Authorization header
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Authorization header required"})
			c.Abort()
			return
		}

		// Check for Bearer token format
		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || parts[0] != "Bearer" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid authorization format. Use: Bearer <token>"})
			c.Abort()
			return
		}

		tokenString := parts[1]

		// Validate token
		claims, err := jwtService.ValidateToken(tokenString)
		if err != nil {
			if err == auth.ErrExpiredToken {
				c.JSON(http.StatusUnauthorized, gin.H{"error": "Token has expired"})
			} else {
				c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid token"})
			}
			c.Abort()
			return
		}

		// Verify token belongs to the correct company
		company, exists := GetCompany(c)
		if exists && company.ID != claims.CompanyID {
			c.JSON(http.StatusForbidden, gin.H{"error": "Token does not belong to this company"})
			c.Abort()
			return
		}

		// Store user info in context
		c.Set(authUserKey, claims.UserID)
		c.Set(authUsernameKey, claims.Username)
		c.Set(authRoleKey, claims.Role)

		c.Next()
	}
}

// RequirePermission gates an endpoint on the role->permission mapping. Every
// role check in the API goes through this; handlers never compare roles.
func RequirePermission(p roles.Permission) gin.HandlerFunc {
	return func(c *gin.Context) {
		role, exists := GetAuthRole(c)
		if !exists {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Authentication required"})
			c.Abort()
			return
		}

		if !roles.Has(role, p) {
			c.JSON(http.StatusForbidden, gin.H{"error": "Insufficient permissions for this action"})
			c.Abort()
			return
		}

		c.Next()
	}
}

// GetAuthUserID retrieves the authenticated user ID from context
func GetAuthUserID(c *gin.Context) (uuid.UUID, bool) {
	userID, exists := c.Get(authUserKey)
	if !exists {
		return uuid.Nil, false
	}
	return userID.(uuid.UUID), true
}

// GetAuthUsername retrieves the authenticated username from context
func GetAuthUsername(c *gin.Context) (string, bool) {
	username, exists := c.Get(authUsernameKey)
	if !exists {
		return "", false
	}
	return username.(string), true
}

// GetAuthRole retrieves the authenticated user's role from context
func GetAuthRole(c *gin.Context) (roles.Role, bool) {
	role, exists := c.Get(authRoleKey)
	if !exists {
		return roles.RoleMember, false
	}
	return role.(roles.Role), true
}
