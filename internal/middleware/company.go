package middleware

import (
	"context"
	"net/http"
	"regexp"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/unithq/cqhub-go/internal/models"
)

// contextKey namespaces the company routing values in gin context.
type contextKey string

const (
	CompanyContextKey contextKey = "company"
	CompanyIDKey      contextKey = "company_id"
	CompanySlugKey    contextKey = "company_slug"
	CompanyDBKey      contextKey = "company_db"
)

var slugRegex = regexp.MustCompile(`^[a-z0-9][a-z0-9-]*[a-z0-9]$`)

// CompanyDBProvider interface for getting company database connections
type CompanyDBProvider interface {
	GetCompanyDBBySlug(ctx context.Context, slug string) (*pgxpool.Pool, *models.Company, error)
}

// ExtractCompanySlug extracts the company slug from subdomain
// Examples:
//   - bco-2-58.cqhub.app → "bco-2-58"
//   - hhc-libertybase.cqhub.app → "hhc-libertybase"
//   - api.cqhub.app → "" (no company, API-only)
func ExtractCompanySlug(host string, baseDomain string) string {
	// Remove port if present
	if idx := strings.Index(host, ":"); idx != -1 {
		host = host[:idx]
	}

	host = strings.ToLower(host)
	baseDomain = strings.ToLower(baseDomain)

	// If host equals base domain or www, no slug
	if host == baseDomain || host == "www."+baseDomain {
		return ""
	}

	// Check if host ends with base domain
	if !strings.HasSuffix(host, "."+baseDomain) {
		return ""
	}

	// Extract subdomain
	slug := strings.TrimSuffix(host, "."+baseDomain)

	// Reserved subdomains that are not company slugs
	reserved := map[string]bool{
		"api":     true,
		"www":     true,
		"app":     true,
		"admin":   true,
		"staging": true,
		"dev":     true,
	}

	if reserved[slug] {
		return ""
	}

	return slug
}

// CompanyMiddleware extracts the company slug from the subdomain and loads the
// company context plus its database connection.
func CompanyMiddleware(dbProvider CompanyDBProvider, baseDomain string) gin.HandlerFunc {
	return func(c *gin.Context) {
		host := c.Request.Host
		slug := ExtractCompanySlug(host, baseDomain)

		// If no slug, continue without company context (API-only routes)
		if slug == "" {
			c.Next()
			return
		}

		// Validate slug format
		if !ValidateSlug(slug) {
			c.JSON(http.StatusBadRequest, gin.H{
				"error": "Invalid company identifier",
			})
			c.Abort()
			return
		}

		// Look up company and get database connection
		companyDB, company, err := dbProvider.GetCompanyDBBySlug(c.Request.Context(), slug)
		if err != nil {
			c.JSON(http.StatusNotFound, gin.H{
				"error": "Company not found",
				"slug":  slug,
			})
			c.Abort()
			return
		}

		// Check if company is active
		if company.Status != "active" {
			c.JSON(http.StatusForbidden, gin.H{
				"error": "Company account is inactive",
			})
			c.Abort()
			return
		}

		// Store company info and DB connection in context
		c.Set(string(CompanyIDKey), company.ID)
		c.Set(string(CompanySlugKey), company.Slug)
		c.Set(string(CompanyContextKey), company)
		c.Set(string(CompanyDBKey), companyDB)

		c.Next()
	}
}

// RequireCompany ensures a company context exists
func RequireCompany() gin.HandlerFunc {
	return func(c *gin.Context) {
		_, exists := c.Get(string(CompanyIDKey))
		if !exists {
			c.JSON(http.StatusBadRequest, gin.H{
				"error": "Company context required. Please access via your unit subdomain (e.g., yourcompany.cqhub.app)",
			})
			c.Abort()
			return
		}
		c.Next()
	}
}

// GetCompanyID retrieves company ID from context
func GetCompanyID(c *gin.Context) (uuid.UUID, bool) {
	val, exists := c.Get(string(CompanyIDKey))
	if !exists {
		return uuid.Nil, false
	}
	id, ok := val.(uuid.UUID)
	return id, ok
}

// GetCompanySlug retrieves company slug from context
func GetCompanySlug(c *gin.Context) (string, bool) {
	val, exists := c.Get(string(CompanySlugKey))
	if !exists {
		return "", false
	}
	slug, ok := val.(string)
	return slug, ok
}

// GetCompanyDB retrieves the company database connection from context
func GetCompanyDB(c *gin.Context) (*pgxpool.Pool, bool) {
	val, exists := c.Get(string(CompanyDBKey))
	if !exists {
		return nil, false
	}
	db, ok := val.(*pgxpool.Pool)
	return db, ok
}

// GetCompany retrieves the full company object from context
func GetCompany(c *gin.Context) (*models.Company, bool) {
	val, exists := c.Get(string(CompanyContextKey))
	if !exists {
		return nil, false
	}
	company, ok := val.(*models.Company)
	return company, ok
}

// ValidateSlug checks if a slug is valid
// Rules:
//   - 3-50 characters
//   - Lowercase letters, numbers, hyphens only
//   - Must start and end with letter or number
//   - Cannot have consecutive hyphens
func ValidateSlug(slug string) bool {
	if len(slug) < 3 || len(slug) > 50 {
		return false
	}

	if !slugRegex.MatchString(slug) {
		return false
	}

	// No consecutive hyphens
	if strings.Contains(slug, "--") {
		return false
	}

	return true
}
