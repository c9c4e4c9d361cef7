package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/unithq/cqhub-go/internal/models"
)

// ListPersonnel returns the company roster
func (e *Env) ListPersonnel(c *gin.Context) {
	db, ok := e.companyDB(c)
	if !ok {
		return
	}

	query := `
		SELECT id, username, display_name, rank, role, platoon, is_active
		FROM personnel
		ORDER BY last_name, first_name
	`
	if c.Query("active") == "true" {
		query = `
			SELECT id, username, display_name, rank, role, platoon, is_active
			FROM personnel
			WHERE is_active = true
			ORDER BY last_name, first_name
		`
	}

	rows, err := db.Query(c.Request.Context(), query)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to query personnel"})
		return
	}
	defer rows.Close()

	roster := []models.PersonnelListResponse{}
	for rows.Next() {
		var p models.PersonnelListResponse
		err := rows.Scan(&p.ID, &p.Username, &p.DisplayName, &p.Rank, &p.Role, &p.Platoon, &p.IsActive)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to parse personnel data"})
			return
		}
		roster = append(roster, p)
	}

	c.JSON(http.StatusOK, gin.H{
		"personnel": roster,
		"count":     len(roster),
	})
}

// GetPersonnel returns one full personnel record
func (e *Env) GetPersonnel(c *gin.Context) {
	db, ok := e.companyDB(c)
	if !ok {
		return
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid personnel ID"})
		return
	}

	p, err := fetchPersonnel(c, db, id)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Personnel not found"})
		return
	}

	c.JSON(http.StatusOK, p)
}
