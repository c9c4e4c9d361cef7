package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/unithq/cqhub-go/internal/middleware"
	"github.com/unithq/cqhub-go/internal/models"
)

// ListDetailTypes returns the active detail categories
func (e *Env) ListDetailTypes(c *gin.Context) {
	db, ok := e.companyDB(c)
	if !ok {
		return
	}

	rows, err := db.Query(c.Request.Context(), `
		SELECT id, name, description, category, estimated_minutes,
		       requires_inspection, rotation_eligible, active, created_at, updated_at
		FROM detail_types
		WHERE active = true
		ORDER BY category, name
	`)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to query detail types"})
		return
	}
	defer rows.Close()

	types := []models.DetailType{}
	for rows.Next() {
		var dt models.DetailType
		err := rows.Scan(&dt.ID, &dt.Name, &dt.Description, &dt.Category, &dt.EstimatedMinutes,
			&dt.RequiresInspect, &dt.RotationEligible, &dt.Active, &dt.CreatedAt, &dt.UpdatedAt)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to parse detail type"})
			return
		}
		types = append(types, dt)
	}

	c.JSON(http.StatusOK, gin.H{
		"detail_types": types,
		"count":        len(types),
	})
}

// CreateDetailType adds a detail category
func (e *Env) CreateDetailType(c *gin.Context) {
	db, ok := e.companyDB(c)
	if !ok {
		return
	}

	var req models.DetailTypeCreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request", "details": err.Error()})
		return
	}

	id := uuid.New()
	_, err := db.Exec(c.Request.Context(), `
		INSERT INTO detail_types (
			id, name, description, category, estimated_minutes,
			requires_inspection, rotation_eligible, active, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, true, NOW(), NOW())
	`, id, req.Name, req.Description, req.Category, req.EstimatedMinutes,
		req.RequiresInspect, req.RotationEligible)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create detail type"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{"id": id})
}

// ListDetailAssignments returns assignments, optionally filtered by status or assignee
func (e *Env) ListDetailAssignments(c *gin.Context) {
	db, ok := e.companyDB(c)
	if !ok {
		return
	}

	query := `
		SELECT id, detail_type_id, assigned_to, assigned_by, status, due_date,
		       completed_at, verified_at, completion_notes, inspection_notes,
		       created_at, updated_at
		FROM detail_assignments
		WHERE 1=1
	`
	args := []any{}
	if status := c.Query("status"); status != "" {
		args = append(args, status)
		query += ` AND status = $1`
	}
	if assignee := c.Query("assigned_to"); assignee != "" {
		id, err := uuid.Parse(assignee)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid assigned_to filter"})
			return
		}
		args = append(args, id)
		if len(args) == 1 {
			query += ` AND assigned_to = $1`
		} else {
			query += ` AND assigned_to = $2`
		}
	}
	query += ` ORDER BY created_at DESC`

	rows, err := db.Query(c.Request.Context(), query, args...)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to query detail assignments"})
		return
	}
	defer rows.Close()

	assignments := []models.DetailAssignment{}
	for rows.Next() {
		var a models.DetailAssignment
		err := rows.Scan(&a.ID, &a.DetailTypeID, &a.AssignedTo, &a.AssignedBy, &a.Status,
			&a.DueDate, &a.CompletedAt, &a.VerifiedAt, &a.CompletionNotes, &a.InspectionNotes,
			&a.CreatedAt, &a.UpdatedAt)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to parse detail assignment"})
			return
		}
		assignments = append(assignments, a)
	}

	c.JSON(http.StatusOK, gin.H{
		"assignments": assignments,
		"count":       len(assignments),
	})
}

// CreateDetailAssignment cuts a detail to a soldier, or leaves it open for claiming
func (e *Env) CreateDetailAssignment(c *gin.Context) {
	db, ok := e.companyDB(c)
	if !ok {
		return
	}

	var req models.DetailAssignRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request", "details": err.Error()})
		return
	}

	var assignedBy *uuid.UUID
	if uid, ok := middleware.GetAuthUserID(c); ok {
		assignedBy = &uid
	}

	status := models.DetailStatusOpen
	if req.AssignedTo != nil {
		status = models.DetailStatusPending
	}

	id := uuid.New()
	_, err := db.Exec(c.Request.Context(), `
		INSERT INTO detail_assignments (
			id, detail_type_id, assigned_to, assigned_by, status, due_date, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, NOW(), NOW())
	`, id, req.DetailTypeID, req.AssignedTo, assignedBy, status, req.DueDate)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create detail assignment"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{"id": id, "status": status})
}
