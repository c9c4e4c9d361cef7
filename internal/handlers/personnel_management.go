package handlers

import (
	"encoding/csv"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"golang.org/x/crypto/bcrypt"

	"github.com/unithq/cqhub-go/internal/models"
	"github.com/unithq/cqhub-go/internal/roles"
)

func fetchPersonnel(c *gin.Context, db *pgxpool.Pool, id uuid.UUID) (*models.Personnel, error) {
	query := `
		SELECT id, username, first_name, last_name, display_name, rank, role,
		       platoon, room_number, email, phone_number, fcm_tokens,
		       login_enabled, is_active, last_login, created_at, updated_at
		FROM personnel
		WHERE id = $1
	`
	var p models.Personnel
	err := db.QueryRow(c.Request.Context(), query, id).Scan(
		&p.ID, &p.Username, &p.FirstName, &p.LastName, &p.DisplayName, &p.Rank,
		&p.Role, &p.Platoon, &p.RoomNumber, &p.Email, &p.PhoneNumber, &p.FCMTokens,
		&p.LoginEnabled, &p.IsActive, &p.LastLogin, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// CreatePersonnel adds a soldier to the roster
func (e *Env) CreatePersonnel(c *gin.Context) {
	db, ok := e.companyDB(c)
	if !ok {
		return
	}

	var req models.PersonnelCreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request", "details": err.Error()})
		return
	}

	role := roles.Parse(req.Role)
	username := strings.ToLower(strings.TrimSpace(req.Username))
	displayName := fmt.Sprintf("%s %s", req.FirstName, req.LastName)

	var passwordHash *string
	if req.Password != nil && *req.Password != "" {
		hash, err := bcrypt.GenerateFromPassword([]byte(*req.Password), bcrypt.DefaultCost)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to hash password"})
			return
		}
		h := string(hash)
		passwordHash = &h
	}

	id := uuid.New()
	_, err := db.Exec(c.Request.Context(), `
		INSERT INTO personnel (
			id, username, first_name, last_name, display_name, rank, role,
			platoon, room_number, email, phone_number, password_hash,
			login_enabled, is_active, fcm_tokens, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, true, '{}', NOW(), NOW())
	`, id, username, req.FirstName, req.LastName, displayName, req.Rank, string(role),
		req.Platoon, req.RoomNumber, req.Email, req.PhoneNumber, passwordHash, req.LoginEnabled)
	if err != nil {
		c.JSON(http.StatusConflict, gin.H{"error": "Failed to create personnel record; username may be taken"})
		return
	}

	p, err := fetchPersonnel(c, db, id)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load created record"})
		return
	}
	c.JSON(http.StatusCreated, p)
}

// UpdatePersonnel patches the provided fields on a roster record
func (e *Env) UpdatePersonnel(c *gin.Context) {
	db, ok := e.companyDB(c)
	if !ok {
		return
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid personnel ID"})
		return
	}

	var req models.PersonnelUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request", "details": err.Error()})
		return
	}

	sets := []string{"updated_at = NOW()"}
	args := []any{}
	add := func(column string, value any) {
		args = append(args, value)
		sets = append(sets, fmt.Sprintf("%s = $%d", column, len(args)))
	}

	if req.Username != nil {
		add("username", strings.ToLower(strings.TrimSpace(*req.Username)))
	}
	if req.FirstName != nil {
		add("first_name", *req.FirstName)
	}
	if req.LastName != nil {
		add("last_name", *req.LastName)
	}
	if req.Rank != nil {
		add("rank", *req.Rank)
	}
	if req.Role != nil {
		if !roles.Valid(*req.Role) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Unknown role"})
			return
		}
		add("role", *req.Role)
	}
	if req.Platoon != nil {
		add("platoon", *req.Platoon)
	}
	if req.RoomNumber != nil {
		add("room_number", *req.RoomNumber)
	}
	if req.Email != nil {
		add("email", *req.Email)
	}
	if req.PhoneNumber != nil {
		add("phone_number", *req.PhoneNumber)
	}
	if req.LoginEnabled != nil {
		add("login_enabled", *req.LoginEnabled)
	}

	args = append(args, id)
	query := fmt.Sprintf(`UPDATE personnel SET %s WHERE id = $%d`,
		strings.Join(sets, ", "), len(args))

	result, err := db.Exec(c.Request.Context(), query, args...)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update personnel record"})
		return
	}
	if result.RowsAffected() == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "Personnel not found"})
		return
	}

	p, err := fetchPersonnel(c, db, id)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load updated record"})
		return
	}
	c.JSON(http.StatusOK, p)
}

// DeactivatePersonnel soft-deletes a roster record
func (e *Env) DeactivatePersonnel(c *gin.Context) {
	db, ok := e.companyDB(c)
	if !ok {
		return
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid personnel ID"})
		return
	}

	result, err := db.Exec(c.Request.Context(), `
		UPDATE personnel SET is_active = false, login_enabled = false, updated_at = NOW()
		WHERE id = $1
	`, id)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to deactivate personnel"})
		return
	}
	if result.RowsAffected() == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "Personnel not found"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true})
}

// csvHeader is the column order for roster import/export.
var csvHeader = []string{"username", "first_name", "last_name", "rank", "role", "platoon", "room_number", "email"}

// ExportPersonnelCSV streams the roster as CSV
func (e *Env) ExportPersonnelCSV(c *gin.Context) {
	db, ok := e.companyDB(c)
	if !ok {
		return
	}

	rows, err := db.Query(c.Request.Context(), `
		SELECT username, first_name, last_name, rank, role, platoon, room_number, email
		FROM personnel
		WHERE is_active = true
		ORDER BY last_name, first_name
	`)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to query personnel"})
		return
	}
	defer rows.Close()

	c.Header("Content-Type", "text/csv")
	c.Header("Content-Disposition", `attachment; filename="roster.csv"`)

	w := csv.NewWriter(c.Writer)
	_ = w.Write(csvHeader)
	for rows.Next() {
		var username, firstName, lastName, rank, role string
		var platoon, roomNumber, email *string
		if err := rows.Scan(&username, &firstName, &lastName, &rank, &role, &platoon, &roomNumber, &email); err != nil {
			return
		}
		_ = w.Write([]string{username, firstName, lastName, rank, role,
			deref(platoon), deref(roomNumber), deref(email)})
	}
	w.Flush()
}

// ImportPersonnelCSV bulk-creates roster records from an uploaded CSV. Rows
// are processed independently; the response reports per-row outcomes.
func (e *Env) ImportPersonnelCSV(c *gin.Context) {
	db, ok := e.companyDB(c)
	if !ok {
		return
	}

	file, _, err := c.Request.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing CSV file upload"})
		return
	}
	defer file.Close()

	r := csv.NewReader(file)
	header, err := r.Read()
	if err != nil || len(header) < 5 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid CSV header"})
		return
	}

	created, failed := 0, []gin.H{}
	line := 1
	for {
		record, err := r.Read()
		if err == io.EOF {
			break
		}
		line++
		if err != nil {
			failed = append(failed, gin.H{"line": line, "error": "malformed row"})
			continue
		}
		if len(record) < 5 {
			failed = append(failed, gin.H{"line": line, "error": "too few columns"})
			continue
		}

		username := strings.ToLower(strings.TrimSpace(record[0]))
		firstName, lastName, rank := record[1], record[2], record[3]
		role := roles.Parse(record[4])
		var platoon, roomNumber, email *string
		if len(record) > 5 && record[5] != "" {
			platoon = &record[5]
		}
		if len(record) > 6 && record[6] != "" {
			roomNumber = &record[6]
		}
		if len(record) > 7 && record[7] != "" {
			email = &record[7]
		}

		_, err = db.Exec(c.Request.Context(), `
			INSERT INTO personnel (
				id, username, first_name, last_name, display_name, rank, role,
				platoon, room_number, email, login_enabled, is_active, fcm_tokens,
				created_at, updated_at
			) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, false, true, '{}', NOW(), NOW())
		`, uuid.New(), username, firstName, lastName,
			fmt.Sprintf("%s %s", firstName, lastName), rank, string(role),
			platoon, roomNumber, email)
		if err != nil {
			failed = append(failed, gin.H{"line": line, "error": "insert failed; username may be taken"})
			continue
		}
		created++
	}

	c.JSON(http.StatusOK, gin.H{
		"created": created,
		"failed":  failed,
	})
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
