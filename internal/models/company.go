package models

import (
	"time"

	"github.com/google/uuid"
)

// Company represents a unit account in the multi-tenant system. Each company
// runs against its own database, routed by subdomain slug.
type Company struct {
	ID   uuid.UUID `json:"id" db:"id"`
	Slug string    `json:"slug" db:"slug"` // subdomain identifier (e.g., "bco-2-58")
	Name string    `json:"name" db:"name"` // display name (e.g., "B Co, 2-58 IN")

	// Database connection info
	DBHost              string `json:"-" db:"db_host"`
	DBPort              int    `json:"-" db:"db_port"`
	DBName              string `json:"-" db:"db_name"`
	DBUser              string `json:"-" db:"db_user"`
	DBPasswordEncrypted string `json:"-" db:"db_password_encrypted"`

	Status string `json:"status" db:"status"` // "active", "suspended"

	CreatedAt time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt time.Time  `json:"updated_at" db:"updated_at"`
	DeletedAt *time.Time `json:"deleted_at,omitempty" db:"deleted_at"` // soft delete
}

// CompanyInfo is the slim routing record loaded per request.
type CompanyInfo struct {
	ID     uuid.UUID `json:"id"`
	Slug   string    `json:"slug"`
	Name   string    `json:"name"`
	Active bool      `json:"active"`
}
