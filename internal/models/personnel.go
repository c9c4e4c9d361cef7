package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// Personnel represents a soldier on the company roster.
type Personnel struct {
	ID           uuid.UUID  `json:"id" db:"id"`
	Username     string     `json:"username" db:"username"`
	FirstName    string     `json:"first_name" db:"first_name"`
	LastName     string     `json:"last_name" db:"last_name"`
	DisplayName  string     `json:"display_name" db:"display_name"`
	Rank         string     `json:"rank" db:"rank"`
	Role         string     `json:"role" db:"role"`
	Platoon      *string    `json:"platoon,omitempty" db:"platoon"`
	RoomNumber   *string    `json:"room_number,omitempty" db:"room_number"`
	Email        *string    `json:"email,omitempty" db:"email"`
	PhoneNumber  *string    `json:"phone_number,omitempty" db:"phone_number"`
	FCMTokens    []string   `json:"fcm_tokens,omitempty" db:"fcm_tokens"`
	LoginEnabled bool       `json:"login_enabled" db:"login_enabled"`
	IsActive     bool       `json:"is_active" db:"is_active"`
	LastLogin    *time.Time `json:"last_login,omitempty" db:"last_login"`
	CreatedAt    time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at" db:"updated_at"`
}

// Initials derives the two-letter approver initials: first letter of the first
// name plus first letter of the last name. When either is missing the display
// name is split on whitespace instead.
func (p *Personnel) Initials() string {
	first, last := p.FirstName, p.LastName
	if first == "" || last == "" {
		parts := strings.Fields(p.DisplayName)
		if len(parts) >= 2 {
			first, last = parts[0], parts[len(parts)-1]
		} else if len(parts) == 1 {
			first, last = parts[0], parts[0]
		}
	}
	out := ""
	if first != "" {
		out += string([]rune(first)[0:1])
	}
	if last != "" {
		out += string([]rune(last)[0:1])
	}
	return strings.ToUpper(out)
}

// PersonnelListResponse is the simplified response for roster lists.
type PersonnelListResponse struct {
	ID          uuid.UUID `json:"id"`
	Username    string    `json:"username"`
	DisplayName string    `json:"display_name"`
	Rank        string    `json:"rank"`
	Role        string    `json:"role"`
	Platoon     *string   `json:"platoon,omitempty"`
	IsActive    bool      `json:"is_active"`
}

// ToListResponse converts Personnel to PersonnelListResponse.
func (p *Personnel) ToListResponse() PersonnelListResponse {
	return PersonnelListResponse{
		ID:          p.ID,
		Username:    p.Username,
		DisplayName: p.DisplayName,
		Rank:        p.Rank,
		Role:        p.Role,
		Platoon:     p.Platoon,
		IsActive:    p.IsActive,
	}
}

// PersonnelCreateRequest is the request body for POST /api/personnel
type PersonnelCreateRequest struct {
	Username     string  `json:"username" binding:"required"`
	FirstName    string  `json:"first_name" binding:"required"`
	LastName     string  `json:"last_name" binding:"required"`
	Rank         string  `json:"rank" binding:"required"`
	Role         string  `json:"role"`
	Platoon      *string `json:"platoon,omitempty"`
	RoomNumber   *string `json:"room_number,omitempty"`
	Email        *string `json:"email,omitempty"`
	PhoneNumber  *string `json:"phone_number,omitempty"`
	Password     *string `json:"password,omitempty"`
	LoginEnabled bool    `json:"login_enabled"`
}

// PersonnelUpdateRequest is the request body for PATCH /api/personnel/:id
type PersonnelUpdateRequest struct {
	Username     *string `json:"username,omitempty"`
	FirstName    *string `json:"first_name,omitempty"`
	LastName     *string `json:"last_name,omitempty"`
	Rank         *string `json:"rank,omitempty"`
	Role         *string `json:"role,omitempty"`
	Platoon      *string `json:"platoon,omitempty"`
	RoomNumber   *string `json:"room_number,omitempty"`
	Email        *string `json:"email,omitempty"`
	PhoneNumber  *string `json:"phone_number,omitempty"`
	LoginEnabled *bool   `json:"login_enabled,omitempty"`
}

// UpdateProfileRequest is the request body for PATCH /api/me
type UpdateProfileRequest struct {
	DisplayName *string `json:"display_name,omitempty"`
	Email       *string `json:"email,omitempty"`
	PhoneNumber *string `json:"phone_number,omitempty"`
	RoomNumber  *string `json:"room_number,omitempty"`
}

// PushTokenRequest registers or removes a device push token.
type PushTokenRequest struct {
	Token string `json:"token" binding:"required"`
}
