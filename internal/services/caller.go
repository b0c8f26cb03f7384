package services

import (
	"github.com/google/uuid"
	"github.com/hostelite/hostel-backend/internal/models"
)

// Caller identifies the authenticated user a service call is made for
type Caller struct {
	UserID uuid.UUID
	Role   string
}

// IsStudent reports whether the caller has the student role
func (c Caller) IsStudent() bool {
	return c.Role == models.RoleStudent
}

// IsAdmin reports whether the caller has the admin role
func (c Caller) IsAdmin() bool {
	return c.Role == models.RoleAdmin
}

// Owns reports whether userID is the caller
func (c Caller) Owns(userID uuid.UUID) bool {
	return c.UserID == userID
}
