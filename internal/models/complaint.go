package models

import (
	"time"

	"github.com/google/uuid"
)

// Complaint status values
const (
	ComplaintStatusPending  = "pending"
	ComplaintStatusResolved = "resolved"
)

// Complaint is a student complaint routed to a warden
type Complaint struct {
	ID          uuid.UUID     `json:"id" db:"id"`
	StudentID   uuid.UUID     `json:"studentId" db:"student_id"`
	Title       string        `json:"title" db:"title"`
	Description string        `json:"description" db:"description"`
	Status      string        `json:"status" db:"status"`
	AssignedTo  uuid.NullUUID `json:"assignedTo" db:"assigned_to"`
	CreatedAt   time.Time     `json:"createdAt" db:"created_at"`
	UpdatedAt   time.Time     `json:"updatedAt" db:"updated_at"`
}

// ComplaintWithStudent is a complaint joined with the submitting student
type ComplaintWithStudent struct {
	Complaint
	StudentName  string `json:"studentName" db:"student_name"`
	StudentEmail string `json:"studentEmail" db:"student_email"`
}
