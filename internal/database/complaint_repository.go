package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/hostelite/hostel-backend/internal/models"
)

// ComplaintRepository handles database operations for complaints
type ComplaintRepository struct {
	db DB
}

// NewComplaintRepository creates a new complaint repository
func NewComplaintRepository(db DB) *ComplaintRepository {
	return &ComplaintRepository{db: db}
}

// LeastLoadedWarden returns the warden with the fewest pending complaints.
// Ties go to the earliest-created account, then the lowest id. The result is
// invalid when no warden exists.
func (r *ComplaintRepository) LeastLoadedWarden(ctx context.Context) (uuid.NullUUID, error) {
	query := `
		SELECT u.id
		FROM users u
		LEFT JOIN complaints c ON c.assigned_to = u.id AND c.status = 'pending'
		WHERE u.role = 'warden'
		GROUP BY u.id, u.created_at
		ORDER BY COUNT(c.id) ASC, u.created_at ASC, u.id ASC
		LIMIT 1
	`

	var id uuid.UUID
	if err := r.db.GetContext(ctx, &id, query); err != nil {
		if err == sql.ErrNoRows {
			return uuid.NullUUID{}, nil
		}
		return uuid.NullUUID{}, fmt.Errorf("failed to pick warden: %w", err)
	}
	return uuid.NullUUID{UUID: id, Valid: true}, nil
}

// Create inserts a complaint
func (r *ComplaintRepository) Create(ctx context.Context, complaint *models.Complaint) error {
	now := time.Now()
	complaint.ID = uuid.New()
	complaint.CreatedAt = now
	complaint.UpdatedAt = now

	query := `
		INSERT INTO complaints (id, student_id, title, description, status, assigned_to, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

	_, err := r.db.ExecContext(ctx, query,
		complaint.ID,
		complaint.StudentID,
		complaint.Title,
		complaint.Description,
		complaint.Status,
		complaint.AssignedTo,
		complaint.CreatedAt,
		complaint.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create complaint: %w", err)
	}
	return nil
}

// List returns complaints with their student, newest first. A non-nil
// studentID restricts the result to that student's complaints.
func (r *ComplaintRepository) List(ctx context.Context, studentID *uuid.UUID) ([]models.ComplaintWithStudent, error) {
	query := `
		SELECT c.id, c.student_id, c.title, c.description, c.status, c.assigned_to, c.created_at, c.updated_at,
		       u.name AS student_name, u.email AS student_email
		FROM complaints c
		JOIN users u ON u.id = c.student_id
		WHERE ($1::uuid IS NULL OR c.student_id = $1)
		ORDER BY c.created_at DESC
	`

	complaints := []models.ComplaintWithStudent{}
	if err := r.db.SelectContext(ctx, &complaints, query, studentID); err != nil {
		return nil, fmt.Errorf("failed to list complaints: %w", err)
	}
	return complaints, nil
}

// UpdateStatus sets the status of a complaint. It returns nil when the complaint does not exist.
func (r *ComplaintRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status string) (*models.Complaint, error) {
	query := `
		UPDATE complaints
		SET status = $1, updated_at = NOW()
		WHERE id = $2
		RETURNING id, student_id, title, description, status, assigned_to, created_at, updated_at
	`

	var complaint models.Complaint
	if err := r.db.GetContext(ctx, &complaint, query, status, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to update complaint status: %w", err)
	}
	return &complaint, nil
}
