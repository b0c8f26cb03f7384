package services

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/hostelite/hostel-backend/internal/models"
	"github.com/hostelite/hostel-backend/pkg/mq"
	"github.com/sirupsen/logrus"
)

// ComplaintStore persists complaints
type ComplaintStore interface {
	LeastLoadedWarden(ctx context.Context) (uuid.NullUUID, error)
	Create(ctx context.Context, complaint *models.Complaint) error
	List(ctx context.Context, studentID *uuid.UUID) ([]models.ComplaintWithStudent, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status string) (*models.Complaint, error)
}

// ComplaintEvent is the payload of complaint.created
type ComplaintEvent struct {
	ComplaintID uuid.UUID     `json:"complaintId"`
	StudentID   uuid.UUID     `json:"studentId"`
	AssignedTo  uuid.NullUUID `json:"assignedTo"`
	At          time.Time     `json:"at"`
}

// ComplaintService routes student complaints to wardens
type ComplaintService struct {
	complaints ComplaintStore
	publisher  mq.Publisher
	logger     *logrus.Logger
}

// NewComplaintService creates a new complaint service
func NewComplaintService(complaints ComplaintStore, publisher mq.Publisher, logger *logrus.Logger) *ComplaintService {
	return &ComplaintService{
		complaints: complaints,
		publisher:  publisher,
		logger:     logger,
	}
}

// Create files a complaint and assigns it to the warden with the fewest
// pending complaints. It stays unassigned when there is no warden.
func (s *ComplaintService) Create(ctx context.Context, caller Caller, title, description string) (*models.Complaint, error) {
	title = strings.TrimSpace(title)
	description = strings.TrimSpace(description)
	if title == "" || description == "" {
		return nil, NewInvalidInput("Title and description are required")
	}

	warden, err := s.complaints.LeastLoadedWarden(ctx)
	if err != nil {
		return nil, err
	}

	complaint := &models.Complaint{
		StudentID:   caller.UserID,
		Title:       title,
		Description: description,
		Status:      models.ComplaintStatusPending,
		AssignedTo:  warden,
	}
	if err := s.complaints.Create(ctx, complaint); err != nil {
		return nil, err
	}

	s.logger.WithFields(logrus.Fields{
		"complaint_id": complaint.ID,
		"student_id":   caller.UserID,
		"assigned_to":  warden.UUID,
	}).Info("Complaint created")

	pubCtx, cancel := context.WithTimeout(context.Background(), publishTimeout)
	defer cancel()
	event := ComplaintEvent{
		ComplaintID: complaint.ID,
		StudentID:   complaint.StudentID,
		AssignedTo:  complaint.AssignedTo,
		At:          time.Now().UTC(),
	}
	if err := s.publisher.PublishJSON(pubCtx, mq.KeyComplaintCreated, event); err != nil {
		s.logger.WithError(err).WithField("complaint_id", complaint.ID).Warn("Failed to publish complaint event")
	}

	return complaint, nil
}

// List returns the caller's complaints for students and every complaint otherwise
func (s *ComplaintService) List(ctx context.Context, caller Caller) ([]models.ComplaintWithStudent, error) {
	if caller.IsStudent() {
		return s.complaints.List(ctx, &caller.UserID)
	}
	return s.complaints.List(ctx, nil)
}

// UpdateStatus moves a complaint to pending or resolved
func (s *ComplaintService) UpdateStatus(ctx context.Context, id uuid.UUID, status string) (*models.Complaint, error) {
	if status != models.ComplaintStatusPending && status != models.ComplaintStatusResolved {
		return nil, NewInvalidInput("Invalid status")
	}

	complaint, err := s.complaints.UpdateStatus(ctx, id, status)
	if err != nil {
		return nil, err
	}
	if complaint == nil {
		return nil, NewNotFound("Complaint not found")
	}
	return complaint, nil
}
