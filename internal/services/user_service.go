package services

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/hostelite/hostel-backend/internal/models"
	"github.com/hostelite/hostel-backend/internal/reports"
	"github.com/hostelite/hostel-backend/pkg/validator"
	"github.com/sirupsen/logrus"
)

// UserDirectory reads user accounts
type UserDirectory interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	List(ctx context.Context, role string) ([]models.UserWithRoom, error)
	CountByRole(ctx context.Context) (*models.RoleCounts, error)
}

// UserOccupancy applies account edits that may touch room occupancy
type UserOccupancy interface {
	UpdateUser(ctx context.Context, userID uuid.UUID, update models.UserUpdate, room *uuid.NullUUID) error
	DeleteUser(ctx context.Context, userID uuid.UUID) error
}

// ProfileReader looks up submitted profiles
type ProfileReader interface {
	GetByUserID(ctx context.Context, userID uuid.UUID) (*models.UserProfile, error)
}

// ActivityReader lists a user's recent audit events
type ActivityReader interface {
	GetRecentEvents(ctx context.Context, userID uuid.UUID, limit int) ([]models.AuditLog, error)
}

// Activity listing bounds
const (
	DefaultActivityLimit = 20
	MaxActivityLimit     = 100
)

// UserPatch is an administrator's edit of an account. Nil fields are left
// unchanged. A non-nil RoomID moves the user; an invalid one unassigns.
type UserPatch struct {
	Name   *string
	Email  *string
	Role   *string
	RoomID *uuid.NullUUID
}

// UserDetail is an account with its profile, if submitted
type UserDetail struct {
	*models.User
	Profile *models.UserProfile `json:"profile"`
}

// UserService handles administrator account management
type UserService struct {
	users     UserDirectory
	occupancy UserOccupancy
	profiles  ProfileReader
	activity  ActivityReader
	logger    *logrus.Logger
}

// NewUserService creates a new user service
func NewUserService(users UserDirectory, occupancy UserOccupancy, profiles ProfileReader, activity ActivityReader, logger *logrus.Logger) *UserService {
	return &UserService{
		users:     users,
		occupancy: occupancy,
		profiles:  profiles,
		activity:  activity,
		logger:    logger,
	}
}

// List returns users with their room number, optionally filtered by role
func (s *UserService) List(ctx context.Context, role string) ([]models.UserWithRoom, error) {
	role = strings.ToLower(strings.TrimSpace(role))
	if role != "" && !models.IsValidRole(role) {
		return nil, NewInvalidInput("Invalid role")
	}
	return s.users.List(ctx, role)
}

// Get returns a user with their profile
func (s *UserService) Get(ctx context.Context, id uuid.UUID) (*UserDetail, error) {
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, NewNotFound("User not found")
	}

	profile, err := s.profiles.GetByUserID(ctx, id)
	if err != nil {
		return nil, err
	}
	return &UserDetail{User: user, Profile: profile}, nil
}

// Update applies an allow-listed edit. Administrators cannot change their own role.
func (s *UserService) Update(ctx context.Context, caller Caller, id uuid.UUID, patch UserPatch) (*models.User, error) {
	var update models.UserUpdate

	if patch.Name != nil {
		name := strings.TrimSpace(*patch.Name)
		if name == "" {
			return nil, NewInvalidInput("Name cannot be empty")
		}
		update.Name = &name
	}
	if patch.Email != nil {
		email, err := validator.NormalizeEmail(*patch.Email)
		if err != nil {
			return nil, NewInvalidInput("Invalid email address")
		}
		update.Email = &email
	}
	if patch.Role != nil {
		role := strings.ToLower(strings.TrimSpace(*patch.Role))
		if !models.IsValidRole(role) {
			return nil, NewInvalidInput("Invalid role")
		}
		if caller.Owns(id) && role != caller.Role {
			return nil, NewForbidden("You cannot change your own role")
		}
		update.Role = &role
	}

	if update.IsEmpty() && patch.RoomID == nil {
		return nil, NewInvalidInput("No fields to update")
	}

	if err := s.occupancy.UpdateUser(ctx, id, update, patch.RoomID); err != nil {
		return nil, err
	}

	s.logger.WithFields(logrus.Fields{
		"user_id":  id,
		"admin_id": caller.UserID,
	}).Info("User updated")

	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, NewNotFound("User not found")
	}
	return user, nil
}

// Delete removes an account and frees its room. Administrators cannot delete themselves.
func (s *UserService) Delete(ctx context.Context, caller Caller, id uuid.UUID) error {
	if caller.Owns(id) {
		return NewForbidden("Cannot delete your own account")
	}
	if err := s.occupancy.DeleteUser(ctx, id); err != nil {
		return err
	}

	s.logger.WithFields(logrus.Fields{
		"user_id":  id,
		"admin_id": caller.UserID,
	}).Info("User deleted")
	return nil
}

// Activity returns the most recent audit events of a user, newest first
func (s *UserService) Activity(ctx context.Context, id uuid.UUID, limit int) ([]models.AuditLog, error) {
	if limit <= 0 {
		limit = DefaultActivityLimit
	}
	if limit > MaxActivityLimit {
		limit = MaxActivityLimit
	}

	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, NewNotFound("User not found")
	}
	return s.activity.GetRecentEvents(ctx, id, limit)
}

// RoleCounts returns the number of admins and wardens
func (s *UserService) RoleCounts(ctx context.Context) (*models.RoleCounts, error) {
	return s.users.CountByRole(ctx)
}

// Export renders every user as an xlsx workbook
func (s *UserService) Export(ctx context.Context) ([]byte, error) {
	users, err := s.users.List(ctx, "")
	if err != nil {
		return nil, err
	}
	return reports.UsersWorkbook(users)
}
