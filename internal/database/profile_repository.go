package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/hostelite/hostel-backend/internal/models"
)

// ErrProfileExists indicates the user already submitted a profile
var ErrProfileExists = errors.New("profile already submitted")

const profileColumns = `
	p.id, p.user_id, p.role, p.full_name, p.father_name, p.mother_name, p.phone, p.address,
	p.permanent_address, p.aadhaar_number, p.aadhaar_photo, p.aadhaar_file_id, p.profile_photo,
	p.profile_file_id, p.student_type, p.university_name, p.company_name, p.submitted,
	p.created_at, p.updated_at
`

// ProfileRepository handles database operations for user profiles
type ProfileRepository struct {
	db DB
}

// NewProfileRepository creates a new profile repository
func NewProfileRepository(db DB) *ProfileRepository {
	return &ProfileRepository{db: db}
}

// Create stores a submitted profile. It fails with ErrProfileExists when the
// user already has one.
func (r *ProfileRepository) Create(ctx context.Context, profile *models.UserProfile) error {
	now := time.Now()
	profile.ID = uuid.New()
	profile.Submitted = true
	profile.CreatedAt = now
	profile.UpdatedAt = now

	query := `
		INSERT INTO user_profiles (
			id, user_id, role, full_name, father_name, mother_name, phone, address,
			permanent_address, aadhaar_number, aadhaar_photo, aadhaar_file_id, profile_photo,
			profile_file_id, student_type, university_name, company_name, submitted,
			created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20)
	`

	_, err := r.db.ExecContext(ctx, query,
		profile.ID,
		profile.UserID,
		profile.Role,
		profile.FullName,
		profile.FatherName,
		profile.MotherName,
		profile.Phone,
		profile.Address,
		profile.PermanentAddress,
		profile.AadhaarNumber,
		profile.AadhaarPhoto,
		profile.AadhaarFileID,
		profile.ProfilePhoto,
		profile.ProfileFileID,
		profile.StudentType,
		profile.UniversityName,
		profile.CompanyName,
		profile.Submitted,
		profile.CreatedAt,
		profile.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrProfileExists
		}
		return fmt.Errorf("failed to create profile: %w", err)
	}
	return nil
}

// GetByUserID retrieves the profile of a user
func (r *ProfileRepository) GetByUserID(ctx context.Context, userID uuid.UUID) (*models.UserProfile, error) {
	return r.getOne(ctx, `SELECT `+profileColumns+` FROM user_profiles p WHERE p.user_id = $1`, userID)
}

// GetByID retrieves a profile by its own ID
func (r *ProfileRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.UserProfile, error) {
	return r.getOne(ctx, `SELECT `+profileColumns+` FROM user_profiles p WHERE p.id = $1`, id)
}

func (r *ProfileRepository) getOne(ctx context.Context, query string, arg interface{}) (*models.UserProfile, error) {
	var profile models.UserProfile
	if err := r.db.GetContext(ctx, &profile, query, arg); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get profile: %w", err)
	}
	return &profile, nil
}

// List returns every profile with its account, newest first
func (r *ProfileRepository) List(ctx context.Context) ([]models.ProfileWithUser, error) {
	query := `
		SELECT ` + profileColumns + `, u.name AS user_name, u.email AS user_email
		FROM user_profiles p
		JOIN users u ON u.id = p.user_id
		ORDER BY p.created_at DESC
	`

	profiles := []models.ProfileWithUser{}
	if err := r.db.SelectContext(ctx, &profiles, query); err != nil {
		return nil, fmt.Errorf("failed to list profiles: %w", err)
	}
	return profiles, nil
}

// AdminUpdate applies the allow-listed profile fields. It returns nil when the profile does not exist.
func (r *ProfileRepository) AdminUpdate(ctx context.Context, id uuid.UUID, update models.ProfileAdminUpdate) (*models.UserProfile, error) {
	query := `
		UPDATE user_profiles p
		SET full_name = COALESCE($1, p.full_name),
		    father_name = COALESCE($2, p.father_name),
		    mother_name = COALESCE($3, p.mother_name),
		    phone = COALESCE($4, p.phone),
		    address = COALESCE($5, p.address),
		    aadhaar_number = COALESCE($6, p.aadhaar_number),
		    updated_at = NOW()
		WHERE p.id = $7
		RETURNING ` + profileColumns

	var profile models.UserProfile
	err := r.db.GetContext(ctx, &profile, query,
		update.FullName,
		update.FatherName,
		update.MotherName,
		update.Phone,
		update.Address,
		update.AadhaarNumber,
		id,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to update profile: %w", err)
	}
	return &profile, nil
}
