package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/hostelite/hostel-backend/internal/models"
)

// roleCapLockKey serializes capped-role registrations
const roleCapLockKey int64 = 7301

var (
	// ErrEmailTaken indicates another account already uses the email
	ErrEmailTaken = errors.New("email already registered")

	// ErrRoleLimitReached indicates the role already has its maximum number of accounts
	ErrRoleLimitReached = errors.New("role limit reached")
)

const userColumns = `id, name, email, password_hash, role, room_id, created_at, updated_at`

// UserRepository handles database operations for users
type UserRepository struct {
	db DB
}

// NewUserRepository creates a new user repository
func NewUserRepository(db DB) *UserRepository {
	return &UserRepository{db: db}
}

// Create inserts a user. When limit > 0 the insert only happens while fewer
// than limit accounts hold the user's role; the check and insert run under a
// transaction-scoped advisory lock so concurrent registrations cannot overshoot.
func (r *UserRepository) Create(ctx context.Context, user *models.User, limit int) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if limit > 0 {
		if _, err := tx.ExecContext(ctx, `SELECT pg_advisory_xact_lock($1)`, roleCapLockKey); err != nil {
			return fmt.Errorf("failed to acquire role lock: %w", err)
		}

		var count int
		if err := tx.GetContext(ctx, &count, `SELECT COUNT(*) FROM users WHERE role = $1`, user.Role); err != nil {
			return fmt.Errorf("failed to count users by role: %w", err)
		}
		if count >= limit {
			return ErrRoleLimitReached
		}
	}

	now := time.Now()
	user.ID = uuid.New()
	user.Email = strings.ToLower(strings.TrimSpace(user.Email))
	user.CreatedAt = now
	user.UpdatedAt = now

	query := `
		INSERT INTO users (id, name, email, password_hash, role, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	_, err = tx.ExecContext(ctx, query,
		user.ID, user.Name, user.Email, user.PasswordHash, user.Role, user.CreatedAt, user.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrEmailTaken
		}
		return fmt.Errorf("failed to create user: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// GetByID retrieves a user by ID
func (r *UserRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	var user models.User
	err := r.db.GetContext(ctx, &user, `SELECT `+userColumns+` FROM users WHERE id = $1`, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get user by id: %w", err)
	}
	return &user, nil
}

// GetByEmail retrieves a user by email (case-insensitive)
func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	err := r.db.GetContext(ctx, &user,
		`SELECT `+userColumns+` FROM users WHERE email = $1`,
		strings.ToLower(strings.TrimSpace(email)),
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get user by email: %w", err)
	}
	return &user, nil
}

// List returns users with their room label, optionally filtered by role
func (r *UserRepository) List(ctx context.Context, role string) ([]models.UserWithRoom, error) {
	query := `
		SELECT u.id, u.name, u.email, u.password_hash, u.role, u.room_id, u.created_at, u.updated_at,
		       rm.number AS room_number
		FROM users u
		LEFT JOIN rooms rm ON rm.id = u.room_id
		WHERE ($1 = '' OR u.role = $1)
		ORDER BY u.created_at DESC
	`

	users := []models.UserWithRoom{}
	if err := r.db.SelectContext(ctx, &users, query, role); err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	return users, nil
}

// CountByRole returns the number of admin and warden accounts
func (r *UserRepository) CountByRole(ctx context.Context) (*models.RoleCounts, error) {
	query := `
		SELECT
			COUNT(*) FILTER (WHERE role = 'admin') AS admin_count,
			COUNT(*) FILTER (WHERE role = 'warden') AS warden_count
		FROM users
	`

	var counts models.RoleCounts
	if err := r.db.QueryRowxContext(ctx, query).Scan(&counts.AdminCount, &counts.WardenCount); err != nil {
		return nil, fmt.Errorf("failed to count roles: %w", err)
	}
	return &counts, nil
}

// UpdatePassword replaces the stored password hash
func (r *UserRepository) UpdatePassword(ctx context.Context, id uuid.UUID, passwordHash string) error {
	query := `
		UPDATE users
		SET password_hash = $1, updated_at = NOW()
		WHERE id = $2
	`

	result, err := r.db.ExecContext(ctx, query, passwordHash, id)
	if err != nil {
		return fmt.Errorf("failed to update password: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("user not found")
	}
	return nil
}
