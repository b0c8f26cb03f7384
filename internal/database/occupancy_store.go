package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/hostelite/hostel-backend/internal/models"
)

var (
	// ErrOccupancyMismatch indicates a room was not held by the expected user
	ErrOccupancyMismatch = errors.New("room is not held by the user")

	// ErrUserHasPayments indicates payment records still reference the user
	ErrUserHasPayments = errors.New("user has payment records")
)

// OccupancyTx is the set of row operations available inside one occupancy
// transaction. Rows read through Lock* stay locked until the transaction ends.
type OccupancyTx interface {
	LockUser(ctx context.Context, userID uuid.UUID) (*models.User, error)
	LockRoom(ctx context.Context, roomID uuid.UUID) (*models.Room, error)
	ClaimRoom(ctx context.Context, roomID, userID uuid.UUID) (bool, error)
	ReleaseRoom(ctx context.Context, roomID, userID uuid.UUID) error
	SetUserRoom(ctx context.Context, userID uuid.UUID, roomID uuid.NullUUID) error
	UpdateUser(ctx context.Context, userID uuid.UUID, update models.UserUpdate) error
	DeleteUser(ctx context.Context, userID uuid.UUID) error
}

// OccupancyStore runs room/user writes in a single transaction
type OccupancyStore struct {
	db DB
}

// NewOccupancyStore creates a new occupancy store
func NewOccupancyStore(db DB) *OccupancyStore {
	return &OccupancyStore{db: db}
}

// RunInTx executes fn inside a transaction. The transaction commits only if fn returns nil.
func (s *OccupancyStore) RunInTx(ctx context.Context, fn func(tx OccupancyTx) error) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := fn(&occupancyTx{tx: tx}); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

type occupancyTx struct {
	tx *sqlx.Tx
}

func (t *occupancyTx) LockUser(ctx context.Context, userID uuid.UUID) (*models.User, error) {
	var user models.User
	err := t.tx.GetContext(ctx, &user, `SELECT `+userColumns+` FROM users WHERE id = $1 FOR UPDATE`, userID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to lock user: %w", err)
	}
	return &user, nil
}

func (t *occupancyTx) LockRoom(ctx context.Context, roomID uuid.UUID) (*models.Room, error) {
	query := `
		SELECT id, number, occupied, occupant_id, created_at, updated_at
		FROM rooms
		WHERE id = $1
		FOR UPDATE
	`

	var room models.Room
	if err := t.tx.GetContext(ctx, &room, query, roomID); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to lock room: %w", err)
	}
	return &room, nil
}

// ClaimRoom marks a free room as held by userID. It reports false when the
// room was not free.
func (t *occupancyTx) ClaimRoom(ctx context.Context, roomID, userID uuid.UUID) (bool, error) {
	query := `
		UPDATE rooms
		SET occupied = TRUE, occupant_id = $1, updated_at = NOW()
		WHERE id = $2 AND occupied = FALSE
	`

	result, err := t.tx.ExecContext(ctx, query, userID, roomID)
	if err != nil {
		return false, fmt.Errorf("failed to claim room: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return rows == 1, nil
}

func (t *occupancyTx) ReleaseRoom(ctx context.Context, roomID, userID uuid.UUID) error {
	query := `
		UPDATE rooms
		SET occupied = FALSE, occupant_id = NULL, updated_at = NOW()
		WHERE id = $1 AND occupant_id = $2
	`

	result, err := t.tx.ExecContext(ctx, query, roomID, userID)
	if err != nil {
		return fmt.Errorf("failed to release room: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows != 1 {
		return ErrOccupancyMismatch
	}
	return nil
}

func (t *occupancyTx) SetUserRoom(ctx context.Context, userID uuid.UUID, roomID uuid.NullUUID) error {
	query := `
		UPDATE users
		SET room_id = $1, updated_at = NOW()
		WHERE id = $2
	`

	if _, err := t.tx.ExecContext(ctx, query, roomID, userID); err != nil {
		return fmt.Errorf("failed to set user room: %w", err)
	}
	return nil
}

// UpdateUser applies the allow-listed account fields; nil fields keep their value
func (t *occupancyTx) UpdateUser(ctx context.Context, userID uuid.UUID, update models.UserUpdate) error {
	query := `
		UPDATE users
		SET name = COALESCE($1, name),
		    email = COALESCE(LOWER($2), email),
		    role = COALESCE($3, role),
		    updated_at = NOW()
		WHERE id = $4
	`

	_, err := t.tx.ExecContext(ctx, query, update.Name, update.Email, update.Role, userID)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrEmailTaken
		}
		return fmt.Errorf("failed to update user: %w", err)
	}
	return nil
}

func (t *occupancyTx) DeleteUser(ctx context.Context, userID uuid.UUID) error {
	if _, err := t.tx.ExecContext(ctx, `DELETE FROM users WHERE id = $1`, userID); err != nil {
		if isForeignKeyViolation(err) {
			return ErrUserHasPayments
		}
		return fmt.Errorf("failed to delete user: %w", err)
	}
	return nil
}
