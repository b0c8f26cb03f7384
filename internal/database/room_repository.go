package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"

	"github.com/google/uuid"
	"github.com/hostelite/hostel-backend/internal/models"
)

// ErrRoomsAlreadyExist indicates the hostel rooms were already created
var ErrRoomsAlreadyExist = errors.New("rooms already exist")

const roomWithOccupantQuery = `
	SELECT rm.id, rm.number, rm.occupied, rm.occupant_id, rm.created_at, rm.updated_at,
	       u.name AS occupant_name, u.email AS occupant_email
	FROM rooms rm
	LEFT JOIN users u ON u.id = rm.occupant_id
`

// RoomRepository handles database operations for rooms
type RoomRepository struct {
	db DB
}

// NewRoomRepository creates a new room repository
func NewRoomRepository(db DB) *RoomRepository {
	return &RoomRepository{db: db}
}

// BulkCreate creates rooms R-1..R-total and records the total in system
// settings. It fails with ErrRoomsAlreadyExist if any room exists.
func (r *RoomRepository) BulkCreate(ctx context.Context, total int) ([]models.Room, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `LOCK TABLE rooms IN EXCLUSIVE MODE`); err != nil {
		return nil, fmt.Errorf("failed to lock rooms: %w", err)
	}

	var existing int
	if err := tx.GetContext(ctx, &existing, `SELECT COUNT(*) FROM rooms`); err != nil {
		return nil, fmt.Errorf("failed to count rooms: %w", err)
	}
	if existing > 0 {
		return nil, ErrRoomsAlreadyExist
	}

	insertQuery := `
		INSERT INTO rooms (number, seq, occupied)
		SELECT 'R-' || g, g, FALSE
		FROM generate_series(1, $1) AS g
		RETURNING id, number, occupied, occupant_id, created_at, updated_at
	`
	rooms := []models.Room{}
	if err := tx.SelectContext(ctx, &rooms, insertQuery, total); err != nil {
		return nil, fmt.Errorf("failed to create rooms: %w", err)
	}

	settingQuery := `
		INSERT INTO system_settings (setting_key, setting_value, description)
		VALUES ($1, $2, 'Number of rooms in the hostel')
		ON CONFLICT (setting_key) DO UPDATE
		SET setting_value = EXCLUDED.setting_value, updated_at = NOW()
	`
	if _, err := tx.ExecContext(ctx, settingQuery, models.SettingTotalRooms, strconv.Itoa(total)); err != nil {
		return nil, fmt.Errorf("failed to record room total: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}
	return rooms, nil
}

// List returns every room in creation order
func (r *RoomRepository) List(ctx context.Context) ([]models.RoomWithOccupant, error) {
	rooms := []models.RoomWithOccupant{}
	if err := r.db.SelectContext(ctx, &rooms, roomWithOccupantQuery+` ORDER BY rm.seq`); err != nil {
		return nil, fmt.Errorf("failed to list rooms: %w", err)
	}
	return rooms, nil
}

// ListAvailable returns every unoccupied room in creation order
func (r *RoomRepository) ListAvailable(ctx context.Context) ([]models.RoomWithOccupant, error) {
	rooms := []models.RoomWithOccupant{}
	query := roomWithOccupantQuery + ` WHERE rm.occupied = FALSE ORDER BY rm.seq`
	if err := r.db.SelectContext(ctx, &rooms, query); err != nil {
		return nil, fmt.Errorf("failed to list available rooms: %w", err)
	}
	return rooms, nil
}

// GetByID retrieves a room by ID
func (r *RoomRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.RoomWithOccupant, error) {
	var room models.RoomWithOccupant
	if err := r.db.GetContext(ctx, &room, roomWithOccupantQuery+` WHERE rm.id = $1`, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get room: %w", err)
	}
	return &room, nil
}
