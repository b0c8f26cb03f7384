package services

import (
	"bytes"
	"context"
	"errors"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/hostelite/hostel-backend/internal/database"
	"github.com/hostelite/hostel-backend/internal/models"
	"github.com/hostelite/hostel-backend/pkg/mq"
	"github.com/sirupsen/logrus"
)

// MaxRooms bounds a single bulk room creation
const MaxRooms = 10000

const publishTimeout = 5 * time.Second

// OccupancyRunner runs room/user writes in one transaction
type OccupancyRunner interface {
	RunInTx(ctx context.Context, fn func(tx database.OccupancyTx) error) error
}

// RoomStore reads rooms and creates the initial set
type RoomStore interface {
	BulkCreate(ctx context.Context, total int) ([]models.Room, error)
	List(ctx context.Context) ([]models.RoomWithOccupant, error)
	ListAvailable(ctx context.Context) ([]models.RoomWithOccupant, error)
}

// RoomEvent is the payload of room.assigned and room.released
type RoomEvent struct {
	RoomID uuid.UUID `json:"roomId"`
	UserID uuid.UUID `json:"userId"`
	At     time.Time `json:"at"`
}

// occupancyChange records the rooms a transaction freed and claimed
type occupancyChange struct {
	released uuid.NullUUID
	claimed  uuid.NullUUID
}

// RoomAssignmentService keeps rooms.occupant_id and users.room_id pointing at each other
type RoomAssignmentService struct {
	occupancy OccupancyRunner
	rooms     RoomStore
	publisher mq.Publisher
	logger    *logrus.Logger
}

// NewRoomAssignmentService creates a new room assignment service
func NewRoomAssignmentService(occupancy OccupancyRunner, rooms RoomStore, publisher mq.Publisher, logger *logrus.Logger) *RoomAssignmentService {
	return &RoomAssignmentService{
		occupancy: occupancy,
		rooms:     rooms,
		publisher: publisher,
		logger:    logger,
	}
}

// CreateRooms creates rooms R-1..R-total. It only succeeds while no room exists.
func (s *RoomAssignmentService) CreateRooms(ctx context.Context, total int) ([]models.Room, error) {
	if total <= 0 || total > MaxRooms {
		return nil, NewInvalidInput("Invalid number of rooms")
	}

	rooms, err := s.rooms.BulkCreate(ctx, total)
	if err != nil {
		if errors.Is(err, database.ErrRoomsAlreadyExist) {
			return nil, NewInvalidInput("Rooms already created. Delete existing rooms first.")
		}
		return nil, err
	}

	s.logger.WithField("total", total).Info("Rooms created")
	return rooms, nil
}

// ListRooms returns every room with its occupant
func (s *RoomAssignmentService) ListRooms(ctx context.Context) ([]models.RoomWithOccupant, error) {
	return s.rooms.List(ctx)
}

// ListAvailableRooms returns the unoccupied rooms
func (s *RoomAssignmentService) ListAvailableRooms(ctx context.Context) ([]models.RoomWithOccupant, error) {
	return s.rooms.ListAvailable(ctx)
}

// Assign gives a free room to a student who holds none
func (s *RoomAssignmentService) Assign(ctx context.Context, studentID, roomID uuid.UUID) error {
	err := s.occupancy.RunInTx(ctx, func(tx database.OccupancyTx) error {
		student, err := tx.LockUser(ctx, studentID)
		if err != nil {
			return err
		}
		room, err := tx.LockRoom(ctx, roomID)
		if err != nil {
			return err
		}

		if room == nil {
			return NewNotFound("Room not found")
		}
		if student == nil {
			return NewNotFound("Student not found")
		}
		if room.Occupied {
			return NewConflict("Room already occupied")
		}
		if student.RoomID.Valid {
			return NewConflict("Student already has a room")
		}

		claimed, err := tx.ClaimRoom(ctx, roomID, studentID)
		if err != nil {
			return err
		}
		if !claimed {
			return NewConflict("Room already occupied")
		}

		return tx.SetUserRoom(ctx, studentID, uuid.NullUUID{UUID: roomID, Valid: true})
	})
	if err != nil {
		return err
	}

	s.publishChange(studentID, occupancyChange{claimed: uuid.NullUUID{UUID: roomID, Valid: true}})
	return nil
}

// Unassign frees the room a student holds
func (s *RoomAssignmentService) Unassign(ctx context.Context, studentID uuid.UUID) error {
	var roomID uuid.UUID

	err := s.occupancy.RunInTx(ctx, func(tx database.OccupancyTx) error {
		student, err := tx.LockUser(ctx, studentID)
		if err != nil {
			return err
		}
		if student == nil {
			return NewNotFound("Student not found")
		}
		if !student.RoomID.Valid {
			return NewConflict("Student has no room")
		}

		roomID = student.RoomID.UUID
		if _, err := tx.LockRoom(ctx, roomID); err != nil {
			return err
		}
		if err := tx.ReleaseRoom(ctx, roomID, studentID); err != nil {
			return err
		}
		return tx.SetUserRoom(ctx, studentID, uuid.NullUUID{})
	})
	if err != nil {
		return err
	}

	s.publishChange(studentID, occupancyChange{released: uuid.NullUUID{UUID: roomID, Valid: true}})
	return nil
}

// Reassign moves a user to newRoomID, or out of any room when it is invalid.
// Either both the release and the claim happen or neither does.
func (s *RoomAssignmentService) Reassign(ctx context.Context, userID uuid.UUID, newRoomID uuid.NullUUID) error {
	var change occupancyChange

	err := s.occupancy.RunInTx(ctx, func(tx database.OccupancyTx) error {
		user, err := tx.LockUser(ctx, userID)
		if err != nil {
			return err
		}
		if user == nil {
			return NewNotFound("User not found")
		}

		change, err = s.reassignInTx(ctx, tx, user, newRoomID)
		return err
	})
	if err != nil {
		return err
	}

	s.publishChange(userID, change)
	return nil
}

// UpdateUser applies an admin edit. A non-nil room moves the user in the same
// transaction as the field changes.
func (s *RoomAssignmentService) UpdateUser(ctx context.Context, userID uuid.UUID, update models.UserUpdate, room *uuid.NullUUID) error {
	var change occupancyChange

	err := s.occupancy.RunInTx(ctx, func(tx database.OccupancyTx) error {
		user, err := tx.LockUser(ctx, userID)
		if err != nil {
			return err
		}
		if user == nil {
			return NewNotFound("User not found")
		}

		if !update.IsEmpty() {
			if err := tx.UpdateUser(ctx, userID, update); err != nil {
				if errors.Is(err, database.ErrEmailTaken) {
					return NewConflict("Email already in use")
				}
				return err
			}
		}

		if room != nil {
			change, err = s.reassignInTx(ctx, tx, user, *room)
			return err
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.publishChange(userID, change)
	return nil
}

// DeleteUser removes a user, freeing their room first
func (s *RoomAssignmentService) DeleteUser(ctx context.Context, userID uuid.UUID) error {
	var change occupancyChange

	err := s.occupancy.RunInTx(ctx, func(tx database.OccupancyTx) error {
		user, err := tx.LockUser(ctx, userID)
		if err != nil {
			return err
		}
		if user == nil {
			return NewNotFound("User not found")
		}

		change, err = s.reassignInTx(ctx, tx, user, uuid.NullUUID{})
		if err != nil {
			return err
		}
		return tx.DeleteUser(ctx, userID)
	})
	if errors.Is(err, database.ErrUserHasPayments) {
		return NewConflict("User has payment records and cannot be deleted")
	}
	if err != nil {
		return err
	}

	s.publishChange(userID, change)
	return nil
}

// reassignInTx moves a locked user to target. Rooms are locked in ascending id
// order so concurrent moves between the same rooms cannot deadlock.
func (s *RoomAssignmentService) reassignInTx(ctx context.Context, tx database.OccupancyTx, user *models.User, target uuid.NullUUID) (occupancyChange, error) {
	current := user.RoomID
	if current.Valid == target.Valid && (!current.Valid || current.UUID == target.UUID) {
		return occupancyChange{}, nil
	}

	ids := make([]uuid.UUID, 0, 2)
	if current.Valid {
		ids = append(ids, current.UUID)
	}
	if target.Valid {
		ids = append(ids, target.UUID)
	}
	sort.Slice(ids, func(i, j int) bool { return bytes.Compare(ids[i][:], ids[j][:]) < 0 })

	locked := make(map[uuid.UUID]*models.Room, len(ids))
	for _, id := range ids {
		room, err := tx.LockRoom(ctx, id)
		if err != nil {
			return occupancyChange{}, err
		}
		locked[id] = room
	}

	if target.Valid {
		room := locked[target.UUID]
		if room == nil {
			return occupancyChange{}, NewNotFound("Room not found")
		}
		if room.Occupied {
			return occupancyChange{}, NewConflict("Room already occupied")
		}
	}

	if current.Valid {
		if err := tx.ReleaseRoom(ctx, current.UUID, user.ID); err != nil {
			return occupancyChange{}, err
		}
	}

	if target.Valid {
		claimed, err := tx.ClaimRoom(ctx, target.UUID, user.ID)
		if err != nil {
			return occupancyChange{}, err
		}
		if !claimed {
			return occupancyChange{}, NewConflict("Room already occupied")
		}
	}

	if err := tx.SetUserRoom(ctx, user.ID, target); err != nil {
		return occupancyChange{}, err
	}

	return occupancyChange{released: current, claimed: target}, nil
}

// publishChange emits room events after commit. Failures are logged only.
func (s *RoomAssignmentService) publishChange(userID uuid.UUID, change occupancyChange) {
	ctx, cancel := context.WithTimeout(context.Background(), publishTimeout)
	defer cancel()

	now := time.Now().UTC()
	if change.released.Valid {
		s.publish(ctx, mq.KeyRoomReleased, RoomEvent{RoomID: change.released.UUID, UserID: userID, At: now})
	}
	if change.claimed.Valid {
		s.publish(ctx, mq.KeyRoomAssigned, RoomEvent{RoomID: change.claimed.UUID, UserID: userID, At: now})
	}
}

func (s *RoomAssignmentService) publish(ctx context.Context, key string, event RoomEvent) {
	if err := s.publisher.PublishJSON(ctx, key, event); err != nil {
		s.logger.WithError(err).WithFields(logrus.Fields{
			"event":   key,
			"room_id": event.RoomID,
			"user_id": event.UserID,
		}).Warn("Failed to publish room event")
	}
}
