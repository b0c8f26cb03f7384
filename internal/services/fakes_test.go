package services

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/hostelite/hostel-backend/internal/database"
	"github.com/hostelite/hostel-backend/internal/models"
)

// fakeHostel is an in-memory rooms/users store. RunInTx is serialized and
// rolls back on error, matching the row-locked transactions of the real store.
type fakeHostel struct {
	mu    sync.Mutex
	users map[uuid.UUID]models.User
	rooms map[uuid.UUID]models.Room
	order []uuid.UUID

	// payers have payment rows and cannot be deleted
	payers map[uuid.UUID]bool
}

func newFakeHostel() *fakeHostel {
	return &fakeHostel{
		users: make(map[uuid.UUID]models.User),
		rooms:  make(map[uuid.UUID]models.Room),
		payers: make(map[uuid.UUID]bool),
	}
}

func (h *fakeHostel) addUser(name, role string) models.User {
	h.mu.Lock()
	defer h.mu.Unlock()

	user := models.User{
		ID:        uuid.New(),
		Name:      name,
		Email:     name + "@example.com",
		Role:      role,
		CreatedAt: time.Now(),
	}
	h.users[user.ID] = user
	return user
}

func (h *fakeHostel) user(id uuid.UUID) models.User {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.users[id]
}

func (h *fakeHostel) room(id uuid.UUID) models.Room {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.rooms[id]
}

func (h *fakeHostel) roomByNumber(number string) models.Room {
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, room := range h.rooms {
		if room.Number == number {
			return room
		}
	}
	return models.Room{}
}

// consistent reports whether every room and user reference agree
func (h *fakeHostel) consistent() bool {
	h.mu.Lock()
	defer h.mu.Unlock()

	occupants := make(map[uuid.UUID]bool)
	for _, room := range h.rooms {
		if room.Occupied != room.OccupantID.Valid {
			return false
		}
		if room.OccupantID.Valid {
			if occupants[room.OccupantID.UUID] {
				return false
			}
			occupants[room.OccupantID.UUID] = true
			if h.users[room.OccupantID.UUID].RoomID.UUID != room.ID {
				return false
			}
		}
	}
	for _, user := range h.users {
		if user.RoomID.Valid && h.rooms[user.RoomID.UUID].OccupantID.UUID != user.ID {
			return false
		}
	}
	return true
}

func (h *fakeHostel) RunInTx(ctx context.Context, fn func(tx database.OccupancyTx) error) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	users := make(map[uuid.UUID]models.User, len(h.users))
	for k, v := range h.users {
		users[k] = v
	}
	rooms := make(map[uuid.UUID]models.Room, len(h.rooms))
	for k, v := range h.rooms {
		rooms[k] = v
	}

	if err := fn(&fakeOccupancyTx{h: h}); err != nil {
		h.users = users
		h.rooms = rooms
		return err
	}
	return nil
}

func (h *fakeHostel) BulkCreate(ctx context.Context, total int) ([]models.Room, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if len(h.rooms) > 0 {
		return nil, database.ErrRoomsAlreadyExist
	}
	created := make([]models.Room, 0, total)
	for i := 1; i <= total; i++ {
		room := models.Room{ID: uuid.New(), Number: models.RoomNumber(i)}
		h.rooms[room.ID] = room
		h.order = append(h.order, room.ID)
		created = append(created, room)
	}
	return created, nil
}

func (h *fakeHostel) List(ctx context.Context) ([]models.RoomWithOccupant, error) {
	return h.list(false), nil
}

func (h *fakeHostel) ListAvailable(ctx context.Context) ([]models.RoomWithOccupant, error) {
	return h.list(true), nil
}

func (h *fakeHostel) list(freeOnly bool) []models.RoomWithOccupant {
	h.mu.Lock()
	defer h.mu.Unlock()

	rooms := []models.RoomWithOccupant{}
	for _, id := range h.order {
		room := h.rooms[id]
		if freeOnly && room.Occupied {
			continue
		}
		rooms = append(rooms, models.RoomWithOccupant{Room: room})
	}
	return rooms
}

type fakeOccupancyTx struct {
	h *fakeHostel
}

func (t *fakeOccupancyTx) LockUser(ctx context.Context, userID uuid.UUID) (*models.User, error) {
	user, ok := t.h.users[userID]
	if !ok {
		return nil, nil
	}
	return &user, nil
}

func (t *fakeOccupancyTx) LockRoom(ctx context.Context, roomID uuid.UUID) (*models.Room, error) {
	room, ok := t.h.rooms[roomID]
	if !ok {
		return nil, nil
	}
	return &room, nil
}

func (t *fakeOccupancyTx) ClaimRoom(ctx context.Context, roomID, userID uuid.UUID) (bool, error) {
	room, ok := t.h.rooms[roomID]
	if !ok || room.Occupied {
		return false, nil
	}
	room.Occupied = true
	room.OccupantID = uuid.NullUUID{UUID: userID, Valid: true}
	t.h.rooms[roomID] = room
	return true, nil
}

func (t *fakeOccupancyTx) ReleaseRoom(ctx context.Context, roomID, userID uuid.UUID) error {
	room, ok := t.h.rooms[roomID]
	if !ok || room.OccupantID.UUID != userID {
		return database.ErrOccupancyMismatch
	}
	room.Occupied = false
	room.OccupantID = uuid.NullUUID{}
	t.h.rooms[roomID] = room
	return nil
}

func (t *fakeOccupancyTx) SetUserRoom(ctx context.Context, userID uuid.UUID, roomID uuid.NullUUID) error {
	user := t.h.users[userID]
	user.RoomID = roomID
	t.h.users[userID] = user
	return nil
}

func (t *fakeOccupancyTx) UpdateUser(ctx context.Context, userID uuid.UUID, update models.UserUpdate) error {
	user := t.h.users[userID]
	if update.Email != nil {
		for id, other := range t.h.users {
			if id != userID && other.Email == *update.Email {
				return database.ErrEmailTaken
			}
		}
		user.Email = *update.Email
	}
	if update.Name != nil {
		user.Name = *update.Name
	}
	if update.Role != nil {
		user.Role = *update.Role
	}
	t.h.users[userID] = user
	return nil
}

func (t *fakeOccupancyTx) DeleteUser(ctx context.Context, userID uuid.UUID) error {
	for _, room := range t.h.rooms {
		if room.OccupantID.Valid && room.OccupantID.UUID == userID {
			return errors.New("rooms_occupant_id_fkey violation")
		}
	}
	if t.h.payers[userID] {
		return database.ErrUserHasPayments
	}
	delete(t.h.users, userID)
	return nil
}

type publishedEvent struct {
	key     string
	payload any
}

// fakePublisher records events
type fakePublisher struct {
	mu     sync.Mutex
	events []publishedEvent
	err    error
}

func (p *fakePublisher) PublishJSON(ctx context.Context, key string, v any) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.events = append(p.events, publishedEvent{key: key, payload: v})
	return nil
}

func (p *fakePublisher) Close() error { return nil }

func (p *fakePublisher) keys() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	keys := make([]string, 0, len(p.events))
	for _, e := range p.events {
		keys = append(keys, e.key)
	}
	return keys
}
