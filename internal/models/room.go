package models

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Room is a hostel room. Occupied is true exactly when OccupantID is set.
type Room struct {
	ID         uuid.UUID     `json:"id" db:"id"`
	Number     string        `json:"number" db:"number"`
	Occupied   bool          `json:"occupied" db:"occupied"`
	OccupantID uuid.NullUUID `json:"occupantId" db:"occupant_id"`
	CreatedAt  time.Time     `json:"createdAt" db:"created_at"`
	UpdatedAt  time.Time     `json:"updatedAt" db:"updated_at"`
}

// RoomWithOccupant is a room joined with its occupant's identity
type RoomWithOccupant struct {
	Room
	OccupantName  NullString `json:"occupantName" db:"occupant_name"`
	OccupantEmail NullString `json:"occupantEmail" db:"occupant_email"`
}

// RoomNumber formats the label for the n-th room
func RoomNumber(n int) string {
	return fmt.Sprintf("R-%d", n)
}
