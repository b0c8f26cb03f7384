package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// AuditLog is a stored audit event
type AuditLog struct {
	ID         int64           `json:"id" db:"id"`
	UserID     uuid.NullUUID   `json:"userId" db:"user_id"`
	Action     string          `json:"action" db:"action"`
	EntityType string          `json:"entityType" db:"entity_type"`
	EntityID   uuid.NullUUID   `json:"entityId" db:"entity_id"`
	IPAddress  NullString      `json:"ipAddress" db:"ip_address"`
	UserAgent  NullString      `json:"userAgent" db:"user_agent"`
	Details    json.RawMessage `json:"details" db:"details"`
	CreatedAt  time.Time       `json:"createdAt" db:"created_at"`
}
