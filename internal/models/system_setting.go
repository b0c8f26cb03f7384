package models

import (
	"time"
)

// SettingTotalRooms is the key of the configured room count
const SettingTotalRooms = "total_rooms"

// SystemSetting represents a system-wide configuration setting
type SystemSetting struct {
	ID           string    `json:"id" db:"id"`
	SettingKey   string    `json:"setting_key" db:"setting_key"`
	SettingValue string    `json:"setting_value" db:"setting_value"`
	Description  *string   `json:"description,omitempty" db:"description"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time `json:"updated_at" db:"updated_at"`
}

// SystemSettings is the public settings document
type SystemSettings struct {
	TotalRooms int `json:"totalRooms"`
}
