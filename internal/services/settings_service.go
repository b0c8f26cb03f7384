package services

import (
	"context"
	"strconv"

	"github.com/hostelite/hostel-backend/internal/models"
)

const totalRoomsDescription = "Number of rooms in the hostel"

// SettingStore reads and writes system settings
type SettingStore interface {
	GetIntValue(ctx context.Context, key string, defaultValue int, description string) (int, error)
	Upsert(ctx context.Context, key, value, description string) error
}

// SettingsService exposes the public hostel settings
type SettingsService struct {
	settings SettingStore
}

// NewSettingsService creates a new settings service
func NewSettingsService(settings SettingStore) *SettingsService {
	return &SettingsService{settings: settings}
}

// Get returns the settings, creating missing values with their defaults
func (s *SettingsService) Get(ctx context.Context) (*models.SystemSettings, error) {
	total, err := s.settings.GetIntValue(ctx, models.SettingTotalRooms, 0, totalRoomsDescription)
	if err != nil {
		return nil, err
	}
	return &models.SystemSettings{TotalRooms: total}, nil
}

// UpdateTotalRooms records the configured number of rooms
func (s *SettingsService) UpdateTotalRooms(ctx context.Context, total int) (*models.SystemSettings, error) {
	if total < 0 {
		return nil, NewInvalidInput("Total rooms cannot be negative")
	}
	if err := s.settings.Upsert(ctx, models.SettingTotalRooms, strconv.Itoa(total), totalRoomsDescription); err != nil {
		return nil, err
	}
	return &models.SystemSettings{TotalRooms: total}, nil
}
