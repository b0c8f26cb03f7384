package database

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"

	"github.com/hostelite/hostel-backend/internal/models"
)

// SystemSettingRepository handles database operations for system_settings table
type SystemSettingRepository struct {
	db DB
}

// NewSystemSettingRepository creates a new SystemSettingRepository
func NewSystemSettingRepository(db DB) *SystemSettingRepository {
	return &SystemSettingRepository{db: db}
}

// GetAll retrieves all system settings
func (r *SystemSettingRepository) GetAll(ctx context.Context) ([]models.SystemSetting, error) {
	query := `
		SELECT id, setting_key, setting_value, description, created_at, updated_at
		FROM system_settings
		ORDER BY setting_key
	`

	rows, err := r.db.QueryxContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list settings: %w", err)
	}
	defer rows.Close()

	settings := []models.SystemSetting{}
	for rows.Next() {
		var setting models.SystemSetting
		var description sql.NullString

		err := rows.Scan(
			&setting.ID,
			&setting.SettingKey,
			&setting.SettingValue,
			&description,
			&setting.CreatedAt,
			&setting.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan setting: %w", err)
		}

		if description.Valid {
			setting.Description = &description.String
		}

		settings = append(settings, setting)
	}

	return settings, rows.Err()
}

// GetOrCreate retrieves a setting, inserting it with defaultValue first if it is missing
func (r *SystemSettingRepository) GetOrCreate(ctx context.Context, key, defaultValue, description string) (*models.SystemSetting, error) {
	insert := `
		INSERT INTO system_settings (setting_key, setting_value, description)
		VALUES ($1, $2, $3)
		ON CONFLICT (setting_key) DO NOTHING
	`
	if _, err := r.db.ExecContext(ctx, insert, key, defaultValue, description); err != nil {
		return nil, fmt.Errorf("failed to ensure setting %s: %w", key, err)
	}

	query := `
		SELECT id, setting_key, setting_value, description, created_at, updated_at
		FROM system_settings
		WHERE setting_key = $1
	`

	var setting models.SystemSetting
	var desc sql.NullString
	err := r.db.QueryRowxContext(ctx, query, key).Scan(
		&setting.ID,
		&setting.SettingKey,
		&setting.SettingValue,
		&desc,
		&setting.CreatedAt,
		&setting.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get setting %s: %w", key, err)
	}

	if desc.Valid {
		setting.Description = &desc.String
	}

	return &setting, nil
}

// Upsert stores a setting value, creating the setting if needed
func (r *SystemSettingRepository) Upsert(ctx context.Context, key, value, description string) error {
	query := `
		INSERT INTO system_settings (setting_key, setting_value, description)
		VALUES ($1, $2, $3)
		ON CONFLICT (setting_key) DO UPDATE
		SET setting_value = EXCLUDED.setting_value, updated_at = NOW()
	`

	if _, err := r.db.ExecContext(ctx, query, key, value, description); err != nil {
		return fmt.Errorf("failed to update setting %s: %w", key, err)
	}
	return nil
}

// GetIntValue retrieves a system setting as an integer, creating it with defaultValue if missing
func (r *SystemSettingRepository) GetIntValue(ctx context.Context, key string, defaultValue int, description string) (int, error) {
	setting, err := r.GetOrCreate(ctx, key, strconv.Itoa(defaultValue), description)
	if err != nil {
		return 0, err
	}

	value, err := strconv.Atoi(setting.SettingValue)
	if err != nil {
		return defaultValue, nil
	}

	return value, nil
}
