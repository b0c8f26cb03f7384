package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/hostelite/hostel-backend/internal/models"
)

const mealColumns = `id, date, breakfast, lunch, dinner, updated_by, created_at, updated_at`

// MealRepository handles database operations for daily menus and ratings
type MealRepository struct {
	db DB
}

// NewMealRepository creates a new meal repository
func NewMealRepository(db DB) *MealRepository {
	return &MealRepository{db: db}
}

// Upsert stores the menu for meal.Date, replacing any existing one
func (r *MealRepository) Upsert(ctx context.Context, meal *models.Meal) (*models.Meal, error) {
	query := `
		INSERT INTO meals (id, date, breakfast, lunch, dinner, updated_by)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (date) DO UPDATE
		SET breakfast = EXCLUDED.breakfast,
		    lunch = EXCLUDED.lunch,
		    dinner = EXCLUDED.dinner,
		    updated_by = EXCLUDED.updated_by,
		    updated_at = NOW()
		RETURNING ` + mealColumns

	var saved models.Meal
	err := r.db.GetContext(ctx, &saved, query,
		uuid.New(), meal.Date, meal.Breakfast, meal.Lunch, meal.Dinner, meal.UpdatedBy,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to save meal: %w", err)
	}
	return &saved, nil
}

// GetByDate returns the menu for a date, or nil when none is stored
func (r *MealRepository) GetByDate(ctx context.Context, date string) (*models.Meal, error) {
	var meal models.Meal
	if err := r.db.GetContext(ctx, &meal, `SELECT `+mealColumns+` FROM meals WHERE date = $1`, date); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get meal: %w", err)
	}
	return &meal, nil
}

// CreateRating inserts a meal rating
func (r *MealRepository) CreateRating(ctx context.Context, rating *models.MealRating) error {
	rating.ID = uuid.New()
	rating.CreatedAt = time.Now()

	query := `
		INSERT INTO meal_ratings (id, student_id, breakfast, lunch, dinner, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`

	_, err := r.db.ExecContext(ctx, query,
		rating.ID, rating.StudentID, rating.Breakfast, rating.Lunch, rating.Dinner, rating.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create rating: %w", err)
	}
	return nil
}

// ListRatings returns every rating with its student, newest first
func (r *MealRepository) ListRatings(ctx context.Context) ([]models.MealRatingWithStudent, error) {
	query := `
		SELECT mr.id, mr.student_id, mr.breakfast, mr.lunch, mr.dinner, mr.created_at,
		       u.name AS student_name, u.email AS student_email
		FROM meal_ratings mr
		JOIN users u ON u.id = mr.student_id
		ORDER BY mr.created_at DESC
	`

	ratings := []models.MealRatingWithStudent{}
	if err := r.db.SelectContext(ctx, &ratings, query); err != nil {
		return nil, fmt.Errorf("failed to list ratings: %w", err)
	}
	return ratings, nil
}

// DeleteRating removes a rating. It reports false when the rating did not exist.
func (r *MealRepository) DeleteRating(ctx context.Context, id uuid.UUID) (bool, error) {
	result, err := r.db.ExecContext(ctx, `DELETE FROM meal_ratings WHERE id = $1`, id)
	if err != nil {
		return false, fmt.Errorf("failed to delete rating: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return rows > 0, nil
}
