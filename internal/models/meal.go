package models

import (
	"time"

	"github.com/google/uuid"
)

// MealDateLayout is the layout of Meal.Date
const MealDateLayout = "2006-01-02"

// Meal is the menu for one UTC day
type Meal struct {
	ID        uuid.UUID     `json:"id" db:"id"`
	Date      string        `json:"date" db:"date"`
	Breakfast string        `json:"breakfast" db:"breakfast"`
	Lunch     string        `json:"lunch" db:"lunch"`
	Dinner    string        `json:"dinner" db:"dinner"`
	UpdatedBy uuid.NullUUID `json:"updatedBy" db:"updated_by"`
	CreatedAt time.Time     `json:"createdAt" db:"created_at"`
	UpdatedAt time.Time     `json:"updatedAt" db:"updated_at"`
}

// MealRating is a student's score for a day's meals
type MealRating struct {
	ID        uuid.UUID `json:"id" db:"id"`
	StudentID uuid.UUID `json:"studentId" db:"student_id"`
	Breakfast int       `json:"breakfast" db:"breakfast"`
	Lunch     int       `json:"lunch" db:"lunch"`
	Dinner    int       `json:"dinner" db:"dinner"`
	CreatedAt time.Time `json:"createdAt" db:"created_at"`
}

// MealRatingWithStudent is a rating joined with the submitting student
type MealRatingWithStudent struct {
	MealRating
	StudentName  string `json:"studentName" db:"student_name"`
	StudentEmail string `json:"studentEmail" db:"student_email"`
}
