package services

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
	"github.com/hostelite/hostel-backend/internal/models"
	"github.com/sirupsen/logrus"
)

const (
	mealCachePrefix = "meal:"
	maxMealCacheTTL = time.Hour
)

// storeMealScript writes a menu into the cache hash unless the cached copy
// carries a newer version. KEYS[1] is the hash, ARGV is version, data, ttl ms.
var storeMealScript = redis.NewScript(`
local cur = redis.call('HGET', KEYS[1], 'v')
if cur and tonumber(cur) > tonumber(ARGV[1]) then
	return 0
end
redis.call('HSET', KEYS[1], 'v', ARGV[1], 'data', ARGV[2])
redis.call('PEXPIRE', KEYS[1], ARGV[3])
return 1
`)

// MealStore persists menus and ratings
type MealStore interface {
	Upsert(ctx context.Context, meal *models.Meal) (*models.Meal, error)
	GetByDate(ctx context.Context, date string) (*models.Meal, error)
	CreateRating(ctx context.Context, rating *models.MealRating) error
	ListRatings(ctx context.Context) ([]models.MealRatingWithStudent, error)
	DeleteRating(ctx context.Context, id uuid.UUID) (bool, error)
}

// MealService manages the daily menu and meal ratings
type MealService struct {
	meals  MealStore
	cache  redis.Cmdable
	logger *logrus.Logger
	now    func() time.Time
}

// NewMealService creates a new meal service. A nil cache disables caching.
func NewMealService(meals MealStore, cache redis.Cmdable, logger *logrus.Logger) *MealService {
	return &MealService{
		meals:  meals,
		cache:  cache,
		logger: logger,
		now:    time.Now,
	}
}

// SaveToday stores the menu for the current UTC day
func (s *MealService) SaveToday(ctx context.Context, caller Caller, breakfast, lunch, dinner string) (*models.Meal, error) {
	breakfast = strings.TrimSpace(breakfast)
	lunch = strings.TrimSpace(lunch)
	dinner = strings.TrimSpace(dinner)
	if breakfast == "" || lunch == "" || dinner == "" {
		return nil, NewInvalidInput("Breakfast, lunch and dinner are required")
	}

	date := s.today()
	meal, err := s.meals.Upsert(ctx, &models.Meal{
		Date:      date,
		Breakfast: breakfast,
		Lunch:     lunch,
		Dinner:    dinner,
		UpdatedBy: uuid.NullUUID{UUID: caller.UserID, Valid: true},
	})
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		s.storeCached(ctx, meal)
	}
	return meal, nil
}

// Today returns the current UTC day's menu, or nil when none is set
func (s *MealService) Today(ctx context.Context) (*models.Meal, error) {
	date := s.today()
	key := mealCachePrefix + date

	if s.cache != nil {
		cached, err := s.cache.HGet(ctx, key, "data").Bytes()
		switch {
		case err == nil:
			var meal models.Meal
			if err := json.Unmarshal(cached, &meal); err == nil {
				return &meal, nil
			}
			s.logger.WithField("key", key).Warn("Discarding unreadable meal cache entry")
		case err != redis.Nil:
			s.logger.WithError(err).WithField("key", key).Warn("Meal cache unavailable")
		}
	}

	meal, err := s.meals.GetByDate(ctx, date)
	if err != nil {
		return nil, err
	}
	if meal == nil || s.cache == nil {
		return meal, nil
	}

	s.storeCached(ctx, meal)
	return meal, nil
}

// storeCached caches meal versioned by its update time, so a reader holding
// an older row cannot replace a menu saved after it read
func (s *MealService) storeCached(ctx context.Context, meal *models.Meal) {
	key := mealCachePrefix + meal.Date

	data, err := json.Marshal(meal)
	if err != nil {
		return
	}

	version := meal.UpdatedAt.UnixMicro()
	ttl := s.cacheTTL().Milliseconds()
	if err := storeMealScript.Run(ctx, s.cache, []string{key}, version, data, ttl).Err(); err != nil {
		s.logger.WithError(err).WithField("key", key).Warn("Failed to cache meal")
		if err := s.cache.Del(ctx, key).Err(); err != nil {
			s.logger.WithError(err).WithField("key", key).Warn("Failed to invalidate meal cache")
		}
	}
}

// SubmitRating stores a student's scores. Every score must be 1 to 5.
func (s *MealService) SubmitRating(ctx context.Context, caller Caller, breakfast, lunch, dinner int) (*models.MealRating, error) {
	for _, score := range []int{breakfast, lunch, dinner} {
		if score < 1 || score > 5 {
			return nil, NewInvalidInput("Ratings must be between 1 and 5")
		}
	}

	rating := &models.MealRating{
		StudentID: caller.UserID,
		Breakfast: breakfast,
		Lunch:     lunch,
		Dinner:    dinner,
	}
	if err := s.meals.CreateRating(ctx, rating); err != nil {
		return nil, err
	}
	return rating, nil
}

// ListRatings returns every rating, newest first
func (s *MealService) ListRatings(ctx context.Context) ([]models.MealRatingWithStudent, error) {
	return s.meals.ListRatings(ctx)
}

// DeleteRating removes a rating
func (s *MealService) DeleteRating(ctx context.Context, id uuid.UUID) error {
	deleted, err := s.meals.DeleteRating(ctx, id)
	if err != nil {
		return err
	}
	if !deleted {
		return NewNotFound("Rating not found")
	}
	return nil
}

func (s *MealService) today() string {
	return s.now().UTC().Format(models.MealDateLayout)
}

// cacheTTL lasts until the end of the UTC day, capped at maxMealCacheTTL
func (s *MealService) cacheTTL() time.Duration {
	now := s.now().UTC()
	midnight := time.Date(now.Year(), now.Month(), now.Day()+1, 0, 0, 0, 0, time.UTC)
	ttl := midnight.Sub(now)
	if ttl > maxMealCacheTTL {
		return maxMealCacheTTL
	}
	return ttl
}
