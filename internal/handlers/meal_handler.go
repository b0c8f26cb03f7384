package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/hostelite/hostel-backend/internal/services"
	"github.com/sirupsen/logrus"
)

// MealHandler handles meal menu and rating HTTP requests
type MealHandler struct {
	mealService *services.MealService
	logger      *logrus.Logger
}

// NewMealHandler creates a new meal handler
func NewMealHandler(mealService *services.MealService, logger *logrus.Logger) *MealHandler {
	return &MealHandler{
		mealService: mealService,
		logger:      logger,
	}
}

// SaveMealRequest represents today's menu
type SaveMealRequest struct {
	Breakfast string `json:"breakfast"`
	Lunch     string `json:"lunch"`
	Dinner    string `json:"dinner"`
}

// SubmitRatingRequest represents a student's scores for the day's meals
type SubmitRatingRequest struct {
	Breakfast int `json:"breakfast"`
	Lunch     int `json:"lunch"`
	Dinner    int `json:"dinner"`
}

// SaveToday handles POST /api/meals
func (h *MealHandler) SaveToday(c *gin.Context) {
	var req SaveMealRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondInvalidBody(c)
		return
	}

	meal, err := h.mealService.SaveToday(c.Request.Context(), callerFrom(c), req.Breakfast, req.Lunch, req.Dinner)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, meal)
}

// Today handles GET /api/meals/today. The body is null when no menu was set.
func (h *MealHandler) Today(c *gin.Context) {
	meal, err := h.mealService.Today(c.Request.Context())
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, meal)
}

// SubmitRating handles POST /api/ratings/submit
func (h *MealHandler) SubmitRating(c *gin.Context) {
	var req SubmitRatingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "validation_error",
			Message: "Ratings must be between 1 and 5",
		})
		return
	}

	rating, err := h.mealService.SubmitRating(c.Request.Context(), callerFrom(c), req.Breakfast, req.Lunch, req.Dinner)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusCreated, rating)
}

// ListRatings handles GET /api/ratings
func (h *MealHandler) ListRatings(c *gin.Context) {
	ratings, err := h.mealService.ListRatings(c.Request.Context())
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, ratings)
}

// DeleteRating handles DELETE /api/ratings/:id
func (h *MealHandler) DeleteRating(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}

	if err := h.mealService.DeleteRating(c.Request.Context(), id); err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, MessageResponse{Message: "Rating deleted successfully"})
}
