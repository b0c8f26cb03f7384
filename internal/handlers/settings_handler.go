package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/hostelite/hostel-backend/internal/services"
	"github.com/sirupsen/logrus"
)

// SystemSettingHandler handles system settings HTTP requests
type SystemSettingHandler struct {
	settingsService *services.SettingsService
	logger          *logrus.Logger
}

// NewSystemSettingHandler creates a new system setting handler
func NewSystemSettingHandler(settingsService *services.SettingsService, logger *logrus.Logger) *SystemSettingHandler {
	return &SystemSettingHandler{
		settingsService: settingsService,
		logger:          logger,
	}
}

// UpdateSettingsRequest represents an administrator's settings change
type UpdateSettingsRequest struct {
	TotalRooms *int `json:"totalRooms" binding:"required"`
}

// Get handles GET /api/system-settings
func (h *SystemSettingHandler) Get(c *gin.Context) {
	settings, err := h.settingsService.Get(c.Request.Context())
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, settings)
}

// Update handles PUT /api/system-settings
func (h *SystemSettingHandler) Update(c *gin.Context) {
	var req UpdateSettingsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "validation_error",
			Message: "totalRooms is required",
		})
		return
	}

	settings, err := h.settingsService.UpdateTotalRooms(c.Request.Context(), *req.TotalRooms)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message":  "Rooms updated successfully",
		"settings": settings,
	})
}
