package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/hostelite/hostel-backend/internal/reports"
	"github.com/hostelite/hostel-backend/internal/services"
	"github.com/sirupsen/logrus"
)

// UserHandler handles administrator user management requests
type UserHandler struct {
	userService *services.UserService
	logger      *logrus.Logger
}

// NewUserHandler creates a new user handler
func NewUserHandler(userService *services.UserService, logger *logrus.Logger) *UserHandler {
	return &UserHandler{
		userService: userService,
		logger:      logger,
	}
}

// UpdateUserRequest is the allow-listed user edit. RoomID distinguishes an
// absent field from an explicit null, which unassigns the room.
type UpdateUserRequest struct {
	Name   *string         `json:"name"`
	Email  *string         `json:"email"`
	Role   *string         `json:"role"`
	RoomID json.RawMessage `json:"roomId"`
}

func (r UpdateUserRequest) patch() (services.UserPatch, error) {
	patch := services.UserPatch{Name: r.Name, Email: r.Email, Role: r.Role}
	if len(r.RoomID) == 0 {
		return patch, nil
	}

	room := &uuid.NullUUID{}
	if !bytes.Equal(bytes.TrimSpace(r.RoomID), []byte("null")) {
		var raw string
		if err := json.Unmarshal(r.RoomID, &raw); err != nil {
			return patch, services.NewInvalidInput("Invalid roomId")
		}
		if raw != "" {
			id, err := uuid.Parse(raw)
			if err != nil {
				return patch, services.NewInvalidInput("Invalid roomId")
			}
			room = &uuid.NullUUID{UUID: id, Valid: true}
		}
	}
	patch.RoomID = room
	return patch, nil
}

// List handles GET /api/users
func (h *UserHandler) List(c *gin.Context) {
	users, err := h.userService.List(c.Request.Context(), c.Query("role"))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, users)
}

// Get handles GET /api/users/:id
func (h *UserHandler) Get(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}

	detail, err := h.userService.Get(c.Request.Context(), id)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, detail)
}

// Update handles PUT /api/users/:id
func (h *UserHandler) Update(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}

	var req UpdateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondInvalidBody(c)
		return
	}
	patch, err := req.patch()
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	user, err := h.userService.Update(c.Request.Context(), callerFrom(c), id, patch)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "User updated successfully",
		"user":    user,
	})
}

// Delete handles DELETE /api/users/:id
func (h *UserHandler) Delete(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}

	if err := h.userService.Delete(c.Request.Context(), callerFrom(c), id); err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, MessageResponse{Message: "User deleted successfully"})
}

// Activity handles GET /api/users/:id/activity
func (h *UserHandler) Activity(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	limit, _ := strconv.Atoi(c.Query("limit"))

	events, err := h.userService.Activity(c.Request.Context(), id, limit)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, events)
}

// RoleCounts handles GET /api/users/role-counts
func (h *UserHandler) RoleCounts(c *gin.Context) {
	counts, err := h.userService.RoleCounts(c.Request.Context())
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, counts)
}

// Export handles GET /api/users/export
func (h *UserHandler) Export(c *gin.Context) {
	data, err := h.userService.Export(c.Request.Context())
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.Header("Content-Disposition", `attachment; filename="`+reports.ExportFileName("users", time.Now())+`"`)
	c.Data(http.StatusOK, reports.XLSXContentType, data)
}
