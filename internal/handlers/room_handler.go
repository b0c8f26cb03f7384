package handlers

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/hostelite/hostel-backend/internal/services"
	"github.com/sirupsen/logrus"
)

// RoomHandler handles room HTTP requests
type RoomHandler struct {
	roomService *services.RoomAssignmentService
	logger      *logrus.Logger
}

// NewRoomHandler creates a new room handler
func NewRoomHandler(roomService *services.RoomAssignmentService, logger *logrus.Logger) *RoomHandler {
	return &RoomHandler{
		roomService: roomService,
		logger:      logger,
	}
}

// CreateRoomsRequest represents the request to create the hostel rooms
type CreateRoomsRequest struct {
	TotalRooms int `json:"totalRooms"`
}

// AssignRoomRequest represents the request to give a student a room
type AssignRoomRequest struct {
	StudentID uuid.UUID `json:"studentId" binding:"required"`
	RoomID    uuid.UUID `json:"roomId" binding:"required"`
}

// UnassignRoomRequest represents the request to free a student's room
type UnassignRoomRequest struct {
	StudentID uuid.UUID `json:"studentId" binding:"required"`
}

// CreateRooms handles POST /api/rooms/create
func (h *RoomHandler) CreateRooms(c *gin.Context) {
	var req CreateRoomsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondInvalidBody(c)
		return
	}

	rooms, err := h.roomService.CreateRooms(c.Request.Context(), req.TotalRooms)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message": fmt.Sprintf("%d Rooms created successfully", len(rooms)),
		"rooms":   rooms,
	})
}

// List handles GET /api/rooms
func (h *RoomHandler) List(c *gin.Context) {
	rooms, err := h.roomService.ListRooms(c.Request.Context())
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, rooms)
}

// ListAvailable handles GET /api/rooms/available
func (h *RoomHandler) ListAvailable(c *gin.Context) {
	rooms, err := h.roomService.ListAvailableRooms(c.Request.Context())
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, rooms)
}

// Assign handles PUT /api/rooms/assign
func (h *RoomHandler) Assign(c *gin.Context) {
	var req AssignRoomRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "validation_error",
			Message: "studentId and roomId are required",
		})
		return
	}

	if err := h.roomService.Assign(c.Request.Context(), req.StudentID, req.RoomID); err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, MessageResponse{Message: "Room assigned successfully"})
}

// Unassign handles PUT /api/rooms/unassign
func (h *RoomHandler) Unassign(c *gin.Context) {
	var req UnassignRoomRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "validation_error",
			Message: "studentId is required",
		})
		return
	}

	if err := h.roomService.Unassign(c.Request.Context(), req.StudentID); err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, MessageResponse{Message: "Room unassigned successfully"})
}
