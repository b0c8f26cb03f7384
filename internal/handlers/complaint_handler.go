package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/hostelite/hostel-backend/internal/services"
	"github.com/sirupsen/logrus"
)

// ComplaintHandler handles complaint HTTP requests
type ComplaintHandler struct {
	complaintService *services.ComplaintService
	logger           *logrus.Logger
}

// NewComplaintHandler creates a new complaint handler
func NewComplaintHandler(complaintService *services.ComplaintService, logger *logrus.Logger) *ComplaintHandler {
	return &ComplaintHandler{
		complaintService: complaintService,
		logger:           logger,
	}
}

// CreateComplaintRequest represents a new complaint
type CreateComplaintRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
}

// UpdateComplaintRequest represents a status change
type UpdateComplaintRequest struct {
	Status string `json:"status"`
}

// Create handles POST /api/complaints
func (h *ComplaintHandler) Create(c *gin.Context) {
	var req CreateComplaintRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondInvalidBody(c)
		return
	}

	complaint, err := h.complaintService.Create(c.Request.Context(), callerFrom(c), req.Title, req.Description)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusCreated, complaint)
}

// List handles GET /api/complaints
func (h *ComplaintHandler) List(c *gin.Context) {
	complaints, err := h.complaintService.List(c.Request.Context(), callerFrom(c))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, complaints)
}

// UpdateStatus handles PUT /api/complaints/:id
func (h *ComplaintHandler) UpdateStatus(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}

	var req UpdateComplaintRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondInvalidBody(c)
		return
	}

	complaint, err := h.complaintService.UpdateStatus(c.Request.Context(), id, req.Status)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, complaint)
}
