package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/hostelite/hostel-backend/internal/middleware"
	"github.com/hostelite/hostel-backend/internal/services"
	"github.com/sirupsen/logrus"
)

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

// MessageResponse is the body of simple acknowledgements
type MessageResponse struct {
	Message string `json:"message"`
}

// respondError converts a service error into the JSON error body and status.
// Internal errors are logged and replaced by a generic message.
func respondError(c *gin.Context, logger *logrus.Logger, err error) {
	var rateLimitErr *services.RateLimitError
	if errors.As(err, &rateLimitErr) {
		c.JSON(http.StatusTooManyRequests, gin.H{
			"error":       "rate_limit_exceeded",
			"message":     rateLimitErr.Message,
			"retry_after": rateLimitErr.RetryAfter,
			"type":        rateLimitErr.Type,
		})
		return
	}

	message := services.MessageOf(err)
	switch services.KindOf(err) {
	case services.KindInvalidInput:
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "validation_error", Message: message})
	case services.KindSignatureInvalid:
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid_signature", Message: message, Code: "SIGNATURE_INVALID"})
	case services.KindConflict:
		if services.IsLimitReached(err) {
			c.JSON(http.StatusForbidden, ErrorResponse{Error: "conflict", Message: message, Code: "LIMIT_REACHED"})
			return
		}
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "conflict", Message: message})
	case services.KindNotFound:
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "not_found", Message: message})
	case services.KindForbidden:
		c.JSON(http.StatusForbidden, ErrorResponse{Error: "forbidden", Message: message})
	case services.KindUnauthorized:
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized", Message: message})
	case services.KindUpstream:
		logger.WithError(err).WithField("path", c.FullPath()).Error("Upstream service failed")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "upstream_error", Message: message})
	default:
		logger.WithError(err).WithField("path", c.FullPath()).Error("Request failed")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal_error", Message: "Internal server error"})
	}
}

func respondInvalidBody(c *gin.Context) {
	c.JSON(http.StatusBadRequest, ErrorResponse{
		Error:   "validation_error",
		Message: "Invalid request body",
	})
}

// uuidParam parses a path parameter, writing a 400 when it is not a UUID
func uuidParam(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "validation_error",
			Message: "Invalid " + name,
		})
		return uuid.Nil, false
	}
	return id, true
}

// callerFrom returns the authenticated caller set by AuthMiddleware
func callerFrom(c *gin.Context) services.Caller {
	userCtx := middleware.MustGetUserContext(c)
	return services.Caller{UserID: userCtx.UserID, Role: userCtx.Role}
}
