package services

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/hostelite/hostel-backend/internal/database"
	"github.com/hostelite/hostel-backend/internal/models"
	"github.com/hostelite/hostel-backend/internal/utils"
)

// Audit actions
const (
	AuditActionLogin              = "login"
	AuditActionLoginFailed        = "login_failed"
	AuditActionRegister           = "register"
	AuditActionPasswordResetIssue = "password_reset_request"
	AuditActionPasswordReset      = "password_reset"
	AuditActionRateLimit          = "rate_limit_violation"
	AuditActionPaymentCompleted   = "payment_completed"
	AuditActionPaymentOverride    = "payment_status_override"
)

// AuditService handles audit logging for security and payment events
type AuditService struct {
	db database.DB
}

// NewAuditService creates a new audit service
func NewAuditService(db database.DB) *AuditService {
	return &AuditService{
		db: db,
	}
}

// AuditEvent represents an event to be logged
type AuditEvent struct {
	UserID     *uuid.UUID             // Can be nil for pre-authentication events
	Action     string                 // One of the AuditAction* values
	EntityType string                 // Type of entity affected (e.g., "user", "payment")
	EntityID   *uuid.UUID             // ID of the affected entity (can be nil)
	IPAddress  string                 // Client IP address
	UserAgent  string                 // Client user agent
	Details    map[string]interface{} // Stored as JSONB
}

// LogLogin logs a login attempt. userID is nil when the email matched no account.
func (s *AuditService) LogLogin(ctx context.Context, userID *uuid.UUID, email, ipAddress, userAgent string, success bool) error {
	action := AuditActionLogin
	if !success {
		action = AuditActionLoginFailed
	}

	return s.logEvent(ctx, AuditEvent{
		UserID:     userID,
		Action:     action,
		EntityType: "user",
		EntityID:   userID,
		IPAddress:  ipAddress,
		UserAgent:  userAgent,
		Details: map[string]interface{}{
			"email":       email,
			"success":     success,
			"device_info": utils.ParseUserAgent(userAgent),
		},
	})
}

// LogRegister logs a new account
func (s *AuditService) LogRegister(ctx context.Context, userID uuid.UUID, role, ipAddress, userAgent string) error {
	return s.logEvent(ctx, AuditEvent{
		UserID:     &userID,
		Action:     AuditActionRegister,
		EntityType: "user",
		EntityID:   &userID,
		IPAddress:  ipAddress,
		UserAgent:  userAgent,
		Details:    map[string]interface{}{"role": role},
	})
}

// LogPasswordResetRequest logs an OTP being issued
func (s *AuditService) LogPasswordResetRequest(ctx context.Context, userID uuid.UUID, ipAddress, userAgent string) error {
	return s.logEvent(ctx, AuditEvent{
		UserID:     &userID,
		Action:     AuditActionPasswordResetIssue,
		EntityType: "otp",
		IPAddress:  ipAddress,
		UserAgent:  userAgent,
		Details:    map[string]interface{}{"device_info": utils.ParseUserAgent(userAgent)},
	})
}

// LogPasswordReset logs a completed password reset
func (s *AuditService) LogPasswordReset(ctx context.Context, userID uuid.UUID, ipAddress, userAgent string) error {
	return s.logEvent(ctx, AuditEvent{
		UserID:     &userID,
		Action:     AuditActionPasswordReset,
		EntityType: "user",
		EntityID:   &userID,
		IPAddress:  ipAddress,
		UserAgent:  userAgent,
		Details:    map[string]interface{}{"device_info": utils.ParseUserAgent(userAgent)},
	})
}

// LogRateLimitViolation logs a rate limit violation event
func (s *AuditService) LogRateLimitViolation(ctx context.Context, email, ipAddress, userAgent, limitType string, retryAfter time.Time) error {
	return s.logEvent(ctx, AuditEvent{
		Action:     AuditActionRateLimit,
		EntityType: "rate_limit",
		IPAddress:  ipAddress,
		UserAgent:  userAgent,
		Details: map[string]interface{}{
			"email":       email,
			"limit_type":  limitType,
			"retry_after": retryAfter,
			"device_info": utils.ParseUserAgent(userAgent),
		},
	})
}

// LogPaymentCompleted logs the settlement of a payment
func (s *AuditService) LogPaymentCompleted(ctx context.Context, payment *models.Payment) error {
	return s.logEvent(ctx, AuditEvent{
		UserID:     &payment.StudentID,
		Action:     AuditActionPaymentCompleted,
		EntityType: "payment",
		EntityID:   &payment.ID,
		Details: map[string]interface{}{
			"amount":             payment.Amount.String(),
			"currency":           payment.Currency,
			"order_id":           payment.OrderID.String,
			"gateway_payment_id": payment.GatewayPaymentID.String,
		},
	})
}

// LogPaymentOverride logs an administrator changing a payment status by hand
func (s *AuditService) LogPaymentOverride(ctx context.Context, adminID, paymentID uuid.UUID, status string) error {
	return s.logEvent(ctx, AuditEvent{
		UserID:     &adminID,
		Action:     AuditActionPaymentOverride,
		EntityType: "payment",
		EntityID:   &paymentID,
		Details:    map[string]interface{}{"status": status},
	})
}

func (s *AuditService) logEvent(ctx context.Context, event AuditEvent) error {
	query := `
		INSERT INTO audit_logs (user_id, action, entity_type, entity_id, ip_address, user_agent, details, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, NOW())
	`

	details, err := json.Marshal(event.Details)
	if err != nil {
		return fmt.Errorf("failed to encode audit details: %w", err)
	}

	_, err = s.db.ExecContext(ctx, query,
		nullableUUID(event.UserID),
		event.Action,
		event.EntityType,
		nullableUUID(event.EntityID),
		models.NewNullString(event.IPAddress),
		models.NewNullString(event.UserAgent),
		details,
	)
	if err != nil {
		return fmt.Errorf("failed to log audit event: %w", err)
	}

	return nil
}

// GetRecentEvents retrieves recent audit events for a user
func (s *AuditService) GetRecentEvents(ctx context.Context, userID uuid.UUID, limit int) ([]models.AuditLog, error) {
	query := `
		SELECT id, user_id, action, entity_type, entity_id, ip_address, user_agent, details, created_at
		FROM audit_logs
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT $2
	`

	events := []models.AuditLog{}
	if err := s.db.SelectContext(ctx, &events, query, userID, limit); err != nil {
		return nil, fmt.Errorf("failed to get recent events: %w", err)
	}
	return events, nil
}

// CleanupOldAuditLogs removes audit logs older than the specified duration
func (s *AuditService) CleanupOldAuditLogs(ctx context.Context, olderThan time.Duration) (int64, error) {
	result, err := s.db.ExecContext(ctx, `DELETE FROM audit_logs WHERE created_at < $1`, time.Now().Add(-olderThan))
	if err != nil {
		return 0, fmt.Errorf("failed to cleanup old audit logs: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}

	return rowsAffected, nil
}

func nullableUUID(id *uuid.UUID) uuid.NullUUID {
	if id == nil {
		return uuid.NullUUID{}
	}
	return uuid.NullUUID{UUID: *id, Valid: true}
}
