package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/hostelite/hostel-backend/internal/models"
)

const paymentColumns = `
	id, student_id, student_name, amount, currency, status, month, description,
	order_id, gateway_payment_id, gateway_signature, completed_at, created_at, updated_at
`

// PaymentRepository handles database operations for payments
type PaymentRepository struct {
	db DB
}

// NewPaymentRepository creates a new payment repository
func NewPaymentRepository(db DB) *PaymentRepository {
	return &PaymentRepository{db: db}
}

// Create inserts a payment record
func (r *PaymentRepository) Create(ctx context.Context, payment *models.Payment) error {
	now := time.Now()
	if payment.ID == uuid.Nil {
		payment.ID = uuid.New()
	}
	payment.CreatedAt = now
	payment.UpdatedAt = now

	query := `
		INSERT INTO payments (
			id, student_id, student_name, amount, currency, status, month, description,
			order_id, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`

	_, err := r.db.ExecContext(ctx, query,
		payment.ID,
		payment.StudentID,
		payment.StudentName,
		payment.Amount,
		payment.Currency,
		payment.Status,
		payment.Month,
		payment.Description,
		payment.OrderID,
		payment.CreatedAt,
		payment.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create payment: %w", err)
	}
	return nil
}

// GetByID retrieves a payment by ID
func (r *PaymentRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Payment, error) {
	var payment models.Payment
	err := r.db.GetContext(ctx, &payment, `SELECT `+paymentColumns+` FROM payments WHERE id = $1`, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get payment: %w", err)
	}
	return &payment, nil
}

// List returns all payments, newest first
func (r *PaymentRepository) List(ctx context.Context) ([]models.Payment, error) {
	payments := []models.Payment{}
	query := `SELECT ` + paymentColumns + ` FROM payments ORDER BY created_at DESC`
	if err := r.db.SelectContext(ctx, &payments, query); err != nil {
		return nil, fmt.Errorf("failed to list payments: %w", err)
	}
	return payments, nil
}

// ListByStudent returns a student's payments, newest first
func (r *PaymentRepository) ListByStudent(ctx context.Context, studentID uuid.UUID) ([]models.Payment, error) {
	payments := []models.Payment{}
	query := `SELECT ` + paymentColumns + ` FROM payments WHERE student_id = $1 ORDER BY created_at DESC`
	if err := r.db.SelectContext(ctx, &payments, query, studentID); err != nil {
		return nil, fmt.Errorf("failed to list student payments: %w", err)
	}
	return payments, nil
}

// MarkCompleted settles a pending payment for the given order. It reports
// false when no pending payment matched.
func (r *PaymentRepository) MarkCompleted(ctx context.Context, id uuid.UUID, orderID, gatewayPaymentID, signature string) (bool, error) {
	query := `
		UPDATE payments
		SET status = 'completed',
		    gateway_payment_id = $1,
		    gateway_signature = $2,
		    completed_at = NOW(),
		    updated_at = NOW()
		WHERE id = $3 AND order_id = $4 AND status = 'pending'
	`

	result, err := r.db.ExecContext(ctx, query, gatewayPaymentID, signature, id, orderID)
	if err != nil {
		return false, fmt.Errorf("failed to complete payment: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return rows == 1, nil
}

// SetStatus overwrites the status of a payment. It returns nil when the payment does not exist.
func (r *PaymentRepository) SetStatus(ctx context.Context, id uuid.UUID, status string) (*models.Payment, error) {
	query := `
		UPDATE payments
		SET status = $1, updated_at = NOW()
		WHERE id = $2
		RETURNING ` + paymentColumns

	var payment models.Payment
	if err := r.db.GetContext(ctx, &payment, query, status, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to update payment status: %w", err)
	}
	return &payment, nil
}
