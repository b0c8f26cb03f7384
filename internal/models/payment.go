package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Payment status values
const (
	PaymentStatusPending   = "pending"
	PaymentStatusCompleted = "completed"
	PaymentStatusFailed    = "failed"
)

// DefaultPaymentDescription is used when an order carries no description
const DefaultPaymentDescription = "Hostel Fee Payment"

// Payment is one gateway payment attempt.
// A completed payment always carries GatewayPaymentID and GatewaySignature.
type Payment struct {
	ID               uuid.UUID       `json:"id" db:"id"`
	StudentID        uuid.UUID       `json:"studentId" db:"student_id"`
	StudentName      string          `json:"studentName" db:"student_name"`
	Amount           decimal.Decimal `json:"amount" db:"amount"`
	Currency         string          `json:"currency" db:"currency"`
	Status           string          `json:"status" db:"status"`
	Month            NullString      `json:"month" db:"month"`
	Description      string          `json:"description" db:"description"`
	OrderID          NullString      `json:"razorpayOrderId" db:"order_id"`
	GatewayPaymentID NullString      `json:"razorpayPaymentId" db:"gateway_payment_id"`
	GatewaySignature NullString      `json:"razorpaySignature" db:"gateway_signature"`
	CompletedAt      NullTime        `json:"completedAt" db:"completed_at"`
	CreatedAt        time.Time       `json:"createdAt" db:"created_at"`
	UpdatedAt        time.Time       `json:"updatedAt" db:"updated_at"`
}

// ReceiptNumber returns the human receipt id derived from the payment id
func (p *Payment) ReceiptNumber() string {
	id := p.ID.String()
	return "RCP-" + id[len(id)-8:]
}

// IsValidOverrideStatus reports whether an administrator may set status directly
func IsValidOverrideStatus(status string) bool {
	return status == PaymentStatusPending || status == PaymentStatusFailed
}
