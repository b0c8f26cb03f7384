package services

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/hostelite/hostel-backend/internal/models"
	"github.com/hostelite/hostel-backend/internal/reports"
	"github.com/hostelite/hostel-backend/pkg/mq"
	"github.com/hostelite/hostel-backend/pkg/razorpay"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

var minorUnitsPerMajor = decimal.NewFromInt(100)

// OrderGateway creates orders with the payment gateway
type OrderGateway interface {
	CreateOrder(ctx context.Context, req razorpay.OrderRequest) (*razorpay.Order, error)
}

// PaymentStore persists payments
type PaymentStore interface {
	Create(ctx context.Context, payment *models.Payment) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Payment, error)
	List(ctx context.Context) ([]models.Payment, error)
	ListByStudent(ctx context.Context, studentID uuid.UUID) ([]models.Payment, error)
	MarkCompleted(ctx context.Context, id uuid.UUID, orderID, gatewayPaymentID, signature string) (bool, error)
	SetStatus(ctx context.Context, id uuid.UUID, status string) (*models.Payment, error)
}

// PaymentAuditor records payment events
type PaymentAuditor interface {
	LogPaymentCompleted(ctx context.Context, payment *models.Payment) error
	LogPaymentOverride(ctx context.Context, adminID, paymentID uuid.UUID, status string) error
}

// CreateOrderInput is the request of a new payment order
type CreateOrderInput struct {
	Amount      decimal.Decimal
	StudentID   string
	StudentName string
	Month       string
	Description string
}

// CreateOrderResult is returned to the checkout client
type CreateOrderResult struct {
	Order     *razorpay.Order `json:"order"`
	PaymentID uuid.UUID       `json:"paymentId"`
}

// VerifyInput is the checkout callback. Field names follow the gateway.
type VerifyInput struct {
	OrderID          string
	GatewayPaymentID string
	Signature        string
	PaymentID        string
}

// PaymentCompletedEvent is the payload of payment.completed
type PaymentCompletedEvent struct {
	PaymentID uuid.UUID       `json:"paymentId"`
	StudentID uuid.UUID       `json:"studentId"`
	Amount    decimal.Decimal `json:"amount"`
	Currency  string          `json:"currency"`
	OrderID   string          `json:"orderId"`
	At        time.Time       `json:"at"`
}

// PaymentService drives a payment from order creation to settlement
type PaymentService struct {
	gateway   OrderGateway
	payments  PaymentStore
	auditor   PaymentAuditor
	publisher mq.Publisher
	keySecret string
	currency  string
	logger    *logrus.Logger
}

// NewPaymentService creates a new payment service. keySecret signs checkout callbacks.
func NewPaymentService(
	gateway OrderGateway,
	payments PaymentStore,
	auditor PaymentAuditor,
	publisher mq.Publisher,
	keySecret, currency string,
	logger *logrus.Logger,
) *PaymentService {
	if currency == "" {
		currency = "INR"
	}
	return &PaymentService{
		gateway:   gateway,
		payments:  payments,
		auditor:   auditor,
		publisher: publisher,
		keySecret: keySecret,
		currency:  currency,
		logger:    logger,
	}
}

// CreateOrder requests a gateway order and stores a pending payment for it.
// Nothing is stored when the gateway call fails.
func (s *PaymentService) CreateOrder(ctx context.Context, caller Caller, input CreateOrderInput) (*CreateOrderResult, error) {
	studentName := strings.TrimSpace(input.StudentName)
	if !input.Amount.IsPositive() {
		return nil, NewInvalidInput("Amount must be greater than zero")
	}
	if strings.TrimSpace(input.StudentID) == "" || studentName == "" {
		return nil, NewInvalidInput("Student ID and name are required")
	}
	studentID, err := uuid.Parse(strings.TrimSpace(input.StudentID))
	if err != nil {
		return nil, NewInvalidInput("Invalid student ID")
	}
	if caller.IsStudent() && !caller.Owns(studentID) {
		return nil, NewForbidden("Students can only pay for themselves")
	}

	minor := input.Amount.Mul(minorUnitsPerMajor)
	if !minor.Equal(minor.Truncate(0)) {
		return nil, NewInvalidInput("Amount cannot have more than two decimal places")
	}

	paymentID := uuid.New()
	order, err := s.gateway.CreateOrder(ctx, razorpay.OrderRequest{
		Amount:   minor.IntPart(),
		Currency: s.currency,
		Receipt:  receiptID(paymentID),
		Notes: map[string]string{
			"studentId":   studentID.String(),
			"studentName": studentName,
			"paymentId":   paymentID.String(),
		},
	})
	if err != nil {
		return nil, NewUpstream("Payment gateway error", err)
	}

	description := strings.TrimSpace(input.Description)
	if description == "" {
		description = models.DefaultPaymentDescription
	}

	payment := &models.Payment{
		ID:          paymentID,
		StudentID:   studentID,
		StudentName: studentName,
		Amount:      input.Amount,
		Currency:    s.currency,
		Status:      models.PaymentStatusPending,
		Month:       models.NewNullString(strings.TrimSpace(input.Month)),
		Description: description,
		OrderID:     models.NewNullString(order.ID),
	}
	if err := s.payments.Create(ctx, payment); err != nil {
		s.logger.WithError(err).WithFields(logrus.Fields{
			"payment_id": paymentID,
			"order_id":   order.ID,
		}).Error("Failed to store payment for created order")
		return nil, err
	}

	s.logger.WithFields(logrus.Fields{
		"payment_id": paymentID,
		"order_id":   order.ID,
		"student_id": studentID,
		"amount":     input.Amount.String(),
	}).Info("Payment order created")

	return &CreateOrderResult{Order: order, PaymentID: paymentID}, nil
}

// VerifyAndSettle checks the checkout signature and completes the payment.
// Repeating a successful call with the same input succeeds without side effects.
func (s *PaymentService) VerifyAndSettle(ctx context.Context, input VerifyInput) (*models.Payment, error) {
	if input.OrderID == "" || input.GatewayPaymentID == "" || input.Signature == "" || input.PaymentID == "" {
		return nil, NewInvalidInput("Missing payment verification fields")
	}
	paymentID, err := uuid.Parse(input.PaymentID)
	if err != nil {
		return nil, NewInvalidInput("Invalid payment ID")
	}

	if !razorpay.VerifySignature(s.keySecret, input.OrderID, input.GatewayPaymentID, input.Signature) {
		s.logger.WithFields(logrus.Fields{
			"payment_id": paymentID,
			"order_id":   input.OrderID,
		}).Warn("Payment signature mismatch")
		return nil, NewSignatureInvalid("Invalid signature")
	}

	updated, err := s.payments.MarkCompleted(ctx, paymentID, input.OrderID, input.GatewayPaymentID, input.Signature)
	if err != nil {
		return nil, err
	}

	payment, err := s.payments.GetByID(ctx, paymentID)
	if err != nil {
		return nil, err
	}
	if payment == nil {
		return nil, NewNotFound("Payment not found")
	}

	if !updated {
		switch {
		case payment.OrderID.String != input.OrderID:
			return nil, NewInvalidInput("Order does not match payment")
		case payment.Status == models.PaymentStatusCompleted && payment.GatewayPaymentID.String == input.GatewayPaymentID:
			return payment, nil
		default:
			return nil, NewConflict("Payment cannot be completed in its current state")
		}
	}

	s.logger.WithFields(logrus.Fields{
		"payment_id": payment.ID,
		"order_id":   input.OrderID,
	}).Info("Payment completed")

	if err := s.auditor.LogPaymentCompleted(ctx, payment); err != nil {
		s.logger.WithError(err).WithField("payment_id", payment.ID).Warn("Failed to audit payment completion")
	}
	s.publishCompleted(payment)

	return payment, nil
}

// AdminOverrideStatus sets a payment to pending or failed from any state
func (s *PaymentService) AdminOverrideStatus(ctx context.Context, caller Caller, paymentID uuid.UUID, status string) (*models.Payment, error) {
	if !caller.IsAdmin() {
		return nil, NewForbidden("Access denied")
	}
	if !models.IsValidOverrideStatus(status) {
		return nil, NewInvalidInput("Invalid status")
	}

	payment, err := s.payments.SetStatus(ctx, paymentID, status)
	if err != nil {
		return nil, err
	}
	if payment == nil {
		return nil, NewNotFound("Payment not found")
	}

	s.logger.WithFields(logrus.Fields{
		"payment_id": paymentID,
		"status":     status,
		"admin_id":   caller.UserID,
	}).Warn("Payment status overridden")

	if err := s.auditor.LogPaymentOverride(ctx, caller.UserID, paymentID, status); err != nil {
		s.logger.WithError(err).WithField("payment_id", paymentID).Warn("Failed to audit payment override")
	}
	return payment, nil
}

// ListAll returns every payment, newest first
func (s *PaymentService) ListAll(ctx context.Context) ([]models.Payment, error) {
	return s.payments.List(ctx)
}

// ListForStudent returns a student's payments. Students may only list their own.
func (s *PaymentService) ListForStudent(ctx context.Context, caller Caller, studentID uuid.UUID) ([]models.Payment, error) {
	if caller.IsStudent() && !caller.Owns(studentID) {
		return nil, NewForbidden("Access denied")
	}
	return s.payments.ListByStudent(ctx, studentID)
}

// ExportAll renders every payment as an xlsx workbook
func (s *PaymentService) ExportAll(ctx context.Context) ([]byte, error) {
	payments, err := s.payments.List(ctx)
	if err != nil {
		return nil, err
	}
	return reports.PaymentsWorkbook(payments)
}

// Receipt renders the PDF receipt of a completed payment
func (s *PaymentService) Receipt(ctx context.Context, caller Caller, paymentID uuid.UUID) (*models.Payment, []byte, error) {
	payment, err := s.payments.GetByID(ctx, paymentID)
	if err != nil {
		return nil, nil, err
	}
	if payment == nil {
		return nil, nil, NewNotFound("Payment not found")
	}
	if caller.IsStudent() && !caller.Owns(payment.StudentID) {
		return nil, nil, NewForbidden("Access denied")
	}
	if payment.Status != models.PaymentStatusCompleted {
		return nil, nil, NewConflict("Receipt is only available for completed payments")
	}

	data, err := reports.PaymentReceipt(payment)
	if err != nil {
		return nil, nil, err
	}
	return payment, data, nil
}

func (s *PaymentService) publishCompleted(payment *models.Payment) {
	ctx, cancel := context.WithTimeout(context.Background(), publishTimeout)
	defer cancel()

	event := PaymentCompletedEvent{
		PaymentID: payment.ID,
		StudentID: payment.StudentID,
		Amount:    payment.Amount,
		Currency:  payment.Currency,
		OrderID:   payment.OrderID.String,
		At:        time.Now().UTC(),
	}
	if err := s.publisher.PublishJSON(ctx, mq.KeyPaymentCompleted, event); err != nil {
		s.logger.WithError(err).WithField("payment_id", payment.ID).Warn("Failed to publish payment event")
	}
}

// receiptID returns the gateway receipt reference, at most 40 chars
func receiptID(paymentID uuid.UUID) string {
	return "rcpt_" + strings.ReplaceAll(paymentID.String(), "-", "")[:12]
}
