package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/hostelite/hostel-backend/internal/reports"
	"github.com/hostelite/hostel-backend/internal/services"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

// PaymentHandler handles payment HTTP requests
type PaymentHandler struct {
	paymentService *services.PaymentService
	logger         *logrus.Logger
}

// NewPaymentHandler creates a new payment handler
func NewPaymentHandler(paymentService *services.PaymentService, logger *logrus.Logger) *PaymentHandler {
	return &PaymentHandler{
		paymentService: paymentService,
		logger:         logger,
	}
}

// CreateOrderRequest represents the request to open a gateway order
type CreateOrderRequest struct {
	Amount      decimal.Decimal `json:"amount"`
	StudentID   string          `json:"studentId"`
	StudentName string          `json:"studentName"`
	Month       string          `json:"month"`
	Description string          `json:"description"`
}

// VerifyPaymentRequest carries the gateway checkout callback
type VerifyPaymentRequest struct {
	RazorpayOrderID   string `json:"razorpayOrderId"`
	RazorpayPaymentID string `json:"razorpayPaymentId"`
	RazorpaySignature string `json:"razorpaySignature"`
	PaymentID         string `json:"paymentId"`
}

// OverrideStatusRequest represents an administrator's status change
type OverrideStatusRequest struct {
	Status string `json:"status" binding:"required"`
}

// CreateOrder handles POST /api/payments/create-order
func (h *PaymentHandler) CreateOrder(c *gin.Context) {
	var req CreateOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondInvalidBody(c)
		return
	}

	result, err := h.paymentService.CreateOrder(c.Request.Context(), callerFrom(c), services.CreateOrderInput{
		Amount:      req.Amount,
		StudentID:   req.StudentID,
		StudentName: req.StudentName,
		Month:       req.Month,
		Description: req.Description,
	})
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// VerifyPayment handles POST /api/payments/verify-payment
func (h *PaymentHandler) VerifyPayment(c *gin.Context) {
	var req VerifyPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondInvalidBody(c)
		return
	}

	payment, err := h.paymentService.VerifyAndSettle(c.Request.Context(), services.VerifyInput{
		OrderID:          req.RazorpayOrderID,
		GatewayPaymentID: req.RazorpayPaymentID,
		Signature:        req.RazorpaySignature,
		PaymentID:        req.PaymentID,
	})
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Payment verified successfully",
		"payment": payment,
	})
}

// ListAll handles GET /api/payments/all
func (h *PaymentHandler) ListAll(c *gin.Context) {
	payments, err := h.paymentService.ListAll(c.Request.Context())
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, payments)
}

// ListMine handles GET /api/payments
func (h *PaymentHandler) ListMine(c *gin.Context) {
	caller := callerFrom(c)

	payments, err := h.paymentService.ListForStudent(c.Request.Context(), caller, caller.UserID)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, payments)
}

// ListForStudent handles GET /api/payments/student/:studentId
func (h *PaymentHandler) ListForStudent(c *gin.Context) {
	studentID, ok := uuidParam(c, "studentId")
	if !ok {
		return
	}

	payments, err := h.paymentService.ListForStudent(c.Request.Context(), callerFrom(c), studentID)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, payments)
}

// OverrideStatus handles PUT /api/payments/:id/status
func (h *PaymentHandler) OverrideStatus(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}

	var req OverrideStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondInvalidBody(c)
		return
	}

	payment, err := h.paymentService.AdminOverrideStatus(c.Request.Context(), callerFrom(c), id, req.Status)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, payment)
}

// Export handles GET /api/payments/export
func (h *PaymentHandler) Export(c *gin.Context) {
	data, err := h.paymentService.ExportAll(c.Request.Context())
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.Header("Content-Disposition", `attachment; filename="`+reports.ExportFileName("payments", time.Now())+`"`)
	c.Data(http.StatusOK, reports.XLSXContentType, data)
}

// Receipt handles GET /api/payments/:id/receipt
func (h *PaymentHandler) Receipt(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}

	payment, data, err := h.paymentService.Receipt(c.Request.Context(), callerFrom(c), id)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.Header("Content-Disposition", `attachment; filename="receipt_`+payment.ReceiptNumber()+`.pdf"`)
	c.Data(http.StatusOK, reports.PDFContentType, data)
}
