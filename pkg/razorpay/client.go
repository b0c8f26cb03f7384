package razorpay

import (
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/sirupsen/logrus"
)

// DefaultBaseURL is the public Razorpay API host
const DefaultBaseURL = "https://api.razorpay.com"

// Config holds Razorpay client configuration
type Config struct {
	BaseURL   string
	KeyID     string
	KeySecret string
	Timeout   time.Duration
}

// Client creates orders through the Razorpay REST API.
// Calls are not retried; failures are surfaced to the caller.
type Client struct {
	httpClient *resty.Client
	logger     *logrus.Logger
}

// OrderRequest represents the body of POST /v1/orders
type OrderRequest struct {
	Amount   int64             `json:"amount"` // minor units (paise)
	Currency string            `json:"currency"`
	Receipt  string            `json:"receipt"`
	Notes    map[string]string `json:"notes,omitempty"`
}

// Order represents a gateway order
type Order struct {
	ID         string            `json:"id"`
	Entity     string            `json:"entity"`
	Amount     int64             `json:"amount"`
	AmountPaid int64             `json:"amount_paid"`
	AmountDue  int64             `json:"amount_due"`
	Currency   string            `json:"currency"`
	Receipt    string            `json:"receipt"`
	Status     string            `json:"status"`
	Attempts   int               `json:"attempts"`
	Notes      map[string]string `json:"notes,omitempty"`
	CreatedAt  int64             `json:"created_at"`
}

// errorResponse represents a Razorpay error body
type errorResponse struct {
	Error struct {
		Code        string `json:"code"`
		Description string `json:"description"`
	} `json:"error"`
}

// NewClient creates a new Razorpay client
func NewClient(cfg Config, logger *logrus.Logger) *Client {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	client := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(timeout).
		SetBasicAuth(cfg.KeyID, cfg.KeySecret).
		SetHeader("Content-Type", "application/json").
		SetHeader("Accept", "application/json")

	return &Client{
		httpClient: client,
		logger:     logger,
	}
}

// CreateOrder creates a gateway order for amount minor units
func (c *Client) CreateOrder(ctx context.Context, req OrderRequest) (*Order, error) {
	var order Order
	var apiErr errorResponse

	resp, err := c.httpClient.R().
		SetContext(ctx).
		SetBody(req).
		SetResult(&order).
		SetError(&apiErr).
		Post("/v1/orders")

	if err != nil {
		c.logger.WithFields(logrus.Fields{
			"receipt": req.Receipt,
			"error":   err.Error(),
		}).Error("Razorpay order request failed")
		return nil, fmt.Errorf("failed to call payment gateway: %w", err)
	}

	if resp.IsError() {
		c.logger.WithFields(logrus.Fields{
			"receipt":     req.Receipt,
			"status_code": resp.StatusCode(),
			"code":        apiErr.Error.Code,
			"description": apiErr.Error.Description,
		}).Error("Razorpay rejected order")

		if apiErr.Error.Description != "" {
			return nil, fmt.Errorf("payment gateway error: %s", apiErr.Error.Description)
		}
		return nil, fmt.Errorf("payment gateway error: status %d", resp.StatusCode())
	}

	if order.ID == "" {
		return nil, fmt.Errorf("payment gateway returned an order without id")
	}

	c.logger.WithFields(logrus.Fields{
		"order_id": order.ID,
		"amount":   order.Amount,
		"currency": order.Currency,
	}).Info("Razorpay order created")

	return &order, nil
}
