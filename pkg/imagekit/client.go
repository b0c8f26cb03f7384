package imagekit

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/sirupsen/logrus"
)

const (
	// DefaultUploadURL is the ImageKit upload host
	DefaultUploadURL = "https://upload.imagekit.io"

	// DefaultAPIURL is the ImageKit management host
	DefaultAPIURL = "https://api.imagekit.io"
)

// Config holds ImageKit client configuration
type Config struct {
	PrivateKey string
	UploadURL  string
	APIURL     string
	Timeout    time.Duration
}

// UploadResult is the part of the upload response the app keeps
type UploadResult struct {
	FileID       string `json:"fileId"`
	Name         string `json:"name"`
	URL          string `json:"url"`
	ThumbnailURL string `json:"thumbnailUrl"`
	FilePath     string `json:"filePath"`
}

type errorResponse struct {
	Message string `json:"message"`
}

// Client uploads files to ImageKit
type Client struct {
	upload *resty.Client
	api    *resty.Client
	logger *logrus.Logger
}

// NewClient creates a new ImageKit client
func NewClient(cfg Config, logger *logrus.Logger) *Client {
	if cfg.UploadURL == "" {
		cfg.UploadURL = DefaultUploadURL
	}
	if cfg.APIURL == "" {
		cfg.APIURL = DefaultAPIURL
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 20 * time.Second
	}

	newResty := func(baseURL string) *resty.Client {
		return resty.New().
			SetBaseURL(baseURL).
			SetTimeout(cfg.Timeout).
			SetBasicAuth(cfg.PrivateKey, "").
			SetHeader("Accept", "application/json")
	}

	return &Client{
		upload: newResty(cfg.UploadURL),
		api:    newResty(cfg.APIURL),
		logger: logger,
	}
}

// Upload stores data under folder and returns the hosted file
func (c *Client) Upload(ctx context.Context, data []byte, fileName, folder string) (*UploadResult, error) {
	var result UploadResult
	var apiErr errorResponse

	resp, err := c.upload.R().
		SetContext(ctx).
		SetFileReader("file", fileName, bytes.NewReader(data)).
		SetFormData(map[string]string{
			"fileName":          fileName,
			"folder":            folder,
			"useUniqueFileName": "true",
		}).
		SetResult(&result).
		SetError(&apiErr).
		Post("/api/v1/files/upload")

	if err != nil {
		c.logger.WithFields(logrus.Fields{
			"file_name": fileName,
			"folder":    folder,
			"error":     err.Error(),
		}).Error("ImageKit upload failed")
		return nil, fmt.Errorf("failed to upload file: %w", err)
	}

	if resp.IsError() {
		c.logger.WithFields(logrus.Fields{
			"file_name":   fileName,
			"status_code": resp.StatusCode(),
			"message":     apiErr.Message,
		}).Error("ImageKit rejected upload")
		if apiErr.Message != "" {
			return nil, fmt.Errorf("image upload failed: %s", apiErr.Message)
		}
		return nil, fmt.Errorf("image upload failed: status %d", resp.StatusCode())
	}

	return &result, nil
}

// Delete removes a previously uploaded file
func (c *Client) Delete(ctx context.Context, fileID string) error {
	resp, err := c.api.R().
		SetContext(ctx).
		SetPathParam("fileId", fileID).
		Delete("/v1/files/{fileId}")
	if err != nil {
		return fmt.Errorf("failed to delete file: %w", err)
	}
	if resp.IsError() {
		return fmt.Errorf("image delete failed: status %d", resp.StatusCode())
	}
	return nil
}
