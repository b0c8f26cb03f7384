package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-redis/redis/v8"
)

const rateLimitKeyPrefix = "ratelimit:reset:"

// RateLimitService throttles password reset requests per email and per IP
type RateLimitService struct {
	rdb    redis.Cmdable
	config RateLimitConfig
}

// RateLimitConfig holds rate limiting configuration
type RateLimitConfig struct {
	MaxEmailRequests int           // Max reset requests per email
	EmailWindow      time.Duration // Time window for email rate limit
	MaxIPRequests    int           // Max reset requests per IP
	IPWindow         time.Duration // Time window for IP rate limit
}

// DefaultRateLimitConfig returns the default rate limit configuration
func DefaultRateLimitConfig() RateLimitConfig {
	return RateLimitConfig{
		MaxEmailRequests: 3,                // 3 requests
		EmailWindow:      10 * time.Minute, // per 10 minutes
		MaxIPRequests:    10,               // 10 requests
		IPWindow:         1 * time.Hour,    // per hour
	}
}

// NewRateLimitService creates a new rate limit service
func NewRateLimitService(rdb redis.Cmdable, config RateLimitConfig) *RateLimitService {
	return &RateLimitService{
		rdb:    rdb,
		config: config,
	}
}

// RateLimitError represents a rate limit exceeded error
type RateLimitError struct {
	Message    string
	RetryAfter time.Time
	Type       string // "email" or "ip"
}

func (e *RateLimitError) Error() string {
	return e.Message
}

// CheckResetRateLimit reports a *RateLimitError when email or ip already used up its window
func (s *RateLimitService) CheckResetRateLimit(ctx context.Context, email, ip string) error {
	email = strings.ToLower(strings.TrimSpace(email))

	if email != "" {
		count, ttl, err := s.getRequestCount(ctx, "email", email)
		if err != nil {
			return fmt.Errorf("failed to check email rate limit: %w", err)
		}

		if count >= s.config.MaxEmailRequests {
			retryAfter := time.Now().Add(ttl)
			return &RateLimitError{
				Message:    fmt.Sprintf("Too many reset requests for this email. Please try again after %s", retryAfter.Format("15:04:05")),
				RetryAfter: retryAfter,
				Type:       "email",
			}
		}
	}

	if ip != "" {
		count, ttl, err := s.getRequestCount(ctx, "ip", ip)
		if err != nil {
			return fmt.Errorf("failed to check IP rate limit: %w", err)
		}

		if count >= s.config.MaxIPRequests {
			retryAfter := time.Now().Add(ttl)
			return &RateLimitError{
				Message:    fmt.Sprintf("Too many reset requests from this IP address. Please try again after %s", retryAfter.Format("15:04:05")),
				RetryAfter: retryAfter,
				Type:       "ip",
			}
		}
	}

	return nil
}

// RecordResetRequest counts a reset request against email and ip
func (s *RateLimitService) RecordResetRequest(ctx context.Context, email, ip string) error {
	email = strings.ToLower(strings.TrimSpace(email))

	if email != "" {
		if err := s.recordRequest(ctx, "email", email, s.config.EmailWindow); err != nil {
			return fmt.Errorf("failed to record email request: %w", err)
		}
	}

	if ip != "" {
		if err := s.recordRequest(ctx, "ip", ip, s.config.IPWindow); err != nil {
			return fmt.Errorf("failed to record IP request: %w", err)
		}
	}

	return nil
}

// getRequestCount returns the requests in the current window and the time left in it
func (s *RateLimitService) getRequestCount(ctx context.Context, identifierType, identifier string) (int, time.Duration, error) {
	key := rateLimitKey(identifierType, identifier)

	count, err := s.rdb.Get(ctx, key).Int()
	if err != nil {
		if err == redis.Nil {
			return 0, 0, nil
		}
		return 0, 0, err
	}

	ttl, err := s.rdb.TTL(ctx, key).Result()
	if err != nil {
		return 0, 0, err
	}
	if ttl < 0 {
		ttl = 0
	}

	return count, ttl, nil
}

// recordRequest increments the counter, starting the window on the first request
func (s *RateLimitService) recordRequest(ctx context.Context, identifierType, identifier string, window time.Duration) error {
	key := rateLimitKey(identifierType, identifier)

	count, err := s.rdb.Incr(ctx, key).Result()
	if err != nil {
		return err
	}
	if count == 1 {
		return s.rdb.Expire(ctx, key, window).Err()
	}
	return nil
}

func rateLimitKey(identifierType, identifier string) string {
	return rateLimitKeyPrefix + identifierType + ":" + identifier
}
