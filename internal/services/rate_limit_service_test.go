package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupRateLimitTest(t *testing.T) (*RateLimitService, func(time.Duration)) {
	mr, client := newTestRedis(t)
	service := NewRateLimitService(client, DefaultRateLimitConfig())
	return service, mr.FastForward
}

func TestCheckResetRateLimit_NoRequests(t *testing.T) {
	service, _ := setupRateLimitTest(t)

	err := service.CheckResetRateLimit(context.Background(), "asha@example.com", "192.168.1.1")
	assert.NoError(t, err)
}

func TestCheckResetRateLimit_BelowLimit(t *testing.T) {
	service, _ := setupRateLimitTest(t)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		require.NoError(t, service.RecordResetRequest(ctx, "asha@example.com", "192.168.1.1"))
	}

	assert.NoError(t, service.CheckResetRateLimit(ctx, "asha@example.com", "192.168.1.1"))
}

func TestCheckResetRateLimit_EmailExceeded(t *testing.T) {
	service, _ := setupRateLimitTest(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		require.NoError(t, service.RecordResetRequest(ctx, "Asha@Example.com", ""))
	}

	err := service.CheckResetRateLimit(ctx, "asha@example.com", "192.168.1.1")
	require.Error(t, err)

	rateLimitErr, ok := err.(*RateLimitError)
	require.True(t, ok)
	assert.Equal(t, "email", rateLimitErr.Type)
	assert.True(t, rateLimitErr.RetryAfter.After(time.Now()))
	assert.Contains(t, rateLimitErr.Message, "Too many reset requests for this email")
}

func TestCheckResetRateLimit_IPExceeded(t *testing.T) {
	service, _ := setupRateLimitTest(t)
	ctx := context.Background()

	for i := 0; i < 10; i++ {
		require.NoError(t, service.RecordResetRequest(ctx, "", "192.168.1.1"))
	}

	err := service.CheckResetRateLimit(ctx, "other@example.com", "192.168.1.1")
	require.Error(t, err)

	rateLimitErr, ok := err.(*RateLimitError)
	require.True(t, ok)
	assert.Equal(t, "ip", rateLimitErr.Type)
}

func TestCheckResetRateLimit_WindowExpires(t *testing.T) {
	service, fastForward := setupRateLimitTest(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		require.NoError(t, service.RecordResetRequest(ctx, "asha@example.com", ""))
	}
	require.Error(t, service.CheckResetRateLimit(ctx, "asha@example.com", ""))

	fastForward(11 * time.Minute)

	assert.NoError(t, service.CheckResetRateLimit(ctx, "asha@example.com", ""))
}

func TestCheckResetRateLimit_RedisDown(t *testing.T) {
	mr, client := newTestRedis(t)
	service := NewRateLimitService(client, DefaultRateLimitConfig())
	mr.Close()

	err := service.CheckResetRateLimit(context.Background(), "asha@example.com", "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to check email rate limit")
}

func TestDefaultRateLimitConfig(t *testing.T) {
	config := DefaultRateLimitConfig()

	assert.Equal(t, 3, config.MaxEmailRequests)
	assert.Equal(t, 10*time.Minute, config.EmailWindow)
	assert.Equal(t, 10, config.MaxIPRequests)
	assert.Equal(t, 1*time.Hour, config.IPWindow)
}
