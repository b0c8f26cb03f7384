package config

import (
	"fmt"
	"log"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Environment variables holding the token signing secrets
const (
	EnvJWTSecret        = "JWT_SECRET"
	EnvJWTRefreshSecret = "JWT_REFRESH_SECRET"
)

// MinProductionSecretLength is the shortest signing secret accepted in production
const MinProductionSecretLength = 32

// Config holds all configuration for the application
type Config struct {
	// Server configuration
	Server ServerConfig

	// Database configuration
	Database DatabaseConfig

	// JWT configuration
	JWT JWTConfig

	// Redis configuration (rate limiting, meal cache)
	Redis RedisConfig

	// Payment gateway configuration
	Payment PaymentConfig

	// Outgoing mail configuration
	Mail MailConfig

	// Image host configuration
	ImageKit ImageKitConfig

	// Message broker configuration
	MQ MQConfig

	// OTP configuration
	OTP OTPConfig

	// Rate limiting configuration
	RateLimit RateLimitConfig

	// CORS configuration
	CORS CORSConfig

	// Security configuration
	Security SecurityConfig

	// Background job configuration
	Cron CronConfig
}

// ServerConfig holds server-related configuration
type ServerConfig struct {
	Port         string        `envconfig:"PORT" default:"8080"`
	Environment  string        `envconfig:"ENVIRONMENT" default:"development"` // development, staging, production
	LogLevel     string        `envconfig:"LOG_LEVEL" default:"info"`          // debug, info, warn, error
	ReadTimeout  time.Duration `envconfig:"SERVER_READ_TIMEOUT" default:"15s"`
	WriteTimeout time.Duration `envconfig:"SERVER_WRITE_TIMEOUT" default:"30s"`
}

// DatabaseConfig holds database-related configuration
type DatabaseConfig struct {
	URL                string        `envconfig:"DATABASE_URL"`
	MaxConnections     int           `envconfig:"DATABASE_MAX_CONNECTIONS" default:"10"`
	MaxIdleConnections int           `envconfig:"DATABASE_MAX_IDLE_CONNECTIONS" default:"5"`
	ConnMaxLifetime    time.Duration `envconfig:"DATABASE_CONN_MAX_LIFETIME" default:"5m"`
}

// JWTConfig holds JWT-related configuration
type JWTConfig struct {
	Secret             string        `envconfig:"JWT_SECRET"`
	RefreshSecret      string        `envconfig:"JWT_REFRESH_SECRET"`
	AccessTokenExpiry  time.Duration `envconfig:"JWT_ACCESS_TOKEN_EXPIRY" default:"168h"`
	RefreshTokenExpiry time.Duration `envconfig:"JWT_REFRESH_TOKEN_EXPIRY" default:"720h"`
}

// RedisConfig holds redis connection settings
type RedisConfig struct {
	Addr         string        `envconfig:"REDIS_ADDR" default:"localhost:6379"`
	Password     string        `envconfig:"REDIS_PASSWORD"`
	DB           int           `envconfig:"REDIS_DB" default:"0"`
	DialTimeout  time.Duration `envconfig:"REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"REDIS_READ_TIMEOUT" default:"3s"`
	WriteTimeout time.Duration `envconfig:"REDIS_WRITE_TIMEOUT" default:"3s"`
}

// PaymentConfig holds Razorpay configuration
type PaymentConfig struct {
	KeyID     string        `envconfig:"RAZORPAY_KEY_ID"`
	KeySecret string        `envconfig:"RAZORPAY_KEY_SECRET"` // SECRET - used for order auth and signature checks
	BaseURL   string        `envconfig:"RAZORPAY_BASE_URL" default:"https://api.razorpay.com"`
	Currency  string        `envconfig:"PAYMENT_CURRENCY" default:"INR"`
	Timeout   time.Duration `envconfig:"RAZORPAY_TIMEOUT" default:"10s"`
}

// MailConfig holds SMTP configuration
type MailConfig struct {
	Mode     string        `envconfig:"MAIL_MODE" default:"dev"` // "dev" logs the message, "smtp" delivers it
	Host     string        `envconfig:"SMTP_HOST"`
	Port     int           `envconfig:"SMTP_PORT" default:"587"`
	Username string        `envconfig:"SMTP_USERNAME"`
	Password string        `envconfig:"SMTP_PASSWORD"`
	From     string        `envconfig:"MAIL_FROM" default:"no-reply@hostelite.app"`
	Timeout  time.Duration `envconfig:"SMTP_TIMEOUT" default:"10s"`
}

// ImageKitConfig holds image host configuration
type ImageKitConfig struct {
	PrivateKey string        `envconfig:"IMAGEKIT_PRIVATE_KEY"`
	UploadURL  string        `envconfig:"IMAGEKIT_UPLOAD_URL" default:"https://upload.imagekit.io"`
	Timeout    time.Duration `envconfig:"IMAGEKIT_TIMEOUT" default:"20s"`
}

// MQConfig holds message broker configuration. An empty URL disables publishing.
type MQConfig struct {
	URL            string        `envconfig:"AMQP_URL"`
	Exchange       string        `envconfig:"AMQP_EXCHANGE" default:"hostelite.events"`
	PublishTimeout time.Duration `envconfig:"AMQP_PUBLISH_TIMEOUT" default:"5s"`
}

// OTPConfig holds OTP-related configuration
type OTPConfig struct {
	Expiry      time.Duration `envconfig:"OTP_EXPIRY" default:"5m"`
	MaxAttempts int           `envconfig:"OTP_MAX_ATTEMPTS" default:"3"`
}

// RateLimitConfig holds password reset throttling configuration
type RateLimitConfig struct {
	MaxEmailRequests int           `envconfig:"RATE_LIMIT_EMAIL_REQUESTS" default:"3"`
	EmailWindow      time.Duration `envconfig:"RATE_LIMIT_EMAIL_WINDOW" default:"10m"`
	MaxIPRequests    int           `envconfig:"RATE_LIMIT_IP_REQUESTS" default:"10"`
	IPWindow         time.Duration `envconfig:"RATE_LIMIT_IP_WINDOW" default:"1h"`
}

// CORSConfig holds CORS-related configuration
type CORSConfig struct {
	AllowedOrigins []string `envconfig:"CORS_ALLOWED_ORIGINS" default:"http://localhost:5173"`
	AllowedMethods []string `envconfig:"CORS_ALLOWED_METHODS" default:"GET,POST,PUT,DELETE,OPTIONS"`
	AllowedHeaders []string `envconfig:"CORS_ALLOWED_HEADERS" default:"Content-Type,Authorization"`
}

// SecurityConfig holds security-related configuration
type SecurityConfig struct {
	BcryptCost       int  `envconfig:"BCRYPT_COST" default:"10"`
	EnableRequestLog bool `envconfig:"ENABLE_REQUEST_LOGGING" default:"true"`
	EnableAuditLog   bool `envconfig:"ENABLE_AUDIT_LOGGING" default:"true"`
}

// CronConfig holds background job configuration
type CronConfig struct {
	Enabled bool `envconfig:"CRON_ENABLED" default:"true"`
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if it exists (for local development)
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	config := &Config{}
	sections := []interface{}{
		&config.Server,
		&config.Database,
		&config.JWT,
		&config.Redis,
		&config.Payment,
		&config.Mail,
		&config.ImageKit,
		&config.MQ,
		&config.OTP,
		&config.RateLimit,
		&config.CORS,
		&config.Security,
		&config.Cron,
	}
	for _, section := range sections {
		if err := envconfig.Process("", section); err != nil {
			return nil, fmt.Errorf("failed to read configuration: %w", err)
		}
	}

	// Validate required configuration
	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Database.URL == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}

	if c.JWT.Secret == "" {
		return fmt.Errorf("%s is required", EnvJWTSecret)
	}

	if c.JWT.RefreshSecret == "" {
		return fmt.Errorf("%s is required", EnvJWTRefreshSecret)
	}

	if c.IsProduction() {
		if len(c.JWT.Secret) < MinProductionSecretLength || len(c.JWT.RefreshSecret) < MinProductionSecretLength {
			return fmt.Errorf("JWT secrets must be at least %d characters in production", MinProductionSecretLength)
		}
		if c.JWT.Secret == c.JWT.RefreshSecret {
			return fmt.Errorf("%s and %s must differ in production", EnvJWTSecret, EnvJWTRefreshSecret)
		}
	}

	if c.Payment.KeySecret == "" {
		return fmt.Errorf("RAZORPAY_KEY_SECRET is required")
	}

	switch c.Mail.Mode {
	case "dev":
	case "smtp":
		if c.Mail.Host == "" {
			return fmt.Errorf("SMTP_HOST is required when MAIL_MODE is smtp")
		}
	default:
		return fmt.Errorf("invalid MAIL_MODE: %s (must be 'dev' or 'smtp')", c.Mail.Mode)
	}

	return nil
}

// IsProduction reports whether the server runs in production mode
func (c *Config) IsProduction() bool {
	return c.Server.Environment == "production"
}
