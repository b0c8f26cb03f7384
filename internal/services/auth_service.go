package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/hostelite/hostel-backend/internal/database"
	"github.com/hostelite/hostel-backend/internal/models"
	"github.com/hostelite/hostel-backend/pkg/jwt"
	"github.com/hostelite/hostel-backend/pkg/mailer"
	"github.com/hostelite/hostel-backend/pkg/validator"
	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"
)

// UserAccounts stores user credentials
type UserAccounts interface {
	Create(ctx context.Context, user *models.User, limit int) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	UpdatePassword(ctx context.Context, id uuid.UUID, passwordHash string) error
}

// ResetCodes issues and checks password reset codes
type ResetCodes interface {
	GenerateOTP(ctx context.Context, email, ipAddress, userAgent string) (string, error)
	ValidateOTP(ctx context.Context, email, otp string) (*models.PasswordResetOTP, error)
	MarkVerified(ctx context.Context, id int64) error
}

// ResetLimiter throttles password reset requests
type ResetLimiter interface {
	CheckResetRateLimit(ctx context.Context, email, ip string) error
	RecordResetRequest(ctx context.Context, email, ip string) error
}

// AuthAuditor records authentication events
type AuthAuditor interface {
	LogLogin(ctx context.Context, userID *uuid.UUID, email, ipAddress, userAgent string, success bool) error
	LogRegister(ctx context.Context, userID uuid.UUID, role, ipAddress, userAgent string) error
	LogPasswordResetRequest(ctx context.Context, userID uuid.UUID, ipAddress, userAgent string) error
	LogPasswordReset(ctx context.Context, userID uuid.UUID, ipAddress, userAgent string) error
	LogRateLimitViolation(ctx context.Context, email, ipAddress, userAgent, limitType string, retryAfter time.Time) error
}

// ClientInfo describes where a request came from
type ClientInfo struct {
	IP        string
	UserAgent string
}

// RegisterInput is a self-registration request
type RegisterInput struct {
	Name     string
	Email    string
	Password string
	Role     string
}

// LoginResult is returned on a successful login
type LoginResult struct {
	Token        string            `json:"token"`
	RefreshToken string            `json:"refreshToken"`
	User         models.PublicUser `json:"user"`
}

// AuthService handles registration, login and password resets
type AuthService struct {
	users      UserAccounts
	otps       ResetCodes
	limiter    ResetLimiter
	auditor    AuthAuditor
	mail       mailer.Mailer
	jwtService *jwt.Service
	otpExpiry  time.Duration
	bcryptCost int
	devMode    bool
	logger     *logrus.Logger
}

// AuthConfig holds the tunables of AuthService
type AuthConfig struct {
	BcryptCost int
	OTPExpiry  time.Duration
	// DevMode returns reset codes in the response instead of relying on email delivery
	DevMode bool
}

// NewAuthService creates a new auth service
func NewAuthService(
	users UserAccounts,
	otps ResetCodes,
	limiter ResetLimiter,
	auditor AuthAuditor,
	mail mailer.Mailer,
	jwtService *jwt.Service,
	cfg AuthConfig,
	logger *logrus.Logger,
) *AuthService {
	cost := cfg.BcryptCost
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	expiry := cfg.OTPExpiry
	if expiry <= 0 {
		expiry = DefaultOTPExpiry
	}
	return &AuthService{
		users:      users,
		otps:       otps,
		limiter:    limiter,
		auditor:    auditor,
		mail:       mail,
		jwtService: jwtService,
		otpExpiry:  expiry,
		bcryptCost: cost,
		devMode:    cfg.DevMode,
		logger:     logger,
	}
}

// Register creates an account. At most one admin and two wardens may exist.
func (s *AuthService) Register(ctx context.Context, input RegisterInput, client ClientInfo) (*models.User, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" || strings.TrimSpace(input.Email) == "" || input.Password == "" {
		return nil, NewInvalidInput("All fields are required")
	}
	email, err := validator.NormalizeEmail(input.Email)
	if err != nil {
		return nil, NewInvalidInput("Invalid email address")
	}
	if err := validator.ValidatePassword(input.Password); err != nil {
		return nil, NewInvalidInput("Password must be at least 6 characters")
	}

	role := strings.ToLower(strings.TrimSpace(input.Role))
	if role == "" {
		role = models.RoleStudent
	}
	if !models.IsValidRole(role) {
		return nil, NewInvalidInput("Invalid role")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(input.Password), s.bcryptCost)
	if err != nil {
		return nil, err
	}

	user := &models.User{
		Name:         name,
		Email:        email,
		PasswordHash: string(hash),
		Role:         role,
	}

	if err := s.users.Create(ctx, user, roleLimit(role)); err != nil {
		switch {
		case errors.Is(err, database.ErrEmailTaken):
			return nil, NewConflict("User already exists")
		case errors.Is(err, database.ErrRoleLimitReached) && role == models.RoleAdmin:
			return nil, NewLimitReached("Admin already exists. Cannot create another admin.")
		case errors.Is(err, database.ErrRoleLimitReached):
			return nil, NewLimitReached("Maximum number of wardens already exist.")
		}
		return nil, err
	}

	s.logger.WithFields(logrus.Fields{
		"user_id": user.ID,
		"role":    role,
	}).Info("User registered")

	if err := s.auditor.LogRegister(ctx, user.ID, role, client.IP, client.UserAgent); err != nil {
		s.logger.WithError(err).Warn("Failed to audit registration")
	}
	return user, nil
}

// Login checks credentials and issues an access and a refresh token
func (s *AuthService) Login(ctx context.Context, email, password string, client ClientInfo) (*LoginResult, error) {
	if strings.TrimSpace(email) == "" || password == "" {
		return nil, NewInvalidInput("Email and password are required")
	}

	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if user == nil {
		s.auditLogin(ctx, nil, email, client, false)
		return nil, NewUnauthorized("Invalid email or password")
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		s.auditLogin(ctx, &user.ID, email, client, false)
		return nil, NewUnauthorized("Invalid email or password")
	}

	result, err := s.issueTokens(user)
	if err != nil {
		return nil, err
	}

	s.auditLogin(ctx, &user.ID, email, client, true)
	return result, nil
}

// Refresh issues a new access token for a valid refresh token. The role is
// re-read so that role changes take effect.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (*LoginResult, error) {
	if refreshToken == "" {
		return nil, NewInvalidInput("Refresh token is required")
	}

	claims, err := s.jwtService.ValidateRefreshToken(refreshToken)
	if err != nil {
		return nil, NewUnauthorized("Invalid refresh token")
	}

	user, err := s.users.GetByID(ctx, claims.UserID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, NewUnauthorized("Invalid refresh token")
	}

	token, err := s.jwtService.GenerateAccessToken(user.ID, user.Email, user.Name, user.Role)
	if err != nil {
		return nil, err
	}

	return &LoginResult{
		Token:        token,
		RefreshToken: refreshToken,
		User:         user.Public(),
	}, nil
}

// Me returns the account of the caller
func (s *AuthService) Me(ctx context.Context, userID uuid.UUID) (*models.User, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, NewNotFound("User not found")
	}
	return user, nil
}

// ForgotPassword emails a reset code. In dev mode the code is also returned.
func (s *AuthService) ForgotPassword(ctx context.Context, email string, client ClientInfo) (string, error) {
	email, err := validator.NormalizeEmail(email)
	if err != nil {
		return "", NewInvalidInput("A valid email is required")
	}

	if err := s.limiter.CheckResetRateLimit(ctx, email, client.IP); err != nil {
		var limitErr *RateLimitError
		if !errors.As(err, &limitErr) {
			// the limiter store is down; let the request through unthrottled
			s.logger.WithError(err).Warn("Reset rate limit unavailable")
		} else {
			s.logger.WithFields(logrus.Fields{
				"ip":         client.IP,
				"limit_type": limitErr.Type,
			}).Warn("Password reset rate limit exceeded")
			if auditErr := s.auditor.LogRateLimitViolation(ctx, email, client.IP, client.UserAgent, limitErr.Type, limitErr.RetryAfter); auditErr != nil {
				s.logger.WithError(auditErr).Warn("Failed to audit rate limit violation")
			}
			return "", err
		}
	}
	if err := s.limiter.RecordResetRequest(ctx, email, client.IP); err != nil {
		s.logger.WithError(err).Warn("Failed to record reset request")
	}

	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		return "", err
	}
	if user == nil {
		return "", NewNotFound("User not found")
	}

	otp, err := s.otps.GenerateOTP(ctx, email, client.IP, client.UserAgent)
	if err != nil {
		return "", err
	}

	msg := mailer.PasswordResetMessage(email, otp, s.otpExpiry)
	if err := s.mail.Send(ctx, msg); err != nil {
		s.logger.WithError(err).WithField("user_id", user.ID).Error("Failed to send reset email")
		return "", NewUpstream("Failed to send OTP email", err)
	}

	if err := s.auditor.LogPasswordResetRequest(ctx, user.ID, client.IP, client.UserAgent); err != nil {
		s.logger.WithError(err).Warn("Failed to audit reset request")
	}

	if s.devMode {
		s.logger.WithFields(logrus.Fields{
			"user_id": user.ID,
			"otp":     otp,
		}).Info("DEV MODE: password reset OTP")
		return otp, nil
	}
	return "", nil
}

// ResetPassword replaces the password when otp matches the active code
func (s *AuthService) ResetPassword(ctx context.Context, email, otp, newPassword string, client ClientInfo) error {
	if strings.TrimSpace(email) == "" || otp == "" || newPassword == "" {
		return NewInvalidInput("All fields are required")
	}
	if err := validator.ValidatePassword(newPassword); err != nil {
		return NewInvalidInput("Password must be at least 6 characters")
	}

	record, err := s.otps.ValidateOTP(ctx, email, otp)
	if err != nil {
		switch {
		case errors.Is(err, ErrOTPExpired):
			return NewInvalidInput("OTP expired")
		case errors.Is(err, ErrMaxAttemptsExceeded):
			return NewInvalidInput("Too many attempts")
		case errors.Is(err, ErrOTPInvalid), errors.Is(err, ErrNoOTPFound):
			return NewInvalidInput("Invalid OTP")
		}
		return err
	}

	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		return err
	}
	if user == nil {
		return NewNotFound("User not found")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), s.bcryptCost)
	if err != nil {
		return err
	}
	if err := s.users.UpdatePassword(ctx, user.ID, string(hash)); err != nil {
		return err
	}
	if err := s.otps.MarkVerified(ctx, record.ID); err != nil {
		s.logger.WithError(err).WithField("user_id", user.ID).Warn("Failed to consume reset OTP")
	}

	s.logger.WithField("user_id", user.ID).Info("Password reset")
	if err := s.auditor.LogPasswordReset(ctx, user.ID, client.IP, client.UserAgent); err != nil {
		s.logger.WithError(err).Warn("Failed to audit password reset")
	}
	return nil
}

func (s *AuthService) issueTokens(user *models.User) (*LoginResult, error) {
	token, err := s.jwtService.GenerateAccessToken(user.ID, user.Email, user.Name, user.Role)
	if err != nil {
		return nil, err
	}
	refreshToken, err := s.jwtService.GenerateRefreshToken(user.ID, user.Email)
	if err != nil {
		return nil, err
	}
	return &LoginResult{
		Token:        token,
		RefreshToken: refreshToken,
		User:         user.Public(),
	}, nil
}

func (s *AuthService) auditLogin(ctx context.Context, userID *uuid.UUID, email string, client ClientInfo, success bool) {
	if err := s.auditor.LogLogin(ctx, userID, email, client.IP, client.UserAgent, success); err != nil {
		s.logger.WithError(err).Warn("Failed to audit login")
	}
}

// roleLimit returns the account cap of role, or 0 when uncapped
func roleLimit(role string) int {
	switch role {
	case models.RoleAdmin:
		return models.MaxAdmins
	case models.RoleWarden:
		return models.MaxWardens
	}
	return 0
}
