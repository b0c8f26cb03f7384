package services

import (
	"context"
	"crypto/rand"
	"database/sql"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/hostelite/hostel-backend/internal/database"
	"github.com/hostelite/hostel-backend/internal/models"
)

const (
	// DefaultOTPExpiry is how long a reset code stays valid
	DefaultOTPExpiry = 5 * time.Minute

	// DefaultMaxOTPAttempts is the number of wrong guesses allowed per code
	DefaultMaxOTPAttempts = 3
)

var (
	// ErrOTPExpired indicates the OTP has expired
	ErrOTPExpired = errors.New("OTP has expired")

	// ErrOTPInvalid indicates the OTP is incorrect
	ErrOTPInvalid = errors.New("invalid OTP code")

	// ErrMaxAttemptsExceeded indicates too many failed validation attempts
	ErrMaxAttemptsExceeded = errors.New("maximum OTP validation attempts exceeded")

	// ErrNoOTPFound indicates no active OTP exists for the email
	ErrNoOTPFound = errors.New("no OTP found for this email")
)

// OTPService issues and checks password reset codes
type OTPService struct {
	db          database.DB
	expiry      time.Duration
	maxAttempts int
}

// NewOTPService creates a new OTP service. Zero values fall back to the defaults.
func NewOTPService(db database.DB, expiry time.Duration, maxAttempts int) *OTPService {
	if expiry <= 0 {
		expiry = DefaultOTPExpiry
	}
	if maxAttempts <= 0 {
		maxAttempts = DefaultMaxOTPAttempts
	}
	return &OTPService{
		db:          db,
		expiry:      expiry,
		maxAttempts: maxAttempts,
	}
}

// Expiry returns how long issued codes stay valid
func (s *OTPService) Expiry() time.Duration {
	return s.expiry
}

// GenerateOTP issues a new 4-digit code for email. Earlier codes for the same
// email stop being valid.
func (s *OTPService) GenerateOTP(ctx context.Context, email, ipAddress, userAgent string) (string, error) {
	email = strings.ToLower(strings.TrimSpace(email))

	if err := s.InvalidateOTP(ctx, email); err != nil {
		return "", fmt.Errorf("failed to invalidate existing OTP: %w", err)
	}

	otp, err := generateRandomOTP()
	if err != nil {
		return "", fmt.Errorf("failed to generate OTP: %w", err)
	}

	query := `
		INSERT INTO password_reset_otps (email, otp_code, expires_at, attempts, max_attempts, ip_address, user_agent)
		VALUES ($1, $2, $3, 0, $4, $5, $6)
	`

	_, err = s.db.ExecContext(ctx, query,
		email, otp, time.Now().Add(s.expiry), s.maxAttempts,
		models.NewNullString(ipAddress), models.NewNullString(userAgent),
	)
	if err != nil {
		return "", fmt.Errorf("failed to store OTP: %w", err)
	}

	return otp, nil
}

// ValidateOTP checks otp against the active code for email and counts the
// attempt. The code stays active until MarkVerified is called.
func (s *OTPService) ValidateOTP(ctx context.Context, email, otp string) (*models.PasswordResetOTP, error) {
	email = strings.ToLower(strings.TrimSpace(email))

	record, err := s.getOTPRecord(ctx, email)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrNoOTPFound
		}
		return nil, fmt.Errorf("failed to get OTP record: %w", err)
	}

	if record.Attempts >= record.MaxAttempts {
		return nil, ErrMaxAttemptsExceeded
	}

	if record.OTPCode != otp {
		if err := s.incrementAttempts(ctx, record.ID); err != nil {
			return nil, err
		}
		return nil, ErrOTPInvalid
	}

	if time.Now().After(record.ExpiresAt) {
		return nil, ErrOTPExpired
	}

	return record, nil
}

// MarkVerified consumes a code so it cannot be used again
func (s *OTPService) MarkVerified(ctx context.Context, id int64) error {
	query := `
		UPDATE password_reset_otps
		SET verified = true, verified_at = NOW()
		WHERE id = $1 AND verified = false
	`

	if _, err := s.db.ExecContext(ctx, query, id); err != nil {
		return fmt.Errorf("failed to mark OTP as verified: %w", err)
	}
	return nil
}

// InvalidateOTP invalidates any existing OTPs for the given email
func (s *OTPService) InvalidateOTP(ctx context.Context, email string) error {
	query := `
		UPDATE password_reset_otps
		SET verified = true
		WHERE email = $1 AND verified = false
	`

	if _, err := s.db.ExecContext(ctx, query, email); err != nil {
		return fmt.Errorf("failed to invalidate OTP: %w", err)
	}
	return nil
}

// CleanupExpiredOTPs removes all expired OTP records from the database
func (s *OTPService) CleanupExpiredOTPs(ctx context.Context) (int64, error) {
	result, err := s.db.ExecContext(ctx, `DELETE FROM password_reset_otps WHERE expires_at < $1`, time.Now())
	if err != nil {
		return 0, fmt.Errorf("failed to cleanup expired OTPs: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}

	return rowsAffected, nil
}

func (s *OTPService) getOTPRecord(ctx context.Context, email string) (*models.PasswordResetOTP, error) {
	query := `
		SELECT id, email, otp_code, created_at, expires_at, verified, verified_at, attempts, max_attempts, ip_address, user_agent
		FROM password_reset_otps
		WHERE email = $1 AND verified = false
		ORDER BY created_at DESC
		LIMIT 1
	`

	var otp models.PasswordResetOTP
	err := s.db.QueryRowxContext(ctx, query, email).Scan(
		&otp.ID,
		&otp.Email,
		&otp.OTPCode,
		&otp.CreatedAt,
		&otp.ExpiresAt,
		&otp.Verified,
		&otp.VerifiedAt,
		&otp.Attempts,
		&otp.MaxAttempts,
		&otp.IPAddress,
		&otp.UserAgent,
	)
	if err != nil {
		return nil, err
	}

	return &otp, nil
}

func (s *OTPService) incrementAttempts(ctx context.Context, id int64) error {
	if _, err := s.db.ExecContext(ctx, `UPDATE password_reset_otps SET attempts = attempts + 1 WHERE id = $1`, id); err != nil {
		return fmt.Errorf("failed to increment attempts: %w", err)
	}
	return nil
}

// generateRandomOTP returns a cryptographically random code in 1000..9999
func generateRandomOTP() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(9000))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%d", 1000+n.Int64()), nil
}
