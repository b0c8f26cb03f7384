package services

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/hostelite/hostel-backend/internal/database"
	"github.com/hostelite/hostel-backend/internal/models"
	"github.com/hostelite/hostel-backend/pkg/jwt"
	"github.com/hostelite/hostel-backend/pkg/mailer"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

type fakeAccounts struct {
	mu    sync.Mutex
	users map[uuid.UUID]*models.User
}

func newFakeAccounts() *fakeAccounts {
	return &fakeAccounts{users: make(map[uuid.UUID]*models.User)}
}

func (a *fakeAccounts) Create(ctx context.Context, user *models.User, limit int) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	count := 0
	for _, u := range a.users {
		if u.Email == user.Email {
			return database.ErrEmailTaken
		}
		if u.Role == user.Role {
			count++
		}
	}
	if limit > 0 && count >= limit {
		return database.ErrRoleLimitReached
	}

	user.ID = uuid.New()
	user.CreatedAt = time.Now()
	stored := *user
	a.users[user.ID] = &stored
	return nil
}

func (a *fakeAccounts) GetByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if u, ok := a.users[id]; ok {
		copied := *u
		return &copied, nil
	}
	return nil, nil
}

func (a *fakeAccounts) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	email = strings.ToLower(strings.TrimSpace(email))
	for _, u := range a.users {
		if u.Email == email {
			copied := *u
			return &copied, nil
		}
	}
	return nil, nil
}

func (a *fakeAccounts) UpdatePassword(ctx context.Context, id uuid.UUID, passwordHash string) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	u, ok := a.users[id]
	if !ok {
		return errors.New("user not found")
	}
	u.PasswordHash = passwordHash
	return nil
}

func (a *fakeAccounts) countRole(role string) int {
	a.mu.Lock()
	defer a.mu.Unlock()
	n := 0
	for _, u := range a.users {
		if u.Role == role {
			n++
		}
	}
	return n
}

type fakeResetCode struct {
	id        int64
	code      string
	expiresAt time.Time
	attempts  int
	verified  bool
}

type fakeResetCodes struct {
	mu     sync.Mutex
	nextID int64
	codes  map[string]*fakeResetCode
}

func newFakeResetCodes() *fakeResetCodes {
	return &fakeResetCodes{codes: make(map[string]*fakeResetCode)}
}

func (c *fakeResetCodes) GenerateOTP(ctx context.Context, email, ipAddress, userAgent string) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.nextID++
	code := "4821"
	c.codes[email] = &fakeResetCode{id: c.nextID, code: code, expiresAt: time.Now().Add(DefaultOTPExpiry)}
	return code, nil
}

func (c *fakeResetCodes) ValidateOTP(ctx context.Context, email, otp string) (*models.PasswordResetOTP, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	record, ok := c.codes[email]
	if !ok || record.verified {
		return nil, ErrNoOTPFound
	}
	if record.attempts >= DefaultMaxOTPAttempts {
		return nil, ErrMaxAttemptsExceeded
	}
	if record.code != otp {
		record.attempts++
		return nil, ErrOTPInvalid
	}
	if time.Now().After(record.expiresAt) {
		return nil, ErrOTPExpired
	}
	return &models.PasswordResetOTP{ID: record.id, Email: email}, nil
}

func (c *fakeResetCodes) MarkVerified(ctx context.Context, id int64) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, record := range c.codes {
		if record.id == id {
			record.verified = true
		}
	}
	return nil
}

func (c *fakeResetCodes) expire(email string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.codes[email].expiresAt = time.Now().Add(-time.Second)
}

type fakeAuthAuditor struct {
	mu      sync.Mutex
	actions []string
}

func (a *fakeAuthAuditor) record(action string) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.actions = append(a.actions, action)
	return nil
}

func (a *fakeAuthAuditor) LogLogin(ctx context.Context, userID *uuid.UUID, email, ipAddress, userAgent string, success bool) error {
	if success {
		return a.record(AuditActionLogin)
	}
	return a.record(AuditActionLoginFailed)
}

func (a *fakeAuthAuditor) LogRegister(ctx context.Context, userID uuid.UUID, role, ipAddress, userAgent string) error {
	return a.record(AuditActionRegister)
}

func (a *fakeAuthAuditor) LogPasswordResetRequest(ctx context.Context, userID uuid.UUID, ipAddress, userAgent string) error {
	return a.record(AuditActionPasswordResetIssue)
}

func (a *fakeAuthAuditor) LogPasswordReset(ctx context.Context, userID uuid.UUID, ipAddress, userAgent string) error {
	return a.record(AuditActionPasswordReset)
}

func (a *fakeAuthAuditor) LogRateLimitViolation(ctx context.Context, email, ipAddress, userAgent, limitType string, retryAfter time.Time) error {
	return a.record(AuditActionRateLimit)
}

func (a *fakeAuthAuditor) has(action string) bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	for _, got := range a.actions {
		if got == action {
			return true
		}
	}
	return false
}

type failingMailer struct{}

func (failingMailer) Send(ctx context.Context, msg mailer.Message) error {
	return errors.New("smtp: connection refused")
}

func (failingMailer) GetName() string { return "failing" }

type authFixture struct {
	service  *AuthService
	accounts *fakeAccounts
	codes    *fakeResetCodes
	auditor  *fakeAuthAuditor
	mail     *mailer.LogMailer
	jwt      *jwt.Service
	redis    *miniredis.Miniredis
}

var testClient = ClientInfo{IP: "203.0.113.7", UserAgent: "Mozilla/5.0 (X11; Linux x86_64) Firefox/120.0"}

func setupAuthTest(t *testing.T, devMode bool) authFixture {
	t.Helper()

	mr, rdb := newTestRedis(t)
	f := authFixture{
		redis:    mr,
		accounts: newFakeAccounts(),
		codes:    newFakeResetCodes(),
		auditor:  &fakeAuthAuditor{},
		mail:     mailer.NewLogMailer(testLogger()),
		jwt: jwt.NewService(
			"test-access-secret-that-is-long-enough",
			"test-refresh-secret-that-is-long-enough",
			time.Hour, 24*time.Hour,
		),
	}
	f.service = NewAuthService(
		f.accounts, f.codes,
		NewRateLimitService(rdb, DefaultRateLimitConfig()),
		f.auditor, f.mail, f.jwt,
		AuthConfig{BcryptCost: bcrypt.MinCost, DevMode: devMode},
		testLogger(),
	)
	return f
}

func registerUser(t *testing.T, f authFixture, email, role string) *models.User {
	t.Helper()
	user, err := f.service.Register(context.Background(), RegisterInput{
		Name:     "Test User",
		Email:    email,
		Password: "secret123",
		Role:     role,
	}, testClient)
	require.NoError(t, err)
	return user
}

func TestRegister_DefaultsToStudent(t *testing.T) {
	f := setupAuthTest(t, false)

	user := registerUser(t, f, "  Alice@Example.com ", "")

	assert.Equal(t, models.RoleStudent, user.Role)
	assert.Equal(t, "alice@example.com", user.Email)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte("secret123")))
	assert.True(t, f.auditor.has(AuditActionRegister))
}

func TestRegister_Validation(t *testing.T) {
	f := setupAuthTest(t, false)

	tests := []struct {
		name  string
		input RegisterInput
	}{
		{"missing name", RegisterInput{Email: "a@example.com", Password: "secret123"}},
		{"bad email", RegisterInput{Name: "A", Email: "not-an-email", Password: "secret123"}},
		{"short password", RegisterInput{Name: "A", Email: "a@example.com", Password: "123"}},
		{"unknown role", RegisterInput{Name: "A", Email: "a@example.com", Password: "secret123", Role: "janitor"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.service.Register(context.Background(), tt.input, testClient)
			assert.Equal(t, KindInvalidInput, KindOf(err))
		})
	}
}

func TestRegister_DuplicateEmail(t *testing.T) {
	f := setupAuthTest(t, false)
	registerUser(t, f, "alice@example.com", models.RoleStudent)

	_, err := f.service.Register(context.Background(), RegisterInput{
		Name: "Alice", Email: "ALICE@example.com", Password: "secret123",
	}, testClient)
	assert.Equal(t, KindConflict, KindOf(err))
	assert.Equal(t, "User already exists", MessageOf(err))
}

func TestRegister_RoleCaps(t *testing.T) {
	f := setupAuthTest(t, false)
	ctx := context.Background()

	registerUser(t, f, "admin@example.com", models.RoleAdmin)
	_, err := f.service.Register(ctx, RegisterInput{
		Name: "Second", Email: "admin2@example.com", Password: "secret123", Role: models.RoleAdmin,
	}, testClient)
	assert.Equal(t, KindConflict, KindOf(err))
	assert.True(t, IsLimitReached(err))
	assert.Equal(t, "Admin already exists. Cannot create another admin.", MessageOf(err))

	registerUser(t, f, "warden1@example.com", models.RoleWarden)
	registerUser(t, f, "warden2@example.com", models.RoleWarden)
	_, err = f.service.Register(ctx, RegisterInput{
		Name: "Third", Email: "warden3@example.com", Password: "secret123", Role: models.RoleWarden,
	}, testClient)
	assert.Equal(t, KindConflict, KindOf(err))
	assert.True(t, IsLimitReached(err))
	assert.Equal(t, "Maximum number of wardens already exist.", MessageOf(err))

	assert.Equal(t, 1, f.accounts.countRole(models.RoleAdmin))
	assert.Equal(t, 2, f.accounts.countRole(models.RoleWarden))
}

func TestRegister_ConcurrentWardens(t *testing.T) {
	f := setupAuthTest(t, false)

	var wg sync.WaitGroup
	for i := 0; i < 6; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			f.service.Register(context.Background(), RegisterInput{
				Name:     "Warden",
				Email:    uuid.NewString() + "@example.com",
				Password: "secret123",
				Role:     models.RoleWarden,
			}, testClient)
		}(i)
	}
	wg.Wait()

	assert.Equal(t, models.MaxWardens, f.accounts.countRole(models.RoleWarden))
}

func TestLogin(t *testing.T) {
	f := setupAuthTest(t, false)
	user := registerUser(t, f, "alice@example.com", models.RoleWarden)

	result, err := f.service.Login(context.Background(), "alice@example.com", "secret123", testClient)
	require.NoError(t, err)

	assert.Equal(t, user.ID, result.User.ID)
	assert.Equal(t, models.RoleWarden, result.User.Role)

	claims, err := f.jwt.ValidateAccessToken(result.Token)
	require.NoError(t, err)
	assert.Equal(t, user.ID, claims.UserID)
	assert.Equal(t, models.RoleWarden, claims.Role)

	_, err = f.jwt.ValidateRefreshToken(result.RefreshToken)
	assert.NoError(t, err)
	assert.True(t, f.auditor.has(AuditActionLogin))
}

func TestLogin_InvalidCredentials(t *testing.T) {
	f := setupAuthTest(t, false)
	registerUser(t, f, "alice@example.com", models.RoleStudent)

	_, err := f.service.Login(context.Background(), "alice@example.com", "wrong-password", testClient)
	assert.Equal(t, KindUnauthorized, KindOf(err))
	assert.Equal(t, "Invalid email or password", MessageOf(err))

	_, err = f.service.Login(context.Background(), "nobody@example.com", "secret123", testClient)
	assert.Equal(t, KindUnauthorized, KindOf(err))
	assert.Equal(t, "Invalid email or password", MessageOf(err))

	assert.True(t, f.auditor.has(AuditActionLoginFailed))
}

func TestRefresh(t *testing.T) {
	f := setupAuthTest(t, false)
	user := registerUser(t, f, "alice@example.com", models.RoleStudent)
	login, err := f.service.Login(context.Background(), "alice@example.com", "secret123", testClient)
	require.NoError(t, err)

	result, err := f.service.Refresh(context.Background(), login.RefreshToken)
	require.NoError(t, err)
	claims, err := f.jwt.ValidateAccessToken(result.Token)
	require.NoError(t, err)
	assert.Equal(t, user.ID, claims.UserID)

	_, err = f.service.Refresh(context.Background(), login.Token)
	assert.Equal(t, KindUnauthorized, KindOf(err))
}

func TestForgotPassword_SendsOTP(t *testing.T) {
	f := setupAuthTest(t, false)
	registerUser(t, f, "alice@example.com", models.RoleStudent)

	devOTP, err := f.service.ForgotPassword(context.Background(), "alice@example.com", testClient)
	require.NoError(t, err)
	assert.Empty(t, devOTP)

	sent := f.mail.Sent()
	require.Len(t, sent, 1)
	assert.Equal(t, "alice@example.com", sent[0].To)
	assert.Equal(t, mailer.PasswordResetSubject, sent[0].Subject)
	assert.Contains(t, sent[0].HTML, "4821")
	assert.True(t, f.auditor.has(AuditActionPasswordResetIssue))
}

func TestForgotPassword_DevModeReturnsOTP(t *testing.T) {
	f := setupAuthTest(t, true)
	registerUser(t, f, "alice@example.com", models.RoleStudent)

	devOTP, err := f.service.ForgotPassword(context.Background(), "alice@example.com", testClient)
	require.NoError(t, err)
	assert.Equal(t, "4821", devOTP)
}

func TestForgotPassword_UnknownEmail(t *testing.T) {
	f := setupAuthTest(t, false)

	_, err := f.service.ForgotPassword(context.Background(), "nobody@example.com", testClient)
	assert.Equal(t, KindNotFound, KindOf(err))
	assert.Empty(t, f.mail.Sent())
}

func TestForgotPassword_RateLimited(t *testing.T) {
	f := setupAuthTest(t, false)
	registerUser(t, f, "alice@example.com", models.RoleStudent)
	ctx := context.Background()

	for i := 0; i < DefaultRateLimitConfig().MaxEmailRequests; i++ {
		_, err := f.service.ForgotPassword(ctx, "alice@example.com", testClient)
		require.NoError(t, err)
	}

	_, err := f.service.ForgotPassword(ctx, "alice@example.com", testClient)
	var limitErr *RateLimitError
	require.ErrorAs(t, err, &limitErr)
	assert.Equal(t, "email", limitErr.Type)
	assert.True(t, f.auditor.has(AuditActionRateLimit))
}

func TestForgotPassword_LimiterUnavailable(t *testing.T) {
	f := setupAuthTest(t, true)
	registerUser(t, f, "alice@example.com", models.RoleStudent)
	f.redis.Close()

	devOTP, err := f.service.ForgotPassword(context.Background(), "alice@example.com", testClient)
	require.NoError(t, err)
	assert.Equal(t, "4821", devOTP)
	assert.Len(t, f.mail.Sent(), 1)
}

func TestForgotPassword_MailFailure(t *testing.T) {
	f := setupAuthTest(t, false)
	registerUser(t, f, "alice@example.com", models.RoleStudent)
	f.service.mail = failingMailer{}

	_, err := f.service.ForgotPassword(context.Background(), "alice@example.com", testClient)
	assert.Equal(t, KindUpstream, KindOf(err))
}

func TestResetPassword(t *testing.T) {
	f := setupAuthTest(t, true)
	registerUser(t, f, "alice@example.com", models.RoleStudent)
	ctx := context.Background()

	otp, err := f.service.ForgotPassword(ctx, "alice@example.com", testClient)
	require.NoError(t, err)

	require.NoError(t, f.service.ResetPassword(ctx, "alice@example.com", otp, "newsecret", testClient))

	_, err = f.service.Login(ctx, "alice@example.com", "newsecret", testClient)
	assert.NoError(t, err)
	_, err = f.service.Login(ctx, "alice@example.com", "secret123", testClient)
	assert.Equal(t, KindUnauthorized, KindOf(err))
	assert.True(t, f.auditor.has(AuditActionPasswordReset))

	err = f.service.ResetPassword(ctx, "alice@example.com", otp, "another1", testClient)
	assert.Equal(t, "Invalid OTP", MessageOf(err))
}

func TestResetPassword_OTPErrors(t *testing.T) {
	f := setupAuthTest(t, true)
	registerUser(t, f, "alice@example.com", models.RoleStudent)
	ctx := context.Background()

	_, err := f.service.ForgotPassword(ctx, "alice@example.com", testClient)
	require.NoError(t, err)

	err = f.service.ResetPassword(ctx, "alice@example.com", "0000", "newsecret", testClient)
	assert.Equal(t, KindInvalidInput, KindOf(err))
	assert.Equal(t, "Invalid OTP", MessageOf(err))

	err = f.service.ResetPassword(ctx, "alice@example.com", "4821", "123", testClient)
	assert.Equal(t, "Password must be at least 6 characters", MessageOf(err))

	f.codes.expire("alice@example.com")
	err = f.service.ResetPassword(ctx, "alice@example.com", "4821", "newsecret", testClient)
	assert.Equal(t, "OTP expired", MessageOf(err))

	for i := 0; i < 2; i++ {
		err = f.service.ResetPassword(ctx, "alice@example.com", "1111", "newsecret", testClient)
		assert.Equal(t, "Invalid OTP", MessageOf(err))
	}
	err = f.service.ResetPassword(ctx, "alice@example.com", "4821", "newsecret", testClient)
	assert.Equal(t, "Too many attempts", MessageOf(err))
}

func TestMe(t *testing.T) {
	f := setupAuthTest(t, false)
	user := registerUser(t, f, "alice@example.com", models.RoleStudent)

	me, err := f.service.Me(context.Background(), user.ID)
	require.NoError(t, err)
	assert.Equal(t, user.Email, me.Email)

	_, err = f.service.Me(context.Background(), uuid.New())
	assert.Equal(t, KindNotFound, KindOf(err))
}
