package handlers

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/hostelite/hostel-backend/internal/database"
	"github.com/hostelite/hostel-backend/internal/middleware"
	"github.com/hostelite/hostel-backend/pkg/jwt"
	"github.com/jmoiron/sqlx"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func testLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

func newMockDB(t *testing.T) (database.DB, sqlmock.Sqlmock) {
	t.Helper()

	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	return &database.PostgresDB{DB: sqlx.NewDb(db, "sqlmock")}, mock
}

// testAuth issues tokens accepted by the router's AuthMiddleware
type testAuth struct {
	jwt *jwt.Service
}

func newTestAuth() *testAuth {
	return &testAuth{jwt: jwt.NewService("test-secret", "test-refresh-secret", time.Hour, 24*time.Hour)}
}

func (a *testAuth) middleware() gin.HandlerFunc {
	return middleware.AuthMiddleware(a.jwt, testLogger())
}

func (a *testAuth) token(t *testing.T, userID uuid.UUID, role string) string {
	t.Helper()
	token, err := a.jwt.GenerateAccessToken(userID, role+"@example.com", role, role)
	require.NoError(t, err)
	return token
}

func performRequest(router http.Handler, method, path string, body any, token string) *httptest.ResponseRecorder {
	var reader io.Reader
	if body != nil {
		data, _ := json.Marshal(body)
		reader = bytes.NewReader(data)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body
}
