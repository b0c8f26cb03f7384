package imagekit

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

func TestUpload(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/files/upload", r.URL.Path)

		user, _, ok := r.BasicAuth()
		assert.True(t, ok)
		assert.Equal(t, "private_key", user)

		require.NoError(t, r.ParseMultipartForm(1<<20))
		assert.Equal(t, "aadhaar-cards", r.FormValue("folder"))
		assert.Equal(t, "card.png", r.FormValue("fileName"))

		file, _, err := r.FormFile("file")
		require.NoError(t, err)
		body, _ := io.ReadAll(file)
		assert.Equal(t, "png-bytes", string(body))

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(UploadResult{
			FileID: "file_1",
			Name:   "card.png",
			URL:    "https://ik.imagekit.io/demo/aadhaar-cards/card.png",
		})
	}))
	defer server.Close()

	client := NewClient(Config{PrivateKey: "private_key", UploadURL: server.URL}, newTestLogger())
	result, err := client.Upload(context.Background(), []byte("png-bytes"), "card.png", "aadhaar-cards")
	require.NoError(t, err)
	assert.Equal(t, "file_1", result.FileID)
	assert.Contains(t, result.URL, "aadhaar-cards")
}

func TestUpload_Rejected(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusForbidden)
		w.Write([]byte(`{"message":"Your account cannot be authenticated."}`))
	}))
	defer server.Close()

	client := NewClient(Config{UploadURL: server.URL}, newTestLogger())
	_, err := client.Upload(context.Background(), []byte("x"), "x.png", "profile-photos")
	assert.EqualError(t, err, "image upload failed: Your account cannot be authenticated.")
}

func TestDelete(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodDelete, r.Method)
		assert.Equal(t, "/v1/files/file_1", r.URL.Path)
		w.WriteHeader(http.StatusNoContent)
	}))
	defer server.Close()

	client := NewClient(Config{APIURL: server.URL}, newTestLogger())
	assert.NoError(t, client.Delete(context.Background(), "file_1"))
}
