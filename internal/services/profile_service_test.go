package services

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/hostelite/hostel-backend/internal/database"
	"github.com/hostelite/hostel-backend/internal/models"
	"github.com/hostelite/hostel-backend/pkg/imagekit"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeImageHost struct {
	mu        sync.Mutex
	uploads   []string
	deleted   []string
	failAfter int
}

func (h *fakeImageHost) Upload(ctx context.Context, data []byte, fileName, folder string) (*imagekit.UploadResult, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.failAfter > 0 && len(h.uploads) >= h.failAfter {
		return nil, errors.New("imagekit returned 500")
	}
	id := fmt.Sprintf("file_%d", len(h.uploads)+1)
	h.uploads = append(h.uploads, folder+"/"+fileName)
	return &imagekit.UploadResult{
		FileID: id,
		Name:   fileName,
		URL:    "https://ik.example.com/" + folder + "/" + fileName,
	}, nil
}

func (h *fakeImageHost) Delete(ctx context.Context, fileID string) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.deleted = append(h.deleted, fileID)
	return nil
}

type fakeProfileStore struct {
	mu        sync.Mutex
	byUser    map[uuid.UUID]*models.UserProfile
	createErr error
}

func newFakeProfileStore() *fakeProfileStore {
	return &fakeProfileStore{byUser: make(map[uuid.UUID]*models.UserProfile)}
}

func (s *fakeProfileStore) Create(ctx context.Context, profile *models.UserProfile) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.createErr != nil {
		return s.createErr
	}
	if _, ok := s.byUser[profile.UserID]; ok {
		return database.ErrProfileExists
	}
	profile.ID = uuid.New()
	profile.Submitted = true
	s.byUser[profile.UserID] = profile
	return nil
}

func (s *fakeProfileStore) GetByUserID(ctx context.Context, userID uuid.UUID) (*models.UserProfile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.byUser[userID], nil
}

func (s *fakeProfileStore) GetByID(ctx context.Context, id uuid.UUID) (*models.UserProfile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, p := range s.byUser {
		if p.ID == id {
			return p, nil
		}
	}
	return nil, nil
}

func (s *fakeProfileStore) List(ctx context.Context) ([]models.ProfileWithUser, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []models.ProfileWithUser{}
	for _, p := range s.byUser {
		out = append(out, models.ProfileWithUser{UserProfile: *p})
	}
	return out, nil
}

func (s *fakeProfileStore) AdminUpdate(ctx context.Context, id uuid.UUID, update models.ProfileAdminUpdate) (*models.UserProfile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, p := range s.byUser {
		if p.ID != id {
			continue
		}
		if update.FullName != nil {
			p.FullName = *update.FullName
		}
		if update.Phone != nil {
			p.Phone = *update.Phone
		}
		if update.AadhaarNumber != nil {
			p.AadhaarNumber = models.NewNullString(*update.AadhaarNumber)
		}
		return p, nil
	}
	return nil, nil
}

func validSubmission() ProfileSubmission {
	return ProfileSubmission{
		FullName:       "Asha Kumari",
		FatherName:     "Raj Kumar",
		Phone:          "+91 98765 43210",
		Address:        "12 MG Road",
		AadhaarNumber:  "2345 6789 0123",
		StudentType:    models.StudentTypeUniversity,
		UniversityName: "Delhi University",
		AadhaarPhoto:   Document{File: &UploadFile{Name: "aadhaar.jpg", Data: []byte("jpeg")}},
		ProfilePhoto:   Document{URL: "https://ik.example.com/profile-photos/me.png"},
	}
}

func setupProfileTest() (*ProfileService, *fakeProfileStore, *fakeImageHost, Caller) {
	store := newFakeProfileStore()
	images := &fakeImageHost{}
	service := NewProfileService(store, images, testLogger())
	return service, store, images, Caller{UserID: uuid.New(), Role: models.RoleStudent}
}

func TestProfileSubmit_Success(t *testing.T) {
	service, _, images, caller := setupProfileTest()

	profile, err := service.Submit(context.Background(), caller, validSubmission())
	require.NoError(t, err)

	assert.Equal(t, caller.UserID, profile.UserID)
	assert.Equal(t, "9876543210", profile.Phone)
	assert.Equal(t, "234567890123", profile.AadhaarNumber.String)
	assert.Equal(t, "https://ik.example.com/aadhaar-cards/aadhaar.jpg", profile.AadhaarPhoto)
	assert.Equal(t, "file_1", profile.AadhaarFileID.String)
	assert.Equal(t, "https://ik.example.com/profile-photos/me.png", profile.ProfilePhoto)
	assert.False(t, profile.ProfileFileID.Valid)
	assert.False(t, profile.MotherName.Valid)
	assert.True(t, profile.Submitted)
	assert.Equal(t, []string{"aadhaar-cards/aadhaar.jpg"}, images.uploads)

	mine, err := service.Mine(context.Background(), caller)
	require.NoError(t, err)
	assert.Equal(t, profile.ID, mine.ID)
}

func TestProfileSubmit_OnlyOnce(t *testing.T) {
	service, _, images, caller := setupProfileTest()
	_, err := service.Submit(context.Background(), caller, validSubmission())
	require.NoError(t, err)

	_, err = service.Submit(context.Background(), caller, validSubmission())
	assert.Equal(t, KindConflict, KindOf(err))
	assert.Equal(t, "Profile already submitted", MessageOf(err))
	assert.Len(t, images.uploads, 1)
}

func TestProfileSubmit_Validation(t *testing.T) {
	service, store, images, caller := setupProfileTest()

	tests := []struct {
		name   string
		mutate func(*ProfileSubmission)
		msg    string
	}{
		{"missing name", func(s *ProfileSubmission) { s.FullName = " " }, "Full name and phone are required"},
		{"missing phone", func(s *ProfileSubmission) { s.Phone = "" }, "Full name and phone are required"},
		{"bad phone", func(s *ProfileSubmission) { s.Phone = "12345" }, "Invalid phone number"},
		{"bad aadhaar", func(s *ProfileSubmission) { s.AadhaarNumber = "1234" }, "Aadhaar number must be 12 digits"},
		{"bad student type", func(s *ProfileSubmission) { s.StudentType = "retired" }, "Invalid student type"},
		{"missing aadhaar photo", func(s *ProfileSubmission) { s.AadhaarPhoto = Document{} }, "All documents required"},
		{"missing profile photo", func(s *ProfileSubmission) { s.ProfilePhoto = Document{URL: "  "} }, "All documents required"},
		{"unsupported file", func(s *ProfileSubmission) {
			s.AadhaarPhoto = Document{File: &UploadFile{Name: "aadhaar.exe", Data: []byte("x")}}
		}, "Unsupported file type"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			input := validSubmission()
			tt.mutate(&input)

			_, err := service.Submit(context.Background(), caller, input)
			assert.Equal(t, KindInvalidInput, KindOf(err))
			assert.Equal(t, tt.msg, MessageOf(err))
		})
	}

	assert.Empty(t, store.byUser)
	assert.Empty(t, images.uploads)
}

func TestProfileSubmit_AdminForbidden(t *testing.T) {
	service, _, _, _ := setupProfileTest()

	_, err := service.Submit(context.Background(), Caller{UserID: uuid.New(), Role: models.RoleAdmin}, validSubmission())
	assert.Equal(t, KindForbidden, KindOf(err))
}

func TestProfileSubmit_UploadFailureCleansUp(t *testing.T) {
	service, store, images, caller := setupProfileTest()
	images.failAfter = 1

	input := validSubmission()
	input.ProfilePhoto = Document{File: &UploadFile{Name: "me.png", Data: []byte("png")}}

	_, err := service.Submit(context.Background(), caller, input)
	assert.Equal(t, KindUpstream, KindOf(err))
	assert.Equal(t, []string{"file_1"}, images.deleted)
	assert.Empty(t, store.byUser)
}

func TestProfileSubmit_StoreFailureCleansUp(t *testing.T) {
	service, store, images, caller := setupProfileTest()
	store.createErr = database.ErrProfileExists

	_, err := service.Submit(context.Background(), caller, validSubmission())
	assert.Equal(t, KindConflict, KindOf(err))
	assert.Equal(t, []string{"file_1"}, images.deleted)
}

func TestProfileLookups(t *testing.T) {
	service, _, _, caller := setupProfileTest()
	ctx := context.Background()

	_, err := service.Mine(ctx, caller)
	assert.Equal(t, KindNotFound, KindOf(err))
	assert.Equal(t, "Profile not found", MessageOf(err))

	profile, err := service.Submit(ctx, caller, validSubmission())
	require.NoError(t, err)

	byUser, err := service.ByUser(ctx, caller.UserID)
	require.NoError(t, err)
	assert.Equal(t, profile.ID, byUser.ID)

	byID, err := service.ByID(ctx, profile.ID)
	require.NoError(t, err)
	assert.Equal(t, caller.UserID, byID.UserID)

	_, err = service.ByID(ctx, uuid.New())
	assert.Equal(t, KindNotFound, KindOf(err))

	all, err := service.List(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestProfileAdminUpdate(t *testing.T) {
	service, _, _, caller := setupProfileTest()
	ctx := context.Background()
	profile, err := service.Submit(ctx, caller, validSubmission())
	require.NoError(t, err)

	updated, err := service.AdminUpdate(ctx, profile.ID, models.ProfileAdminUpdate{
		FullName: strPtr(" Asha K "),
		Phone:    strPtr("91-7000000001"),
	})
	require.NoError(t, err)
	assert.Equal(t, "Asha K", updated.FullName)
	assert.Equal(t, "7000000001", updated.Phone)

	_, err = service.AdminUpdate(ctx, profile.ID, models.ProfileAdminUpdate{})
	assert.Equal(t, KindInvalidInput, KindOf(err))

	_, err = service.AdminUpdate(ctx, profile.ID, models.ProfileAdminUpdate{AadhaarNumber: strPtr("12")})
	assert.Equal(t, KindInvalidInput, KindOf(err))

	_, err = service.AdminUpdate(ctx, uuid.New(), models.ProfileAdminUpdate{FullName: strPtr("x")})
	assert.Equal(t, KindNotFound, KindOf(err))
}

func TestProfileDownload_ByUserOrProfileID(t *testing.T) {
	service, _, _, caller := setupProfileTest()
	ctx := context.Background()
	profile, err := service.Submit(ctx, caller, validSubmission())
	require.NoError(t, err)

	for _, id := range []uuid.UUID{caller.UserID, profile.ID} {
		got, data, err := service.Download(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, profile.ID, got.ID)
		assert.True(t, bytes.HasPrefix(data, []byte("%PDF-")))
	}

	_, _, err = service.Download(ctx, uuid.New())
	assert.Equal(t, KindNotFound, KindOf(err))
}

func TestProfileUploadImage(t *testing.T) {
	service, _, images, _ := setupProfileTest()

	result, err := service.UploadImage(context.Background(), UploadFile{Name: "card.PNG", Data: []byte("png")}, "elsewhere")
	require.NoError(t, err)
	assert.Equal(t, "file_1", result.FileID)
	assert.Equal(t, []string{"profile-photos/card.PNG"}, images.uploads)

	_, err = service.UploadImage(context.Background(), UploadFile{Name: "empty.png"}, models.FolderAadhaarCards)
	assert.Equal(t, KindInvalidInput, KindOf(err))
}
