package services

import (
	"context"
	"errors"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/hostelite/hostel-backend/internal/database"
	"github.com/hostelite/hostel-backend/internal/models"
	"github.com/hostelite/hostel-backend/internal/reports"
	"github.com/hostelite/hostel-backend/pkg/imagekit"
	"github.com/hostelite/hostel-backend/pkg/validator"
	"github.com/sirupsen/logrus"
)

// MaxUploadSize bounds a single uploaded document
const MaxUploadSize = 5 << 20

var allowedImageExts = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".webp": true,
	".pdf":  true,
}

// ImageHost stores uploaded documents
type ImageHost interface {
	Upload(ctx context.Context, data []byte, fileName, folder string) (*imagekit.UploadResult, error)
	Delete(ctx context.Context, fileID string) error
}

// ProfileStore persists profiles
type ProfileStore interface {
	Create(ctx context.Context, profile *models.UserProfile) error
	GetByUserID(ctx context.Context, userID uuid.UUID) (*models.UserProfile, error)
	GetByID(ctx context.Context, id uuid.UUID) (*models.UserProfile, error)
	List(ctx context.Context) ([]models.ProfileWithUser, error)
	AdminUpdate(ctx context.Context, id uuid.UUID, update models.ProfileAdminUpdate) (*models.UserProfile, error)
}

// UploadFile is a file received in a multipart request
type UploadFile struct {
	Name string
	Data []byte
}

// Document is either an uploaded file or the URL of an already hosted one
type Document struct {
	URL  string
	File *UploadFile
}

// ProfileSubmission is the one-time profile a resident submits
type ProfileSubmission struct {
	FullName         string
	FatherName       string
	MotherName       string
	Phone            string
	Address          string
	PermanentAddress string
	AadhaarNumber    string
	StudentType      string
	UniversityName   string
	CompanyName      string
	AadhaarPhoto     Document
	ProfilePhoto     Document
}

// ProfileService handles resident identity documents
type ProfileService struct {
	profiles ProfileStore
	images   ImageHost
	phones   *validator.PhoneValidator
	logger   *logrus.Logger
}

// NewProfileService creates a new profile service
func NewProfileService(profiles ProfileStore, images ImageHost, logger *logrus.Logger) *ProfileService {
	return &ProfileService{
		profiles: profiles,
		images:   images,
		phones:   validator.NewPhoneValidator(),
		logger:   logger,
	}
}

// Submit stores the caller's profile. Each user submits exactly once.
func (s *ProfileService) Submit(ctx context.Context, caller Caller, input ProfileSubmission) (*models.UserProfile, error) {
	if caller.Role != models.RoleStudent && caller.Role != models.RoleWarden {
		return nil, NewForbidden("Only students and wardens submit profiles")
	}

	profile, err := s.buildProfile(caller, input)
	if err != nil {
		return nil, err
	}
	if !input.AadhaarPhoto.present() || !input.ProfilePhoto.present() {
		return nil, NewInvalidInput("All documents required")
	}

	existing, err := s.profiles.GetByUserID(ctx, caller.UserID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, NewConflict("Profile already submitted")
	}

	var uploaded []string
	aadhaar, err := s.resolveDocument(ctx, input.AadhaarPhoto, models.FolderAadhaarCards, &uploaded)
	if err != nil {
		return nil, err
	}
	photo, err := s.resolveDocument(ctx, input.ProfilePhoto, models.FolderProfilePhotos, &uploaded)
	if err != nil {
		s.discardUploads(uploaded)
		return nil, err
	}

	profile.AadhaarPhoto = aadhaar.URL
	profile.AadhaarFileID = models.NewNullString(aadhaar.FileID)
	profile.ProfilePhoto = photo.URL
	profile.ProfileFileID = models.NewNullString(photo.FileID)

	if err := s.profiles.Create(ctx, profile); err != nil {
		s.discardUploads(uploaded)
		if errors.Is(err, database.ErrProfileExists) {
			return nil, NewConflict("Profile already submitted")
		}
		return nil, err
	}

	s.logger.WithFields(logrus.Fields{
		"user_id":    caller.UserID,
		"profile_id": profile.ID,
	}).Info("Profile submitted")
	return profile, nil
}

// Mine returns the caller's profile
func (s *ProfileService) Mine(ctx context.Context, caller Caller) (*models.UserProfile, error) {
	return s.ByUser(ctx, caller.UserID)
}

// ByUser returns the profile of a user
func (s *ProfileService) ByUser(ctx context.Context, userID uuid.UUID) (*models.UserProfile, error) {
	profile, err := s.profiles.GetByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if profile == nil {
		return nil, NewNotFound("Profile not found")
	}
	return profile, nil
}

// ByID returns a profile by its own id
func (s *ProfileService) ByID(ctx context.Context, id uuid.UUID) (*models.UserProfile, error) {
	profile, err := s.profiles.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if profile == nil {
		return nil, NewNotFound("Profile not found")
	}
	return profile, nil
}

// List returns every profile with its account
func (s *ProfileService) List(ctx context.Context) ([]models.ProfileWithUser, error) {
	return s.profiles.List(ctx)
}

// AdminUpdate applies an administrator's edit to the allow-listed fields
func (s *ProfileService) AdminUpdate(ctx context.Context, id uuid.UUID, update models.ProfileAdminUpdate) (*models.UserProfile, error) {
	if update.IsEmpty() {
		return nil, NewInvalidInput("No fields to update")
	}
	if update.FullName != nil {
		name := strings.TrimSpace(*update.FullName)
		if name == "" {
			return nil, NewInvalidInput("Full name cannot be empty")
		}
		update.FullName = &name
	}
	if update.Phone != nil {
		phone, err := s.phones.Validate(*update.Phone)
		if err != nil {
			return nil, NewInvalidInput("Invalid phone number")
		}
		update.Phone = &phone
	}
	if update.AadhaarNumber != nil {
		number, err := validator.NormalizeAadhaar(*update.AadhaarNumber)
		if err != nil {
			return nil, NewInvalidInput("Aadhaar number must be 12 digits")
		}
		update.AadhaarNumber = &number
	}

	profile, err := s.profiles.AdminUpdate(ctx, id, update)
	if err != nil {
		return nil, err
	}
	if profile == nil {
		return nil, NewNotFound("Profile not found")
	}
	return profile, nil
}

// Download renders a profile as PDF. id may be a user id or a profile id.
func (s *ProfileService) Download(ctx context.Context, id uuid.UUID) (*models.UserProfile, []byte, error) {
	profile, err := s.profiles.GetByUserID(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	if profile == nil {
		if profile, err = s.profiles.GetByID(ctx, id); err != nil {
			return nil, nil, err
		}
	}
	if profile == nil {
		return nil, nil, NewNotFound("Profile not found")
	}

	data, err := reports.ProfileDocument(profile)
	if err != nil {
		return nil, nil, err
	}
	return profile, data, nil
}

// UploadImage stores a single document in folder
func (s *ProfileService) UploadImage(ctx context.Context, file UploadFile, folder string) (*imagekit.UploadResult, error) {
	if folder != models.FolderAadhaarCards && folder != models.FolderProfilePhotos {
		folder = models.FolderProfilePhotos
	}
	var uploaded []string
	return s.upload(ctx, file, folder, &uploaded)
}

func (s *ProfileService) buildProfile(caller Caller, input ProfileSubmission) (*models.UserProfile, error) {
	fullName := strings.TrimSpace(input.FullName)
	if fullName == "" || strings.TrimSpace(input.Phone) == "" {
		return nil, NewInvalidInput("Full name and phone are required")
	}

	phone, err := s.phones.Validate(input.Phone)
	if err != nil {
		return nil, NewInvalidInput("Invalid phone number")
	}

	var aadhaar string
	if strings.TrimSpace(input.AadhaarNumber) != "" {
		if aadhaar, err = validator.NormalizeAadhaar(input.AadhaarNumber); err != nil {
			return nil, NewInvalidInput("Aadhaar number must be 12 digits")
		}
	}

	studentType := strings.TrimSpace(input.StudentType)
	switch studentType {
	case "", models.StudentTypeUniversity, models.StudentTypeProfessional:
	default:
		return nil, NewInvalidInput("Invalid student type")
	}

	return &models.UserProfile{
		UserID:           caller.UserID,
		Role:             caller.Role,
		FullName:         fullName,
		FatherName:       models.NewNullString(strings.TrimSpace(input.FatherName)),
		MotherName:       models.NewNullString(strings.TrimSpace(input.MotherName)),
		Phone:            phone,
		Address:          models.NewNullString(strings.TrimSpace(input.Address)),
		PermanentAddress: models.NewNullString(strings.TrimSpace(input.PermanentAddress)),
		AadhaarNumber:    models.NewNullString(aadhaar),
		StudentType:      models.NewNullString(studentType),
		UniversityName:   models.NewNullString(strings.TrimSpace(input.UniversityName)),
		CompanyName:      models.NewNullString(strings.TrimSpace(input.CompanyName)),
	}, nil
}

// resolveDocument uploads a file document or passes a hosted URL through
func (s *ProfileService) resolveDocument(ctx context.Context, doc Document, folder string, uploaded *[]string) (*imagekit.UploadResult, error) {
	if doc.File != nil {
		return s.upload(ctx, *doc.File, folder, uploaded)
	}
	return &imagekit.UploadResult{URL: strings.TrimSpace(doc.URL)}, nil
}

func (s *ProfileService) upload(ctx context.Context, file UploadFile, folder string, uploaded *[]string) (*imagekit.UploadResult, error) {
	if len(file.Data) == 0 {
		return nil, NewInvalidInput("Uploaded file is empty")
	}
	if len(file.Data) > MaxUploadSize {
		return nil, NewInvalidInput("Uploaded file is too large")
	}
	if !allowedImageExts[strings.ToLower(filepath.Ext(file.Name))] {
		return nil, NewInvalidInput("Unsupported file type")
	}

	result, err := s.images.Upload(ctx, file.Data, file.Name, folder)
	if err != nil {
		return nil, NewUpstream("Failed to upload document", err)
	}
	*uploaded = append(*uploaded, result.FileID)
	return result, nil
}

// discardUploads removes files uploaded for a submission that was not stored
func (s *ProfileService) discardUploads(fileIDs []string) {
	ctx, cancel := context.WithTimeout(context.Background(), publishTimeout)
	defer cancel()

	for _, id := range fileIDs {
		if id == "" {
			continue
		}
		if err := s.images.Delete(ctx, id); err != nil {
			s.logger.WithError(err).WithField("file_id", id).Warn("Failed to delete orphaned upload")
		}
	}
}

func (d Document) present() bool {
	return d.File != nil || strings.TrimSpace(d.URL) != ""
}
