package handlers

import (
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/hostelite/hostel-backend/internal/models"
	"github.com/hostelite/hostel-backend/internal/reports"
	"github.com/hostelite/hostel-backend/internal/services"
	"github.com/sirupsen/logrus"
)

// ProfileHandler handles profile and document upload requests
type ProfileHandler struct {
	profileService *services.ProfileService
	logger         *logrus.Logger
}

// NewProfileHandler creates a new profile handler
func NewProfileHandler(profileService *services.ProfileService, logger *logrus.Logger) *ProfileHandler {
	return &ProfileHandler{
		profileService: profileService,
		logger:         logger,
	}
}

// Submit handles POST /api/profile/submit. Documents arrive either as
// multipart files or as URLs of files uploaded earlier.
func (h *ProfileHandler) Submit(c *gin.Context) {
	aadhaar, err := h.formDocument(c, "aadhaarPhoto")
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	photo, err := h.formDocument(c, "profilePhoto")
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	profile, err := h.profileService.Submit(c.Request.Context(), callerFrom(c), services.ProfileSubmission{
		FullName:         c.PostForm("fullName"),
		FatherName:       c.PostForm("fatherName"),
		MotherName:       c.PostForm("motherName"),
		Phone:            c.PostForm("phone"),
		Address:          c.PostForm("address"),
		PermanentAddress: c.PostForm("permanentAddress"),
		AadhaarNumber:    c.PostForm("aadhaarNumber"),
		StudentType:      c.PostForm("studentType"),
		UniversityName:   c.PostForm("universityName"),
		CompanyName:      c.PostForm("companyName"),
		AadhaarPhoto:     aadhaar,
		ProfilePhoto:     photo,
	})
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message": "Profile submitted successfully",
		"profile": profile,
	})
}

// Mine handles GET /api/profile/me
func (h *ProfileHandler) Mine(c *gin.Context) {
	profile, err := h.profileService.Mine(c.Request.Context(), callerFrom(c))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, profile)
}

// List handles GET /api/profile/all
func (h *ProfileHandler) List(c *gin.Context) {
	profiles, err := h.profileService.List(c.Request.Context())
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, profiles)
}

// ByUser handles GET /api/profile/user/:userId
func (h *ProfileHandler) ByUser(c *gin.Context) {
	userID, ok := uuidParam(c, "userId")
	if !ok {
		return
	}

	profile, err := h.profileService.ByUser(c.Request.Context(), userID)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, profile)
}

// ByID handles GET /api/profile/:id
func (h *ProfileHandler) ByID(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}

	profile, err := h.profileService.ByID(c.Request.Context(), id)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, profile)
}

// Update handles PUT /api/profile/:id
func (h *ProfileHandler) Update(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}

	var req models.ProfileAdminUpdate
	if err := c.ShouldBindJSON(&req); err != nil {
		respondInvalidBody(c)
		return
	}

	profile, err := h.profileService.AdminUpdate(c.Request.Context(), id, req)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, profile)
}

// Download handles GET /api/profile/download/:id
func (h *ProfileHandler) Download(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}

	profile, data, err := h.profileService.Download(c.Request.Context(), id)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.Header("Content-Disposition", `attachment; filename="profile_`+profile.UserID.String()+`.pdf"`)
	c.Data(http.StatusOK, reports.PDFContentType, data)
}

// UploadImage handles POST /api/imagekit/upload
func (h *ProfileHandler) UploadImage(c *gin.Context) {
	file, err := readFormFile(c, "file")
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	if file == nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "validation_error",
			Message: "No file uploaded",
		})
		return
	}

	result, err := h.profileService.UploadImage(c.Request.Context(), *file, c.PostForm("folder"))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"url":    result.URL,
		"fileId": result.FileID,
	})
}

// formDocument prefers an uploaded file over a URL form value of the same name
func (h *ProfileHandler) formDocument(c *gin.Context, field string) (services.Document, error) {
	file, err := readFormFile(c, field)
	if err != nil {
		return services.Document{}, err
	}
	if file != nil {
		return services.Document{File: file}, nil
	}
	return services.Document{URL: c.PostForm(field)}, nil
}

// readFormFile returns nil when the request has no file under field
func readFormFile(c *gin.Context, field string) (*services.UploadFile, error) {
	header, err := c.FormFile(field)
	if err != nil {
		if err == http.ErrMissingFile || err == http.ErrNotMultipart {
			return nil, nil
		}
		return nil, services.NewInvalidInput("Invalid file upload")
	}
	if header.Size > services.MaxUploadSize {
		return nil, services.NewInvalidInput("Uploaded file is too large")
	}

	f, err := header.Open()
	if err != nil {
		return nil, services.NewInvalidInput("Invalid file upload")
	}
	defer f.Close()

	data, err := io.ReadAll(io.LimitReader(f, services.MaxUploadSize+1))
	if err != nil {
		return nil, services.NewInvalidInput("Invalid file upload")
	}
	return &services.UploadFile{Name: header.Filename, Data: data}, nil
}
