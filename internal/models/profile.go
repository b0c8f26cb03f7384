package models

import (
	"time"

	"github.com/google/uuid"
)

// Student types
const (
	StudentTypeUniversity   = "university_student"
	StudentTypeProfessional = "working_professional"
)

// Profile image folders on the image host
const (
	FolderProfilePhotos = "profile-photos"
	FolderAadhaarCards  = "aadhaar-cards"
)

// UserProfile holds the identity documents a resident submits once
type UserProfile struct {
	ID               uuid.UUID  `json:"id" db:"id"`
	UserID           uuid.UUID  `json:"userId" db:"user_id"`
	Role             string     `json:"role" db:"role"`
	FullName         string     `json:"fullName" db:"full_name"`
	FatherName       NullString `json:"fatherName" db:"father_name"`
	MotherName       NullString `json:"motherName" db:"mother_name"`
	Phone            string     `json:"phone" db:"phone"`
	Address          NullString `json:"address" db:"address"`
	PermanentAddress NullString `json:"permanentAddress" db:"permanent_address"`
	AadhaarNumber    NullString `json:"aadhaarNumber" db:"aadhaar_number"`
	AadhaarPhoto     string     `json:"aadhaarPhoto" db:"aadhaar_photo"`
	AadhaarFileID    NullString `json:"aadhaarFileId" db:"aadhaar_file_id"`
	ProfilePhoto     string     `json:"profilePhoto" db:"profile_photo"`
	ProfileFileID    NullString `json:"profileFileId" db:"profile_file_id"`
	StudentType      NullString `json:"studentType" db:"student_type"`
	UniversityName   NullString `json:"universityName" db:"university_name"`
	CompanyName      NullString `json:"companyName" db:"company_name"`
	Submitted        bool       `json:"submitted" db:"submitted"`
	CreatedAt        time.Time  `json:"createdAt" db:"created_at"`
	UpdatedAt        time.Time  `json:"updatedAt" db:"updated_at"`
}

// ProfileWithUser is a profile joined with its account
type ProfileWithUser struct {
	UserProfile
	UserName  string `json:"userName" db:"user_name"`
	UserEmail string `json:"userEmail" db:"user_email"`
}

// ProfileAdminUpdate lists the fields an administrator may edit.
// Nil pointers are left unchanged.
type ProfileAdminUpdate struct {
	FullName      *string `json:"fullName"`
	FatherName    *string `json:"fatherName"`
	MotherName    *string `json:"motherName"`
	Phone         *string `json:"phone"`
	Address       *string `json:"address"`
	AadhaarNumber *string `json:"aadhaarNumber"`
}

// IsEmpty reports whether no field is set
func (u ProfileAdminUpdate) IsEmpty() bool {
	return u.FullName == nil && u.FatherName == nil && u.MotherName == nil &&
		u.Phone == nil && u.Address == nil && u.AadhaarNumber == nil
}
