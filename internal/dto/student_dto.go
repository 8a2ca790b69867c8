package dto

import (
	"time"

	"github.com/acadia-labs/academy-crm-api/internal/models"
)

// StudentCreateRequest carries the payload for manual lead creation.
type StudentCreateRequest struct {
	FullName           string                 `json:"full_name" validate:"required,max=255"`
	Email              string                 `json:"email" validate:"omitempty,email"`
	Phone              string                 `json:"phone" validate:"omitempty,max=32"`
	Status             string                 `json:"status" validate:"omitempty,oneof=inquiry active_student alumni"`
	LeadSource         string                 `json:"lead_source" validate:"omitempty,max=128"`
	Qualification      string                 `json:"qualification" validate:"omitempty,max=128"`
	WorkExperience     string                 `json:"work_experience" validate:"omitempty,max=128"`
	CourseInterestedID *uint                  `json:"course_interested_id"`
	CustomData         map[string]interface{} `json:"custom_data"`
}

// StudentUpdateRequest carries a partial lead update; nil fields are left
// untouched.
type StudentUpdateRequest struct {
	FullName           *string                `json:"full_name" validate:"omitempty,max=255"`
	Email              *string                `json:"email" validate:"omitempty,email"`
	Phone              *string                `json:"phone" validate:"omitempty,max=32"`
	Status             *string                `json:"status" validate:"omitempty,oneof=inquiry active_student alumni"`
	LeadSource         *string                `json:"lead_source" validate:"omitempty,max=128"`
	Qualification      *string                `json:"qualification" validate:"omitempty,max=128"`
	WorkExperience     *string                `json:"work_experience" validate:"omitempty,max=128"`
	CourseInterestedID *uint                  `json:"course_interested_id"`
	CustomData         map[string]interface{} `json:"custom_data"`
}

// StudentResponse is the API representation of a lead.
type StudentResponse struct {
	ID                 uint                   `json:"id"`
	FullName           string                 `json:"full_name"`
	Email              string                 `json:"email"`
	Phone              string                 `json:"phone"`
	Status             string                 `json:"status"`
	LeadSource         string                 `json:"lead_source"`
	Qualification      string                 `json:"qualification"`
	WorkExperience     string                 `json:"work_experience"`
	CourseInterestedID *uint                  `json:"course_interested_id"`
	CustomData         map[string]interface{} `json:"custom_data"`
	LeadScore          int                    `json:"lead_score"`
	CreatedAt          time.Time              `json:"created_at"`
	UpdatedAt          time.Time              `json:"updated_at"`
}

// StudentListResponse wraps a student page with pagination metadata.
type StudentListResponse struct {
	Students []StudentResponse `json:"students"`
	Total    int64             `json:"total"`
	Page     int               `json:"page"`
	PageSize int               `json:"page_size"`
}

// NewStudentResponse maps a student model to its API representation.
func NewStudentResponse(student models.Student) StudentResponse {
	return StudentResponse{
		ID:                 student.ID,
		FullName:           student.FullName,
		Email:              student.Email,
		Phone:              student.Phone,
		Status:             student.Status,
		LeadSource:         student.LeadSource,
		Qualification:      student.Qualification,
		WorkExperience:     student.WorkExperience,
		CourseInterestedID: student.CourseInterestedID,
		CustomData:         student.CustomData,
		LeadScore:          student.LeadScore,
		CreatedAt:          student.CreatedAt,
		UpdatedAt:          student.UpdatedAt,
	}
}

// NewStudentResponseSlice maps a slice of student models.
func NewStudentResponseSlice(students []models.Student) []StudentResponse {
	responses := make([]StudentResponse, 0, len(students))
	for _, student := range students {
		responses = append(responses, NewStudentResponse(student))
	}
	return responses
}
