package dto

import (
	"time"

	"github.com/acadia-labs/academy-crm-api/internal/models"
)

// EnrollmentCreateRequest opens a pipeline record for a student and course.
type EnrollmentCreateRequest struct {
	StudentID uint    `json:"student_id" validate:"required"`
	CourseID  uint    `json:"course_id" validate:"required"`
	FeeQuoted float64 `json:"fee_quoted" validate:"gte=0"`
	Notes     string  `json:"notes"`
}

// EnrollmentUpdateRequest advances or annotates a pipeline record.
type EnrollmentUpdateRequest struct {
	Stage     *string  `json:"stage" validate:"omitempty,oneof=new contacted demo negotiation enrolled lost"`
	FeeQuoted *float64 `json:"fee_quoted" validate:"omitempty,gte=0"`
	Notes     *string  `json:"notes"`
}

// EnrollmentResponse is the API representation of a pipeline record.
type EnrollmentResponse struct {
	ID        uint      `json:"id"`
	StudentID uint      `json:"student_id"`
	CourseID  uint      `json:"course_id"`
	Stage     string    `json:"stage"`
	FeeQuoted float64   `json:"fee_quoted"`
	Notes     string    `json:"notes"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NewEnrollmentResponse maps an enrollment model to its API representation.
func NewEnrollmentResponse(enrollment models.Enrollment) EnrollmentResponse {
	return EnrollmentResponse{
		ID:        enrollment.ID,
		StudentID: enrollment.StudentID,
		CourseID:  enrollment.CourseID,
		Stage:     enrollment.Stage,
		FeeQuoted: enrollment.FeeQuoted,
		Notes:     enrollment.Notes,
		CreatedAt: enrollment.CreatedAt,
		UpdatedAt: enrollment.UpdatedAt,
	}
}

// NewEnrollmentResponseSlice maps a slice of enrollment models.
func NewEnrollmentResponseSlice(enrollments []models.Enrollment) []EnrollmentResponse {
	responses := make([]EnrollmentResponse, 0, len(enrollments))
	for _, enrollment := range enrollments {
		responses = append(responses, NewEnrollmentResponse(enrollment))
	}
	return responses
}
