package dto

import (
	"time"

	"github.com/acadia-labs/academy-crm-api/internal/models"
)

// CourseCreateRequest carries the payload for course creation.
type CourseCreateRequest struct {
	Name        string  `json:"name" validate:"required,max=255"`
	Description string  `json:"description"`
	StandardFee float64 `json:"standard_fee" validate:"gte=0"`
}

// CourseUpdateRequest carries a partial course update.
type CourseUpdateRequest struct {
	Name        *string  `json:"name" validate:"omitempty,max=255"`
	Description *string  `json:"description"`
	StandardFee *float64 `json:"standard_fee" validate:"omitempty,gte=0"`
}

// CourseResponse is the API representation of a course.
type CourseResponse struct {
	ID          uint      `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	StandardFee float64   `json:"standard_fee"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// NewCourseResponse maps a course model to its API representation.
func NewCourseResponse(course models.Course) CourseResponse {
	return CourseResponse{
		ID:          course.ID,
		Name:        course.Name,
		Description: course.Description,
		StandardFee: course.StandardFee,
		CreatedAt:   course.CreatedAt,
		UpdatedAt:   course.UpdatedAt,
	}
}

// NewCourseResponseSlice maps a slice of course models.
func NewCourseResponseSlice(courses []models.Course) []CourseResponse {
	responses := make([]CourseResponse, 0, len(courses))
	for _, course := range courses {
		responses = append(responses, NewCourseResponse(course))
	}
	return responses
}
