package models

import "time"

// EnrollmentStage enumerates the sales pipeline stages.
const (
	EnrollmentStageNew         = "new"
	EnrollmentStageContacted   = "contacted"
	EnrollmentStageDemo        = "demo"
	EnrollmentStageNegotiation = "negotiation"
	EnrollmentStageEnrolled    = "enrolled"
	EnrollmentStageLost        = "lost"
)

// Enrollment tracks a student's progress through the sales pipeline for a
// specific course.
type Enrollment struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	AcademyID uint      `gorm:"not null;index" json:"academy_id"`
	StudentID uint      `gorm:"not null;index" json:"student_id"`
	CourseID  uint      `gorm:"not null;index" json:"course_id"`
	Stage     string    `gorm:"size:32;not null;default:new" json:"stage"`
	FeeQuoted float64   `gorm:"not null;default:0" json:"fee_quoted"`
	Notes     string    `gorm:"type:text" json:"notes"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Student *Student `gorm:"foreignKey:StudentID" json:"student,omitempty"`
	Course  *Course  `gorm:"foreignKey:CourseID" json:"course,omitempty"`
}

// IsValidEnrollmentStage reports whether the value is a known pipeline stage.
func IsValidEnrollmentStage(stage string) bool {
	switch stage {
	case EnrollmentStageNew, EnrollmentStageContacted, EnrollmentStageDemo,
		EnrollmentStageNegotiation, EnrollmentStageEnrolled, EnrollmentStageLost:
		return true
	default:
		return false
	}
}
