package models

import (
	"time"

	"gorm.io/datatypes"
)

// StudentStatus enumerates the lifecycle states of a lead.
const (
	StudentStatusInquiry = "inquiry"
	StudentStatusActive  = "active_student"
	StudentStatusAlumni  = "alumni"
)

// Student represents a lead tracked by an academy. Contact uniqueness per
// academy is enforced at the service layer (empty contacts are common), and
// LeadScore is a derived value recomputed whenever a scored field changes.
type Student struct {
	ID                 uint              `gorm:"primaryKey" json:"id"`
	AcademyID          uint              `gorm:"not null;index" json:"academy_id"`
	FullName           string            `gorm:"size:255;not null" json:"full_name"`
	Email              string            `gorm:"size:255;index:idx_students_academy_email" json:"email"`
	Phone              string            `gorm:"size:32;index:idx_students_academy_phone" json:"phone"`
	Status             string            `gorm:"size:32;not null;default:inquiry" json:"status"`
	LeadSource         string            `gorm:"size:128" json:"lead_source"`
	Qualification      string            `gorm:"size:128" json:"qualification"`
	WorkExperience     string            `gorm:"size:128" json:"work_experience"`
	CourseInterestedID *uint             `gorm:"index" json:"course_interested_id"`
	CustomData         datatypes.JSONMap `gorm:"type:json" json:"custom_data"`
	LeadScore          int               `gorm:"not null;default:0" json:"lead_score"`
	CreatedAt          time.Time         `json:"created_at"`
	UpdatedAt          time.Time         `json:"updated_at"`

	CourseInterested *Course `gorm:"foreignKey:CourseInterestedID" json:"course_interested,omitempty"`
}

// IsValidStudentStatus reports whether the value is a known lifecycle state.
func IsValidStudentStatus(status string) bool {
	switch status {
	case StudentStatusInquiry, StudentStatusActive, StudentStatusAlumni:
		return true
	default:
		return false
	}
}
