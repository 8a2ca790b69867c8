package models

import (
	"time"

	"gorm.io/datatypes"
)

// Canonical field keys that are scored by default for every academy.
const (
	FieldKeyCourseInterested = "course_interested_id"
	FieldKeyLeadSource       = "lead_source"
	FieldKeyQualification    = "qualification"
	FieldKeyWorkExperience   = "work_experience"
)

// CanonicalFieldKeys lists the built-in student fields that participate in
// lead scoring unless an academy explicitly disables them.
func CanonicalFieldKeys() []string {
	return []string{
		FieldKeyCourseInterested,
		FieldKeyLeadSource,
		FieldKeyQualification,
		FieldKeyWorkExperience,
	}
}

// CustomFieldConfig describes an admin-defined student field and, when
// IsScoreField is set, the rules used to score it. Values for these fields
// live in Student.CustomData keyed by FieldKey.
type CustomFieldConfig struct {
	ID           uint           `gorm:"primaryKey" json:"id"`
	AcademyID    uint           `gorm:"not null;index;uniqueIndex:idx_custom_field_academy_key" json:"academy_id"`
	FieldKey     string         `gorm:"size:128;not null;uniqueIndex:idx_custom_field_academy_key" json:"field_key"`
	Label        string         `gorm:"size:255" json:"label"`
	FieldType    string         `gorm:"size:32;default:text" json:"field_type"`
	IsScoreField bool           `gorm:"not null;default:false" json:"is_score_field"`
	ScoringRules datatypes.JSON `gorm:"type:json" json:"scoring_rules"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
}

// SystemFieldConfig overrides the scoring behaviour of a built-in student
// field for one academy. The shape mirrors CustomFieldConfig so the two
// merge into a single logical configuration keyed by FieldKey.
type SystemFieldConfig struct {
	ID           uint           `gorm:"primaryKey" json:"id"`
	AcademyID    uint           `gorm:"not null;index;uniqueIndex:idx_system_field_academy_key" json:"academy_id"`
	FieldKey     string         `gorm:"size:128;not null;uniqueIndex:idx_system_field_academy_key" json:"field_key"`
	Label        string         `gorm:"size:255" json:"label"`
	IsScoreField bool           `gorm:"not null" json:"is_score_field"`
	ScoringRules datatypes.JSON `gorm:"type:json" json:"scoring_rules"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
}
