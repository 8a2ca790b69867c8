package models

import "time"

// Course is a training programme offered by an academy. The scorer reads
// StandardFee to decide whether the high-value course bonus applies.
type Course struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	AcademyID   uint      `gorm:"not null;index" json:"academy_id"`
	Name        string    `gorm:"size:255;not null" json:"name"`
	Description string    `gorm:"type:text" json:"description"`
	StandardFee float64   `gorm:"not null;default:0" json:"standard_fee"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}
