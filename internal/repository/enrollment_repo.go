package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/acadia-labs/academy-crm-api/internal/models"
)

// EnrollmentFilter narrows enrollment listings.
type EnrollmentFilter struct {
	StudentID uint
	Stage     string
}

// EnrollmentRepository provides tenant-scoped access to pipeline records.
type EnrollmentRepository interface {
	List(ctx context.Context, academyID uint, filter EnrollmentFilter) ([]models.Enrollment, error)
	GetByID(ctx context.Context, id, academyID uint) (models.Enrollment, error)
	Create(ctx context.Context, enrollment *models.Enrollment) error
	Update(ctx context.Context, enrollment *models.Enrollment) error
	CountsByStage(ctx context.Context, academyID uint) (map[string]int64, error)
}

type enrollmentRepository struct {
	db *gorm.DB
}

// NewEnrollmentRepository constructs an enrollment repository.
func NewEnrollmentRepository(db *gorm.DB) EnrollmentRepository {
	return &enrollmentRepository{db: db}
}

func (r *enrollmentRepository) List(ctx context.Context, academyID uint, filter EnrollmentFilter) ([]models.Enrollment, error) {
	query := r.db.WithContext(ctx).Where("academy_id = ?", academyID)

	if filter.StudentID != 0 {
		query = query.Where("student_id = ?", filter.StudentID)
	}
	if filter.Stage != "" {
		query = query.Where("stage = ?", filter.Stage)
	}

	var enrollments []models.Enrollment
	if err := query.Order("updated_at DESC").Find(&enrollments).Error; err != nil {
		return nil, err
	}

	return enrollments, nil
}

func (r *enrollmentRepository) GetByID(ctx context.Context, id, academyID uint) (models.Enrollment, error) {
	var enrollment models.Enrollment
	err := r.db.WithContext(ctx).
		Where("id = ? AND academy_id = ?", id, academyID).
		First(&enrollment).Error
	if err != nil {
		return models.Enrollment{}, err
	}

	return enrollment, nil
}

func (r *enrollmentRepository) Create(ctx context.Context, enrollment *models.Enrollment) error {
	return r.db.WithContext(ctx).Create(enrollment).Error
}

func (r *enrollmentRepository) Update(ctx context.Context, enrollment *models.Enrollment) error {
	return r.db.WithContext(ctx).Save(enrollment).Error
}

func (r *enrollmentRepository) CountsByStage(ctx context.Context, academyID uint) (map[string]int64, error) {
	type stageCount struct {
		Stage string
		Count int64
	}

	var rows []stageCount
	err := r.db.WithContext(ctx).
		Model(&models.Enrollment{}).
		Where("academy_id = ?", academyID).
		Select("stage, COUNT(*) AS count").
		Group("stage").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	counts := make(map[string]int64, len(rows))
	for _, row := range rows {
		counts[row.Stage] = row.Count
	}

	return counts, nil
}
