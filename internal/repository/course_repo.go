package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/acadia-labs/academy-crm-api/internal/models"
)

// CourseRepository provides tenant-scoped access to course records.
type CourseRepository interface {
	List(ctx context.Context, academyID uint) ([]models.Course, error)
	GetByID(ctx context.Context, id, academyID uint) (models.Course, error)
	Create(ctx context.Context, course *models.Course) error
	Update(ctx context.Context, course *models.Course) error
	Delete(ctx context.Context, id, academyID uint) error
}

type courseRepository struct {
	db *gorm.DB
}

// NewCourseRepository constructs a course repository.
func NewCourseRepository(db *gorm.DB) CourseRepository {
	return &courseRepository{db: db}
}

func (r *courseRepository) List(ctx context.Context, academyID uint) ([]models.Course, error) {
	var courses []models.Course
	err := r.db.WithContext(ctx).
		Where("academy_id = ?", academyID).
		Order("name ASC").
		Find(&courses).Error
	if err != nil {
		return nil, err
	}

	return courses, nil
}

func (r *courseRepository) GetByID(ctx context.Context, id, academyID uint) (models.Course, error) {
	var course models.Course
	err := r.db.WithContext(ctx).
		Where("id = ? AND academy_id = ?", id, academyID).
		First(&course).Error
	if err != nil {
		return models.Course{}, err
	}

	return course, nil
}

func (r *courseRepository) Create(ctx context.Context, course *models.Course) error {
	return r.db.WithContext(ctx).Create(course).Error
}

func (r *courseRepository) Update(ctx context.Context, course *models.Course) error {
	return r.db.WithContext(ctx).Save(course).Error
}

func (r *courseRepository) Delete(ctx context.Context, id, academyID uint) error {
	result := r.db.WithContext(ctx).
		Where("id = ? AND academy_id = ?", id, academyID).
		Delete(&models.Course{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
