package repository

import (
	"context"
	"errors"
	"strings"

	"gorm.io/gorm"

	"github.com/acadia-labs/academy-crm-api/internal/models"
	"github.com/acadia-labs/academy-crm-api/internal/scoring"
)

// StudentFilter narrows and paginates student listings.
type StudentFilter struct {
	Search     string
	Status     string
	LeadSource string
	MinScore   int
	Page       int
	PageSize   int
}

// StudentRepository provides tenant-scoped access to lead records. It also
// satisfies scoring.StudentStore so the scoring engine can read and persist
// scores through the same storage layer.
type StudentRepository interface {
	List(ctx context.Context, academyID uint, filter StudentFilter) ([]models.Student, int64, error)
	GetByID(ctx context.Context, id, academyID uint) (models.Student, error)
	FindByContact(ctx context.Context, academyID uint, email, phone string) (models.Student, error)
	Create(ctx context.Context, student *models.Student) error
	Update(ctx context.Context, student *models.Student) error
	Delete(ctx context.Context, id, academyID uint) error
	AggregateStats(ctx context.Context, academyID uint, hotThreshold int) (StudentStats, error)

	GetScoringContext(ctx context.Context, studentID, academyID uint) (scoring.StudentContext, error)
	SetLeadScore(ctx context.Context, studentID, academyID uint, score int) error
}

// StudentStats aggregates lead counts for the dashboard.
type StudentStats struct {
	Total            int64
	CountsByStatus   map[string]int64
	AverageLeadScore float64
	HotLeads         int64
}

type studentRepository struct {
	db *gorm.DB
}

// NewStudentRepository constructs a student repository.
func NewStudentRepository(db *gorm.DB) StudentRepository {
	return &studentRepository{db: db}
}

func (r *studentRepository) List(ctx context.Context, academyID uint, filter StudentFilter) ([]models.Student, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.Student{}).Where("academy_id = ?", academyID)

	if search := strings.TrimSpace(filter.Search); search != "" {
		pattern := "%" + strings.ToLower(search) + "%"
		query = query.Where(
			"LOWER(full_name) LIKE ? OR LOWER(email) LIKE ? OR phone LIKE ?",
			pattern, pattern, pattern,
		)
	}
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	if filter.LeadSource != "" {
		query = query.Where("lead_source = ?", filter.LeadSource)
	}
	if filter.MinScore > 0 {
		query = query.Where("lead_score >= ?", filter.MinScore)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	query = query.Order("created_at DESC")
	if filter.PageSize > 0 {
		page := filter.Page
		if page <= 0 {
			page = 1
		}
		query = query.Offset((page - 1) * filter.PageSize).Limit(filter.PageSize)
	}

	var students []models.Student
	if err := query.Find(&students).Error; err != nil {
		return nil, 0, err
	}

	return students, total, nil
}

func (r *studentRepository) GetByID(ctx context.Context, id, academyID uint) (models.Student, error) {
	var student models.Student
	err := r.db.WithContext(ctx).
		Where("id = ? AND academy_id = ?", id, academyID).
		First(&student).Error
	if err != nil {
		return models.Student{}, err
	}

	return student, nil
}

func (r *studentRepository) FindByContact(ctx context.Context, academyID uint, email, phone string) (models.Student, error) {
	query := r.db.WithContext(ctx).Where("academy_id = ?", academyID)

	switch {
	case email != "" && phone != "":
		query = query.Where("email = ? OR phone = ?", email, phone)
	case email != "":
		query = query.Where("email = ?", email)
	case phone != "":
		query = query.Where("phone = ?", phone)
	default:
		return models.Student{}, gorm.ErrRecordNotFound
	}

	var student models.Student
	if err := query.First(&student).Error; err != nil {
		return models.Student{}, err
	}

	return student, nil
}

func (r *studentRepository) Create(ctx context.Context, student *models.Student) error {
	return r.db.WithContext(ctx).Create(student).Error
}

func (r *studentRepository) Update(ctx context.Context, student *models.Student) error {
	return r.db.WithContext(ctx).Save(student).Error
}

func (r *studentRepository) Delete(ctx context.Context, id, academyID uint) error {
	result := r.db.WithContext(ctx).
		Where("id = ? AND academy_id = ?", id, academyID).
		Delete(&models.Student{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *studentRepository) AggregateStats(ctx context.Context, academyID uint, hotThreshold int) (StudentStats, error) {
	stats := StudentStats{CountsByStatus: make(map[string]int64)}

	base := r.db.WithContext(ctx).Model(&models.Student{}).Where("academy_id = ?", academyID)

	if err := base.Session(&gorm.Session{}).Count(&stats.Total).Error; err != nil {
		return StudentStats{}, err
	}

	type statusCount struct {
		Status string
		Count  int64
	}
	var byStatus []statusCount
	err := base.Session(&gorm.Session{}).
		Select("status, COUNT(*) AS count").
		Group("status").
		Scan(&byStatus).Error
	if err != nil {
		return StudentStats{}, err
	}
	for _, row := range byStatus {
		stats.CountsByStatus[row.Status] = row.Count
	}

	if stats.Total > 0 {
		err = base.Session(&gorm.Session{}).
			Select("COALESCE(AVG(lead_score), 0)").
			Scan(&stats.AverageLeadScore).Error
		if err != nil {
			return StudentStats{}, err
		}
	}

	err = base.Session(&gorm.Session{}).
		Where("lead_score >= ?", hotThreshold).
		Count(&stats.HotLeads).Error
	if err != nil {
		return StudentStats{}, err
	}

	return stats, nil
}

// GetScoringContext loads the canonical scored fields, the custom data
// mapping, and the interested course's fee in one pass for the engine.
func (r *studentRepository) GetScoringContext(ctx context.Context, studentID, academyID uint) (scoring.StudentContext, error) {
	var student models.Student
	err := r.db.WithContext(ctx).
		Where("id = ? AND academy_id = ?", studentID, academyID).
		First(&student).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return scoring.StudentContext{}, scoring.ErrStudentNotFound
		}
		return scoring.StudentContext{}, err
	}

	sc := scoring.StudentContext{
		CourseInterestedID: student.CourseInterestedID,
		LeadSource:         student.LeadSource,
		Qualification:      student.Qualification,
		WorkExperience:     student.WorkExperience,
		CustomData:         map[string]interface{}(student.CustomData),
	}

	if student.CourseInterestedID != nil {
		var course models.Course
		err := r.db.WithContext(ctx).
			Where("id = ? AND academy_id = ?", *student.CourseInterestedID, academyID).
			First(&course).Error
		if err == nil {
			sc.CourseFee = course.StandardFee
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return scoring.StudentContext{}, err
		}
	}

	return sc, nil
}

func (r *studentRepository) SetLeadScore(ctx context.Context, studentID, academyID uint, score int) error {
	result := r.db.WithContext(ctx).
		Model(&models.Student{}).
		Where("id = ? AND academy_id = ?", studentID, academyID).
		Update("lead_score", score)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return scoring.ErrStudentNotFound
	}
	return nil
}
