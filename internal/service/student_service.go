package service

import (
	"context"
	"errors"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/microcosm-cc/bluemonday"
	"github.com/rs/zerolog"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/acadia-labs/academy-crm-api/internal/dto"
	"github.com/acadia-labs/academy-crm-api/internal/models"
	"github.com/acadia-labs/academy-crm-api/internal/repository"
	"github.com/acadia-labs/academy-crm-api/internal/scoring"
)

var (
	// ErrStudentNotFound indicates the requested lead does not exist.
	ErrStudentNotFound = errors.New("student not found")
	// ErrDuplicateContact indicates another lead already owns the email or phone.
	ErrDuplicateContact = errors.New("a student with this email or phone already exists")
	// ErrCourseNotFound indicates the referenced course does not exist.
	ErrCourseNotFound = errors.New("course not found")
	// ErrInvalidStatus indicates an unknown lifecycle status.
	ErrInvalidStatus = errors.New("invalid student status")
)

// LeadScorer computes and persists a lead score for one student.
type LeadScorer interface {
	Compute(ctx context.Context, studentID, academyID uint, overrides map[string]string) (int, error)
}

// StudentService exposes lead management use cases. Create and Update
// recompute the lead score synchronously before returning, passing the
// incoming values as overrides so the score reflects the triggering write.
type StudentService interface {
	List(ctx context.Context, academyID uint, filter repository.StudentFilter) (dto.StudentListResponse, error)
	Get(ctx context.Context, id, academyID uint) (dto.StudentResponse, error)
	Create(ctx context.Context, academyID uint, payload dto.StudentCreateRequest) (dto.StudentResponse, error)
	Update(ctx context.Context, id, academyID uint, payload dto.StudentUpdateRequest) (dto.StudentResponse, error)
	Delete(ctx context.Context, id, academyID uint) error
	Rescore(ctx context.Context, id, academyID uint) (dto.StudentResponse, error)
}

type studentService struct {
	repo      repository.StudentRepository
	courses   repository.CourseRepository
	scorer    LeadScorer
	validator *validator.Validate
	sanitizer *bluemonday.Policy
	logger    zerolog.Logger
}

// NewStudentService builds a new student service.
func NewStudentService(repo repository.StudentRepository, courses repository.CourseRepository, scorer LeadScorer, validate *validator.Validate, logger zerolog.Logger) StudentService {
	return &studentService{
		repo:      repo,
		courses:   courses,
		scorer:    scorer,
		validator: validate,
		sanitizer: bluemonday.StrictPolicy(),
		logger:    logger.With().Str("component", "student_service").Logger(),
	}
}

func (s *studentService) List(ctx context.Context, academyID uint, filter repository.StudentFilter) (dto.StudentListResponse, error) {
	students, total, err := s.repo.List(ctx, academyID, filter)
	if err != nil {
		return dto.StudentListResponse{}, err
	}

	page := filter.Page
	if page <= 0 {
		page = 1
	}

	return dto.StudentListResponse{
		Students: dto.NewStudentResponseSlice(students),
		Total:    total,
		Page:     page,
		PageSize: filter.PageSize,
	}, nil
}

func (s *studentService) Get(ctx context.Context, id, academyID uint) (dto.StudentResponse, error) {
	student, err := s.repo.GetByID(ctx, id, academyID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.StudentResponse{}, ErrStudentNotFound
		}
		return dto.StudentResponse{}, err
	}

	return dto.NewStudentResponse(student), nil
}

func (s *studentService) Create(ctx context.Context, academyID uint, payload dto.StudentCreateRequest) (dto.StudentResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.StudentResponse{}, err
	}

	status := payload.Status
	if status == "" {
		status = models.StudentStatusInquiry
	}
	if !models.IsValidStudentStatus(status) {
		return dto.StudentResponse{}, ErrInvalidStatus
	}

	if payload.CourseInterestedID != nil {
		if _, err := s.courses.GetByID(ctx, *payload.CourseInterestedID, academyID); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return dto.StudentResponse{}, ErrCourseNotFound
			}
			return dto.StudentResponse{}, err
		}
	}

	email := strings.ToLower(strings.TrimSpace(payload.Email))
	phone := strings.TrimSpace(payload.Phone)
	if email != "" || phone != "" {
		if _, err := s.repo.FindByContact(ctx, academyID, email, phone); err == nil {
			return dto.StudentResponse{}, ErrDuplicateContact
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.StudentResponse{}, err
		}
	}

	student := models.Student{
		AcademyID:          academyID,
		FullName:           s.clean(payload.FullName),
		Email:              email,
		Phone:              phone,
		Status:             status,
		LeadSource:         s.clean(payload.LeadSource),
		Qualification:      s.clean(payload.Qualification),
		WorkExperience:     s.clean(payload.WorkExperience),
		CourseInterestedID: payload.CourseInterestedID,
		CustomData:         s.cleanCustomData(payload.CustomData),
	}

	if err := s.repo.Create(ctx, &student); err != nil {
		return dto.StudentResponse{}, err
	}

	score, err := s.scorer.Compute(ctx, student.ID, academyID, canonicalOverrides(student))
	if err != nil {
		s.logger.Warn().Err(err).Uint("student_id", student.ID).Msg("scoring after create failed")
	} else {
		student.LeadScore = score
	}

	s.logger.Info().
		Uint("academy_id", academyID).
		Uint("student_id", student.ID).
		Int("lead_score", student.LeadScore).
		Msg("student created")

	return dto.NewStudentResponse(student), nil
}

func (s *studentService) Update(ctx context.Context, id, academyID uint, payload dto.StudentUpdateRequest) (dto.StudentResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.StudentResponse{}, err
	}

	student, err := s.repo.GetByID(ctx, id, academyID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.StudentResponse{}, ErrStudentNotFound
		}
		return dto.StudentResponse{}, err
	}

	scoredFieldChanged := false

	if payload.FullName != nil {
		student.FullName = s.clean(*payload.FullName)
	}
	if payload.Email != nil {
		student.Email = strings.ToLower(strings.TrimSpace(*payload.Email))
	}
	if payload.Phone != nil {
		student.Phone = strings.TrimSpace(*payload.Phone)
	}
	if payload.Status != nil {
		if !models.IsValidStudentStatus(*payload.Status) {
			return dto.StudentResponse{}, ErrInvalidStatus
		}
		student.Status = *payload.Status
	}
	if payload.LeadSource != nil {
		student.LeadSource = s.clean(*payload.LeadSource)
		scoredFieldChanged = true
	}
	if payload.Qualification != nil {
		student.Qualification = s.clean(*payload.Qualification)
		scoredFieldChanged = true
	}
	if payload.WorkExperience != nil {
		student.WorkExperience = s.clean(*payload.WorkExperience)
		scoredFieldChanged = true
	}
	if payload.CourseInterestedID != nil {
		if _, err := s.courses.GetByID(ctx, *payload.CourseInterestedID, academyID); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return dto.StudentResponse{}, ErrCourseNotFound
			}
			return dto.StudentResponse{}, err
		}
		student.CourseInterestedID = payload.CourseInterestedID
		scoredFieldChanged = true
	}
	if payload.CustomData != nil {
		student.CustomData = s.cleanCustomData(payload.CustomData)
		scoredFieldChanged = true
	}

	if err := s.repo.Update(ctx, &student); err != nil {
		return dto.StudentResponse{}, err
	}

	if scoredFieldChanged {
		score, err := s.scorer.Compute(ctx, student.ID, academyID, canonicalOverrides(student))
		if err != nil {
			s.logger.Warn().Err(err).Uint("student_id", student.ID).Msg("scoring after update failed")
		} else {
			student.LeadScore = score
		}
	}

	s.logger.Info().
		Uint("academy_id", academyID).
		Uint("student_id", student.ID).
		Msg("student updated")

	return dto.NewStudentResponse(student), nil
}

func (s *studentService) Delete(ctx context.Context, id, academyID uint) error {
	if err := s.repo.Delete(ctx, id, academyID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrStudentNotFound
		}
		return err
	}

	s.logger.Info().Uint("academy_id", academyID).Uint("student_id", id).Msg("student deleted")
	return nil
}

// Rescore recomputes a student's lead score from persisted state. Exposed
// because configuration changes do not rescore existing leads automatically.
func (s *studentService) Rescore(ctx context.Context, id, academyID uint) (dto.StudentResponse, error) {
	score, err := s.scorer.Compute(ctx, id, academyID, nil)
	if err != nil {
		if errors.Is(err, scoring.ErrStudentNotFound) {
			return dto.StudentResponse{}, ErrStudentNotFound
		}
		return dto.StudentResponse{}, err
	}

	student, err := s.repo.GetByID(ctx, id, academyID)
	if err != nil {
		return dto.StudentResponse{}, err
	}
	student.LeadScore = score

	return dto.NewStudentResponse(student), nil
}

func (s *studentService) clean(value string) string {
	return strings.TrimSpace(s.sanitizer.Sanitize(value))
}

func (s *studentService) cleanCustomData(data map[string]interface{}) datatypes.JSONMap {
	if data == nil {
		return datatypes.JSONMap{}
	}

	cleaned := make(datatypes.JSONMap, len(data))
	for key, value := range data {
		key = strings.TrimSpace(key)
		if key == "" {
			continue
		}
		if text, ok := value.(string); ok {
			cleaned[key] = s.clean(text)
			continue
		}
		cleaned[key] = value
	}
	return cleaned
}

// canonicalOverrides passes the just-written canonical values to the scorer
// so the computed score reflects this request even under racing writes.
func canonicalOverrides(student models.Student) map[string]string {
	overrides := map[string]string{
		models.FieldKeyLeadSource:     student.LeadSource,
		models.FieldKeyQualification:  student.Qualification,
		models.FieldKeyWorkExperience: student.WorkExperience,
	}
	if student.CourseInterestedID != nil {
		overrides[models.FieldKeyCourseInterested] = strconv.FormatUint(uint64(*student.CourseInterestedID), 10)
	} else {
		overrides[models.FieldKeyCourseInterested] = ""
	}
	return overrides
}
