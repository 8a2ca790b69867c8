package service

import (
	"context"
	"errors"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/acadia-labs/academy-crm-api/internal/dto"
	"github.com/acadia-labs/academy-crm-api/internal/models"
	"github.com/acadia-labs/academy-crm-api/internal/repository"
)

var (
	// ErrEnrollmentNotFound indicates the requested pipeline record does not exist.
	ErrEnrollmentNotFound = errors.New("enrollment not found")
	// ErrInvalidStageTransition indicates a pipeline move that is not allowed.
	ErrInvalidStageTransition = errors.New("invalid pipeline stage transition")
)

// stageTransitions defines the allowed pipeline moves. Terminal stages
// (enrolled, lost) cannot be left.
var stageTransitions = map[string][]string{
	models.EnrollmentStageNew:         {models.EnrollmentStageContacted, models.EnrollmentStageLost},
	models.EnrollmentStageContacted:   {models.EnrollmentStageDemo, models.EnrollmentStageNegotiation, models.EnrollmentStageLost},
	models.EnrollmentStageDemo:        {models.EnrollmentStageNegotiation, models.EnrollmentStageEnrolled, models.EnrollmentStageLost},
	models.EnrollmentStageNegotiation: {models.EnrollmentStageEnrolled, models.EnrollmentStageLost},
}

// EnrollmentService exposes sales pipeline use cases.
type EnrollmentService interface {
	List(ctx context.Context, academyID uint, filter repository.EnrollmentFilter) ([]dto.EnrollmentResponse, error)
	Create(ctx context.Context, academyID uint, payload dto.EnrollmentCreateRequest) (dto.EnrollmentResponse, error)
	Update(ctx context.Context, id, academyID uint, payload dto.EnrollmentUpdateRequest) (dto.EnrollmentResponse, error)
}

type enrollmentService struct {
	repo      repository.EnrollmentRepository
	students  repository.StudentRepository
	courses   repository.CourseRepository
	validator *validator.Validate
	logger    zerolog.Logger
}

// NewEnrollmentService builds a new enrollment service.
func NewEnrollmentService(repo repository.EnrollmentRepository, students repository.StudentRepository, courses repository.CourseRepository, validate *validator.Validate, logger zerolog.Logger) EnrollmentService {
	return &enrollmentService{
		repo:      repo,
		students:  students,
		courses:   courses,
		validator: validate,
		logger:    logger.With().Str("component", "enrollment_service").Logger(),
	}
}

func (s *enrollmentService) List(ctx context.Context, academyID uint, filter repository.EnrollmentFilter) ([]dto.EnrollmentResponse, error) {
	enrollments, err := s.repo.List(ctx, academyID, filter)
	if err != nil {
		return nil, err
	}

	return dto.NewEnrollmentResponseSlice(enrollments), nil
}

func (s *enrollmentService) Create(ctx context.Context, academyID uint, payload dto.EnrollmentCreateRequest) (dto.EnrollmentResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.EnrollmentResponse{}, err
	}

	if _, err := s.students.GetByID(ctx, payload.StudentID, academyID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.EnrollmentResponse{}, ErrStudentNotFound
		}
		return dto.EnrollmentResponse{}, err
	}
	if _, err := s.courses.GetByID(ctx, payload.CourseID, academyID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.EnrollmentResponse{}, ErrCourseNotFound
		}
		return dto.EnrollmentResponse{}, err
	}

	enrollment := models.Enrollment{
		AcademyID: academyID,
		StudentID: payload.StudentID,
		CourseID:  payload.CourseID,
		Stage:     models.EnrollmentStageNew,
		FeeQuoted: payload.FeeQuoted,
		Notes:     payload.Notes,
	}

	if err := s.repo.Create(ctx, &enrollment); err != nil {
		return dto.EnrollmentResponse{}, err
	}

	s.logger.Info().
		Uint("academy_id", academyID).
		Uint("enrollment_id", enrollment.ID).
		Uint("student_id", enrollment.StudentID).
		Msg("enrollment created")

	return dto.NewEnrollmentResponse(enrollment), nil
}

func (s *enrollmentService) Update(ctx context.Context, id, academyID uint, payload dto.EnrollmentUpdateRequest) (dto.EnrollmentResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.EnrollmentResponse{}, err
	}

	enrollment, err := s.repo.GetByID(ctx, id, academyID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.EnrollmentResponse{}, ErrEnrollmentNotFound
		}
		return dto.EnrollmentResponse{}, err
	}

	if payload.Stage != nil && *payload.Stage != enrollment.Stage {
		if !canTransition(enrollment.Stage, *payload.Stage) {
			return dto.EnrollmentResponse{}, ErrInvalidStageTransition
		}
		enrollment.Stage = *payload.Stage
	}
	if payload.FeeQuoted != nil {
		enrollment.FeeQuoted = *payload.FeeQuoted
	}
	if payload.Notes != nil {
		enrollment.Notes = *payload.Notes
	}

	if err := s.repo.Update(ctx, &enrollment); err != nil {
		return dto.EnrollmentResponse{}, err
	}

	s.logger.Info().
		Uint("academy_id", academyID).
		Uint("enrollment_id", enrollment.ID).
		Str("stage", enrollment.Stage).
		Msg("enrollment updated")

	return dto.NewEnrollmentResponse(enrollment), nil
}

func canTransition(from, to string) bool {
	for _, allowed := range stageTransitions[from] {
		if allowed == to {
			return true
		}
	}
	return false
}
