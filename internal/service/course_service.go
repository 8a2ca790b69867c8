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

// CourseService exposes course catalogue use cases.
type CourseService interface {
	List(ctx context.Context, academyID uint) ([]dto.CourseResponse, error)
	Get(ctx context.Context, id, academyID uint) (dto.CourseResponse, error)
	Create(ctx context.Context, academyID uint, payload dto.CourseCreateRequest) (dto.CourseResponse, error)
	Update(ctx context.Context, id, academyID uint, payload dto.CourseUpdateRequest) (dto.CourseResponse, error)
	Delete(ctx context.Context, id, academyID uint) error
}

type courseService struct {
	repo      repository.CourseRepository
	validator *validator.Validate
	logger    zerolog.Logger
}

// NewCourseService builds a new course service.
func NewCourseService(repo repository.CourseRepository, validate *validator.Validate, logger zerolog.Logger) CourseService {
	return &courseService{
		repo:      repo,
		validator: validate,
		logger:    logger.With().Str("component", "course_service").Logger(),
	}
}

func (s *courseService) List(ctx context.Context, academyID uint) ([]dto.CourseResponse, error) {
	courses, err := s.repo.List(ctx, academyID)
	if err != nil {
		return nil, err
	}

	return dto.NewCourseResponseSlice(courses), nil
}

func (s *courseService) Get(ctx context.Context, id, academyID uint) (dto.CourseResponse, error) {
	course, err := s.repo.GetByID(ctx, id, academyID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.CourseResponse{}, ErrCourseNotFound
		}
		return dto.CourseResponse{}, err
	}

	return dto.NewCourseResponse(course), nil
}

func (s *courseService) Create(ctx context.Context, academyID uint, payload dto.CourseCreateRequest) (dto.CourseResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.CourseResponse{}, err
	}

	course := models.Course{
		AcademyID:   academyID,
		Name:        payload.Name,
		Description: payload.Description,
		StandardFee: payload.StandardFee,
	}

	if err := s.repo.Create(ctx, &course); err != nil {
		return dto.CourseResponse{}, err
	}

	s.logger.Info().Uint("academy_id", academyID).Uint("course_id", course.ID).Msg("course created")

	return dto.NewCourseResponse(course), nil
}

func (s *courseService) Update(ctx context.Context, id, academyID uint, payload dto.CourseUpdateRequest) (dto.CourseResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.CourseResponse{}, err
	}

	course, err := s.repo.GetByID(ctx, id, academyID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.CourseResponse{}, ErrCourseNotFound
		}
		return dto.CourseResponse{}, err
	}

	if payload.Name != nil {
		course.Name = *payload.Name
	}
	if payload.Description != nil {
		course.Description = *payload.Description
	}
	if payload.StandardFee != nil {
		course.StandardFee = *payload.StandardFee
	}

	if err := s.repo.Update(ctx, &course); err != nil {
		return dto.CourseResponse{}, err
	}

	s.logger.Info().Uint("academy_id", academyID).Uint("course_id", course.ID).Msg("course updated")

	return dto.NewCourseResponse(course), nil
}

func (s *courseService) Delete(ctx context.Context, id, academyID uint) error {
	if err := s.repo.Delete(ctx, id, academyID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrCourseNotFound
		}
		return err
	}

	s.logger.Info().Uint("academy_id", academyID).Uint("course_id", id).Msg("course deleted")
	return nil
}
