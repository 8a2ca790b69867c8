package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/acadia-labs/academy-crm-api/internal/dto"
	"github.com/acadia-labs/academy-crm-api/internal/repository"
)

// hotLeadThreshold is the minimum lead score counted as a hot lead.
const hotLeadThreshold = 75

// DashboardService produces aggregated pipeline metrics per academy.
type DashboardService interface {
	GetDashboard(ctx context.Context, academyID uint) (dto.DashboardResponse, error)
}

type dashboardService struct {
	students    repository.StudentRepository
	enrollments repository.EnrollmentRepository
	cache       *redis.Client
	cacheTTL    time.Duration
	logger      zerolog.Logger
}

// NewDashboardService builds the dashboard aggregator. The cache client may
// be nil, in which case every call hits the database.
func NewDashboardService(students repository.StudentRepository, enrollments repository.EnrollmentRepository, cache *redis.Client, ttl time.Duration, logger zerolog.Logger) DashboardService {
	return &dashboardService{
		students:    students,
		enrollments: enrollments,
		cache:       cache,
		cacheTTL:    ttl,
		logger:      logger.With().Str("component", "dashboard_service").Logger(),
	}
}

func (s *dashboardService) GetDashboard(ctx context.Context, academyID uint) (dto.DashboardResponse, error) {
	cacheKey := fmt.Sprintf("crm:dashboard:%d", academyID)

	if s.cache != nil {
		if cached, err := s.cache.Get(ctx, cacheKey).Result(); err == nil {
			var response dto.DashboardResponse
			if unmarshalErr := json.Unmarshal([]byte(cached), &response); unmarshalErr == nil {
				s.logger.Debug().Uint("academy_id", academyID).Msg("dashboard cache hit")
				return response, nil
			}
		} else if err != redis.Nil {
			s.logger.Warn().Err(err).Msg("failed to read dashboard cache")
		}
	}

	stats, err := s.students.AggregateStats(ctx, academyID, hotLeadThreshold)
	if err != nil {
		return dto.DashboardResponse{}, err
	}

	stages, err := s.enrollments.CountsByStage(ctx, academyID)
	if err != nil {
		return dto.DashboardResponse{}, err
	}

	response := dto.DashboardResponse{
		TotalLeads:       stats.Total,
		LeadsByStatus:    stats.CountsByStatus,
		PipelineByStage:  stages,
		AverageLeadScore: stats.AverageLeadScore,
		HotLeads:         stats.HotLeads,
	}

	if s.cache != nil {
		if payload, err := json.Marshal(response); err == nil {
			if err := s.cache.Set(ctx, cacheKey, payload, s.cacheTTL).Err(); err != nil {
				s.logger.Warn().Err(err).Msg("failed to store dashboard cache")
			}
		}
	}

	return response, nil
}
