package scoring

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strconv"
	"time"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/acadia-labs/academy-crm-api/internal/models"
	"github.com/acadia-labs/academy-crm-api/internal/observability"
)

// ErrStudentNotFound indicates the student to score does not exist. Callers
// decide whether to treat that as "score 0" or skip the record.
var ErrStudentNotFound = errors.New("student not found")

const (
	// fieldMaxPoints is the per-field contribution to the denominator.
	fieldMaxPoints = 100
	// feeBonusThreshold is the course fee above which the bonus applies.
	feeBonusThreshold = 30000
	// feeBonusPoints is the flat bonus for interest in a high-fee course.
	feeBonusPoints = 10
)

// StudentContext carries the persisted values the engine scores: the four
// canonical fields, the open custom data mapping, and the interested
// course's standard fee (zero when no course is joined).
type StudentContext struct {
	CourseInterestedID *uint
	LeadSource         string
	Qualification      string
	WorkExperience     string
	CustomData         map[string]interface{}
	CourseFee          float64
}

// StudentStore is the engine's narrow view of lead persistence.
type StudentStore interface {
	GetScoringContext(ctx context.Context, studentID, academyID uint) (StudentContext, error)
	SetLeadScore(ctx context.Context, studentID, academyID uint, score int) error
}

// LeadScoredEvent describes a completed score computation.
type LeadScoredEvent struct {
	AcademyID  uint      `json:"academy_id"`
	StudentID  uint      `json:"student_id"`
	Score      int       `json:"score"`
	Degraded   bool      `json:"degraded"`
	ComputedAt time.Time `json:"computed_at"`
}

// EventPublisher receives scoring events. Implementations must tolerate
// being called concurrently; publishing is fire-and-forget.
type EventPublisher interface {
	LeadScored(ctx context.Context, event LeadScoredEvent)
}

// Engine computes lead scores from an academy's field configuration. Each
// computation is a single synchronous read-compute-write pass with no shared
// state, so concurrent computations for different students need no
// coordination.
type Engine struct {
	students StudentStore
	configs  ConfigStore
	events   EventPublisher
	logger   zerolog.Logger
	tracer   trace.Tracer
}

// NewEngine constructs a scoring engine. The event publisher may be nil.
func NewEngine(students StudentStore, configs ConfigStore, events EventPublisher, logger zerolog.Logger) *Engine {
	return &Engine{
		students: students,
		configs:  configs,
		events:   events,
		logger:   logger.With().Str("component", "scoring_engine").Logger(),
		tracer:   otel.Tracer("github.com/acadia-labs/academy-crm-api/internal/scoring"),
	}
}

// Compute scores a student and persists the result onto the record.
// Overrides carry not-yet-persisted canonical field values so intake and
// update paths can score inline before the triggering write is re-read.
// Overrides never apply to custom fields: canonical and custom keys are
// disjoint namespaces, so a custom field cannot shadow a canonical one.
func (e *Engine) Compute(ctx context.Context, studentID, academyID uint, overrides map[string]string) (int, error) {
	ctx, span := e.tracer.Start(ctx, "scoring.compute", trace.WithAttributes(
		attribute.Int64("crm.academy_id", int64(academyID)),
		attribute.Int64("crm.student_id", int64(studentID)),
	))
	defer span.End()

	start := time.Now()
	defer func() {
		observability.ScoringLatency().Observe(time.Since(start).Seconds())
	}()

	student, err := e.students.GetScoringContext(ctx, studentID, academyID)
	if err != nil {
		observability.ScoresComputed().WithLabelValues("error").Inc()
		span.RecordError(err)
		if errors.Is(err, ErrStudentNotFound) {
			return 0, ErrStudentNotFound
		}
		return 0, fmt.Errorf("load scoring context: %w", err)
	}

	config := e.ResolveConfig(ctx, academyID)
	score := e.evaluate(student, config, overrides)

	if err := e.students.SetLeadScore(ctx, studentID, academyID, score); err != nil {
		observability.ScoresComputed().WithLabelValues("error").Inc()
		span.RecordError(err)
		return 0, fmt.Errorf("persist lead score: %w", err)
	}

	observability.ScoresComputed().WithLabelValues("ok").Inc()
	observability.LeadScoreDistribution().Observe(float64(score))
	span.SetAttributes(attribute.Int("crm.lead_score", score))

	e.logger.Debug().
		Uint("academy_id", academyID).
		Uint("student_id", studentID).
		Int("lead_score", score).
		Bool("config_degraded", config.Degraded).
		Msg("lead score computed")

	if e.events != nil {
		e.events.LeadScored(ctx, LeadScoredEvent{
			AcademyID:  academyID,
			StudentID:  studentID,
			Score:      score,
			Degraded:   config.Degraded,
			ComputedAt: time.Now().UTC(),
		})
	}

	return score, nil
}

func (e *Engine) evaluate(student StudentContext, config Config, overrides map[string]string) int {
	obtained := 0
	maxPossible := 0

	for _, field := range config.ScoredFields() {
		maxPossible += fieldMaxPoints

		value := effectiveValue(student, field, overrides)
		if value == "" {
			continue
		}

		tier, matched := MatchTier(value, field.Rules)
		if !matched {
			continue
		}

		obtained += tier.Points()
		if field.Key == models.FieldKeyCourseInterested && student.CourseFee > feeBonusThreshold {
			obtained += feeBonusPoints
		}
	}

	if maxPossible == 0 {
		return 0
	}

	score := int(math.Round(float64(obtained) / float64(maxPossible) * 100))
	if score > 100 {
		score = 100
	}
	if score < 0 {
		score = 0
	}
	return score
}

// effectiveValue selects the value a field is scored on. Canonical fields
// read overrides first, then the persisted column; custom fields read only
// the custom data mapping.
func effectiveValue(student StudentContext, field FieldConfig, overrides map[string]string) string {
	if isCanonicalKey(field.Key) {
		if value, ok := overrides[field.Key]; ok {
			return value
		}
		switch field.Key {
		case models.FieldKeyCourseInterested:
			if student.CourseInterestedID == nil {
				return ""
			}
			return strconv.FormatUint(uint64(*student.CourseInterestedID), 10)
		case models.FieldKeyLeadSource:
			return student.LeadSource
		case models.FieldKeyQualification:
			return student.Qualification
		case models.FieldKeyWorkExperience:
			return student.WorkExperience
		}
		return ""
	}

	raw, ok := student.CustomData[field.Key]
	if !ok || raw == nil {
		return ""
	}
	return fmt.Sprintf("%v", raw)
}
