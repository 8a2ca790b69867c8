package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/microcosm-cc/bluemonday"
	"github.com/rs/zerolog"
	"github.com/santhosh-tekuri/jsonschema/v5"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/acadia-labs/academy-crm-api/internal/dto"
	"github.com/acadia-labs/academy-crm-api/internal/models"
	"github.com/acadia-labs/academy-crm-api/internal/repository"
	"github.com/acadia-labs/academy-crm-api/internal/scoring"
)

var (
	// ErrInvalidRules indicates the scoring rules payload is not a valid
	// rule object.
	ErrInvalidRules = errors.New("scoring rules must be a valid rule object")
	// ErrUnknownSystemField indicates a system config for a non-built-in field.
	ErrUnknownSystemField = errors.New("unknown system field key")
	// ErrFieldConfigNotFound indicates the requested config row does not exist.
	ErrFieldConfigNotFound = errors.New("field configuration not found")
)

// ConfigResolver yields the merged scoring configuration for an academy.
type ConfigResolver interface {
	ResolveConfig(ctx context.Context, academyID uint) scoring.Config
}

// FieldConfigService manages the per-academy field scoring configuration.
// Changing configuration does not rescore existing leads; admins trigger
// rescoring explicitly per student.
type FieldConfigService interface {
	Resolved(ctx context.Context, academyID uint) (dto.ResolvedConfigResponse, error)
	Upsert(ctx context.Context, academyID uint, payload dto.FieldConfigUpsertRequest) (dto.FieldConfigResponse, error)
	DeleteCustom(ctx context.Context, academyID uint, fieldKey string) error
}

type fieldConfigService struct {
	repo      repository.FieldConfigRepository
	resolver  ConfigResolver
	validator *validator.Validate
	sanitizer *bluemonday.Policy
	logger    zerolog.Logger
}

// NewFieldConfigService builds a new field configuration service.
func NewFieldConfigService(repo repository.FieldConfigRepository, resolver ConfigResolver, validate *validator.Validate, logger zerolog.Logger) FieldConfigService {
	return &fieldConfigService{
		repo:      repo,
		resolver:  resolver,
		validator: validate,
		sanitizer: bluemonday.StrictPolicy(),
		logger:    logger.With().Str("component", "field_config_service").Logger(),
	}
}

func (s *fieldConfigService) Resolved(ctx context.Context, academyID uint) (dto.ResolvedConfigResponse, error) {
	resolved := s.resolver.ResolveConfig(ctx, academyID)

	type fieldMeta struct {
		scope string
		label string
	}
	meta := make(map[string]fieldMeta)

	if customRows, err := s.repo.ListCustom(ctx, academyID); err == nil {
		for _, row := range customRows {
			meta[row.FieldKey] = fieldMeta{scope: dto.FieldScopeCustom, label: row.Label}
		}
	}
	if systemRows, err := s.repo.ListSystem(ctx, academyID); err == nil {
		for _, row := range systemRows {
			meta[row.FieldKey] = fieldMeta{scope: dto.FieldScopeSystem, label: row.Label}
		}
	}

	fields := make([]dto.FieldConfigResponse, 0, len(resolved.Fields))
	for key, field := range resolved.Fields {
		entry := dto.FieldConfigResponse{
			FieldKey:     key,
			Scope:        dto.FieldScopeSystem,
			IsScoreField: field.Scored,
			ScoringRules: rulesToMap(field.Rules),
			Canonical:    field.Canonical,
		}
		if m, ok := meta[key]; ok {
			entry.Scope = m.scope
			entry.Label = m.label
		} else {
			entry.Synthesized = true
		}
		fields = append(fields, entry)
	}

	sort.Slice(fields, func(i, j int) bool { return fields[i].FieldKey < fields[j].FieldKey })

	return dto.ResolvedConfigResponse{Fields: fields, Degraded: resolved.Degraded}, nil
}

func (s *fieldConfigService) Upsert(ctx context.Context, academyID uint, payload dto.FieldConfigUpsertRequest) (dto.FieldConfigResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.FieldConfigResponse{}, err
	}

	if len(payload.ScoringRules) > 0 {
		if err := validateRules(payload.ScoringRules); err != nil {
			return dto.FieldConfigResponse{}, err
		}
	}
	rules := datatypes.JSON(payload.ScoringRules)

	fieldKey := strings.TrimSpace(payload.FieldKey)
	label := strings.TrimSpace(s.sanitizer.Sanitize(payload.Label))

	switch payload.Scope {
	case dto.FieldScopeSystem:
		if !isCanonicalFieldKey(fieldKey) {
			return dto.FieldConfigResponse{}, ErrUnknownSystemField
		}
		config := models.SystemFieldConfig{
			AcademyID:    academyID,
			FieldKey:     fieldKey,
			Label:        label,
			IsScoreField: payload.IsScoreField,
			ScoringRules: rules,
		}
		if err := s.repo.UpsertSystem(ctx, &config); err != nil {
			return dto.FieldConfigResponse{}, err
		}
	case dto.FieldScopeCustom:
		config := models.CustomFieldConfig{
			AcademyID:    academyID,
			FieldKey:     fieldKey,
			Label:        label,
			FieldType:    payload.FieldType,
			IsScoreField: payload.IsScoreField,
			ScoringRules: rules,
		}
		if err := s.repo.UpsertCustom(ctx, &config); err != nil {
			return dto.FieldConfigResponse{}, err
		}
	}

	s.logger.Info().
		Uint("academy_id", academyID).
		Str("field_key", fieldKey).
		Str("scope", payload.Scope).
		Bool("is_score_field", payload.IsScoreField).
		Msg("field configuration saved")

	return dto.FieldConfigResponse{
		FieldKey:     fieldKey,
		Scope:        payload.Scope,
		Label:        label,
		IsScoreField: payload.IsScoreField,
		ScoringRules: rulesToMap(scoring.ParseRules(payload.ScoringRules)),
		Canonical:    isCanonicalFieldKey(fieldKey),
	}, nil
}

func (s *fieldConfigService) DeleteCustom(ctx context.Context, academyID uint, fieldKey string) error {
	if err := s.repo.DeleteCustom(ctx, academyID, strings.TrimSpace(fieldKey)); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrFieldConfigNotFound
		}
		return err
	}

	s.logger.Info().Uint("academy_id", academyID).Str("field_key", fieldKey).Msg("custom field configuration deleted")
	return nil
}

// rulesSchema gates rule objects at write time: tier keys carry
// comma-separated token lists and "default" must name a known tier. Reads
// stay tolerant so a corrupt row never blocks scoring.
var rulesSchema = jsonschema.MustCompileString("scoring_rules.schema.json", `{
	"type": "object",
	"additionalProperties": false,
	"properties": {
		"High": {"type": "string"},
		"Medium": {"type": "string"},
		"Low": {"type": "string"},
		"default": {"type": "string", "pattern": "^(?i)(high|medium|low)$"}
	}
}`)

func validateRules(raw []byte) error {
	var decoded interface{}
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return ErrInvalidRules
	}
	if err := rulesSchema.Validate(decoded); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidRules, err)
	}
	return nil
}

func rulesToMap(rules scoring.Rules) map[string]string {
	result := make(map[string]string)
	if rules.High != "" {
		result["High"] = rules.High
	}
	if rules.Medium != "" {
		result["Medium"] = rules.Medium
	}
	if rules.Low != "" {
		result["Low"] = rules.Low
	}
	if rules.Default != "" {
		result["default"] = rules.Default
	}
	if len(result) == 0 {
		return nil
	}
	return result
}

func isCanonicalFieldKey(key string) bool {
	for _, canonical := range models.CanonicalFieldKeys() {
		if key == canonical {
			return true
		}
	}
	return false
}
