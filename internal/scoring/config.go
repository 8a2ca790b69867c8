package scoring

import (
	"context"

	"github.com/acadia-labs/academy-crm-api/internal/models"
)

// FieldConfig is the merged scoring configuration for a single field.
type FieldConfig struct {
	Key       string
	Scored    bool
	Rules     Rules
	Canonical bool
}

// Config is the resolved scoring configuration for one academy. Degraded is
// set when a config store read failed and built-in defaults were substituted;
// the distinction stays inspectable without surfacing an error to callers.
type Config struct {
	Fields   map[string]FieldConfig
	Degraded bool
}

// ScoredFields returns the configs that participate in scoring.
func (c Config) ScoredFields() []FieldConfig {
	fields := make([]FieldConfig, 0, len(c.Fields))
	for _, field := range c.Fields {
		if field.Scored {
			fields = append(fields, field)
		}
	}
	return fields
}

// ConfigStore lists per-academy field scoring configuration. Rows with
// IsScoreField=false are included so an academy can explicitly disable
// scoring of a canonical field.
type ConfigStore interface {
	ListCustomFieldConfigs(ctx context.Context, academyID uint) ([]FieldConfig, error)
	ListSystemFieldConfigs(ctx context.Context, academyID uint) ([]FieldConfig, error)
}

// defaultRules is synthesized for canonical fields absent from an academy's
// configuration: any non-empty value scores High.
func defaultRules() Rules {
	return Rules{High: "ANY"}
}

// ResolveConfig merges custom-field and system-field configuration into one
// mapping keyed by field key. Custom fields are fetched first, so a system
// entry wins on key collision. Canonical fields missing from the merge get a
// default config so brand-new academies score leads before any admin setup.
// Store failures degrade to defaults instead of propagating.
func (e *Engine) ResolveConfig(ctx context.Context, academyID uint) Config {
	resolved := Config{Fields: make(map[string]FieldConfig)}

	custom, err := e.configs.ListCustomFieldConfigs(ctx, academyID)
	if err != nil {
		e.logger.Warn().Err(err).Uint("academy_id", academyID).
			Msg("custom field config unavailable, using defaults")
		resolved.Degraded = true
		custom = nil
	}
	for _, field := range custom {
		resolved.Fields[field.Key] = field
	}

	system, err := e.configs.ListSystemFieldConfigs(ctx, academyID)
	if err != nil {
		e.logger.Warn().Err(err).Uint("academy_id", academyID).
			Msg("system field config unavailable, using defaults")
		resolved.Degraded = true
		system = nil
	}
	for _, field := range system {
		field.Canonical = isCanonicalKey(field.Key)
		resolved.Fields[field.Key] = field
	}

	for _, key := range models.CanonicalFieldKeys() {
		if _, ok := resolved.Fields[key]; ok {
			continue
		}
		resolved.Fields[key] = FieldConfig{
			Key:       key,
			Scored:    true,
			Rules:     defaultRules(),
			Canonical: true,
		}
	}

	return resolved
}

func isCanonicalKey(key string) bool {
	switch key {
	case models.FieldKeyCourseInterested, models.FieldKeyLeadSource,
		models.FieldKeyQualification, models.FieldKeyWorkExperience:
		return true
	default:
		return false
	}
}
