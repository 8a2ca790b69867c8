package dto

import "encoding/json"

// Field configuration scopes.
const (
	FieldScopeCustom = "custom"
	FieldScopeSystem = "system"
)

// FieldConfigUpsertRequest creates or replaces one field's scoring
// configuration. ScoringRules is the serialized rule object, e.g.
// {"High": "Referral, Walk-in", "default": "Low"}.
type FieldConfigUpsertRequest struct {
	FieldKey     string          `json:"field_key" validate:"required,max=128"`
	Scope        string          `json:"scope" validate:"required,oneof=custom system"`
	Label        string          `json:"label" validate:"omitempty,max=255"`
	FieldType    string          `json:"field_type" validate:"omitempty,max=32"`
	IsScoreField bool            `json:"is_score_field"`
	ScoringRules json.RawMessage `json:"scoring_rules"`
}

// FieldConfigResponse is one entry of the resolved scoring configuration.
// Synthesized holds for canonical fields that have no stored row and fall
// back to the built-in "any value scores High" default.
type FieldConfigResponse struct {
	FieldKey     string            `json:"field_key"`
	Scope        string            `json:"scope"`
	Label        string            `json:"label,omitempty"`
	IsScoreField bool              `json:"is_score_field"`
	ScoringRules map[string]string `json:"scoring_rules,omitempty"`
	Canonical    bool              `json:"canonical"`
	Synthesized  bool              `json:"synthesized"`
}

// ResolvedConfigResponse is the full merged scoring configuration for an
// academy. Degraded is set when a config store read failed and defaults
// were substituted.
type ResolvedConfigResponse struct {
	Fields   []FieldConfigResponse `json:"fields"`
	Degraded bool                  `json:"degraded"`
}
