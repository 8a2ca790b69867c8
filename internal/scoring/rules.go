package scoring

import (
	"encoding/json"
	"strings"
)

// Tier is a qualitative scoring bucket for a field value.
type Tier string

// Known tiers in priority order.
const (
	TierHigh   Tier = "High"
	TierMedium Tier = "Medium"
	TierLow    Tier = "Low"
)

// Points returns the contribution of a tier toward the obtained score.
// Unknown tiers contribute nothing but still count as a match.
func (t Tier) Points() int {
	switch t {
	case TierHigh:
		return 100
	case TierMedium:
		return 50
	case TierLow:
		return 25
	default:
		return 0
	}
}

// Rules maps each tier to a comma-separated, case-insensitive list of
// matching values. The literal token "any" matches every non-empty value.
// Default names a fallback tier applied when the value is non-empty but no
// tier matched.
type Rules struct {
	High    string `json:"High,omitempty"`
	Medium  string `json:"Medium,omitempty"`
	Low     string `json:"Low,omitempty"`
	Default string `json:"default,omitempty"`
}

// IsZero reports whether no rule is configured.
func (r Rules) IsZero() bool {
	return r.High == "" && r.Medium == "" && r.Low == "" && r.Default == ""
}

// ParseRules decodes a serialized rule object. Malformed payloads yield
// empty rules rather than an error so a corrupt config never blocks scoring.
func ParseRules(raw []byte) Rules {
	if len(raw) == 0 {
		return Rules{}
	}

	var rules Rules
	if err := json.Unmarshal(raw, &rules); err != nil {
		return Rules{}
	}
	return rules
}

// MatchTier evaluates a raw field value against the configured rules and
// returns the matched tier. Tiers are checked High, then Medium, then Low;
// the first match wins. Empty values never match. When nothing matches and
// a default tier is configured, the default tier is returned.
func MatchTier(value string, rules Rules) (Tier, bool) {
	normalized := strings.ToLower(strings.TrimSpace(value))
	if normalized == "" {
		return "", false
	}

	ordered := []struct {
		tier   Tier
		tokens string
	}{
		{TierHigh, rules.High},
		{TierMedium, rules.Medium},
		{TierLow, rules.Low},
	}

	for _, candidate := range ordered {
		if matchesTokens(normalized, candidate.tokens) {
			return candidate.tier, true
		}
	}

	if fallback := strings.TrimSpace(rules.Default); fallback != "" {
		return canonicalTier(fallback), true
	}

	return "", false
}

func matchesTokens(normalized, configured string) bool {
	if strings.TrimSpace(configured) == "" {
		return false
	}

	for _, token := range strings.Split(configured, ",") {
		token = strings.ToLower(strings.TrimSpace(token))
		if token == "" {
			continue
		}
		if token == "any" || token == normalized {
			return true
		}
	}
	return false
}

// canonicalTier maps a case-insensitive tier name onto a known tier.
// Unrecognized names pass through unchanged and score zero points.
func canonicalTier(name string) Tier {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "high":
		return TierHigh
	case "medium":
		return TierMedium
	case "low":
		return TierLow
	default:
		return Tier(name)
	}
}
