package scoring

import (
	"context"
	"errors"
	"io"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/acadia-labs/academy-crm-api/internal/models"
)

type stubConfigStore struct {
	custom    []FieldConfig
	system    []FieldConfig
	customErr error
	systemErr error
}

func (s *stubConfigStore) ListCustomFieldConfigs(context.Context, uint) ([]FieldConfig, error) {
	return s.custom, s.customErr
}

func (s *stubConfigStore) ListSystemFieldConfigs(context.Context, uint) ([]FieldConfig, error) {
	return s.system, s.systemErr
}

func newTestEngine(students StudentStore, configs ConfigStore) *Engine {
	return NewEngine(students, configs, nil, zerolog.New(io.Discard))
}

func TestResolveConfigSynthesizesCanonicalDefaults(t *testing.T) {
	engine := newTestEngine(nil, &stubConfigStore{})

	config := engine.ResolveConfig(context.Background(), 1)

	require.False(t, config.Degraded)
	require.Len(t, config.Fields, 4)
	for _, key := range models.CanonicalFieldKeys() {
		field, ok := config.Fields[key]
		require.True(t, ok, "missing canonical key %s", key)
		require.True(t, field.Scored)
		require.True(t, field.Canonical)
		require.Equal(t, Rules{High: "ANY"}, field.Rules)
	}
}

func TestResolveConfigSystemOverwritesCustomOnCollision(t *testing.T) {
	store := &stubConfigStore{
		custom: []FieldConfig{{Key: "budget", Scored: true, Rules: Rules{High: "10"}}},
		system: []FieldConfig{{Key: "budget", Scored: true, Rules: Rules{Low: "10"}}},
	}
	engine := newTestEngine(nil, store)

	config := engine.ResolveConfig(context.Background(), 1)

	require.Equal(t, Rules{Low: "10"}, config.Fields["budget"].Rules)
}

func TestResolveConfigExplicitRowDisablesCanonicalField(t *testing.T) {
	store := &stubConfigStore{
		system: []FieldConfig{{Key: models.FieldKeyQualification, Scored: false}},
	}
	engine := newTestEngine(nil, store)

	config := engine.ResolveConfig(context.Background(), 1)

	field, ok := config.Fields[models.FieldKeyQualification]
	require.True(t, ok)
	require.False(t, field.Scored)

	for _, scored := range config.ScoredFields() {
		require.NotEqual(t, models.FieldKeyQualification, scored.Key)
	}
}

func TestResolveConfigDegradesOnStoreFailure(t *testing.T) {
	store := &stubConfigStore{
		customErr: errors.New("relation does not exist"),
		systemErr: errors.New("connection refused"),
	}
	engine := newTestEngine(nil, store)

	config := engine.ResolveConfig(context.Background(), 1)

	require.True(t, config.Degraded)
	require.Len(t, config.Fields, 4, "defaults still apply when the store is down")
	for _, field := range config.Fields {
		require.True(t, field.Scored)
	}
}

func TestResolveConfigKeepsCustomFields(t *testing.T) {
	store := &stubConfigStore{
		custom: []FieldConfig{{Key: "preferred_batch", Scored: true, Rules: Rules{High: "morning"}}},
	}
	engine := newTestEngine(nil, store)

	config := engine.ResolveConfig(context.Background(), 1)

	require.Len(t, config.Fields, 5)
	field := config.Fields["preferred_batch"]
	require.True(t, field.Scored)
	require.False(t, field.Canonical)
}
