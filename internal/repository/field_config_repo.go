package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/acadia-labs/academy-crm-api/internal/models"
	"github.com/acadia-labs/academy-crm-api/internal/scoring"
)

// FieldConfigRepository manages custom and system field scoring
// configuration. It also satisfies scoring.ConfigStore so the engine can
// resolve per-academy configuration directly.
type FieldConfigRepository interface {
	ListCustom(ctx context.Context, academyID uint) ([]models.CustomFieldConfig, error)
	ListSystem(ctx context.Context, academyID uint) ([]models.SystemFieldConfig, error)
	UpsertCustom(ctx context.Context, config *models.CustomFieldConfig) error
	UpsertSystem(ctx context.Context, config *models.SystemFieldConfig) error
	DeleteCustom(ctx context.Context, academyID uint, fieldKey string) error

	ListCustomFieldConfigs(ctx context.Context, academyID uint) ([]scoring.FieldConfig, error)
	ListSystemFieldConfigs(ctx context.Context, academyID uint) ([]scoring.FieldConfig, error)
}

type fieldConfigRepository struct {
	db *gorm.DB
}

// NewFieldConfigRepository constructs a field configuration repository.
func NewFieldConfigRepository(db *gorm.DB) FieldConfigRepository {
	return &fieldConfigRepository{db: db}
}

func (r *fieldConfigRepository) ListCustom(ctx context.Context, academyID uint) ([]models.CustomFieldConfig, error) {
	var configs []models.CustomFieldConfig
	err := r.db.WithContext(ctx).
		Where("academy_id = ?", academyID).
		Order("field_key ASC").
		Find(&configs).Error
	if err != nil {
		return nil, err
	}

	return configs, nil
}

func (r *fieldConfigRepository) ListSystem(ctx context.Context, academyID uint) ([]models.SystemFieldConfig, error) {
	var configs []models.SystemFieldConfig
	err := r.db.WithContext(ctx).
		Where("academy_id = ?", academyID).
		Order("field_key ASC").
		Find(&configs).Error
	if err != nil {
		return nil, err
	}

	return configs, nil
}

func (r *fieldConfigRepository) UpsertCustom(ctx context.Context, config *models.CustomFieldConfig) error {
	var existing models.CustomFieldConfig
	err := r.db.WithContext(ctx).
		Where("academy_id = ? AND field_key = ?", config.AcademyID, config.FieldKey).
		First(&existing).Error
	if err == nil {
		config.ID = existing.ID
		config.CreatedAt = existing.CreatedAt
		return r.db.WithContext(ctx).Save(config).Error
	}
	if err != gorm.ErrRecordNotFound {
		return err
	}

	return r.db.WithContext(ctx).Create(config).Error
}

func (r *fieldConfigRepository) UpsertSystem(ctx context.Context, config *models.SystemFieldConfig) error {
	var existing models.SystemFieldConfig
	err := r.db.WithContext(ctx).
		Where("academy_id = ? AND field_key = ?", config.AcademyID, config.FieldKey).
		First(&existing).Error
	if err == nil {
		config.ID = existing.ID
		config.CreatedAt = existing.CreatedAt
		return r.db.WithContext(ctx).Save(config).Error
	}
	if err != gorm.ErrRecordNotFound {
		return err
	}

	return r.db.WithContext(ctx).Create(config).Error
}

func (r *fieldConfigRepository) DeleteCustom(ctx context.Context, academyID uint, fieldKey string) error {
	result := r.db.WithContext(ctx).
		Where("academy_id = ? AND field_key = ?", academyID, fieldKey).
		Delete(&models.CustomFieldConfig{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// ListCustomFieldConfigs adapts custom field rows to the engine's view.
// Rows with IsScoreField=false are included so an explicit row can disable
// scoring of a field.
func (r *fieldConfigRepository) ListCustomFieldConfigs(ctx context.Context, academyID uint) ([]scoring.FieldConfig, error) {
	rows, err := r.ListCustom(ctx, academyID)
	if err != nil {
		return nil, err
	}

	configs := make([]scoring.FieldConfig, 0, len(rows))
	for _, row := range rows {
		configs = append(configs, scoring.FieldConfig{
			Key:    row.FieldKey,
			Scored: row.IsScoreField,
			Rules:  scoring.ParseRules(row.ScoringRules),
		})
	}

	return configs, nil
}

// ListSystemFieldConfigs adapts system field rows to the engine's view.
func (r *fieldConfigRepository) ListSystemFieldConfigs(ctx context.Context, academyID uint) ([]scoring.FieldConfig, error) {
	rows, err := r.ListSystem(ctx, academyID)
	if err != nil {
		return nil, err
	}

	configs := make([]scoring.FieldConfig, 0, len(rows))
	for _, row := range rows {
		configs = append(configs, scoring.FieldConfig{
			Key:    row.FieldKey,
			Scored: row.IsScoreField,
			Rules:  scoring.ParseRules(row.ScoringRules),
		})
	}

	return configs, nil
}
