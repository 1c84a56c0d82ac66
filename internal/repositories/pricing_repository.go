package repositories

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"scribly/internal/models/db_models"
)

type PricingRepository interface {
	GetActive(ctx context.Context) (*db_models.PricingSettings, error)
	Upsert(ctx context.Context, settings *db_models.PricingSettings) error
}

type pricingRepository struct {
	db *gorm.DB
}

func NewPricingRepository(db *gorm.DB) PricingRepository {
	return &pricingRepository{db: db}
}

func (r *pricingRepository) GetActive(ctx context.Context) (*db_models.PricingSettings, error) {
	var settings db_models.PricingSettings
	err := r.db.WithContext(ctx).
		Where("is_active = TRUE").
		Order("created_at DESC").
		First(&settings).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &settings, nil
}

// Upsert deactivates the current row and inserts the new one, keeping a
// history of past pricing for usage-record audits.
func (r *pricingRepository) Upsert(ctx context.Context, settings *db_models.PricingSettings) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&db_models.PricingSettings{}).
			Where("is_active = TRUE").
			Update("is_active", false).Error; err != nil {
			return err
		}
		settings.IsActive = true
		return tx.Create(settings).Error
	})
}
