package repositories

import (
	"context"
	"errors"
	"strings"

	"gorm.io/gorm"

	"scribly/internal/models/db_models"
)

type WebhookEventRepository interface {
	// RecordOnce inserts the event and reports whether this delivery is the
	// first one. A duplicate provider event id returns (false, nil) so the
	// handler can ack without reprocessing.
	RecordOnce(ctx context.Context, event *db_models.WebhookEvent) (bool, error)
	MarkProcessed(ctx context.Context, providerEventID string, at int64) error
}

type webhookEventRepository struct {
	db *gorm.DB
}

func NewWebhookEventRepository(db *gorm.DB) WebhookEventRepository {
	return &webhookEventRepository{db: db}
}

// IsDuplicateKeyErr reports whether err is a unique-constraint violation.
// GORM's translated sentinel covers most drivers; the message check catches
// raw Postgres errors that bypass translation.
func IsDuplicateKeyErr(err error) bool {
	if err == nil {
		return false
	}
	return errors.Is(err, gorm.ErrDuplicatedKey) || strings.Contains(err.Error(), "duplicate key")
}

func (r *webhookEventRepository) RecordOnce(ctx context.Context, event *db_models.WebhookEvent) (bool, error) {
	err := r.db.WithContext(ctx).Create(event).Error
	if err != nil {
		if IsDuplicateKeyErr(err) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

func (r *webhookEventRepository) MarkProcessed(ctx context.Context, providerEventID string, at int64) error {
	return r.db.WithContext(ctx).
		Model(&db_models.WebhookEvent{}).
		Where("provider_event_id = ?", providerEventID).
		Update("processed_at", at).Error
}
