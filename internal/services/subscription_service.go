package services

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"scribly/internal/models/db_models"
	"scribly/internal/models/response_models"
	"scribly/pkg/utils"
)

type SubscriptionServiceInterface interface {
	GetCurrent(ctx context.Context, accountID uuid.UUID) (*response_models.SubscriptionStatusResponse, error)
	CancelAtPeriodEnd(ctx context.Context, accountID uuid.UUID) error
}

type SubscriptionService struct {
	db *gorm.DB
}

func NewSubscriptionService(db *gorm.DB) SubscriptionServiceInterface {
	return &SubscriptionService{db: db}
}

func (s *SubscriptionService) latest(ctx context.Context, accountID uuid.UUID) (*db_models.Subscription, error) {
	var sub db_models.Subscription
	err := s.db.WithContext(ctx).
		Preload("Plan").
		Where("account_id = ?", accountID).
		Order("ends_at DESC").
		First(&sub).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &sub, nil
}

func (s *SubscriptionService) GetCurrent(ctx context.Context, accountID uuid.UUID) (*response_models.SubscriptionStatusResponse, error) {
	sub, err := s.latest(ctx, accountID)
	if err != nil {
		return nil, utils.ErrDatabaseError
	}
	if sub == nil {
		return nil, utils.ErrSubscriptionNotFound
	}

	return &response_models.SubscriptionStatusResponse{
		AccountID:         sub.AccountID,
		PlanCode:          sub.Plan.Code,
		Status:            string(sub.Status),
		StartsAt:          sub.StartsAt,
		EndsAt:            sub.EndsAt,
		CancelAtPeriodEnd: sub.CancelAtPeriodEnd,
		AutoRenew:         sub.AutoRenew,
	}, nil
}

// CancelAtPeriodEnd flips the renewal flags; access stays until the paid
// window ends. The gateway is not called: with link-based checkout there is
// nothing to cancel upstream, renewal simply never happens.
func (s *SubscriptionService) CancelAtPeriodEnd(ctx context.Context, accountID uuid.UUID) error {
	sub, err := s.latest(ctx, accountID)
	if err != nil {
		return utils.ErrDatabaseError
	}
	if sub == nil || sub.Status == db_models.SubStatusCanceled || sub.Status == db_models.SubStatusExpired {
		return utils.ErrSubscriptionNotFound
	}

	now := utils.NowUnixSeconds()
	return s.db.WithContext(ctx).Model(sub).
		Updates(map[string]interface{}{
			"cancel_at_period_end": true,
			"auto_renew":           false,
			"canceled_at":          now,
		}).Error
}
