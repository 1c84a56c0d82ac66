package services

import (
	"context"

	"scribly/internal/models/response_models"
	"scribly/internal/repositories"
	"scribly/pkg/utils"
)

type PlanServiceInterface interface {
	ListPlans(ctx context.Context) ([]response_models.SubscriptionPlan, error)
}

type PlanService struct {
	planRepo repositories.PlanRepository
}

func NewPlanService(planRepo repositories.PlanRepository) PlanServiceInterface {
	return &PlanService{planRepo: planRepo}
}

func (p *PlanService) ListPlans(ctx context.Context) ([]response_models.SubscriptionPlan, error) {
	plans, err := p.planRepo.ListActive(ctx)
	if err != nil {
		return nil, utils.ErrDatabaseError
	}

	out := make([]response_models.SubscriptionPlan, 0, len(plans))
	for _, plan := range plans {
		out = append(out, response_models.SubscriptionPlan{
			ID:              plan.ID,
			Code:            plan.Code,
			Name:            plan.Name,
			Description:     plan.Description,
			Period:          string(plan.Period),
			Price:           plan.PriceMinor,
			Currency:        plan.Currency,
			TrialDays:       plan.TrialDays,
			IncludedMinutes: plan.IncludedMinutes,
			IsActive:        plan.IsActive,
		})
	}
	return out, nil
}
