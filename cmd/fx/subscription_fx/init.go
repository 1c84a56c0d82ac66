package subscription_fx

import (
	"go.uber.org/fx"
	"gorm.io/gorm"

	"scribly/internal/api/controllers"
	"scribly/internal/repositories"
	"scribly/internal/services"
)

var Module = fx.Provide(
	providePlanRepo, providePlanService, provideSubscriptionService,
	controllers.NewSubscriptionController)

func providePlanRepo(db *gorm.DB) repositories.PlanRepository {
	return repositories.NewPlanRepository(db)
}

func providePlanService(planRepo repositories.PlanRepository) services.PlanServiceInterface {
	return services.NewPlanService(planRepo)
}

func provideSubscriptionService(db *gorm.DB) services.SubscriptionServiceInterface {
	return services.NewSubscriptionService(db)
}
