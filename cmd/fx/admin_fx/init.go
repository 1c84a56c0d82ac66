package admin_fx

import (
	"go.uber.org/fx"
	"gorm.io/gorm"

	"scribly/internal/api/controllers"
	"scribly/internal/repositories"
	"scribly/internal/services"
)

var Module = fx.Provide(
	provideAdminService, controllers.NewAdminController)

func provideAdminService(
	db *gorm.DB,
	jobRepo repositories.JobRepository,
	accountRepo repositories.AccountRepository,
	pricingRepo repositories.PricingRepository,
) services.AdminServiceInterface {
	return services.NewAdminService(db, jobRepo, accountRepo, pricingRepo)
}
