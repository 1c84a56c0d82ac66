package billing_fx

import (
	"go.uber.org/fx"
	"gorm.io/gorm"

	"scribly/internal/repositories"
	"scribly/internal/services"
)

var Module = fx.Provide(
	providePricingRepo, provideBillingService)

func providePricingRepo(db *gorm.DB) repositories.PricingRepository {
	return repositories.NewPricingRepository(db)
}

func provideBillingService(db *gorm.DB, pricingRepo repositories.PricingRepository) services.BillingService {
	return services.NewBillingService(db, pricingRepo)
}
