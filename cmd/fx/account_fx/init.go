package account_fx

import (
	"go.uber.org/fx"
	"gorm.io/gorm"

	"scribly/internal/api/controllers"
	"scribly/internal/repositories"
	"scribly/internal/services"
	mem "scribly/pkg/memcache"
)

var Module = fx.Provide(
	provideAccountRepo, provideAccountService, controllers.NewAccountController)

func provideAccountRepo(db *gorm.DB) repositories.AccountRepository {
	return repositories.NewAccountRepository(db)
}

func provideAccountService(accountRepo repositories.AccountRepository, mailService services.IMailService, memcache mem.ResetTokenStore) services.AccountServiceInterface {
	return services.NewAccountService(accountRepo, mailService, memcache)
}
