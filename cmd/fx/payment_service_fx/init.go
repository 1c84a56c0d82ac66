package payment_service_fx

import (
	"log"
	"os"

	"go.uber.org/fx"
	"gorm.io/gorm"

	"scribly/internal/api/controllers"
	"scribly/internal/config"
	"scribly/internal/repositories"
	"scribly/internal/services"
)

var Module = fx.Provide(
	provideWebhookRepo, providePaymentService, controllers.NewPaymentController)

func provideWebhookRepo(db *gorm.DB) repositories.WebhookEventRepository {
	return repositories.NewWebhookEventRepository(db)
}

func providePaymentService(
	db *gorm.DB,
	planRepo repositories.PlanRepository,
	webhookRepo repositories.WebhookEventRepository,
	mail services.IMailService,
) services.PaymentService {
	cfg := services.PayOSConfig{
		ClientID:     os.Getenv("PAYOS_CLIENT_ID"),
		ApiKey:       os.Getenv("PAYOS_API_KEY"),
		ChecksumKey:  os.Getenv("PAYOS_CHECKSUM_KEY"),
		ReturnURL:    config.Getenv("PAYOS_RETURN_URL", "https://scribly.app/pay/return"),
		CancelURL:    config.Getenv("PAYOS_CANCEL_URL", "https://scribly.app/pay/cancel"),
		ProviderName: "payos",
	}

	instance, err := services.NewPaymentService(db, cfg, planRepo, webhookRepo, mail)
	if err != nil {
		log.Fatalf("Error initializing PaymentService: %v", err)
	}
	return instance
}
