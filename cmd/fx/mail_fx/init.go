package mail_fx

import (
	"log"
	"os"
	"strconv"

	"go.uber.org/fx"

	"scribly/internal/config"
	"scribly/internal/services"
)

var Module = fx.Provide(provideMailService)

func provideMailService() services.IMailService {
	port, err := strconv.Atoi(config.Getenv("SMTP_PORT", "587"))
	if err != nil {
		port = 587
	}

	cfg := services.SMTPConfig{
		Host:       config.Getenv("SMTP_HOST", "smtp.gmail.com"),
		Port:       port,
		Username:   config.Getenv("SMTP_USERNAME", "no-reply@scribly.app"),
		Password:   os.Getenv("SMTP_PASSWORD"),
		From:       config.Getenv("SMTP_FROM", "no-reply@scribly.app"),
		FromName:   "Scribly",
		UseSSL:     port == 465,
		RequireTLS: true,

		AppName:    "Scribly",
		AppBaseURL: config.Getenv("APP_BASE_URL", "https://scribly.app"),
	}

	mailService, err := services.NewSMTPMailService(cfg)
	if err != nil {
		log.Printf("Failed to initialize SMTP mail service: %v", err)
	}
	return mailService
}
