package main

import (
	"context"
	"log"
	"os"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"go.uber.org/fx"

	"scribly/cmd/fx/account_fx"
	"scribly/cmd/fx/admin_fx"
	"scribly/cmd/fx/billing_fx"
	"scribly/cmd/fx/db_fx"
	"scribly/cmd/fx/job_fx"
	"scribly/cmd/fx/mail_fx"
	"scribly/cmd/fx/memcache_fx"
	"scribly/cmd/fx/payment_service_fx"
	"scribly/cmd/fx/subscription_fx"
	"scribly/cmd/fx/transcriber_fx"
	"scribly/internal/api/controllers"
	"scribly/internal/config"
	"scribly/pkg/middleware"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, reading from environment")
	}
	config.MustValidate()

	app := fx.New(
		db_fx.Module,
		memcache_fx.Module,
		mail_fx.Module,
		account_fx.Module,
		billing_fx.Module,
		transcriber_fx.Module,
		job_fx.Module,
		subscription_fx.Module,
		payment_service_fx.Module,
		admin_fx.Module,

		fx.Provide(ProvideRouter),
		fx.Invoke(StartServer),
	)

	app.Run()
}

func StartServer(lc fx.Lifecycle, engine *gin.Engine) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				port := os.Getenv("PORT")
				log.Printf("Starting HTTP server at :%s", port)
				if err := engine.Run(":" + port); err != nil {
					log.Fatalf("Failed to start server: %v", err)
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			log.Println("Stopping HTTP server")
			return nil
		},
	})
}

func ProvideRouter(
	accountController *controllers.AccountController,
	jobController *controllers.JobController,
	paymentController *controllers.PaymentController,
	subscriptionController *controllers.SubscriptionController,
	adminController *controllers.AdminController) *gin.Engine {

	r := gin.Default()
	r.Use(gin.Recovery())
	r.Use(middleware.CORSMiddleware())
	r.Use(middleware.TraceIDMiddleware())

	RegisterRoutes(r, accountController, jobController, paymentController, subscriptionController, adminController)

	return r
}

func RegisterRoutes(r *gin.Engine,
	accountController *controllers.AccountController,
	jobController *controllers.JobController,
	paymentController *controllers.PaymentController,
	subscriptionController *controllers.SubscriptionController,
	adminController *controllers.AdminController) {

	auth := r.Group("/auth")
	auth.POST("/register", accountController.Register)
	auth.POST("/login", accountController.Login)
	auth.POST("/forgot-password", accountController.ForgotPassword)
	auth.POST("/reset-password", accountController.ResetPassword)

	// Gateway calls back without a bearer token; the checksum signature
	// inside the payload authenticates the request instead.
	r.POST("/payments/webhook", paymentController.HandleWebhook)

	account := r.Group("/account", middleware.JWTAuthMiddleware())
	account.GET("/me", accountController.Me)

	jobs := r.Group("/jobs", middleware.JWTAuthMiddleware())
	jobs.POST("", jobController.Create)
	jobs.GET("", jobController.List)
	jobs.GET("/:id", jobController.Get)
	jobs.GET("/:id/transcript", jobController.GetTranscript)
	jobs.POST("/:id/refresh", jobController.Refresh)

	payments := r.Group("/payments", middleware.JWTAuthMiddleware())
	payments.POST("/checkout", paymentController.CreateCheckout)
	payments.POST("/wallet-topup", paymentController.WalletTopup)

	r.GET("/plans", subscriptionController.ListPlans)

	subscriptions := r.Group("/subscriptions", middleware.JWTAuthMiddleware())
	subscriptions.GET("/me", subscriptionController.GetMine)
	subscriptions.POST("/cancel", subscriptionController.Cancel)

	admin := r.Group("/admin", middleware.JWTAuthMiddleware(), middleware.RoleMiddleware("admin"))
	admin.GET("/jobs", adminController.ListJobs)
	admin.GET("/jobs/stuck", adminController.ListStuckJobs)
	admin.GET("/accounts", adminController.ListAccounts)
	admin.POST("/accounts/:id/wallet", adminController.AdjustWallet)
	admin.POST("/accounts/:id/credits", adminController.AdjustCredits)
	admin.GET("/pricing", adminController.GetPricing)
	admin.PUT("/pricing", adminController.UpdatePricing)
	admin.POST("/jobs/:id/review", adminController.CompleteReview)
}
