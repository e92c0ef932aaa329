package main

import (
	"context"
	"log"
	"os"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"go.uber.org/fx"

	"drape/cmd/fx/account_fx"
	"drape/cmd/fx/admin_fx"
	"drape/cmd/fx/billing_fx"
	"drape/cmd/fx/controllers_fx"
	"drape/cmd/fx/db_fx"
	"drape/cmd/fx/moderation_fx"
	"drape/cmd/fx/quota_fx"
	"drape/cmd/fx/redis_fx"
	"drape/cmd/fx/storage_fx"
	"drape/cmd/fx/tryon_fx"
	"drape/cmd/fx/vton_fx"
	"drape/internal/api/controllers"
	"drape/pkg/middleware"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	app := fx.New(
		db_fx.Module,
		redis_fx.Module,
		storage_fx.Module,
		vton_fx.Module,
		moderation_fx.Module,
		quota_fx.Module,
		account_fx.Module,
		tryon_fx.Module,
		billing_fx.Module,
		admin_fx.Module,
		controllers_fx.Module,

		fx.Provide(ProvideRouter),
		fx.Invoke(StartServer),
	)

	app.Run()
}

func StartServer(lc fx.Lifecycle, engine *gin.Engine) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				log.Println("Starting HTTP server at ${PORT}")
				if err := engine.Run(":" + os.Getenv("PORT")); err != nil {
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
	tryOnController *controllers.TryOnController,
	quotaController *controllers.QuotaController,
	billingController *controllers.BillingController,
	adminController *controllers.AdminController) *gin.Engine {

	r := gin.Default()
	r.Use(gin.Logger())
	r.Use(gin.Recovery())
	r.Use(middleware.CORSMiddleware())
	r.Use(middleware.TraceIDMiddleware())

	RegisterRoutes(r, accountController, tryOnController, quotaController, billingController, adminController)

	return r
}

func RegisterRoutes(r *gin.Engine,
	accountController *controllers.AccountController,
	tryOnController *controllers.TryOnController,
	quotaController *controllers.QuotaController,
	billingController *controllers.BillingController,
	adminController *controllers.AdminController) {

	accountGroup := r.Group("/accounts")
	accountGroup.POST("/register", accountController.Register)
	accountGroup.POST("/login", accountController.Login)

	// Signature-verified, no JWT.
	r.POST("/webhook/stripe", billingController.HandleStripeWebhook)

	authGroup := r.Group("/")
	authGroup.Use(middleware.JWTAuthMiddleware())
	authGroup.POST("/tryon", tryOnController.StartTryOn)
	authGroup.GET("/tryon/:id", tryOnController.GetTryOn)
	authGroup.GET("/tryons", tryOnController.ListTryOns)
	authGroup.GET("/quota", quotaController.GetQuota)
	authGroup.POST("/billing/checkout", billingController.CreateCheckout)

	adminGroup := r.Group("/admin")
	adminGroup.Use(middleware.JWTAuthMiddleware(), middleware.RoleMiddleware("admin"))
	adminGroup.POST("/users/ban", adminController.BanUser)
	adminGroup.POST("/users/unban", adminController.UnbanUser)
	adminGroup.POST("/users/credits", adminController.GrantCredits)
	adminGroup.DELETE("/tryons/:id", adminController.DeleteTryOn)
	adminGroup.POST("/tryons/purge-expired", adminController.PurgeExpired)
}
