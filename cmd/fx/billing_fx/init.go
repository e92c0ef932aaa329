package billing_fx

import (
	"go.uber.org/fx"
	"gorm.io/gorm"

	"drape/internal/infra"
	"drape/internal/repositories"
	"drape/internal/services"
)

var Module = fx.Provide(
	provideStripeConfig, provideStripeGateway, providePaymentRepo, provideBillingService)

func provideStripeConfig() infra.StripeConfig {
	return infra.LoadStripeConfig()
}

func provideStripeGateway(config infra.StripeConfig) services.StripeGateway {
	return infra.NewStripeGateway(config)
}

func providePaymentRepo(db *gorm.DB) repositories.PaymentRepository {
	return repositories.NewPaymentRepository(db)
}

func provideBillingService(
	userRepo repositories.UserRepository,
	paymentRepo repositories.PaymentRepository,
	usageRepo repositories.UsageRepository,
	gateway services.StripeGateway,
) services.BillingServiceInterface {
	return services.NewBillingService(userRepo, paymentRepo, usageRepo, gateway)
}
