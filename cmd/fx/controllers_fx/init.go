package controllers_fx

import (
	"go.uber.org/fx"

	"drape/internal/api/controllers"
	"drape/internal/infra"
	"drape/internal/services"
)

var Module = fx.Options(
	fx.Provide(controllers.NewAccountController),
	fx.Provide(controllers.NewTryOnController),
	fx.Provide(controllers.NewQuotaController),
	fx.Provide(controllers.NewAdminController),
	fx.Provide(provideBillingController))

func provideBillingController(billingService services.BillingServiceInterface, config infra.StripeConfig) *controllers.BillingController {
	return controllers.NewBillingController(billingService, config.WebhookSecret)
}
