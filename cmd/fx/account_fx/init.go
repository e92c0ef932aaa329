package account_fx

import (
	"go.uber.org/fx"

	"drape/internal/repositories"
	"drape/internal/services"
)

var Module = fx.Provide(
	provideAccountService)

func provideAccountService(userRepo repositories.UserRepository) services.AccountServiceInterface {
	return services.NewAccountService(userRepo)
}
