package admin_fx

import (
	"go.uber.org/fx"

	"drape/internal/repositories"
	"drape/internal/services"
	"drape/pkg/storage"
)

var Module = fx.Provide(
	provideAdminService)

func provideAdminService(
	userRepo repositories.UserRepository,
	tryOnRepo repositories.TryOnRepository,
	usageRepo repositories.UsageRepository,
	store storage.ImageStore,
) services.AdminServiceInterface {
	return services.NewAdminService(userRepo, tryOnRepo, usageRepo, store)
}
