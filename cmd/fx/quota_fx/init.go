package quota_fx

import (
	"go.uber.org/fx"
	"gorm.io/gorm"

	"drape/internal/repositories"
	"drape/internal/services"
)

var Module = fx.Provide(
	provideUserRepo, provideQuotaService)

func provideUserRepo(db *gorm.DB) repositories.UserRepository {
	return repositories.NewUserRepository(db)
}

func provideQuotaService(userRepo repositories.UserRepository) services.QuotaServiceInterface {
	return services.NewQuotaService(userRepo)
}
