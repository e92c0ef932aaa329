package tryon_fx

import (
	"context"

	"go.uber.org/fx"
	"gorm.io/gorm"

	"drape/internal/repositories"
	"drape/internal/services"
	"drape/internal/workers"
	"drape/pkg/moderation"
	"drape/pkg/storage"
	"drape/pkg/vton"
	"drape/pkg/watermark"
)

var Module = fx.Options(
	fx.Provide(
		provideTryOnRepo,
		provideUsageRepo,
		provideDispatcher,
		provideTryOnService,
	),
	fx.Invoke(startDispatcher),
)

func provideTryOnRepo(db *gorm.DB) repositories.TryOnRepository {
	return repositories.NewTryOnRepository(db)
}

func provideUsageRepo(db *gorm.DB) repositories.UsageRepository {
	return repositories.NewUsageRepository(db)
}

func provideDispatcher(tryOnRepo repositories.TryOnRepository) *workers.Dispatcher {
	return workers.NewDispatcher(tryOnRepo, 0)
}

func provideTryOnService(
	tryOnRepo repositories.TryOnRepository,
	userRepo repositories.UserRepository,
	usageRepo repositories.UsageRepository,
	quota services.QuotaServiceInterface,
	gateway vton.ClientInterface,
	store storage.ImageStore,
	watermarker watermark.Watermarker,
	screener moderation.ImageScreener,
	dispatcher *workers.Dispatcher,
) services.TryOnServiceInterface {
	return services.NewTryOnService(
		tryOnRepo, userRepo, usageRepo, quota,
		gateway, store, watermarker, screener, dispatcher)
}

func startDispatcher(lc fx.Lifecycle, dispatcher *workers.Dispatcher, tryOnService services.TryOnServiceInterface) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			dispatcher.Start(tryOnService)
			return nil
		},
		OnStop: func(ctx context.Context) error {
			dispatcher.Stop()
			return nil
		},
	})
}
