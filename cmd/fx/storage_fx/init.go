package storage_fx

import (
	"os"

	"go.uber.org/fx"

	"drape/pkg/storage"
	"drape/pkg/watermark"
)

var Module = fx.Provide(
	provideImageStore, provideWatermarker)

func provideImageStore() storage.ImageStore {
	bucket := os.Getenv("SUPABASE_BUCKET")
	if bucket == "" {
		bucket = "drape-images"
	}
	return storage.NewSupabaseStore(
		os.Getenv("SUPABASE_URL"),
		os.Getenv("SUPABASE_SERVICE_KEY"),
		bucket,
	)
}

func provideWatermarker() watermark.Watermarker {
	return watermark.NewOverlayWatermarker()
}
