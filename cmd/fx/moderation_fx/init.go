package moderation_fx

import (
	"context"
	"log"
	"os"

	"go.uber.org/fx"

	"drape/pkg/moderation"
)

var Module = fx.Provide(
	provideScreener)

func provideScreener(lc fx.Lifecycle) moderation.ImageScreener {
	apiKey := os.Getenv("GEMINI_API_KEY")
	if apiKey == "" {
		log.Println("GEMINI_API_KEY not set, image screening disabled")
		return moderation.NewNoopScreener()
	}

	screener, err := moderation.NewGeminiScreener(apiKey, os.Getenv("GEMINI_MODEL"))
	if err != nil {
		log.Fatalf("Error creating image screener: %v", err)
	}

	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			return screener.Close()
		},
	})

	return screener
}
