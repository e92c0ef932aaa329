package vton_fx

import (
	"log"
	"os"

	"go.uber.org/fx"

	"drape/pkg/vton"
)

var Module = fx.Provide(
	provideVtonClient)

func provideVtonClient() vton.ClientInterface {
	provider := os.Getenv("TRYON_PROVIDER")
	if provider == "" {
		provider = "pixazo"
	}

	client, err := vton.NewClient(provider, os.Getenv("TRYON_API_KEY"))
	if err != nil {
		log.Fatalf("Error creating try-on client: %v", err)
	}
	return client
}
