package vton

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// Result of a completed virtual try-on generation.
type Result struct {
	ImageURL       string
	ProcessingTime int // seconds
}

// ClientInterface wraps one virtual try-on provider. Implementations either
// block until the image is ready or submit a task and poll for it; callers
// see the same contract and bound the whole call with their own context
// deadline.
type ClientInterface interface {
	Generate(ctx context.Context, personImageURL, garmentImageURL string) (*Result, error)
	CostPerCall() float64
	ProviderName() string
}

var ErrGenerationTimeout = errors.New("generation timeout")

// NewClient builds a provider client by name. Mirrors the env-driven
// provider selection used at startup; unknown providers are rejected.
func NewClient(provider, apiKey string) (ClientInterface, error) {
	switch strings.ToLower(provider) {
	case "pixazo":
		return NewPixazoClient(apiKey), nil
	case "replicate":
		return NewReplicateClient(apiKey), nil
	case "openai":
		return NewOpenAIClient(apiKey), nil
	default:
		return nil, fmt.Errorf("unsupported try-on provider: %s. Use 'pixazo', 'replicate' or 'openai'", provider)
	}
}
