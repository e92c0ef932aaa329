package vton

import (
	"context"
	"fmt"
	"time"

	openai "github.com/sashabaranov/go-openai"
)

const openaiCostPerCall = 0.04

// OpenAIClient is a synchronous-call provider backed by the OpenAI image
// API. Quality for garment transfer is below the dedicated try-on models;
// it exists as a fallback when neither Pixazo nor Replicate is configured.
type OpenAIClient struct {
	client *openai.Client
}

func NewOpenAIClient(apiKey string) *OpenAIClient {
	return &OpenAIClient{client: openai.NewClient(apiKey)}
}

func (o *OpenAIClient) Generate(ctx context.Context, personImageURL, garmentImageURL string) (*Result, error) {
	startTime := time.Now()

	prompt := fmt.Sprintf(
		"Photorealistic virtual try-on: render the person shown at %s wearing the garment shown at %s. "+
			"Keep the person's pose, body and background unchanged; replace only the clothing.",
		personImageURL, garmentImageURL)

	resp, err := o.client.CreateImage(ctx, openai.ImageRequest{
		Prompt:         prompt,
		Model:          openai.CreateImageModelDallE3,
		N:              1,
		Size:           openai.CreateImageSize1024x1024,
		ResponseFormat: openai.CreateImageResponseFormatURL,
	})
	if err != nil {
		return nil, fmt.Errorf("openai image generation: %w", err)
	}
	if len(resp.Data) == 0 || resp.Data[0].URL == "" {
		return nil, fmt.Errorf("openai returned no image")
	}

	return &Result{
		ImageURL:       resp.Data[0].URL,
		ProcessingTime: int(time.Since(startTime).Seconds()),
	}, nil
}

func (o *OpenAIClient) CostPerCall() float64 { return openaiCostPerCall }

func (o *OpenAIClient) ProviderName() string { return "openai-dalle3" }
