package moderation

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

const screenPrompt = `You are screening a user-uploaded photo for a virtual clothing try-on service.
Answer with exactly one word:
SAFE - a normal photo of a person or a garment
UNSAFE - nudity, sexual content, minors in inappropriate context, gore or violence
Answer:`

// GeminiScreener asks a Gemini vision model whether an uploaded photo is
// acceptable. Screening is best-effort: if the API itself fails the image is
// allowed through and the failure is logged, so an outage never blocks
// generation.
type GeminiScreener struct {
	client *genai.Client
	model  string
}

func NewGeminiScreener(apiKey, model string) (*GeminiScreener, error) {
	if model == "" {
		model = "gemini-1.5-flash"
	}

	client, err := genai.NewClient(context.Background(), option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	return &GeminiScreener{client: client, model: model}, nil
}

func (g *GeminiScreener) Screen(ctx context.Context, data []byte, mimeType string) error {
	format := "jpeg"
	if strings.Contains(mimeType, "png") {
		format = "png"
	}

	m := g.client.GenerativeModel(g.model)
	m.SetTemperature(0)

	resp, err := m.GenerateContent(ctx, genai.ImageData(format, data), genai.Text(screenPrompt))
	if err != nil {
		log.Printf("moderation: gemini screening failed, allowing image: %v", err)
		return nil
	}
	if len(resp.Candidates) == 0 || len(resp.Candidates[0].Content.Parts) == 0 {
		log.Printf("moderation: gemini returned no verdict, allowing image")
		return nil
	}

	verdict := strings.ToUpper(strings.TrimSpace(fmt.Sprintf("%v", resp.Candidates[0].Content.Parts[0])))
	if strings.Contains(verdict, "UNSAFE") {
		return ErrImageRejected
	}
	return nil
}

func (g *GeminiScreener) Close() error {
	return g.client.Close()
}
