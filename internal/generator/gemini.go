package generator

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"google.golang.org/genai"

	"reportforge/internal/config"
)

// ErrEmptyNarrative is returned when the model answers with no usable text.
var ErrEmptyNarrative = errors.New("generator returned empty narrative")

// GeminiGenerator produces narrative text through the Gemini API.
type GeminiGenerator struct {
	client  *genai.Client
	modelID string
}

// NewGeminiGenerator builds the Gemini-backed content generator.
func NewGeminiGenerator(ctx context.Context, cfg config.GeminiConfig) (*GeminiGenerator, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey: cfg.APIKey,
	})
	if err != nil {
		return nil, fmt.Errorf("init gemini client: %w", err)
	}

	modelID := strings.TrimSpace(cfg.ModelID)
	if modelID == "" {
		modelID = "gemini-2.5-flash"
	}

	return &GeminiGenerator{client: client, modelID: modelID}, nil
}

// Generate sends the prompt and returns the model's narrative text.
func (g *GeminiGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	contents := []*genai.Content{
		genai.NewContentFromText(prompt, genai.RoleUser),
	}

	result, err := g.client.Models.GenerateContent(ctx, g.modelID, contents, nil)
	if err != nil {
		return "", fmt.Errorf("gemini generate content: %w", err)
	}

	text := strings.TrimSpace(result.Text())
	if text == "" {
		return "", ErrEmptyNarrative
	}
	return text, nil
}

// ModelID returns the configured Gemini model identifier.
func (g *GeminiGenerator) ModelID() string {
	return g.modelID
}
