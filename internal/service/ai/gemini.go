package ai

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"google.golang.org/genai"
)

// contentGenerator is the slice of *genai.Models the generator needs.
type contentGenerator interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

// GeminiGenerator completes prompts with the Gemini API.
type GeminiGenerator struct {
	models contentGenerator
	model  string
}

// NewGeminiGenerator creates a Gemini API client bound to modelName.
func NewGeminiGenerator(ctx context.Context, apiKey, modelName string) (*GeminiGenerator, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create genai client: %w", err)
	}
	return &GeminiGenerator{models: client.Models, model: modelName}, nil
}

// Generate sends prompt as a single user turn and returns the joined text parts.
func (g *GeminiGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	resp, err := g.models.GenerateContent(ctx, g.model, genai.Text(prompt), nil)
	if err != nil {
		return "", err
	}

	// Blocked or filtered prompts come back without candidates.
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return "", errors.New("no candidates returned (check safety filters)")
	}

	var b strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if part == nil || part.Thought {
			continue
		}
		b.WriteString(part.Text)
	}

	text := b.String()
	if strings.TrimSpace(text) == "" {
		return "", errors.New("empty completion")
	}
	return text, nil
}
