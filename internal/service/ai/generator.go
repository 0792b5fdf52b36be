package ai

import (
	"context"
	"fmt"

	"github.com/zhouzirui/dialogue-sim/backend/internal/config"
)

// Generator turns an assembled prompt into a completion. Implementations are
// stateless between calls and may return different text for the same prompt.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// GeneratorFunc adapts a plain function to Generator.
type GeneratorFunc func(ctx context.Context, prompt string) (string, error)

// Generate calls f.
func (f GeneratorFunc) Generate(ctx context.Context, prompt string) (string, error) {
	return f(ctx, prompt)
}

// NewGenerator builds the backend selected by cfg.Backend. It returns
// ErrNotConfigured when the backend's credential is absent.
func NewGenerator(ctx context.Context, cfg config.AIConfig) (Generator, error) {
	if !cfg.Enabled() {
		return nil, fmt.Errorf("%w: set %s", ErrNotConfigured, cfg.MissingCredential())
	}

	switch cfg.Backend {
	case config.BackendArk:
		chatModel, err := cfg.NewChatModel(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to create chat model: %w", err)
		}
		return NewChatModelGenerator(ctx, chatModel)
	default:
		return NewGeminiGenerator(ctx, cfg.GeminiAPIKey, cfg.GeminiModel)
	}
}
