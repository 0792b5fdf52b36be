package ai

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/components/prompt"
	"github.com/cloudwego/eino/compose"
	"github.com/cloudwego/eino/schema"
)

// ChatModelGenerator runs the assembled prompt through an eino chain ending
// in any eino chat model (Ark in production).
type ChatModelGenerator struct {
	chain compose.Runnable[map[string]any, *schema.Message]
}

// NewChatModelGenerator compiles the template -> chat model chain.
func NewChatModelGenerator(ctx context.Context, chatModel model.ChatModel) (*ChatModelGenerator, error) {
	if chatModel == nil {
		return nil, errors.New("chat model is required")
	}

	promptTemplate := prompt.FromMessages(
		schema.FString,
		schema.UserMessage("{prompt}"),
	)

	chain := compose.NewChain[map[string]any, *schema.Message]()
	chain.AppendChatTemplate(promptTemplate)
	chain.AppendChatModel(chatModel)

	runnable, err := chain.Compile(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to compile chat chain: %w", err)
	}

	return &ChatModelGenerator{chain: runnable}, nil
}

// Generate invokes the chain with prompt as the only user message.
func (g *ChatModelGenerator) Generate(ctx context.Context, promptText string) (string, error) {
	response, err := g.chain.Invoke(ctx, map[string]any{"prompt": promptText})
	if err != nil {
		return "", fmt.Errorf("failed to run AI chain: %w", err)
	}
	if response == nil || strings.TrimSpace(response.Content) == "" {
		return "", errors.New("empty completion")
	}
	return response.Content, nil
}
