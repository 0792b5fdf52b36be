package ai

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/zhouzirui/dialogue-sim/backend/internal/config"
	"github.com/zhouzirui/dialogue-sim/backend/internal/model/chat"
	"github.com/zhouzirui/dialogue-sim/backend/internal/model/persona"
	"github.com/zhouzirui/dialogue-sim/backend/internal/service/profile"
)

// Service answers questions in character. One Ask is one user action:
// resolve the character, load its profile, assemble the prompt from the
// conversation, call the backend, and record the turn only on success.
type Service struct {
	generator Generator
	personas  persona.Store
	profiles  profile.Loader
	cfg       config.AIConfig
}

// NewService wires the interaction service. generator may be nil, in which
// case every Ask fails with ErrNotConfigured while the rest keeps working.
func NewService(generator Generator, personas persona.Store, profiles profile.Loader, cfg config.AIConfig) *Service {
	return &Service{
		generator: generator,
		personas:  personas,
		profiles:  profiles,
		cfg:       cfg,
	}
}

// Enabled reports whether a generation backend is available.
func (s *Service) Enabled() bool {
	return s.generator != nil
}

// Backend names the configured generation backend.
func (s *Service) Backend() string {
	return string(s.cfg.Backend)
}

// Timeout is the upper bound of a single generation call; 0 means unbounded.
func (s *Service) Timeout() time.Duration {
	return s.cfg.Timeout
}

// MissingCredential names the settings required to enable the configured backend.
func (s *Service) MissingCredential() string {
	return s.cfg.MissingCredential()
}

// Ask generates characterID's answer to question and appends it to conv.
// On any error conv is left untouched.
func (s *Service) Ask(ctx context.Context, conv *chat.Conversation, characterID, question string) (chat.Turn, error) {
	if strings.TrimSpace(question) == "" {
		return chat.Turn{}, ErrEmptyInput
	}
	if s.generator == nil {
		return chat.Turn{}, ErrNotConfigured
	}

	character, promptText, err := s.assemble(ctx, conv, characterID, question)
	if err != nil {
		return chat.Turn{}, err
	}

	if s.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.cfg.Timeout)
		defer cancel()
	}

	answer, err := s.generator.Generate(ctx, promptText)
	if err != nil {
		log.Printf("[ai] generation failed for character=%s: %v", character.ID, err)
		return chat.Turn{}, fmt.Errorf("%w: %w", ErrBackendFailure, err)
	}

	turn := conv.AppendTurn(character.ID, question, answer)
	log.Printf("[ai] generated response for character=%s, prompt=%d, answer=%d", character.ID, len(promptText), len(answer))
	return turn, nil
}

// Preview returns the prompt Ask would send, without calling the backend.
func (s *Service) Preview(ctx context.Context, conv *chat.Conversation, characterID, question string) (string, error) {
	if strings.TrimSpace(question) == "" {
		return "", ErrEmptyInput
	}
	_, promptText, err := s.assemble(ctx, conv, characterID, question)
	return promptText, err
}

func (s *Service) assemble(ctx context.Context, conv *chat.Conversation, characterID, question string) (persona.Character, string, error) {
	character, ok := s.personas.FindByID(characterID)
	if !ok {
		return persona.Character{}, "", fmt.Errorf("%w: %s", ErrUnknownCharacter, characterID)
	}

	profileText, err := s.profiles.Load(ctx, character.Name)
	if err != nil {
		return persona.Character{}, "", err
	}

	history := TruncateHistory(conv.History(character.ID), s.cfg.HistoryTurns)
	return character, BuildPrompt(character.Name, profileText, history, question), nil
}
