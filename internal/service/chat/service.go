package chat

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/zhouzirui/dialogue-sim/backend/internal/model/chat"
)

var (
	ErrCharacterRequired = errors.New("character id is required")
	ErrSessionNotFound   = errors.New("session not found")
)

type entry struct {
	createdAt    time.Time
	conversation *chat.Conversation
}

// Service shards conversation state per visitor session.
type Service struct {
	mu       sync.RWMutex
	sessions map[string]*entry
}

// NewService bootstraps the in-memory session registry. Nothing survives a restart.
func NewService() *Service {
	return &Service{
		sessions: make(map[string]*entry),
	}
}

// CreateSession provisions an anonymous session with characterID selected.
func (s *Service) CreateSession(_ context.Context, characterID string) (chat.Session, error) {
	if characterID == "" {
		return chat.Session{}, ErrCharacterRequired
	}

	id := uuid.NewString()
	e := &entry{
		createdAt:    time.Now().UTC(),
		conversation: chat.NewConversation(characterID),
	}

	s.mu.Lock()
	s.sessions[id] = e
	s.mu.Unlock()

	return chat.Session{ID: id, Active: characterID, CreatedAt: e.createdAt}, nil
}

// GetSession retrieves a session snapshot by identifier.
func (s *Service) GetSession(_ context.Context, sessionID string) (chat.Session, error) {
	s.mu.RLock()
	e, ok := s.sessions[sessionID]
	s.mu.RUnlock()
	if !ok {
		return chat.Session{}, ErrSessionNotFound
	}
	return chat.Session{ID: sessionID, Active: e.conversation.Active(), CreatedAt: e.createdAt}, nil
}

// Conversation returns the live state object owned by the session.
func (s *Service) Conversation(_ context.Context, sessionID string) (*chat.Conversation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.sessions[sessionID]
	if !ok {
		return nil, ErrSessionNotFound
	}
	return e.conversation, nil
}

// LoadTranscript returns the turns recorded for one character in a session.
func (s *Service) LoadTranscript(ctx context.Context, sessionID, characterID string) ([]chat.Turn, error) {
	conv, err := s.Conversation(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	return conv.History(characterID), nil
}

// DeleteSession discards a session and all of its transcripts.
func (s *Service) DeleteSession(_ context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.sessions[sessionID]; !ok {
		return ErrSessionNotFound
	}
	delete(s.sessions, sessionID)
	return nil
}
