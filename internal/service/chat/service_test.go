package chat_test

import (
	"context"
	"errors"
	"testing"

	chat "github.com/zhouzirui/dialogue-sim/backend/internal/service/chat"
)

func TestServiceGetSession(t *testing.T) {
	svc := chat.NewService()
	ctx := context.Background()

	session, err := svc.CreateSession(ctx, "carl-sagan")
	if err != nil {
		t.Fatalf("CreateSession err: %v", err)
	}

	got, err := svc.GetSession(ctx, session.ID)
	if err != nil {
		t.Fatalf("GetSession err: %v", err)
	}

	if got.ID != session.ID {
		t.Fatalf("unexpected session ID: got %s want %s", got.ID, session.ID)
	}
	if got.Active != "carl-sagan" {
		t.Fatalf("unexpected active character: got %s", got.Active)
	}
}

func TestServiceGetSessionNotFound(t *testing.T) {
	svc := chat.NewService()
	ctx := context.Background()

	if _, err := svc.GetSession(ctx, "missing"); !errors.Is(err, chat.ErrSessionNotFound) {
		t.Fatalf("expected ErrSessionNotFound, got %v", err)
	}
}

func TestServiceCreateSessionRequiresCharacter(t *testing.T) {
	svc := chat.NewService()
	if _, err := svc.CreateSession(context.Background(), ""); !errors.Is(err, chat.ErrCharacterRequired) {
		t.Fatalf("expected ErrCharacterRequired, got %v", err)
	}
}

func TestSessionsDoNotShareState(t *testing.T) {
	svc := chat.NewService()
	ctx := context.Background()

	first, _ := svc.CreateSession(ctx, "carl-sagan")
	second, _ := svc.CreateSession(ctx, "carl-sagan")

	conv, err := svc.Conversation(ctx, first.ID)
	if err != nil {
		t.Fatalf("Conversation err: %v", err)
	}
	conv.AppendTurn("carl-sagan", "What is a star?", "A sphere of plasma.")

	turns, err := svc.LoadTranscript(ctx, second.ID, "carl-sagan")
	if err != nil {
		t.Fatalf("LoadTranscript err: %v", err)
	}
	if len(turns) != 0 {
		t.Fatalf("expected isolated sessions, got %d turns", len(turns))
	}
}

func TestDeleteSession(t *testing.T) {
	svc := chat.NewService()
	ctx := context.Background()

	session, _ := svc.CreateSession(ctx, "boudica")
	if err := svc.DeleteSession(ctx, session.ID); err != nil {
		t.Fatalf("DeleteSession err: %v", err)
	}
	if _, err := svc.GetSession(ctx, session.ID); !errors.Is(err, chat.ErrSessionNotFound) {
		t.Fatalf("expected deleted session to be gone, got %v", err)
	}
	if err := svc.DeleteSession(ctx, session.ID); !errors.Is(err, chat.ErrSessionNotFound) {
		t.Fatalf("expected second delete to fail, got %v", err)
	}
}
