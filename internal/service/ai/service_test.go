package ai

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/zhouzirui/dialogue-sim/backend/internal/config"
	"github.com/zhouzirui/dialogue-sim/backend/internal/model/chat"
	"github.com/zhouzirui/dialogue-sim/backend/internal/model/persona"
	"github.com/zhouzirui/dialogue-sim/backend/internal/service/profile"
)

const saganProfile = "You are Carl Sagan, astronomer and science communicator."

type stubGenerator struct {
	answer  string
	err     error
	prompts []string
}

func (g *stubGenerator) Generate(_ context.Context, prompt string) (string, error) {
	g.prompts = append(g.prompts, prompt)
	if g.err != nil {
		return "", g.err
	}
	return g.answer, nil
}

func newTestService(t *testing.T, gen Generator, cfg config.AIConfig) (*Service, string) {
	t.Helper()
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "carl_sagan.txt"), []byte(saganProfile), 0o600); err != nil {
		t.Fatalf("write profile: %v", err)
	}
	store := persona.MustMemoryStore(persona.Flat("Carl Sagan", "Boudica"))
	return NewService(gen, store, profile.NewStore(dir), cfg), persona.Slug("Carl Sagan")
}

func TestAskTwiceReplaysFirstTurn(t *testing.T) {
	gen := &stubGenerator{answer: "A star is a luminous sphere of plasma."}
	svc, sagan := newTestService(t, gen, config.AIConfig{})
	conv := chat.NewConversation(sagan)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		if _, err := svc.Ask(ctx, conv, sagan, "What is a star?"); err != nil {
			t.Fatalf("Ask #%d err: %v", i+1, err)
		}
	}

	history := conv.History(sagan)
	if len(history) != 2 {
		t.Fatalf("expected 2 turns, got %d", len(history))
	}
	for i, turn := range history {
		if turn.Question != "What is a star?" || turn.Answer != "A star is a luminous sphere of plasma." {
			t.Fatalf("turn %d mismatch: %+v", i, turn)
		}
	}

	second := gen.prompts[1]
	replay := "User: What is a star?\nCarl Sagan: A star is a luminous sphere of plasma."
	replayAt := strings.Index(second, replay)
	instructionAt := strings.Index(second, FormattingInstruction)
	questionAt := strings.LastIndex(second, "User asks: What is a star?")
	if replayAt < 0 || instructionAt < 0 || questionAt < 0 {
		t.Fatalf("second prompt missing sections:\n%s", second)
	}
	if !(replayAt < instructionAt && instructionAt < questionAt) {
		t.Fatalf("second prompt sections out of order:\n%s", second)
	}
	if !strings.HasPrefix(second, saganProfile) {
		t.Fatalf("expected prompt to start with profile:\n%s", second)
	}
	if strings.Contains(gen.prompts[0], historyHeader) {
		t.Fatalf("first prompt should carry no history:\n%s", gen.prompts[0])
	}
}

func TestAskEmptyQuestionSkipsBackend(t *testing.T) {
	gen := &stubGenerator{answer: "unused"}
	svc, sagan := newTestService(t, gen, config.AIConfig{})
	conv := chat.NewConversation(sagan)

	for _, q := range []string{"", "   ", "\n\t"} {
		if _, err := svc.Ask(context.Background(), conv, sagan, q); !errors.Is(err, ErrEmptyInput) {
			t.Fatalf("expected ErrEmptyInput for %q, got %v", q, err)
		}
	}
	if len(gen.prompts) != 0 {
		t.Fatalf("backend called %d times for empty input", len(gen.prompts))
	}
	if conv.Len(sagan) != 0 {
		t.Fatal("empty input mutated history")
	}
}

func TestAskMissingProfileLeavesHistory(t *testing.T) {
	gen := &stubGenerator{answer: "unused"}
	svc, _ := newTestService(t, gen, config.AIConfig{})
	boudica := persona.Slug("Boudica")
	conv := chat.NewConversation(boudica)

	_, err := svc.Ask(context.Background(), conv, boudica, "Who are you?")
	if !errors.Is(err, ErrProfileNotFound) {
		t.Fatalf("expected ErrProfileNotFound, got %v", err)
	}
	if conv.Len(boudica) != 0 {
		t.Fatal("missing profile mutated history")
	}
	if len(gen.prompts) != 0 {
		t.Fatal("backend called despite missing profile")
	}
}

func TestAskBackendFailureRecordsNothing(t *testing.T) {
	cause := errors.New("503 from upstream")
	gen := &stubGenerator{err: cause}
	svc, sagan := newTestService(t, gen, config.AIConfig{})
	conv := chat.NewConversation(sagan)

	_, err := svc.Ask(context.Background(), conv, sagan, "What is a star?")
	if !errors.Is(err, ErrBackendFailure) || !errors.Is(err, cause) {
		t.Fatalf("expected wrapped backend failure, got %v", err)
	}
	if conv.Len(sagan) != 0 {
		t.Fatal("failed generation recorded a turn")
	}
}

func TestAskWithoutGenerator(t *testing.T) {
	svc, sagan := newTestService(t, nil, config.AIConfig{})
	conv := chat.NewConversation(sagan)

	if svc.Enabled() {
		t.Fatal("expected service disabled")
	}
	if _, err := svc.Ask(context.Background(), conv, sagan, "Hello?"); !errors.Is(err, ErrNotConfigured) {
		t.Fatalf("expected ErrNotConfigured, got %v", err)
	}
}

func TestAskUnknownCharacter(t *testing.T) {
	svc, _ := newTestService(t, &stubGenerator{answer: "x"}, config.AIConfig{})
	conv := chat.NewConversation("nobody")

	if _, err := svc.Ask(context.Background(), conv, "nobody", "Hello?"); !errors.Is(err, ErrUnknownCharacter) {
		t.Fatalf("expected ErrUnknownCharacter, got %v", err)
	}
}

func TestAskTimeout(t *testing.T) {
	slow := GeneratorFunc(func(ctx context.Context, _ string) (string, error) {
		<-ctx.Done()
		return "", ctx.Err()
	})
	svc, sagan := newTestService(t, slow, config.AIConfig{Timeout: 20 * time.Millisecond})
	conv := chat.NewConversation(sagan)

	_, err := svc.Ask(context.Background(), conv, sagan, "Still there?")
	if !errors.Is(err, ErrBackendFailure) || !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline failure, got %v", err)
	}
	if conv.Len(sagan) != 0 {
		t.Fatal("timed-out generation recorded a turn")
	}
}

func TestAskTruncatesReplayedHistory(t *testing.T) {
	gen := &stubGenerator{answer: "ok"}
	svc, sagan := newTestService(t, gen, config.AIConfig{HistoryTurns: 1})
	conv := chat.NewConversation(sagan)
	conv.AppendTurn(sagan, "oldest", "old answer")
	conv.AppendTurn(sagan, "newest", "new answer")

	if _, err := svc.Ask(context.Background(), conv, sagan, "next"); err != nil {
		t.Fatalf("Ask err: %v", err)
	}

	p := gen.prompts[0]
	if strings.Contains(p, "oldest") {
		t.Fatalf("expected oldest turn truncated:\n%s", p)
	}
	if !strings.Contains(p, "User: newest") {
		t.Fatalf("expected newest turn replayed:\n%s", p)
	}
	if conv.Len(sagan) != 3 {
		t.Fatalf("truncation must not touch stored history, got %d turns", conv.Len(sagan))
	}
}

func TestPreviewMatchesAskPrompt(t *testing.T) {
	gen := &stubGenerator{answer: "ok"}
	svc, sagan := newTestService(t, gen, config.AIConfig{})
	conv := chat.NewConversation(sagan)
	ctx := context.Background()

	preview, err := svc.Preview(ctx, conv, sagan, "What is a star?")
	if err != nil {
		t.Fatalf("Preview err: %v", err)
	}
	if _, err := svc.Ask(ctx, conv, sagan, "What is a star?"); err != nil {
		t.Fatalf("Ask err: %v", err)
	}
	if preview != gen.prompts[0] {
		t.Fatalf("preview differs from sent prompt:\n%s\n---\n%s", preview, gen.prompts[0])
	}
}
