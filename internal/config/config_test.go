package config

import (
	"testing"
	"time"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"PORT", "CORS_ALLOWED_ORIGIN", "GEN_BACKEND", "GEMINI_API_KEY", "GEMINI_MODEL",
		"ARK_API_KEY", "ARK_ACCESS_KEY", "ARK_SECRET_KEY", "Model", "ARK_TEMPERATURE",
		"ARK_TOP_P", "ARK_MAX_TOKENS", "GENERATION_TIMEOUT", "HISTORY_TURN_LIMIT",
		"PROFILES_DIR", "PROFILES_STRICT",
	} {
		t.Setenv(key, "")
	}
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load err: %v", err)
	}

	if cfg.Server.Addr != ":8080" {
		t.Fatalf("unexpected addr %q", cfg.Server.Addr)
	}
	if cfg.AI.Backend != BackendGemini {
		t.Fatalf("unexpected backend %q", cfg.AI.Backend)
	}
	if cfg.AI.GeminiModel != defaultGeminiModel {
		t.Fatalf("unexpected model %q", cfg.AI.GeminiModel)
	}
	if cfg.AI.Timeout != defaultTimeout {
		t.Fatalf("unexpected timeout %v", cfg.AI.Timeout)
	}
	if cfg.AI.HistoryTurns != defaultHistoryTurns {
		t.Fatalf("unexpected history limit %d", cfg.AI.HistoryTurns)
	}
	if cfg.Profiles.Dir != "profiles" || cfg.Profiles.Strict {
		t.Fatalf("unexpected profiles config %+v", cfg.Profiles)
	}
	if cfg.AI.Enabled() {
		t.Fatal("expected generation disabled without credential")
	}
}

func TestLoadGeminiEnabled(t *testing.T) {
	clearEnv(t)
	t.Setenv("GEMINI_API_KEY", "secret")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load err: %v", err)
	}
	if !cfg.AI.Enabled() {
		t.Fatal("expected generation enabled")
	}
}

func TestLoadArkRequiresModel(t *testing.T) {
	clearEnv(t)
	t.Setenv("GEN_BACKEND", "ark")
	t.Setenv("ARK_API_KEY", "secret")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load err: %v", err)
	}
	if cfg.AI.Enabled() {
		t.Fatal("expected ark disabled without Model")
	}

	t.Setenv("Model", "ep-123")
	cfg, err = Load()
	if err != nil {
		t.Fatalf("Load err: %v", err)
	}
	if !cfg.AI.Enabled() {
		t.Fatal("expected ark enabled")
	}
}

func TestLoadRejectsUnknownBackend(t *testing.T) {
	clearEnv(t)
	t.Setenv("GEN_BACKEND", "carrier-pigeon")

	if _, err := Load(); err == nil {
		t.Fatal("expected error for unknown backend")
	}
}

func TestParseDurationEnv(t *testing.T) {
	cases := map[string]time.Duration{
		"":    defaultTimeout,
		"90":  90 * time.Second,
		"2m":  2 * time.Minute,
		"45s": 45 * time.Second,
	}
	for raw, want := range cases {
		t.Setenv("GENERATION_TIMEOUT", raw)
		got, err := parseDurationEnv("GENERATION_TIMEOUT", defaultTimeout)
		if err != nil {
			t.Fatalf("parseDurationEnv(%q) err: %v", raw, err)
		}
		if got != want {
			t.Fatalf("parseDurationEnv(%q) = %v, want %v", raw, got, want)
		}
	}

	for _, raw := range []string{"0", "-5", "soon"} {
		t.Setenv("GENERATION_TIMEOUT", raw)
		if _, err := parseDurationEnv("GENERATION_TIMEOUT", defaultTimeout); err == nil {
			t.Fatalf("expected error for %q", raw)
		}
	}
}

func TestHistoryTurnLimit(t *testing.T) {
	clearEnv(t)
	t.Setenv("HISTORY_TURN_LIMIT", "0")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load err: %v", err)
	}
	if cfg.AI.HistoryTurns != 0 {
		t.Fatalf("expected unlimited history, got %d", cfg.AI.HistoryTurns)
	}

	t.Setenv("HISTORY_TURN_LIMIT", "-1")
	if _, err := Load(); err == nil {
		t.Fatal("expected error for negative limit")
	}
}

func TestLoadServerConfigAcceptsHostPort(t *testing.T) {
	clearEnv(t)
	t.Setenv("PORT", "127.0.0.1:9000")

	cfg, err := loadServerConfig()
	if err != nil {
		t.Fatalf("loadServerConfig err: %v", err)
	}
	if cfg.Addr != "127.0.0.1:9000" {
		t.Fatalf("unexpected addr %q", cfg.Addr)
	}
	if cfg.AllowedOrigin != "*" {
		t.Fatalf("unexpected origin %q", cfg.AllowedOrigin)
	}
}
