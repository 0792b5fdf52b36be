package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/charmbracelet/glamour"
	"github.com/joho/godotenv"

	"github.com/zhouzirui/dialogue-sim/backend/internal/config"
	"github.com/zhouzirui/dialogue-sim/backend/internal/model/persona"
	"github.com/zhouzirui/dialogue-sim/backend/internal/service/ai"
	"github.com/zhouzirui/dialogue-sim/backend/internal/service/profile"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := godotenv.Load(); err != nil {
		log.Printf("warning: failed to load .env file: %v", err)
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	personaStore := persona.MustMemoryStore(persona.Seed())
	profileStore := profile.NewStore(cfg.Profiles.Dir)
	if err := profileStore.Validate(personaStore.List()); err != nil {
		if cfg.Profiles.Strict {
			log.Fatalf("profile check failed:\n%v", err)
		}
		log.Printf("warning: some characters have no profile in %s:\n%v", profileStore.Dir(), err)
	}

	var generator ai.Generator
	if gen, err := ai.NewGenerator(ctx, cfg.AI); err != nil {
		log.Printf("warning: generation backend unavailable: %v", err)
	} else {
		generator = gen
	}

	active := persona.Slug(persona.DefaultCharacter)
	if _, ok := personaStore.FindByID(active); !ok {
		active = personaStore.List()[0].ID
	}

	renderer, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(80),
	)
	if err != nil {
		log.Printf("warning: markdown rendering disabled: %v", err)
		renderer = nil
	}

	c := newConsole(personaStore, ai.NewService(generator, personaStore, profileStore, cfg.AI), active, renderer, os.Stdout)
	if err := c.run(ctx, os.Stdin); err != nil {
		log.Fatalf("console error: %v", err)
	}
}
