package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/zhouzirui/dialogue-sim/backend/internal/config"
	"github.com/zhouzirui/dialogue-sim/backend/internal/handler"
	"github.com/zhouzirui/dialogue-sim/backend/internal/model/persona"
	"github.com/zhouzirui/dialogue-sim/backend/internal/service/ai"
	"github.com/zhouzirui/dialogue-sim/backend/internal/service/chat"
	"github.com/zhouzirui/dialogue-sim/backend/internal/service/profile"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Load .env file
	if err := godotenv.Load(); err != nil {
		log.Printf("warning: failed to load .env file: %v", err)
		log.Println("continuing with system environment variables only")
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
		log.Println("continuing without answers - 请检查生成后端相关环境变量")
	} else {
		generator = gen
		log.Printf("generation backend %s initialized", cfg.AI.Backend)
	}

	chatService := chat.NewService()
	aiService := ai.NewService(generator, personaStore, profileStore, cfg.AI)

	router := handler.NewRouter(personaStore, profileStore, chatService, aiService, cfg.Server.AllowedOrigin)

	startServer(ctx, cfg.Server, router)
}

func startServer(ctx context.Context, serverCfg config.ServerConfig, router http.Handler) {
	addr := serverCfg.Addr
	srv := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	log.Printf("Dialogue simulator backend listening on %s", addr)
	if err := runServer(ctx, srv); err != nil {
		log.Fatalf("server error: %v", err)
	}
}

func runServer(ctx context.Context, srv *http.Server) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
		err := <-errCh
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}
