package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rsharda/personad/internal/api"
	"github.com/rsharda/personad/internal/config"
	"github.com/rsharda/personad/internal/llm"
	"github.com/rsharda/personad/internal/persona"
	"github.com/rsharda/personad/internal/session"
)

func main() {
	log := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		log.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize clients.
	claude := llm.NewClient(cfg.AnthropicAPIKey, cfg.AnthropicModel)

	// Initialize the persona.
	engine, err := persona.NewEngine(persona.Config{
		PersonaPath: cfg.PersonaPath,
		CachePath:   cfg.SummaryCachePath,
		ProfileDir:  cfg.ProfileDir,
		TokenBudget: cfg.PromptTokenBudget,
		PDFFallback: cfg.PDFFallbackPdftotext,
	}, claude, log)
	if err != nil {
		log.Error("persona load failed", "error", err)
		os.Exit(1)
	}
	engine.Start(ctx)

	// Initialize sessions.
	sessions := session.NewManager(cfg.SessionTTL)
	sessions.Start(ctx)

	// Initialize HTTP server.
	srv := api.NewServer(engine, claude, claude.Stats, sessions, log, cfg)

	httpServer := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      srv,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown.
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh
		log.Info("shutting down...")

		sessions.Stop()

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		httpServer.Shutdown(shutdownCtx)

		claude.Close()
	}()

	log.Info("starting personad", "port", cfg.Port, "model", cfg.AnthropicModel)
	if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Error("server error", "error", err)
		os.Exit(1)
	}
}
