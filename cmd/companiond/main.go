package main

import (
	"context"
	"flag"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/brightling/companiond/internal/config"
	"github.com/brightling/companiond/internal/core/domain"
	"github.com/brightling/companiond/internal/core/ports"
	"github.com/brightling/companiond/internal/orchestrator"
	"github.com/brightling/companiond/internal/responder"
	"github.com/brightling/companiond/internal/reviewer"
	"github.com/brightling/companiond/internal/router"
	"github.com/brightling/companiond/internal/server"
	"github.com/brightling/companiond/internal/storage"
	"github.com/brightling/companiond/internal/storage/memory"
	"github.com/brightling/companiond/internal/storage/sqlite"
	"github.com/brightling/companiond/internal/telemetry"
	"github.com/brightling/companiond/internal/tokens"
)

func main() {
	// Load .env file if it exists
	_ = godotenv.Load()

	configPath := flag.String("config", "config.yaml", "path to config file")
	flag.Parse()

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	shutdown, err := telemetry.InitTracer("companiond", logger)
	if err != nil {
		log.Fatalf("Failed to initialize tracer: %v", err)
	}
	defer func() {
		if err := shutdown(context.Background()); err != nil {
			logger.Error("failed to shutdown tracer", slog.String("error", err.Error()))
		}
	}()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	store, err := openStore(cfg)
	if err != nil {
		log.Fatalf("Failed to open storage: %v", err)
	}
	defer store.Close()

	responders := buildResponders(cfg)

	rt := router.New(responders,
		router.WithThreshold(cfg.Router.ConfidenceThreshold),
		router.WithExtraKeywords(domain.IntentAcademic, cfg.Router.AcademicKeywords),
		router.WithExtraKeywords(domain.IntentEmotional, cfg.Router.EmotionalKeywords),
	)

	rev := reviewer.NewFailClosed(reviewer.NewKeyword(), cfg.Orchestrator.ReviewerTimeout)

	orchOpts := []orchestrator.Option{orchestrator.WithLogger(logger)}
	if budget := cfg.Orchestrator.ContextTokenBudget; budget > 0 {
		// Only load the tokenizer vocabularies when trimming is actually on.
		orchOpts = append(orchOpts, orchestrator.WithBudgeter(tokens.NewBudgeter(budget)))
	}

	orch := orchestrator.New(rt, rev, store, store, orchestrator.Config{
		MaxRetries:         cfg.Orchestrator.MaxRetries,
		ResponderTimeout:   cfg.Orchestrator.ResponderTimeout,
		ContextWindow:      cfg.Orchestrator.ContextWindow,
		FallbackMessage:    cfg.Orchestrator.FallbackMessage,
		RetryPromptMessage: cfg.Orchestrator.RetryPromptMessage,
	}, orchOpts...)

	srv := server.New(cfg.Server.Port, cfg.Server.RequestTimeout, logger, orch, store)

	logger.Info("companiond starting",
		slog.String("storage", cfg.Storage.Type),
		slog.Int("max_retries", cfg.Orchestrator.MaxRetries),
		slog.Int("context_window", cfg.Orchestrator.ContextWindow),
	)

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	// Wait for shutdown signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-errCh:
		if err != nil {
			log.Fatalf("Server failed: %v", err)
		}
	case sig := <-sigChan:
		logger.Info("shutdown signal received, stopping server", slog.String("signal", sig.String()))

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer shutdownCancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("shutdown error", slog.String("error", err.Error()))
		}
	}

	logger.Info("companiond shutdown complete")
}

func openStore(cfg *config.Config) (storage.Store, error) {
	switch cfg.Storage.Type {
	case "memory":
		return memory.New(), nil
	default:
		return sqlite.New(cfg.Storage.SQLite.Path)
	}
}

// buildResponders assembles the closed responder set. With the remote
// responder enabled, the two specialized intents delegate to the model
// server; the fallback intent always stays local, so exhaustion and
// low-confidence routing never depend on the network.
func buildResponders(cfg *config.Config) map[domain.Intent]ports.Responder {
	responders := responder.Registry()
	if cfg.Responder.Remote.Enabled {
		remote := cfg.Responder.Remote
		responders[domain.IntentAcademic] = responder.NewRemote("academic-remote", remote.BaseURL,
			responder.WithTimeoutBudget(remote.Timeout))
		responders[domain.IntentEmotional] = responder.NewRemote("emotional-remote", remote.BaseURL,
			responder.WithTimeoutBudget(remote.Timeout))
	}
	return responders
}
