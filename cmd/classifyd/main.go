package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/EndrioAlberton/teste-ia/internal/config"
	"github.com/EndrioAlberton/teste-ia/internal/llm"
	"github.com/EndrioAlberton/teste-ia/internal/server"
)

func main() {
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	if err := run(logger); err != nil {
		logger.Error("classifyd failed", "error", err)
		os.Exit(1)
	}
}

func run(logger *slog.Logger) error {
	cfg, err := config.LoadServer()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	classifier, err := newClassifier(cfg)
	if err != nil {
		return fmt.Errorf("llm: %w", err)
	}
	if classifier == nil {
		logger.Warn("no language model configured, verdicts will use the Erro category")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return server.New(cfg, classifier, logger).Start(ctx)
}

func newClassifier(cfg *config.Server) (llm.Classifier, error) {
	switch cfg.LLMProvider {
	case config.ProviderNone:
		return nil, nil
	case config.ProviderOpenAI:
		return llm.New(llm.Config{
			Provider: llm.ProviderOpenAI,
			Model:    cfg.OpenAIModel,
			Endpoint: cfg.OpenAIBaseURL,
			APIKey:   cfg.OpenAIKey,
		})
	default:
		return llm.New(llm.Config{
			Provider: llm.ProviderOllama,
			Model:    cfg.OllamaModel,
			Endpoint: cfg.OllamaHost,
		})
	}
}
