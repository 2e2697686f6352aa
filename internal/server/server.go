// Package server is the reference HTTP classification service the client
// talks to.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/EndrioAlberton/teste-ia/internal/config"
	"github.com/EndrioAlberton/teste-ia/internal/llm"
)

// maxBodyBytes bounds a classify request. Extracted PDFs can be larger than
// the 5MB file they came from, so this is looser than the client's limit.
const maxBodyBytes = 8 << 20

type Server struct {
	config     *config.Server
	classifier llm.Classifier
	limiter    *RateLimiter
	logger     *slog.Logger
}

// New builds the service. A nil classifier is allowed and makes every
// verdict degrade to the "Erro" category.
func New(cfg *config.Server, classifier llm.Classifier, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{
		config:     cfg,
		classifier: classifier,
		limiter:    NewRateLimiter(cfg.RateLimitPerMinute),
		logger:     logger,
	}
}

// Start serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Start(ctx context.Context) error {
	g, gctx := errgroup.WithContext(ctx)

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%s", s.config.Port),
		Handler:      s.Routes(),
		IdleTimeout:  time.Minute,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 5 * time.Minute,
		ErrorLog:     slog.NewLogLogger(s.logger.Handler(), slog.LevelError),
	}

	g.Go(func() error {
		model := "none"
		if s.classifier != nil {
			model = s.classifier.Name()
		}
		s.logger.Info("starting server", "addr", srv.Addr, "prefix", s.config.APIPrefix, "model", model)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("listen: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()

		s.logger.Info("shutting down server")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server shutdown: %w", err)
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		return fmt.Errorf("server error: %w", err)
	}

	s.logger.Info("stopped server")
	return nil
}
