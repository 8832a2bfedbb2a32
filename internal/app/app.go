package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/heartmarshall/wordqueue/internal/adapter/provider/anthropic"
	"github.com/heartmarshall/wordqueue/internal/config"
	"github.com/heartmarshall/wordqueue/internal/service/definition"
	"github.com/heartmarshall/wordqueue/internal/service/ingest"
	"github.com/heartmarshall/wordqueue/internal/transport/middleware"
)

// Run is the ingestion server entry point. It loads configuration, opens
// the queue store, wires services and serves HTTP until ctx is cancelled.
func Run(ctx context.Context) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if err := cfg.ValidateServer(); err != nil {
		return fmt.Errorf("config: %w", err)
	}

	logger := NewLogger(cfg.Log)

	logger.Info("starting wordqueue server",
		slog.String("version", BuildVersion()),
		slog.String("log_level", cfg.Log.Level),
		slog.String("database_driver", cfg.Database.Driver),
		slog.Bool("resolver_enabled", cfg.Resolver.Enabled()),
	)

	store, err := OpenStore(ctx, cfg.Database, logger)
	if err != nil {
		return err
	}
	defer store.Close()

	ingestSvc := ingest.NewService(logger, store.Queue, newResolver(cfg.Resolver, logger), cfg.Queue)

	limiter := middleware.NewRateLimiter(time.Minute)
	defer limiter.Stop()

	handler := NewHandler(cfg, logger, ingestSvc, store, limiter)

	srv := &http.Server{
		Addr:         net.JoinHostPort(cfg.Server.Host, strconv.Itoa(cfg.Server.Port)),
		Handler:      handler,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("http server listening", slog.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down http server")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("http shutdown: %w", err)
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		return err
	}
	logger.Info("server stopped")
	return nil
}

func newResolver(cfg config.ResolverConfig, logger *slog.Logger) *definition.Resolver {
	if !cfg.Enabled() {
		logger.Warn("resolver api key not set, definitions disabled")
		return definition.NewResolver(logger, nil, cfg.Timeout)
	}
	return definition.NewResolver(logger, anthropic.NewClient(cfg, logger), cfg.Timeout)
}
