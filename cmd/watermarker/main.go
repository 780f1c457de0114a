package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/wb-go/wbf/retry"
	"github.com/wb-go/wbf/zlog"

	"github.com/aliskhannn/watermarker/internal/api/handlers/watermark"
	"github.com/aliskhannn/watermarker/internal/api/router"
	"github.com/aliskhannn/watermarker/internal/api/server"
	"github.com/aliskhannn/watermarker/internal/assets"
	"github.com/aliskhannn/watermarker/internal/config"
	"github.com/aliskhannn/watermarker/internal/infra/kafka/producer"
	"github.com/aliskhannn/watermarker/internal/model"
	"github.com/aliskhannn/watermarker/internal/processor"
	watermarksvc "github.com/aliskhannn/watermarker/internal/service/watermark"
)

func main() {
	// Context & signals: used for graceful shutdown on system interrupts.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Initialize logger and load application configuration.
	zlog.Init()
	cfg := config.MustLoad("./config/config.yml")

	// Retry strategy for Kafka and asset loads.
	strategy := retry.Strategy{
		Attempts: cfg.Retry.Attempts,
		Delay:    cfg.Retry.Delay,
		Backoff:  cfg.Retry.Backoff,
	}

	// Overlay assets: embedded by default, or a directory / MinIO bucket.
	resolver := assets.NewResolver(mustAssetSource(ctx, cfg), resolverOptions(cfg, strategy)...)
	resolver.Warm(ctx)

	// Artifact store and its janitor.
	var wg sync.WaitGroup
	store, closeStore := mustArtifactStore(ctx, cfg, &wg)

	// Optional artifact events.
	var (
		p   *producer.Producer
		pub interface {
			Produce(ctx context.Context, a model.Artifact) error
		}
	)
	if len(cfg.Kafka.Brokers) > 0 {
		p = producer.New(&cfg.Kafka, strategy)
		pub = p
		zlog.Logger.Info().Str("topic", cfg.Kafka.Topic).Msg("artifact events enabled")
	}

	// Processor, service and HTTP handler.
	batch := processor.New(resolver, cfg.Processor.Workers)
	service := watermarksvc.NewService(batch, store, pub)

	defaults := model.Spec{
		Position: model.ParsePosition(cfg.Watermark.Position),
		Scale:    cfg.Watermark.Scale,
		Opacity:  cfg.Watermark.Opacity,
		Variant:  model.ParseVariant(cfg.Watermark.Color),
	}
	h := watermark.NewHandler(service, defaults, cfg.Server.MaxUploadSize, cfg.Server.PublicURL)

	// Start HTTP server in a separate goroutine.
	r := router.Setup(h)
	s := server.New(cfg.Server.HTTPPort, r)
	go func() {
		zlog.Logger.Info().Str("addr", cfg.Server.HTTPPort).Msg("starting server")
		if err := s.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zlog.Logger.Fatal().Err(err).Msg("failed to start server")
		}
	}()

	// Block until context is canceled (SIGINT/SIGTERM).
	<-ctx.Done()
	zlog.Logger.Info().Msg("context done")

	// Graceful shutdown with timeout for HTTP server.
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	zlog.Logger.Info().Msg("shutting down server")
	if err := s.Shutdown(shutdownCtx); err != nil {
		zlog.Logger.Error().Err(err).Msg("failed to shutdown server")
	}
	if errors.Is(shutdownCtx.Err(), context.DeadlineExceeded) {
		zlog.Logger.Info().Msg("timeout exceeded, forcing shutdown")
	}

	// Wait for the janitor goroutine to finish.
	wg.Wait()

	if err := closeStore(); err != nil {
		zlog.Logger.Error().Err(err).Msg("failed to close artifact store")
	}

	if p != nil {
		if err := p.Close(); err != nil {
			zlog.Logger.Error().Err(err).Msg("failed to close kafka producer client")
		}
	}
}
