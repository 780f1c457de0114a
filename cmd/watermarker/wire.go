package main

import (
	"context"
	"io"
	"os"
	"sync"

	"github.com/wb-go/wbf/retry"
	"github.com/wb-go/wbf/zlog"

	"github.com/aliskhannn/watermarker/internal/artifact"
	"github.com/aliskhannn/watermarker/internal/assets"
	"github.com/aliskhannn/watermarker/internal/config"
	"github.com/aliskhannn/watermarker/internal/model"
	"github.com/aliskhannn/watermarker/internal/storage/file"
)

type assetSource interface {
	Load(ctx context.Context, name string) (io.ReadCloser, error)
}

type artifactStore interface {
	Put(ctx context.Context, payload []byte, kind model.Kind, filename string) (model.Artifact, error)
	Get(ctx context.Context, id string) (model.Artifact, error)
}

// mustAssetSource builds the overlay asset source selected in the config.
func mustAssetSource(ctx context.Context, cfg *config.Config) assetSource {
	switch cfg.Assets.Source {
	case "minio":
		storage, err := file.NewStorage(
			ctx,
			cfg.Storage.Endpoint,
			cfg.Storage.AccessKey,
			cfg.Storage.SecretKey,
			cfg.Storage.BucketName,
			cfg.Assets.Prefix,
			cfg.Storage.UseSSL,
		)
		if err != nil {
			zlog.Logger.Fatal().Err(err).Msg("failed to connect to storage")
		}
		zlog.Logger.Info().Str("bucket", cfg.Storage.BucketName).Msg("loading watermark assets from storage")
		return storage
	case "dir":
		zlog.Logger.Info().Str("dir", cfg.Assets.Dir).Msg("loading watermark assets from directory")
		return assets.NewFSSource(os.DirFS(cfg.Assets.Dir))
	default:
		return assets.Embedded()
	}
}

// resolverOptions translates watermark config into resolver options.
func resolverOptions(cfg *config.Config, strategy retry.Strategy) []assets.Option {
	opts := []assets.Option{
		assets.WithTextStyle(cfg.Watermark.FontSize, cfg.Watermark.TextAlpha),
		assets.WithRetry(strategy),
	}

	if cfg.Watermark.FontPath != "" {
		f, err := assets.LoadFont(cfg.Watermark.FontPath)
		if err != nil {
			zlog.Logger.Fatal().Err(err).Msg("failed to load font")
		}
		opts = append(opts, assets.WithFont(f))
	}

	return opts
}

// mustArtifactStore builds the configured store. The returned func releases it.
func mustArtifactStore(ctx context.Context, cfg *config.Config, wg *sync.WaitGroup) (artifactStore, func() error) {
	if cfg.Artifacts.Backend == "redis" {
		store, err := artifact.NewRedis(ctx, artifact.RedisOptions{
			Addr:     cfg.Artifacts.Redis.Addr,
			Username: cfg.Artifacts.Redis.Username,
			Password: cfg.Artifacts.Redis.Password,
			DB:       cfg.Artifacts.Redis.DB,
			Prefix:   cfg.Artifacts.Redis.Prefix,
			TTL:      cfg.Artifacts.TTL,
		})
		if err != nil {
			zlog.Logger.Fatal().Err(err).Msg("failed to connect to redis")
		}
		zlog.Logger.Info().Str("addr", cfg.Artifacts.Redis.Addr).Msg("using redis artifact store")
		return store, store.Close
	}

	store := artifact.NewMemory(cfg.Artifacts.TTL)

	wg.Add(1)
	go func() {
		defer wg.Done()
		store.Run(ctx, cfg.Artifacts.SweepInterval)
	}()

	zlog.Logger.Info().Dur("ttl", cfg.Artifacts.TTL).Msg("using in-memory artifact store")
	return store, func() error { return nil }
}
