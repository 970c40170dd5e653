package main

import (
	"context"
	"fmt"
	"os"

	"quiz-forge/internal/adapter"
	"quiz-forge/internal/app"
	"quiz-forge/internal/cache"
	"quiz-forge/internal/cli"
	"quiz-forge/internal/config"
	"quiz-forge/internal/domain"
	"quiz-forge/internal/logger"

	"go.uber.org/zap"
)

func main() {
	root := cli.NewRootCmd(newGenerator)
	if err := root.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

// newGenerator loads configuration and builds the pipeline. Redis is used for
// provider settings and the image cache when configured.
func newGenerator(ctx context.Context) (cli.Generator, error) {
	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, err
	}
	// stdout carries the JSON result
	cfg.Logger.Output = "stderr"
	if err := logger.Initialize(cfg.Logger); err != nil {
		return nil, err
	}
	l := logger.Get()

	var (
		settings   domain.SettingsStore = adapter.NewMemorySettingsStore(domain.ProviderConfiguration{})
		imageCache domain.Cache
	)
	if cfg.Redis.Address != "" {
		client, err := cache.NewRedisClient(ctx, cfg.Redis)
		if err != nil {
			l.Warn("Redis unavailable, using primary provider without image cache", zap.Error(err))
		} else {
			imageCache = adapter.NewRedisCacheAdapter(client)
			settings = adapter.NewRedisSettingsStore(imageCache)
		}
	}

	return app.NewPipeline(cfg, settings, imageCache, l), nil
}
