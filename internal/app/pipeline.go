// Package app wires the generation stack from configuration. It is shared by
// the API server and the operator CLI.
package app

import (
	"net/http"

	"quiz-forge/internal/config"
	"quiz-forge/internal/domain"
	"quiz-forge/internal/keyhealth"
	"quiz-forge/internal/pipeline"
	"quiz-forge/internal/provider"
	"quiz-forge/internal/rotation"

	"go.uber.org/zap"
)

// NewPipeline builds the rotation executor, provider adapters, and content
// pipeline. imageCache may be nil to disable image caching.
func NewPipeline(cfg *config.Config, settings domain.SettingsStore, imageCache domain.Cache, logger *zap.Logger) *pipeline.Pipeline {
	systemKeys := domain.ParseCredentialList(cfg.AI.APIKeys, domain.KeyOriginSystem)
	if len(systemKeys) == 0 {
		logger.Warn("No system API keys configured; only user keys and compatible providers will work")
	} else {
		logger.Info("Loaded system API keys", zap.Int("count", len(systemKeys)))
	}

	httpClient := &http.Client{}

	registry := keyhealth.NewRegistry()
	executor := rotation.NewExecutor(registry, rotation.Config{
		RetryDelay:     cfg.AI.RetryDelay,
		CooldownWindow: cfg.AI.CooldownWindow,
		AttemptTimeout: cfg.AI.RequestTimeout,
	}, rotation.WithLogger(logger.Named("rotation")))

	primary := provider.NewGeminiAdapter(provider.GeminiConfig{
		TextModel:  cfg.AI.TextModel,
		ImageModel: cfg.AI.ImageModel,
		HTTPClient: httpClient,
	})

	opts := []pipeline.Option{pipeline.WithLogger(logger.Named("pipeline"))}
	if imageCache != nil {
		opts = append(opts, pipeline.WithImageCache(imageCache))
	}

	return pipeline.New(
		executor,
		settings,
		domain.StaticCredentials(systemKeys),
		primary,
		pipeline.NewCompatibleFactory(httpClient),
		pipeline.Config{
			MinUserKeyLength: cfg.AI.MinUserKeyLength,
			ImageConcurrency: cfg.AI.ImageConcurrency,
			ImageCacheTTL:    cfg.AI.ImageCacheTTL,
		},
		opts...,
	)
}
