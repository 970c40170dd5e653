package adapter

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"quiz-forge/internal/cache"
	"quiz-forge/internal/domain"
)

const (
	fieldProvider   = "provider"
	fieldBaseURL    = "base_url"
	fieldAPIKey     = "api_key"
	fieldTextModel  = "text_model"
	fieldImageModel = "image_model"
	fieldFactCheck  = "fact_check"
)

// RedisSettingsStore keeps the active provider configuration in a single
// Redis hash so every API instance sees operator changes immediately.
type RedisSettingsStore struct {
	cache domain.Cache
}

var _ domain.SettingsStore = (*RedisSettingsStore)(nil)

// NewRedisSettingsStore creates a settings store on top of the cache port.
func NewRedisSettingsStore(c domain.Cache) *RedisSettingsStore {
	return &RedisSettingsStore{cache: c}
}

// GetProviderConfiguration returns the stored configuration, or the primary
// provider when nothing has been saved yet.
func (s *RedisSettingsStore) GetProviderConfiguration(ctx context.Context) (domain.ProviderConfiguration, error) {
	fields, err := s.cache.HGetAll(ctx, cache.ProviderSettingsKey())
	if err != nil {
		if errors.Is(err, domain.ErrCacheMiss) {
			return domain.ProviderConfiguration{Provider: domain.ProviderPrimary}, nil
		}
		return domain.ProviderConfiguration{}, fmt.Errorf("load provider settings: %w", err)
	}

	cfg := domain.ProviderConfiguration{
		Provider: domain.ProviderKind(fields[fieldProvider]),
	}
	if cfg.Provider == "" {
		cfg.Provider = domain.ProviderPrimary
	}
	if v, ok := fields[fieldFactCheck]; ok {
		cfg.FactCheck, _ = strconv.ParseBool(v)
	}
	if cfg.Provider == domain.ProviderCompatible {
		cfg.Compatible = &domain.CompatibleSettings{
			BaseURL:    fields[fieldBaseURL],
			APIKey:     fields[fieldAPIKey],
			TextModel:  fields[fieldTextModel],
			ImageModel: fields[fieldImageModel],
		}
	}
	return cfg, nil
}

// SaveProviderConfiguration validates and stores cfg.
func (s *RedisSettingsStore) SaveProviderConfiguration(ctx context.Context, cfg domain.ProviderConfiguration) error {
	if err := cfg.Validate(); err != nil {
		return err
	}

	values := map[string]string{
		fieldProvider:   string(cfg.Provider),
		fieldFactCheck:  strconv.FormatBool(cfg.FactCheck),
		fieldBaseURL:    "",
		fieldAPIKey:     "",
		fieldTextModel:  "",
		fieldImageModel: "",
	}
	if cfg.Compatible != nil {
		values[fieldBaseURL] = cfg.Compatible.BaseURL
		values[fieldAPIKey] = cfg.Compatible.APIKey
		values[fieldTextModel] = cfg.Compatible.TextModel
		values[fieldImageModel] = cfg.Compatible.ImageModel
	}

	if err := s.cache.HSet(ctx, cache.ProviderSettingsKey(), values); err != nil {
		return fmt.Errorf("save provider settings: %w", err)
	}
	return nil
}
