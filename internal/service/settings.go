package service

import (
	"context"
	"strings"

	"quiz-forge/internal/domain"

	"go.uber.org/zap"
)

// SettingsService manages the provider configuration and the activity log.
type SettingsService interface {
	GetProviderSettings(ctx context.Context) (domain.ProviderConfiguration, error)
	UpdateProviderSettings(ctx context.Context, cfg domain.ProviderConfiguration) (domain.ProviderConfiguration, error)
	ListLogs(ctx context.Context, limit int) ([]*domain.LogEntry, error)
}

type settingsService struct {
	store  domain.SettingsStore
	logs   domain.LogRepository
	logger *zap.Logger
}

// NewSettingsService creates a new instance of settingsService
func NewSettingsService(store domain.SettingsStore, logs domain.LogRepository, logger *zap.Logger) SettingsService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &settingsService{store: store, logs: logs, logger: logger}
}

// GetProviderSettings returns the active configuration with the API key masked.
func (s *settingsService) GetProviderSettings(ctx context.Context) (domain.ProviderConfiguration, error) {
	cfg, err := s.store.GetProviderConfiguration(ctx)
	if err != nil {
		return domain.ProviderConfiguration{}, domain.NewInternalError("Failed to load provider settings", err)
	}
	return cfg.Masked(), nil
}

// UpdateProviderSettings stores cfg. A masked API key, as returned by
// GetProviderSettings, keeps the currently stored key.
func (s *settingsService) UpdateProviderSettings(ctx context.Context, cfg domain.ProviderConfiguration) (domain.ProviderConfiguration, error) {
	if cfg.Compatible != nil && isMasked(cfg.Compatible.APIKey) {
		current, err := s.store.GetProviderConfiguration(ctx)
		if err != nil {
			return domain.ProviderConfiguration{}, domain.NewInternalError("Failed to load provider settings", err)
		}
		compat := *cfg.Compatible
		compat.APIKey = ""
		if current.Compatible != nil {
			compat.APIKey = current.Compatible.APIKey
		}
		cfg.Compatible = &compat
	}
	if cfg.Provider == domain.ProviderPrimary {
		cfg.Compatible = nil
	}

	if err := cfg.Validate(); err != nil {
		return domain.ProviderConfiguration{}, err
	}
	if err := s.store.SaveProviderConfiguration(ctx, cfg); err != nil {
		return domain.ProviderConfiguration{}, domain.NewInternalError("Failed to save provider settings", err)
	}

	if err := s.logs.SaveLog(ctx, &domain.LogEntry{
		Type:    domain.LogTypeInfo,
		Action:  "UPDATE_PROVIDER",
		Message: "Provider set to " + string(cfg.Provider),
	}); err != nil {
		s.logger.Warn("Failed to write activity log", zap.Error(err))
	}
	return cfg.Masked(), nil
}

// ListLogs implements SettingsService
func (s *settingsService) ListLogs(ctx context.Context, limit int) ([]*domain.LogEntry, error) {
	logs, err := s.logs.ListLogs(ctx, limit)
	if err != nil {
		return nil, domain.NewInternalError("Failed to list logs", err)
	}
	return logs, nil
}

func isMasked(key string) bool {
	return strings.HasPrefix(key, "...") || (key != "" && strings.Trim(key, "*") == "")
}
