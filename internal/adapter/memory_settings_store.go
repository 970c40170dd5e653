package adapter

import (
	"context"
	"sync"

	"quiz-forge/internal/domain"
)

// MemorySettingsStore keeps the provider configuration in process memory. It is
// used by the operator CLI when no Redis is configured.
type MemorySettingsStore struct {
	mu  sync.RWMutex
	cfg domain.ProviderConfiguration
}

var _ domain.SettingsStore = (*MemorySettingsStore)(nil)

// NewMemorySettingsStore creates a store holding cfg.
func NewMemorySettingsStore(cfg domain.ProviderConfiguration) *MemorySettingsStore {
	if cfg.Provider == "" {
		cfg.Provider = domain.ProviderPrimary
	}
	return &MemorySettingsStore{cfg: cfg}
}

func (s *MemorySettingsStore) GetProviderConfiguration(_ context.Context) (domain.ProviderConfiguration, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	cfg := s.cfg
	if cfg.Compatible != nil {
		compat := *cfg.Compatible
		cfg.Compatible = &compat
	}
	return cfg, nil
}

func (s *MemorySettingsStore) SaveProviderConfiguration(_ context.Context, cfg domain.ProviderConfiguration) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cfg = cfg
	return nil
}
