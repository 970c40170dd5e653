package domain

import (
	"context"
	"strings"
)

// ProviderKind selects which backend serves generation calls.
type ProviderKind string

const (
	ProviderPrimary    ProviderKind = "PRIMARY"
	ProviderCompatible ProviderKind = "COMPATIBLE"
)

// CompatibleSettings configures an OpenAI-compatible backend.
type CompatibleSettings struct {
	BaseURL    string `json:"baseUrl"`
	APIKey     string `json:"apiKey"`
	TextModel  string `json:"textModel"`
	ImageModel string `json:"imageModel"`
}

// ProviderConfiguration describes the active backend. It is loaded fresh
// before every generation call since an operator may change it at any time.
type ProviderConfiguration struct {
	Provider   ProviderKind        `json:"provider"`
	Compatible *CompatibleSettings `json:"compatible,omitempty"`
	FactCheck  bool                `json:"factCheck"`
}

// IsCompatible reports whether the compatible backend is selected and usable.
func (c ProviderConfiguration) IsCompatible() bool {
	return c.Provider == ProviderCompatible && c.Compatible != nil
}

// Masked returns a copy safe to return to clients.
func (c ProviderConfiguration) Masked() ProviderConfiguration {
	if c.Compatible == nil {
		return c
	}
	compat := *c.Compatible
	compat.APIKey = MaskKey(compat.APIKey)
	c.Compatible = &compat
	return c
}

// Validate checks that a compatible configuration is complete.
func (c ProviderConfiguration) Validate() error {
	switch c.Provider {
	case ProviderPrimary:
		return nil
	case ProviderCompatible:
		if c.Compatible == nil {
			return NewInvalidInputError("compatible provider settings are required")
		}
		var missing []string
		if strings.TrimSpace(c.Compatible.BaseURL) == "" {
			missing = append(missing, "baseUrl")
		}
		if strings.TrimSpace(c.Compatible.APIKey) == "" {
			missing = append(missing, "apiKey")
		}
		if strings.TrimSpace(c.Compatible.TextModel) == "" {
			missing = append(missing, "textModel")
		}
		if len(missing) > 0 {
			return NewInvalidInputError("compatible provider is missing: " + strings.Join(missing, ", "))
		}
		return nil
	default:
		return NewInvalidInputError("unknown provider: " + string(c.Provider))
	}
}

// SettingsStore persists the provider configuration.
type SettingsStore interface {
	GetProviderConfiguration(ctx context.Context) (ProviderConfiguration, error)
	SaveProviderConfiguration(ctx context.Context, cfg ProviderConfiguration) error
}

// CredentialSource yields the process-wide system credentials.
type CredentialSource interface {
	SystemCredentials() []Credential
}

// StaticCredentials is a CredentialSource over a fixed list loaded at startup.
type StaticCredentials []Credential

// SystemCredentials implements CredentialSource.
func (s StaticCredentials) SystemCredentials() []Credential {
	out := make([]Credential, len(s))
	copy(out, s)
	return out
}
