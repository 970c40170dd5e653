package pipeline

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"quiz-forge/internal/domain"
	"quiz-forge/internal/keyhealth"
	"quiz-forge/internal/provider"
	"quiz-forge/internal/rotation"
)

type textCall struct {
	Cred domain.Credential
	Req  provider.TextRequest
}

// mockAdapter is a provider.Adapter driven by function fields.
type mockAdapter struct {
	name    string
	TextFn  func(cred domain.Credential, req provider.TextRequest) (*provider.TextResponse, error)
	ImageFn func(cred domain.Credential, prompt string) (string, error)

	mu         sync.Mutex
	textCalls  []textCall
	imageCalls []string
}

func (m *mockAdapter) Name() string {
	if m.name == "" {
		return "mock"
	}
	return m.name
}

func (m *mockAdapter) GenerateText(_ context.Context, cred domain.Credential, req provider.TextRequest) (*provider.TextResponse, error) {
	m.mu.Lock()
	m.textCalls = append(m.textCalls, textCall{Cred: cred, Req: req})
	m.mu.Unlock()
	if m.TextFn == nil {
		return nil, errors.New("GenerateText not mocked")
	}
	return m.TextFn(cred, req)
}

func (m *mockAdapter) GenerateImage(_ context.Context, cred domain.Credential, prompt string) (string, error) {
	m.mu.Lock()
	m.imageCalls = append(m.imageCalls, cred.Value)
	m.mu.Unlock()
	if m.ImageFn == nil {
		return "", errors.New("GenerateImage not mocked")
	}
	return m.ImageFn(cred, prompt)
}

func (m *mockAdapter) TextCalls() []textCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]textCall(nil), m.textCalls...)
}

func (m *mockAdapter) ImageCalls() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.imageCalls...)
}

type mockSettingsStore struct {
	cfg domain.ProviderConfiguration
	err error
}

func (m *mockSettingsStore) GetProviderConfiguration(context.Context) (domain.ProviderConfiguration, error) {
	return m.cfg, m.err
}

func (m *mockSettingsStore) SaveProviderConfiguration(_ context.Context, cfg domain.ProviderConfiguration) error {
	m.cfg = cfg
	return nil
}

// memoryCache is an in-memory domain.Cache.
type memoryCache struct {
	mu   sync.Mutex
	data map[string]string
	sets int
}

func newMemoryCache() *memoryCache {
	return &memoryCache{data: make(map[string]string)}
}

func (c *memoryCache) Get(_ context.Context, key string) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.data[key]
	if !ok {
		return "", domain.ErrCacheMiss
	}
	return v, nil
}

func (c *memoryCache) Set(_ context.Context, key, value string, _ time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data[key] = value
	c.sets++
	return nil
}

func (c *memoryCache) HGetAll(context.Context, string) (map[string]string, error) {
	return nil, domain.ErrCacheMiss
}

func (c *memoryCache) HSet(context.Context, string, map[string]string) error { return nil }

type fixture struct {
	pipeline   *Pipeline
	registry   *keyhealth.Registry
	primary    *mockAdapter
	compatible *mockAdapter
	settings   *mockSettingsStore
}

func newFixture(t *testing.T, systemKeys []string, opts ...Option) *fixture {
	t.Helper()
	reg := keyhealth.NewRegistry()
	cfg := rotation.DefaultConfig()
	cfg.AttemptTimeout = 0
	exec := rotation.NewExecutor(reg, cfg, rotation.WithSleep(func(context.Context, time.Duration) error { return nil }))

	var system domain.StaticCredentials
	for _, k := range systemKeys {
		system = append(system, domain.Credential{Value: k, Origin: domain.KeyOriginSystem})
	}

	f := &fixture{
		registry:   reg,
		primary:    &mockAdapter{name: "gemini"},
		compatible: &mockAdapter{name: "compatible"},
		settings:   &mockSettingsStore{cfg: domain.ProviderConfiguration{Provider: domain.ProviderPrimary}},
	}
	f.pipeline = New(exec, f.settings, system, f.primary,
		func(domain.CompatibleSettings) provider.Adapter { return f.compatible },
		DefaultConfig(), opts...)
	return f
}

func (f *fixture) useCompatible() {
	f.settings.cfg = domain.ProviderConfiguration{
		Provider: domain.ProviderCompatible,
		Compatible: &domain.CompatibleSettings{
			BaseURL:    "http://compat.local/v1",
			APIKey:     "sk-compatible-key",
			TextModel:  "text-model",
			ImageModel: "image-model",
		},
	}
}

func stop(text string) (*provider.TextResponse, error) {
	return &provider.TextResponse{Text: text, FinishReason: "STOP", NormalStop: true}, nil
}

func throttledErr() error {
	return &provider.Error{Kind: provider.KindThrottled, StatusCode: 429, Provider: "mock", Err: errors.New("RESOURCE_EXHAUSTED")}
}

type qm map[string]any

// quizJSON renders a provider response with the given questions and a
// parallel blueprint.
func quizJSON(t *testing.T, questions ...qm) string {
	t.Helper()
	blueprint := make([]map[string]any, 0, len(questions))
	for i, qq := range questions {
		blueprint = append(blueprint, map[string]any{
			"questionNumber": i + 1,
			"competency":     "competency " + qq["text"].(string),
			"indicator":      "indicator",
			"cognitiveLevel": "C2",
		})
	}
	raw, err := json.Marshal(map[string]any{"questions": questions, "blueprint": blueprint})
	if err != nil {
		t.Fatal(err)
	}
	return string(raw)
}

func baseRequest() *domain.GenerationRequest {
	return &domain.GenerationRequest{
		SubjectCategory: "Umum",
		Subject:         "Bahasa Indonesia",
		Level:           "SMP",
		Grade:           "8",
		Topic:           "Teks Eksposisi",
		QuestionCount:   2,
		MCOptionCount:   4,
		Types:           []domain.QuestionType{domain.QuestionTypeMultipleChoice},
		Difficulty:      domain.DifficultyMedium,
		Language:        domain.LanguageIndonesian,
		ReadingMode:     domain.ReadingModeNone,
	}
}
