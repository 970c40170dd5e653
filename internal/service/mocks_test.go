package service

import (
	"context"

	"quiz-forge/internal/domain"
	"quiz-forge/internal/pipeline"

	"github.com/stretchr/testify/mock"
)

// --- MockContentGenerator ---
type MockContentGenerator struct {
	mock.Mock
}

func (m *MockContentGenerator) GenerateQuizContent(ctx context.Context, req *domain.GenerationRequest) (*domain.GenerationResult, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.GenerationResult), args.Error(1)
}

func (m *MockContentGenerator) GenerateImages(ctx context.Context, questions []domain.Question, userKeys []string, progress pipeline.ProgressFunc) {
	m.Called(ctx, questions, userKeys, progress)
}

func (m *MockContentGenerator) GenerateImageForQuestion(ctx context.Context, prompt string, userKeys []string) string {
	args := m.Called(ctx, prompt, userKeys)
	return args.String(0)
}

func (m *MockContentGenerator) KeyHealth() []domain.KeyHealthRecord {
	args := m.Called()
	if args.Get(0) == nil {
		return nil
	}
	return args.Get(0).([]domain.KeyHealthRecord)
}

func (m *MockContentGenerator) ValidateConnection(ctx context.Context) pipeline.ProbeResult {
	args := m.Called(ctx)
	return args.Get(0).(pipeline.ProbeResult)
}

// --- MockQuizRepository ---
type MockQuizRepository struct {
	mock.Mock
}

func (m *MockQuizRepository) SaveQuiz(ctx context.Context, quiz *domain.Quiz) error {
	args := m.Called(ctx, quiz)
	return args.Error(0)
}

func (m *MockQuizRepository) GetQuizByID(ctx context.Context, id string) (*domain.Quiz, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Quiz), args.Error(1)
}

// --- MockLogRepository ---
type MockLogRepository struct {
	mock.Mock
}

func (m *MockLogRepository) SaveLog(ctx context.Context, entry *domain.LogEntry) error {
	args := m.Called(ctx, entry)
	return args.Error(0)
}

func (m *MockLogRepository) ListLogs(ctx context.Context, limit int) ([]*domain.LogEntry, error) {
	args := m.Called(ctx, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.LogEntry), args.Error(1)
}

// --- MockTransactionManager ---
// MockTransactionManager runs fn directly and records the call.
type MockTransactionManager struct {
	mock.Mock
}

func (m *MockTransactionManager) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	m.Called(ctx)
	return fn(ctx)
}

// --- MockSettingsStore ---
type MockSettingsStore struct {
	mock.Mock
}

func (m *MockSettingsStore) GetProviderConfiguration(ctx context.Context) (domain.ProviderConfiguration, error) {
	args := m.Called(ctx)
	return args.Get(0).(domain.ProviderConfiguration), args.Error(1)
}

func (m *MockSettingsStore) SaveProviderConfiguration(ctx context.Context, cfg domain.ProviderConfiguration) error {
	args := m.Called(ctx, cfg)
	return args.Error(0)
}

// logOfType matches a *domain.LogEntry by type.
func logOfType(t domain.LogType) interface{} {
	return mock.MatchedBy(func(e *domain.LogEntry) bool { return e != nil && e.Type == t })
}
