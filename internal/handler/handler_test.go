package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"quiz-forge/internal/domain"
	"quiz-forge/internal/dto"
	"quiz-forge/internal/handler"
	"quiz-forge/internal/middleware"
	"quiz-forge/internal/pipeline"
	"quiz-forge/internal/placeholder"
	"quiz-forge/internal/validation"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// --- Manual Mocks ---

type MockQuizService struct {
	GenerateQuizFunc     func(ctx context.Context, req *domain.GenerationRequest, createdBy string, progress pipeline.ProgressFunc) (*domain.Quiz, error)
	GetQuizFunc          func(ctx context.Context, id string) (*domain.Quiz, error)
	GenerateImageFunc    func(ctx context.Context, prompt string, userKeys []string) string
	KeyHealthFunc        func() []domain.KeyHealthRecord
	ValidateProviderFunc func(ctx context.Context) pipeline.ProbeResult
}

func (m *MockQuizService) GenerateQuiz(ctx context.Context, req *domain.GenerationRequest, createdBy string, progress pipeline.ProgressFunc) (*domain.Quiz, error) {
	if m.GenerateQuizFunc != nil {
		return m.GenerateQuizFunc(ctx, req, createdBy, progress)
	}
	panic("MockQuizService.GenerateQuizFunc not implemented")
}

func (m *MockQuizService) GetQuiz(ctx context.Context, id string) (*domain.Quiz, error) {
	if m.GetQuizFunc != nil {
		return m.GetQuizFunc(ctx, id)
	}
	panic("MockQuizService.GetQuizFunc not implemented")
}

func (m *MockQuizService) GenerateImage(ctx context.Context, prompt string, userKeys []string) string {
	if m.GenerateImageFunc != nil {
		return m.GenerateImageFunc(ctx, prompt, userKeys)
	}
	panic("MockQuizService.GenerateImageFunc not implemented")
}

func (m *MockQuizService) KeyHealth() []domain.KeyHealthRecord {
	if m.KeyHealthFunc != nil {
		return m.KeyHealthFunc()
	}
	panic("MockQuizService.KeyHealthFunc not implemented")
}

func (m *MockQuizService) ValidateProvider(ctx context.Context) pipeline.ProbeResult {
	if m.ValidateProviderFunc != nil {
		return m.ValidateProviderFunc(ctx)
	}
	panic("MockQuizService.ValidateProviderFunc not implemented")
}

type MockSettingsService struct {
	GetProviderSettingsFunc    func(ctx context.Context) (domain.ProviderConfiguration, error)
	UpdateProviderSettingsFunc func(ctx context.Context, cfg domain.ProviderConfiguration) (domain.ProviderConfiguration, error)
	ListLogsFunc               func(ctx context.Context, limit int) ([]*domain.LogEntry, error)
}

func (m *MockSettingsService) GetProviderSettings(ctx context.Context) (domain.ProviderConfiguration, error) {
	if m.GetProviderSettingsFunc != nil {
		return m.GetProviderSettingsFunc(ctx)
	}
	panic("MockSettingsService.GetProviderSettingsFunc not implemented")
}

func (m *MockSettingsService) UpdateProviderSettings(ctx context.Context, cfg domain.ProviderConfiguration) (domain.ProviderConfiguration, error) {
	if m.UpdateProviderSettingsFunc != nil {
		return m.UpdateProviderSettingsFunc(ctx, cfg)
	}
	panic("MockSettingsService.UpdateProviderSettingsFunc not implemented")
}

func (m *MockSettingsService) ListLogs(ctx context.Context, limit int) ([]*domain.LogEntry, error) {
	if m.ListLogsFunc != nil {
		return m.ListLogsFunc(ctx, limit)
	}
	panic("MockSettingsService.ListLogsFunc not implemented")
}

func setupApp(quizSvc *MockQuizService, settingsSvc *MockSettingsService) *fiber.App {
	v := validation.NewValidator()
	app := fiber.New(fiber.Config{ErrorHandler: middleware.ErrorHandler()})
	handler.RegisterRoutes(app, handler.NewQuizHandler(quizSvc, v), handler.NewSettingsHandler(settingsSvc, v))
	return app
}

func jsonRequest(method, target string, body interface{}) *http.Request {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, target, &buf)
	req.Header.Set("Content-Type", "application/json")
	return req
}

func decode(t *testing.T, resp *http.Response, v interface{}) {
	t.Helper()
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(raw, v), string(raw))
}

func TestGenerateQuiz(t *testing.T) {
	var gotReq *domain.GenerationRequest
	var gotUser string
	quizSvc := &MockQuizService{
		GenerateQuizFunc: func(ctx context.Context, req *domain.GenerationRequest, createdBy string, progress pipeline.ProgressFunc) (*domain.Quiz, error) {
			gotReq = req
			gotUser = createdBy
			return domain.NewQuiz("01J0000000000000000000QUIZ", req, &domain.GenerationResult{
				Questions: []domain.Question{{ID: "q1", Text: "1/2 + 1/4 = ?", Type: domain.QuestionTypeMultipleChoice}},
			}, createdBy), nil
		},
	}
	app := setupApp(quizSvc, &MockSettingsService{})

	req := jsonRequest(http.MethodPost, "/api/quizzes/generate", map[string]interface{}{
		"subject":         "Math",
		"topic":           "Fractions",
		"questionCount":   1,
		"types":           []string{"MULTIPLE_CHOICE"},
		"languageContext": "EN",
		"referenceImage":  "data:image/jpeg;base64,/9j/4AAQ",
		"userCredentials": []string{"user-key-000001"},
	})
	req.Header.Set("X-User-ID", "user-7")

	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusCreated, resp.StatusCode)

	var body dto.QuizResponse
	decode(t, resp, &body)
	assert.Equal(t, "Math - Fractions", body.Title)
	assert.Equal(t, "DRAFT", body.Status)
	assert.Len(t, body.Questions, 1)

	require.NotNil(t, gotReq)
	assert.Equal(t, "user-7", gotUser)
	assert.Equal(t, domain.LanguageEnglish, gotReq.Language)
	assert.Equal(t, []domain.QuestionType{domain.QuestionTypeMultipleChoice}, gotReq.Types)
	require.NotNil(t, gotReq.ReferenceImage)
	assert.Equal(t, "image/jpeg", gotReq.ReferenceImage.MIMEType)
	assert.Equal(t, []string{"user-key-000001"}, gotReq.UserCredentials)
}

func TestGenerateQuiz_DefaultsLanguageToIndonesian(t *testing.T) {
	var gotReq *domain.GenerationRequest
	quizSvc := &MockQuizService{
		GenerateQuizFunc: func(ctx context.Context, req *domain.GenerationRequest, createdBy string, progress pipeline.ProgressFunc) (*domain.Quiz, error) {
			gotReq = req
			return nil, domain.NewGenerationError(domain.CodeGenerationExhausted, req.Language, errors.New("all throttled"))
		},
	}
	app := setupApp(quizSvc, &MockSettingsService{})

	resp, err := app.Test(jsonRequest(http.MethodPost, "/api/quizzes/generate", map[string]interface{}{
		"subject": "Biologi", "topic": "Sel", "questionCount": 3,
	}), -1)
	require.NoError(t, err)

	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
	assert.Equal(t, domain.LanguageIndonesian, gotReq.Language)
	assert.Equal(t, domain.ReadingModeNone, gotReq.ReadingMode)

	var body middleware.ErrorResponse
	decode(t, resp, &body)
	assert.Equal(t, "GENERATION_EXHAUSTED", body.Code)
	assert.Contains(t, body.Message, "kapasitas AI")
}

func TestGenerateQuiz_ValidationFailure(t *testing.T) {
	app := setupApp(&MockQuizService{}, &MockSettingsService{})

	resp, err := app.Test(jsonRequest(http.MethodPost, "/api/quizzes/generate", map[string]interface{}{
		"topic": "Fractions", "questionCount": 0,
	}), -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	var body middleware.ValidationErrorResponse
	decode(t, resp, &body)
	assert.Equal(t, "VALIDATION_ERROR", body.Code)
	assert.NotEmpty(t, body.Errors)
}

func TestGenerateQuiz_BadReferenceImage(t *testing.T) {
	app := setupApp(&MockQuizService{}, &MockSettingsService{})

	resp, err := app.Test(jsonRequest(http.MethodPost, "/api/quizzes/generate", map[string]interface{}{
		"subject": "Math", "topic": "Fractions", "questionCount": 1, "referenceImage": "%%%not-base64",
	}), -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestGenerateQuiz_MalformedBody(t *testing.T) {
	app := setupApp(&MockQuizService{}, &MockSettingsService{})

	req := httptest.NewRequest(http.MethodPost, "/api/quizzes/generate", bytes.NewBufferString("{"))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestGetQuiz(t *testing.T) {
	quizSvc := &MockQuizService{
		GetQuizFunc: func(ctx context.Context, id string) (*domain.Quiz, error) {
			if id == "missing" {
				return nil, domain.NewQuizNotFoundError(id)
			}
			return &domain.Quiz{ID: id, Title: "T", Status: domain.QuizStatusDraft}, nil
		},
	}
	app := setupApp(quizSvc, &MockSettingsService{})

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/api/quizzes/abc", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, err = app.Test(httptest.NewRequest(http.MethodGet, "/api/quizzes/missing", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestGenerateImage_FlagsPlaceholder(t *testing.T) {
	quizSvc := &MockQuizService{
		GenerateImageFunc: func(ctx context.Context, prompt string, userKeys []string) string {
			return placeholder.SVGDataURI(prompt)
		},
	}
	app := setupApp(quizSvc, &MockSettingsService{})

	resp, err := app.Test(jsonRequest(http.MethodPost, "/api/images", map[string]string{"prompt": "a volcano"}), -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var body dto.ImageResponse
	decode(t, resp, &body)
	assert.True(t, body.Placeholder)
	assert.Contains(t, body.Image, "data:image/svg+xml;base64,")

	resp, err = app.Test(jsonRequest(http.MethodPost, "/api/images", map[string]string{"prompt": ""}), -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestGetKeyHealth(t *testing.T) {
	quizSvc := &MockQuizService{
		KeyHealthFunc: func() []domain.KeyHealthRecord {
			return []domain.KeyHealthRecord{{MaskedID: "...abcd", Origin: domain.KeyOriginSystem, UsageCount: 3, Status: domain.KeyStatusRateLimited}}
		},
	}
	app := setupApp(quizSvc, &MockSettingsService{})

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/api/keys/health", nil))
	require.NoError(t, err)

	var body dto.KeyHealthResponse
	decode(t, resp, &body)
	require.Len(t, body.Keys, 1)
	assert.Equal(t, domain.KeyStatusRateLimited, body.Keys[0].Status)
	assert.Equal(t, "...abcd", body.Keys[0].MaskedID)
}

func TestValidateProvider(t *testing.T) {
	quizSvc := &MockQuizService{
		ValidateProviderFunc: func(ctx context.Context) pipeline.ProbeResult {
			return pipeline.ProbeResult{Success: true, Message: "ok", LatencyMs: 120, KeyCount: 2, Provider: "gemini"}
		},
	}
	app := setupApp(quizSvc, &MockSettingsService{})

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/api/provider/validate", nil))
	require.NoError(t, err)

	var body pipeline.ProbeResult
	decode(t, resp, &body)
	assert.True(t, body.Success)
	assert.Equal(t, 2, body.KeyCount)
}

func TestProviderSettings(t *testing.T) {
	var saved domain.ProviderConfiguration
	settingsSvc := &MockSettingsService{
		GetProviderSettingsFunc: func(ctx context.Context) (domain.ProviderConfiguration, error) {
			return domain.ProviderConfiguration{Provider: domain.ProviderPrimary}, nil
		},
		UpdateProviderSettingsFunc: func(ctx context.Context, cfg domain.ProviderConfiguration) (domain.ProviderConfiguration, error) {
			saved = cfg
			return cfg.Masked(), nil
		},
	}
	app := setupApp(&MockQuizService{}, settingsSvc)

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/api/settings/provider", nil))
	require.NoError(t, err)
	var got domain.ProviderConfiguration
	decode(t, resp, &got)
	assert.Equal(t, domain.ProviderPrimary, got.Provider)

	resp, err = app.Test(jsonRequest(http.MethodPut, "/api/settings/provider", map[string]interface{}{
		"provider": "COMPATIBLE",
		"compatible": map[string]string{
			"baseUrl":   "http://localhost:11434/v1",
			"apiKey":    "sk-local-abcd1234",
			"textModel": "llama3",
		},
	}), -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	decode(t, resp, &got)
	assert.Equal(t, "...1234", got.Compatible.APIKey)
	assert.Equal(t, "sk-local-abcd1234", saved.Compatible.APIKey)
}

func TestListLogs(t *testing.T) {
	var gotLimit int
	settingsSvc := &MockSettingsService{
		ListLogsFunc: func(ctx context.Context, limit int) ([]*domain.LogEntry, error) {
			gotLimit = limit
			return []*domain.LogEntry{{ID: "1", Type: domain.LogTypeSuccess, Action: "GENERATE_QUIZ"}}, nil
		},
	}
	app := setupApp(&MockQuizService{}, settingsSvc)

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/api/logs?limit=5", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, 5, gotLimit)

	var body dto.LogListResponse
	decode(t, resp, &body)
	require.Len(t, body.Logs, 1)

	resp, err = app.Test(httptest.NewRequest(http.MethodGet, "/api/logs", nil))
	require.NoError(t, err)
	assert.Equal(t, 50, gotLimit)
}

func TestMetricsEndpoint(t *testing.T) {
	app := setupApp(&MockQuizService{}, &MockSettingsService{})

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}
