package dto

import (
	"strings"
	"time"

	"quiz-forge/internal/domain"
	"quiz-forge/internal/provider"
)

// GenerateQuizRequest is the body of POST /api/quizzes/generate.
type GenerateQuizRequest struct {
	SubjectCategory    string   `json:"subjectCategory" validate:"max=255"`
	Subject            string   `json:"subject" validate:"required,max=255"`
	Level              string   `json:"level" validate:"max=100"`
	Grade              string   `json:"grade" validate:"max=100"`
	Topic              string   `json:"topic" validate:"required,max=512"`
	SubTopic           string   `json:"subTopic" validate:"max=512"`
	MaterialText       string   `json:"materialText" validate:"max=50000"`
	ReferenceImage     string   `json:"referenceImage"`
	QuestionCount      int      `json:"questionCount" validate:"min=1,max=50"`
	MCOptionCount      int      `json:"mcOptionCount" validate:"omitempty,oneof=4 5"`
	ImageQuestionCount int      `json:"imageQuestionCount" validate:"min=0,ltefield=QuestionCount"`
	Types              []string `json:"types" validate:"dive,oneof=MULTIPLE_CHOICE COMPLEX_MULTIPLE_CHOICE TRUE_FALSE SHORT_ANSWER ESSAY"`
	Difficulty         string   `json:"difficulty" validate:"omitempty,oneof=EASY MEDIUM HARD"`
	CognitiveLevels    []string `json:"cognitiveLevels" validate:"dive,oneof=C1 C2 C3 C4 C5 C6"`
	LanguageContext    string   `json:"languageContext" validate:"omitempty,oneof=ID EN AR JP KR CN DE FR"`
	ReadingMode        string   `json:"readingMode" validate:"omitempty,oneof=none per_question grouped"`
	FactCheck          *bool    `json:"factCheck"`
	UserCredentials    []string `json:"userCredentials" validate:"max=20"`
}

// ToDomain converts the request. The reference image may be a data URI or
// bare base64.
func (r *GenerateQuizRequest) ToDomain() (*domain.GenerationRequest, error) {
	req := &domain.GenerationRequest{
		SubjectCategory:    r.SubjectCategory,
		Subject:            strings.TrimSpace(r.Subject),
		Level:              r.Level,
		Grade:              r.Grade,
		Topic:              strings.TrimSpace(r.Topic),
		SubTopic:           r.SubTopic,
		MaterialText:       r.MaterialText,
		QuestionCount:      r.QuestionCount,
		MCOptionCount:      r.MCOptionCount,
		ImageQuestionCount: r.ImageQuestionCount,
		Difficulty:         domain.Difficulty(r.Difficulty),
		Language:           domain.LanguageContext(r.LanguageContext),
		ReadingMode:        domain.ReadingMode(r.ReadingMode),
		UserCredentials:    r.UserCredentials,
	}
	if req.Language == "" {
		req.Language = domain.LanguageIndonesian
	}
	if req.ReadingMode == "" {
		req.ReadingMode = domain.ReadingModeNone
	}
	if r.FactCheck != nil {
		req.FactCheck = *r.FactCheck
		req.FactCheckSet = true
	}
	for _, t := range r.Types {
		req.Types = append(req.Types, domain.QuestionType(t))
	}
	for _, l := range r.CognitiveLevels {
		req.CognitiveLevels = append(req.CognitiveLevels, domain.CognitiveLevel(l))
	}
	if strings.TrimSpace(r.ReferenceImage) != "" {
		img, err := provider.ParseDataURI(r.ReferenceImage)
		if err != nil {
			return nil, err
		}
		req.ReferenceImage = img
	}
	return req, nil
}

// QuizResponse is a stored quiz as returned by the API.
type QuizResponse struct {
	ID              string                 `json:"id"`
	Title           string                 `json:"title"`
	SubjectCategory string                 `json:"subjectCategory,omitempty"`
	Subject         string                 `json:"subject"`
	Level           string                 `json:"level,omitempty"`
	Grade           string                 `json:"grade,omitempty"`
	Topic           string                 `json:"topic"`
	SubTopic        string                 `json:"subTopic,omitempty"`
	Status          string                 `json:"status"`
	IsPublic        bool                   `json:"isPublic"`
	Questions       []domain.Question      `json:"questions"`
	Blueprint       []domain.BlueprintItem `json:"blueprint"`
	CreatedBy       string                 `json:"createdBy,omitempty"`
	CreatedAt       time.Time              `json:"createdAt"`
}

// NewQuizResponse converts a domain quiz.
func NewQuizResponse(q *domain.Quiz) *QuizResponse {
	return &QuizResponse{
		ID:              q.ID,
		Title:           q.Title,
		SubjectCategory: q.SubjectCategory,
		Subject:         q.Subject,
		Level:           q.Level,
		Grade:           q.Grade,
		Topic:           q.Topic,
		SubTopic:        q.SubTopic,
		Status:          string(q.Status),
		IsPublic:        q.IsPublic,
		Questions:       q.Questions,
		Blueprint:       q.Blueprint,
		CreatedBy:       q.CreatedBy,
		CreatedAt:       q.CreatedAt,
	}
}

// ImageRequest is the body of POST /api/images.
type ImageRequest struct {
	Prompt          string   `json:"prompt" validate:"required,max=4000"`
	UserCredentials []string `json:"userCredentials" validate:"max=20"`
}

// ImageResponse carries a data URI or URL. Placeholder images are flagged.
type ImageResponse struct {
	Image       string `json:"image"`
	Placeholder bool   `json:"placeholder"`
}

// KeyHealthResponse lists the health of every observed credential.
type KeyHealthResponse struct {
	Keys []domain.KeyHealthRecord `json:"keys"`
}

// ProviderSettingsRequest is the body of PUT /api/settings/provider. A
// COMPATIBLE provider without settings is rejected by the domain validation.
type ProviderSettingsRequest struct {
	Provider   string                     `json:"provider" validate:"required,oneof=PRIMARY COMPATIBLE"`
	Compatible *CompatibleSettingsRequest `json:"compatible" validate:"omitempty"`
	FactCheck  bool                       `json:"factCheck"`
}

// CompatibleSettingsRequest configures an OpenAI-compatible backend.
type CompatibleSettingsRequest struct {
	BaseURL    string `json:"baseUrl" validate:"required,url"`
	APIKey     string `json:"apiKey" validate:"required"`
	TextModel  string `json:"textModel" validate:"required"`
	ImageModel string `json:"imageModel"`
}

// ToDomain converts the request.
func (r *ProviderSettingsRequest) ToDomain() domain.ProviderConfiguration {
	cfg := domain.ProviderConfiguration{
		Provider:  domain.ProviderKind(r.Provider),
		FactCheck: r.FactCheck,
	}
	if r.Compatible != nil {
		cfg.Compatible = &domain.CompatibleSettings{
			BaseURL:    strings.TrimSpace(r.Compatible.BaseURL),
			APIKey:     strings.TrimSpace(r.Compatible.APIKey),
			TextModel:  strings.TrimSpace(r.Compatible.TextModel),
			ImageModel: strings.TrimSpace(r.Compatible.ImageModel),
		}
	}
	return cfg
}

// LogListResponse is the body of GET /api/logs.
type LogListResponse struct {
	Logs []*domain.LogEntry `json:"logs"`
}
