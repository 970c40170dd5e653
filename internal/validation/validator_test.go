package validation

import (
	"errors"
	"testing"

	"quiz-forge/internal/domain"
	"quiz-forge/internal/dto"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fields(t *testing.T, err error) map[string]domain.ValidationError {
	t.Helper()
	var verrs domain.ValidationErrors
	require.True(t, errors.As(err, &verrs), "expected ValidationErrors, got %v", err)
	out := make(map[string]domain.ValidationError, len(verrs))
	for _, e := range verrs {
		out[e.Field] = e
	}
	return out
}

func TestValidator_GenerateQuizRequest(t *testing.T) {
	v := NewValidator()

	valid := &dto.GenerateQuizRequest{Subject: "Math", Topic: "Fractions", QuestionCount: 5, ImageQuestionCount: 2}
	assert.NoError(t, v.Struct(valid))

	invalid := &dto.GenerateQuizRequest{
		Topic:              "Fractions",
		QuestionCount:      60,
		ImageQuestionCount: 70,
		MCOptionCount:      3,
		Types:              []string{"MULTIPLE_CHOICE", "MATCHING"},
		LanguageContext:    "XX",
	}
	got := fields(t, v.Struct(invalid))

	assert.Equal(t, "field is required", got["subject"].Message)
	assert.Equal(t, "must be at most 50", got["questionCount"].Message)
	assert.Contains(t, got, "imageQuestionCount")
	assert.Contains(t, got, "mcOptionCount")
	assert.Contains(t, got, "types[1]")
	assert.NotContains(t, got, "types[0]")
	assert.Contains(t, got["languageContext"].Message, "must be one of")
}

func TestValidator_ProviderSettingsRequest(t *testing.T) {
	v := NewValidator()

	assert.NoError(t, v.Struct(&dto.ProviderSettingsRequest{Provider: "PRIMARY"}))

	got := fields(t, v.Struct(&dto.ProviderSettingsRequest{Provider: "OTHER"}))
	assert.Contains(t, got, "provider")

	got = fields(t, v.Struct(&dto.ProviderSettingsRequest{
		Provider:   "COMPATIBLE",
		Compatible: &dto.CompatibleSettingsRequest{BaseURL: "not a url", APIKey: "k"},
	}))
	assert.Contains(t, got, "compatible.baseUrl")
	assert.Contains(t, got, "compatible.textModel")
}
