package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"quiz-forge/internal/domain"
	"quiz-forge/internal/pipeline"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeGenerator struct {
	result   *domain.GenerationResult
	err      error
	probe    pipeline.ProbeResult
	health   []domain.KeyHealthRecord
	gotReq   *domain.GenerationRequest
	imageRun bool
}

func (f *fakeGenerator) GenerateQuizContent(ctx context.Context, req *domain.GenerationRequest) (*domain.GenerationResult, error) {
	f.gotReq = req
	return f.result, f.err
}

func (f *fakeGenerator) GenerateImages(ctx context.Context, questions []domain.Question, userKeys []string, progress pipeline.ProgressFunc) {
	f.imageRun = true
	for i := range questions {
		questions[i].ImageURL = "data:image/png;base64,AA=="
	}
	progress(1, 1)
}

func (f *fakeGenerator) KeyHealth() []domain.KeyHealthRecord { return f.health }

func (f *fakeGenerator) ValidateConnection(ctx context.Context) pipeline.ProbeResult { return f.probe }

func run(t *testing.T, gen *fakeGenerator, args ...string) (string, string, error) {
	t.Helper()
	root := NewRootCmd(func(ctx context.Context) (Generator, error) { return gen, nil })
	var stdout, stderr bytes.Buffer
	root.SetOut(&stdout)
	root.SetErr(&stderr)
	root.SetArgs(args)
	err := root.ExecuteContext(context.Background())
	return stdout.String(), stderr.String(), err
}

func TestProbe(t *testing.T) {
	gen := &fakeGenerator{probe: pipeline.ProbeResult{Success: true, Message: "ok", Provider: "gemini", KeyCount: 3}}

	out, _, err := run(t, gen, "probe")
	require.NoError(t, err)

	var res pipeline.ProbeResult
	require.NoError(t, json.Unmarshal([]byte(out), &res))
	assert.Equal(t, 3, res.KeyCount)

	gen.probe = pipeline.ProbeResult{Success: false, Message: "no keys configured"}
	_, _, err = run(t, gen, "probe")
	assert.ErrorContains(t, err, "no keys configured")
}

func TestGenerate(t *testing.T) {
	now := time.Now()
	gen := &fakeGenerator{
		result: &domain.GenerationResult{Questions: []domain.Question{{ID: "q1", Text: "H2O is?", HasImage: true, ImagePrompt: "water"}}},
		health: []domain.KeyHealthRecord{{MaskedID: "...abcd", Origin: domain.KeyOriginSystem, Status: domain.KeyStatusError, ErrorCount: 1, LastErrorAt: &now}},
	}

	material := filepath.Join(t.TempDir(), "material.txt")
	require.NoError(t, os.WriteFile(material, []byte("Water is a molecule."), 0o600))

	out, errOut, err := run(t, gen, "generate",
		"--subject", "Chemistry", "--topic", "Molecules", "-n", "1", "--images", "1",
		"--types", "multiple_choice", "--lang", "en", "--material", material,
		"--user-key", "user-key-000001")
	require.NoError(t, err)

	require.NotNil(t, gen.gotReq)
	assert.Equal(t, domain.LanguageEnglish, gen.gotReq.Language)
	assert.Equal(t, []domain.QuestionType{domain.QuestionTypeMultipleChoice}, gen.gotReq.Types)
	assert.Equal(t, "Water is a molecule.", gen.gotReq.MaterialText)
	assert.Equal(t, []string{"user-key-000001"}, gen.gotReq.UserCredentials)
	assert.True(t, gen.imageRun)

	var result domain.GenerationResult
	require.NoError(t, json.Unmarshal([]byte(out), &result))
	assert.Equal(t, "data:image/png;base64,AA==", result.Questions[0].ImageURL)

	assert.Contains(t, errOut, "images 1/1")
	assert.Contains(t, errOut, "...abcd")
	assert.Contains(t, errOut, "ERROR")
}

func TestGenerate_InvalidRequestFailsBeforeCallingProvider(t *testing.T) {
	gen := &fakeGenerator{}

	_, _, err := run(t, gen, "generate", "--subject", "Chemistry", "--topic", "Molecules", "-n", "0")

	var verrs domain.ValidationErrors
	require.True(t, errors.As(err, &verrs))
	assert.Nil(t, gen.gotReq)
}

func TestGenerate_FailurePrintsKeyHealth(t *testing.T) {
	gen := &fakeGenerator{
		err:    domain.NewGenerationError(domain.CodeGenerationExhausted, domain.LanguageEnglish, nil),
		health: []domain.KeyHealthRecord{{MaskedID: "...wxyz", Status: domain.KeyStatusRateLimited}},
	}

	_, errOut, err := run(t, gen, "generate", "--subject", "S", "--topic", "T", "--no-images")
	assert.Error(t, err)
	assert.Contains(t, errOut, "RATE_LIMITED")
}

func TestGenerate_FactCheckFlagMarksChoice(t *testing.T) {
	gen := &fakeGenerator{result: &domain.GenerationResult{}}

	_, _, err := run(t, gen, "generate", "--subject", "S", "--topic", "T", "--no-images")
	require.NoError(t, err)
	assert.False(t, gen.gotReq.FactCheckSet)

	_, _, err = run(t, gen, "generate", "--subject", "S", "--topic", "T", "--no-images", "--fact-check=false")
	require.NoError(t, err)
	assert.True(t, gen.gotReq.FactCheckSet)
	assert.False(t, gen.gotReq.FactCheck)
}
