package provider

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"quiz-forge/internal/domain"

	"google.golang.org/genai"
)

const geminiProviderName = "gemini"

// GeminiConfig configures the primary backend.
type GeminiConfig struct {
	TextModel  string
	ImageModel string
	// BaseURL overrides the API endpoint, mainly for tests.
	BaseURL    string
	HTTPClient *http.Client
}

// GeminiAdapter is the primary, credential-pool based backend. It issues
// schema-constrained generation calls.
type GeminiAdapter struct {
	cfg GeminiConfig
}

var _ Adapter = (*GeminiAdapter)(nil)

// NewGeminiAdapter creates a new GeminiAdapter.
func NewGeminiAdapter(cfg GeminiConfig) *GeminiAdapter {
	return &GeminiAdapter{cfg: cfg}
}

func (g *GeminiAdapter) Name() string {
	return geminiProviderName
}

func (g *GeminiAdapter) client(ctx context.Context, cred domain.Credential) (*genai.Client, error) {
	cc := &genai.ClientConfig{
		APIKey:     cred.Value,
		Backend:    genai.BackendGeminiAPI,
		HTTPClient: g.cfg.HTTPClient,
	}
	if g.cfg.BaseURL != "" {
		cc.HTTPOptions = genai.HTTPOptions{BaseURL: g.cfg.BaseURL}
	}
	client, err := genai.NewClient(ctx, cc)
	if err != nil {
		return nil, Classify(geminiProviderName, 0, fmt.Errorf("failed to create gemini client: %w", err))
	}
	return client, nil
}

// GenerateText implements Adapter.
func (g *GeminiAdapter) GenerateText(ctx context.Context, cred domain.Credential, req TextRequest) (*TextResponse, error) {
	client, err := g.client(ctx, cred)
	if err != nil {
		return nil, err
	}

	parts := []*genai.Part{}
	if req.ReferenceImage != nil && len(req.ReferenceImage.Data) > 0 {
		parts = append(parts, genai.NewPartFromBytes(req.ReferenceImage.Data, req.ReferenceImage.MIMEType))
	}
	parts = append(parts, genai.NewPartFromText(req.Prompt))

	config := &genai.GenerateContentConfig{}
	if req.SystemInstruction != "" {
		config.SystemInstruction = genai.NewContentFromText(req.SystemInstruction, genai.RoleUser)
	}
	if req.Schema != nil {
		config.ResponseMIMEType = "application/json"
		config.ResponseSchema = toGenaiSchema(req.Schema)
	} else if req.JSONMode {
		config.ResponseMIMEType = "application/json"
	}

	resp, err := client.Models.GenerateContent(ctx, g.cfg.TextModel,
		[]*genai.Content{genai.NewContentFromParts(parts, genai.RoleUser)}, config)
	if err != nil {
		return nil, classifyGenaiError(err)
	}

	out := &TextResponse{}
	if len(resp.Candidates) == 0 || resp.Candidates[0] == nil {
		return out, nil
	}
	cand := resp.Candidates[0]
	out.FinishReason = string(cand.FinishReason)
	out.NormalStop = cand.FinishReason == genai.FinishReasonStop
	if cand.Content != nil {
		var sb strings.Builder
		for _, p := range cand.Content.Parts {
			if p == nil || p.Thought {
				continue
			}
			sb.WriteString(p.Text)
		}
		out.Text = sb.String()
	}
	return out, nil
}

// GenerateImage implements Adapter. The image is returned as a data URI.
func (g *GeminiAdapter) GenerateImage(ctx context.Context, cred domain.Credential, prompt string) (string, error) {
	client, err := g.client(ctx, cred)
	if err != nil {
		return "", err
	}

	resp, err := client.Models.GenerateContent(ctx, g.cfg.ImageModel,
		[]*genai.Content{genai.NewContentFromText(prompt, genai.RoleUser)},
		&genai.GenerateContentConfig{ResponseModalities: []string{"TEXT", "IMAGE"}})
	if err != nil {
		return "", classifyGenaiError(err)
	}

	for _, cand := range resp.Candidates {
		if cand == nil || cand.Content == nil {
			continue
		}
		for _, p := range cand.Content.Parts {
			if p != nil && p.InlineData != nil && len(p.InlineData.Data) > 0 {
				return DataURI(p.InlineData.MIMEType, p.InlineData.Data), nil
			}
		}
	}
	return "", &Error{Kind: KindUnknown, Provider: geminiProviderName, Err: errors.New("response contained no image data")}
}

func classifyGenaiError(err error) error {
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		return Classify(geminiProviderName, apiErr.Code, err)
	}
	var apiErrPtr *genai.APIError
	if errors.As(err, &apiErrPtr) {
		return Classify(geminiProviderName, apiErrPtr.Code, err)
	}
	return Classify(geminiProviderName, 0, err)
}

func toGenaiSchema(s *Schema) *genai.Schema {
	if s == nil {
		return nil
	}
	out := &genai.Schema{
		Description: s.Description,
		Required:    s.Required,
		Enum:        s.Enum,
		Items:       toGenaiSchema(s.Items),
	}
	switch s.Type {
	case TypeObject:
		out.Type = genai.TypeObject
	case TypeArray:
		out.Type = genai.TypeArray
	case TypeInteger:
		out.Type = genai.TypeInteger
	case TypeBoolean:
		out.Type = genai.TypeBoolean
	default:
		out.Type = genai.TypeString
	}
	if len(s.Properties) > 0 {
		out.Properties = make(map[string]*genai.Schema, len(s.Properties))
		for name, prop := range s.Properties {
			out.Properties[name] = toGenaiSchema(prop)
		}
	}
	return out
}
