package provider

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"quiz-forge/internal/domain"

	"github.com/sashabaranov/go-openai"
)

const compatibleProviderName = "compatible"

// CompatibleAdapter talks to any OpenAI-compatible backend configured by base
// URL, key and model names.
type CompatibleAdapter struct {
	settings   domain.CompatibleSettings
	httpClient *http.Client
}

var _ Adapter = (*CompatibleAdapter)(nil)

// NewCompatibleAdapter creates a new CompatibleAdapter. A nil httpClient uses
// the library default.
func NewCompatibleAdapter(settings domain.CompatibleSettings, httpClient *http.Client) *CompatibleAdapter {
	return &CompatibleAdapter{settings: settings, httpClient: httpClient}
}

func (a *CompatibleAdapter) Name() string {
	return compatibleProviderName
}

func (a *CompatibleAdapter) client(cred domain.Credential) *openai.Client {
	config := openai.DefaultConfig(cred.Value)
	config.BaseURL = strings.TrimRight(a.settings.BaseURL, "/")
	if a.httpClient != nil {
		config.HTTPClient = a.httpClient
	}
	return openai.NewClientWithConfig(config)
}

// GenerateText implements Adapter. When JSON mode is requested and the backend
// rejects response_format, the call is repeated once without it.
func (a *CompatibleAdapter) GenerateText(ctx context.Context, cred domain.Credential, req TextRequest) (*TextResponse, error) {
	client := a.client(cred)

	chatReq := openai.ChatCompletionRequest{
		Model:    a.settings.TextModel,
		Messages: a.messages(req),
	}
	if req.JSONMode || req.Schema != nil {
		chatReq.ResponseFormat = &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		}
	}

	resp, err := client.CreateChatCompletion(ctx, chatReq)
	if err != nil && chatReq.ResponseFormat != nil && rejectsResponseFormat(err) {
		chatReq.ResponseFormat = nil
		resp, err = client.CreateChatCompletion(ctx, chatReq)
	}
	if err != nil {
		return nil, classifyOpenAIError(err)
	}

	out := &TextResponse{}
	if len(resp.Choices) == 0 {
		return out, nil
	}
	choice := resp.Choices[0]
	out.Text = choice.Message.Content
	out.FinishReason = string(choice.FinishReason)
	out.NormalStop = choice.FinishReason == openai.FinishReasonStop
	return out, nil
}

func (a *CompatibleAdapter) messages(req TextRequest) []openai.ChatCompletionMessage {
	var msgs []openai.ChatCompletionMessage
	if req.SystemInstruction != "" {
		msgs = append(msgs, openai.ChatCompletionMessage{
			Role:    openai.ChatMessageRoleSystem,
			Content: req.SystemInstruction,
		})
	}

	if req.ReferenceImage == nil || len(req.ReferenceImage.Data) == 0 {
		return append(msgs, openai.ChatCompletionMessage{
			Role:    openai.ChatMessageRoleUser,
			Content: req.Prompt,
		})
	}
	return append(msgs, openai.ChatCompletionMessage{
		Role: openai.ChatMessageRoleUser,
		MultiContent: []openai.ChatMessagePart{
			{Type: openai.ChatMessagePartTypeText, Text: req.Prompt},
			{
				Type: openai.ChatMessagePartTypeImageURL,
				ImageURL: &openai.ChatMessageImageURL{
					URL:    DataURI(req.ReferenceImage.MIMEType, req.ReferenceImage.Data),
					Detail: openai.ImageURLDetailAuto,
				},
			},
		},
	})
}

// GenerateImage implements Adapter. Base64 output is requested; a hosted URL is
// returned only when that is all the backend provides.
func (a *CompatibleAdapter) GenerateImage(ctx context.Context, cred domain.Credential, prompt string) (string, error) {
	model := a.settings.ImageModel
	if model == "" {
		model = openai.CreateImageModelDallE3
	}

	resp, err := a.client(cred).CreateImage(ctx, openai.ImageRequest{
		Prompt:         prompt,
		Model:          model,
		N:              1,
		Size:           openai.CreateImageSize1024x1024,
		ResponseFormat: openai.CreateImageResponseFormatB64JSON,
	})
	if err != nil {
		return "", classifyOpenAIError(err)
	}

	for _, d := range resp.Data {
		if d.B64JSON != "" {
			return "data:image/png;base64," + d.B64JSON, nil
		}
	}
	for _, d := range resp.Data {
		if d.URL != "" {
			return d.URL, nil
		}
	}
	return "", &Error{Kind: KindUnknown, Provider: compatibleProviderName, Err: errors.New("response contained no image data")}
}

func openAIStatus(err error) int {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return apiErr.HTTPStatusCode
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		return reqErr.HTTPStatusCode
	}
	return 0
}

func rejectsResponseFormat(err error) bool {
	if openAIStatus(err) == http.StatusBadRequest {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "response_format") || strings.Contains(msg, "unsupported")
}

func classifyOpenAIError(err error) error {
	return Classify(compatibleProviderName, openAIStatus(err), err)
}
