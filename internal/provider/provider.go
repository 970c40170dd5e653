package provider

import (
	"context"
	"encoding/base64"
	"strings"

	"quiz-forge/internal/domain"
)

// SchemaType is a JSON schema primitive understood by every backend.
type SchemaType string

const (
	TypeObject  SchemaType = "object"
	TypeArray   SchemaType = "array"
	TypeString  SchemaType = "string"
	TypeInteger SchemaType = "integer"
	TypeBoolean SchemaType = "boolean"
)

// Schema is a backend-neutral description of structured output.
type Schema struct {
	Type        SchemaType
	Description string
	Properties  map[string]*Schema
	Required    []string
	Items       *Schema
	Enum        []string
}

// TextRequest is one text generation call.
type TextRequest struct {
	SystemInstruction string
	Prompt            string
	// Schema constrains the output when the backend supports it.
	Schema *Schema
	// JSONMode asks for a JSON object response when no schema is enforced.
	JSONMode       bool
	ReferenceImage *domain.InlineImage
}

// TextResponse is the raw text returned by a backend.
type TextResponse struct {
	Text         string
	FinishReason string
	// NormalStop is true when the backend finished the completion on its own.
	NormalStop bool
}

// Adapter is the uniform call contract over a generative backend. The
// credential is supplied per call so the rotation layer can switch keys.
type Adapter interface {
	Name() string
	GenerateText(ctx context.Context, cred domain.Credential, req TextRequest) (*TextResponse, error)
	// GenerateImage returns a data URI or a hosted image URL.
	GenerateImage(ctx context.Context, cred domain.Credential, prompt string) (string, error)
}

// DataURI encodes binary image data as a data URI.
func DataURI(mimeType string, data []byte) string {
	if mimeType == "" {
		mimeType = "image/png"
	}
	return "data:" + mimeType + ";base64," + base64.StdEncoding.EncodeToString(data)
}

// ParseDataURI decodes a data URI or a bare base64 payload. Bare payloads are
// assumed to be PNG.
func ParseDataURI(s string) (*domain.InlineImage, error) {
	mimeType := "image/png"
	payload := strings.TrimSpace(s)
	if strings.HasPrefix(payload, "data:") {
		header, body, ok := strings.Cut(payload, ",")
		if !ok {
			return nil, domain.NewInvalidInputError("malformed data URI")
		}
		header = strings.TrimPrefix(header, "data:")
		header = strings.TrimSuffix(header, ";base64")
		if header != "" {
			mimeType = header
		}
		payload = body
	}
	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return nil, domain.NewError(domain.CodeInvalidInput, "reference image is not valid base64", err)
	}
	return &domain.InlineImage{MIMEType: mimeType, Data: data}, nil
}
