package domain

import (
	"encoding/json"
	"fmt"
	"strings"
)

// ErrorCode represents a specific type of error in the domain
type ErrorCode string

const (
	// Common errors
	CodeInternal     ErrorCode = "INTERNAL_ERROR"
	CodeInvalidInput ErrorCode = "INVALID_INPUT"
	CodeNotFound     ErrorCode = "NOT_FOUND"
	CodeValidation   ErrorCode = "VALIDATION_ERROR"

	// Generation specific errors
	CodeGenerationExhausted ErrorCode = "GENERATION_EXHAUSTED"
	CodeMalformedOutput     ErrorCode = "MALFORMED_OUTPUT"
	CodeGenerationStopped   ErrorCode = "GENERATION_STOPPED"
	CodeEmptyResponse       ErrorCode = "EMPTY_RESPONSE"
	CodeProviderRejected    ErrorCode = "PROVIDER_REQUEST_REJECTED"
)

// DomainError represents a domain-specific error
type DomainError struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
	Err     error     `json:"-"`
}

func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap exposes the underlying cause to errors.Is / errors.As.
func (e *DomainError) Unwrap() error {
	return e.Err
}

// MarshalJSON implements the json.Marshaler interface
func (e *DomainError) MarshalJSON() ([]byte, error) {
	return json.Marshal(&struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	}{
		Code:    string(e.Code),
		Message: e.Message,
	})
}

// NewError creates a new DomainError
func NewError(code ErrorCode, message string, err error) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// Helper functions for common errors
func NewNotFoundError(message string) *DomainError {
	return NewError(CodeNotFound, message, nil)
}

func NewInvalidInputError(message string) *DomainError {
	return NewError(CodeInvalidInput, message, nil)
}

func NewInternalError(message string, err error) *DomainError {
	return NewError(CodeInternal, message, err)
}

func NewQuizNotFoundError(quizID string) *DomainError {
	return NewError(CodeNotFound, fmt.Sprintf("Quiz not found with ID: %s", quizID), nil)
}

// NewGenerationError builds a user-facing generation failure with a message
// localized for the request's language context.
func NewGenerationError(code ErrorCode, lang LanguageContext, err error) *DomainError {
	return NewError(code, UserMessage(code, lang), err)
}

var userMessages = map[ErrorCode]map[LanguageContext]string{
	CodeGenerationExhausted: {
		LanguageIndonesian: "Semua kapasitas AI sedang penuh. Silakan coba lagi sebentar lagi.",
		LanguageEnglish:    "All AI capacity is exhausted right now. Please try again shortly.",
	},
	CodeMalformedOutput: {
		LanguageIndonesian: "Output AI tidak valid. Silakan coba lagi.",
		LanguageEnglish:    "The AI output was malformed. Please try again.",
	},
	CodeGenerationStopped: {
		LanguageIndonesian: "Proses generate berhenti secara tidak terduga. Silakan coba lagi.",
		LanguageEnglish:    "Generation stopped unexpectedly. Please try again.",
	},
	CodeEmptyResponse: {
		LanguageIndonesian: "AI tidak mengembalikan jawaban. Silakan coba lagi.",
		LanguageEnglish:    "The AI returned an empty response. Please try again.",
	},
	CodeProviderRejected: {
		LanguageIndonesian: "Permintaan ditolak oleh penyedia AI. Periksa parameter soal.",
		LanguageEnglish:    "The AI provider rejected the request. Check the quiz parameters.",
	},
}

// UserMessage returns the human-readable message for a generation error code.
// Indonesian is used for the ID context, English for everything else.
func UserMessage(code ErrorCode, lang LanguageContext) string {
	msgs, ok := userMessages[code]
	if !ok {
		return "Internal server error"
	}
	if lang == LanguageIndonesian || lang == "" {
		return msgs[LanguageIndonesian]
	}
	return msgs[LanguageEnglish]
}

// ValidationError describes one invalid request field.
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Value   any    `json:"value,omitempty"`
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidationErrors is returned by request validation and rendered as a 400.
type ValidationErrors []ValidationError

func (v ValidationErrors) Error() string {
	parts := make([]string, 0, len(v))
	for _, e := range v {
		parts = append(parts, e.Error())
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

func NewMissingFieldError(field string) ValidationError {
	return ValidationError{Field: field, Message: "field is required"}
}

func NewInvalidFormatError(field string, value any) ValidationError {
	return ValidationError{Field: field, Message: "invalid format", Value: value}
}

func NewOutOfRangeError(field string, value any, min, max int) ValidationError {
	return ValidationError{Field: field, Message: fmt.Sprintf("must be between %d and %d", min, max), Value: value}
}
