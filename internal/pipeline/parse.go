package pipeline

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"quiz-forge/internal/domain"
)

const parseSnippetLen = 200

// ParseError means the provider returned text that is not the expected JSON.
type ParseError struct {
	Snippet string
	Err     error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("failed to parse provider output (%q): %v", e.Snippet, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// IsParseError reports whether err is (or wraps) a ParseError.
func IsParseError(err error) bool {
	var pe *ParseError
	return errors.As(err, &pe)
}

// CleanResponse strips Markdown code fences and reasoning tags, then slices
// from the first '{' to the last '}' when both are present.
func CleanResponse(text string) string {
	cleaned := strings.TrimSpace(text)

	if thinkStart := strings.Index(cleaned, "<think>"); thinkStart != -1 {
		if thinkEnd := strings.Index(cleaned, "</think>"); thinkEnd > thinkStart {
			cleaned = cleaned[:thinkStart] + cleaned[thinkEnd+len("</think>"):]
		}
	}

	cleaned = strings.ReplaceAll(cleaned, "```json", "")
	cleaned = strings.ReplaceAll(cleaned, "```JSON", "")
	cleaned = strings.ReplaceAll(cleaned, "```", "")
	cleaned = strings.TrimSpace(cleaned)

	jsonStart := strings.Index(cleaned, "{")
	jsonEnd := strings.LastIndex(cleaned, "}")
	if jsonStart != -1 && jsonEnd > jsonStart {
		cleaned = cleaned[jsonStart : jsonEnd+1]
	}
	return cleaned
}

type rawQuestion struct {
	ID             string          `json:"id"`
	Text           string          `json:"text"`
	Question       string          `json:"question"`
	Type           string          `json:"type"`
	Options        []string        `json:"options"`
	CorrectAnswer  json.RawMessage `json:"correctAnswer"`
	Explanation    string          `json:"explanation"`
	CognitiveLevel string          `json:"cognitiveLevel"`
	Difficulty     string          `json:"difficulty"`
	Stimulus       string          `json:"stimulus"`
	ImagePrompt    string          `json:"imagePrompt"`
}

type rawResult struct {
	Questions []rawQuestion          `json:"questions"`
	Blueprint []domain.BlueprintItem `json:"blueprint"`
}

// ParseResult decodes cleaned provider text into a GenerationResult.
func ParseResult(text string) (*domain.GenerationResult, error) {
	cleaned := CleanResponse(text)

	var raw rawResult
	if err := json.Unmarshal([]byte(cleaned), &raw); err != nil {
		return nil, &ParseError{Snippet: snippet(cleaned), Err: err}
	}
	if len(raw.Questions) == 0 {
		return nil, &ParseError{Snippet: snippet(cleaned), Err: errors.New("response contains no questions")}
	}

	result := &domain.GenerationResult{
		Questions: make([]domain.Question, 0, len(raw.Questions)),
		Blueprint: raw.Blueprint,
	}
	for _, rq := range raw.Questions {
		text := rq.Text
		if text == "" {
			text = rq.Question
		}
		result.Questions = append(result.Questions, domain.Question{
			ID:             rq.ID,
			Text:           text,
			Type:           normalizeType(rq.Type),
			Options:        rq.Options,
			CorrectAnswer:  decodeAnswer(rq.CorrectAnswer),
			Explanation:    rq.Explanation,
			CognitiveLevel: domain.CognitiveLevel(strings.ToUpper(strings.TrimSpace(rq.CognitiveLevel))),
			Difficulty:     domain.Difficulty(strings.ToUpper(strings.TrimSpace(rq.Difficulty))),
			Stimulus:       rq.Stimulus,
			ImagePrompt:    strings.TrimSpace(rq.ImagePrompt),
		})
	}
	return result, nil
}

func normalizeType(t string) domain.QuestionType {
	t = strings.ToUpper(strings.TrimSpace(t))
	t = strings.NewReplacer(" ", "_", "-", "_").Replace(t)
	return domain.QuestionType(t)
}

// decodeAnswer accepts a string, a list of option keys or a scalar. Lists are
// joined with commas.
func decodeAnswer(raw json.RawMessage) string {
	if len(raw) == 0 || string(raw) == "null" {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return strings.TrimSpace(s)
	}
	var list []any
	if err := json.Unmarshal(raw, &list); err == nil {
		parts := make([]string, 0, len(list))
		for _, v := range list {
			parts = append(parts, strings.TrimSpace(fmt.Sprint(v)))
		}
		return strings.Join(parts, ",")
	}
	var v any
	if err := json.Unmarshal(raw, &v); err == nil {
		return fmt.Sprint(v)
	}
	return string(raw)
}

func snippet(s string) string {
	r := []rune(s)
	if len(r) <= parseSnippetLen {
		return s
	}
	return string(r[:parseSnippetLen]) + "..."
}
