package domain

import (
	"fmt"
	"slices"
	"strings"
	"time"
)

// QuestionType is the answer format of a generated question.
type QuestionType string

const (
	QuestionTypeMultipleChoice        QuestionType = "MULTIPLE_CHOICE"
	QuestionTypeComplexMultipleChoice QuestionType = "COMPLEX_MULTIPLE_CHOICE"
	QuestionTypeTrueFalse             QuestionType = "TRUE_FALSE"
	QuestionTypeShortAnswer           QuestionType = "SHORT_ANSWER"
	QuestionTypeEssay                 QuestionType = "ESSAY"
)

// AllQuestionTypes lists every supported question type.
var AllQuestionTypes = []QuestionType{
	QuestionTypeMultipleChoice,
	QuestionTypeComplexMultipleChoice,
	QuestionTypeTrueFalse,
	QuestionTypeShortAnswer,
	QuestionTypeEssay,
}

// IsFreeResponse reports whether the type has no option list.
func (t QuestionType) IsFreeResponse() bool {
	return t == QuestionTypeShortAnswer || t == QuestionTypeEssay
}

// CognitiveLevel follows the revised Bloom taxonomy (C1 remember .. C6 create).
type CognitiveLevel string

const (
	CognitiveC1 CognitiveLevel = "C1"
	CognitiveC2 CognitiveLevel = "C2"
	CognitiveC3 CognitiveLevel = "C3"
	CognitiveC4 CognitiveLevel = "C4"
	CognitiveC5 CognitiveLevel = "C5"
	CognitiveC6 CognitiveLevel = "C6"
)

// Difficulty of a question or of the whole request.
type Difficulty string

const (
	DifficultyEasy   Difficulty = "EASY"
	DifficultyMedium Difficulty = "MEDIUM"
	DifficultyHard   Difficulty = "HARD"
)

// ReadingMode controls how stimulus passages are attached to questions.
type ReadingMode string

const (
	ReadingModeNone        ReadingMode = "none"
	ReadingModePerQuestion ReadingMode = "per_question"
	ReadingModeGrouped     ReadingMode = "grouped"
)

// LanguageContext is the target language of the generated questions.
type LanguageContext string

const (
	LanguageIndonesian LanguageContext = "ID"
	LanguageEnglish    LanguageContext = "EN"
	LanguageArabic     LanguageContext = "AR"
	LanguageJapanese   LanguageContext = "JP"
	LanguageKorean     LanguageContext = "KR"
	LanguageMandarin   LanguageContext = "CN"
	LanguageGerman     LanguageContext = "DE"
	LanguageFrench     LanguageContext = "FR"
)

// UsesNonLatinScript reports whether the language needs orthography notes.
func (l LanguageContext) UsesNonLatinScript() bool {
	switch l {
	case LanguageArabic, LanguageJapanese, LanguageKorean, LanguageMandarin:
		return true
	}
	return false
}

// InlineImage is binary reference material attached to a request.
type InlineImage struct {
	MIMEType string
	Data     []byte
}

// GenerationRequest holds the parameters of one quiz-generation call. It is
// built once by the caller and consumed once by the pipeline.
type GenerationRequest struct {
	SubjectCategory    string
	Subject            string
	Level              string
	Grade              string
	Topic              string
	SubTopic           string
	MaterialText       string
	ReferenceImage     *InlineImage
	QuestionCount      int
	MCOptionCount      int
	ImageQuestionCount int
	Types              []QuestionType
	Difficulty         Difficulty
	CognitiveLevels    []CognitiveLevel
	Language           LanguageContext
	ReadingMode        ReadingMode
	FactCheck          bool
	// FactCheckSet is false when the caller left FactCheck unspecified; the
	// stored provider default applies then.
	FactCheckSet    bool
	UserCredentials []string
}

// Question is one generated quiz item.
type Question struct {
	ID             string         `json:"id"`
	Text           string         `json:"text"`
	Type           QuestionType   `json:"type"`
	Options        []string       `json:"options"`
	CorrectAnswer  string         `json:"correctAnswer"`
	Explanation    string         `json:"explanation"`
	CognitiveLevel CognitiveLevel `json:"cognitiveLevel"`
	Difficulty     Difficulty     `json:"difficulty"`
	Stimulus       string         `json:"stimulus,omitempty"`
	ImagePrompt    string         `json:"imagePrompt,omitempty"`
	HasImage       bool           `json:"hasImage"`
	ImageURL       string         `json:"imageUrl,omitempty"`
}

// BlueprintItem maps one question to its pedagogical classification.
type BlueprintItem struct {
	QuestionNumber int            `json:"questionNumber"`
	Competency     string         `json:"competency"`
	Indicator      string         `json:"indicator"`
	CognitiveLevel CognitiveLevel `json:"cognitiveLevel"`
}

// GenerationResult is the output of text generation: questions plus a
// parallel blueprint.
type GenerationResult struct {
	Questions []Question      `json:"questions"`
	Blueprint []BlueprintItem `json:"blueprint"`
}

// QuizStatus is the publication state of a stored quiz.
type QuizStatus string

const (
	QuizStatusDraft     QuizStatus = "DRAFT"
	QuizStatusPublished QuizStatus = "PUBLISHED"
)

// Quiz is an assembled, persisted question set.
type Quiz struct {
	ID              string
	Title           string
	SubjectCategory string
	Subject         string
	Level           string
	Grade           string
	Topic           string
	SubTopic        string
	Questions       []Question
	Blueprint       []BlueprintItem
	CreatedBy       string
	Status          QuizStatus
	IsPublic        bool
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// NewQuiz creates a draft quiz from a request and its generation result.
func NewQuiz(id string, req *GenerationRequest, result *GenerationResult, createdBy string) *Quiz {
	now := time.Now()
	return &Quiz{
		ID:              id,
		Title:           fmt.Sprintf("%s - %s", req.Subject, req.Topic),
		SubjectCategory: req.SubjectCategory,
		Subject:         req.Subject,
		Level:           req.Level,
		Grade:           req.Grade,
		Topic:           req.Topic,
		SubTopic:        req.SubTopic,
		Questions:       result.Questions,
		Blueprint:       result.Blueprint,
		CreatedBy:       createdBy,
		Status:          QuizStatusDraft,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
}

// Validate validates the quiz
func (q *Quiz) Validate() error {
	if q.ID == "" {
		return NewInvalidInputError("quiz id is required")
	}
	if len(q.Questions) == 0 {
		return NewInvalidInputError("quiz has no questions")
	}
	return nil
}

const (
	MaxQuestionCount = 50
	MinOptionCount   = 4
	MaxOptionCount   = 5
)

// Validate checks the request invariants the pipeline relies on.
func (r *GenerationRequest) Validate() error {
	var errs ValidationErrors
	if strings.TrimSpace(r.Subject) == "" {
		errs = append(errs, NewMissingFieldError("subject"))
	}
	if strings.TrimSpace(r.Topic) == "" {
		errs = append(errs, NewMissingFieldError("topic"))
	}
	if r.QuestionCount < 1 || r.QuestionCount > MaxQuestionCount {
		errs = append(errs, NewOutOfRangeError("questionCount", r.QuestionCount, 1, MaxQuestionCount))
	}
	if r.MCOptionCount != 0 && (r.MCOptionCount < MinOptionCount || r.MCOptionCount > MaxOptionCount) {
		errs = append(errs, NewOutOfRangeError("mcOptionCount", r.MCOptionCount, MinOptionCount, MaxOptionCount))
	}
	if r.ImageQuestionCount < 0 || r.ImageQuestionCount > r.QuestionCount {
		errs = append(errs, NewOutOfRangeError("imageQuestionCount", r.ImageQuestionCount, 0, r.QuestionCount))
	}
	for _, t := range r.Types {
		if !slices.Contains(AllQuestionTypes, t) {
			errs = append(errs, NewInvalidFormatError("types", t))
		}
	}
	if len(errs) > 0 {
		return errs
	}
	return nil
}
