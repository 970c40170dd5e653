package pipeline

import (
	"fmt"
	"strings"

	"quiz-forge/internal/domain"

	"github.com/tmc/langchaingo/prompts"
)

var systemPrompt = prompts.NewPromptTemplate(`You are an experienced teacher and assessment writer for {{.level}} students{{if .grade}} in grade {{.grade}}{{end}}.
Write every question, option, explanation and stimulus in {{.language}}.
{{- if .languageNotes}}
{{.languageNotes}}
{{- end}}
{{- if .mathRules}}
{{.mathRules}}
{{- end}}
Respond with a single JSON object and nothing else.`,
	[]string{"level", "grade", "language", "languageNotes", "mathRules"})

var userPrompt = prompts.NewPromptTemplate(`Create exactly {{.count}} questions.
Subject: {{.subject}}{{if .category}} ({{.category}}){{end}}
Topic: {{.topic}}{{if .subTopic}} / {{.subTopic}}{{end}}
Difficulty: {{.difficulty}}
Cognitive levels: {{.cognitive}}

Question types and counts:
{{.distribution}}
{{- if .multiType}}
Follow these counts exactly and keep questions of the same type together, in the order listed.
{{- end}}

Rules per type:
- MULTIPLE_CHOICE: exactly {{.optionCount}} options, correctAnswer is the letter of the single correct option.
- COMPLEX_MULTIPLE_CHOICE: exactly {{.optionCount}} options, correctAnswer lists every correct letter separated by commas, for example "A,C".
- TRUE_FALSE: two options (true, false) written in the target language, correctAnswer is the correct option text.
- SHORT_ANSWER and ESSAY: options is an empty list, correctAnswer is the model answer.

{{.readingRules}}
{{.imageRules}}
{{- if .material}}

Base the questions on this source material:
"""
{{.material}}
"""
{{- end}}
{{- if .hasReference}}

Use the attached reference image as additional context.
{{- end}}
{{- if .factCheck}}

Fact-check every statement, option and answer key before answering. Do not invent facts, names, dates or figures.
{{- end}}

Also return a blueprint with one entry per question: questionNumber, competency, indicator and cognitiveLevel.`,
	[]string{
		"count", "subject", "category", "topic", "subTopic", "difficulty", "cognitive", "distribution",
		"multiType", "optionCount", "readingRules", "imageRules", "material", "hasReference", "factCheck",
	})

// compatibleContract spells out the response shape for backends without
// schema enforcement.
const compatibleContract = `
The JSON object must have exactly this shape:
{
  "questions": [
    {
      "id": "q1",
      "text": "question stem",
      "type": "MULTIPLE_CHOICE",
      "options": ["A. ...", "B. ..."],
      "correctAnswer": "A",
      "explanation": "why the answer is correct",
      "cognitiveLevel": "C2",
      "difficulty": "MEDIUM",
      "stimulus": "",
      "imagePrompt": ""
    }
  ],
  "blueprint": [
    {"questionNumber": 1, "competency": "...", "indicator": "...", "cognitiveLevel": "C2"}
  ]
}`

const correctionNote = `
Your previous answer was not valid JSON and could not be parsed. Return the corrected result as one valid JSON object only, with no Markdown fences and no commentary.`

var languageNames = map[domain.LanguageContext]string{
	domain.LanguageIndonesian: "Bahasa Indonesia",
	domain.LanguageEnglish:    "English",
	domain.LanguageArabic:     "Arabic",
	domain.LanguageJapanese:   "Japanese",
	domain.LanguageKorean:     "Korean",
	domain.LanguageMandarin:   "Mandarin Chinese",
	domain.LanguageGerman:     "German",
	domain.LanguageFrench:     "French",
}

var languageNotes = map[domain.LanguageContext]string{
	domain.LanguageArabic:   "Use Arabic script written right to left. Add harakat where a word would otherwise be ambiguous. Do not transliterate.",
	domain.LanguageJapanese: "Use kanji with kana as appropriate for the level. Give the reading in parentheses for kanji above the level.",
	domain.LanguageKorean:   "Use Hangul only. Do not add romanization.",
	domain.LanguageMandarin: "Use simplified characters. Give pinyin with tone marks in parentheses for new vocabulary.",
}

const mathRules = `Write mathematical notation only as inline LaTeX between single dollar signs, for example $x^2 + 1$.
Never use $$, \[ \], \begin{equation} or \displaystyle, and never put a line break directly before or after a dollar sign.`

var mathSubjects = []string{
	"math", "matematika", "physics", "fisika", "chemistry", "kimia", "science", "ipa", "statistics", "statistika",
}

// LanguageName returns the display name used in instructions.
func LanguageName(lang domain.LanguageContext) string {
	if name, ok := languageNames[lang]; ok {
		return name
	}
	return languageNames[domain.LanguageIndonesian]
}

func needsMathRules(req *domain.GenerationRequest) bool {
	subject := strings.ToLower(req.SubjectCategory + " " + req.Subject)
	for _, s := range mathSubjects {
		if strings.Contains(subject, s) {
			return true
		}
	}
	return false
}

func readingRules(mode domain.ReadingMode) string {
	switch mode {
	case domain.ReadingModePerQuestion:
		return "Give every question its own short reading passage in the stimulus field."
	case domain.ReadingModeGrouped:
		return "Write ONE reading passage and copy it, unchanged, into the stimulus field of every question. All questions must be answerable from that passage."
	default:
		return "Leave the stimulus field empty."
	}
}

func imageRules(req *domain.GenerationRequest) string {
	if req.ImageQuestionCount <= 0 {
		return "Leave imagePrompt empty for every question."
	}
	return fmt.Sprintf("Exactly %d question(s) need an illustration. For those, describe the picture in English in imagePrompt. Leave imagePrompt empty for the rest.", req.ImageQuestionCount)
}

func cognitiveList(levels []domain.CognitiveLevel) string {
	if len(levels) == 0 {
		return "C1-C6 as appropriate"
	}
	out := make([]string, 0, len(levels))
	for _, l := range levels {
		out = append(out, string(l))
	}
	return strings.Join(out, ", ")
}

// BuildInstructions renders the system and user instructions for a request.
func BuildInstructions(req *domain.GenerationRequest, plan []TypeQuota) (string, string, error) {
	mr := ""
	if needsMathRules(req) {
		mr = mathRules
	}
	system, err := systemPrompt.Format(map[string]any{
		"level":         req.Level,
		"grade":         req.Grade,
		"language":      LanguageName(req.Language),
		"languageNotes": languageNotes[req.Language],
		"mathRules":     mr,
	})
	if err != nil {
		return "", "", fmt.Errorf("failed to render system instruction: %w", err)
	}

	optionCount := req.MCOptionCount
	if optionCount <= 0 {
		optionCount = 4
	}
	difficulty := req.Difficulty
	if difficulty == "" {
		difficulty = domain.DifficultyMedium
	}

	user, err := userPrompt.Format(map[string]any{
		"count":        req.QuestionCount,
		"subject":      req.Subject,
		"category":     req.SubjectCategory,
		"topic":        req.Topic,
		"subTopic":     req.SubTopic,
		"difficulty":   string(difficulty),
		"cognitive":    cognitiveList(req.CognitiveLevels),
		"distribution": DescribePlan(plan),
		"multiType":    len(plan) > 1,
		"optionCount":  optionCount,
		"readingRules": readingRules(req.ReadingMode),
		"imageRules":   imageRules(req),
		"material":     strings.TrimSpace(req.MaterialText),
		"hasReference": req.ReferenceImage != nil,
		"factCheck":    req.FactCheck,
	})
	if err != nil {
		return "", "", fmt.Errorf("failed to render user instruction: %w", err)
	}
	return system, user, nil
}
