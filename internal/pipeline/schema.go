package pipeline

import (
	"quiz-forge/internal/domain"
	"quiz-forge/internal/provider"
)

// QuizSchema is the structured-output contract handed to schema-enforcing
// backends.
func QuizSchema(req *domain.GenerationRequest, plan []TypeQuota) *provider.Schema {
	types := make([]string, 0, len(plan))
	for _, q := range plan {
		types = append(types, string(q.Type))
	}

	levels := make([]string, 0, 6)
	if len(req.CognitiveLevels) == 0 {
		for _, l := range []domain.CognitiveLevel{domain.CognitiveC1, domain.CognitiveC2, domain.CognitiveC3, domain.CognitiveC4, domain.CognitiveC5, domain.CognitiveC6} {
			levels = append(levels, string(l))
		}
	} else {
		for _, l := range req.CognitiveLevels {
			levels = append(levels, string(l))
		}
	}

	str := func(desc string) *provider.Schema {
		return &provider.Schema{Type: provider.TypeString, Description: desc}
	}

	question := &provider.Schema{
		Type: provider.TypeObject,
		Properties: map[string]*provider.Schema{
			"id":             str("short unique identifier"),
			"text":           str("question stem"),
			"type":           {Type: provider.TypeString, Enum: types},
			"options":        {Type: provider.TypeArray, Items: str("option text")},
			"correctAnswer":  str("answer key; comma-separated letters for complex multiple choice"),
			"explanation":    str("why the answer is correct"),
			"cognitiveLevel": {Type: provider.TypeString, Enum: levels},
			"difficulty": {Type: provider.TypeString, Enum: []string{
				string(domain.DifficultyEasy), string(domain.DifficultyMedium), string(domain.DifficultyHard),
			}},
			"stimulus":    str("reading passage, empty when not used"),
			"imagePrompt": str("English description of an illustration, empty when none"),
		},
		Required: []string{"text", "type", "options", "correctAnswer", "explanation", "cognitiveLevel", "difficulty"},
	}

	blueprint := &provider.Schema{
		Type: provider.TypeObject,
		Properties: map[string]*provider.Schema{
			"questionNumber": {Type: provider.TypeInteger},
			"competency":     str("basic competency assessed"),
			"indicator":      str("measurable indicator"),
			"cognitiveLevel": {Type: provider.TypeString, Enum: levels},
		},
		Required: []string{"questionNumber", "competency", "indicator", "cognitiveLevel"},
	}

	return &provider.Schema{
		Type: provider.TypeObject,
		Properties: map[string]*provider.Schema{
			"questions": {Type: provider.TypeArray, Items: question},
			"blueprint": {Type: provider.TypeArray, Items: blueprint},
		},
		Required: []string{"questions", "blueprint"},
	}
}
