package cli

import (
	"fmt"
	"os"
	"strings"

	"quiz-forge/internal/domain"

	"github.com/spf13/cobra"
)

type generateFlags struct {
	subjectCategory string
	subject         string
	level           string
	grade           string
	topic           string
	subTopic        string
	materialFile    string
	imageFile       string
	count           int
	optionCount     int
	imageCount      int
	types           []string
	difficulty      string
	cognitive       []string
	language        string
	readingMode     string
	factCheck       bool
	userKeys        []string
	skipImages      bool
}

func newGenerateCommand(newGenerator GeneratorFactory) *cobra.Command {
	var f generateFlags

	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Generate one quiz and print it as JSON",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			req, err := f.toRequest()
			if err != nil {
				return err
			}
			req.FactCheckSet = cmd.Flags().Changed("fact-check")
			if err := req.Validate(); err != nil {
				return err
			}

			gen, err := newGenerator(cmd.Context())
			if err != nil {
				return err
			}

			result, err := gen.GenerateQuizContent(cmd.Context(), req)
			if err != nil {
				_ = writeKeyHealth(cmd.ErrOrStderr(), gen.KeyHealth())
				return err
			}

			if !f.skipImages {
				gen.GenerateImages(cmd.Context(), result.Questions, req.UserCredentials, func(done, total int) {
					fmt.Fprintf(cmd.ErrOrStderr(), "images %d/%d\n", done, total)
				})
			}

			if err := writeJSON(cmd.OutOrStdout(), result); err != nil {
				return err
			}
			return writeKeyHealth(cmd.ErrOrStderr(), gen.KeyHealth())
		},
	}

	fl := cmd.Flags()
	fl.StringVar(&f.subjectCategory, "category", "", "subject category")
	fl.StringVar(&f.subject, "subject", "", "subject (required)")
	fl.StringVar(&f.level, "level", "", "school level")
	fl.StringVar(&f.grade, "grade", "", "grade")
	fl.StringVar(&f.topic, "topic", "", "topic (required)")
	fl.StringVar(&f.subTopic, "sub-topic", "", "sub topic")
	fl.StringVar(&f.materialFile, "material", "", "path to a text file with source material")
	fl.StringVar(&f.imageFile, "reference-image", "", "path to a reference image")
	fl.IntVarP(&f.count, "count", "n", 5, "number of questions")
	fl.IntVar(&f.optionCount, "options", 4, "options per multiple choice question (4 or 5)")
	fl.IntVar(&f.imageCount, "images", 0, "maximum number of questions with an image")
	fl.StringSliceVar(&f.types, "types", nil, "question types, e.g. MULTIPLE_CHOICE,ESSAY")
	fl.StringVar(&f.difficulty, "difficulty", "MEDIUM", "EASY, MEDIUM or HARD")
	fl.StringSliceVar(&f.cognitive, "cognitive", nil, "cognitive levels C1..C6")
	fl.StringVar(&f.language, "lang", "ID", "language context (ID, EN, AR, JP, KR, CN, DE, FR)")
	fl.StringVar(&f.readingMode, "reading", "none", "reading mode: none, per_question or grouped")
	fl.BoolVar(&f.factCheck, "fact-check", false, "ask the model to verify facts")
	fl.StringSliceVar(&f.userKeys, "user-key", nil, "caller API keys tried before system keys")
	fl.BoolVar(&f.skipImages, "no-images", false, "skip image generation")
	_ = cmd.MarkFlagRequired("subject")
	_ = cmd.MarkFlagRequired("topic")

	return cmd
}

func (f *generateFlags) toRequest() (*domain.GenerationRequest, error) {
	req := &domain.GenerationRequest{
		SubjectCategory:    f.subjectCategory,
		Subject:            f.subject,
		Level:              f.level,
		Grade:              f.grade,
		Topic:              f.topic,
		SubTopic:           f.subTopic,
		QuestionCount:      f.count,
		MCOptionCount:      f.optionCount,
		ImageQuestionCount: f.imageCount,
		Difficulty:         domain.Difficulty(strings.ToUpper(f.difficulty)),
		Language:           domain.LanguageContext(strings.ToUpper(f.language)),
		ReadingMode:        domain.ReadingMode(f.readingMode),
		FactCheck:          f.factCheck,
		UserCredentials:    f.userKeys,
	}
	for _, t := range f.types {
		req.Types = append(req.Types, domain.QuestionType(strings.ToUpper(strings.TrimSpace(t))))
	}
	for _, c := range f.cognitive {
		req.CognitiveLevels = append(req.CognitiveLevels, domain.CognitiveLevel(strings.ToUpper(strings.TrimSpace(c))))
	}

	if f.materialFile != "" {
		data, err := os.ReadFile(f.materialFile)
		if err != nil {
			return nil, fmt.Errorf("read material: %w", err)
		}
		req.MaterialText = string(data)
	}
	if f.imageFile != "" {
		data, err := os.ReadFile(f.imageFile)
		if err != nil {
			return nil, fmt.Errorf("read reference image: %w", err)
		}
		req.ReferenceImage = &domain.InlineImage{MIMEType: mimeFromPath(f.imageFile), Data: data}
	}
	return req, nil
}

func mimeFromPath(path string) string {
	switch lower := strings.ToLower(path); {
	case strings.HasSuffix(lower, ".jpg"), strings.HasSuffix(lower, ".jpeg"):
		return "image/jpeg"
	case strings.HasSuffix(lower, ".webp"):
		return "image/webp"
	default:
		return "image/png"
	}
}
