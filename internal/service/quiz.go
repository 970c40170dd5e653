package service

import (
	"context"
	"fmt"

	"quiz-forge/internal/domain"
	"quiz-forge/internal/pipeline"

	"github.com/oklog/ulid/v2"
	"go.uber.org/zap"
)

const (
	ActionGenerateQuiz  = "GENERATE_QUIZ"
	ActionGenerateImage = "GENERATE_IMAGES"
)

// ContentGenerator is the generation surface QuizService depends on.
// *pipeline.Pipeline implements it.
type ContentGenerator interface {
	GenerateQuizContent(ctx context.Context, req *domain.GenerationRequest) (*domain.GenerationResult, error)
	GenerateImages(ctx context.Context, questions []domain.Question, userKeys []string, progress pipeline.ProgressFunc)
	GenerateImageForQuestion(ctx context.Context, prompt string, userKeys []string) string
	KeyHealth() []domain.KeyHealthRecord
	ValidateConnection(ctx context.Context) pipeline.ProbeResult
}

var _ ContentGenerator = (*pipeline.Pipeline)(nil)

// QuizService defines the quiz assembly operations exposed to handlers.
type QuizService interface {
	GenerateQuiz(ctx context.Context, req *domain.GenerationRequest, createdBy string, progress pipeline.ProgressFunc) (*domain.Quiz, error)
	GetQuiz(ctx context.Context, id string) (*domain.Quiz, error)
	GenerateImage(ctx context.Context, prompt string, userKeys []string) string
	KeyHealth() []domain.KeyHealthRecord
	ValidateProvider(ctx context.Context) pipeline.ProbeResult
}

type quizService struct {
	generator ContentGenerator
	quizzes   domain.QuizRepository
	logs      domain.LogRepository
	tx        domain.TransactionManager
	logger    *zap.Logger
}

// NewQuizService creates a new instance of quizService
func NewQuizService(
	generator ContentGenerator,
	quizzes domain.QuizRepository,
	logs domain.LogRepository,
	tx domain.TransactionManager,
	logger *zap.Logger,
) QuizService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &quizService{
		generator: generator,
		quizzes:   quizzes,
		logs:      logs,
		tx:        tx,
		logger:    logger,
	}
}

// GenerateQuiz generates text, then images, and stores the result as a draft.
func (s *quizService) GenerateQuiz(ctx context.Context, req *domain.GenerationRequest, createdBy string, progress pipeline.ProgressFunc) (*domain.Quiz, error) {
	if req == nil {
		return nil, domain.NewInvalidInputError("request is required")
	}
	if err := req.Validate(); err != nil {
		return nil, err
	}

	s.writeLog(ctx, domain.LogTypeInfo, ActionGenerateQuiz,
		fmt.Sprintf("START %d questions on %q (%s)", req.QuestionCount, req.Topic, req.Subject))

	result, err := s.generator.GenerateQuizContent(ctx, req)
	if err != nil {
		s.writeLog(ctx, domain.LogTypeError, ActionGenerateQuiz, fmt.Sprintf("ERROR %q: %v", req.Topic, err))
		return nil, err
	}

	withImages := 0
	for _, q := range result.Questions {
		if q.HasImage {
			withImages++
		}
	}
	if withImages > 0 {
		s.writeLog(ctx, domain.LogTypeInfo, ActionGenerateImage, fmt.Sprintf("Generating %d images", withImages))
		s.generator.GenerateImages(ctx, result.Questions, req.UserCredentials, func(done, total int) {
			s.logger.Info("Image progress", zap.Int("done", done), zap.Int("total", total))
			if progress != nil {
				progress(done, total)
			}
		})
	}

	quiz := domain.NewQuiz(ulid.Make().String(), req, result, createdBy)
	err = s.tx.WithTransaction(ctx, func(ctx context.Context) error {
		if err := s.quizzes.SaveQuiz(ctx, quiz); err != nil {
			return err
		}
		return s.logs.SaveLog(ctx, &domain.LogEntry{
			Type:    domain.LogTypeSuccess,
			Action:  ActionGenerateQuiz,
			Message: fmt.Sprintf("FINISH quiz %s with %d questions", quiz.ID, len(quiz.Questions)),
		})
	})
	if err != nil {
		s.writeLog(ctx, domain.LogTypeError, ActionGenerateQuiz, fmt.Sprintf("ERROR saving quiz %q: %v", req.Topic, err))
		return nil, domain.NewInternalError("Failed to save quiz", err)
	}

	s.logger.Info("Quiz generated",
		zap.String("quiz_id", quiz.ID),
		zap.Int("questions", len(quiz.Questions)),
		zap.Int("images", withImages),
	)
	return quiz, nil
}

// GetQuiz implements QuizService
func (s *quizService) GetQuiz(ctx context.Context, id string) (*domain.Quiz, error) {
	quiz, err := s.quizzes.GetQuizByID(ctx, id)
	if err != nil {
		return nil, domain.NewInternalError("Failed to get quiz", err)
	}
	if quiz == nil {
		return nil, domain.NewQuizNotFoundError(id)
	}
	return quiz, nil
}

// GenerateImage implements QuizService. It never fails.
func (s *quizService) GenerateImage(ctx context.Context, prompt string, userKeys []string) string {
	return s.generator.GenerateImageForQuestion(ctx, prompt, userKeys)
}

// KeyHealth implements QuizService
func (s *quizService) KeyHealth() []domain.KeyHealthRecord {
	return s.generator.KeyHealth()
}

// ValidateProvider implements QuizService
func (s *quizService) ValidateProvider(ctx context.Context) pipeline.ProbeResult {
	res := s.generator.ValidateConnection(ctx)
	logType := domain.LogTypeSuccess
	if !res.Success {
		logType = domain.LogTypeWarning
	}
	s.writeLog(ctx, logType, "VALIDATE_PROVIDER", fmt.Sprintf("%s: %s", res.Provider, res.Message))
	return res
}

// writeLog stores an activity log entry. Failures are only reported to the
// process log.
func (s *quizService) writeLog(ctx context.Context, t domain.LogType, action, message string) {
	if err := s.logs.SaveLog(ctx, &domain.LogEntry{Type: t, Action: action, Message: message}); err != nil {
		s.logger.Warn("Failed to write activity log", zap.String("action", action), zap.Error(err))
	}
}
