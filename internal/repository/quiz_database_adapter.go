package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"quiz-forge/internal/domain"
	"quiz-forge/internal/repository/models"

	"github.com/jmoiron/sqlx"
)

const quizColumns = `
		id "id",
		title "title",
		subject_category "subject_category",
		subject "subject",
		level_name "level_name",
		grade "grade",
		topic "topic",
		sub_topic "sub_topic",
		questions "questions",
		blueprint "blueprint",
		created_by "created_by",
		status "status",
		is_public "is_public",
		created_at "created_at",
		updated_at "updated_at"`

// QuizDatabaseAdapter implements domain.QuizRepository using sqlx.DB
type QuizDatabaseAdapter struct {
	db *sqlx.DB
}

// NewQuizDatabaseAdapter creates a new instance of QuizDatabaseAdapter
func NewQuizDatabaseAdapter(db *sqlx.DB) domain.QuizRepository {
	return &QuizDatabaseAdapter{db: db}
}

// SaveQuiz implements domain.QuizRepository. The quiz ID is assigned by the
// caller.
func (a *QuizDatabaseAdapter) SaveQuiz(ctx context.Context, quiz *domain.Quiz) error {
	if quiz == nil {
		return fmt.Errorf("cannot save nil quiz")
	}
	if err := quiz.Validate(); err != nil {
		return err
	}

	now := time.Now()
	if quiz.CreatedAt.IsZero() {
		quiz.CreatedAt = now
	}
	quiz.UpdatedAt = now
	m := toModelQuiz(quiz)

	query := `INSERT INTO quizzes (
		id, title, subject_category, subject, level_name, grade, topic, sub_topic,
		questions, blueprint, created_by, status, is_public, created_at, updated_at
	) VALUES (
		:1, :2, :3, :4, :5, :6, :7, :8, :9, :10, :11, :12, :13, :14, :15
	)`

	_, err := GetExecutor(ctx, a.db).ExecContext(ctx, query,
		m.ID,
		m.Title,
		m.SubjectCategory,
		m.Subject,
		m.Level,
		m.Grade,
		m.Topic,
		m.SubTopic,
		m.Questions,
		m.Blueprint,
		m.CreatedBy,
		m.Status,
		m.IsPublic,
		m.CreatedAt,
		m.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to save quiz: %w", err)
	}
	return nil
}

// GetQuizByID implements domain.QuizRepository. A missing quiz yields
// (nil, nil).
func (a *QuizDatabaseAdapter) GetQuizByID(ctx context.Context, id string) (*domain.Quiz, error) {
	var m models.Quiz
	query := `SELECT` + quizColumns + `
	FROM quizzes
	WHERE id = :1`

	if err := GetExecutor(ctx, a.db).GetContext(ctx, &m, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get quiz by id: %w", err)
	}
	return toDomainQuiz(&m), nil
}

func toModelQuiz(q *domain.Quiz) *models.Quiz {
	isPublic := 0
	if q.IsPublic {
		isPublic = 1
	}
	return &models.Quiz{
		ID:              q.ID,
		Title:           q.Title,
		SubjectCategory: q.SubjectCategory,
		Subject:         q.Subject,
		Level:           q.Level,
		Grade:           q.Grade,
		Topic:           q.Topic,
		SubTopic:        q.SubTopic,
		Questions:       models.JSONList[domain.Question](q.Questions),
		Blueprint:       models.JSONList[domain.BlueprintItem](q.Blueprint),
		CreatedBy:       q.CreatedBy,
		Status:          string(q.Status),
		IsPublic:        isPublic,
		CreatedAt:       q.CreatedAt,
		UpdatedAt:       q.UpdatedAt,
	}
}

func toDomainQuiz(m *models.Quiz) *domain.Quiz {
	return &domain.Quiz{
		ID:              m.ID,
		Title:           m.Title,
		SubjectCategory: m.SubjectCategory,
		Subject:         m.Subject,
		Level:           m.Level,
		Grade:           m.Grade,
		Topic:           m.Topic,
		SubTopic:        m.SubTopic,
		Questions:       []domain.Question(m.Questions),
		Blueprint:       []domain.BlueprintItem(m.Blueprint),
		CreatedBy:       m.CreatedBy,
		Status:          domain.QuizStatus(m.Status),
		IsPublic:        m.IsPublic == 1,
		CreatedAt:       m.CreatedAt,
		UpdatedAt:       m.UpdatedAt,
	}
}
