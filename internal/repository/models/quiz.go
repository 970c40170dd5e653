package models

import (
	"time"

	"quiz-forge/internal/domain"
)

// Quiz is the row shape of the quizzes table.
type Quiz struct {
	ID              string                         `db:"id"`
	Title           string                         `db:"title"`
	SubjectCategory string                         `db:"subject_category"`
	Subject         string                         `db:"subject"`
	Level           string                         `db:"level_name"`
	Grade           string                         `db:"grade"`
	Topic           string                         `db:"topic"`
	SubTopic        string                         `db:"sub_topic"`
	Questions       JSONList[domain.Question]      `db:"questions"`
	Blueprint       JSONList[domain.BlueprintItem] `db:"blueprint"`
	CreatedBy       string                         `db:"created_by"`
	Status          string                         `db:"status"`
	IsPublic        int                            `db:"is_public"`
	CreatedAt       time.Time                      `db:"created_at"`
	UpdatedAt       time.Time                      `db:"updated_at"`
}

// ActivityLog is the row shape of the activity_logs table.
type ActivityLog struct {
	ID        string    `db:"id"`
	LogType   string    `db:"log_type"`
	Action    string    `db:"action"`
	Message   string    `db:"message"`
	CreatedAt time.Time `db:"created_at"`
}
