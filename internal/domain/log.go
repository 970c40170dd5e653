package domain

import (
	"context"
	"time"
)

// LogType is the severity of an activity log entry.
type LogType string

const (
	LogTypeInfo    LogType = "INFO"
	LogTypeSuccess LogType = "SUCCESS"
	LogTypeWarning LogType = "WARNING"
	LogTypeError   LogType = "ERROR"
)

// LogEntry is an operator-visible activity record.
type LogEntry struct {
	ID        string    `json:"id"`
	Type      LogType   `json:"type"`
	Action    string    `json:"action"`
	Message   string    `json:"message"`
	CreatedAt time.Time `json:"createdAt"`
}

// LogRepository stores activity logs.
type LogRepository interface {
	SaveLog(ctx context.Context, entry *LogEntry) error
	ListLogs(ctx context.Context, limit int) ([]*LogEntry, error)
}

// QuizRepository stores generated quizzes.
type QuizRepository interface {
	SaveQuiz(ctx context.Context, quiz *Quiz) error
	GetQuizByID(ctx context.Context, id string) (*Quiz, error)
}
