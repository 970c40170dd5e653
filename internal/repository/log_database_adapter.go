package repository

import (
	"context"
	"fmt"
	"time"

	"quiz-forge/internal/domain"
	"quiz-forge/internal/repository/models"

	"github.com/jmoiron/sqlx"
	"github.com/oklog/ulid/v2"
)

const (
	defaultLogLimit = 50
	maxLogLimit     = 500
)

// LogDatabaseAdapter implements domain.LogRepository using sqlx.DB
type LogDatabaseAdapter struct {
	db *sqlx.DB
}

// NewLogDatabaseAdapter creates a new instance of LogDatabaseAdapter
func NewLogDatabaseAdapter(db *sqlx.DB) domain.LogRepository {
	return &LogDatabaseAdapter{db: db}
}

// SaveLog implements domain.LogRepository
func (a *LogDatabaseAdapter) SaveLog(ctx context.Context, entry *domain.LogEntry) error {
	if entry == nil {
		return fmt.Errorf("cannot save nil log entry")
	}
	if entry.ID == "" {
		entry.ID = ulid.Make().String()
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now()
	}

	query := `INSERT INTO activity_logs (id, log_type, action, message, created_at)
	VALUES (:1, :2, :3, :4, :5)`

	_, err := GetExecutor(ctx, a.db).ExecContext(ctx, query,
		entry.ID, string(entry.Type), entry.Action, entry.Message, entry.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to save log: %w", err)
	}
	return nil
}

// ListLogs implements domain.LogRepository, newest first.
func (a *LogDatabaseAdapter) ListLogs(ctx context.Context, limit int) ([]*domain.LogEntry, error) {
	if limit <= 0 {
		limit = defaultLogLimit
	}
	if limit > maxLogLimit {
		limit = maxLogLimit
	}

	query := `SELECT
		id "id",
		log_type "log_type",
		action "action",
		message "message",
		created_at "created_at"
	FROM activity_logs
	ORDER BY created_at DESC
	FETCH FIRST :1 ROWS ONLY`

	var rows []models.ActivityLog
	if err := GetExecutor(ctx, a.db).SelectContext(ctx, &rows, query, limit); err != nil {
		return nil, fmt.Errorf("failed to list logs: %w", err)
	}

	entries := make([]*domain.LogEntry, 0, len(rows))
	for _, r := range rows {
		entries = append(entries, &domain.LogEntry{
			ID:        r.ID,
			Type:      domain.LogType(r.LogType),
			Action:    r.Action,
			Message:   r.Message,
			CreatedAt: r.CreatedAt,
		})
	}
	return entries, nil
}
