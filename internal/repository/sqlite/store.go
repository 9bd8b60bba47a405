// Package sqlite is a single-file event store for local development and small deployments
package sqlite

import (
	"context"
	"database/sql"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"
	_ "modernc.org/sqlite"

	"github.com/sublimeminds/mindful-bot-compass-sub016/internal/config"
	"github.com/sublimeminds/mindful-bot-compass-sub016/internal/domain"
)

//go:embed schema.sql
var schema string

type Store struct {
	db  *sql.DB
	log *zap.Logger
}

// Open opens (or creates) the database file and applies the schema
func Open(ctx context.Context, cfg config.SQLite, log *zap.Logger) (*Store, error) {
	if strings.TrimSpace(cfg.Path) == "" {
		return nil, errors.New("sqlite path is required")
	}
	if err := os.MkdirAll(filepath.Dir(cfg.Path), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create sqlite directory: %w", err)
	}

	db, err := sql.Open("sqlite", cfg.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite database: %w", err)
	}
	// one writer at a time
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if cfg.BusyTimeoutMs > 0 {
		_, _ = db.ExecContext(ctx, fmt.Sprintf("PRAGMA busy_timeout = %d", cfg.BusyTimeoutMs))
	}
	_, _ = db.ExecContext(ctx, "PRAGMA journal_mode = WAL")
	_, _ = db.ExecContext(ctx, "PRAGMA synchronous = NORMAL")

	s := &Store{db: db, log: log}
	if err := s.InitSchema(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}

	log.Info("SQLite event store opened", zap.String("path", cfg.Path))
	return s, nil
}

func (s *Store) InitSchema(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("failed to apply sqlite schema: %w", err)
	}
	return nil
}

func (s *Store) GetInteractionHistory(ctx context.Context, userID string, limit int) ([]domain.InteractionEvent, error) {
	// SQLite treats a negative LIMIT as unbounded
	if limit <= 0 {
		return []domain.InteractionEvent{}, nil
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT event_id, user_id, notification_id, notification_type, event_type,
		       ts_ms, response_latency_minutes, context_factors, feedback_score
		FROM interaction_events
		WHERE user_id = ?
		ORDER BY ts_ms DESC
		LIMIT ?`, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query interaction history: %w", err)
	}
	defer func() {
		if err := rows.Close(); err != nil {
			s.log.Error("Failed to close interaction history rows", zap.Error(err))
		}
	}()

	events := make([]domain.InteractionEvent, 0, limit)
	for rows.Next() {
		var (
			ev          domain.InteractionEvent
			eventType   string
			tsMillis    int64
			contextJSON sql.NullString
			score       sql.NullFloat64
		)
		if err := rows.Scan(&ev.ID, &ev.UserID, &ev.NotificationID, &ev.NotificationType, &eventType,
			&tsMillis, &ev.ResponseLatencyMinutes, &contextJSON, &score); err != nil {
			return nil, fmt.Errorf("failed to scan interaction event row: %w", err)
		}
		ev.EventType = domain.EventType(eventType)
		ev.Timestamp = time.UnixMilli(tsMillis).UTC()
		if score.Valid {
			v := score.Float64
			ev.FeedbackScore = &v
		}
		if contextJSON.Valid && contextJSON.String != "" {
			if err := json.Unmarshal([]byte(contextJSON.String), &ev.ContextFactors); err != nil {
				s.log.Warn("Discarding malformed context factors", zap.String("event_id", ev.ID), zap.Error(err))
				ev.ContextFactors = nil
			}
		}
		events = append(events, ev)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating interaction history rows: %w", err)
	}
	return events, nil
}

func (s *Store) AppendEvent(ctx context.Context, event domain.InteractionEvent) error {
	return insertEvent(ctx, s.db, &event)
}

// InsertBatch writes all events in one transaction. Events whose ID already
// exists are skipped and still count as written.
func (s *Store) InsertBatch(ctx context.Context, events []*domain.InteractionEvent) (int, error) {
	if len(events) == 0 {
		return 0, nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	for _, ev := range events {
		if err := insertEvent(ctx, tx, ev); err != nil {
			_ = tx.Rollback()
			return 0, err
		}
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit batch: %w", err)
	}
	return len(events), nil
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func insertEvent(ctx context.Context, db execer, ev *domain.InteractionEvent) error {
	var contextJSON any
	if len(ev.ContextFactors) > 0 {
		b, err := json.Marshal(ev.ContextFactors)
		if err != nil {
			return fmt.Errorf("failed to encode context factors for event %s: %w", ev.ID, err)
		}
		contextJSON = string(b)
	}
	var score any
	if ev.FeedbackScore != nil {
		score = *ev.FeedbackScore
	}

	_, err := db.ExecContext(ctx, `
		INSERT OR IGNORE INTO interaction_events(event_id, user_id, notification_id, notification_type,
			event_type, ts_ms, response_latency_minutes, context_factors, feedback_score)
		VALUES(?,?,?,?,?,?,?,?,?)`,
		ev.ID, ev.UserID, ev.NotificationID, ev.NotificationType, string(ev.EventType),
		ev.Timestamp.UnixMilli(), ev.ResponseLatencyMinutes, contextJSON, score,
	)
	if err != nil {
		return fmt.Errorf("failed to insert event %s: %w", ev.ID, err)
	}
	return nil
}

func (s *Store) ListActiveUsers(ctx context.Context, since time.Time, limit int) ([]string, error) {
	if limit <= 0 {
		return []string{}, nil
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT DISTINCT user_id FROM interaction_events
		WHERE ts_ms >= ?
		ORDER BY user_id
		LIMIT ?`, since.UnixMilli(), limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query active users: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var users []string
	for rows.Next() {
		var userID string
		if err := rows.Scan(&userID); err != nil {
			return nil, fmt.Errorf("failed to scan active user row: %w", err)
		}
		users = append(users, userID)
	}
	return users, rows.Err()
}

func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}
