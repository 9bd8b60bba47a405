package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"go.uber.org/zap"

	"github.com/sublimeminds/mindful-bot-compass-sub016/internal/domain"
)

// DB is the subset of *pgxpool.Pool the preference repository uses
type DB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// PreferenceRepository reads and writes per-user quiet hours
type PreferenceRepository struct {
	db  DB
	log *zap.Logger
}

func NewPreferenceRepository(db DB, log *zap.Logger) *PreferenceRepository {
	return &PreferenceRepository{db: db, log: log}
}

func (r *PreferenceRepository) InitSchema(ctx context.Context) error {
	_, err := r.db.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS notification_preferences (
			user_id           TEXT PRIMARY KEY,
			quiet_hours_start TEXT,
			quiet_hours_end   TEXT,
			updated_at        TIMESTAMPTZ NOT NULL DEFAULT now()
		)
	`)
	if err != nil {
		return fmt.Errorf("failed to create notification_preferences table: %w", err)
	}
	return nil
}

// GetQuietHoursOverride returns nil when the user has no row or no complete window
func (r *PreferenceRepository) GetQuietHoursOverride(ctx context.Context, userID string) (*domain.QuietHours, error) {
	var start, end *string
	err := r.db.QueryRow(ctx, `
		SELECT quiet_hours_start, quiet_hours_end
		FROM notification_preferences
		WHERE user_id = $1
	`, userID).Scan(&start, &end)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query quiet hours: %w", err)
	}
	if start == nil || end == nil || *start == "" || *end == "" {
		return nil, nil
	}
	return &domain.QuietHours{Start: *start, End: *end}, nil
}

func (r *PreferenceRepository) SetQuietHoursOverride(ctx context.Context, userID string, quietHours *domain.QuietHours) error {
	var start, end *string
	if quietHours != nil {
		start, end = &quietHours.Start, &quietHours.End
	}

	_, err := r.db.Exec(ctx, `
		INSERT INTO notification_preferences (user_id, quiet_hours_start, quiet_hours_end)
		VALUES ($1, $2, $3)
		ON CONFLICT (user_id) DO UPDATE SET
			quiet_hours_start = EXCLUDED.quiet_hours_start,
			quiet_hours_end = EXCLUDED.quiet_hours_end,
			updated_at = now()
	`, userID, start, end)
	if err != nil {
		return fmt.Errorf("failed to upsert quiet hours: %w", err)
	}

	r.log.Info("Quiet hours override stored", zap.String("user_id", userID), zap.Bool("cleared", quietHours == nil))
	return nil
}
