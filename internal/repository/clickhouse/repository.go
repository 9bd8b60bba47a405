package clickhouse

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/ClickHouse/clickhouse-go/v2/lib/driver"
	"go.uber.org/zap"

	"github.com/sublimeminds/mindful-bot-compass-sub016/internal/domain"
)

const historyColumns = `event_id, user_id, notification_id, notification_type, event_type,
	timestamp, response_latency_minutes, context_factors, feedback_score`

// Repository implements repository.EventStore for ClickHouse
type Repository struct {
	client *Client
	log    *zap.Logger
}

func NewRepository(client *Client, log *zap.Logger) *Repository {
	return &Repository{
		client: client,
		log:    log,
	}
}

// InitSchema creates the interaction_events table. ReplacingMergeTree collapses
// redelivered queue messages that carry the same event ID.
func (r *Repository) InitSchema(ctx context.Context) error {
	query := `
	CREATE TABLE IF NOT EXISTS interaction_events (
		event_id String,
		user_id String,
		notification_id String,
		notification_type LowCardinality(String),
		event_type LowCardinality(String),
		timestamp DateTime64(3, 'UTC'),
		response_latency_minutes Float64,
		context_factors String,
		feedback_score Nullable(Float64),
		version UInt64
	) ENGINE = ReplacingMergeTree(version)
	ORDER BY (user_id, event_id)
	PARTITION BY toYYYYMM(timestamp)
	SETTINGS index_granularity = 8192
	`

	if err := r.client.Conn().Exec(ctx, query); err != nil {
		return fmt.Errorf("failed to create interaction_events table: %w", err)
	}

	r.log.Info("ClickHouse schema initialized")
	return nil
}

// GetInteractionHistory returns the user's most recent events, newest first
func (r *Repository) GetInteractionHistory(ctx context.Context, userID string, limit int) ([]domain.InteractionEvent, error) {
	if limit <= 0 {
		return []domain.InteractionEvent{}, nil
	}
	query := fmt.Sprintf(`
		SELECT %s
		FROM interaction_events FINAL
		WHERE user_id = ?
		ORDER BY timestamp DESC
		LIMIT ?
	`, historyColumns)

	rows, err := r.client.Conn().Query(ctx, query, userID, uint64(limit))
	if err != nil {
		return nil, fmt.Errorf("failed to query interaction history: %w", err)
	}
	defer func(rows driver.Rows) {
		if err := rows.Close(); err != nil {
			r.log.Error("Failed to close interaction history rows", zap.Error(err))
		}
	}(rows)

	events := make([]domain.InteractionEvent, 0, limit)
	for rows.Next() {
		var (
			ev            domain.InteractionEvent
			eventType     string
			contextJSON   string
			feedbackScore *float64
		)
		if err := rows.Scan(
			&ev.ID,
			&ev.UserID,
			&ev.NotificationID,
			&ev.NotificationType,
			&eventType,
			&ev.Timestamp,
			&ev.ResponseLatencyMinutes,
			&contextJSON,
			&feedbackScore,
		); err != nil {
			return nil, fmt.Errorf("failed to scan interaction event row: %w", err)
		}
		ev.EventType = domain.EventType(eventType)
		ev.FeedbackScore = feedbackScore
		ev.ContextFactors = decodeContext(contextJSON, r.log)
		events = append(events, ev)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating interaction history rows: %w", err)
	}

	return events, nil
}

// AppendEvent writes a single event as a one-row batch, which ClickHouse applies atomically
func (r *Repository) AppendEvent(ctx context.Context, event domain.InteractionEvent) error {
	inserted, err := r.InsertBatch(ctx, []*domain.InteractionEvent{&event})
	if err != nil {
		return err
	}
	if inserted != 1 {
		return fmt.Errorf("expected 1 inserted event, got %d", inserted)
	}
	return nil
}

// InsertBatch inserts a batch of events into ClickHouse
func (r *Repository) InsertBatch(ctx context.Context, events []*domain.InteractionEvent) (int, error) {
	if len(events) == 0 {
		return 0, nil
	}

	batch, err := r.client.Conn().PrepareBatch(ctx, "INSERT INTO interaction_events")
	if err != nil {
		return 0, fmt.Errorf("failed to prepare batch: %w", err)
	}

	insertedCount := 0
	for _, event := range events {
		contextJSON, err := encodeContext(event.ContextFactors)
		if err != nil {
			return 0, fmt.Errorf("failed to encode context factors for event %s: %w", event.ID, err)
		}

		err = batch.Append(
			event.ID,
			event.UserID,
			event.NotificationID,
			event.NotificationType,
			string(event.EventType),
			event.Timestamp.UTC(),
			event.ResponseLatencyMinutes,
			contextJSON,
			event.FeedbackScore,
			uint64(time.Now().UnixNano()),
		)
		if err != nil {
			return 0, fmt.Errorf("failed to append event to batch: %w", err)
		}
		insertedCount++
	}

	if err := batch.Send(); err != nil {
		return 0, fmt.Errorf("failed to send batch: %w", err)
	}

	return insertedCount, nil
}

// ListActiveUsers returns distinct users with events at or after since
func (r *Repository) ListActiveUsers(ctx context.Context, since time.Time, limit int) ([]string, error) {
	if limit <= 0 {
		return []string{}, nil
	}
	rows, err := r.client.Conn().Query(ctx, `
		SELECT DISTINCT user_id
		FROM interaction_events
		WHERE timestamp >= ?
		ORDER BY user_id
		LIMIT ?
	`, since.UTC(), uint64(limit))
	if err != nil {
		return nil, fmt.Errorf("failed to query active users: %w", err)
	}
	defer func(rows driver.Rows) {
		if err := rows.Close(); err != nil {
			r.log.Error("Failed to close active user rows", zap.Error(err))
		}
	}(rows)

	var users []string
	for rows.Next() {
		var userID string
		if err := rows.Scan(&userID); err != nil {
			return nil, fmt.Errorf("failed to scan active user row: %w", err)
		}
		users = append(users, userID)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating active user rows: %w", err)
	}
	return users, nil
}

func (r *Repository) Ping(ctx context.Context) error {
	return r.client.Conn().Ping(ctx)
}

func (r *Repository) Close() error {
	return r.client.Close()
}

func encodeContext(factors map[string]any) (string, error) {
	if len(factors) == 0 {
		return "{}", nil
	}
	b, err := json.Marshal(factors)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// decodeContext tolerates malformed stored JSON; the engine treats missing factors as absent
func decodeContext(raw string, log *zap.Logger) map[string]any {
	if raw == "" || raw == "{}" {
		return nil
	}
	var factors map[string]any
	if err := json.Unmarshal([]byte(raw), &factors); err != nil {
		log.Warn("Discarding malformed context factors", zap.Error(err))
		return nil
	}
	return factors
}
