package repository

import (
	"context"
	"time"

	"github.com/sublimeminds/mindful-bot-compass-sub016/internal/domain"
)

// EventStore defines the interface for interaction event storage operations
type EventStore interface {
	// GetInteractionHistory returns at most limit events for the user, most recent first.
	// A limit of zero or less returns no events.
	GetInteractionHistory(ctx context.Context, userID string, limit int) ([]domain.InteractionEvent, error)

	// AppendEvent atomically stores a single event
	AppendEvent(ctx context.Context, event domain.InteractionEvent) error

	// InsertBatch inserts a batch of events into the storage
	InsertBatch(ctx context.Context, events []*domain.InteractionEvent) (int, error)

	// ListActiveUsers returns at most limit users with at least one event at or after since.
	// A limit of zero or less returns no users.
	ListActiveUsers(ctx context.Context, since time.Time, limit int) ([]string, error)

	// InitSchema initializes the database schema (creates tables if they don't exist)
	InitSchema(ctx context.Context) error

	// Ping checks if the database connection is alive
	Ping(ctx context.Context) error

	// Close closes the repository and releases resources
	Close() error
}

// PreferenceStore reads user-configured delivery preferences
type PreferenceStore interface {
	// GetQuietHoursOverride returns nil when the user has no override
	GetQuietHoursOverride(ctx context.Context, userID string) (*domain.QuietHours, error)
}

// PolicySnapshotStore keeps precomputed frequency policies
type PolicySnapshotStore interface {
	SavePolicy(ctx context.Context, userID string, policy domain.FrequencyPolicy) error
	GetPolicy(ctx context.Context, userID string) (*domain.FrequencyPolicy, error)
}

// PreferenceWriter stores user-configured delivery preferences
type PreferenceWriter interface {
	// SetQuietHoursOverride stores the override; nil clears it
	SetQuietHoursOverride(ctx context.Context, userID string, quietHours *domain.QuietHours) error
}
