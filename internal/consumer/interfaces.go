package consumer

import (
	"context"

	"github.com/sublimeminds/mindful-bot-compass-sub016/internal/domain"
)

// MessageParser defines the interface for parsing raw message bytes into interaction events
type MessageParser interface {
	Parse(body []byte) (*domain.InteractionEvent, error)
}

// IdempotencyFilter remembers which event IDs have already been stored
type IdempotencyFilter interface {
	Seen(ctx context.Context, eventID string) (bool, error)
	MarkSeen(ctx context.Context, eventID string) error
}
