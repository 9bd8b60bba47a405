package engine

import (
	"math"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/sublimeminds/mindful-bot-compass-sub016/internal/domain"
)

// FeedbackInput is a reported delivery outcome
type FeedbackInput struct {
	UserID                 string
	NotificationID         string
	NotificationType       string
	ResponseType           domain.EventType
	ResponseLatencyMinutes float64
	OccurredAt             time.Time
	ContextFactors         map[string]any
}

// LatencyDecay rewards fast responses and discounts slow ones
func LatencyDecay(latencyMinutes float64) float64 {
	switch {
	case latencyMinutes <= 5:
		return 1.2
	case latencyMinutes <= 30:
		return 1.0
	case latencyMinutes <= 120:
		return 0.8
	default:
		return 0.6
	}
}

// FeedbackScore combines the outcome and how quickly it happened, clipped to [0,1]
func FeedbackScore(responseType domain.EventType, latencyMinutes float64) float64 {
	return clamp01(EngagementScore(responseType) * LatencyDecay(latencyMinutes))
}

// clockSkew is how far ahead of now an occurred_at may be
const clockSkew = time.Second

// NewFeedbackEvent validates the input and builds the scored event to append
func (e *Engine) NewFeedbackEvent(in FeedbackInput, now time.Time) (domain.FeedbackRecord, error) {
	if strings.TrimSpace(in.UserID) == "" {
		return domain.FeedbackRecord{}, &domain.ValidationError{Field: "user_id", Reason: "is required"}
	}
	if strings.TrimSpace(in.NotificationID) == "" {
		return domain.FeedbackRecord{}, &domain.ValidationError{Field: "notification_id", Reason: "is required"}
	}
	if !in.ResponseType.Valid() {
		return domain.FeedbackRecord{}, &domain.ValidationError{Field: "response_type", Reason: "unknown response type " + string(in.ResponseType)}
	}
	if math.IsNaN(in.ResponseLatencyMinutes) || math.IsInf(in.ResponseLatencyMinutes, 0) {
		return domain.FeedbackRecord{}, &domain.ValidationError{Field: "response_latency_minutes", Reason: "must be a finite number"}
	}
	if in.ResponseLatencyMinutes < 0 {
		return domain.FeedbackRecord{}, &domain.ValidationError{Field: "response_latency_minutes", Reason: "must not be negative"}
	}

	timestamp := now
	if !in.OccurredAt.IsZero() {
		if in.OccurredAt.After(now.Add(clockSkew)) {
			return domain.FeedbackRecord{}, &domain.ValidationError{Field: "occurred_at", Reason: "must not be in the future"}
		}
		timestamp = in.OccurredAt
	}

	score := FeedbackScore(in.ResponseType, in.ResponseLatencyMinutes)
	return domain.FeedbackRecord{
		Event: domain.InteractionEvent{
			ID:                     uuid.NewString(),
			UserID:                 in.UserID,
			NotificationID:         in.NotificationID,
			NotificationType:       in.NotificationType,
			EventType:              in.ResponseType,
			Timestamp:              timestamp.UTC(),
			ResponseLatencyMinutes: in.ResponseLatencyMinutes,
			ContextFactors:         in.ContextFactors,
			FeedbackScore:          &score,
		},
		Score: score,
	}, nil
}
