package domain

import "time"

// EventType is the user's response recorded for a delivered notification
type EventType string

const (
	EventDelivered EventType = "delivered"
	EventViewed    EventType = "viewed"
	EventClicked   EventType = "clicked"
	EventDismissed EventType = "dismissed"
	EventIgnored   EventType = "ignored"
)

// EventTypes lists every accepted event type, most engaged first.
var EventTypes = []EventType{EventClicked, EventViewed, EventDelivered, EventDismissed, EventIgnored}

// Valid reports whether t is one of the known event types
func (t EventType) Valid() bool {
	switch t {
	case EventDelivered, EventViewed, EventClicked, EventDismissed, EventIgnored:
		return true
	}
	return false
}

// InteractionEvent is one record of a user's response to a previously delivered notification
type InteractionEvent struct {
	ID                     string         `json:"id"`
	UserID                 string         `json:"user_id"`
	NotificationID         string         `json:"notification_id"`
	NotificationType       string         `json:"notification_type"`
	EventType              EventType      `json:"event_type"`
	Timestamp              time.Time      `json:"timestamp"`
	ResponseLatencyMinutes float64        `json:"response_latency_minutes"`
	ContextFactors         map[string]any `json:"context_factors,omitempty"`

	// FeedbackScore is set on events produced by the feedback loop. Analysis
	// prefers it over the score derived from EventType.
	FeedbackScore *float64 `json:"feedback_score,omitempty"`
}

// FeedbackRecord is the scored event appended to the event store for a delivery outcome
type FeedbackRecord struct {
	Event InteractionEvent `json:"event"`
	Score float64          `json:"score"`
}
