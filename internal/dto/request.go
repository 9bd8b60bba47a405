package dto

import "time"

// PublishEventRequest represents an interaction event submitted for ingestion
type PublishEventRequest struct {
	UserID                 string                 `json:"user_id" binding:"required" example:"user_123"`
	NotificationID         string                 `json:"notification_id" binding:"required" example:"ntf_456"`
	NotificationType       string                 `json:"notification_type" binding:"required" example:"session_reminder"`
	EventType              string                 `json:"event_type" binding:"required" example:"clicked"`
	Timestamp              int64                  `json:"timestamp" binding:"required" example:"1723475612"`
	ResponseLatencyMinutes float64                `json:"response_latency_minutes" example:"4.5"`
	ContextFactors         map[string]interface{} `json:"context_factors" swaggertype:"object" example:"has_active_session:true"`
}

// PublishEventsBulkRequest represents a bulk ingestion request
type PublishEventsBulkRequest struct {
	Events []PublishEventRequest `json:"events" binding:"required,min=1,max=1000,dive"`
}

// PredictTimingRequest asks for the best delivery time of a notification type
type PredictTimingRequest struct {
	NotificationType string                 `json:"notification_type" binding:"required" example:"mood_check"`
	ContextFactors   map[string]interface{} `json:"context_factors" swaggertype:"object" example:"has_active_session:true"`
}

// RecordFeedbackRequest reports how a user responded to a delivered notification
type RecordFeedbackRequest struct {
	UserID                 string                 `json:"user_id" binding:"required" example:"user_123"`
	NotificationID         string                 `json:"notification_id" binding:"required" example:"ntf_456"`
	ResponseType           string                 `json:"response_type" binding:"required" example:"clicked"`
	ResponseLatencyMinutes *float64               `json:"response_latency_minutes" binding:"required" example:"2"`
	NotificationType       string                 `json:"notification_type" example:"mood_check"`
	OccurredAt             *time.Time             `json:"occurred_at" example:"2026-01-05T09:00:00Z"`
	ContextFactors         map[string]interface{} `json:"context_factors" swaggertype:"object"`
}

// SetQuietHoursRequest sets or clears a user's quiet hours override
type SetQuietHoursRequest struct {
	Start string `json:"start" example:"22:30"`
	End   string `json:"end" example:"07:00"`
	Clear bool   `json:"clear" example:"false"`
}
