package dto

import "github.com/sublimeminds/mindful-bot-compass-sub016/internal/domain"

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error   string `json:"error" example:"validation_error"`
	Message string `json:"message,omitempty" example:"response_type is required"`
}

// PublishEventResponse represents a successful event ingestion response
type PublishEventResponse struct {
	EventID string `json:"event_id" example:"9f86d081884c7d65"`
	Status  string `json:"status" example:"accepted"`
}

// PublishBulkEventsResponse represents a bulk ingestion response
type PublishBulkEventsResponse struct {
	Accepted int      `json:"accepted" example:"5"`
	Rejected int      `json:"rejected" example:"0"`
	EventIDs []string `json:"event_ids,omitempty"`
	Errors   []string `json:"errors,omitempty" example:"event 3: invalid event_type"`
}

// PatternsResponse lists a user's engagement buckets
type PatternsResponse struct {
	UserID   string                     `json:"user_id" example:"user_123"`
	Patterns []domain.EngagementPattern `json:"patterns"`
}

// PredictionResponse is a timing prediction for one user
type PredictionResponse struct {
	UserID string `json:"user_id" example:"user_123"`
	domain.TimingPrediction
}

// FeedbackResponse confirms a stored feedback record
type FeedbackResponse struct {
	EventID string  `json:"event_id" example:"3f2c1c9e-8d2a-4c53-9a8e-5b1f0f6f7a10"`
	Score   float64 `json:"score" example:"1"`
	Status  string  `json:"status" example:"recorded"`
}

// FrequencyPolicyResponse is a user's frequency policy
type FrequencyPolicyResponse struct {
	UserID string `json:"user_id" example:"user_123"`
	domain.FrequencyPolicy
}

// QuietHoursResponse echoes a stored quiet hours override
type QuietHoursResponse struct {
	UserID     string             `json:"user_id" example:"user_123"`
	QuietHours *domain.QuietHours `json:"quiet_hours"`
}
