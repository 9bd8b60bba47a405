package service

import (
	"context"

	"github.com/sublimeminds/mindful-bot-compass-sub016/internal/domain"
	"github.com/sublimeminds/mindful-bot-compass-sub016/internal/dto"
	"github.com/sublimeminds/mindful-bot-compass-sub016/internal/engine"
)

// EventServicer defines the interface for interaction event ingestion
type EventServicer interface {
	ProcessEvent(ctx context.Context, event *dto.PublishEventRequest) (string, error)
	ProcessBulkEvents(ctx context.Context, events []dto.PublishEventRequest) ([]string, []string, error)
}

// TimingServicer defines the timing and frequency operations exposed over HTTP
type TimingServicer interface {
	AnalyzePatterns(ctx context.Context, userID string) ([]domain.EngagementPattern, error)
	PredictOptimalTiming(ctx context.Context, userID, notificationType string, contextFactors map[string]any) (domain.TimingPrediction, error)
	RecordFeedback(ctx context.Context, in engine.FeedbackInput) (domain.FeedbackRecord, error)
	GetFrequencyPolicy(ctx context.Context, userID string) (domain.FrequencyPolicy, error)
	GetPolicySnapshot(ctx context.Context, userID string) (*domain.FrequencyPolicy, error)
	SetQuietHours(ctx context.Context, userID string, quietHours *domain.QuietHours) error
}

// ClassifierSource supplies the current notification category table
type ClassifierSource interface {
	Classifier() *engine.Classifier
}
