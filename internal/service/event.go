package service

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"math"
	"time"

	"go.uber.org/zap"

	"github.com/sublimeminds/mindful-bot-compass-sub016/internal/domain"
	"github.com/sublimeminds/mindful-bot-compass-sub016/internal/dto"
	"github.com/sublimeminds/mindful-bot-compass-sub016/internal/metrics"
	"github.com/sublimeminds/mindful-bot-compass-sub016/internal/queue"
)

// EventService validates interaction events and hands them to the ingest queue
type EventService struct {
	publisher queue.QueuePublisher
	log       *zap.Logger
	now       func() time.Time
}

func NewEventService(publisher queue.QueuePublisher, log *zap.Logger) *EventService {
	return &EventService{
		publisher: publisher,
		log:       log,
		now:       time.Now,
	}
}

// computeEventID derives a deterministic ID so queue redeliveries collapse in the store.
// SHA-256 of user_id|notification_id|notification_type|event_type|timestamp
func computeEventID(event *dto.PublishEventRequest) string {
	data := fmt.Sprintf("%s|%s|%s|%s|%d",
		event.UserID,
		event.NotificationID,
		event.NotificationType,
		event.EventType,
		event.Timestamp,
	)

	hash := sha256.Sum256([]byte(data))
	return hex.EncodeToString(hash[:])
}

func (s *EventService) validate(event *dto.PublishEventRequest) error {
	if !domain.EventType(event.EventType).Valid() {
		return &domain.ValidationError{Field: "event_type", Reason: fmt.Sprintf("unknown event type %q", event.EventType)}
	}
	if math.IsNaN(event.ResponseLatencyMinutes) || math.IsInf(event.ResponseLatencyMinutes, 0) || event.ResponseLatencyMinutes < 0 {
		return &domain.ValidationError{Field: "response_latency_minutes", Reason: "must be a non-negative finite number"}
	}
	currentTime := s.now().Unix()
	if event.Timestamp > currentTime+1 {
		s.log.Warn("Timestamp validation failed: future timestamp",
			zap.Int64("event_timestamp", event.Timestamp),
			zap.Int64("current_time", currentTime),
			zap.String("user_id", event.UserID))
		return &domain.ValidationError{Field: "timestamp", Reason: fmt.Sprintf("cannot be in the future: %d > %d", event.Timestamp, currentTime)}
	}
	return nil
}

// ProcessEvent validates a single event and publishes it
func (s *EventService) ProcessEvent(ctx context.Context, event *dto.PublishEventRequest) (string, error) {
	if err := s.validate(event); err != nil {
		metrics.IngestEventsTotal.WithLabelValues("rejected").Inc()
		return "", err
	}

	interaction := &domain.InteractionEvent{
		ID:                     computeEventID(event),
		UserID:                 event.UserID,
		NotificationID:         event.NotificationID,
		NotificationType:       event.NotificationType,
		EventType:              domain.EventType(event.EventType),
		Timestamp:              time.Unix(event.Timestamp, 0).UTC(),
		ResponseLatencyMinutes: event.ResponseLatencyMinutes,
		ContextFactors:         event.ContextFactors,
	}

	if err := s.publisher.PublishEvent(ctx, interaction); err != nil {
		metrics.IngestEventsTotal.WithLabelValues("failed").Inc()
		return "", fmt.Errorf("failed to publish event to queue: %w", err)
	}

	metrics.IngestEventsTotal.WithLabelValues("accepted").Inc()
	return interaction.ID, nil
}

// ProcessBulkEvents processes each event independently and reports per-event failures
func (s *EventService) ProcessBulkEvents(ctx context.Context, events []dto.PublishEventRequest) ([]string, []string, error) {
	var eventIDs []string
	var errors []string

	for i := range events {
		eventID, err := s.ProcessEvent(ctx, &events[i])
		if err != nil {
			errors = append(errors, fmt.Sprintf("event %d: %v", i, err))
			s.log.Warn("Failed to process event in bulk",
				zap.Int("index", i),
				zap.Error(err),
				zap.String("user_id", events[i].UserID))
			continue
		}
		eventIDs = append(eventIDs, eventID)
	}

	return eventIDs, errors, nil
}
