package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/sublimeminds/mindful-bot-compass-sub016/internal/domain"
	"github.com/sublimeminds/mindful-bot-compass-sub016/internal/engine"
	"github.com/sublimeminds/mindful-bot-compass-sub016/internal/metrics"
	"github.com/sublimeminds/mindful-bot-compass-sub016/internal/repository"
)

// ErrPreferencesReadOnly is returned by SetQuietHours when no preference writer is configured
var ErrPreferencesReadOnly = errors.New("quiet hours overrides are not writable")

// TimingService runs the timing engine against the configured stores.
// Read paths degrade to engine defaults when a store fails; only feedback
// recording surfaces storage errors to the caller.
type TimingService struct {
	events      repository.EventStore
	preferences repository.PreferenceStore
	writer      repository.PreferenceWriter
	snapshots   repository.PolicySnapshotStore
	classifiers ClassifierSource
	params      engine.Params
	log         *zap.Logger
	now         func() time.Time
}

// TimingOption configures optional TimingService collaborators
type TimingOption func(*TimingService)

// WithPreferenceWriter enables SetQuietHours
func WithPreferenceWriter(w repository.PreferenceWriter) TimingOption {
	return func(s *TimingService) { s.writer = w }
}

// WithPolicySnapshots enables GetPolicySnapshot
func WithPolicySnapshots(p repository.PolicySnapshotStore) TimingOption {
	return func(s *TimingService) { s.snapshots = p }
}

func NewTimingService(events repository.EventStore, preferences repository.PreferenceStore, classifiers ClassifierSource, params engine.Params, log *zap.Logger, opts ...TimingOption) *TimingService {
	s := &TimingService{
		events:      events,
		preferences: preferences,
		classifiers: classifiers,
		params:      params,
		log:         log,
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *TimingService) engine() *engine.Engine {
	var classifier *engine.Classifier
	if s.classifiers != nil {
		classifier = s.classifiers.Classifier()
	}
	return engine.New(s.params, classifier)
}

func (s *TimingService) storageFailure(op string, err error) error {
	metrics.StorageFailuresTotal.WithLabelValues(op).Inc()
	return &domain.StorageError{Op: op, Err: err}
}

func (s *TimingService) history(ctx context.Context, userID string) ([]domain.InteractionEvent, error) {
	events, err := s.events.GetInteractionHistory(ctx, userID, s.params.HistoryLimit)
	if err != nil {
		return nil, s.storageFailure("get_interaction_history", err)
	}
	return events, nil
}

func (s *TimingService) quietHoursOverride(ctx context.Context, userID string) *domain.QuietHours {
	if s.preferences == nil {
		return nil
	}
	override, err := s.preferences.GetQuietHoursOverride(ctx, userID)
	if err != nil {
		s.log.Warn("Failed to load quiet hours override, using defaults",
			zap.String("user_id", userID),
			zap.Error(s.storageFailure("get_quiet_hours_override", err)))
		return nil
	}
	return override
}

// AnalyzePatterns returns the user's engagement buckets, or none when history is unavailable
func (s *TimingService) AnalyzePatterns(ctx context.Context, userID string) ([]domain.EngagementPattern, error) {
	history, err := s.history(ctx, userID)
	if err != nil {
		s.log.Warn("Failed to load history for pattern analysis",
			zap.String("user_id", userID),
			zap.Error(err))
		return []domain.EngagementPattern{}, nil
	}
	return s.engine().AnalyzePatterns(history), nil
}

// PredictOptimalTiming recommends the next delivery time for a notification type
func (s *TimingService) PredictOptimalTiming(ctx context.Context, userID, notificationType string, contextFactors map[string]any) (domain.TimingPrediction, error) {
	eng := s.engine()
	history, err := s.history(ctx, userID)
	if err != nil {
		s.log.Warn("Failed to load history for prediction, serving default",
			zap.String("user_id", userID),
			zap.String("notification_type", notificationType),
			zap.Error(err))
		history = nil
	}

	prediction := eng.PredictOptimalTiming(notificationType, history, contextFactors, s.now())

	source := "history"
	if prediction.SampleCount == 0 {
		source = "default"
	}
	metrics.PredictionsTotal.WithLabelValues(prediction.Category, source).Inc()
	metrics.PredictionConfidence.Observe(prediction.Confidence)

	s.log.Debug("Timing prediction computed",
		zap.String("user_id", userID),
		zap.String("notification_type", notificationType),
		zap.Time("recommended_time", prediction.RecommendedTime),
		zap.Float64("confidence", prediction.Confidence),
		zap.Int("sample_count", prediction.SampleCount))

	return prediction, nil
}

// RecordFeedback scores a delivery outcome and appends it to the event store
func (s *TimingService) RecordFeedback(ctx context.Context, in engine.FeedbackInput) (domain.FeedbackRecord, error) {
	record, err := s.engine().NewFeedbackEvent(in, s.now())
	if err != nil {
		metrics.FeedbackTotal.WithLabelValues(string(in.ResponseType), "rejected").Inc()
		return domain.FeedbackRecord{}, err
	}
	if record.Event.NotificationType == "" {
		record.Event.NotificationType = s.deliveredType(ctx, in.UserID, in.NotificationID)
	}

	if err := s.events.AppendEvent(ctx, record.Event); err != nil {
		metrics.FeedbackTotal.WithLabelValues(string(in.ResponseType), "failed").Inc()
		s.log.Error("Failed to append feedback event",
			zap.String("user_id", in.UserID),
			zap.String("notification_id", in.NotificationID),
			zap.Error(err))
		return domain.FeedbackRecord{}, s.storageFailure("append_event", err)
	}

	metrics.FeedbackTotal.WithLabelValues(string(in.ResponseType), "recorded").Inc()
	s.log.Info("Feedback recorded",
		zap.String("event_id", record.Event.ID),
		zap.String("user_id", in.UserID),
		zap.String("notification_type", record.Event.NotificationType),
		zap.Float64("score", record.Score))

	return record, nil
}

// deliveredType looks up the type of an earlier event for the same notification.
// It returns "" when the history is unavailable or has no match.
func (s *TimingService) deliveredType(ctx context.Context, userID, notificationID string) string {
	history, err := s.history(ctx, userID)
	if err != nil {
		s.log.Warn("Failed to load history for feedback type lookup",
			zap.String("user_id", userID),
			zap.String("notification_id", notificationID),
			zap.Error(err))
		return ""
	}
	for _, ev := range history {
		if ev.NotificationID == notificationID && ev.NotificationType != "" {
			return ev.NotificationType
		}
	}
	return ""
}

// GetFrequencyPolicy derives the user's send caps. Missing history yields the conservative policy.
func (s *TimingService) GetFrequencyPolicy(ctx context.Context, userID string) (domain.FrequencyPolicy, error) {
	eng := s.engine()
	override := s.quietHoursOverride(ctx, userID)

	history, err := s.history(ctx, userID)
	if err != nil {
		s.log.Warn("Failed to load history for frequency policy, using conservative policy",
			zap.String("user_id", userID),
			zap.Error(err))
		return eng.ConservativePolicy(override), nil
	}

	policy := eng.FrequencyPolicy(history, override)
	metrics.PolicyDailyLimit.Observe(float64(policy.DailyLimit))
	return policy, nil
}

// GetPolicySnapshot returns the last policy stored by the refresher, or nil when none exists
func (s *TimingService) GetPolicySnapshot(ctx context.Context, userID string) (*domain.FrequencyPolicy, error) {
	if s.snapshots == nil {
		return nil, nil
	}
	policy, err := s.snapshots.GetPolicy(ctx, userID)
	if err != nil {
		return nil, s.storageFailure("get_policy_snapshot", err)
	}
	return policy, nil
}

// SavePolicySnapshot computes and stores the user's current policy
func (s *TimingService) SavePolicySnapshot(ctx context.Context, userID string) (domain.FrequencyPolicy, error) {
	policy, err := s.GetFrequencyPolicy(ctx, userID)
	if err != nil {
		return domain.FrequencyPolicy{}, err
	}
	if s.snapshots == nil {
		return policy, nil
	}
	if err := s.snapshots.SavePolicy(ctx, userID, policy); err != nil {
		return domain.FrequencyPolicy{}, s.storageFailure("save_policy_snapshot", err)
	}
	return policy, nil
}

// SetQuietHours stores or clears (nil) a user's quiet hours override
func (s *TimingService) SetQuietHours(ctx context.Context, userID string, quietHours *domain.QuietHours) error {
	if s.writer == nil {
		return ErrPreferencesReadOnly
	}
	if quietHours != nil {
		if !engine.ValidClock(quietHours.Start) {
			return &domain.ValidationError{Field: "start", Reason: fmt.Sprintf("%q is not a HH:MM time", quietHours.Start)}
		}
		if !engine.ValidClock(quietHours.End) {
			return &domain.ValidationError{Field: "end", Reason: fmt.Sprintf("%q is not a HH:MM time", quietHours.End)}
		}
	}
	if err := s.writer.SetQuietHoursOverride(ctx, userID, quietHours); err != nil {
		return s.storageFailure("set_quiet_hours_override", err)
	}
	return nil
}

// ListActiveUsers returns users with events at or after since
func (s *TimingService) ListActiveUsers(ctx context.Context, since time.Time, limit int) ([]string, error) {
	users, err := s.events.ListActiveUsers(ctx, since, limit)
	if err != nil {
		return nil, s.storageFailure("list_active_users", err)
	}
	return users, nil
}
