package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/sublimeminds/mindful-bot-compass-sub016/internal/domain"
	"github.com/sublimeminds/mindful-bot-compass-sub016/internal/dto"
	"github.com/sublimeminds/mindful-bot-compass-sub016/internal/engine"
	"github.com/sublimeminds/mindful-bot-compass-sub016/internal/service"
)

const (
	testTimestamp int64 = 1766702551
)

// MockEventService is a mock implementation of service.EventServicer
type MockEventService struct {
	mock.Mock
}

func (m *MockEventService) ProcessEvent(ctx context.Context, event *dto.PublishEventRequest) (string, error) {
	args := m.Called(event)
	return args.String(0), args.Error(1)
}

func (m *MockEventService) ProcessBulkEvents(ctx context.Context, events []dto.PublishEventRequest) ([]string, []string, error) {
	args := m.Called(events)
	return args.Get(0).([]string), args.Get(1).([]string), args.Error(2)
}

// MockTimingService is a mock implementation of service.TimingServicer
type MockTimingService struct {
	mock.Mock
}

func (m *MockTimingService) AnalyzePatterns(ctx context.Context, userID string) ([]domain.EngagementPattern, error) {
	args := m.Called(userID)
	return args.Get(0).([]domain.EngagementPattern), args.Error(1)
}

func (m *MockTimingService) PredictOptimalTiming(ctx context.Context, userID, notificationType string, contextFactors map[string]any) (domain.TimingPrediction, error) {
	args := m.Called(userID, notificationType, contextFactors)
	return args.Get(0).(domain.TimingPrediction), args.Error(1)
}

func (m *MockTimingService) RecordFeedback(ctx context.Context, in engine.FeedbackInput) (domain.FeedbackRecord, error) {
	args := m.Called(in)
	return args.Get(0).(domain.FeedbackRecord), args.Error(1)
}

func (m *MockTimingService) GetFrequencyPolicy(ctx context.Context, userID string) (domain.FrequencyPolicy, error) {
	args := m.Called(userID)
	return args.Get(0).(domain.FrequencyPolicy), args.Error(1)
}

func (m *MockTimingService) GetPolicySnapshot(ctx context.Context, userID string) (*domain.FrequencyPolicy, error) {
	args := m.Called(userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.FrequencyPolicy), args.Error(1)
}

func (m *MockTimingService) SetQuietHours(ctx context.Context, userID string, quietHours *domain.QuietHours) error {
	args := m.Called(userID, quietHours)
	return args.Error(0)
}

func newTestHandler() (*Handler, *MockEventService, *MockTimingService) {
	events := new(MockEventService)
	timing := new(MockTimingService)
	return NewHandler(events, timing, zap.NewNop()), events, timing
}

func doJSON(h http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	var reader *bytes.Reader
	switch b := body.(type) {
	case nil:
		reader = bytes.NewReader(nil)
	case []byte:
		reader = bytes.NewReader(b)
	default:
		raw, _ := json.Marshal(b)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) dto.ErrorResponse {
	t.Helper()
	var response dto.ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	return response
}

func TestHandler_HealthCheck(t *testing.T) {
	handler, _, _ := newTestHandler()

	w := doJSON(handler, http.MethodGet, "/health", nil)

	assert.Equal(t, http.StatusOK, w.Code)

	var response map[string]string
	err := json.Unmarshal(w.Body.Bytes(), &response)
	assert.NoError(t, err)
	assert.Equal(t, "ok", response["status"])
}

func TestHandler_Metrics(t *testing.T) {
	handler, _, _ := newTestHandler()

	doJSON(handler, http.MethodGet, "/health", nil)
	w := doJSON(handler, http.MethodGet, "/metrics", nil)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "timing_http_request_duration_seconds")
}

func TestHandler_Docs(t *testing.T) {
	handler, _, _ := newTestHandler()

	w := doJSON(handler, http.MethodGet, "/docs/index.html", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = doJSON(handler, http.MethodGet, "/docs/doc.json", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "/users/{user_id}/predictions")
	assert.Contains(t, w.Body.String(), "Notification Timing Engine API")
}

func TestHandler_PublishEvent_Success(t *testing.T) {
	handler, mockService, _ := newTestHandler()

	eventReq := dto.PublishEventRequest{
		UserID:           "user123",
		NotificationID:   "ntf1",
		NotificationType: "mood_check",
		EventType:        "clicked",
		Timestamp:        testTimestamp,
	}

	mockService.On("ProcessEvent", &eventReq).Return("event-id-123", nil)

	w := doJSON(handler, http.MethodPost, "/events", eventReq)

	assert.Equal(t, http.StatusAccepted, w.Code)

	var response dto.PublishEventResponse
	err := json.Unmarshal(w.Body.Bytes(), &response)
	assert.NoError(t, err)
	assert.Equal(t, "event-id-123", response.EventID)
	assert.Equal(t, "accepted", response.Status)
	mockService.AssertExpectations(t)
}

func TestHandler_PublishEvent_InvalidJSON(t *testing.T) {
	handler, mockService, _ := newTestHandler()

	w := doJSON(handler, http.MethodPost, "/events", []byte(`{"user_id": "u1", invalid}`))

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "validation_error", decodeError(t, w).Error)
	mockService.AssertNotCalled(t, "ProcessEvent")
}

func TestHandler_PublishEvent_MissingRequiredFields(t *testing.T) {
	handler, mockService, _ := newTestHandler()

	w := doJSON(handler, http.MethodPost, "/events", dto.PublishEventRequest{UserID: "user123"})

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "validation_error", decodeError(t, w).Error)
	mockService.AssertNotCalled(t, "ProcessEvent")
}

func TestHandler_PublishEvent_ServiceErrors(t *testing.T) {
	tests := []struct {
		name      string
		err       error
		wantCode  int
		wantError string
	}{
		{"validation", &domain.ValidationError{Field: "event_type", Reason: "unknown"}, http.StatusBadRequest, "validation_error"},
		{"queue", errors.New("queue publish error"), http.StatusInternalServerError, "internal_error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler, mockService, _ := newTestHandler()
			eventReq := dto.PublishEventRequest{
				UserID:           "user123",
				NotificationID:   "ntf1",
				NotificationType: "mood_check",
				EventType:        "opened",
				Timestamp:        testTimestamp,
			}
			mockService.On("ProcessEvent", &eventReq).Return("", tt.err)

			w := doJSON(handler, http.MethodPost, "/events", eventReq)

			assert.Equal(t, tt.wantCode, w.Code)
			response := decodeError(t, w)
			assert.Equal(t, tt.wantError, response.Error)
			assert.Contains(t, response.Message, tt.err.Error())
		})
	}
}

func TestHandler_PublishEventsBulk_Success(t *testing.T) {
	handler, mockService, _ := newTestHandler()

	bulkReq := dto.PublishEventsBulkRequest{
		Events: []dto.PublishEventRequest{
			{UserID: "user1", NotificationID: "n1", NotificationType: "mood_check", EventType: "clicked", Timestamp: testTimestamp},
			{UserID: "user2", NotificationID: "n2", NotificationType: "mood_check", EventType: "opened", Timestamp: testTimestamp},
		},
	}

	mockService.On("ProcessBulkEvents", bulkReq.Events).
		Return([]string{"id1"}, []string{"event 1: invalid event_type"}, nil)

	w := doJSON(handler, http.MethodPost, "/events/bulk", bulkReq)

	assert.Equal(t, http.StatusAccepted, w.Code)

	var response dto.PublishBulkEventsResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	assert.Equal(t, 1, response.Accepted)
	assert.Equal(t, 1, response.Rejected)
	assert.Equal(t, []string{"id1"}, response.EventIDs)
	mockService.AssertExpectations(t)
}

func TestHandler_PublishEventsBulk_EmptyEvents(t *testing.T) {
	handler, mockService, _ := newTestHandler()

	w := doJSON(handler, http.MethodPost, "/events/bulk", dto.PublishEventsBulkRequest{Events: []dto.PublishEventRequest{}})

	assert.Equal(t, http.StatusBadRequest, w.Code)
	mockService.AssertNotCalled(t, "ProcessBulkEvents")
}

func TestHandler_GetPatterns(t *testing.T) {
	handler, _, timing := newTestHandler()

	patterns := []domain.EngagementPattern{{Hour: 9, DayOfWeek: 1, AverageScore: 1, SampleCount: 2, Eligible: true}}
	timing.On("AnalyzePatterns", "u1").Return(patterns, nil)

	w := doJSON(handler, http.MethodGet, "/users/u1/patterns", nil)

	assert.Equal(t, http.StatusOK, w.Code)
	var response dto.PatternsResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	assert.Equal(t, "u1", response.UserID)
	assert.Equal(t, patterns, response.Patterns)
}

func TestHandler_GetPatterns_EmptyIsArray(t *testing.T) {
	handler, _, timing := newTestHandler()
	timing.On("AnalyzePatterns", "u1").Return([]domain.EngagementPattern{}, nil)

	w := doJSON(handler, http.MethodGet, "/users/u1/patterns", nil)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"patterns":[]`)
}

func TestHandler_PredictTiming(t *testing.T) {
	handler, _, timing := newTestHandler()

	recommended := time.Date(2026, time.January, 5, 20, 0, 0, 0, time.UTC)
	prediction := domain.TimingPrediction{
		NotificationType:  "mood_check",
		Category:          "wellbeing",
		RecommendedTime:   recommended,
		Confidence:        0.3,
		AlternativeTimes:  []time.Time{},
		Reasoning:         "Based on 3 past interactions, engagement peaks around 20:00",
		ContextualFactors: []string{},
		SampleCount:       3,
	}
	contextFactors := map[string]any{"has_active_session": true}
	timing.On("PredictOptimalTiming", "u1", "mood_check", contextFactors).Return(prediction, nil)

	w := doJSON(handler, http.MethodPost, "/users/u1/predictions", dto.PredictTimingRequest{
		NotificationType: "mood_check",
		ContextFactors:   contextFactors,
	})

	require.Equal(t, http.StatusOK, w.Code)
	var response dto.PredictionResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	assert.Equal(t, "u1", response.UserID)
	assert.Equal(t, "wellbeing", response.Category)
	assert.True(t, recommended.Equal(response.RecommendedTime))
	assert.Equal(t, 0.3, response.Confidence)
	timing.AssertExpectations(t)
}

func TestHandler_PredictTiming_MissingType(t *testing.T) {
	handler, _, timing := newTestHandler()

	w := doJSON(handler, http.MethodPost, "/users/u1/predictions", map[string]any{})

	assert.Equal(t, http.StatusBadRequest, w.Code)
	timing.AssertNotCalled(t, "PredictOptimalTiming")
}

func TestHandler_RecordFeedback(t *testing.T) {
	handler, _, timing := newTestHandler()

	latency := 2.0
	timing.On("RecordFeedback", mock.MatchedBy(func(in engine.FeedbackInput) bool {
		return in.UserID == "u1" && in.ResponseType == domain.EventClicked && in.ResponseLatencyMinutes == 2 && in.OccurredAt.IsZero()
	})).Return(domain.FeedbackRecord{Event: domain.InteractionEvent{ID: "fb-1"}, Score: 1}, nil)

	w := doJSON(handler, http.MethodPost, "/feedback", dto.RecordFeedbackRequest{
		UserID:                 "u1",
		NotificationID:         "n1",
		ResponseType:           "Clicked",
		ResponseLatencyMinutes: &latency,
	})

	assert.Equal(t, http.StatusCreated, w.Code)
	var response dto.FeedbackResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	assert.Equal(t, "fb-1", response.EventID)
	assert.Equal(t, 1.0, response.Score)
	assert.Equal(t, "recorded", response.Status)
}

func TestHandler_RecordFeedback_ZeroLatencyIsAccepted(t *testing.T) {
	handler, _, timing := newTestHandler()

	timing.On("RecordFeedback", mock.Anything).Return(domain.FeedbackRecord{Event: domain.InteractionEvent{ID: "fb-2"}, Score: 1}, nil)

	w := doJSON(handler, http.MethodPost, "/feedback",
		[]byte(`{"user_id":"u1","notification_id":"n1","response_type":"clicked","response_latency_minutes":0}`))

	assert.Equal(t, http.StatusCreated, w.Code)
}

func TestHandler_RecordFeedback_Errors(t *testing.T) {
	tests := []struct {
		name      string
		body      string
		err       error
		wantCode  int
		wantError string
	}{
		{
			name:      "missing latency",
			body:      `{"user_id":"u1","notification_id":"n1","response_type":"clicked"}`,
			wantCode:  http.StatusBadRequest,
			wantError: "validation_error",
		},
		{
			name:      "unknown response type",
			body:      `{"user_id":"u1","notification_id":"n1","response_type":"opened","response_latency_minutes":1}`,
			err:       &domain.ValidationError{Field: "response_type", Reason: "unknown response type opened"},
			wantCode:  http.StatusBadRequest,
			wantError: "validation_error",
		},
		{
			name:      "storage failure",
			body:      `{"user_id":"u1","notification_id":"n1","response_type":"clicked","response_latency_minutes":1}`,
			err:       &domain.StorageError{Op: "append_event", Err: errors.New("disk full")},
			wantCode:  http.StatusServiceUnavailable,
			wantError: "storage_unavailable",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler, _, timing := newTestHandler()
			if tt.err != nil {
				timing.On("RecordFeedback", mock.Anything).Return(domain.FeedbackRecord{}, tt.err)
			}

			w := doJSON(handler, http.MethodPost, "/feedback", []byte(tt.body))

			assert.Equal(t, tt.wantCode, w.Code)
			assert.Equal(t, tt.wantError, decodeError(t, w).Error)
		})
	}
}

func TestHandler_GetFrequencyPolicy(t *testing.T) {
	handler, _, timing := newTestHandler()

	policy := domain.FrequencyPolicy{
		DailyLimit:             7,
		HourlyLimit:            2,
		MinimumIntervalMinutes: 45,
		QuietHours:             domain.QuietHours{Start: "22:00", End: "08:00"},
		Fatigue:                0.25,
	}
	timing.On("GetFrequencyPolicy", "u1").Return(policy, nil)

	w := doJSON(handler, http.MethodGet, "/users/u1/frequency-policy", nil)

	require.Equal(t, http.StatusOK, w.Code)
	var response dto.FrequencyPolicyResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	assert.Equal(t, "u1", response.UserID)
	assert.Equal(t, policy, response.FrequencyPolicy)
	assert.True(t, strings.Contains(w.Body.String(), `"daily_limit":7`))
}

func TestHandler_GetPolicySnapshot(t *testing.T) {
	t.Run("found", func(t *testing.T) {
		handler, _, timing := newTestHandler()
		policy := &domain.FrequencyPolicy{DailyLimit: 5, HourlyLimit: 2, MinimumIntervalMinutes: 30}
		timing.On("GetPolicySnapshot", "u1").Return(policy, nil)

		w := doJSON(handler, http.MethodGet, "/users/u1/frequency-policy/snapshot", nil)

		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("missing", func(t *testing.T) {
		handler, _, timing := newTestHandler()
		timing.On("GetPolicySnapshot", "u1").Return(nil, nil)

		w := doJSON(handler, http.MethodGet, "/users/u1/frequency-policy/snapshot", nil)

		assert.Equal(t, http.StatusNotFound, w.Code)
		assert.Equal(t, "not_found", decodeError(t, w).Error)
	})
}

func TestHandler_SetQuietHours(t *testing.T) {
	handler, _, timing := newTestHandler()

	override := &domain.QuietHours{Start: "21:00", End: "07:00"}
	timing.On("SetQuietHours", "u1", override).Return(nil)

	w := doJSON(handler, http.MethodPut, "/users/u1/quiet-hours", dto.SetQuietHoursRequest{Start: "21:00", End: "07:00"})

	assert.Equal(t, http.StatusOK, w.Code)
	var response dto.QuietHoursResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	assert.Equal(t, override, response.QuietHours)
	timing.AssertExpectations(t)
}

func TestHandler_SetQuietHours_Clear(t *testing.T) {
	handler, _, timing := newTestHandler()
	timing.On("SetQuietHours", "u1", (*domain.QuietHours)(nil)).Return(nil)

	w := doJSON(handler, http.MethodPut, "/users/u1/quiet-hours", dto.SetQuietHoursRequest{Clear: true})

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"quiet_hours":null`)
}

func TestHandler_SetQuietHours_NotConfigured(t *testing.T) {
	handler, _, timing := newTestHandler()
	timing.On("SetQuietHours", "u1", mock.Anything).Return(service.ErrPreferencesReadOnly)

	w := doJSON(handler, http.MethodPut, "/users/u1/quiet-hours", dto.SetQuietHoursRequest{Start: "21:00", End: "07:00"})

	assert.Equal(t, http.StatusNotImplemented, w.Code)
	assert.Equal(t, "not_configured", decodeError(t, w).Error)
}
