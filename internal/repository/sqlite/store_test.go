package sqlite

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/sublimeminds/mindful-bot-compass-sub016/internal/config"
	"github.com/sublimeminds/mindful-bot-compass-sub016/internal/domain"
)

var base = time.Date(2026, time.March, 2, 9, 0, 0, 0, time.UTC)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(context.Background(), config.SQLite{
		Path:          filepath.Join(t.TempDir(), "nested", "events.db"),
		BusyTimeoutMs: 1000,
	}, zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestOpen_RequiresPath(t *testing.T) {
	_, err := Open(context.Background(), config.SQLite{}, zap.NewNop())

	assert.Error(t, err)
}

func TestStore_RoundTrip(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	score := 0.84

	first := domain.InteractionEvent{
		ID:                     "e1",
		UserID:                 "user-1",
		NotificationID:         "n1",
		NotificationType:       "mood_check",
		EventType:              domain.EventViewed,
		Timestamp:              base,
		ResponseLatencyMinutes: 12.5,
		ContextFactors:         map[string]any{"has_active_session": true, "mood_level": 6.0},
	}
	second := domain.InteractionEvent{
		ID:               "e2",
		UserID:           "user-1",
		NotificationID:   "n2",
		NotificationType: "session_reminder",
		EventType:        domain.EventClicked,
		Timestamp:        base.Add(time.Hour),
		FeedbackScore:    &score,
	}

	require.NoError(t, s.AppendEvent(ctx, first))
	require.NoError(t, s.AppendEvent(ctx, second))

	events, err := s.GetInteractionHistory(ctx, "user-1", 10)

	require.NoError(t, err)
	require.Len(t, events, 2)

	assert.Equal(t, "e2", events[0].ID)
	require.NotNil(t, events[0].FeedbackScore)
	assert.Equal(t, 0.84, *events[0].FeedbackScore)
	assert.Nil(t, events[0].ContextFactors)

	assert.Equal(t, "e1", events[1].ID)
	assert.Equal(t, domain.EventViewed, events[1].EventType)
	assert.True(t, base.Equal(events[1].Timestamp))
	assert.Equal(t, 12.5, events[1].ResponseLatencyMinutes)
	assert.Equal(t, true, events[1].ContextFactors["has_active_session"])
	assert.Equal(t, 6.0, events[1].ContextFactors["mood_level"])
	assert.Nil(t, events[1].FeedbackScore)
}

func TestStore_InsertBatchSkipsDuplicates(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	events := []*domain.InteractionEvent{
		{ID: "a", UserID: "u1", NotificationID: "n", NotificationType: "t", EventType: domain.EventClicked, Timestamp: base},
		{ID: "a", UserID: "u1", NotificationID: "n", NotificationType: "t", EventType: domain.EventClicked, Timestamp: base},
		{ID: "b", UserID: "u2", NotificationID: "n", NotificationType: "t", EventType: domain.EventIgnored, Timestamp: base.Add(-72 * time.Hour)},
	}

	n, err := s.InsertBatch(ctx, events)
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	history, err := s.GetInteractionHistory(ctx, "u1", 10)
	require.NoError(t, err)
	assert.Len(t, history, 1)

	users, err := s.ListActiveUsers(ctx, base.Add(-time.Hour), 10)
	require.NoError(t, err)
	assert.Equal(t, []string{"u1"}, users)
}

func TestStore_HistoryLimit(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	for i := 0; i < 5; i++ {
		require.NoError(t, s.AppendEvent(ctx, domain.InteractionEvent{
			ID: string(rune('a' + i)), UserID: "u", NotificationID: "n", NotificationType: "t",
			EventType: domain.EventDelivered, Timestamp: base.Add(time.Duration(i) * time.Minute),
		}))
	}

	events, err := s.GetInteractionHistory(ctx, "u", 2)

	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, "e", events[0].ID)
	assert.Equal(t, "d", events[1].ID)
	assert.NoError(t, s.Ping(ctx))
}

func TestStore_NonPositiveLimitReturnsNothing(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	require.NoError(t, s.AppendEvent(ctx, domain.InteractionEvent{
		ID: "a", UserID: "u", NotificationID: "n", NotificationType: "t",
		EventType: domain.EventDelivered, Timestamp: base,
	}))

	for _, limit := range []int{0, -1} {
		events, err := s.GetInteractionHistory(ctx, "u", limit)
		require.NoError(t, err)
		assert.Empty(t, events, "limit %d", limit)

		users, err := s.ListActiveUsers(ctx, base.Add(-time.Hour), limit)
		require.NoError(t, err)
		assert.Empty(t, users, "limit %d", limit)
	}
}
