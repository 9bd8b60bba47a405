package redisstore

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/sublimeminds/mindful-bot-compass-sub016/internal/domain"
)

// fakeKV is an in-memory KV; set failErr to make every call fail
type fakeKV struct {
	mu      sync.Mutex
	data    map[string]string
	ttls    map[string]time.Duration
	failErr error
}

func newFakeKV() *fakeKV {
	return &fakeKV{data: map[string]string{}, ttls: map[string]time.Duration{}}
}

func (f *fakeKV) Get(ctx context.Context, key string) *redis.StringCmd {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failErr != nil {
		return redis.NewStringResult("", f.failErr)
	}
	v, ok := f.data[key]
	if !ok {
		return redis.NewStringResult("", redis.Nil)
	}
	return redis.NewStringResult(v, nil)
}

func (f *fakeKV) Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failErr != nil {
		return redis.NewStatusResult("", f.failErr)
	}
	switch v := value.(type) {
	case []byte:
		f.data[key] = string(v)
	default:
		f.data[key] = fmt.Sprint(v)
	}
	f.ttls[key] = expiration
	return redis.NewStatusResult("OK", nil)
}

func (f *fakeKV) Del(ctx context.Context, keys ...string) *redis.IntCmd {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failErr != nil {
		return redis.NewIntResult(0, f.failErr)
	}
	var n int64
	for _, k := range keys {
		if _, ok := f.data[k]; ok {
			delete(f.data, k)
			n++
		}
	}
	return redis.NewIntResult(n, nil)
}

func (f *fakeKV) Exists(ctx context.Context, keys ...string) *redis.IntCmd {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failErr != nil {
		return redis.NewIntResult(0, f.failErr)
	}
	var n int64
	for _, k := range keys {
		if _, ok := f.data[k]; ok {
			n++
		}
	}
	return redis.NewIntResult(n, nil)
}

// MockPreferenceStore is a mock implementation of repository.PreferenceStore and PreferenceWriter
type MockPreferenceStore struct {
	mock.Mock
}

func (m *MockPreferenceStore) GetQuietHoursOverride(ctx context.Context, userID string) (*domain.QuietHours, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.QuietHours), args.Error(1)
}

func (m *MockPreferenceStore) SetQuietHoursOverride(ctx context.Context, userID string, quietHours *domain.QuietHours) error {
	args := m.Called(ctx, userID, quietHours)
	return args.Error(0)
}

func TestCachedPreferenceStore_ReadThrough(t *testing.T) {
	kv := newFakeKV()
	next := new(MockPreferenceStore)
	override := &domain.QuietHours{Start: "23:00", End: "07:00"}
	next.On("GetQuietHoursOverride", mock.Anything, "user-1").Return(override, nil).Once()

	store := NewCachedPreferenceStore(next, nil, NewCache(kv), time.Minute, zap.NewNop())
	ctx := context.Background()

	first, err := store.GetQuietHoursOverride(ctx, "user-1")
	require.NoError(t, err)
	second, err := store.GetQuietHoursOverride(ctx, "user-1")
	require.NoError(t, err)

	assert.Equal(t, override, first)
	assert.Equal(t, override, second)
	assert.Equal(t, time.Minute, kv.ttls["quiet_hours:user-1"])
	next.AssertNumberOfCalls(t, "GetQuietHoursOverride", 1)
}

func TestCachedPreferenceStore_CachesMissingOverride(t *testing.T) {
	kv := newFakeKV()
	next := new(MockPreferenceStore)
	next.On("GetQuietHoursOverride", mock.Anything, "user-2").Return(nil, nil).Once()

	store := NewCachedPreferenceStore(next, nil, NewCache(kv), time.Minute, zap.NewNop())

	for i := 0; i < 3; i++ {
		qh, err := store.GetQuietHoursOverride(context.Background(), "user-2")
		require.NoError(t, err)
		assert.Nil(t, qh)
	}
	assert.Equal(t, "none", kv.data["quiet_hours:user-2"])
	next.AssertNumberOfCalls(t, "GetQuietHoursOverride", 1)
}

func TestCachedPreferenceStore_CacheOutageFallsThrough(t *testing.T) {
	kv := newFakeKV()
	kv.failErr = errors.New("connection refused")
	next := new(MockPreferenceStore)
	override := &domain.QuietHours{Start: "22:30", End: "06:30"}
	next.On("GetQuietHoursOverride", mock.Anything, "user-3").Return(override, nil)

	store := NewCachedPreferenceStore(next, nil, NewCache(kv), time.Minute, zap.NewNop())

	qh, err := store.GetQuietHoursOverride(context.Background(), "user-3")

	require.NoError(t, err)
	assert.Equal(t, override, qh)
}

func TestCachedPreferenceStore_BackingStoreError(t *testing.T) {
	next := new(MockPreferenceStore)
	next.On("GetQuietHoursOverride", mock.Anything, "user-4").Return(nil, errors.New("db down"))

	store := NewCachedPreferenceStore(next, nil, NewCache(newFakeKV()), time.Minute, zap.NewNop())

	_, err := store.GetQuietHoursOverride(context.Background(), "user-4")

	assert.Error(t, err)
}

func TestCachedPreferenceStore_SetInvalidates(t *testing.T) {
	kv := newFakeKV()
	kv.data["quiet_hours:user-5"] = "none"
	backing := new(MockPreferenceStore)
	override := &domain.QuietHours{Start: "21:00", End: "07:00"}
	backing.On("SetQuietHoursOverride", mock.Anything, "user-5", override).Return(nil)

	store := NewCachedPreferenceStore(backing, backing, NewCache(kv), time.Minute, zap.NewNop())

	require.NoError(t, store.SetQuietHoursOverride(context.Background(), "user-5", override))

	_, cached := kv.data["quiet_hours:user-5"]
	assert.False(t, cached)
	backing.AssertExpectations(t)
}

func TestCachedPreferenceStore_SetWithoutWriter(t *testing.T) {
	store := NewCachedPreferenceStore(new(MockPreferenceStore), nil, NewCache(newFakeKV()), time.Minute, zap.NewNop())

	assert.Error(t, store.SetQuietHoursOverride(context.Background(), "user-6", nil))
}

func TestPolicySnapshots_RoundTrip(t *testing.T) {
	kv := newFakeKV()
	snapshots := NewPolicySnapshots(NewCache(kv), 25*time.Hour)
	ctx := context.Background()
	policy := domain.FrequencyPolicy{
		DailyLimit:             7,
		HourlyLimit:            2,
		MinimumIntervalMinutes: 45,
		QuietHours:             domain.QuietHours{Start: "22:00", End: "08:00"},
		Fatigue:                0.3,
	}

	missing, err := snapshots.GetPolicy(ctx, "user-1")
	require.NoError(t, err)
	assert.Nil(t, missing)

	require.NoError(t, snapshots.SavePolicy(ctx, "user-1", policy))
	got, err := snapshots.GetPolicy(ctx, "user-1")

	require.NoError(t, err)
	assert.Equal(t, &policy, got)
	assert.Equal(t, 25*time.Hour, kv.ttls["frequency_policy:user-1"])
}

func TestSeenEvents(t *testing.T) {
	seen := NewSeenEvents(NewCache(newFakeKV()), time.Hour)
	ctx := context.Background()

	ok, err := seen.Seen(ctx, "evt-1")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, seen.MarkSeen(ctx, "evt-1"))

	ok, err = seen.Seen(ctx, "evt-1")
	require.NoError(t, err)
	assert.True(t, ok)
}
