package redisstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/sublimeminds/mindful-bot-compass-sub016/internal/domain"
	"github.com/sublimeminds/mindful-bot-compass-sub016/internal/repository"
)

const (
	quietHoursNamespace = "quiet_hours"
	noOverride          = "none"
)

// CachedPreferenceStore is a read-through cache in front of a PreferenceStore.
// Users without an override are cached too, so they do not hit the database
// on every prediction.
type CachedPreferenceStore struct {
	next   repository.PreferenceStore
	writer repository.PreferenceWriter
	cache  *Cache
	ttl    time.Duration
	log    *zap.Logger
}

// NewCachedPreferenceStore wraps next. writer may be nil when overrides are read-only.
func NewCachedPreferenceStore(next repository.PreferenceStore, writer repository.PreferenceWriter, cache *Cache, ttl time.Duration, log *zap.Logger) *CachedPreferenceStore {
	return &CachedPreferenceStore{next: next, writer: writer, cache: cache, ttl: ttl, log: log}
}

func (s *CachedPreferenceStore) GetQuietHoursOverride(ctx context.Context, userID string) (*domain.QuietHours, error) {
	raw, err := s.cache.Get(ctx, quietHoursNamespace, userID)
	switch {
	case err == nil:
		if raw == noOverride {
			return nil, nil
		}
		var qh domain.QuietHours
		if err := json.Unmarshal([]byte(raw), &qh); err == nil {
			return &qh, nil
		}
		s.log.Warn("Ignoring malformed cached quiet hours", zap.String("user_id", userID))
	case errors.Is(err, redis.Nil):
	default:
		s.log.Warn("Quiet hours cache read failed", zap.String("user_id", userID), zap.Error(err))
	}

	qh, err := s.next.GetQuietHoursOverride(ctx, userID)
	if err != nil {
		return nil, err
	}

	value := noOverride
	if qh != nil {
		b, err := json.Marshal(qh)
		if err != nil {
			return qh, nil
		}
		value = string(b)
	}
	if err := s.cache.Set(ctx, quietHoursNamespace, userID, value, s.ttl); err != nil {
		s.log.Warn("Quiet hours cache write failed", zap.String("user_id", userID), zap.Error(err))
	}
	return qh, nil
}

// SetQuietHoursOverride writes through to the backing store and drops the cached entry
func (s *CachedPreferenceStore) SetQuietHoursOverride(ctx context.Context, userID string, quietHours *domain.QuietHours) error {
	if s.writer == nil {
		return fmt.Errorf("quiet hours overrides are read-only")
	}
	if err := s.writer.SetQuietHoursOverride(ctx, userID, quietHours); err != nil {
		return err
	}
	if err := s.cache.Delete(ctx, quietHoursNamespace, userID); err != nil {
		s.log.Warn("Failed to invalidate cached quiet hours", zap.String("user_id", userID), zap.Error(err))
	}
	return nil
}
