package redisstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/sublimeminds/mindful-bot-compass-sub016/internal/domain"
)

const (
	policyNamespace = "frequency_policy"
	seenNamespace   = "event_seen"
)

// PolicySnapshots stores precomputed frequency policies as JSON
type PolicySnapshots struct {
	cache *Cache
	ttl   time.Duration
}

func NewPolicySnapshots(cache *Cache, ttl time.Duration) *PolicySnapshots {
	return &PolicySnapshots{cache: cache, ttl: ttl}
}

func (p *PolicySnapshots) SavePolicy(ctx context.Context, userID string, policy domain.FrequencyPolicy) error {
	b, err := json.Marshal(policy)
	if err != nil {
		return fmt.Errorf("failed to marshal frequency policy: %w", err)
	}
	if err := p.cache.Set(ctx, policyNamespace, userID, b, p.ttl); err != nil {
		return fmt.Errorf("failed to save frequency policy: %w", err)
	}
	return nil
}

// GetPolicy returns nil when no snapshot exists
func (p *PolicySnapshots) GetPolicy(ctx context.Context, userID string) (*domain.FrequencyPolicy, error) {
	raw, err := p.cache.Get(ctx, policyNamespace, userID)
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read frequency policy: %w", err)
	}
	var policy domain.FrequencyPolicy
	if err := json.Unmarshal([]byte(raw), &policy); err != nil {
		return nil, fmt.Errorf("failed to unmarshal frequency policy: %w", err)
	}
	return &policy, nil
}

// SeenEvents remembers event IDs already written by the consumer
type SeenEvents struct {
	cache *Cache
	ttl   time.Duration
}

func NewSeenEvents(cache *Cache, ttl time.Duration) *SeenEvents {
	return &SeenEvents{cache: cache, ttl: ttl}
}

func (s *SeenEvents) Seen(ctx context.Context, eventID string) (bool, error) {
	return s.cache.Exists(ctx, seenNamespace, eventID)
}

func (s *SeenEvents) MarkSeen(ctx context.Context, eventID string) error {
	return s.cache.Set(ctx, seenNamespace, eventID, 1, s.ttl)
}
