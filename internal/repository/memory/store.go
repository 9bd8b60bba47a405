// Package memory holds an in-process event store for tests and local runs
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/sublimeminds/mindful-bot-compass-sub016/internal/domain"
)

type Store struct {
	mu     sync.RWMutex
	byUser map[string][]domain.InteractionEvent
	ids    map[string]struct{}
}

func NewStore() *Store {
	return &Store{
		byUser: make(map[string][]domain.InteractionEvent),
		ids:    make(map[string]struct{}),
	}
}

func (s *Store) InitSchema(ctx context.Context) error { return nil }

func (s *Store) Ping(ctx context.Context) error { return nil }

func (s *Store) Close() error { return nil }

// GetInteractionHistory returns copies of at most limit events, newest first
func (s *Store) GetInteractionHistory(ctx context.Context, userID string, limit int) ([]domain.InteractionEvent, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if limit <= 0 {
		return []domain.InteractionEvent{}, nil
	}

	s.mu.RLock()
	events := append([]domain.InteractionEvent(nil), s.byUser[userID]...)
	s.mu.RUnlock()

	sort.SliceStable(events, func(i, j int) bool {
		return events[i].Timestamp.After(events[j].Timestamp)
	})
	if len(events) > limit {
		events = events[:limit]
	}
	return events, nil
}

// AppendEvent stores the event unless its ID was already seen
func (s *Store) AppendEvent(ctx context.Context, event domain.InteractionEvent) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.appendLocked(event)
	return nil
}

func (s *Store) InsertBatch(ctx context.Context, events []*domain.InteractionEvent) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, ev := range events {
		s.appendLocked(*ev)
	}
	return len(events), nil
}

func (s *Store) appendLocked(event domain.InteractionEvent) {
	if event.ID != "" {
		if _, dup := s.ids[event.ID]; dup {
			return
		}
		s.ids[event.ID] = struct{}{}
	}
	s.byUser[event.UserID] = append(s.byUser[event.UserID], event)
}

// ListActiveUsers returns users with an event at or after since, sorted by ID
func (s *Store) ListActiveUsers(ctx context.Context, since time.Time, limit int) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if limit <= 0 {
		return []string{}, nil
	}

	s.mu.RLock()
	var users []string
	for userID, events := range s.byUser {
		for _, ev := range events {
			if !ev.Timestamp.Before(since) {
				users = append(users, userID)
				break
			}
		}
	}
	s.mu.RUnlock()

	sort.Strings(users)
	if len(users) > limit {
		users = users[:limit]
	}
	return users, nil
}
