package bootstrap

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/sublimeminds/mindful-bot-compass-sub016/internal/config"
	"github.com/sublimeminds/mindful-bot-compass-sub016/internal/repository"
	"github.com/sublimeminds/mindful-bot-compass-sub016/internal/repository/clickhouse"
	"github.com/sublimeminds/mindful-bot-compass-sub016/internal/repository/memory"
	"github.com/sublimeminds/mindful-bot-compass-sub016/internal/repository/postgres"
	redisstore "github.com/sublimeminds/mindful-bot-compass-sub016/internal/repository/redis"
	"github.com/sublimeminds/mindful-bot-compass-sub016/internal/repository/sqlite"
)

// OpenEventStore opens the configured event store and makes sure its schema exists
func OpenEventStore(ctx context.Context, cfg *config.Config, log *zap.Logger) (repository.EventStore, error) {
	var store repository.EventStore

	switch cfg.Service.EventStore {
	case config.EventStoreClickHouse:
		client, err := clickhouse.NewClient(ctx, &cfg.ClickHouse, log)
		if err != nil {
			return nil, fmt.Errorf("failed to create ClickHouse client: %w", err)
		}
		store = clickhouse.NewRepository(client, log)
	case config.EventStoreSQLite:
		s, err := sqlite.Open(ctx, cfg.SQLite, log)
		if err != nil {
			return nil, fmt.Errorf("failed to open SQLite store: %w", err)
		}
		store = s
	case config.EventStoreMemory:
		log.Warn("Using in-memory event store, history is lost on restart")
		store = memory.NewStore()
	default:
		return nil, fmt.Errorf("unsupported event store %q", cfg.Service.EventStore)
	}

	if err := store.InitSchema(ctx); err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	log.Info("Event store ready", zap.String("backend", cfg.Service.EventStore))
	return store, nil
}

// OpenValkey connects to Valkey when it is configured. It returns nil, nil otherwise.
func OpenValkey(ctx context.Context, cfg config.Valkey, log *zap.Logger) (*redis.Client, error) {
	if !cfg.Enabled() {
		log.Info("Valkey not configured, caching and idempotency disabled")
		return nil, nil
	}
	return redisstore.NewClient(ctx, cfg, log)
}

// Preferences holds the user preference stores. Both fields are nil when
// no preference database is configured.
type Preferences struct {
	Store  repository.PreferenceStore
	Writer repository.PreferenceWriter
	close  func()
}

func (p *Preferences) Close() {
	if p.close != nil {
		p.close()
	}
}

// OpenPreferences opens the Postgres preference store and, when kv is not nil,
// puts a read-through cache in front of it
func OpenPreferences(ctx context.Context, cfg *config.Config, kv *redis.Client, log *zap.Logger) (*Preferences, error) {
	if cfg.Postgres.DSN == "" {
		log.Info("Postgres not configured, quiet hours overrides disabled")
		return &Preferences{}, nil
	}

	pool, err := postgres.NewPool(ctx, cfg.Postgres, log)
	if err != nil {
		return nil, err
	}
	repo := postgres.NewPreferenceRepository(pool, log)
	if err := repo.InitSchema(ctx); err != nil {
		pool.Close()
		return nil, err
	}

	prefs := &Preferences{Store: repo, Writer: repo, close: pool.Close}
	if kv != nil {
		ttl := time.Duration(cfg.Valkey.PreferenceTTLSec) * time.Second
		cached := redisstore.NewCachedPreferenceStore(repo, repo, redisstore.NewCache(kv), ttl, log)
		prefs.Store = cached
		prefs.Writer = cached
	}
	return prefs, nil
}

// PolicySnapshots returns the snapshot store backed by kv
func PolicySnapshots(cfg config.Valkey, kv redisstore.KV) *redisstore.PolicySnapshots {
	return redisstore.NewPolicySnapshots(redisstore.NewCache(kv), time.Duration(cfg.PolicyTTLSec)*time.Second)
}

// SeenEvents returns the consumer idempotency filter backed by kv
func SeenEvents(cfg config.Valkey, kv redisstore.KV) *redisstore.SeenEvents {
	return redisstore.NewSeenEvents(redisstore.NewCache(kv), time.Duration(cfg.IdempotencyTTLSec)*time.Second)
}
