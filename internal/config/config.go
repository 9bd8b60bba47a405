package config

import (
	"errors"
	"fmt"
	"io/fs"
	"time"
	_ "time/tzdata"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"

	"github.com/sublimeminds/mindful-bot-compass-sub016/internal/domain"
	"github.com/sublimeminds/mindful-bot-compass-sub016/internal/engine"
)

const (
	EventStoreClickHouse = "clickhouse"
	EventStoreSQLite     = "sqlite"
	EventStoreMemory     = "memory"
)

type Config struct {
	Service    Service    `envconfig:"SERVICE"`
	ClickHouse ClickHouse `envconfig:"CLICKHOUSE"`
	SQLite     SQLite     `envconfig:"SQLITE"`
	SQS        SQS        `envconfig:"SQS"`
	Consumer   Consumer   `envconfig:"CONSUMER"`
	Postgres   Postgres   `envconfig:"POSTGRES"`
	Valkey     Valkey     `envconfig:"VALKEY"`
	Engine     Engine     `envconfig:"ENGINE"`
	Catalog    Catalog    `envconfig:"CATALOG"`
	Refresher  Refresher  `envconfig:"REFRESHER"`
}

type Service struct {
	Environment       string `envconfig:"ENVIRONMENT" required:"true"`
	APIPort           string `envconfig:"API_PORT" default:"8080"`
	Host              string `envconfig:"HOST" default:"localhost:8080"`
	EventStore        string `envconfig:"EVENT_STORE" default:"clickhouse"`
	RequestTimeoutSec int    `envconfig:"REQUEST_TIMEOUT_SEC" default:"5"`
}

type ClickHouse struct {
	Host            string `envconfig:"HOST" default:"localhost"`
	Port            string `envconfig:"PORT" default:"9000"`
	Database        string `envconfig:"DB" default:"default"`
	User            string `envconfig:"USERNAME" default:""`
	Password        string `envconfig:"PASSWORD" default:""`
	MaxOpenConns    int    `envconfig:"MAX_OPEN_CONNS" default:"5"`
	MaxIdleConns    int    `envconfig:"MAX_IDLE_CONNS" default:"2"`
	ConnMaxLifetime int    `envconfig:"CONN_MAX_LIFETIME_SEC" default:"3600"`
	UseTLS          bool   `envconfig:"USE_TLS" default:"false"`
}

type SQLite struct {
	Path          string `envconfig:"FILE" default:"data/events.db"`
	BusyTimeoutMs int    `envconfig:"BUSY_TIMEOUT_MS" default:"5000"`
}

type SQS struct {
	Endpoint string `envconfig:"ENDPOINT"`
	QueueURL string `envconfig:"QUEUE_URL" required:"true"`
	Region   string `envconfig:"REGION" default:"us-east-1"`
}

type Consumer struct {
	BatchSizeMax    int    `envconfig:"BATCH_SIZE_MAX" default:"2000"`
	BatchTimeoutSec int    `envconfig:"BATCH_TIMEOUT_SEC" default:"10"`
	HealthCheckPort string `envconfig:"HEALTH_CHECK_PORT" default:"8081"`

	MaxMessages   int32 `envconfig:"MAX_MESSAGES" default:"10"`
	WaitTimeSec   int32 `envconfig:"WAIT_TIME_SEC" default:"20"`
	BufferSize    int   `envconfig:"BUFFER_SIZE" default:"100"`
	BackoffMaxSec int   `envconfig:"BACKOFF_MAX_SEC" default:"30"`

	// MaxReceiveCount drops a message after this many deliveries; 0 keeps retrying
	MaxReceiveCount int `envconfig:"MAX_RECEIVE_COUNT" default:"5"`
}

// Postgres holds the preference database settings. An empty DSN disables overrides.
type Postgres struct {
	DSN      string `envconfig:"DSN"`
	MaxConns int32  `envconfig:"MAX_CONNS" default:"10"`
}

type Valkey struct {
	Host                string `envconfig:"HOST" default:""`
	Port                string `envconfig:"PORT" default:"6379"`
	Password            string `envconfig:"PASSWORD" default:""`
	DB                  int    `envconfig:"DB" default:"0"`
	IdempotencyEnabled  bool   `envconfig:"IDEMPOTENCY_ENABLED" default:"true"`
	IdempotencyFailOpen bool   `envconfig:"IDEMPOTENCY_FAIL_OPEN" default:"true"`
	IdempotencyTTLSec   int    `envconfig:"IDEMPOTENCY_TTL_SEC" default:"86400"`
	PreferenceTTLSec    int    `envconfig:"PREFERENCE_TTL_SEC" default:"300"`
	PolicyTTLSec        int    `envconfig:"POLICY_TTL_SEC" default:"90000"`
}

// Enabled reports whether a Valkey/Redis address is configured
func (v Valkey) Enabled() bool {
	return v.Host != ""
}

// Addr returns host:port
func (v Valkey) Addr() string {
	return fmt.Sprintf("%s:%s", v.Host, v.Port)
}

type Engine struct {
	Timezone              string    `envconfig:"TIMEZONE" default:"UTC"`
	MinBucketSamples      int       `envconfig:"MIN_BUCKET_SAMPLES" default:"2"`
	FatigueWindow         int       `envconfig:"FATIGUE_WINDOW" default:"20"`
	ConfidenceBreakpoints []int     `envconfig:"CONFIDENCE_BREAKPOINTS" default:"10,30,50"`
	ConfidenceLevels      []float64 `envconfig:"CONFIDENCE_LEVELS" default:"0.3,0.5,0.7,0.9"`
	DailyLimits           []int     `envconfig:"DAILY_LIMITS" default:"10,7,5,3"`
	HistoryLimit          int       `envconfig:"HISTORY_LIMIT" default:"500"`
	QuietHoursStart       string    `envconfig:"QUIET_HOURS_START" default:"22:00"`
	QuietHoursEnd         string    `envconfig:"QUIET_HOURS_END" default:"08:00"`
}

// Params converts the engine settings into validated engine parameters
func (e Engine) Params() (engine.Params, error) {
	loc, err := time.LoadLocation(e.Timezone)
	if err != nil {
		return engine.Params{}, fmt.Errorf("failed to load timezone %q: %w", e.Timezone, err)
	}
	if !engine.ValidClock(e.QuietHoursStart) || !engine.ValidClock(e.QuietHoursEnd) {
		return engine.Params{}, fmt.Errorf("invalid default quiet hours %s-%s", e.QuietHoursStart, e.QuietHoursEnd)
	}

	params := engine.DefaultParams()
	params.Location = loc
	params.MinBucketSamples = e.MinBucketSamples
	params.FatigueWindow = e.FatigueWindow
	params.ConfidenceBreakpoints = e.ConfidenceBreakpoints
	params.ConfidenceLevels = e.ConfidenceLevels
	params.DailyLimits = e.DailyLimits
	params.HistoryLimit = e.HistoryLimit
	params.DefaultQuietHours = domain.QuietHours{Start: e.QuietHoursStart, End: e.QuietHoursEnd}

	if err := params.Validate(); err != nil {
		return engine.Params{}, fmt.Errorf("invalid engine config: %w", err)
	}
	return params, nil
}

type Catalog struct {
	Path  string `envconfig:"FILE" default:""`
	Watch bool   `envconfig:"WATCH" default:"true"`
}

type Refresher struct {
	Enabled      bool          `envconfig:"ENABLED" default:"false"`
	CronSpec     string        `envconfig:"CRON_SPEC" default:"0 3 * * *"`
	ActiveWindow time.Duration `envconfig:"ACTIVE_WINDOW" default:"168h"`
	BatchLimit   int           `envconfig:"BATCH_LIMIT" default:"10000"`
	TimeoutSec   int           `envconfig:"TIMEOUT_SEC" default:"600"`
}

// Load reads an optional .env file and then the process environment
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env file: %w", err)
	}

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to process config: %w", err)
	}

	switch cfg.Service.EventStore {
	case EventStoreClickHouse, EventStoreSQLite, EventStoreMemory:
	default:
		return nil, fmt.Errorf("unsupported event store %q", cfg.Service.EventStore)
	}

	return &cfg, nil
}
