package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/sublimeminds/mindful-bot-compass-sub016/internal/config"
	"github.com/sublimeminds/mindful-bot-compass-sub016/internal/domain"
	"github.com/sublimeminds/mindful-bot-compass-sub016/internal/metrics"
)

// PolicySource lists active users and stores a freshly computed policy for each
type PolicySource interface {
	ListActiveUsers(ctx context.Context, since time.Time, limit int) ([]string, error)
	SavePolicySnapshot(ctx context.Context, userID string) (domain.FrequencyPolicy, error)
}

// Refresher periodically recomputes frequency policies for recently active users
type Refresher struct {
	cronEngine *cron.Cron
	source     PolicySource
	cfg        config.Refresher
	log        *zap.Logger
	now        func() time.Time
}

func NewRefresher(source PolicySource, cfg config.Refresher, loc *time.Location, log *zap.Logger) *Refresher {
	if loc == nil {
		loc = time.UTC
	}
	return &Refresher{
		cronEngine: cron.New(cron.WithLocation(loc)),
		source:     source,
		cfg:        cfg,
		log:        log,
		now:        time.Now,
	}
}

// Start registers the refresh job and starts the cron engine
func (r *Refresher) Start() error {
	_, err := r.cronEngine.AddFunc(r.cfg.CronSpec, func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.cfg.TimeoutSec)*time.Second)
		defer cancel()
		if _, err := r.RunOnce(ctx); err != nil {
			r.log.Error("Policy refresh failed", zap.Error(err))
		}
	})
	if err != nil {
		return fmt.Errorf("failed to add policy refresh job %q: %w", r.cfg.CronSpec, err)
	}

	r.cronEngine.Start()
	r.log.Info("Policy refresher started", zap.String("cron_spec", r.cfg.CronSpec))
	return nil
}

// Stop waits for a running refresh to finish
func (r *Refresher) Stop() {
	ctx := r.cronEngine.Stop()
	<-ctx.Done()
	r.log.Info("Policy refresher stopped")
}

// RunOnce refreshes every user active within the configured window and
// returns how many policies were saved. Per-user failures are logged and skipped.
func (r *Refresher) RunOnce(ctx context.Context) (int, error) {
	since := r.now().Add(-r.cfg.ActiveWindow)
	users, err := r.source.ListActiveUsers(ctx, since, r.cfg.BatchLimit)
	if err != nil {
		return 0, fmt.Errorf("failed to list active users: %w", err)
	}

	saved := 0
	for _, userID := range users {
		if ctx.Err() != nil {
			return saved, ctx.Err()
		}
		if _, err := r.source.SavePolicySnapshot(ctx, userID); err != nil {
			metrics.RefreshedPoliciesTotal.WithLabelValues("failed").Inc()
			r.log.Warn("Failed to refresh policy",
				zap.String("user_id", userID),
				zap.Error(err))
			continue
		}
		metrics.RefreshedPoliciesTotal.WithLabelValues("saved").Inc()
		saved++
	}

	r.log.Info("Policy refresh completed",
		zap.Int("users", len(users)),
		zap.Int("saved", saved))
	return saved, nil
}
