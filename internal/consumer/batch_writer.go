package consumer

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/sublimeminds/mindful-bot-compass-sub016/internal/domain"
	"github.com/sublimeminds/mindful-bot-compass-sub016/internal/metrics"
	"github.com/sublimeminds/mindful-bot-compass-sub016/internal/repository"
)

// BatchWriterConfig configures the batch writer
type BatchWriterConfig struct {
	MaxBatchSize int
	FlushTimeout time.Duration

	// FailOpen writes events whose idempotency lookup failed instead of
	// returning them to the queue
	FailOpen bool
}

// BatchWriter handles batching and writing events to the event store
type BatchWriter struct {
	store  repository.EventStore
	seen   IdempotencyFilter
	config BatchWriterConfig
	log    *zap.Logger
}

// NewBatchWriter creates a new batch writer. seen may be nil.
func NewBatchWriter(store repository.EventStore, seen IdempotencyFilter, config BatchWriterConfig, log *zap.Logger) *BatchWriter {
	return &BatchWriter{
		store:  store,
		seen:   seen,
		config: config,
		log:    log,
	}
}

// Start begins processing envelopes, batching, and writing to the event store
func (w *BatchWriter) Start(ctx context.Context, in <-chan *Envelope) {
	ticker := time.NewTicker(w.config.FlushTimeout)
	defer ticker.Stop()

	batch := make([]*Envelope, 0, w.config.MaxBatchSize)

	for {
		select {
		case <-ctx.Done():
			w.log.Info("Batch writer shutting down")
			if len(batch) > 0 {
				w.log.Info("Flushing final batch", zap.Int("envelope_count", len(batch)))
				w.processBatch(context.WithoutCancel(ctx), batch)
			}
			return

		case envelope, ok := <-in:
			if !ok {
				w.log.Info("Batch writer input channel closed")
				if len(batch) > 0 {
					w.log.Info("Flushing final batch", zap.Int("envelope_count", len(batch)))
					w.processBatch(ctx, batch)
				}
				return
			}

			batch = append(batch, envelope)

			if len(batch) >= w.config.MaxBatchSize {
				w.log.Info("Batch size threshold reached", zap.Int("batch_size", len(batch)))
				w.processBatch(ctx, batch)
				batch = make([]*Envelope, 0, w.config.MaxBatchSize)
				ticker.Reset(w.config.FlushTimeout)
			}

		case <-ticker.C:
			if len(batch) > 0 {
				w.log.Info("Batch timeout reached", zap.Int("envelope_count", len(batch)))
				w.processBatch(ctx, batch)
				batch = make([]*Envelope, 0, w.config.MaxBatchSize)
			}
		}
	}
}

// filterSeen acks envelopes whose events were already stored and returns the rest
func (w *BatchWriter) filterSeen(ctx context.Context, envelopes []*Envelope) []*Envelope {
	if w.seen == nil {
		return envelopes
	}

	fresh := make([]*Envelope, 0, len(envelopes))
	for _, env := range envelopes {
		seen, err := w.seen.Seen(ctx, env.Event.ID)
		if err != nil {
			w.log.Warn("Idempotency lookup failed",
				zap.String("event_id", env.Event.ID),
				zap.Bool("fail_open", w.config.FailOpen),
				zap.Error(err))
			if !w.config.FailOpen {
				w.nackAll(ctx, []*Envelope{env})
				continue
			}
		}
		if seen {
			metrics.ConsumerEventsTotal.WithLabelValues("duplicate").Inc()
			w.ackAll(ctx, []*Envelope{env})
			continue
		}
		fresh = append(fresh, env)
	}
	return fresh
}

// processBatch handles the atomic transaction: insert + ack/nack
func (w *BatchWriter) processBatch(ctx context.Context, envelopes []*Envelope) {
	envelopes = w.filterSeen(ctx, envelopes)
	if len(envelopes) == 0 {
		return
	}

	events := make([]*domain.InteractionEvent, len(envelopes))
	for i, env := range envelopes {
		events[i] = env.Event
	}

	insertedCount, err := w.store.InsertBatch(ctx, events)

	if err != nil {
		metrics.ConsumerEventsTotal.WithLabelValues("retried").Add(float64(len(events)))
		w.log.Error("Failed to insert batch",
			zap.Error(err),
			zap.Int("event_count", len(events)))
		w.nackAll(ctx, envelopes)
		return
	}

	if insertedCount != len(events) {
		metrics.ConsumerEventsTotal.WithLabelValues("retried").Add(float64(len(events)))
		w.log.Warn("Partial insert success",
			zap.Int("inserted", insertedCount),
			zap.Int("expected", len(events)))
		w.nackAll(ctx, envelopes)
		return
	}

	metrics.ConsumerEventsTotal.WithLabelValues("stored").Add(float64(insertedCount))
	w.log.Info("Successfully inserted events",
		zap.Int("count", insertedCount))
	w.markSeen(ctx, events)
	w.ackAll(ctx, envelopes)
}

func (w *BatchWriter) markSeen(ctx context.Context, events []*domain.InteractionEvent) {
	if w.seen == nil {
		return
	}
	for _, ev := range events {
		if err := w.seen.MarkSeen(ctx, ev.ID); err != nil {
			w.log.Warn("Failed to mark event as seen",
				zap.String("event_id", ev.ID),
				zap.Error(err))
		}
	}
}

// ackAll acknowledges all envelopes (deletes from SQS)
func (w *BatchWriter) ackAll(ctx context.Context, envelopes []*Envelope) {
	for _, env := range envelopes {
		if err := env.Ack(ctx); err != nil {
			w.log.Error("Failed to ack envelope",
				zap.String("message_id", env.MessageID),
				zap.Error(err))
		}
	}
}

// nackAll returns all envelopes to SQS for retry
func (w *BatchWriter) nackAll(ctx context.Context, envelopes []*Envelope) {
	for _, env := range envelopes {
		if err := env.Nack(ctx); err != nil {
			w.log.Error("Failed to nack envelope",
				zap.String("message_id", env.MessageID),
				zap.Int("receive_count", env.ReceiveCount),
				zap.Error(err))
		}
	}
}
