package consumer

import (
	"context"
	"sync"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/sqs/types"
	"go.uber.org/zap"

	"github.com/sublimeminds/mindful-bot-compass-sub016/internal/config"
	"github.com/sublimeminds/mindful-bot-compass-sub016/internal/queue"
	"github.com/sublimeminds/mindful-bot-compass-sub016/internal/repository"
)

// Consumer moves interaction events from SQS into the event store through
// three stages: receive, parse, batch write
type Consumer struct {
	receiver    *Receiver
	parser      *ParserStage
	batchWriter *BatchWriter
	bufferSize  int
	log         *zap.Logger
}

// NewConsumer wires the pipeline from configuration. seen may be nil to
// disable the idempotency filter.
func NewConsumer(cfg *config.Config, queueConsumer queue.QueueConsumer, store repository.EventStore, seen IdempotencyFilter, log *zap.Logger) *Consumer {
	receiver := NewReceiver(queueConsumer, ReceiverConfig{
		MaxMessages:     cfg.Consumer.MaxMessages,
		WaitTimeSeconds: cfg.Consumer.WaitTimeSec,
		MinBackoff:      time.Second,
		MaxBackoff:      time.Duration(cfg.Consumer.BackoffMaxSec) * time.Second,
	}, log)

	parser := NewParserStage(queueConsumer, NewJSONEventParser(), ParserStageConfig{
		MaxReceiveCount: cfg.Consumer.MaxReceiveCount,
	}, log)

	batchWriter := NewBatchWriter(store, seen, BatchWriterConfig{
		MaxBatchSize: cfg.Consumer.BatchSizeMax,
		FlushTimeout: time.Duration(cfg.Consumer.BatchTimeoutSec) * time.Second,
		FailOpen:     cfg.Valkey.IdempotencyFailOpen,
	}, log)

	return &Consumer{
		receiver:    receiver,
		parser:      parser,
		batchWriter: batchWriter,
		bufferSize:  max(cfg.Consumer.BufferSize, 0),
		log:         log,
	}
}

// Start runs the pipeline until ctx is done. It returns once the batch
// writer has flushed what it was holding.
func (c *Consumer) Start(ctx context.Context) error {
	messageChan := make(chan types.Message, c.bufferSize)
	envelopeChan := make(chan *Envelope, c.bufferSize)

	var wg sync.WaitGroup
	wg.Add(3)

	go func() {
		defer wg.Done()
		c.receiver.Start(ctx, messageChan)
	}()

	go func() {
		defer wg.Done()
		c.parser.Start(ctx, messageChan, envelopeChan)
	}()

	go func() {
		defer wg.Done()
		c.batchWriter.Start(ctx, envelopeChan)
	}()

	wg.Wait()
	c.log.Info("Consumer pipeline stopped")
	return nil
}
