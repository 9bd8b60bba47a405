package consumer

import (
	"context"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awssqs "github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/aws/aws-sdk-go-v2/service/sqs/types"
	"go.uber.org/zap"

	"github.com/sublimeminds/mindful-bot-compass-sub016/internal/metrics"
	"github.com/sublimeminds/mindful-bot-compass-sub016/internal/queue"
)

// ReceiverConfig configures the SQS receiver
type ReceiverConfig struct {
	MaxMessages     int32
	WaitTimeSeconds int32

	// MinBackoff and MaxBackoff bound the pause after a failed receive.
	// The pause doubles on each consecutive failure.
	MinBackoff time.Duration
	MaxBackoff time.Duration
}

// Receiver long-polls SQS and feeds raw messages to the parser stage
type Receiver struct {
	consumer queue.QueueConsumer
	config   ReceiverConfig
	log      *zap.Logger
}

func NewReceiver(consumer queue.QueueConsumer, config ReceiverConfig, log *zap.Logger) *Receiver {
	if config.MinBackoff <= 0 {
		config.MinBackoff = time.Second
	}
	if config.MaxBackoff < config.MinBackoff {
		config.MaxBackoff = config.MinBackoff
	}
	return &Receiver{
		consumer: consumer,
		config:   config,
		log:      log,
	}
}

func (r *Receiver) receiveInput() *awssqs.ReceiveMessageInput {
	return &awssqs.ReceiveMessageInput{
		QueueUrl:            aws.String(r.consumer.QueueURL()),
		MaxNumberOfMessages: r.config.MaxMessages,
		WaitTimeSeconds:     r.config.WaitTimeSeconds,
		MessageSystemAttributeNames: []types.MessageSystemAttributeName{
			types.MessageSystemAttributeNameApproximateReceiveCount,
		},
	}
}

// Start receives until ctx is done and closes out on return
func (r *Receiver) Start(ctx context.Context, out chan<- types.Message) {
	defer close(out)

	backoff := r.config.MinBackoff
	for {
		if ctx.Err() != nil {
			r.log.Info("Receiver shutting down")
			return
		}

		result, err := r.consumer.ReceiveMessages(ctx, r.receiveInput())
		if err != nil {
			if ctx.Err() != nil {
				r.log.Info("Receiver shutting down")
				return
			}
			metrics.ConsumerReceiveErrorsTotal.Inc()
			r.log.Error("Error receiving messages from SQS",
				zap.Duration("backoff", backoff),
				zap.Error(err))
			if !sleepCtx(ctx, backoff) {
				r.log.Info("Receiver shutting down")
				return
			}
			backoff = min(backoff*2, r.config.MaxBackoff)
			continue
		}
		backoff = r.config.MinBackoff

		if len(result.Messages) == 0 {
			continue
		}

		metrics.ConsumerMessagesReceivedTotal.Add(float64(len(result.Messages)))
		r.log.Debug("Received messages from SQS", zap.Int("message_count", len(result.Messages)))

		for _, msg := range result.Messages {
			select {
			case <-ctx.Done():
				// unsent messages become visible again after the queue's visibility timeout
				r.log.Info("Receiver shutting down while sending messages")
				return
			case out <- msg:
			}
		}
	}
}

// sleepCtx waits for d and reports false if ctx ended first
func sleepCtx(ctx context.Context, d time.Duration) bool {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}
