package consumer

import (
	"context"
	"strconv"

	"github.com/aws/aws-sdk-go-v2/aws"
	awssqs "github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/aws/aws-sdk-go-v2/service/sqs/types"
	"go.uber.org/zap"

	"github.com/sublimeminds/mindful-bot-compass-sub016/internal/metrics"
	"github.com/sublimeminds/mindful-bot-compass-sub016/internal/queue"
)

// ParserStageConfig configures the parser stage
type ParserStageConfig struct {
	// MaxReceiveCount drops messages delivered more often than this; 0 disables the check
	MaxReceiveCount int
}

// ParserStage turns SQS messages into interaction event envelopes
type ParserStage struct {
	consumer queue.QueueConsumer
	parser   MessageParser
	config   ParserStageConfig
	log      *zap.Logger
}

func NewParserStage(consumer queue.QueueConsumer, parser MessageParser, config ParserStageConfig, log *zap.Logger) *ParserStage {
	return &ParserStage{
		consumer: consumer,
		parser:   parser,
		config:   config,
		log:      log,
	}
}

// Start begins parsing messages and outputs envelopes
func (p *ParserStage) Start(ctx context.Context, in <-chan types.Message, out chan<- *Envelope) {
	defer close(out)

	for {
		select {
		case <-ctx.Done():
			p.log.Info("Parser stage shutting down")
			return
		case msg, ok := <-in:
			if !ok {
				p.log.Info("Parser stage input channel closed")
				return
			}

			envelope := p.parseMessage(ctx, msg)
			if envelope == nil {
				continue
			}

			select {
			case <-ctx.Done():
				return
			case out <- envelope:
				// Envelope sent to next stage
			}
		}
	}
}

// parseMessage turns one SQS message into an envelope. Malformed and
// exhausted messages are deleted and yield nil.
func (p *ParserStage) parseMessage(ctx context.Context, msg types.Message) *Envelope {
	messageID := aws.ToString(msg.MessageId)
	event, err := p.parser.Parse([]byte(aws.ToString(msg.Body)))
	if err != nil {
		metrics.ConsumerEventsTotal.WithLabelValues("malformed").Inc()
		p.log.Warn("Failed to parse message",
			zap.String("message_id", messageID),
			zap.Error(err))
		p.discard(ctx, msg, "malformed")
		return nil
	}

	receiveCount := receiveCountOf(msg)
	if p.config.MaxReceiveCount > 0 && receiveCount > p.config.MaxReceiveCount {
		metrics.ConsumerEventsTotal.WithLabelValues("exhausted").Inc()
		p.log.Warn("Dropping message after too many deliveries",
			zap.String("message_id", messageID),
			zap.String("event_id", event.ID),
			zap.Int("receive_count", receiveCount),
			zap.Int("max_receive_count", p.config.MaxReceiveCount))
		p.discard(ctx, msg, "exhausted")
		return nil
	}

	envelope := NewEnvelope(event,
		func(ctx context.Context) error { return p.deleteMessage(ctx, msg) },
		func(ctx context.Context) error { return p.releaseMessage(ctx, msg) },
	)
	envelope.MessageID = messageID
	envelope.ReceiveCount = receiveCount
	return envelope
}

func (p *ParserStage) discard(ctx context.Context, msg types.Message, reason string) {
	if err := p.deleteMessage(ctx, msg); err != nil {
		p.log.Error("Failed to delete "+reason+" message",
			zap.String("message_id", aws.ToString(msg.MessageId)),
			zap.Error(err))
		return
	}
	p.log.Info("Deleted "+reason+" message from SQS",
		zap.String("message_id", aws.ToString(msg.MessageId)))
}

// receiveCountOf reads ApproximateReceiveCount, or 0 when SQS did not send it
func receiveCountOf(msg types.Message) int {
	raw, ok := msg.Attributes[string(types.MessageSystemAttributeNameApproximateReceiveCount)]
	if !ok {
		return 0
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0
	}
	return n
}

// deleteMessage deletes a message from SQS
func (p *ParserStage) deleteMessage(ctx context.Context, msg types.Message) error {
	_, err := p.consumer.DeleteMessage(ctx, &awssqs.DeleteMessageInput{
		QueueUrl:      aws.String(p.consumer.QueueURL()),
		ReceiptHandle: msg.ReceiptHandle,
	})
	if err != nil {
		p.log.Error("Failed to delete message",
			zap.String("message_id", aws.ToString(msg.MessageId)),
			zap.Error(err))
		return err
	}
	return nil
}

// releaseMessage makes a message visible again right away instead of
// waiting out the queue's visibility timeout
func (p *ParserStage) releaseMessage(ctx context.Context, msg types.Message) error {
	_, err := p.consumer.ChangeMessageVisibility(ctx, &awssqs.ChangeMessageVisibilityInput{
		QueueUrl:          aws.String(p.consumer.QueueURL()),
		ReceiptHandle:     msg.ReceiptHandle,
		VisibilityTimeout: 0,
	})
	if err != nil {
		p.log.Error("Failed to release message",
			zap.String("message_id", aws.ToString(msg.MessageId)),
			zap.Error(err))
		return err
	}
	return nil
}
