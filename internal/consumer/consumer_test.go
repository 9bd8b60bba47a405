package consumer

import (
	"context"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/aws/aws-sdk-go-v2/service/sqs/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/sublimeminds/mindful-bot-compass-sub016/internal/config"
	"github.com/sublimeminds/mindful-bot-compass-sub016/internal/domain"
)

const validEventBody = `{"id":"1","user_id":"user123","notification_id":"ntf-1","notification_type":"mood_check","event_type":"clicked","timestamp":"2025-12-25T22:42:32Z"}`

func testConsumerConfig() *config.Config {
	return &config.Config{
		Consumer: config.Consumer{
			BatchSizeMax:    10,
			BatchTimeoutSec: 1,
			MaxMessages:     10,
			WaitTimeSec:     20,
			BufferSize:      100,
			BackoffMaxSec:   1,
			MaxReceiveCount: 5,
		},
	}
}

// queueWith makes the mock return messages once and then an empty queue
func queueWith(mockConsumer *MockQueueConsumer, messages ...types.Message) {
	mockConsumer.On("QueueURL").Return("https://sqs.eu-central-1.amazonaws.com/123/interaction-events")
	if len(messages) > 0 {
		mockConsumer.On("ReceiveMessages", mock.Anything, mock.AnythingOfType("*sqs.ReceiveMessageInput")).
			Return(&sqs.ReceiveMessageOutput{Messages: messages}, nil).Once()
	}
	mockConsumer.On("ReceiveMessages", mock.Anything, mock.AnythingOfType("*sqs.ReceiveMessageInput")).
		Return(&sqs.ReceiveMessageOutput{Messages: []types.Message{}}, nil).Maybe()
}

func TestConsumer_Start_StoresAndAcks(t *testing.T) {
	mockConsumer := new(MockQueueConsumer)
	mockStore := new(MockEventStore)

	queueWith(mockConsumer, types.Message{
		MessageId:     aws.String("msg-1"),
		Body:          aws.String(validEventBody),
		ReceiptHandle: aws.String("receipt-1"),
	})
	mockConsumer.On("DeleteMessage", mock.Anything, mock.MatchedBy(func(in *sqs.DeleteMessageInput) bool {
		return aws.ToString(in.ReceiptHandle) == "receipt-1"
	})).Return(&sqs.DeleteMessageOutput{}, nil).Once()
	mockStore.On("InsertBatch", mock.Anything, mock.MatchedBy(func(events []*domain.InteractionEvent) bool {
		return len(events) == 1 && events[0].ID == "1" && events[0].EventType == domain.EventClicked
	})).Return(1, nil).Once()

	consumer := NewConsumer(testConsumerConfig(), mockConsumer, mockStore, nil, zap.NewNop())

	ctx, cancel := context.WithTimeout(context.Background(), 300*time.Millisecond)
	defer cancel()

	require.NoError(t, consumer.Start(ctx))

	mockStore.AssertExpectations(t)
	mockConsumer.AssertExpectations(t)
}

func TestConsumer_Start_SkipsSeenEvents(t *testing.T) {
	mockConsumer := new(MockQueueConsumer)
	mockStore := new(MockEventStore)
	filter := new(MockIdempotencyFilter)

	queueWith(mockConsumer, types.Message{
		MessageId:     aws.String("msg-1"),
		Body:          aws.String(validEventBody),
		ReceiptHandle: aws.String("receipt-1"),
	})
	mockConsumer.On("DeleteMessage", mock.Anything, mock.AnythingOfType("*sqs.DeleteMessageInput")).
		Return(&sqs.DeleteMessageOutput{}, nil).Once()
	filter.On("Seen", mock.Anything, "1").Return(true, nil)

	consumer := NewConsumer(testConsumerConfig(), mockConsumer, mockStore, filter, zap.NewNop())

	ctx, cancel := context.WithTimeout(context.Background(), 300*time.Millisecond)
	defer cancel()

	require.NoError(t, consumer.Start(ctx))

	mockStore.AssertNotCalled(t, "InsertBatch", mock.Anything, mock.Anything)
	mockConsumer.AssertExpectations(t)
	filter.AssertNotCalled(t, "MarkSeen", mock.Anything, mock.Anything)
}

func TestConsumer_Start_DeletesMalformedMessages(t *testing.T) {
	mockConsumer := new(MockQueueConsumer)
	mockStore := new(MockEventStore)

	queueWith(mockConsumer, types.Message{
		MessageId:     aws.String("msg-1"),
		Body:          aws.String(`{"id":"1","event_type":"opened"}`),
		ReceiptHandle: aws.String("receipt-1"),
	})
	mockConsumer.On("DeleteMessage", mock.Anything, mock.AnythingOfType("*sqs.DeleteMessageInput")).
		Return(&sqs.DeleteMessageOutput{}, nil).Once()

	consumer := NewConsumer(testConsumerConfig(), mockConsumer, mockStore, nil, zap.NewNop())

	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()

	require.NoError(t, consumer.Start(ctx))

	mockStore.AssertNotCalled(t, "InsertBatch", mock.Anything, mock.Anything)
	mockConsumer.AssertExpectations(t)
}

func TestConsumer_Start_GracefulShutdown(t *testing.T) {
	mockConsumer := new(MockQueueConsumer)
	mockStore := new(MockEventStore)
	queueWith(mockConsumer)

	consumer := NewConsumer(testConsumerConfig(), mockConsumer, mockStore, nil, zap.NewNop())

	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() {
		done <- consumer.Start(ctx)
	}()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(500 * time.Millisecond):
		t.Fatal("Graceful shutdown took too long")
	}
	mockStore.AssertNotCalled(t, "InsertBatch", mock.Anything, mock.Anything)
}

func TestNewConsumer_AppliesConfig(t *testing.T) {
	cfg := testConsumerConfig()
	cfg.Consumer.MaxMessages = 7
	cfg.Consumer.BackoffMaxSec = 30
	cfg.Consumer.BufferSize = 42
	cfg.Valkey.IdempotencyFailOpen = true

	consumer := NewConsumer(cfg, new(MockQueueConsumer), new(MockEventStore), nil, zap.NewNop())

	assert.Equal(t, int32(7), consumer.receiver.config.MaxMessages)
	assert.Equal(t, int32(20), consumer.receiver.config.WaitTimeSeconds)
	assert.Equal(t, 30*time.Second, consumer.receiver.config.MaxBackoff)
	assert.Equal(t, 5, consumer.parser.config.MaxReceiveCount)
	assert.Equal(t, 10, consumer.batchWriter.config.MaxBatchSize)
	assert.Equal(t, time.Second, consumer.batchWriter.config.FlushTimeout)
	assert.True(t, consumer.batchWriter.config.FailOpen)
	assert.Equal(t, 42, consumer.bufferSize)
}
