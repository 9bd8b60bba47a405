package consumer

import (
	"context"

	"github.com/sublimeminds/mindful-bot-compass-sub016/internal/domain"
)

// Envelope carries a parsed interaction event together with the callbacks
// that settle its queue message
type Envelope struct {
	Event *domain.InteractionEvent

	// MessageID and ReceiveCount describe the SQS message the event came from
	MessageID    string
	ReceiveCount int

	ack  func(context.Context) error
	nack func(context.Context) error
}

func NewEnvelope(event *domain.InteractionEvent, ack, nack func(context.Context) error) *Envelope {
	return &Envelope{
		Event: event,
		ack:   ack,
		nack:  nack,
	}
}

// Ack removes the message from the queue
func (e *Envelope) Ack(ctx context.Context) error {
	if e.ack == nil {
		return nil
	}
	return e.ack(ctx)
}

// Nack makes the message visible again for redelivery
func (e *Envelope) Nack(ctx context.Context) error {
	if e.nack == nil {
		return nil
	}
	return e.nack(ctx)
}
