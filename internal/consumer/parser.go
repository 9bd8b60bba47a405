package consumer

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/sublimeminds/mindful-bot-compass-sub016/internal/domain"
)

// JSONEventParser implements MessageParser for JSON-encoded interaction events
type JSONEventParser struct{}

// NewJSONEventParser creates a new JSON event parser
func NewJSONEventParser() *JSONEventParser {
	return &JSONEventParser{}
}

// Parse decodes a message body and rejects events the store must never see
func (p *JSONEventParser) Parse(body []byte) (*domain.InteractionEvent, error) {
	var event domain.InteractionEvent
	if err := json.Unmarshal(body, &event); err != nil {
		return nil, fmt.Errorf("failed to unmarshal message body: %w", err)
	}

	switch {
	case strings.TrimSpace(event.ID) == "":
		return nil, errors.New("event has no id")
	case strings.TrimSpace(event.UserID) == "":
		return nil, errors.New("event has no user_id")
	case !event.EventType.Valid():
		return nil, fmt.Errorf("unknown event type %q", event.EventType)
	case event.Timestamp.IsZero():
		return nil, errors.New("event has no timestamp")
	case math.IsNaN(event.ResponseLatencyMinutes) || event.ResponseLatencyMinutes < 0:
		return nil, errors.New("event has a negative response latency")
	}

	event.Timestamp = event.Timestamp.UTC()
	return &event, nil
}
