// Package engine computes engagement patterns, timing predictions and
// frequency policies from a user's interaction history. Every method is a pure
// function of its inputs; storage and clocks belong to the caller.
package engine

import (
	"math"
	"sort"
	"time"

	"github.com/sublimeminds/mindful-bot-compass-sub016/internal/domain"
)

const (
	minDailyLimit = 3
	maxDailyLimit = 10
)

type Engine struct {
	params     Params
	classifier *Classifier
}

// New creates an engine. A nil classifier means the built-in category table.
func New(params Params, classifier *Classifier) *Engine {
	if classifier == nil {
		classifier = DefaultClassifier()
	}
	if params.Location == nil {
		params.Location = time.UTC
	}
	return &Engine{params: params, classifier: classifier}
}

// usableEvents drops events without a timestamp or without any scorable outcome
// and returns the rest oldest first.
func usableEvents(history []domain.InteractionEvent) []domain.InteractionEvent {
	events := make([]domain.InteractionEvent, 0, len(history))
	for _, ev := range history {
		if ev.Timestamp.IsZero() {
			continue
		}
		if !ev.EventType.Valid() && ev.FeedbackScore == nil {
			continue
		}
		events = append(events, ev)
	}
	sort.SliceStable(events, func(i, j int) bool {
		return events[i].Timestamp.Before(events[j].Timestamp)
	})
	return events
}

func clamp01(v float64) float64 {
	if math.IsNaN(v) {
		return 0
	}
	return math.Max(0, math.Min(1, v))
}

func average(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	var sum float64
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}
