package engine

import (
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/sublimeminds/mindful-bot-compass-sub016/internal/domain"
)

// PredictOptimalTiming recommends when to deliver a notification of the given
// type. Events of the same type or of the same category are evidence.
func (e *Engine) PredictOptimalTiming(notificationType string, history []domain.InteractionEvent, contextFactors map[string]any, now time.Time) domain.TimingPrediction {
	now = now.In(e.params.Location)
	category := e.classifier.Classify(notificationType)
	target := normalizeType(notificationType)

	relevant := make([]domain.InteractionEvent, 0, len(history))
	for _, ev := range usableEvents(history) {
		if normalizeType(ev.NotificationType) == target || e.classifier.Classify(ev.NotificationType) == category {
			relevant = append(relevant, ev)
		}
	}

	if len(relevant) == 0 {
		return e.defaultPrediction(notificationType, category, now)
	}

	hours := rankEligible(aggregate(relevant, hourOf, e.params.Location), e.params.MinBucketSamples)
	days := rankEligible(aggregate(relevant, weekdayOf, e.params.Location), e.params.MinBucketSamples)

	optimalHour := e.classifier.FallbackHour(notificationType)
	fromHistory := len(hours) > 0
	if fromHistory {
		optimalHour = hours[0].key
	}
	optimalDay := -1
	if len(days) > 0 {
		optimalDay = days[0].key
	}

	recommended := e.project(now, optimalHour, optimalDay)

	alternatives := make([]time.Time, 0, e.params.MaxAlternatives)
	if fromHistory {
		for _, s := range hours[1:] {
			if len(alternatives) >= e.params.MaxAlternatives {
				break
			}
			alternatives = append(alternatives, e.project(now, s.key, optimalDay))
		}
	}

	return domain.TimingPrediction{
		NotificationType:  notificationType,
		Category:          string(category),
		RecommendedTime:   recommended,
		Confidence:        e.params.confidence(len(relevant)),
		AlternativeTimes:  alternatives,
		Reasoning:         e.reasoning(notificationType, relevant, optimalHour, optimalDay, fromHistory),
		ContextualFactors: e.contextualFactors(relevant, contextFactors),
		SampleCount:       len(relevant),
	}
}

func (e *Engine) defaultPrediction(notificationType string, category Category, now time.Time) domain.TimingPrediction {
	hour := e.classifier.FallbackHour(notificationType)
	return domain.TimingPrediction{
		NotificationType:  notificationType,
		Category:          string(category),
		RecommendedTime:   e.project(now, hour, -1),
		Confidence:        clamp01(e.params.DefaultConfidence),
		AlternativeTimes:  []time.Time{},
		Reasoning:         fmt.Sprintf("No historical data available for %s notifications; using the default delivery time of %02d:00.", category, hour),
		ContextualFactors: []string{},
	}
}

// project returns the next occurrence of hour:00 strictly after now, moved
// forward to day when that weekday is at most MaxDayAdvance days away.
// day < 0 means no weekday preference.
func (e *Engine) project(now time.Time, hour, day int) time.Time {
	t := time.Date(now.Year(), now.Month(), now.Day(), hour, 0, 0, 0, now.Location())
	if !t.After(now) {
		t = t.AddDate(0, 0, 1)
	}
	if day >= 0 {
		ahead := (day - int(t.Weekday()) + 7) % 7
		if ahead >= 1 && ahead <= e.params.MaxDayAdvance {
			t = t.AddDate(0, 0, ahead)
		}
	}
	return t
}

func (e *Engine) reasoning(notificationType string, events []domain.InteractionEvent, hour, day int, fromHistory bool) string {
	scores := make([]float64, 0, len(events))
	latencies := make([]float64, 0, len(events))
	for _, ev := range events {
		scores = append(scores, eventScore(ev))
		if ev.ResponseLatencyMinutes > 0 && !math.IsInf(ev.ResponseLatencyMinutes, 0) {
			latencies = append(latencies, ev.ResponseLatencyMinutes)
		}
	}

	var b strings.Builder
	if fromHistory {
		fmt.Fprintf(&b, "Based on %d past interactions, engagement peaks around %02d:00", len(events), hour)
	} else {
		fmt.Fprintf(&b, "Based on %d past interactions, no hour has enough repeat samples yet, so the default %02d:00 for %s is used", len(events), hour, notificationType)
	}
	if day >= 0 {
		fmt.Fprintf(&b, " with %s as the most responsive day", time.Weekday(day))
	}
	b.WriteString(". ")
	if len(latencies) > 0 {
		fmt.Fprintf(&b, "Average response time is %.0f minutes", average(latencies))
	} else {
		b.WriteString("Average response time is not known yet")
	}
	fmt.Fprintf(&b, " and overall engagement is %.0f%%.", average(scores)*100)
	return b.String()
}

var contextPhrases = map[string]map[bool]string{
	"has_active_session": {true: "an active session is in progress", false: "no session is active"},
	"is_weekend":         {true: "it is the weekend", false: "it is a weekday"},
	"recent_milestone":   {true: "a milestone was just reached", false: "no recent milestone"},
}

// contextualFactors reports request signals whose historical engagement differs
// from the rest of the history by at least ContextCorrelationDelta.
func (e *Engine) contextualFactors(events []domain.InteractionEvent, current map[string]any) []string {
	notes := []string{}
	if len(current) == 0 {
		return notes
	}

	keys := make([]string, 0, len(current))
	for k := range current {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, key := range keys {
		var (
			matches  func(any) bool
			describe string
		)
		if cv, ok := current[key].(bool); ok {
			matches = func(v any) bool {
				b, ok := v.(bool)
				return ok && b == cv
			}
			describe = describeBool(key, cv)
		} else if cv, ok := asNumber(current[key]); ok {
			tolerance := e.params.NumericContextTolerance
			matches = func(v any) bool {
				n, ok := asNumber(v)
				return ok && math.Abs(n-cv) <= tolerance
			}
			describe = fmt.Sprintf("%s is around %g", humanize(key), cv)
		} else {
			continue
		}

		var with, without []float64
		for _, ev := range events {
			if matches(ev.ContextFactors[key]) {
				with = append(with, eventScore(ev))
			} else {
				without = append(without, eventScore(ev))
			}
		}
		if len(with) < e.params.MinBucketSamples || len(without) < e.params.MinBucketSamples {
			continue
		}

		diff := average(with) - average(without)
		switch {
		case diff >= e.params.ContextCorrelationDelta:
			notes = append(notes, "higher engagement when "+describe)
		case diff <= -e.params.ContextCorrelationDelta:
			notes = append(notes, "lower engagement when "+describe)
		}
	}
	return notes
}

func describeBool(key string, value bool) string {
	if phrases, ok := contextPhrases[key]; ok {
		return phrases[value]
	}
	return fmt.Sprintf("%s is %t", humanize(key), value)
}

func humanize(key string) string {
	return strings.ReplaceAll(strings.TrimSpace(key), "_", " ")
}

func asNumber(v any) (float64, bool) {
	var n float64
	switch x := v.(type) {
	case float64:
		n = x
	case float32:
		n = float64(x)
	case int:
		n = float64(x)
	case int32:
		n = float64(x)
	case int64:
		n = float64(x)
	default:
		return 0, false
	}
	if math.IsNaN(n) || math.IsInf(n, 0) {
		return 0, false
	}
	return n, true
}
