package engine

import (
	"sort"
	"time"

	"github.com/sublimeminds/mindful-bot-compass-sub016/internal/domain"
)

var engagementScores = map[domain.EventType]float64{
	domain.EventClicked:   1.0,
	domain.EventViewed:    0.7,
	domain.EventDelivered: 0.3,
	domain.EventDismissed: 0.1,
	domain.EventIgnored:   0.0,
}

// EngagementScore maps an event type to [0,1]. Unknown types score 0.
func EngagementScore(t domain.EventType) float64 {
	return engagementScores[t]
}

func eventScore(ev domain.InteractionEvent) float64 {
	if ev.FeedbackScore != nil {
		return clamp01(*ev.FeedbackScore)
	}
	return EngagementScore(ev.EventType)
}

type slot struct {
	key   int
	sum   float64
	count int
}

func (s slot) average() float64 {
	if s.count == 0 {
		return 0
	}
	return s.sum / float64(s.count)
}

// aggregate groups events by key and returns the slots in ascending key order
func aggregate(events []domain.InteractionEvent, key func(time.Time) int, loc *time.Location) []slot {
	byKey := make(map[int]*slot)
	for _, ev := range events {
		k := key(ev.Timestamp.In(loc))
		s, ok := byKey[k]
		if !ok {
			s = &slot{key: k}
			byKey[k] = s
		}
		s.sum += eventScore(ev)
		s.count++
	}

	slots := make([]slot, 0, len(byKey))
	for _, s := range byKey {
		slots = append(slots, *s)
	}
	sort.Slice(slots, func(i, j int) bool { return slots[i].key < slots[j].key })
	return slots
}

// rankEligible keeps slots with enough samples, best first. Ties go to the
// slot with more samples, then to the smaller key.
func rankEligible(slots []slot, minSamples int) []slot {
	ranked := make([]slot, 0, len(slots))
	for _, s := range slots {
		if s.count >= minSamples {
			ranked = append(ranked, s)
		}
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		ai, aj := ranked[i].average(), ranked[j].average()
		if ai != aj {
			return ai > aj
		}
		if ranked[i].count != ranked[j].count {
			return ranked[i].count > ranked[j].count
		}
		return ranked[i].key < ranked[j].key
	})
	return ranked
}

func hourOf(t time.Time) int { return t.Hour() }

func weekdayOf(t time.Time) int { return int(t.Weekday()) }

// AnalyzePatterns buckets the history by (hour, weekday) in the engine's time zone
func (e *Engine) AnalyzePatterns(history []domain.InteractionEvent) []domain.EngagementPattern {
	events := usableEvents(history)
	if len(events) == 0 {
		return []domain.EngagementPattern{}
	}

	slots := aggregate(events, func(t time.Time) int {
		return weekdayOf(t)*24 + hourOf(t)
	}, e.params.Location)

	patterns := make([]domain.EngagementPattern, 0, len(slots))
	for _, s := range slots {
		patterns = append(patterns, domain.EngagementPattern{
			Hour:         s.key % 24,
			DayOfWeek:    s.key / 24,
			AverageScore: s.average(),
			SampleCount:  s.count,
			Eligible:     s.count >= e.params.MinBucketSamples,
		})
	}
	return patterns
}
