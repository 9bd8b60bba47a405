package engine

import (
	"math"
	"strconv"
	"strings"

	"github.com/sublimeminds/mindful-bot-compass-sub016/internal/domain"
)

// Conservative caps used when history cannot be read
const (
	conservativeDailyLimit  = 5
	conservativeHourlyLimit = 2
	conservativeInterval    = 30
)

// Fatigue compares the earliest and latest FatigueWindow events. A positive
// value means engagement has dropped; it is 0 until enough history exists.
func (e *Engine) Fatigue(history []domain.InteractionEvent) float64 {
	events := usableEvents(history)
	w := e.params.FatigueWindow
	if w < 1 || len(events) < w {
		return 0
	}

	early := make([]float64, 0, w)
	for _, ev := range events[:w] {
		early = append(early, eventScore(ev))
	}
	late := make([]float64, 0, w)
	for _, ev := range events[len(events)-w:] {
		late = append(late, eventScore(ev))
	}
	return math.Max(0, average(early)-average(late))
}

// DailyLimitForFatigue maps fatigue onto the limit table, clamped to the table bounds
func DailyLimitForFatigue(fatigue float64, limits []int) int {
	if len(limits) == 0 {
		return minDailyLimit
	}
	if math.IsNaN(fatigue) || fatigue < 0 {
		fatigue = 0
	}
	idx := int(math.Floor(fatigue * float64(len(limits))))
	if idx >= len(limits) {
		idx = len(limits) - 1
	}
	limit := limits[idx]
	if limit < minDailyLimit {
		return minDailyLimit
	}
	if limit > maxDailyLimit {
		return maxDailyLimit
	}
	return limit
}

// FrequencyPolicy derives the user's send caps from their history. A valid
// override replaces the default quiet hours.
func (e *Engine) FrequencyPolicy(history []domain.InteractionEvent, override *domain.QuietHours) domain.FrequencyPolicy {
	fatigue := e.Fatigue(history)
	return domain.FrequencyPolicy{
		DailyLimit:             DailyLimitForFatigue(fatigue, e.params.DailyLimits),
		HourlyLimit:            e.params.HourlyLimit,
		MinimumIntervalMinutes: e.minimumInterval(history),
		QuietHours:             e.quietHours(override),
		Fatigue:                fatigue,
	}
}

// ConservativePolicy is returned when the history cannot be read
func (e *Engine) ConservativePolicy(override *domain.QuietHours) domain.FrequencyPolicy {
	return domain.FrequencyPolicy{
		DailyLimit:             conservativeDailyLimit,
		HourlyLimit:            conservativeHourlyLimit,
		MinimumIntervalMinutes: conservativeInterval,
		QuietHours:             e.quietHours(override),
	}
}

func (e *Engine) minimumInterval(history []domain.InteractionEvent) int {
	events := usableEvents(history)
	best := -1.0
	for i := 1; i < len(events); i++ {
		gap := events[i].Timestamp.Sub(events[i-1].Timestamp)
		if gap >= e.params.IntervalGapLimit {
			continue
		}
		if eventScore(events[i]) < e.params.IntervalScoreThreshold {
			continue
		}
		if best < 0 || gap.Minutes() < best {
			best = gap.Minutes()
		}
	}
	if best < 0 {
		return e.params.DefaultMinInterval
	}

	minutes := int(math.Round(best))
	if minutes < e.params.MinIntervalFloor {
		return e.params.MinIntervalFloor
	}
	if minutes > e.params.MinIntervalCeiling {
		return e.params.MinIntervalCeiling
	}
	return minutes
}

func (e *Engine) quietHours(override *domain.QuietHours) domain.QuietHours {
	if override != nil && ValidClock(override.Start) && ValidClock(override.End) {
		return *override
	}
	return e.params.DefaultQuietHours
}

// ValidClock reports whether s is a 24-hour "HH:MM" wall-clock time
func ValidClock(s string) bool {
	h, m, ok := strings.Cut(s, ":")
	if !ok || len(h) != 2 || len(m) != 2 {
		return false
	}
	hour, err := strconv.Atoi(h)
	if err != nil || hour < 0 || hour > 23 {
		return false
	}
	minute, err := strconv.Atoi(m)
	return err == nil && minute >= 0 && minute <= 59
}
