package engine

import (
	"fmt"
	"time"

	"github.com/sublimeminds/mindful-bot-compass-sub016/internal/domain"
)

// Params holds the tunable numbers of the timing and frequency policies.
// The defaults are calibration starting points, not measured optima.
type Params struct {
	// MinBucketSamples is the sample count a bucket needs before it may drive a prediction
	MinBucketSamples int

	// ConfidenceBreakpoints are ascending sample counts; ConfidenceLevels has one
	// more entry than ConfidenceBreakpoints. n < Breakpoints[i] yields Levels[i].
	ConfidenceBreakpoints []int
	ConfidenceLevels      []float64

	// DefaultConfidence is reported when no history exists
	DefaultConfidence float64

	MaxAlternatives int
	MaxDayAdvance   int

	// FatigueWindow is the number of earliest and latest events compared for fatigue
	FatigueWindow int

	// DailyLimits is indexed by floor(fatigue * len(DailyLimits)), highest limit first
	DailyLimits []int
	HourlyLimit int

	MinIntervalFloor       int
	MinIntervalCeiling     int
	DefaultMinInterval     int
	IntervalGapLimit       time.Duration
	IntervalScoreThreshold float64

	// ContextCorrelationDelta is the engagement difference a context signal needs to be reported
	ContextCorrelationDelta float64
	NumericContextTolerance float64

	// HistoryLimit bounds how many recent events a single call reads
	HistoryLimit int

	DefaultQuietHours domain.QuietHours
	Location          *time.Location
}

// DefaultParams returns the starting calibration
func DefaultParams() Params {
	return Params{
		MinBucketSamples:        2,
		ConfidenceBreakpoints:   []int{10, 30, 50},
		ConfidenceLevels:        []float64{0.3, 0.5, 0.7, 0.9},
		DefaultConfidence:       0.3,
		MaxAlternatives:         3,
		MaxDayAdvance:           3,
		FatigueWindow:           20,
		DailyLimits:             []int{10, 7, 5, 3},
		HourlyLimit:             2,
		MinIntervalFloor:        30,
		MinIntervalCeiling:      180,
		DefaultMinInterval:      60,
		IntervalGapLimit:        8 * time.Hour,
		IntervalScoreThreshold:  0.6,
		ContextCorrelationDelta: 0.1,
		NumericContextTolerance: 1,
		HistoryLimit:            500,
		DefaultQuietHours:       domain.QuietHours{Start: "22:00", End: "08:00"},
		Location:                time.UTC,
	}
}

// Validate checks that the parameters describe monotone, bounded policies
func (p Params) Validate() error {
	if p.MinBucketSamples < 1 {
		return fmt.Errorf("min bucket samples must be at least 1, got %d", p.MinBucketSamples)
	}
	if len(p.ConfidenceLevels) != len(p.ConfidenceBreakpoints)+1 {
		return fmt.Errorf("expected %d confidence levels for %d breakpoints, got %d",
			len(p.ConfidenceBreakpoints)+1, len(p.ConfidenceBreakpoints), len(p.ConfidenceLevels))
	}
	for i := 1; i < len(p.ConfidenceBreakpoints); i++ {
		if p.ConfidenceBreakpoints[i] <= p.ConfidenceBreakpoints[i-1] {
			return fmt.Errorf("confidence breakpoints must be strictly ascending: %v", p.ConfidenceBreakpoints)
		}
	}
	for i, level := range p.ConfidenceLevels {
		if level < 0 || level > 1 {
			return fmt.Errorf("confidence level %v out of [0,1]", level)
		}
		if i > 0 && level < p.ConfidenceLevels[i-1] {
			return fmt.Errorf("confidence levels must be non-decreasing: %v", p.ConfidenceLevels)
		}
	}
	if p.FatigueWindow < 1 {
		return fmt.Errorf("fatigue window must be at least 1, got %d", p.FatigueWindow)
	}
	if len(p.DailyLimits) == 0 {
		return fmt.Errorf("daily limits must not be empty")
	}
	for i, limit := range p.DailyLimits {
		if limit < minDailyLimit || limit > maxDailyLimit {
			return fmt.Errorf("daily limit %d out of [%d,%d]", limit, minDailyLimit, maxDailyLimit)
		}
		if i > 0 && limit > p.DailyLimits[i-1] {
			return fmt.Errorf("daily limits must be non-increasing: %v", p.DailyLimits)
		}
	}
	if p.MinIntervalFloor > p.MinIntervalCeiling {
		return fmt.Errorf("minimum interval floor %d exceeds ceiling %d", p.MinIntervalFloor, p.MinIntervalCeiling)
	}
	if p.HistoryLimit < 1 {
		return fmt.Errorf("history limit must be positive, got %d", p.HistoryLimit)
	}
	return nil
}

func (p Params) confidence(samples int) float64 {
	if len(p.ConfidenceLevels) == 0 {
		return p.DefaultConfidence
	}
	level := p.ConfidenceLevels[len(p.ConfidenceLevels)-1]
	for i, bp := range p.ConfidenceBreakpoints {
		if samples < bp && i < len(p.ConfidenceLevels) {
			level = p.ConfidenceLevels[i]
			break
		}
	}
	return clamp01(level)
}
