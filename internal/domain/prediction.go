package domain

import "time"

// EngagementPattern aggregates engagement for one (hour, weekday) bucket
type EngagementPattern struct {
	Hour         int     `json:"hour"`
	DayOfWeek    int     `json:"day_of_week"`
	AverageScore float64 `json:"average_score"`
	SampleCount  int     `json:"sample_count"`
	Eligible     bool    `json:"eligible"`
}

// TimingPrediction is the recommended delivery moment for a notification
type TimingPrediction struct {
	NotificationType  string      `json:"notification_type"`
	Category          string      `json:"category"`
	RecommendedTime   time.Time   `json:"recommended_time"`
	Confidence        float64     `json:"confidence"`
	AlternativeTimes  []time.Time `json:"alternative_times"`
	Reasoning         string      `json:"reasoning"`
	ContextualFactors []string    `json:"contextual_factors"`
	SampleCount       int         `json:"sample_count"`
}

// QuietHours is a wall-clock window ("HH:MM") during which nothing should be sent
type QuietHours struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

// FrequencyPolicy holds the personalized send caps for a user
type FrequencyPolicy struct {
	DailyLimit             int        `json:"daily_limit"`
	HourlyLimit            int        `json:"hourly_limit"`
	MinimumIntervalMinutes int        `json:"minimum_interval_minutes"`
	QuietHours             QuietHours `json:"quiet_hours"`
	Fatigue                float64    `json:"fatigue"`
}
