package engine

import "strings"

// Category is a coarse behavioral grouping of notification types
type Category string

const (
	CategoryEngagement  Category = "engagement"
	CategoryAchievement Category = "achievement"
	CategoryInsight     Category = "insight"
	CategoryWellbeing   Category = "wellbeing"
	CategoryGeneral     Category = "general"
)

// Valid reports whether c is a known category
func (c Category) Valid() bool {
	switch c {
	case CategoryEngagement, CategoryAchievement, CategoryInsight, CategoryWellbeing, CategoryGeneral:
		return true
	}
	return false
}

const defaultFallbackHour = 10

var defaultCategories = map[string]Category{
	"session_reminder":   CategoryEngagement,
	"milestone_achieved": CategoryAchievement,
	"insight_generated":  CategoryInsight,
	"progress_update":    CategoryInsight,
	"mood_check":         CategoryWellbeing,
}

var defaultFallbackHours = map[string]int{
	"session_reminder":   9,
	"mood_check":         19,
	"milestone_achieved": 10,
	"insight_generated":  14,
	"progress_update":    18,
}

// Classifier maps notification types to categories and default delivery hours.
// It is immutable after construction and safe for concurrent use.
type Classifier struct {
	categories    map[string]Category
	fallbackHours map[string]int
}

// NewClassifier builds a classifier from the built-in table with the given overrides applied
func NewClassifier(categories map[string]Category, fallbackHours map[string]int) *Classifier {
	c := &Classifier{
		categories:    make(map[string]Category, len(defaultCategories)+len(categories)),
		fallbackHours: make(map[string]int, len(defaultFallbackHours)+len(fallbackHours)),
	}
	for k, v := range defaultCategories {
		c.categories[k] = v
	}
	for k, v := range categories {
		c.categories[normalizeType(k)] = v
	}
	for k, v := range defaultFallbackHours {
		c.fallbackHours[k] = v
	}
	for k, v := range fallbackHours {
		c.fallbackHours[normalizeType(k)] = v
	}
	return c
}

// DefaultClassifier returns the classifier with only the built-in table
func DefaultClassifier() *Classifier {
	return NewClassifier(nil, nil)
}

// Classify returns the category of notificationType, or CategoryGeneral if unknown
func (c *Classifier) Classify(notificationType string) Category {
	if c == nil {
		c = DefaultClassifier()
	}
	if category, ok := c.categories[normalizeType(notificationType)]; ok && category.Valid() {
		return category
	}
	return CategoryGeneral
}

// FallbackHour is the delivery hour used when a type has no usable history
func (c *Classifier) FallbackHour(notificationType string) int {
	if c == nil {
		c = DefaultClassifier()
	}
	if hour, ok := c.fallbackHours[normalizeType(notificationType)]; ok && hour >= 0 && hour <= 23 {
		return hour
	}
	return defaultFallbackHour
}

// Types returns the number of notification types with an explicit category
func (c *Classifier) Types() int {
	if c == nil {
		return len(defaultCategories)
	}
	return len(c.categories)
}

func normalizeType(t string) string {
	return strings.ToLower(strings.TrimSpace(t))
}
