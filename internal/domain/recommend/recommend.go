package recommend

import (
	"fmt"
	"time"
)

// Window is the trending look-back period.
type Window string

// Trending windows.
const (
	Day   Window = "day"
	Week  Window = "week"
	Month Window = "month"
)

// ParseWindow validates a raw window, empty means Week.
func ParseWindow(s string) (Window, error) {
	if s == "" {
		return Week, nil
	}
	w := Window(s)
	if !w.IsValid() {
		return "", fmt.Errorf("invalid time window: %q (want day, week or month)", s)
	}
	return w, nil
}

// IsValid checks if the window is one of the supported values.
func (w Window) IsValid() bool {
	return w == Day || w == Week || w == Month
}

// Duration returns the window length. Month is 30 days.
func (w Window) Duration() time.Duration {
	switch w {
	case Day:
		return 24 * time.Hour
	case Week:
		return 7 * 24 * time.Hour
	case Month:
		return 30 * 24 * time.Hour
	default:
		return 0
	}
}

// Since returns the window start relative to now.
func (w Window) Since(now time.Time) time.Time {
	return now.Add(-w.Duration())
}

// Item is a ranked recommendation. Score semantics depend on the source list.
type Item struct {
	ID    string  `json:"id"`
	Title string  `json:"title"`
	Score float64 `json:"score"`
}

// Source tells whether recommendations were personalized or fell back to trending.
type Source string

// Recommendation sources.
const (
	Personalized Source = "personalized"
	Trending     Source = "trending"
)

// Recommendations is a personalized list and where it came from.
type Recommendations struct {
	Items  []Item `json:"items"`
	Source Source `json:"source"`
}
