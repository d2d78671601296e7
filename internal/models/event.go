package models

import (
	"errors"
	"sort"
	"time"
)

// LogRow is one row of the cleaned honeypot log: the two columns kept by the cleaner.
type LogRow struct {
	Timestamp time.Time `json:"timestamp"`
	Category  string    `json:"category"`
}

// Event is a single synthetic alert: a timestamp inside one calendar day and a
// category sampled from the pool.
type Event struct {
	Timestamp time.Time `json:"timestamp"`
	Category  string    `json:"category"`
}

// Validate checks that all event fields are valid
func (e *Event) Validate() error {
	if e.Category == "" {
		return errors.New("event category must not be empty")
	}
	if e.Timestamp.IsZero() {
		return errors.New("event timestamp must be set")
	}
	return nil
}

// DayCategory keys a daily count.
type DayCategory struct {
	Day      time.Time
	Category string
}

// DailyCounts maps (day, category) to the number of events with that day and category.
type DailyCounts map[DayCategory]int

// Total returns the sum of all counts.
func (dc DailyCounts) Total() int {
	total := 0
	for _, n := range dc {
		total += n
	}
	return total
}

// Keys returns the keys in natural order: day ascending, then category ascending.
func (dc DailyCounts) Keys() []DayCategory {
	keys := make([]DayCategory, 0, len(dc))
	for k := range dc {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if !keys[i].Day.Equal(keys[j].Day) {
			return keys[i].Day.Before(keys[j].Day)
		}
		return keys[i].Category < keys[j].Category
	})
	return keys
}

// ForCategory returns the per-day counts of one category.
func (dc DailyCounts) ForCategory(category string) map[time.Time]int {
	out := make(map[time.Time]int)
	for k, n := range dc {
		if k.Category == category {
			out[k.Day] += n
		}
	}
	return out
}
