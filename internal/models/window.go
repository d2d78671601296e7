// Package models defines the domain entities of the attack forecast pipeline.
// These models describe the daily calendar the report is drawn on, the synthetic
// alert events, their per-day counts, and the finished per-category series that
// are handed to the rendering side.
//
// Terminology:
//   - Category: an alert category label taken from the honeypot log (alert.category).
//   - Day: a calendar day, represented as midnight UTC.
//   - Leading category: the top-ranked category, the only one that is forecast.
package models

import (
	"fmt"
	"time"
)

// DateLayout is the calendar date format used in configuration and exports.
const DateLayout = "2006-01-02"

// Day floors t to midnight UTC of its calendar day.
func Day(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// ParseDay parses a YYYY-MM-DD date into midnight UTC.
func ParseDay(s string) (time.Time, error) {
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q: %w", s, err)
	}
	return t, nil
}

// DayWindow is a closed daily calendar interval [Start, End].
type DayWindow struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// NewDayWindow builds a window from two instants, flooring both to their day.
// An end before the start is an empty window and fails with ErrConfiguration.
func NewDayWindow(start, end time.Time) (DayWindow, error) {
	w := DayWindow{Start: Day(start), End: Day(end)}
	if err := w.Validate(); err != nil {
		return DayWindow{}, err
	}
	return w, nil
}

// Validate checks that the window is non-empty and day aligned.
func (w DayWindow) Validate() error {
	if w.Start.IsZero() || w.End.IsZero() {
		return fmt.Errorf("%w: day window bounds must be set", ErrConfiguration)
	}
	if !w.Start.Equal(Day(w.Start)) || !w.End.Equal(Day(w.End)) {
		return fmt.Errorf("%w: day window bounds must be midnight UTC", ErrConfiguration)
	}
	if w.End.Before(w.Start) {
		return fmt.Errorf("%w: day window end %s is before start %s",
			ErrConfiguration, w.End.Format(DateLayout), w.Start.Format(DateLayout))
	}
	return nil
}

// Len returns the number of days in the window, 0 for an empty window.
func (w DayWindow) Len() int {
	if w.End.Before(w.Start) {
		return 0
	}
	return DaysBetween(w.Start, w.End) + 1
}

// Days returns every day of the window in ascending order.
func (w DayWindow) Days() []time.Time {
	n := w.Len()
	days := make([]time.Time, n)
	for i := range n {
		days[i] = w.Start.AddDate(0, 0, i)
	}
	return days
}

// Contains reports whether the day of t falls inside the window.
func (w DayWindow) Contains(t time.Time) bool {
	d := Day(t)
	return !d.Before(w.Start) && !d.After(w.End)
}

// LastMonth returns the final calendar month of the window, clipped to the window.
func (w DayWindow) LastMonth() DayWindow {
	first := time.Date(w.End.Year(), w.End.Month(), 1, 0, 0, 0, 0, time.UTC)
	if first.Before(w.Start) {
		first = w.Start
	}
	return DayWindow{Start: first, End: w.End}
}

// String formats the window as "start..end".
func (w DayWindow) String() string {
	return w.Start.Format(DateLayout) + ".." + w.End.Format(DateLayout)
}

// DaysBetween returns the whole number of days from a to b (b - a).
func DaysBetween(a, b time.Time) int {
	return int(Day(b).Sub(Day(a)).Hours() / 24)
}

// LastDayOfMonth returns the day-of-month number of the last day in t's month.
func LastDayOfMonth(t time.Time) int {
	return time.Date(t.Year(), t.Month()+1, 0, 0, 0, 0, 0, time.UTC).Day()
}
