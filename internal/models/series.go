package models

import (
	"fmt"
	"time"
)

// Point is one day of a series. Forecast marks values produced by the seasonal model
// rather than counted from events.
type Point struct {
	Day      time.Time `json:"day"`
	Value    float64   `json:"value"`
	Forecast bool      `json:"forecast,omitempty"`
}

// Series is an ordered per-category sequence of daily points. It is used for the
// reindexed history of a category, for a forecast, and for the merged result.
type Series struct {
	Category string  `json:"category"`
	Points   []Point `json:"points"`
}

// Validate checks that days are strictly increasing with a step of exactly one day.
func (s *Series) Validate() error {
	if s.Category == "" {
		return fmt.Errorf("series category must not be empty")
	}
	for i := 1; i < len(s.Points); i++ {
		if step := DaysBetween(s.Points[i-1].Day, s.Points[i].Day); step != 1 {
			return fmt.Errorf("series %s: day %s follows %s with step %d",
				s.Category, s.Points[i].Day.Format(DateLayout), s.Points[i-1].Day.Format(DateLayout), step)
		}
	}
	return nil
}

// Len returns the number of points.
func (s *Series) Len() int {
	return len(s.Points)
}

// Values returns the point values in order.
func (s *Series) Values() []float64 {
	values := make([]float64, len(s.Points))
	for i, p := range s.Points {
		values[i] = p.Value
	}
	return values
}

// FirstDay returns the first day of the series, zero when empty.
func (s *Series) FirstDay() time.Time {
	if len(s.Points) == 0 {
		return time.Time{}
	}
	return s.Points[0].Day
}

// LastDay returns the last day of the series, zero when empty.
func (s *Series) LastDay() time.Time {
	if len(s.Points) == 0 {
		return time.Time{}
	}
	return s.Points[len(s.Points)-1].Day
}

// Annotation is a labelled point for the chart: a category value on a given day.
type Annotation struct {
	Category string    `json:"category"`
	Day      time.Time `json:"day"`
	Value    float64   `json:"value"`
}
